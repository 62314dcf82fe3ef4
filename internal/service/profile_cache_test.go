package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"order_of_ash/internal/domain"
)

// источник с подсчетом обращений
type countingSource struct {
	inner *fakePlayerStore
	calls atomic.Int32
	gate  chan struct{} // если задан, загрузка ждет сигнала
}

func (s *countingSource) GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	return s.inner.GetByTgID(ctx, tgID)
}

type ProfileCacheSuite struct {
	suite.Suite
	mini   *miniredis.Miniredis
	rdb    *redis.Client
	source *countingSource
	cache  *ProfileCache
	ctx    context.Context
}

func TestProfileCacheSuite(t *testing.T) {
	suite.Run(t, new(ProfileCacheSuite))
}

func (s *ProfileCacheSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.rdb = redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.source = &countingSource{inner: newFakePlayerStore(readyPlayer(7))}
	s.cache = NewProfileCache(s.rdb, s.source, 5*time.Second)
	s.ctx = context.Background()
}

func (s *ProfileCacheSuite) TearDownTest() {
	_ = s.rdb.Close()
}

func (s *ProfileCacheSuite) TestCachedWithinTTL() {
	p, err := s.cache.Get(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(int64(7), p.TgID)

	// повторный запрос в пределах TTL не трогает источник
	_, err = s.cache.Get(s.ctx, 7)
	s.Require().NoError(err)
	s.EqualValues(1, s.source.calls.Load())

	// по истечении TTL — свежая загрузка
	s.mini.FastForward(6 * time.Second)
	_, err = s.cache.Get(s.ctx, 7)
	s.Require().NoError(err)
	s.EqualValues(2, s.source.calls.Load())
}

func (s *ProfileCacheSuite) TestSingleflightCoalesces() {
	// десять конкурентных запросов — один поход в источник
	s.source.gate = make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.cache.Get(s.ctx, 7)
			s.NoError(err)
		}()
	}

	// даем горутинам сгрудиться на одном ключе
	time.Sleep(20 * time.Millisecond)
	close(s.source.gate)
	wg.Wait()

	s.EqualValues(1, s.source.calls.Load())
}

func (s *ProfileCacheSuite) TestInvalidate() {
	_, err := s.cache.Get(s.ctx, 7)
	s.Require().NoError(err)

	s.cache.Invalidate(s.ctx, 7)

	_, err = s.cache.Get(s.ctx, 7)
	s.Require().NoError(err)
	s.EqualValues(2, s.source.calls.Load())
}

func (s *ProfileCacheSuite) TestUnknownPlayerNotCached() {
	_, err := s.cache.Get(s.ctx, 999)
	s.Require().Error(err)
	s.True(domain.IsKind(err, domain.KindNotFound))

	// ошибка не кешируется: следующий запрос снова идет в источник
	_, _ = s.cache.Get(s.ctx, 999)
	s.EqualValues(2, s.source.calls.Load())
}
