package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"order_of_ash/internal/domain"
	"order_of_ash/internal/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ProfileSource — источник свежего профиля
type ProfileSource interface {
	GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error)
}

// ProfileCache — кеш профилей с ограниченным TTL и склейкой
// одновременных одинаковых запросов. Экраны с поллингом раз в 3 секунды
// не должны долбить базу на каждый тик.
type ProfileCache struct {
	rdb    *redis.Client
	source ProfileSource
	ttl    time.Duration
	group  singleflight.Group
}

// NewProfileCache создает кеш профилей
func NewProfileCache(rdb *redis.Client, source ProfileSource, ttl time.Duration) *ProfileCache {
	return &ProfileCache{rdb: rdb, source: source, ttl: ttl}
}

func profileKey(tgID int64) string {
	return fmt.Sprintf("profile:%d", tgID)
}

// Get возвращает профиль из кеша либо грузит из источника.
// Конкурентные запросы одного профиля сливаются в один поход в базу.
func (c *ProfileCache) Get(ctx context.Context, tgID int64) (*domain.Player, error) {
	key := profileKey(tgID)

	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var p domain.Player
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		// битую запись перечитываем из источника
		logger.Warn("битая запись в кеше профилей", "tg_id", tgID)
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		player, err := c.source.GetByTgID(ctx, tgID)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(player); err == nil {
			if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
				logger.Warn("не удалось записать профиль в кеш", "tg_id", tgID, "error", err)
			}
		}
		return player, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Player), nil
}

// Invalidate сбрасывает кеш профиля — после выдачи фрагмента,
// проклятия или финальной попытки
func (c *ProfileCache) Invalidate(ctx context.Context, tgID int64) {
	if err := c.rdb.Del(ctx, profileKey(tgID)).Err(); err != nil {
		logger.Warn("не удалось сбросить кеш профиля", "tg_id", tgID, "error", err)
	}
}
