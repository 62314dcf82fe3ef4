package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"order_of_ash/internal/config"
	"order_of_ash/internal/domain"
	"order_of_ash/internal/http/handlers"

	"github.com/gin-gonic/gin"
)

// заглушка хранилища игроков: маршрутным тестам нужен только топ
type stubPlayers struct {
	top []domain.LeaderboardEntry
}

func (s *stubPlayers) GetByTgID(context.Context, int64) (*domain.Player, error) {
	return nil, domain.NewError(domain.KindNotFound, "player not found")
}
func (s *stubPlayers) Upsert(context.Context, int64, string, time.Time) (*domain.Player, error) {
	return nil, domain.NewError(domain.KindTransient, "not implemented")
}
func (s *stubPlayers) Delete(context.Context, int64) error { return nil }
func (s *stubPlayers) Top(context.Context, int) ([]domain.LeaderboardEntry, error) {
	return s.top, nil
}
func (s *stubPlayers) GetByReferralCode(context.Context, string) (*domain.Player, error) {
	return nil, domain.NewError(domain.KindNotFound, "player not found")
}
func (s *stubPlayers) ApplyReferral(context.Context, int64, int64) error        { return nil }
func (s *stubPlayers) IssueReferralReward(context.Context, int64) (bool, error) { return false, nil }
func (s *stubPlayers) GrantFragment(context.Context, int64, int) error          { return nil }

func TestLeaderboard_PublicWithoutToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := &handlers.Handler{
		Cfg:     &config.Config{},
		Players: &stubPlayers{top: []domain.LeaderboardEntry{{TgID: 1, Name: "A", FragmentsCount: 4}}},
	}
	RegisterRoutes(r, h, "test", nil)

	// без Authorization заголовка список все равно отдается
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("лидерборд должен быть публичным, получен %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"fragmentsCount":4`) {
		t.Fatalf("неожиданное тело ответа: %q", w.Body.String())
	}

	// защищенные маршруты при этом остаются за bearer
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/final-window", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("final-window без токена должен получать 401, получен %d", w.Code)
	}
}
