package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"order_of_ash/internal/config"
	"order_of_ash/internal/domain"
	"order_of_ash/internal/http/middleware"
	"order_of_ash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

type fakePlayers struct {
	players map[int64]*domain.Player
	top     []domain.LeaderboardEntry
	topErr  error
}

func newFakePlayers() *fakePlayers {
	return &fakePlayers{players: make(map[int64]*domain.Player)}
}

func (f *fakePlayers) GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	p, ok := f.players[tgID]
	if !ok {
		return nil, domain.NewError(domain.KindNotFound, "player not found")
	}
	return p, nil
}

func (f *fakePlayers) Upsert(ctx context.Context, tgID int64, name string, nextFinalWindow time.Time) (*domain.Player, error) {
	p, ok := f.players[tgID]
	if !ok {
		p = &domain.Player{TgID: tgID, NextFinalWindow: nextFinalWindow, ReferralCode: "abc123"}
		f.players[tgID] = p
	}
	p.Name = name
	return p, nil
}

func (f *fakePlayers) Delete(ctx context.Context, tgID int64) error {
	if _, ok := f.players[tgID]; !ok {
		return domain.NewError(domain.KindNotFound, "player not found")
	}
	delete(f.players, tgID)
	return nil
}

func (f *fakePlayers) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if f.topErr != nil {
		return nil, f.topErr
	}
	return f.top, nil
}

func (f *fakePlayers) GetByReferralCode(ctx context.Context, code string) (*domain.Player, error) {
	for _, p := range f.players {
		if p.ReferralCode == code {
			return p, nil
		}
	}
	return nil, domain.NewError(domain.KindNotFound, "player not found")
}

func (f *fakePlayers) ApplyReferral(ctx context.Context, referrerID, referredID int64) error {
	p := f.players[referredID]
	if p.ReferredBy != nil {
		return domain.NewError(domain.KindValidation, "already referred")
	}
	p.ReferredBy = &referrerID
	f.players[referrerID].InvitedCount++
	return nil
}

func (f *fakePlayers) IssueReferralReward(ctx context.Context, tgID int64) (bool, error) {
	p := f.players[tgID]
	if p.ReferralRewardIssued {
		return false, nil
	}
	p.ReferralRewardIssued = true
	return true, nil
}

func (f *fakePlayers) GrantFragment(ctx context.Context, tgID int64, fragment int) error {
	p := f.players[tgID]
	if !p.HasFragment(fragment) {
		p.Fragments = append(p.Fragments, fragment)
	}
	return nil
}

func (f *fakePlayers) RecordFinalSubmit(ctx context.Context, tgID int64, at time.Time) error {
	if p, ok := f.players[tgID]; ok {
		t := at
		p.LastFinalSubmit = &t
	}
	return nil
}

func (f *fakePlayers) MarkCompleted(ctx context.Context, tgID int64) error {
	f.players[tgID].Completed = true
	return nil
}

type fakeDaily struct {
	coupons map[int64]string
}

func (f *fakeDaily) GetCoupon(ctx context.Context, tgID int64, now time.Time) (string, error) {
	c, ok := f.coupons[tgID]
	if !ok {
		// обернутая ошибка: обработчик обязан матчить через errors.Is
		return "", fmt.Errorf("get coupon: %w", pgx.ErrNoRows)
	}
	return c, nil
}

func (f *fakeDaily) Claim(ctx context.Context, tgID int64, coupon string, now time.Time) (bool, error) {
	if _, ok := f.coupons[tgID]; ok {
		return false, nil
	}
	f.coupons[tgID] = coupon
	return true, nil
}

// роутер с подставным авторизованным игроком вместо middleware.Auth
func testRouter(h *Handler, tgID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserTgIDKey, tgID)
	})

	r.GET("/api/final-window", h.FinalWindow)
	r.POST("/api/validate-final", h.ValidateFinal)
	r.GET("/api/leaderboard", h.GetLeaderboard)
	r.GET("/api/daily-quest", h.GetDailyQuest)
	r.POST("/api/daily-quest/claim", h.ClaimDailyQuest)
	r.GET("/api/referral", h.GetReferral)
	r.POST("/api/referral/claim", h.ClaimReferralReward)
	return r
}

func newTestHandler(players *fakePlayers) *Handler {
	return &Handler{
		Cfg: &config.Config{
			BotUsername:       "ashbot",
			WebAppShortName:   "orderofash",
			ReferralThreshold: 3,
		},
		Players: players,
		Daily:   &fakeDaily{coupons: make(map[int64]string)},
		Final:   service.NewFinalService(players, "ex cinere surgemus"),
	}
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFinalWindow_UnknownPlayerFailsClosed(t *testing.T) {
	h := newTestHandler(newFakePlayers())
	r := testRouter(h, 999)

	w := doRequest(t, r, http.MethodGet, "/api/final-window", "")
	if w.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", w.Code)
	}

	var resp service.Eligibility
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("не удалось разобрать ответ: %v", err)
	}
	if resp.CanSubmit || resp.MsLeft != 0 {
		t.Fatalf("неизвестный игрок должен получить закрытое окно, получено %+v", resp)
	}
}

func TestLeaderboard_DegradesToEmptyList(t *testing.T) {
	players := newFakePlayers()
	players.topErr = errors.New("db down")
	r := testRouter(newTestHandler(players), 1)

	w := doRequest(t, r, http.MethodGet, "/api/leaderboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("лидерборд должен деградировать до 200, получен %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("ожидался пустой список, получено %q", w.Body.String())
	}
}

func TestLeaderboard_FriendsScopeIsEmpty(t *testing.T) {
	players := newFakePlayers()
	players.top = []domain.LeaderboardEntry{{TgID: 1, Name: "A", FragmentsCount: 5}}
	r := testRouter(newTestHandler(players), 1)

	w := doRequest(t, r, http.MethodGet, "/api/leaderboard?scope=friends", "")
	if w.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("friends scope должен быть пустым, получено %q", w.Body.String())
	}
}

func TestDailyQuest_ClaimOncePerDay(t *testing.T) {
	players := newFakePlayers()
	players.players[7] = &domain.Player{TgID: 7, Name: "P"}
	r := testRouter(newTestHandler(players), 7)

	w := doRequest(t, r, http.MethodGet, "/api/daily-quest", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"canClaim":true`) {
		t.Fatalf("до выдачи ожидался canClaim=true, получено %d %q", w.Code, w.Body.String())
	}

	w = doRequest(t, r, http.MethodPost, "/api/daily-quest/claim", "")
	if w.Code != http.StatusOK {
		t.Fatalf("первая выдача должна пройти, получен %d", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/api/daily-quest/claim", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("повторная выдача в тот же день должна отклоняться, получен %d", w.Code)
	}
}

func TestReferralClaim_ThresholdAndSingleReward(t *testing.T) {
	players := newFakePlayers()
	players.players[5] = &domain.Player{TgID: 5, Name: "P", ReferralCode: "ref5", InvitedCount: 1}
	r := testRouter(newTestHandler(players), 5)

	w := doRequest(t, r, http.MethodPost, "/api/referral/claim", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("до порога награда не выдается, получен %d", w.Code)
	}

	players.players[5].InvitedCount = 3
	w = doRequest(t, r, http.MethodPost, "/api/referral/claim", "")
	if w.Code != http.StatusOK {
		t.Fatalf("на пороге награда должна выдаться, получен %d %q", w.Code, w.Body.String())
	}
	if len(players.players[5].Fragments) != 1 {
		t.Fatalf("ожидался один выданный фрагмент, получено %v", players.players[5].Fragments)
	}

	w = doRequest(t, r, http.MethodPost, "/api/referral/claim", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("повторная награда должна отклоняться, получен %d", w.Code)
	}
}
