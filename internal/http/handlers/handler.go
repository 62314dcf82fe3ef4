package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"order_of_ash/internal/config"
	"order_of_ash/internal/domain"
	"order_of_ash/internal/http/middleware"
	"order_of_ash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlayerStore — операции над игроками, нужные HTTP слою
type PlayerStore interface {
	GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error)
	Upsert(ctx context.Context, tgID int64, name string, nextFinalWindow time.Time) (*domain.Player, error)
	Delete(ctx context.Context, tgID int64) error
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.Player, error)
	ApplyReferral(ctx context.Context, referrerID, referredID int64) error
	IssueReferralReward(ctx context.Context, tgID int64) (bool, error)
	GrantFragment(ctx context.Context, tgID int64, fragment int) error
}

// DailyStore — выдача ежедневных купонов
type DailyStore interface {
	GetCoupon(ctx context.Context, tgID int64, now time.Time) (string, error)
	Claim(ctx context.Context, tgID int64, coupon string, now time.Time) (bool, error)
}

// Handler — общие зависимости всех HTTP обработчиков
type Handler struct {
	DB       *pgxpool.Pool
	Cfg      *config.Config
	Players  PlayerStore
	Daily    DailyStore
	Burns    *service.BurnService
	Final    *service.FinalService
	Profiles *service.ProfileCache
	Sessions *service.SessionService
}

// подменяется в тестах
var timeNow = time.Now

// tg_id авторизованного игрока, положенный middleware.Auth
func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.UserTgIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// единообразный ответ об ошибке: клиент различает классы по статусу и code
func respondError(c *gin.Context, err error) {
	msg := err.Error()
	var derr *domain.Error
	if errors.As(err, &derr) {
		msg = derr.Msg
	}

	switch domain.KindOf(err) {
	case domain.KindAuth:
		c.JSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "auth"})
	case domain.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	case domain.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
