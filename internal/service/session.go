package service

import (
	"context"
	"fmt"
	"time"

	"order_of_ash/internal/domain"
	"order_of_ash/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// время жизни сессионного токена
const sessionTTL = 7 * 24 * time.Hour

var jwtSecret []byte

// InitJWT задает секрет подписи; источник секрета — конфигурация,
// она же решает, допустим ли dev-фолбэк
func InitJWT(secret string) {
	if secret == "" {
		logger.Warn("пустой JWT секрет, используется dev-секрет")
		secret = "dev-secret"
	}
	jwtSecret = []byte(secret)
}

// MintToken выпускает сессионный токен игрока
func MintToken(tgID int64, name string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", tgID),
		"name": name,
		"iat":  now.Unix(),
		"exp":  now.Add(sessionTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseToken проверяет подпись и возвращает tg_id игрока.
// Любая проблема токена — ошибка с кодом auth, без разбора текста.
func ParseToken(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, domain.WrapError(domain.KindAuth, "invalid token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, domain.NewError(domain.KindAuth, "invalid token")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, domain.NewError(domain.KindAuth, "invalid token")
	}

	var tgID int64
	if _, err := fmt.Sscanf(sub, "%d", &tgID); err != nil || tgID <= 0 {
		return 0, domain.NewError(domain.KindAuth, "invalid token")
	}
	return tgID, nil
}

// SessionService ведет список отозванных сессий в redis.
// JWT сам по себе не отзывается, поэтому при ошибке авторизации
// платежного бэкенда игрока выкидывает на повторный логин denylist.
type SessionService struct {
	rdb *redis.Client
}

func NewSessionService(rdb *redis.Client) *SessionService {
	return &SessionService{rdb: rdb}
}

func revokedKey(tgID int64) string {
	return fmt.Sprintf("session:revoked:%d", tgID)
}

// Revoke гасит все сессии игрока до следующего логина
func (s *SessionService) Revoke(ctx context.Context, tgID int64) error {
	return s.rdb.Set(ctx, revokedKey(tgID), "1", sessionTTL).Err()
}

// Restore снимает отзыв (после успешного повторного логина)
func (s *SessionService) Restore(ctx context.Context, tgID int64) error {
	return s.rdb.Del(ctx, revokedKey(tgID)).Err()
}

// IsRevoked проверяет, отозвана ли сессия.
// Недоступный redis трактуется как «не отозвана»: санкция не должна
// класть весь API.
func (s *SessionService) IsRevoked(ctx context.Context, tgID int64) bool {
	n, err := s.rdb.Exists(ctx, revokedKey(tgID)).Result()
	if err != nil {
		logger.Warn("redis недоступен при проверке сессии", "error", err)
		return false
	}
	return n > 0
}
