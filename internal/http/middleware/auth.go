package middleware

import (
	"net/http"
	"strings"

	"order_of_ash/internal/service"

	"github.com/gin-gonic/gin"
)

// ключ в контексте gin, под которым лежит tg_id авторизованного игрока
const UserTgIDKey = "user_tg_id"

// Auth проверяет Bearer JWT и отклоняет отозванные сессии.
// При ошибке авторизации клиент обязан заново пройти /api/auth/telegram
func Auth(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token", "code": "auth"})
			return
		}

		tgID, err := service.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "auth"})
			return
		}

		if sessions != nil && sessions.IsRevoked(c.Request.Context(), tgID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session revoked", "code": "auth"})
			return
		}

		c.Set(UserTgIDKey, tgID)
		c.Next()
	}
}
