package http

import (
	"net/http"
	"time"

	"order_of_ash/internal/http/handlers"
	"order_of_ash/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes навешивает все маршруты API.
// wsHandler опционален: без него веб-сокет эндпоинт не регистрируется
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, version string, wsHandler gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})

	api := r.Group("/api")

	// авторизация чаще дергается при ретраях фронта, лимит щадящий
	api.POST("/auth/telegram", middleware.RateLimit(30, time.Minute), h.TelegramAuth)

	// лидерборд публичный: он не должен ломать рендер списка даже без сессии
	api.GET("/leaderboard", h.GetLeaderboard)

	auth := api.Group("")
	auth.Use(middleware.Auth(h.Sessions))
	{
		auth.GET("/player/:tg_id", h.GetPlayer)
		auth.DELETE("/player/:tg_id", h.DeletePlayer)

		auth.GET("/final-window", h.FinalWindow)
		auth.POST("/validate-final", middleware.RateLimit(10, time.Minute), h.ValidateFinal)

		auth.POST("/burn-invoice", middleware.RateLimit(10, time.Minute), h.CreateBurnInvoice)
		auth.GET("/burn-status/:invoiceId", h.BurnStatus)

		auth.GET("/referral", h.GetReferral)
		auth.POST("/referral/claim", h.ClaimReferralReward)

		auth.GET("/daily-quest", h.GetDailyQuest)
		auth.POST("/daily-quest/claim", h.ClaimDailyQuest)
	}

	if wsHandler != nil {
		// токен передается query-параметром: браузерный WebSocket не умеет заголовки
		r.GET("/ws", wsHandler)
	}
}
