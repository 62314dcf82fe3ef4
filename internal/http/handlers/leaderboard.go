package handlers

import (
	"net/http"

	"order_of_ash/internal/domain"
	"order_of_ash/internal/logger"

	"github.com/gin-gonic/gin"
)

// Топ-100 по числу фрагментов. Недоступное хранилище деградирует
// до пустого списка: лидерборд не должен ломать экран игры
func (h *Handler) GetLeaderboard(c *gin.Context) {
	scope := c.DefaultQuery("scope", "global")

	// scope=friends пока не считается на сервере
	if scope != "global" {
		c.JSON(http.StatusOK, []domain.LeaderboardEntry{})
		return
	}

	top, err := h.Players.Top(c.Request.Context(), 100)
	if err != nil {
		logger.Get().Warn("leaderboard degraded", "error", err)
		c.JSON(http.StatusOK, []domain.LeaderboardEntry{})
		return
	}
	if top == nil {
		top = []domain.LeaderboardEntry{}
	}

	c.JSON(http.StatusOK, top)
}
