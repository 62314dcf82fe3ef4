package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Ежедневный квест: раз в сутки (UTC) игрок забирает купон
func (h *Handler) GetDailyQuest(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": "auth"})
		return
	}

	coupon, err := h.Daily.GetCoupon(c.Request.Context(), userID, timeNow())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusOK, gin.H{"canClaim": true, "coupon": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"canClaim": false, "coupon": coupon})
}

// Выдача купона за сегодня. Повторная выдача в те же сутки отклоняется
func (h *Handler) ClaimDailyQuest(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": "auth"})
		return
	}

	coupon := "ASH-" + strings.ToUpper(uuid.NewString()[:8])
	claimed, err := h.Daily.Claim(c.Request.Context(), userID, coupon, timeNow())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !claimed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "already claimed today"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "coupon": coupon})
}
