package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Профиль игрока. Читается через кэш: фронт опрашивает его каждые
// несколько секунд, пока игрок ждет оплату или откат проклятия
func (h *Handler) GetPlayer(c *gin.Context) {
	tgID, err := strconv.ParseInt(c.Param("tg_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad tg_id"})
		return
	}

	ctx := c.Request.Context()
	if h.Profiles != nil {
		player, err := h.Profiles.Get(ctx, tgID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, player)
		return
	}

	player, err := h.Players.GetByTgID(ctx, tgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

// Полное удаление игрока (сброс прогресса). Только свой профиль
func (h *Handler) DeletePlayer(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": "auth"})
		return
	}

	tgID, err := strconv.ParseInt(c.Param("tg_id"), 10, 64)
	if err != nil || tgID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	ctx := c.Request.Context()
	if err := h.Players.Delete(ctx, tgID); err != nil {
		respondError(c, err)
		return
	}
	if h.Profiles != nil {
		h.Profiles.Invalidate(ctx, tgID)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
