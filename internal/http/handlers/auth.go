package handlers

import (
	"net/http"

	"order_of_ash/internal/domain"
	"order_of_ash/internal/logger"
	"order_of_ash/internal/service"

	"github.com/gin-gonic/gin"
)

type authRequest struct {
	InitData string `json:"initData"`
	RefCode  string `json:"refCode"`
}

// Авторизация через Telegram Mini App: проверяем init_data,
// создаем/обновляем игрока и выдаем JWT
func (h *Handler) TelegramAuth(c *gin.Context) {
	var req authRequest
	if err := c.BindJSON(&req); err != nil || req.InitData == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "initData required"})
		return
	}

	values, ok := service.ValidateTelegramInitData(req.InitData, h.Cfg.BotToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init data", "code": "auth"})
		return
	}

	tgUser, ok := service.ParseTelegramUser(values)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init data", "code": "auth"})
		return
	}

	name := tgUser.FirstName
	if name == "" {
		name = tgUser.Username
	}

	ctx := c.Request.Context()
	player, err := h.Players.Upsert(ctx, tgUser.ID, name, h.Cfg.FinalWindowOpensAt)
	if err != nil {
		respondError(c, err)
		return
	}

	// реферальный код привязываем только один раз и не к себе
	if req.RefCode != "" && player.ReferredBy == nil {
		if referrer, err := h.Players.GetByReferralCode(ctx, req.RefCode); err == nil && referrer.TgID != player.TgID {
			if err := h.Players.ApplyReferral(ctx, referrer.TgID, player.TgID); err != nil {
				if domain.KindOf(err) != domain.KindValidation {
					logger.Get().Warn("referral apply failed", "tg_id", player.TgID, "error", err)
				}
			} else {
				player.ReferredBy = &referrer.TgID
				if h.Profiles != nil {
					h.Profiles.Invalidate(ctx, referrer.TgID)
				}
			}
		}
	}

	token, err := service.MintToken(player.TgID, player.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	// свежий логин снимает отзыв сессии, если он был
	if h.Sessions != nil {
		_ = h.Sessions.Restore(ctx, player.TgID)
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"player": player,
	})
}
