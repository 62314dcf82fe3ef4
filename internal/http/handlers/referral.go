package handlers

import (
	"math/rand"
	"net/http"

	"order_of_ash/internal/domain"
	"order_of_ash/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Реферальная сводка: код, число приглашенных, выдана ли награда
// и готовая ссылка для "поделиться"
func (h *Handler) GetReferral(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": "auth"})
		return
	}

	player, err := h.Players.GetByTgID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	// https://t.me/bot_username/webapp_short_name?startapp=ref_CODE
	// открывает мини-аппку сразу с привязкой кода
	link := "https://t.me/" + h.Cfg.BotUsername + "/" + h.Cfg.WebAppShortName + "?startapp=ref_" + player.ReferralCode

	c.JSON(http.StatusOK, domain.ReferralSummary{
		RefCode:      player.ReferralCode,
		InvitedCount: player.InvitedCount,
		RewardIssued: player.ReferralRewardIssued,
		Threshold:    h.Cfg.ReferralThreshold,
		Link:         link,
	})
}

// Награда за рефералов: при достижении порога выдается один
// случайный недостающий фрагмент, строго один раз
func (h *Handler) ClaimReferralReward(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": "auth"})
		return
	}

	ctx := c.Request.Context()
	player, err := h.Players.GetByTgID(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if player.InvitedCount < h.Cfg.ReferralThreshold {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not enough invited friends"})
		return
	}

	issued, err := h.Players.IssueReferralReward(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !issued {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reward already issued"})
		return
	}

	// награда — случайный недостающий фрагмент; если собраны все, остается null
	var granted *int
	if missing := player.MissingFragments(); len(missing) > 0 {
		f := missing[rand.Intn(len(missing))]
		if err := h.Players.GrantFragment(ctx, userID, f); err != nil {
			respondError(c, err)
			return
		}
		granted = &f
		metrics.FragmentsGranted.Inc()
	}

	if h.Profiles != nil {
		h.Profiles.Invalidate(ctx, userID)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "fragment": granted})
}
