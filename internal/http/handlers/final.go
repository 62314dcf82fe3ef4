package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Доступность финальной отправки: сколько миллисекунд до окна
// и можно ли отправлять прямо сейчас
func (h *Handler) FinalWindow(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": "auth"})
		return
	}

	c.JSON(http.StatusOK, h.Final.Window(c.Request.Context(), userID))
}

type validateFinalRequest struct {
	Phrase string `json:"phrase"`
}

// Проверка финальной фразы. Каждая попытка, верная или нет,
// закрывает окно на сутки
func (h *Handler) ValidateFinal(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": "auth"})
		return
	}

	var req validateFinalRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ok, err := h.Final.Validate(c.Request.Context(), userID, req.Phrase)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.Profiles != nil {
		h.Profiles.Invalidate(c.Request.Context(), userID)
	}

	c.JSON(http.StatusOK, gin.H{"ok": ok})
}
