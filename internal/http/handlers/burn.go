package handlers

import (
	"net/http"

	"order_of_ash/internal/domain"

	"github.com/gin-gonic/gin"
)

// Создание burn-инвойса. Предусловия (фрагменты #1–#3, отсутствие
// проклятия) проверяются локально до любого похода в платежный бэкенд
func (h *Handler) CreateBurnInvoice(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": "auth"})
		return
	}

	inv, err := h.Burns.StartBurn(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

// Статус burn-инвойса. Чужие инвойсы не раскрываются
func (h *Handler) BurnStatus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": "auth"})
		return
	}

	inv, err := h.Burns.Status(c.Request.Context(), c.Param("invoiceId"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paid":      inv.Status == domain.InvoiceStatusPaid,
		"status":    inv.Status,
		"errorKind": inv.ErrorKind,
		"fragment":  inv.FragmentGranted,
	})
}
