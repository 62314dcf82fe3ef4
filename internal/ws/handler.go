package ws

import (
	"net/http"

	"order_of_ash/internal/logger"
	"order_of_ash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS отрабатывает на уровне HTTP, здесь не дублируем
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS апгрейдит соединение и запускает клиента.
// Токен приходит query-параметром: браузерный WebSocket не умеет заголовки
func HandleWS(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required", "code": "auth"})
			return
		}

		tgID, err := service.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "auth"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Get().Warn("ws: не удалось апгрейдить соединение", "error", err)
			return
		}

		client := NewClient(tgID, conn, hub)
		go client.Run()
	}
}
