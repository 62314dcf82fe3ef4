package ws

import (
	"context"
	"encoding/json"
	"time"

	"order_of_ash/internal/service"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	// профиль пушится каждые 3 секунды, пока игрок ждет оплату
	// или снятие проклятия; отсчет проклятия тикает каждую секунду
	profilePushPeriod = 3 * time.Second
)

type Client struct {
	TgID int64
	Conn *websocket.Conn
	Send chan []byte

	Hub  *Hub
	done chan struct{}

	// секундный отсчет проклятия; перезапускается при новом проклятии
	curse       *service.Countdown
	curseTarget time.Time
}

func NewClient(tgID int64, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		TgID:  tgID,
		Conn:  conn,
		Send:  make(chan []byte, 64),
		Hub:   hub,
		done:  make(chan struct{}),
		curse: service.NewCountdown(),
	}
}

func (c *Client) Run() {
	c.Hub.register(c)
	go c.writePump()
	go c.pushLoop()
	c.readPump()
}

// входящие сообщения не обрабатываются, памп нужен для pong и обнаружения разрыва
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister(c)
		close(c.done)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(1024)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// pushLoop пушит игроку профиль, пока соединение живо,
// и держит секундный отсчет проклятия в актуальном состоянии
func (c *Client) pushLoop() {
	profileTicker := time.NewTicker(profilePushPeriod)
	defer profileTicker.Stop()
	defer c.curse.Stop()

	for {
		select {
		case <-profileTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			c.Hub.NotifyProfile(ctx, c.TgID)
			c.syncCurseCountdown(ctx)
			cancel()
		case <-c.done:
			return
		}
	}
}

// syncCurseCountdown запускает отсчет под свежее проклятие.
// Перезапуск на ту же цель не нужен: Countdown сам дотикает до нуля
func (c *Client) syncCurseCountdown(ctx context.Context) {
	if c.Hub.Profiles == nil {
		return
	}
	player, err := c.Hub.Profiles.Get(ctx, c.TgID)
	if err != nil || !player.IsCursed(time.Now()) {
		return
	}

	target := *player.CurseExpires
	if target.Equal(c.curseTarget) {
		return
	}
	c.curseTarget = target

	c.curse.Start(target,
		func(remaining time.Duration) {
			c.push(map[string]any{
				"type":      "curse",
				"expiresIn": service.FormatDuration(remaining),
			})
		},
		func() {
			c.push(map[string]any{"type": "curse", "expiresIn": "00:00"})
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			c.Hub.Profiles.Invalidate(ctx, c.TgID)
			c.Hub.NotifyProfile(ctx, c.TgID)
		})
}

func (c *Client) push(msg map[string]any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.Send <- payload:
	default:
	}
}
