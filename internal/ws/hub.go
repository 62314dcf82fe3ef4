package ws

import (
	"context"
	"encoding/json"
	"sync"

	"order_of_ash/internal/domain"
	"order_of_ash/internal/logger"
	"order_of_ash/internal/service"
)

// Hub держит активные соединения игроков. Один игрок может держать
// несколько вкладок мини-аппы, поэтому клиенты хранятся множеством
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}

	Profiles *service.ProfileCache
}

func NewHub(profiles *service.ProfileCache) *Hub {
	return &Hub{
		clients:  make(map[int64]map[*Client]struct{}),
		Profiles: profiles,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.TgID] == nil {
		h.clients[c.TgID] = make(map[*Client]struct{})
	}
	h.clients[c.TgID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.TgID]
	if set == nil {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.TgID)
	}
}

// SendToPlayer доставляет сообщение во все вкладки игрока.
// Переполненный канал вкладки не блокирует остальных
func (h *Hub) SendToPlayer(tgID int64, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[tgID] {
		select {
		case c.Send <- msg:
		default:
			logger.Get().Warn("ws: переполнен канал клиента, сообщение пропущено", "tg_id", tgID)
		}
	}
}

// NotifyInvoice пушит игроку итог сжигания, как только он известен серверу
func (h *Hub) NotifyInvoice(inv *domain.BurnInvoice) {
	payload, err := json.Marshal(map[string]any{
		"type":    "burn",
		"invoice": inv,
	})
	if err != nil {
		return
	}
	h.SendToPlayer(inv.TgID, payload)
}

// NotifyProfile пушит игроку свежий профиль (после начисления фрагмента,
// снятия проклятия, реферальной награды)
func (h *Hub) NotifyProfile(ctx context.Context, tgID int64) {
	if h.Profiles == nil {
		return
	}
	player, err := h.Profiles.Get(ctx, tgID)
	if err != nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"type":   "profile",
		"player": player,
	})
	if err != nil {
		return
	}
	h.SendToPlayer(tgID, payload)
}
