package service

import (
	"fmt"
	"sync"
	"time"
)

// FormatDuration форматирует остаток времени для фронта:
// HH:MM:SS от часа и выше, иначе MM:SS, с ведущими нулями.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Countdown — перезапускаемый обратный отсчет на секундном тике.
// По достижении нуля вызывает onExpire ровно один раз и останавливается.
type Countdown struct {
	mu       sync.Mutex
	stop     chan struct{}
	interval time.Duration
}

// NewCountdown создает отсчет со стандартным секундным тиком
func NewCountdown() *Countdown {
	return &Countdown{interval: time.Second}
}

// newCountdownWithInterval — для тестов, чтобы не ждать реальные секунды
func newCountdownWithInterval(interval time.Duration) *Countdown {
	return &Countdown{interval: interval}
}

// Start запускает отсчет до target. Повторный Start перезапускает отсчет
// на новую цель, прежний тикер при этом гасится.
// onTick вызывается на каждом тике с остатком, onExpire — один раз в конце.
func (c *Countdown) Start(target time.Time, onTick func(remaining time.Duration), onExpire func()) {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
	}
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go c.run(target, stop, onTick, onExpire)
}

// Stop гасит отсчет; expiry callback после Stop не вызывается
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Countdown) run(target time.Time, stop chan struct{}, onTick func(time.Duration), onExpire func()) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// мгновенное истечение: цель уже в прошлом
	if remaining := time.Until(target); remaining <= 0 {
		if onExpire != nil {
			onExpire()
		}
		return
	}

	for {
		select {
		case <-ticker.C:
			remaining := time.Until(target)
			if remaining <= 0 {
				if onExpire != nil {
					onExpire()
				}
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
		case <-stop:
			return
		}
	}
}
