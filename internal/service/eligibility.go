package service

import (
	"time"

	"order_of_ash/internal/domain"
)

// минимальный промежуток между попытками отправки финальной фразы
const FinalSubmitCooldown = 24 * time.Hour

// Eligibility — ответ /api/final-window
type Eligibility struct {
	MsLeft    int64 `json:"msLeft"`
	CanSubmit bool  `json:"canSubmit"`
}

// EvaluateFinalWindow вычисляет доступность финальной отправки.
// Чистая функция: все времена передаются явно, состояние не читается.
//
// msLeft — миллисекунды до открытия окна, никогда не отрицательные.
// canSubmit — окно открыто И с последней попытки прошло не меньше 24 часов.
// Ровно 24 часа — еще рано: граница исключающая.
func EvaluateFinalWindow(now, nextWindow time.Time, lastSubmit *time.Time) Eligibility {
	msLeft := nextWindow.Sub(now).Milliseconds()
	if msLeft < 0 {
		msLeft = 0
	}

	// ровно 24 часа — все еще «сегодня», право вернется строго после границы
	sentToday := lastSubmit != nil && now.Sub(*lastSubmit) <= FinalSubmitCooldown

	return Eligibility{
		MsLeft:    msLeft,
		CanSubmit: msLeft == 0 && !sentToday,
	}
}

// EvaluatePlayer — то же для записи игрока.
// nil игрок (не найден) — закрытое окно: неизвестному отправлять нельзя.
func EvaluatePlayer(now time.Time, p *domain.Player) Eligibility {
	if p == nil {
		return Eligibility{MsLeft: 0, CanSubmit: false}
	}
	return EvaluateFinalWindow(now, p.NextFinalWindow, p.LastFinalSubmit)
}
