package service

import (
	"fmt"

	"order_of_ash/internal/domain"
)

// Состояния burn-флоу. Машина намеренно отделена от тикеров:
// переходы — чистые функции, поллер лишь подает события.
type BurnState string

const (
	BurnIdle    BurnState = "idle"
	BurnPending BurnState = "pending"
	BurnSuccess BurnState = "success"
	BurnError   BurnState = "error"
)

// События burn-флоу
type BurnEvent string

const (
	// инвойс создан, начат поллинг
	EventStart BurnEvent = "start"
	// платежный бэкенд подтвердил оплату
	EventPaid BurnEvent = "paid"
	// создание инвойса или опрос завершились ошибкой
	EventFail BurnEvent = "fail"
	// явный повтор пользователем после ошибки
	EventRetry BurnEvent = "retry"
)

// ErrBadTransition возвращается при недопустимом переходе
type ErrBadTransition struct {
	State BurnState
	Event BurnEvent
}

func (e *ErrBadTransition) Error() string {
	return fmt.Sprintf("недопустимый переход: %s по событию %s", e.State, e.Event)
}

// NextBurnState — таблица переходов idle -> pending -> {success, error},
// error -> idle по явному retry. Терминальный success назад не переходит.
func NextBurnState(state BurnState, event BurnEvent) (BurnState, error) {
	switch state {
	case BurnIdle:
		if event == EventStart {
			return BurnPending, nil
		}
	case BurnPending:
		switch event {
		case EventPaid:
			return BurnSuccess, nil
		case EventFail:
			return BurnError, nil
		}
	case BurnError:
		if event == EventRetry {
			return BurnIdle, nil
		}
	}
	return state, &ErrBadTransition{State: state, Event: event}
}

// BurnStateOf сопоставляет сохраненный статус инвойса состоянию машины
func BurnStateOf(st domain.InvoiceStatus) BurnState {
	switch st {
	case domain.InvoiceStatusPaid:
		return BurnSuccess
	case domain.InvoiceStatusError:
		return BurnError
	case domain.InvoiceStatusPending:
		return BurnPending
	}
	return BurnIdle
}

// InvoiceStatusOf — обратное сопоставление для персиста.
// idle инвойса не имеет: до EventStart записи в базе нет
func InvoiceStatusOf(state BurnState) domain.InvoiceStatus {
	switch state {
	case BurnSuccess:
		return domain.InvoiceStatusPaid
	case BurnError:
		return domain.InvoiceStatusError
	}
	return domain.InvoiceStatusPending
}
