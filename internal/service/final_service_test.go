package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"order_of_ash/internal/domain"
)

func newFinalService(players FinalPlayerStore, phrase string, now time.Time) *FinalService {
	svc := NewFinalService(players, phrase)
	svc.now = func() time.Time { return now }
	return svc
}

func TestFinal_WindowUnknownPlayerFailsClosed(t *testing.T) {
	svc := newFinalService(newFakePlayerStore(), "ash to ash", testNow)

	e := svc.Window(context.Background(), 42)
	if e.MsLeft != 0 || e.CanSubmit {
		t.Fatalf("неизвестный игрок: ожидалось {0,false}, получено %+v", e)
	}
}

func TestFinal_WindowCountsDown(t *testing.T) {
	p := readyPlayer(1)
	p.NextFinalWindow = testNow.Add(90 * time.Minute)
	svc := newFinalService(newFakePlayerStore(p), "ash to ash", testNow)

	e := svc.Window(context.Background(), 1)
	if e.MsLeft != (90 * time.Minute).Milliseconds() {
		t.Fatalf("ожидался msLeft=%d, получен %d", (90 * time.Minute).Milliseconds(), e.MsLeft)
	}
	if e.CanSubmit {
		t.Fatalf("окно закрыто, canSubmit должен быть false")
	}
}

func TestFinal_ValidateCorrectPhrase(t *testing.T) {
	p := readyPlayer(2)
	p.NextFinalWindow = testNow.Add(-time.Hour)
	players := newFakePlayerStore(p)
	svc := newFinalService(players, "Ash to  Ash", testNow)

	ok, err := svc.Validate(context.Background(), 2, "  ash TO ash ")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !ok {
		t.Fatalf("нормализованная фраза должна совпасть")
	}

	got, _ := players.GetByTgID(context.Background(), 2)
	if !got.Completed {
		t.Fatalf("победитель должен быть отмечен")
	}
	if got.LastFinalSubmit == nil || !got.LastFinalSubmit.Equal(testNow) {
		t.Fatalf("попытка должна быть записана")
	}
}

func TestFinal_WrongAttemptStillThrottles(t *testing.T) {
	// неверная фраза тоже записывает попытку: троттлинг от правильности не зависит
	p := readyPlayer(3)
	p.NextFinalWindow = testNow.Add(-time.Hour)
	players := newFakePlayerStore(p)
	svc := newFinalService(players, "ash to ash", testNow)

	ok, err := svc.Validate(context.Background(), 3, "wrong guess")
	if err != nil || ok {
		t.Fatalf("ожидался спокойный отказ, получено ok=%v err=%v", ok, err)
	}

	got, _ := players.GetByTgID(context.Background(), 3)
	if got.LastFinalSubmit == nil {
		t.Fatalf("неудачная попытка должна быть записана")
	}

	// вторая попытка в те же сутки блокируется
	_, err = svc.Validate(context.Background(), 3, "ash to ash")
	if !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("повтор в те же сутки: ожидался ErrWindowClosed, получено %v", err)
	}
}

func TestFinal_ValidateBeforeWindow(t *testing.T) {
	p := readyPlayer(4)
	p.NextFinalWindow = testNow.Add(time.Hour)
	players := newFakePlayerStore(p)
	svc := newFinalService(players, "ash to ash", testNow)

	_, err := svc.Validate(context.Background(), 4, "ash to ash")
	if !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("до открытия окна: ожидался ErrWindowClosed, получено %v", err)
	}

	// заблокированная попытка не записывается
	got, _ := players.GetByTgID(context.Background(), 4)
	if got.LastFinalSubmit != nil {
		t.Fatalf("заблокированная попытка не должна трогать троттлинг")
	}
}

func TestFinal_EmptyPhrase(t *testing.T) {
	svc := newFinalService(newFakePlayerStore(readyPlayer(5)), "ash to ash", testNow)

	_, err := svc.Validate(context.Background(), 5, "   ")
	if !errors.Is(err, ErrEmptyPhrase) {
		t.Fatalf("ожидался ErrEmptyPhrase, получено %v", err)
	}
}

func TestFinal_UnknownPlayerValidate(t *testing.T) {
	svc := newFinalService(newFakePlayerStore(), "ash to ash", testNow)

	_, err := svc.Validate(context.Background(), 6, "ash to ash")
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("ожидался not_found, получено %v", err)
	}
}
