package service

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{2 * time.Hour, "02:00:00"},
		{time.Hour + 5*time.Minute + 7*time.Second, "01:05:07"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{90 * time.Second, "01:30"},
		{0, "00:00"},
		{-time.Minute, "00:00"}, // отрицательный остаток не должен ломать формат
		{25*time.Hour + 3*time.Second, "25:00:03"},
	}

	for _, tc := range cases {
		if got := FormatDuration(tc.d); got != tc.want {
			t.Fatalf("FormatDuration(%v): ожидалось %q, получено %q", tc.d, tc.want, got)
		}
	}
}

func TestCountdown_ExpireFiresOnce(t *testing.T) {
	c := newCountdownWithInterval(5 * time.Millisecond)
	defer c.Stop()

	var fired atomic.Int32
	c.Start(time.Now().Add(20*time.Millisecond), nil, func() {
		fired.Add(1)
	})

	time.Sleep(100 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Fatalf("expiry callback должен сработать ровно один раз, сработал %d", n)
	}
}

func TestCountdown_TargetInPast(t *testing.T) {
	c := newCountdownWithInterval(5 * time.Millisecond)
	defer c.Stop()

	done := make(chan struct{})
	c.Start(time.Now().Add(-time.Second), nil, func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("цель в прошлом — expiry должен сработать сразу")
	}
}

func TestCountdown_StopCancelsExpiry(t *testing.T) {
	c := newCountdownWithInterval(5 * time.Millisecond)

	var fired atomic.Int32
	c.Start(time.Now().Add(50*time.Millisecond), nil, func() {
		fired.Add(1)
	})
	c.Stop()

	time.Sleep(100 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("после Stop expiry вызываться не должен")
	}
}

func TestCountdown_Restart(t *testing.T) {
	c := newCountdownWithInterval(5 * time.Millisecond)
	defer c.Stop()

	var first, second atomic.Int32
	c.Start(time.Now().Add(30*time.Millisecond), nil, func() { first.Add(1) })

	// перезапуск на новую цель до истечения первой: первая не должна сработать
	c.Start(time.Now().Add(40*time.Millisecond), nil, func() { second.Add(1) })

	time.Sleep(150 * time.Millisecond)
	if first.Load() != 0 {
		t.Fatalf("перезапуск должен отменить прежний отсчет")
	}
	if second.Load() != 1 {
		t.Fatalf("новый отсчет должен завершиться ровно один раз, завершился %d", second.Load())
	}
}

func TestCountdown_TickReportsRemaining(t *testing.T) {
	c := newCountdownWithInterval(5 * time.Millisecond)
	defer c.Stop()

	ticks := make(chan time.Duration, 64)
	c.Start(time.Now().Add(60*time.Millisecond), func(remaining time.Duration) {
		ticks <- remaining
	}, nil)

	select {
	case remaining := <-ticks:
		if remaining <= 0 || remaining > 60*time.Millisecond {
			t.Fatalf("остаток вне ожидаемого диапазона: %v", remaining)
		}
	case <-time.After(time.Second):
		t.Fatalf("не дождались ни одного тика")
	}
}
