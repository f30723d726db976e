package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestAfterFires(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	done := make(chan struct{})
	s.After(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d after firing, want 0", s.Pending())
	}
}

func TestCancelPreventsFiring(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired atomic.Bool
	cancel := s.After(50*time.Millisecond, func() { fired.Store(true) })
	if !cancel() {
		t.Fatal("cancel reported the timer as already gone")
	}
	if cancel() {
		t.Error("second cancel reported success")
	}

	time.Sleep(150 * time.Millisecond)
	if fired.Load() {
		t.Error("canceled timer fired anyway")
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d after cancel, want 0", s.Pending())
	}
}

func TestStopRetiresEverything(t *testing.T) {
	s := NewScheduler()
	var fired atomic.Int32
	for i := 0; i < 3; i++ {
		s.After(50*time.Millisecond, func() { fired.Add(1) })
	}
	s.Stop()

	time.Sleep(150 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("%d timers fired after Stop", n)
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d after Stop, want 0", s.Pending())
	}

	// A stopped scheduler accepts no new work.
	s.After(time.Millisecond, func() { fired.Add(1) })
	time.Sleep(50 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("timer scheduled after Stop fired")
	}
}

func TestTickStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32
	done := make(chan struct{})
	go func() {
		Tick(ctx, 10*time.Millisecond, func(time.Time) { ticks.Add(1) })
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Tick did not return after context cancellation")
	}
	if ticks.Load() == 0 {
		t.Error("ticker never ticked")
	}
}
