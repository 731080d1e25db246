package cameraeffect

import (
	"testing"

	"vb-engine-core/internal/messaging"
)

type fakeClock struct{ ms int64 }

func (c *fakeClock) Milliseconds() int64 { return c.ms }

type listenerFunc func(source *messaging.Source, code messaging.Code) bool

func (f listenerFunc) OnEvent(source *messaging.Source, code messaging.Code) bool {
	return f(source, code)
}

func TestFadeToReachesTargetAndFiresComplete(t *testing.T) {
	clk := &fakeClock{}
	q := messaging.NewQueue()
	m := NewManager(q, clk, Brightness{})

	fired := 0
	m.AddEventListener(listenerFunc(func(*messaging.Source, messaging.Code) bool {
		fired++
		return true
	}), EventFadeComplete)

	m.FadeTo(Brightness{Dark: 10, Medium: 20, Bright: 30}, 16, 5)

	// Drive the delayed-message queue forward until the fade settles. Each
	// step advances every channel by at most 5, so this comfortably bounds
	// the number of steps needed (30/5 = 6 steps, plus margin).
	for i := 0; i < 20 && m.Current() != (Brightness{Dark: 10, Medium: 20, Bright: 30}); i++ {
		clk.ms += 16
		q.Dispatch(clk.ms)
	}

	if got := m.Current(); got != (Brightness{Dark: 10, Medium: 20, Bright: 30}) {
		t.Fatalf("Current() = %+v, want target reached", got)
	}
	if fired != 1 {
		t.Fatalf("EventFadeComplete fired %d times, want exactly 1", fired)
	}
}

func TestFadeToRestartsAndCancelsPreviousFade(t *testing.T) {
	clk := &fakeClock{}
	q := messaging.NewQueue()
	m := NewManager(q, clk, Brightness{})

	m.FadeTo(Brightness{Dark: 100}, 16, 1)
	clk.ms += 16
	q.Dispatch(clk.ms)
	midway := m.Current()
	if midway.Dark == 0 || midway.Dark == 100 {
		t.Fatalf("expected a fade in progress midway, got %+v", midway)
	}

	// Starting a new fade must cancel the first one's pending step so it
	// never fires again with stale targets.
	m.FadeTo(Brightness{Dark: 0}, 16, 50)
	for i := 0; i < 10 && m.Current() != (Brightness{}); i++ {
		clk.ms += 16
		q.Dispatch(clk.ms)
	}
	if got := m.Current(); got != (Brightness{}) {
		t.Fatalf("Current() = %+v, want zero brightness after the second fade completes", got)
	}
}

func TestStopCancelsPendingStepAndListeners(t *testing.T) {
	clk := &fakeClock{}
	q := messaging.NewQueue()
	m := NewManager(q, clk, Brightness{})

	fired := false
	m.AddEventListener(listenerFunc(func(*messaging.Source, messaging.Code) bool {
		fired = true
		return true
	}), EventFadeComplete)

	m.FadeTo(Brightness{Dark: 100}, 16, 1)
	m.Stop()

	clk.ms += 16
	q.Dispatch(clk.ms)

	if m.Current().Dark == 100 {
		t.Fatal("Stop should prevent the fade from reaching its target")
	}
	if fired {
		t.Fatal("Stop must not fire EventFadeComplete")
	}
	if q.Len() != 0 {
		t.Fatalf("Queue.Len() = %d after Stop, want 0 pending messages", q.Len())
	}
}

func TestClampDelta(t *testing.T) {
	if v, done := clampDelta(0, 10, 3); v != 3 || done {
		t.Fatalf("clampDelta(0,10,3) = (%d,%v), want (3,false)", v, done)
	}
	if v, done := clampDelta(8, 10, 3); v != 10 || !done {
		t.Fatalf("clampDelta(8,10,3) = (%d,%v), want (10,true)", v, done)
	}
	if v, done := clampDelta(10, 2, 3); v != 7 || done {
		t.Fatalf("clampDelta(10,2,3) = (%d,%v), want (7,false)", v, done)
	}
	if v, done := clampDelta(5, 5, 1); v != 5 || !done {
		t.Fatalf("clampDelta(5,5,1) = (%d,%v), want (5,true)", v, done)
	}
}
