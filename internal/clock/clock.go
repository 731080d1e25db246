// Package clock provides the engine's three logical millisecond clocks
// (messaging, animation, physics) and the hardware-timer interrupt
// dispatcher that drives them (spec.md §4.C). Adapted from the teacher's
// internal/clock/scheduler.go MasterClock — that scheduler advanced CPU/PPU/
// APU by cycle counts off one free-running counter; here a single hardware
// timer interrupt accumulates microseconds into independently pausable
// millisecond clocks instead of cycle-stepping component emulations.
package clock

import "sync"

// Clock is one of the engine's independently pausable millisecond clocks.
type Clock struct {
	mu     sync.Mutex
	micros int64
	paused bool
}

// NewClock creates a running clock at time zero.
func NewClock() *Clock { return &Clock{} }

// Advance accumulates deltaUs microseconds if the clock is not paused.
func (c *Clock) Advance(deltaUs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		c.micros += deltaUs
	}
}

// Milliseconds returns the clock's current time in whole milliseconds.
func (c *Clock) Milliseconds() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.micros / 1000
}

// Microseconds returns the clock's current time in microseconds.
func (c *Clock) Microseconds() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.micros
}

// Pause stops the clock from accumulating time until Unpause.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Unpause resumes accumulation.
func (c *Clock) Unpause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}

// IsPaused reports whether the clock is currently paused.
func (c *Clock) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Reset zeroes the clock's accumulated time without changing its pause
// state.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.micros = 0
}

// Stopwatch is a one-shot countdown timer that TimerManager ticks
// alongside the logical clocks — used by per-sprite animation callbacks and
// similar one-off countdowns that don't warrant their own Clock.
type Stopwatch struct {
	mu        sync.Mutex
	remaining int64
	running   bool
}

// NewStopwatch creates a stopped stopwatch.
func NewStopwatch() *Stopwatch { return &Stopwatch{} }

// Start arms the stopwatch to count down from durationUs microseconds.
func (s *Stopwatch) Start(durationUs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = durationUs
	s.running = true
}

// Advance decrements the stopwatch by deltaUs and reports whether it just
// expired (crossed zero on this call).
func (s *Stopwatch) Advance(deltaUs int64) (expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.remaining -= deltaUs
	if s.remaining <= 0 {
		s.running = false
		return true
	}
	return false
}

// Running reports whether the stopwatch is still counting down.
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
