package clock

import (
	"fmt"
	"sync"
)

// Resolution is the hardware timer's configurable tick granularity.
type Resolution uint32

const (
	Resolution20us  Resolution = 20
	Resolution100us Resolution = 100
)

// SoundTicker is advanced by one hardware timer tick each interrupt — the
// engine wires the sound mixer here so its per-track playback stays
// interrupt-driven and bounded (design note "Interrupt-driven sound").
type SoundTicker interface {
	Tick(microsecondsPerInterrupt int64)
}

// TimerManager programs a 16-bit down-counter-style hardware timer and
// dispatches its interrupt to the engine's clocks, sound mixer, and
// stopwatches (spec.md §4.C). Grounded on the teacher's
// internal/clock.MasterClock in spirit — a single scheduler fan-out driven
// by one free-running source — generalized from cycle-stepping CPU/PPU/APU
// emulation to microsecond-accumulating millisecond clocks.
type TimerManager struct {
	mu sync.Mutex

	resolution   Resolution
	targetPeriod uint32 // 1..1000, in units of resolution

	running         bool
	interruptMasked bool

	messaging *Clock
	animation *Clock
	physics   *Clock

	soundTicker SoundTicker
	stopwatches []*Stopwatch

	// accumulatedUs survives Reconfigure, matching "reconfiguration is
	// bracketed by a stop/start and preserves the running tally".
	accumulatedUs int64
}

// NewTimerManager creates a timer manager with the given resolution and
// target period (1..1000). It does not start running.
func NewTimerManager(resolution Resolution, targetPeriod uint32) (*TimerManager, error) {
	if targetPeriod < 1 || targetPeriod > 1000 {
		return nil, fmt.Errorf("clock: target period %d out of range [1,1000]", targetPeriod)
	}
	if resolution != Resolution20us && resolution != Resolution100us {
		return nil, fmt.Errorf("clock: unsupported resolution %d", resolution)
	}
	return &TimerManager{resolution: resolution, targetPeriod: targetPeriod}, nil
}

// AttachClocks wires the three logical clocks the timer interrupt advances.
func (t *TimerManager) AttachClocks(messaging, animation, physics *Clock) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messaging, t.animation, t.physics = messaging, animation, physics
}

// AttachSoundTicker wires the sound mixer's per-interrupt advance.
func (t *TimerManager) AttachSoundTicker(s SoundTicker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.soundTicker = s
}

// RegisterStopwatch adds a stopwatch to be advanced every tick.
func (t *TimerManager) RegisterStopwatch(sw *Stopwatch) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopwatches = append(t.stopwatches, sw)
}

// Start begins dispatching timer interrupts.
func (t *TimerManager) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
}

// Stop halts timer interrupt dispatch without resetting the accumulated
// tally.
func (t *TimerManager) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Running reports whether the timer is currently dispatching interrupts.
func (t *TimerManager) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// MicrosecondsPerInterrupt returns the configured period in microseconds.
func (t *TimerManager) MicrosecondsPerInterrupt() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(t.resolution) * int64(t.targetPeriod)
}

// Reconfigure changes resolution/target period at runtime. It is bracketed
// by an implicit stop/start and preserves the running accumulated tally.
func (t *TimerManager) Reconfigure(resolution Resolution, targetPeriod uint32) error {
	if targetPeriod < 1 || targetPeriod > 1000 {
		return fmt.Errorf("clock: target period %d out of range [1,1000]", targetPeriod)
	}
	if resolution != Resolution20us && resolution != Resolution100us {
		return fmt.Errorf("clock: unsupported resolution %d", resolution)
	}

	t.mu.Lock()
	wasRunning := t.running
	t.running = false
	t.resolution = resolution
	t.targetPeriod = targetPeriod
	t.running = wasRunning
	t.mu.Unlock()
	return nil
}

// Tick simulates one hardware timer interrupt firing: mask, accumulate
// microseconds into the logical clocks, advance the sound mixer by one
// tick, update stopwatches, unmask. A no-op while stopped.
func (t *TimerManager) Tick() {
	t.mu.Lock()
	if !t.running || t.interruptMasked {
		t.mu.Unlock()
		return
	}
	t.interruptMasked = true

	deltaUs := int64(t.resolution) * int64(t.targetPeriod)
	t.accumulatedUs += deltaUs
	messaging, animation, physics := t.messaging, t.animation, t.physics
	soundTicker := t.soundTicker
	stopwatches := t.stopwatches
	t.mu.Unlock()

	if messaging != nil {
		messaging.Advance(deltaUs)
	}
	if animation != nil {
		animation.Advance(deltaUs)
	}
	if physics != nil {
		physics.Advance(deltaUs)
	}
	if soundTicker != nil {
		soundTicker.Tick(deltaUs)
	}
	for _, sw := range stopwatches {
		sw.Advance(deltaUs)
	}

	t.mu.Lock()
	t.interruptMasked = false
	t.mu.Unlock()
}

// AccumulatedMicroseconds returns the total elapsed microseconds since
// creation, surviving any Reconfigure calls.
func (t *TimerManager) AccumulatedMicroseconds() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accumulatedUs
}
