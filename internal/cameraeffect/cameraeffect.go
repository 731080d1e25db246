// Package cameraeffect implements fade-to and brightness transitions
// (spec.md §4.N). Grounded on
// original_source/source/Camera/CameraEffectManager.c — the version wired
// to VisualComponent/Component-era code, not the split-event legacy copy
// under Camera/CameraEffectManager/ (SPEC_FULL.md open-question decision
// #1: one EffectFadeComplete event, not separate fade-in/fade-out events).
// Each fade step is scheduled through the messaging clock's delayed-message
// queue rather than a dedicated timer, matching the original's
// message-driven step loop.
package cameraeffect

import "vb-engine-core/internal/messaging"

// EventFadeComplete fires once a fade reaches its target brightness.
const EventFadeComplete messaging.Code = 400

// fadeStepCode is the internal delayed-message code a Manager sends to
// itself to advance a fade one step.
const fadeStepCode messaging.Code = 401

// Brightness is the hardware's three-channel brightness register set
// (BRTA/B/C: dark, medium, bright red).
type Brightness struct {
	Dark, Medium, Bright uint8
}

// clampDelta moves current toward target by at most increment, in either
// direction, and reports whether current has reached target.
func clampDelta(current, target, increment uint8) (uint8, bool) {
	if current == target {
		return current, true
	}
	if current < target {
		if target-current <= increment {
			return target, true
		}
		return current + increment, false
	}
	if current-target <= increment {
		return target, true
	}
	return current - increment, false
}

// Manager owns the camera's current brightness and runs at most one fade
// at a time, stepping it via Source's messaging clock.
type Manager struct {
	messaging.Source

	queue *messaging.Queue
	clock clockSource

	current Brightness
	target  Brightness
	delayMs int64
	step    uint8

	fading bool
}

// clockSource is the minimal clock interface a Manager needs: the current
// messaging-clock time in milliseconds, used to schedule fade steps.
type clockSource interface {
	Milliseconds() int64
}

// NewManager creates a camera-effect manager starting at the given
// brightness, scheduling its fade steps through queue using clock's
// current time.
func NewManager(queue *messaging.Queue, clock clockSource, initial Brightness) *Manager {
	return &Manager{queue: queue, clock: clock, current: initial}
}

// Current returns the camera's current brightness.
func (m *Manager) Current() Brightness { return m.current }

// FadeTo begins a fade from the current brightness to target, advancing
// each of dark/medium/bright red by at most increment every delayMs
// milliseconds until every channel reaches its target, then firing
// EventFadeComplete exactly once. Starting a new fade cancels any fade
// already in progress.
func (m *Manager) FadeTo(target Brightness, delayMs int64, increment uint8) {
	m.queue.CancelReceiver(m)
	m.target = target
	m.delayMs = delayMs
	m.step = increment
	m.fading = true
	m.scheduleStep()
}

// Stop cancels any pending fade step and clears this manager's listeners,
// matching the original's Stop method.
func (m *Manager) Stop() {
	m.queue.CancelReceiver(m)
	m.fading = false
	m.RemoveAllEventListeners()
}

func (m *Manager) scheduleStep() {
	m.queue.Send(nil, m, fadeStepCode, m.clock.Milliseconds(), m.delayMs, 0, nil)
}

// HandleMessage implements messaging.Receiver: advances the in-progress
// fade by one increment step per channel, rescheduling until every channel
// has reached its target.
func (m *Manager) HandleMessage(msg messaging.Message) bool {
	if msg.Code != fadeStepCode || !m.fading {
		return true
	}

	var doneDark, doneMedium, doneBright bool
	m.current.Dark, doneDark = clampDelta(m.current.Dark, m.target.Dark, m.step)
	m.current.Medium, doneMedium = clampDelta(m.current.Medium, m.target.Medium, m.step)
	m.current.Bright, doneBright = clampDelta(m.current.Bright, m.target.Bright, m.step)

	if doneDark && doneMedium && doneBright {
		m.fading = false
		m.FireEvent(EventFadeComplete)
		return true
	}

	m.scheduleStep()
	return true
}
