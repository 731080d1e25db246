package engine

import "vb-engine-core/internal/messaging"

// EventVIPOvertime fires when the game frame is still computing when
// FRAMESTART fires again (spec.md §7 "Overrun").
const EventVIPOvertime messaging.Code = 500

// ForceVIPSync selects the overrun policy: when true, an overrun frame is
// skipped-to-next; when false, it is allowed to drop behind (spec.md §7).
type ForceVIPSync bool

// VIPManager drives the per-frame interrupt sequence the display
// controller raises: FRAMESTART arms the game-frame deadline, GAMESTART
// checks it and reports overruns, XPEND commits the display list (spec.md
// §2 control-flow summary). Grounded on spec.md §6's three named interrupt
// sources — no teacher package models this sequence directly, since the
// teacher drives its PPU off a free-running cycle counter rather than a
// named tri-phase interrupt.
type VIPManager struct {
	messaging.Source

	targetFPS    int
	forceSync    ForceVIPSync
	evenFrame    bool
	computing    bool
	overrunCount int
}

// NewVIPManager creates a VIP manager targeting fps frames per second
// (spec.md §6: 50 or 25 Hz).
func NewVIPManager(fps int, forceSync ForceVIPSync) *VIPManager {
	return &VIPManager{targetFPS: fps, forceSync: forceSync}
}

// DeadlineMs returns the per-frame compute budget in milliseconds:
// 1000/target_fps (spec.md §6).
func (v *VIPManager) DeadlineMs() float64 {
	return 1000.0 / float64(v.targetFPS)
}

// OnFrameStart arms the deadline for the frame about to render. If the
// previous frame's computation had not finished (an overrun), it is
// reported via EventVIPOvertime; under ForceVIPSync the caller should treat
// this as "skip straight to the next frame" rather than let the overrun
// frame trail behind.
func (v *VIPManager) OnFrameStart() (overran bool) {
	overran = v.computing
	if overran {
		v.overrunCount++
		v.FireEvent(EventVIPOvertime)
	}
	v.computing = true
	return overran
}

// OnGameStart is called once the main loop has finished the frame's work
// inside the deadline (i.e. before the next FRAMESTART); it clears the
// computing flag so the next OnFrameStart doesn't report a spurious
// overrun.
func (v *VIPManager) OnGameStart() {
	v.computing = false
}

// OnXPend commits the just-prepared display list: flips frame parity so
// the next frame's render scheduler writes into the buffer the hardware
// isn't currently scanning out (design note "double buffering").
func (v *VIPManager) OnXPend() {
	v.evenFrame = !v.evenFrame
}

// EvenFrame reports the current frame's parity, consulted by sprites with
// odd/even-frame transparency and by the render scheduler.
func (v *VIPManager) EvenFrame() bool { return v.evenFrame }

// OverrunCount returns how many frames have overrun their deadline since
// creation.
func (v *VIPManager) OverrunCount() int { return v.overrunCount }

// ForceSync reports the configured overrun policy.
func (v *VIPManager) ForceSync() ForceVIPSync { return v.forceSync }
