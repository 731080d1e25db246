// Package input holds the engine's button-state snapshot: a plain record
// of which buttons are currently held, consulted once per frame by
// Engine.ProcessUserInput. The user-input decoder itself (how a host
// keyboard/gamepad/controller-port signal becomes this snapshot) is an
// external collaborator (spec.md §1); this package only carries the
// result. Trimmed from the teacher's InputSystem, which modeled a
// SNES-style serial shift-register controller port wired onto the CPU's
// memory bus (Read8/Write8, latch edge-detection) — that register-level
// decode has no home in this spec, so only the plain button-state struct
// survives.
package input

// Button identifies one of the controller's twelve digital inputs.
type Button uint8

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonA
	ButtonB
	ButtonX
	ButtonY
	ButtonL
	ButtonR
	ButtonStart
	ButtonZ
)

// State is a snapshot of every button's held/released state for one
// controller, one bit per button.
type State struct {
	buttons uint16
}

// Set records button as pressed or released.
func (s *State) Set(button Button, pressed bool) {
	if pressed {
		s.buttons |= 1 << uint(button)
	} else {
		s.buttons &^= 1 << uint(button)
	}
}

// Pressed reports whether button is currently held.
func (s State) Pressed(button Button) bool {
	return s.buttons&(1<<uint(button)) != 0
}

// JustPressed reports whether button transitioned from released (in prev)
// to held (in s) this frame.
func (s State) JustPressed(prev State, button Button) bool {
	return s.Pressed(button) && !prev.Pressed(button)
}

// Raw returns the packed button bitmask, for callers that want to diff two
// snapshots directly rather than bit-by-bit.
func (s State) Raw() uint16 { return s.buttons }
