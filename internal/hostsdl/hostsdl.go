// Package hostsdl is a reference host video/input device (spec.md §6's
// "host hardware" external collaborator, made concrete here rather than
// left abstract). Grounded on the teacher's internal/ui/fyne_ui.go, which
// opens SDL2 purely for audio output and sdl.GetKeyboardState-driven input
// while Fyne owns the actual window — this package keeps that same SDL2
// input-capture path but also owns the window and renderer itself, since
// this spec has no Fyne emulator-chrome window of its own (that's
// internal/hostui's narrower stats window instead).
//
// Present draws a simplified visualization of the render scheduler's
// WORLD-attribute shadow buffer: one filled rectangle per active WORLD
// layer, tinted by the camera's current brightness. Decoding actual CHAR
// tile pixel data through a BGMAP into a true framebuffer is out of scope
// here (§1 non-goals exclude a full display decoder from the runtime
// core) — this device exists to prove the engine's output is wired to a
// real window, not to reimplement the hardware's tile renderer.
package hostsdl

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"vb-engine-core/internal/cameraeffect"
	"vb-engine-core/internal/input"
	"vb-engine-core/internal/vip"
)

// Device owns one SDL2 window, renderer, and the keyboard-to-input.State
// mapping the teacher's fyne_ui.go hand-rolled against sdl.GetKeyboardState.
type Device struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	scale    int32
}

// NewDevice opens an SDL2 window sized width x height, scaled by scale, and
// a renderer over it. Initializes the video and events subsystems only —
// audio output is out of scope, since internal/sound models voice/track
// state rather than synthesizing PCM samples for a device to play.
func NewDevice(title string, width, height, scale int) (*Device, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("hostsdl: sdl.Init: %w", err)
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width*scale), int32(height*scale), sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("hostsdl: sdl.CreateWindow: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("hostsdl: sdl.CreateRenderer: %w", err)
	}

	return &Device{window: window, renderer: renderer, scale: int32(scale)}, nil
}

// Close destroys the renderer and window and shuts down SDL2.
func (d *Device) Close() {
	d.renderer.Destroy()
	d.window.Destroy()
	sdl.Quit()
}

// brightnessTint maps the camera's current three-channel brightness into a
// single greyscale shade, matching the hardware's single-color (red) LED
// display in spirit — darker channels dim the tint toward black.
func brightnessTint(b cameraeffect.Brightness) uint8 {
	total := int(b.Dark) + int(b.Medium) + int(b.Bright)
	shade := total / 3
	if shade > 255 {
		shade = 255
	}
	return uint8(shade)
}

// Present draws every active WORLD layer as a filled rectangle, highest
// index last so it ends up on top (spec.md §4.I: "the highest index wins
// visually"). The active range runs from just above the EndHead terminator
// up to WorldLayers-1.
func (d *Device) Present(vram *vip.VRAM, brightness cameraeffect.Brightness) error {
	if err := d.renderer.SetDrawColor(0, 0, 0, 255); err != nil {
		return err
	}
	if err := d.renderer.Clear(); err != nil {
		return err
	}

	terminator := -1
	for k := vip.WorldLayers - 1; k >= 0; k-- {
		if vram.World[k].Head == vip.EndHead {
			terminator = k
			break
		}
	}

	tint := brightnessTint(brightness)
	if err := d.renderer.SetDrawColor(tint, 0, 0, 255); err != nil {
		return err
	}
	for k := terminator + 1; k < vip.WorldLayers; k++ {
		w := vram.World[k]
		rect := sdl.Rect{
			X: int32(w.GX) * d.scale,
			Y: int32(w.GY) * d.scale,
			W: int32(w.W) * d.scale,
			H: int32(w.H) * d.scale,
		}
		if err := d.renderer.FillRect(&rect); err != nil {
			return err
		}
	}

	d.renderer.Present()
	return nil
}

// PollInput pumps the SDL event queue and reads the current keyboard state
// into an input.State, using the same key bindings the teacher's
// updateInputFromKeys hand-rolled (WASD/arrows for the D-pad, ZXVC for
// A/B/X/Y, QE for L/R, Return for Start, Backspace for Z).
func PollInput() input.State {
	sdl.PumpEvents()
	var s input.State

	keys := sdl.GetKeyboardState()
	if keys == nil {
		return s
	}

	set := func(button input.Button, scancodes ...int) {
		for _, sc := range scancodes {
			if keys[sc] != 0 {
				s.Set(button, true)
				return
			}
		}
	}

	set(input.ButtonUp, sdl.SCANCODE_W, sdl.SCANCODE_UP)
	set(input.ButtonDown, sdl.SCANCODE_S, sdl.SCANCODE_DOWN)
	set(input.ButtonLeft, sdl.SCANCODE_A, sdl.SCANCODE_LEFT)
	set(input.ButtonRight, sdl.SCANCODE_D, sdl.SCANCODE_RIGHT)
	set(input.ButtonA, sdl.SCANCODE_Z)
	set(input.ButtonB, sdl.SCANCODE_X)
	set(input.ButtonX, sdl.SCANCODE_V)
	set(input.ButtonY, sdl.SCANCODE_C)
	set(input.ButtonL, sdl.SCANCODE_Q)
	set(input.ButtonR, sdl.SCANCODE_E)
	set(input.ButtonStart, sdl.SCANCODE_RETURN)
	set(input.ButtonZ, sdl.SCANCODE_BACKSPACE)

	return s
}
