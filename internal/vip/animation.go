package vip

import "vb-engine-core/internal/messaging"

// EventAnimationCompleted fires every time a playing animation reaches
// its last frame, whether or not it loops.
const EventAnimationCompleted messaging.Code = 101

// AnimationFunction names one animation: the texture-frame sequence it
// steps through, the tick delay between frames (negative picks a random
// delay in [0, -Delay) each step, mirroring the source's "random cadence"
// idiom), and whether it rewinds to frame zero and keeps playing.
type AnimationFunction struct {
	Name   string
	Frames []int
	Delay  int
	Loop   bool
}

// AnimationController drives one sprite's Texture frame from a playing
// AnimationFunction, amortised to one step per render frame. Grounded on
// original_source/source/graphics/2d/AnimatedSprite.c's animate/update
// pair: a frame-delay countdown walks the frame table, writes the texture
// only when the frame actually changes, and fires a completion event —
// rewinding and continuing if the function loops, else latching the
// controller stopped.
type AnimationController struct {
	messaging.Source

	texture *Texture

	fn         *AnimationFunction
	frame      int
	prevFrame  int
	frameDelay int
	delayDelta int
	playing    bool
}

// NewAnimationController creates a controller over tex, idle until Play is
// called.
func NewAnimationController(tex *Texture) *AnimationController {
	return &AnimationController{texture: tex, prevFrame: -1, delayDelta: -1}
}

// Play starts fn from its first frame, forcing a texture write on the next
// Tick regardless of whether a previous animation left the same frame
// index current.
func (a *AnimationController) Play(fn *AnimationFunction) {
	a.fn = fn
	a.frame = 0
	a.prevFrame = -1
	a.frameDelay = 1
	a.playing = true
}

// Stop halts playback without changing the currently displayed frame.
func (a *AnimationController) Stop() {
	a.playing = false
	a.fn = nil
}

// Playing reports whether an animation is currently advancing.
func (a *AnimationController) Playing() bool { return a.playing }

// Frame returns the animation-local frame index currently shown.
func (a *AnimationController) Frame() int { return a.frame }

// SetDelayDelta changes the per-tick frame-delay decrement, letting callers
// speed up or slow down an in-progress animation.
func (a *AnimationController) SetDelayDelta(delta int) { a.delayDelta = delta }

// Tick advances the animation by one frame-cycle. randN, when non-nil, is
// called with a positive n to pick a random delay in [0, n) for functions
// whose Delay is negative; nil treats a negative delay as zero.
func (a *AnimationController) Tick(randN func(n int) int) {
	if a.fn == nil || a.frame < 0 {
		return
	}

	if a.frame >= len(a.fn.Frames) {
		a.FireEvent(EventAnimationCompleted)
		a.frame = 0
		if !a.fn.Loop {
			a.playing = false
			a.frame = -1
			return
		}
	}

	if a.frame != a.prevFrame {
		a.texture.SetFrame(a.fn.Frames[a.frame])
		a.prevFrame = a.frame
	}

	a.frameDelay += a.delayDelta
	if a.frameDelay <= 0 {
		a.prevFrame = a.frame
		a.frame++
		a.frameDelay = a.fn.Delay
		if a.frameDelay < 0 {
			n := -a.frameDelay
			if randN != nil && n > 0 {
				a.frameDelay = randN(n)
			} else {
				a.frameDelay = 0
			}
		}
	}
}

// Animated is implemented by sprites that own an AnimationController,
// letting the sprite registry drive every live animation once per frame
// without each Renderable variant needing to expose one.
type Animated interface {
	AnimationController() *AnimationController
}

// AnimationController returns the sprite's controller, or nil if it was
// never given one.
func (s *SpriteBase) AnimationController() *AnimationController { return s.animation }

// SetAnimationController attaches an animation controller to this sprite,
// letting SpriteRegistry.Animate tick it each frame.
func (s *SpriteBase) SetAnimationController(a *AnimationController) { s.animation = a }
