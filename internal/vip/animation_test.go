package vip

import (
	"testing"

	"vb-engine-core/internal/messaging"
)

func makeAnimatedTexture(t *testing.T, frames int) *Texture {
	t.Helper()
	r := newTestRegistry()
	spec := makeMapSpec(4, 4, "anim-source")
	spec.CharSet.FrameOffsets = make([]int, frames)
	for i := range spec.CharSet.FrameOffsets {
		spec.CharSet.FrameOffsets[i] = i * spec.CharSet.NumberOfChars
	}
	tex, err := r.Get(spec, false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return tex
}

func TestAnimationControllerAdvancesFramesInOrder(t *testing.T) {
	tex := makeAnimatedTexture(t, 3)
	a := NewAnimationController(tex)
	a.Play(&AnimationFunction{Frames: []int{0, 1, 2}, Delay: 3, Loop: false})

	var seen []int
	for i := 0; i < 12 && a.Playing(); i++ {
		prev := tex.frame
		a.Tick(nil)
		if tex.frame != prev {
			seen = append(seen, tex.frame)
		}
	}

	// A fresh texture already shows frame 0, so the first write (of frame 0)
	// is not a visible change; the observed changes are to frames 1 and 2.
	want := []int{1, 2}
	if len(seen) != len(want) {
		t.Fatalf("observed frame changes = %v, want %v", seen, want)
	}
	for i, f := range want {
		if seen[i] != f {
			t.Fatalf("observed frame changes = %v, want %v", seen, want)
		}
	}
}

func TestAnimationControllerFiresCompletionAndStopsWithoutLoop(t *testing.T) {
	tex := makeAnimatedTexture(t, 2)
	a := NewAnimationController(tex)
	a.Play(&AnimationFunction{Frames: []int{0, 1}, Delay: 1, Loop: false})

	fired := 0
	listener := &funcListener{fn: func(source *messaging.Source, code messaging.Code) bool {
		if code == EventAnimationCompleted {
			fired++
		}
		return true
	}}
	a.AddEventListener(listener, EventAnimationCompleted)

	for i := 0; i < 10 && a.Playing(); i++ {
		a.Tick(nil)
	}

	if a.Playing() {
		t.Fatal("expected a non-looping animation to stop")
	}
	if fired != 1 {
		t.Fatalf("EventAnimationCompleted fired %d times, want 1", fired)
	}
	if a.Frame() != -1 {
		t.Fatalf("Frame() = %d, want -1 once stopped", a.Frame())
	}

	// Ticking a stopped controller is a no-op: no further event, no panic.
	a.Tick(nil)
	if fired != 1 {
		t.Fatalf("EventAnimationCompleted fired %d times after stop, want still 1", fired)
	}
}

func TestAnimationControllerLoops(t *testing.T) {
	tex := makeAnimatedTexture(t, 2)
	a := NewAnimationController(tex)
	a.Play(&AnimationFunction{Frames: []int{0, 1}, Delay: 1, Loop: true})

	fired := 0
	listener := &funcListener{fn: func(source *messaging.Source, code messaging.Code) bool {
		fired++
		return true
	}}
	a.AddEventListener(listener, EventAnimationCompleted)

	for i := 0; i < 8; i++ {
		a.Tick(nil)
	}
	if !a.Playing() {
		t.Fatal("expected a looping animation to keep playing")
	}
	if fired == 0 {
		t.Fatal("expected at least one completion event across a looped cycle")
	}
}

func TestAnimationControllerRandomDelayUsesProvidedSource(t *testing.T) {
	tex := makeAnimatedTexture(t, 2)
	a := NewAnimationController(tex)
	a.Play(&AnimationFunction{Frames: []int{0, 1}, Delay: -5, Loop: true})

	var gotN int
	rnd := func(n int) int {
		gotN = n
		return 3
	}

	for i := 0; i < 3; i++ {
		a.Tick(rnd)
	}
	if gotN != 5 {
		t.Fatalf("randN called with %d, want 5", gotN)
	}
}

func TestSpriteRegistryAnimatesRegisteredSprites(t *testing.T) {
	tex := makeAnimatedTexture(t, 2)
	ctrl := NewAnimationController(tex)
	ctrl.Play(&AnimationFunction{Frames: []int{0, 1}, Delay: 1, Loop: true})

	sprite := &BgmapSprite{SpriteBase: SpriteBase{Texture: tex}}
	sprite.SetAnimationController(ctrl)

	reg := NewSpriteRegistry()
	reg.Register(sprite)

	reg.Animate(nil)
	if tex.frame != 0 {
		t.Fatalf("tex.frame = %d, want 0 after first registry-driven tick", tex.frame)
	}
	reg.Animate(nil)
	if tex.frame != 1 {
		t.Fatalf("tex.frame = %d, want 1 after second registry-driven tick", tex.frame)
	}
}
