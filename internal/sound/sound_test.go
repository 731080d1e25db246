package sound

import (
	"testing"

	"vb-engine-core/internal/fixedpoint"
	"vb-engine-core/internal/messaging"
)

func noteTrack(freq uint16, delayUs int64) *TrackSpec {
	return &TrackSpec{Events: []TrackEvent{
		{Kind: EventNoteOn, Frequency: freq},
		{Kind: EventDelay, DelayUs: delayUs},
		{Kind: EventNoteOff},
	}}
}

func TestTrackDecodesNoteOnOffAcrossDelay(t *testing.T) {
	tr := newTrack(noteTrack(440, 1000))
	tr.advance(500)
	if tr.frequency != 440 {
		t.Fatalf("expected note to be sounding mid-delay, got freq=%d", tr.frequency)
	}
	tr.advance(600)
	if tr.frequency != 0 {
		t.Fatalf("expected note-off once delay elapses, got freq=%d", tr.frequency)
	}
	if !tr.finished() {
		t.Fatal("expected track to be finished after its last event")
	}
}

func TestMixerReusesLiveInstanceOfSameSpec(t *testing.T) {
	m := NewMixer()
	spec := &SoundSpec{Tracks: []*TrackSpec{noteTrack(220, 100)}}
	a, err := m.Play(spec, fixedpoint.Vector3D{}, ModeNormal)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Play(spec, fixedpoint.Vector3D{}, ModeNormal)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("expected Play to return the same instance for a live spec")
	}
}

func TestMixerExhaustsAtVoiceBudget(t *testing.T) {
	m := NewMixer()
	for i := 0; i < TotalVoices; i++ {
		spec := &SoundSpec{Tracks: []*TrackSpec{noteTrack(100, 100)}}
		if _, err := m.Play(spec, fixedpoint.Vector3D{}, ModeNormal); err != nil {
			t.Fatalf("unexpected exhaustion at voice %d: %v", i, err)
		}
	}
	overflow := &SoundSpec{Tracks: []*TrackSpec{noteTrack(100, 100)}}
	if _, err := m.Play(overflow, fixedpoint.Vector3D{}, ModeNormal); err == nil {
		t.Fatal("expected mixer to reject a sound once all voices are claimed")
	}
}

func TestSoundFinishedFiresOnceAllTracksExhaust(t *testing.T) {
	m := NewMixer()
	spec := &SoundSpec{Tracks: []*TrackSpec{noteTrack(440, 1000)}}
	s, err := m.Play(spec, fixedpoint.Vector3D{}, ModeNormal)
	if err != nil {
		t.Fatal(err)
	}

	fired := 0
	s.AddEventListener(&funcListener{fn: func(*messaging.Source, messaging.Code) bool {
		fired++
		return true
	}}, EventSoundFinished)

	m.Tick(600)
	if fired != 0 {
		t.Fatal("expected no finish event before the track exhausts")
	}
	m.Tick(600)
	if fired != 1 {
		t.Fatalf("expected exactly one finish event, got %d", fired)
	}
}

func TestTickRemovesFinishedNonLoopingSounds(t *testing.T) {
	m := NewMixer()
	spec := &SoundSpec{Tracks: []*TrackSpec{noteTrack(440, 100)}}
	if _, err := m.Play(spec, fixedpoint.Vector3D{}, ModeNormal); err != nil {
		t.Fatal(err)
	}
	m.Tick(1000)
	if len(m.PlayingSounds()) != 0 {
		t.Fatalf("expected finished non-looping sound to be dropped, got %d remaining", len(m.PlayingSounds()))
	}
}

func TestTickKeepsFinishedLoopingSounds(t *testing.T) {
	m := NewMixer()
	spec := &SoundSpec{Tracks: []*TrackSpec{noteTrack(440, 100)}}
	if _, err := m.Play(spec, fixedpoint.Vector3D{}, ModeLoop); err != nil {
		t.Fatal(err)
	}
	m.Tick(1000)
	if len(m.PlayingSounds()) != 1 {
		t.Fatal("expected a looping sound to survive track exhaustion")
	}
}

func TestStereoVolumeAttenuatesTowardFartherEar(t *testing.T) {
	leftSource := fixedpoint.Vector3D{X: fixedpoint.FromInt13(-100)}
	v := StereoVolume(15, leftSource, fixedpoint.FromInt13(200))
	lo := v & 0x0F
	hi := (v >> 4) & 0x0F
	if lo <= hi {
		t.Fatalf("expected a source near the left ear to attenuate the right channel more: lo=%d hi=%d", lo, hi)
	}
}

func TestStereoVolumeAtCenterIsSymmetric(t *testing.T) {
	v := StereoVolume(15, fixedpoint.Vector3D{}, fixedpoint.FromInt13(200))
	lo := v & 0x0F
	hi := (v >> 4) & 0x0F
	if lo != hi {
		t.Fatalf("expected a centered source to attenuate both ears equally, lo=%d hi=%d", lo, hi)
	}
}

// funcListener adapts a plain function to messaging.Listener. It must stay
// a struct (not a bare func type) since messaging.Source compares
// listeners with == and comparing two non-nil func values panics.
type funcListener struct {
	fn func(*messaging.Source, messaging.Code) bool
}

func (f *funcListener) OnEvent(source *messaging.Source, code messaging.Code) bool {
	return f.fn(source, code)
}
