// Package sound implements the engine's tracked six-voice mixer, driven by
// one tick per hardware timer interrupt (spec.md §4.M). Grounded on the
// teacher's internal/apu.AudioChannel (phase-accumulator voice state,
// frequency/envelope/waveform fields) and
// original_source/source/Component/Sound/SoundManager.c's play/stop
// lifecycle, generalized from a synthesizer's continuous channel model to
// a byte-coded event-stream track the mixer decodes one event at a time.
package sound

import (
	"fmt"
	"math"

	"vb-engine-core/internal/fixedpoint"
	"vb-engine-core/internal/messaging"
)

// TotalVoices is the hardware's total concurrent voice budget.
const TotalVoices = 6

// EventSoundFinished fires on a Sound's embedded messaging.Source once
// every track has exhausted its event stream.
const EventSoundFinished messaging.Code = 200

// Mode selects a sound's playback behavior.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFadeIn
	ModeFadeOut
	ModeLoop
)

// EventKind identifies one decoded track event.
type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventDelay
	EventEnvelope
	EventVolume
)

// TrackEvent is one byte-coded entry in a track's event stream.
type TrackEvent struct {
	Kind      EventKind
	Frequency uint16
	Envelope  uint8
	Volume    uint8
	DelayUs   int64
}

// TrackSpec is the static byte-coded event stream a Track plays from.
type TrackSpec struct {
	Events []TrackEvent
}

// Track is one hardware-voice-claiming cursor over a TrackSpec's event
// stream.
type Track struct {
	spec    *TrackSpec
	cursor  int
	dueInUs int64

	frequency uint16
	envelope  uint8
	volume    uint8
	playing   bool
}

func newTrack(spec *TrackSpec) *Track {
	return &Track{spec: spec, playing: true}
}

// finished reports whether the track has exhausted its event stream.
func (t *Track) finished() bool { return t.cursor >= len(t.spec.Events) }

// advance moves the track's internal timer forward by deltaUs and applies
// every event whose delay has elapsed.
func (t *Track) advance(deltaUs int64) {
	if !t.playing || t.finished() {
		return
	}
	t.dueInUs -= deltaUs

	for t.dueInUs <= 0 && !t.finished() {
		ev := t.spec.Events[t.cursor]
		t.cursor++
		switch ev.Kind {
		case EventNoteOn:
			t.frequency = ev.Frequency
		case EventNoteOff:
			t.frequency = 0
		case EventEnvelope:
			t.envelope = ev.Envelope
		case EventVolume:
			t.volume = ev.Volume
		case EventDelay:
			t.dueInUs += ev.DelayUs
		}
	}

	if t.finished() {
		t.playing = false
	}
}

// Listener screen position constants the stereo attenuation model scales
// distance against.
var (
	LeftEarCenter  = fixedpoint.Vector3D{X: fixedpoint.FromInt13(-24)}
	RightEarCenter = fixedpoint.Vector3D{X: fixedpoint.FromInt13(24)}
)

// StereoVolume computes the hardware's packed stereo-volume byte:
// (base - attenuationLeft) in the low nibble, (base - attenuationRight) in
// the high nibble, where each attenuation scales linearly with the
// source's distance from the corresponding ear-center screen position.
func StereoVolume(base uint8, position fixedpoint.Vector3D, maxDistance fixedpoint.Fix13) uint8 {
	attenuate := func(ear fixedpoint.Vector3D) uint8 {
		delta := position.Sub(ear)
		dist := math.Sqrt(float64(delta.SquareLength()))
		maxDist := math.Abs(float64(maxDistance))
		if maxDist == 0 {
			return 0
		}
		scaled := int64(float64(base) * dist / maxDist)
		if scaled > int64(base) {
			scaled = int64(base)
		}
		return uint8(scaled)
	}

	left := attenuate(LeftEarCenter)
	right := attenuate(RightEarCenter)

	lo := base - left
	hi := base - right
	return (lo & 0x0F) | ((hi & 0x0F) << 4)
}

// Sound is one playing, tracked sound instance: up to TotalVoices tracks,
// a playback mode, and a source position for stereo attenuation.
type Sound struct {
	messaging.Source

	spec     *SoundSpec
	tracks   []*Track
	mode     Mode
	position fixedpoint.Vector3D
	released bool
}

// SoundSpec describes the tracks a Sound plays, keyed by identity so the
// mixer can find a live instance of the same spec to reuse.
type SoundSpec struct {
	Tracks []*TrackSpec
}

func newSound(spec *SoundSpec, pos fixedpoint.Vector3D, mode Mode) *Sound {
	s := &Sound{spec: spec, position: pos, mode: mode}
	for _, ts := range spec.Tracks {
		s.tracks = append(s.tracks, newTrack(ts))
	}
	return s
}

// finished reports whether every track has exhausted its stream.
func (s *Sound) finished() bool {
	for _, t := range s.tracks {
		if !t.finished() {
			return false
		}
	}
	return true
}

// advance ticks every track by deltaUs; once every track finishes, fires
// EventSoundFinished exactly once.
func (s *Sound) advance(deltaUs int64) {
	wasFinished := s.finished()
	for _, t := range s.tracks {
		t.advance(deltaUs)
	}
	if !wasFinished && s.finished() {
		s.FireEvent(EventSoundFinished)
	}
}

// Mixer owns every playing Sound and decodes track events on each timer
// tick, bounded by the hardware's total voice budget.
type Mixer struct {
	sounds []*Sound
}

// NewMixer creates an empty mixer.
func NewMixer() *Mixer { return &Mixer{} }

func (m *Mixer) claimedVoices() int {
	n := 0
	for _, s := range m.sounds {
		n += len(s.tracks)
	}
	return n
}

// Play asks the mixer for a sound instance: reuses a live instance of the
// same spec if one exists, otherwise allocates a new one if enough voices
// remain.
func (m *Mixer) Play(spec *SoundSpec, pos fixedpoint.Vector3D, mode Mode) (*Sound, error) {
	for _, s := range m.sounds {
		if s.spec == spec {
			return s, nil
		}
	}

	if m.claimedVoices()+len(spec.Tracks) > TotalVoices {
		return nil, fmt.Errorf("sound: mixer exhausted, %d of %d voices claimed", m.claimedVoices(), TotalVoices)
	}

	s := newSound(spec, pos, mode)
	m.sounds = append(m.sounds, s)
	return s, nil
}

// Stop ends a sound. If release is true, every listener is severed
// (RemoveAllEventListeners) before the sound is dropped.
func (m *Mixer) Stop(s *Sound, release bool) {
	if release {
		s.RemoveAllEventListeners()
	}
	for i, v := range m.sounds {
		if v == s {
			m.sounds = append(m.sounds[:i], m.sounds[i+1:]...)
			return
		}
	}
}

// Tick advances every playing sound's internal timer by
// microsecondsPerInterrupt, implementing clock.SoundTicker so the mixer
// can be wired directly to the hardware timer manager.
func (m *Mixer) Tick(microsecondsPerInterrupt int64) {
	for i := 0; i < len(m.sounds); i++ {
		m.sounds[i].advance(microsecondsPerInterrupt)
	}

	kept := m.sounds[:0]
	for _, s := range m.sounds {
		if s.finished() && s.mode != ModeLoop {
			continue
		}
		kept = append(kept, s)
	}
	m.sounds = kept
}

// PlayingSounds returns every currently playing sound.
func (m *Mixer) PlayingSounds() []*Sound { return m.sounds }
