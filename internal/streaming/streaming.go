// Package streaming implements the engine's bounded-work-per-frame entity
// spawn pipeline and AABB-based load/unload culling (spec.md §4.J).
// Grounded on original_source/source/world/entities/EntityFactory.c's
// five-queue phase table (spawn/initialize/transform/makeReady/callLoaded,
// walked one call at a time with a streamingPhase index), generalized from
// its linked-list-per-queue storage to slices and from its five
// free-standing C functions to methods on a Scheduler.
package streaming

import (
	"vb-engine-core/internal/fixedpoint"
	"vb-engine-core/internal/messaging"
)

// EventEntityLoaded fires on an entity once it reaches the loaded queue and
// has had ready() called.
const EventEntityLoaded messaging.Code = 300

// Status reports what a single stage call did.
type Status int

const (
	// StatusEmpty means the stage's queue was empty; the scheduler should
	// advance to the next phase.
	StatusEmpty Status = iota
	// StatusPending means the head entry isn't ready to advance yet; the
	// scheduler should retry the same phase next call.
	StatusPending
	// StatusProcessed means the stage did some bounded unit of work.
	StatusProcessed
)

// Spec describes where and what to spawn: a type id the Factory resolves to
// a constructor, and the position the spawned entity (and streaming
// culling) are keyed on.
type Spec struct {
	TypeID   int
	Position fixedpoint.Vector3D
}

// Entity is anything the streaming scheduler can carry through its five
// stages. Source exposes the messaging.Source the scheduler fires
// EntityLoaded on.
type Entity interface {
	AllChildrenSpawned() bool
	Initialize()
	AllChildrenTransformed() bool
	ComposeTransform(parent Entity)
	AllChildrenReady() bool
	AttachTo(parent Entity)
	Ready()
	Source() *messaging.Source
}

// Constructor builds the entity shell for spec without running its
// initialize step — the scheduler runs that separately once every child
// shell has spawned.
type Constructor func(spec *Spec, parent Entity, id int16) Entity

// Factory is a registration table of constructors keyed by spec type id,
// replacing a hand-written switch per game (original_source's
// EntityFactory delegates to a single Entity_loadFromDefinitionWithoutInitilization;
// this generalizes that single path to one constructor per type).
type Factory struct {
	constructors map[int]Constructor
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[int]Constructor)}
}

// Register binds typeID to a constructor.
func (f *Factory) Register(typeID int, ctor Constructor) {
	f.constructors[typeID] = ctor
}

// Construct builds the entity shell for spec. Panics if no constructor was
// registered for spec.TypeID — a missing registration is a wiring bug, not
// a runtime condition to recover from.
func (f *Factory) Construct(spec *Spec, parent Entity, id int16) Entity {
	ctor, ok := f.constructors[spec.TypeID]
	if !ok {
		panic("streaming: no constructor registered for type id")
	}
	return ctor(spec, parent, id)
}

type descriptor struct {
	spec   *Spec
	parent Entity
	entity Entity
	id     int16
}

// Scheduler carries descriptors through the five-stage pipeline, each call
// advancing one phase by one bounded unit of work.
type Scheduler struct {
	factory *Factory

	toSpawn      []*descriptor
	toInitialize []*descriptor
	toTransform  []*descriptor
	toMakeReady  []*descriptor
	loaded       []*descriptor

	phase     int
	emptyRun  int
}

var stages = [5]func(*Scheduler) Status{
	(*Scheduler).spawnStage,
	(*Scheduler).initializeStage,
	(*Scheduler).transformStage,
	(*Scheduler).makeReadyStage,
	(*Scheduler).callLoadedStage,
}

// NewScheduler creates a scheduler that constructs entities through
// factory.
func NewScheduler(factory *Factory) *Scheduler {
	return &Scheduler{factory: factory}
}

// Enqueue queues spec for spawning under parent once the scheduler's spawn
// stage reaches it.
func (s *Scheduler) Enqueue(spec *Spec, parent Entity, id int16) {
	s.toSpawn = append(s.toSpawn, &descriptor{spec: spec, parent: parent, id: id})
}

// Advance runs the current phase's stage function once. A StatusPending
// result keeps the phase unchanged so the next Advance retries the same
// head entry; StatusEmpty and StatusProcessed both move to the next
// phase (wrapping mod 5) per original_source's `streamingPhase += pending
// != result`.
func (s *Scheduler) Advance() Status {
	result := stages[s.phase](s)
	if result != StatusPending {
		s.phase = (s.phase + 1) % len(stages)
	}

	if result == StatusEmpty {
		s.emptyRun++
	} else {
		s.emptyRun = 0
	}
	return result
}

// CycleComplete reports whether every one of the five stages has reported
// empty since the last non-empty result — i.e. a full idle cycle has
// passed with nothing left to stream.
func (s *Scheduler) CycleComplete() bool { return s.emptyRun >= len(stages) }

// PrepareAll spins every stage to completion in order, draining each queue
// before moving to the next — used at stage-load time when the frame
// budget doesn't apply (original_source's prepareAllEntities).
func (s *Scheduler) PrepareAll() {
	for _, stage := range stages {
		for stage(s) != StatusEmpty {
		}
	}
}

func (s *Scheduler) spawnStage() Status {
	if len(s.toSpawn) == 0 {
		return StatusEmpty
	}
	d := s.toSpawn[0]

	if d.parent == nil {
		s.toSpawn = s.toSpawn[1:]
		return StatusProcessed
	}

	if d.entity == nil {
		d.entity = s.factory.Construct(d.spec, d.parent, d.id)
		return StatusProcessed
	}

	if !d.entity.AllChildrenSpawned() {
		return StatusPending
	}

	s.toSpawn = s.toSpawn[1:]
	s.toInitialize = append(s.toInitialize, d)
	return StatusProcessed
}

func (s *Scheduler) initializeStage() Status {
	if len(s.toInitialize) == 0 {
		return StatusEmpty
	}
	d := s.toInitialize[0]
	s.toInitialize = s.toInitialize[1:]
	d.entity.Initialize()
	s.toTransform = append(s.toTransform, d)
	return StatusProcessed
}

func (s *Scheduler) transformStage() Status {
	if len(s.toTransform) == 0 {
		return StatusEmpty
	}
	d := s.toTransform[0]
	if !d.entity.AllChildrenTransformed() {
		return StatusPending
	}
	s.toTransform = s.toTransform[1:]
	d.entity.ComposeTransform(d.parent)
	s.toMakeReady = append(s.toMakeReady, d)
	return StatusProcessed
}

func (s *Scheduler) makeReadyStage() Status {
	if len(s.toMakeReady) == 0 {
		return StatusEmpty
	}
	d := s.toMakeReady[0]
	if !d.entity.AllChildrenReady() {
		return StatusPending
	}
	s.toMakeReady = s.toMakeReady[1:]
	d.entity.AttachTo(d.parent)
	d.entity.Ready()
	s.loaded = append(s.loaded, d)
	return StatusProcessed
}

func (s *Scheduler) callLoadedStage() Status {
	if len(s.loaded) == 0 {
		return StatusEmpty
	}
	d := s.loaded[0]
	s.loaded = s.loaded[1:]
	d.entity.Source().FireEvent(EventEntityLoaded)
	d.entity.Source().RemoveEventListeners(EventEntityLoaded)
	return StatusProcessed
}

// Culler classifies pending-spawn versus in-range specs by comparing each
// spec's position against an AABB centred on the camera, padded by a
// smaller load pad and a larger unload pad. Pads must satisfy
// loadPad < unloadPad so classification doesn't thrash at the boundary.
type Culler struct {
	loadPad, unloadPad fixedpoint.Vector3D
}

// NewCuller creates a culler. Panics if any axis of loadPad is not
// strictly smaller than the matching axis of unloadPad — an inverted pad
// pair would make in-range entities unload the instant they load.
func NewCuller(loadPad, unloadPad fixedpoint.Vector3D) *Culler {
	if loadPad.X >= unloadPad.X || loadPad.Y >= unloadPad.Y || loadPad.Z >= unloadPad.Z {
		panic("streaming: load pad must be smaller than unload pad on every axis")
	}
	return &Culler{loadPad: loadPad, unloadPad: unloadPad}
}

func within(center, pad, point fixedpoint.Vector3D) bool {
	return point.X >= center.X-pad.X && point.X <= center.X+pad.X &&
		point.Y >= center.Y-pad.Y && point.Y <= center.Y+pad.Y &&
		point.Z >= center.Z-pad.Z && point.Z <= center.Z+pad.Z
}

// ShouldLoad reports whether a pending spec's position is within the
// smaller load pad of the camera's position.
func (c *Culler) ShouldLoad(cameraPosition, specPosition fixedpoint.Vector3D) bool {
	return within(cameraPosition, c.loadPad, specPosition)
}

// ShouldUnload reports whether a loaded entity's position has drifted
// outside the larger unload pad of the camera's position.
func (c *Culler) ShouldUnload(cameraPosition, entityPosition fixedpoint.Vector3D) bool {
	return !within(cameraPosition, c.unloadPad, entityPosition)
}
