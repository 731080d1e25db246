package streaming

import (
	"testing"

	"vb-engine-core/internal/fixedpoint"
	"vb-engine-core/internal/messaging"
)

type stubEntity struct {
	src messaging.Source

	childrenSpawned, childrenTransformed, childrenReady bool

	initialized bool
	transformed bool
	attachedTo  Entity
	readied     bool
}

func (e *stubEntity) AllChildrenSpawned() bool       { return e.childrenSpawned }
func (e *stubEntity) Initialize()                    { e.initialized = true }
func (e *stubEntity) AllChildrenTransformed() bool   { return e.childrenTransformed }
func (e *stubEntity) ComposeTransform(parent Entity) { e.transformed = true }
func (e *stubEntity) AllChildrenReady() bool         { return e.childrenReady }
func (e *stubEntity) AttachTo(parent Entity)         { e.attachedTo = parent }
func (e *stubEntity) Ready()                         { e.readied = true }
func (e *stubEntity) Source() *messaging.Source      { return &e.src }

func TestSchedulerDrivesEntityThroughAllFiveStages(t *testing.T) {
	f := NewFactory()
	var built *stubEntity
	f.Register(1, func(spec *Spec, parent Entity, id int16) Entity {
		built = &stubEntity{childrenSpawned: true, childrenTransformed: true, childrenReady: true}
		return built
	})

	s := NewScheduler(f)
	parent := &stubEntity{}
	s.Enqueue(&Spec{TypeID: 1}, parent, 7)

	// spawn: construct
	if st := s.Advance(); st != StatusProcessed {
		t.Fatalf("expected construct to report processed, got %v", st)
	}
	// the construct step moved the phase on; the four later stages are still
	// empty, so the scheduler wraps back round to spawn
	for phase := 1; phase < 5; phase++ {
		if st := s.Advance(); st != StatusEmpty {
			t.Fatalf("expected phase %d to report empty, got %v", phase, st)
		}
	}
	// spawn: children spawned -> move to initialize
	if st := s.Advance(); st != StatusProcessed {
		t.Fatalf("expected spawn-complete to report processed, got %v", st)
	}
	// initialize
	if st := s.Advance(); st != StatusProcessed {
		t.Fatalf("expected initialize to report processed, got %v", st)
	}
	if !built.initialized {
		t.Fatal("expected Initialize to have been called")
	}
	// transform
	if st := s.Advance(); st != StatusProcessed {
		t.Fatalf("expected transform to report processed, got %v", st)
	}
	if !built.transformed {
		t.Fatal("expected ComposeTransform to have been called")
	}
	// make ready
	if st := s.Advance(); st != StatusProcessed {
		t.Fatalf("expected makeReady to report processed, got %v", st)
	}
	if built.attachedTo != parent || !built.readied {
		t.Fatal("expected AttachTo and Ready to have been called")
	}

	fired := false
	built.Source().AddEventListener(&testListener{fn: func() bool { fired = true; return true }}, EventEntityLoaded)

	// call loaded
	if st := s.Advance(); st != StatusProcessed {
		t.Fatalf("expected callLoaded to report processed, got %v", st)
	}
	if !fired {
		t.Fatal("expected EventEntityLoaded to fire")
	}
}

func TestSpawnStagePendsUntilChildrenSpawn(t *testing.T) {
	f := NewFactory()
	var built *stubEntity
	f.Register(1, func(spec *Spec, parent Entity, id int16) Entity {
		built = &stubEntity{}
		return built
	})
	s := NewScheduler(f)
	s.Enqueue(&Spec{TypeID: 1}, &stubEntity{}, 0)

	s.Advance() // construct
	if st := s.spawnStage(); st != StatusPending {
		t.Fatalf("expected spawn to pend while children unspawned, got %v", st)
	}
	built.childrenSpawned = true
	if st := s.spawnStage(); st != StatusProcessed {
		t.Fatalf("expected spawn to process once children spawned, got %v", st)
	}
}

func TestEmptyQueueReportsEmptyAndAdvancesPhase(t *testing.T) {
	s := NewScheduler(NewFactory())
	if st := s.Advance(); st != StatusEmpty {
		t.Fatalf("expected empty scheduler to report empty, got %v", st)
	}
	if s.phase != 1 {
		t.Fatalf("expected phase to advance past an empty stage, got %d", s.phase)
	}
}

func TestCycleCompleteAfterFiveConsecutiveEmpties(t *testing.T) {
	s := NewScheduler(NewFactory())
	for i := 0; i < 5; i++ {
		s.Advance()
	}
	if !s.CycleComplete() {
		t.Fatal("expected an idle scheduler to report a completed cycle after five empty stages")
	}
}

func TestPrepareAllDrainsEveryQueue(t *testing.T) {
	f := NewFactory()
	f.Register(1, func(spec *Spec, parent Entity, id int16) Entity {
		return &stubEntity{childrenSpawned: true, childrenTransformed: true, childrenReady: true}
	})
	s := NewScheduler(f)
	parent := &stubEntity{}
	s.Enqueue(&Spec{TypeID: 1}, parent, 1)
	s.Enqueue(&Spec{TypeID: 1}, parent, 2)

	s.PrepareAll()

	if len(s.toSpawn) != 0 || len(s.toInitialize) != 0 || len(s.toTransform) != 0 || len(s.toMakeReady) != 0 || len(s.loaded) != 0 {
		t.Fatal("expected PrepareAll to drain every queue")
	}
}

func TestCullerLoadUnloadHysteresis(t *testing.T) {
	c := NewCuller(
		fixedpoint.Vector3D{X: fixedpoint.FromInt13(10), Y: fixedpoint.FromInt13(10), Z: fixedpoint.FromInt13(10)},
		fixedpoint.Vector3D{X: fixedpoint.FromInt13(20), Y: fixedpoint.FromInt13(20), Z: fixedpoint.FromInt13(20)},
	)
	cam := fixedpoint.Vector3D{}

	near := fixedpoint.Vector3D{X: fixedpoint.FromInt13(5)}
	if !c.ShouldLoad(cam, near) {
		t.Fatal("expected a nearby spec to be within the load pad")
	}
	if c.ShouldUnload(cam, near) {
		t.Fatal("expected a nearby entity not to be beyond the unload pad")
	}

	middle := fixedpoint.Vector3D{X: fixedpoint.FromInt13(15)}
	if c.ShouldLoad(cam, middle) {
		t.Fatal("expected a mid-range spec to be outside the load pad")
	}
	if c.ShouldUnload(cam, middle) {
		t.Fatal("expected a mid-range entity to stay loaded (hysteresis band)")
	}

	far := fixedpoint.Vector3D{X: fixedpoint.FromInt13(30)}
	if c.ShouldLoad(cam, far) {
		t.Fatal("expected a far spec to be outside the load pad")
	}
	if !c.ShouldUnload(cam, far) {
		t.Fatal("expected a far entity to be beyond the unload pad")
	}
}

func TestNewCullerPanicsOnInvertedPads(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected NewCuller to panic when load pad is not smaller than unload pad")
		}
	}()
	NewCuller(fixedpoint.Vector3D{X: fixedpoint.FromInt13(20)}, fixedpoint.Vector3D{X: fixedpoint.FromInt13(10)})
}

type testListener struct {
	fn func() bool
}

func (l *testListener) OnEvent(*messaging.Source, messaging.Code) bool { return l.fn() }
