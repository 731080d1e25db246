// Package engine assembles every core subsystem (components A-R) behind
// one process-wide Engine value and drives the per-frame control flow
// spec.md §2 describes, fronted by the VIPManager's interrupt sequence
// (component S). Grounded on the teacher's internal/emulator.Emulator:
// one struct owning every subsystem by value and a Step/RunFrame method
// sequencing them, generalized from cycle-stepping a CPU/PPU/APU trio to
// the engine's streaming/physics/collision/transform/render pipeline
// (design note "Global singletons": one Engine struct instead of package-
// level singleton managers, with no hidden globals besides the hardware
// register mapping itself).
package engine

import (
	"errors"
	"fmt"
	"math/rand"

	"vb-engine-core/internal/camera"
	"vb-engine-core/internal/cameraeffect"
	"vb-engine-core/internal/clock"
	"vb-engine-core/internal/collision"
	"vb-engine-core/internal/engtrace"
	"vb-engine-core/internal/fixedpoint"
	"vb-engine-core/internal/input"
	"vb-engine-core/internal/mempool"
	"vb-engine-core/internal/messaging"
	"vb-engine-core/internal/physics"
	"vb-engine-core/internal/sound"
	"vb-engine-core/internal/stage"
	"vb-engine-core/internal/streaming"
	"vb-engine-core/internal/vip"
)

// SRAMSize is the persisted save-RAM region's size (spec.md §6): 8 kB,
// game-defined layout.
const SRAMSize = 8 * 1024

// Sentinel errors surfaced from engine lifecycle calls (ambient stack:
// sentinel errors + errors.Is, no wrapping library, matching the teacher).
var (
	ErrAlreadyPaused = errors.New("engine: already paused")
	ErrNotPaused     = errors.New("engine: not paused")
	ErrBadSRAMRange  = errors.New("engine: save-RAM range out of bounds")
)

// FatalHandler is invoked for conditions spec.md §7 classifies as Fatal:
// memory-pool exhaustion, CHAR/BGMAP allocation failure outside shipping
// builds, division by zero, and similar. The engine's own code never
// recovers from these; it calls the handler and expects it to halt (print
// a diagnostic overlay and stop, matching real hardware).
type FatalHandler func(err error)

// Config bundles the parameters New needs to size and wire every
// subsystem.
type Config struct {
	TargetFPS    int // 50 or 25 (spec.md §6)
	PhysicsFPS   int // fps / PhysicsDivisor; divisor is 1 or 2
	Gravity      fixedpoint.Vector3D
	ForceVIPSync bool
	LoadPad      fixedpoint.Vector3D
	UnloadPad    fixedpoint.Vector3D
	// TextureWriteBudget caps how many BGMAP rows TextureRegistry.WriteAll
	// copies per texture per frame (spec.md §4.H); zero defaults to 2, a
	// conservative amortisation for typical 8-64 row textures.
	TextureWriteBudget int
	Logger             *engtrace.Logger
	FatalHandler       FatalHandler
}

// Engine owns every core subsystem and drives the per-frame control flow.
// Fields are exported so host code (hostsdl, hostui, cmd/enginedemo) and
// tests can reach into individual managers directly — mirroring the
// teacher's Emulator, which exposes CPU/PPU/APU the same way.
type Engine struct {
	Config Config

	Pools *mempool.Pools

	MessageQueue *messaging.Queue
	Clocks       struct {
		Messaging, Animation, Physics *clock.Clock
	}
	Timer *clock.TimerManager

	Camera        *camera.Camera
	CameraEffects *cameraeffect.Manager

	VRAM       *vip.VRAM
	CharSets   *vip.CharSetManager
	Bgmaps     *vip.BgmapAllocator
	ParamTable *vip.ParamTableAllocator
	Textures   *vip.TextureRegistry
	Sprites    *vip.SpriteRegistry
	Renderer   *vip.RenderScheduler

	Physics    *physics.Manager
	Collisions *collision.Manager
	Sound      *sound.Mixer

	Streaming *streaming.Scheduler
	Culler    *streaming.Culler

	Stage *stage.Stage

	VIP *VIPManager

	Logger *engtrace.Logger

	factory *streaming.Factory

	sram   [SRAMSize]byte
	paused bool

	lastInput input.State
}

// New builds an Engine from cfg, wiring every subsystem together: the
// timer interrupt drives the three logical clocks and the sound mixer, the
// texture registry sits atop the CHAR/BGMAP allocators, and the render
// scheduler draws from the sprite registry into the camera's frustum.
func New(cfg Config, factory *streaming.Factory) (*Engine, error) {
	if cfg.TargetFPS != 50 && cfg.TargetFPS != 25 {
		return nil, fmt.Errorf("engine: target fps must be 50 or 25, got %d", cfg.TargetFPS)
	}
	if cfg.TextureWriteBudget <= 0 {
		cfg.TextureWriteBudget = 2
	}

	pools, err := mempool.NewDefault(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("engine: building memory pools: %w", err)
	}

	e := &Engine{
		Config:       cfg,
		Pools:        pools,
		MessageQueue: messaging.NewQueue(),
		Logger:       cfg.Logger,
		factory:      factory,
	}

	e.Clocks.Messaging = clock.NewClock()
	e.Clocks.Animation = clock.NewClock()
	e.Clocks.Physics = clock.NewClock()

	timer, err := clock.NewTimerManager(clock.Resolution20us, 50)
	if err != nil {
		return nil, fmt.Errorf("engine: building timer: %w", err)
	}
	timer.AttachClocks(e.Clocks.Messaging, e.Clocks.Animation, e.Clocks.Physics)
	e.Timer = timer

	e.Sound = sound.NewMixer()
	timer.AttachSoundTicker(e.Sound)

	e.Camera = camera.New(camera.Optical{}, camera.Frustum{X1: 384, Y1: 224})
	e.CameraEffects = cameraeffect.NewManager(e.MessageQueue, e.Clocks.Messaging, cameraeffect.Brightness{})

	e.VRAM = vip.NewVRAM()
	e.CharSets = vip.NewCharSetManager()
	e.Bgmaps = vip.NewBgmapAllocator()
	e.ParamTable = vip.NewParamTableAllocator()
	e.Textures = vip.NewTextureRegistry(e.Bgmaps, e.CharSets)
	e.Sprites = vip.NewSpriteRegistry()
	e.Renderer = vip.NewRenderScheduler(e.Sprites, e.Camera.Frustum())

	e.Physics = physics.NewManager(cfg.PhysicsFPS, cfg.Gravity)
	e.Collisions = collision.NewManager()

	e.Streaming = streaming.NewScheduler(factory)
	e.Culler = streaming.NewCuller(cfg.LoadPad, cfg.UnloadPad)

	e.Stage = stage.New()
	e.VIP = NewVIPManager(cfg.TargetFPS, ForceVIPSync(cfg.ForceVIPSync))

	return e, nil
}

// Fatal reports a §7 Fatal condition: logs it if a logger is attached and
// invokes the configured FatalHandler. Never returns control in a real
// deployment (the handler halts); tests may supply a handler that just
// records the error.
func (e *Engine) Fatal(err error) {
	if e.Logger != nil {
		e.Logger.Logf(engtrace.SubsystemPool, engtrace.LevelError, "fatal: %v", err)
	}
	if e.Config.FatalHandler != nil {
		e.Config.FatalHandler(err)
	}
}

// Reset returns the engine to its just-constructed state: every subsystem
// is rebuilt from Config, and save RAM is left untouched (spec.md §6:
// persisted state outlives a reset).
func (e *Engine) Reset() error {
	fresh, err := New(e.Config, e.factory)
	if err != nil {
		return err
	}
	fresh.sram = e.sram
	*e = *fresh
	return nil
}

// Pause stops the three logical clocks, which in turn halts messaging,
// animation, and physics advancement without affecting the render
// scheduler (a paused game still draws its last frame).
func (e *Engine) Pause() error {
	if e.paused {
		return ErrAlreadyPaused
	}
	e.Clocks.Messaging.Pause()
	e.Clocks.Animation.Pause()
	e.Clocks.Physics.Pause()
	e.paused = true
	return nil
}

// Resume resumes every clock paused by Pause.
func (e *Engine) Resume() error {
	if !e.paused {
		return ErrNotPaused
	}
	e.Clocks.Messaging.Unpause()
	e.Clocks.Animation.Unpause()
	e.Clocks.Physics.Unpause()
	e.paused = false
	return nil
}

// IsPaused reports whether the engine is currently paused.
func (e *Engine) IsPaused() bool { return e.paused }

// ProcessUserInput records this frame's button snapshot. Decoding a host
// device's native signal into an input.State is the external collaborator's
// job (spec.md §1); the engine only remembers the result for entities that
// consult it during their update.
func (e *Engine) ProcessUserInput(in input.State) {
	e.lastInput = in
}

// LastInput returns the most recently recorded input snapshot.
func (e *Engine) LastInput() input.State { return e.lastInput }

// ReadSRAM copies sram[offset:offset+len(dst)] into dst.
func (e *Engine) ReadSRAM(offset int, dst []byte) error {
	if offset < 0 || offset+len(dst) > SRAMSize {
		return ErrBadSRAMRange
	}
	copy(dst, e.sram[offset:])
	return nil
}

// WriteSRAM copies src into sram[offset:offset+len(src)].
func (e *Engine) WriteSRAM(offset int, src []byte) error {
	if offset < 0 || offset+len(src) > SRAMSize {
		return ErrBadSRAMRange
	}
	copy(e.sram[offset:], src)
	return nil
}

// RunFrame drives one pass of spec.md §2's control flow: the timer
// interrupt accumulates into the three logical clocks and the sound mixer,
// streaming advances one bounded unit of work per stage, physics
// integrates, collisions are detected and dispatched, the scene graph
// propagates transforms down to every entity, and the render scheduler
// assigns WORLDs before the VIP commits the frame. A paused engine still
// ticks the timer (so a real hardware interrupt keeps firing) but the
// paused clocks themselves don't advance: delayed messages stop coming due,
// and physics integration and sprite animation are skipped while their
// clocks are paused. Streaming, collision detection and transform
// propagation take no clock and run on every call, paused or not.
func (e *Engine) RunFrame() {
	e.VIP.OnFrameStart()
	e.Timer.Tick()

	e.Streaming.Advance()
	if !e.Clocks.Physics.IsPaused() {
		e.Physics.Update()
	}
	e.Collisions.Update()
	e.Stage.Propagate()
	e.MessageQueue.Dispatch(e.Clocks.Messaging.Milliseconds())

	if !e.Clocks.Animation.IsPaused() {
		e.Sprites.Animate(rand.Intn)
	}
	// One slide per frame amortises CHAR-space defragmentation (spec.md
	// §4.E); a relocated CharSet's written flag drops, so the following
	// WriteAll picks it back up for its textures without a full re-walk.
	e.CharSets.Defragment(true)
	e.Textures.WriteAll(e.VRAM, e.Config.TextureWriteBudget)

	e.Renderer.Render(e.VRAM, e.VIP.EvenFrame())

	e.VIP.OnGameStart()
	e.VIP.OnXPend()
}

// LoadStage enqueues every spec not named in ignoreTypeIDs onto the
// streaming scheduler, positioning the camera at overrideCameraPosition
// first when non-nil (spec.md §6's LoadStage lifecycle call). Normally an
// entity only streams in once the culler's load pad says the camera is
// close enough; preventPopIn forces every spec to enqueue immediately and
// runs the scheduler to completion before returning, so the very first
// frame already shows a fully-loaded stage instead of entities streaming
// in over the opening frames.
func (e *Engine) LoadStage(specs []*streaming.Spec, ignoreTypeIDs []int, overrideCameraPosition *fixedpoint.Vector3D, preventPopIn bool) {
	ignore := make(map[int]bool, len(ignoreTypeIDs))
	for _, id := range ignoreTypeIDs {
		ignore[id] = true
	}
	if overrideCameraPosition != nil {
		e.Camera.SetPosition(*overrideCameraPosition)
	}

	for i, spec := range specs {
		if ignore[spec.TypeID] {
			continue
		}
		if !preventPopIn && !e.Culler.ShouldLoad(e.Camera.Position(), spec.Position) {
			continue
		}
		e.Streaming.Enqueue(spec, nil, int16(i))
	}

	if preventPopIn {
		for !e.Streaming.CycleComplete() {
			e.Streaming.Advance()
		}
	}
}
