// Package particles implements the particle system spec.md §3 names as a
// data-model entity but §4 never gives an operation of its own — this
// completes it (SPEC_FULL.md "Supplemented Features"). Grounded on
// original_source/source/Entity/Container/Actor/ParticleSystem/Particles/Particle.c
// and .../ParticleSystem/ParticleSystem.c: a spawn deadline, a recycle pool
// of dead particles reused instead of freed, and per-particle lifetime
// counted down each frame. Backed by internal/mempool so live particles
// never touch a dynamic heap, matching every other engine object.
package particles

import (
	"vb-engine-core/internal/fixedpoint"
	"vb-engine-core/internal/mempool"
)

// Spec describes one particle system's spawn behavior: how often particles
// spawn, how long each lives, the jitter applied to each spawn position,
// and the maximum number of particles alive at once.
type Spec struct {
	SpawnPeriodMs  int64
	LifetimeMs     int64
	PositionJitter fixedpoint.Vector3D
	MaxParticles   int
	ParticleSize   int // bytes, used to size the mempool request
}

// JitterSource supplies the per-axis spawn-position jitter. Tests pass a
// deterministic source; the engine wires a real PRNG.
type JitterSource interface {
	// Fix13 returns a pseudo-random fixed-point value in [-max, max].
	Fix13(max fixedpoint.Fix13) fixedpoint.Fix13
}

// Particle is one live particle: a pool-backed payload reference, the
// position it was spawned at, and the time remaining before it expires.
type Particle struct {
	ref          mempool.Ref
	Position     fixedpoint.Vector3D
	remainingMs  int64
}

// Expired reports whether the particle's lifetime has elapsed.
func (p *Particle) Expired() bool { return p.remainingMs <= 0 }

// System owns one particle system's live set and recycle pool, allocating
// new particle payloads from pools only when the recycle pool is empty —
// matching original_source's preference for reusing a dead particle's slot
// over returning it to the pool and reallocating.
type System struct {
	spec   Spec
	pools  *mempool.Pools
	jitter JitterSource

	live    []*Particle
	recycle []*Particle

	nextSpawnMs int64
}

// New creates a particle system over the given pool set and jitter source.
func New(spec Spec, pools *mempool.Pools, jitter JitterSource) *System {
	return &System{spec: spec, pools: pools, jitter: jitter}
}

// Live returns every currently live particle.
func (s *System) Live() []*Particle { return s.live }

// spawn allocates (or recycles) one particle at origin plus jitter.
func (s *System) spawn(origin fixedpoint.Vector3D) error {
	var p *Particle
	if n := len(s.recycle); n > 0 {
		p = s.recycle[n-1]
		s.recycle = s.recycle[:n-1]
	} else {
		ref, _, err := s.pools.Allocate(s.spec.ParticleSize)
		if err != nil {
			return err
		}
		p = &Particle{ref: ref}
	}

	jitter := func(axis fixedpoint.Fix13) fixedpoint.Fix13 {
		if s.jitter == nil || axis == 0 {
			return 0
		}
		return s.jitter.Fix13(axis)
	}
	p.Position = origin.Add(fixedpoint.Vector3D{
		X: jitter(s.spec.PositionJitter.X),
		Y: jitter(s.spec.PositionJitter.Y),
		Z: jitter(s.spec.PositionJitter.Z),
	})
	p.remainingMs = s.spec.LifetimeMs

	s.live = append(s.live, p)
	return nil
}

// Update advances the system by deltaMs: spawns a new particle every time
// the spawn deadline elapses (bounded by MaxParticles), ages every live
// particle, and recycles any that expired rather than freeing their pool
// block.
func (s *System) Update(deltaMs int64, origin fixedpoint.Vector3D) {
	s.nextSpawnMs -= deltaMs
	for s.nextSpawnMs <= 0 {
		if len(s.live) < s.spec.MaxParticles {
			// Pool exhaustion just skips this spawn; the next deadline retries.
			s.spawn(origin)
		}
		s.nextSpawnMs += s.spec.SpawnPeriodMs
	}

	kept := s.live[:0]
	for _, p := range s.live {
		p.remainingMs -= deltaMs
		if p.Expired() {
			s.recycle = append(s.recycle, p)
			continue
		}
		kept = append(kept, p)
	}
	s.live = kept
}

// Clear recycles every live particle immediately, e.g. when the owning
// entity is destroyed.
func (s *System) Clear() {
	s.recycle = append(s.recycle, s.live...)
	s.live = nil
}

// Release returns every recycled particle's pool block, used when the
// whole system is being torn down rather than just cleared.
func (s *System) Release() {
	for _, p := range s.recycle {
		s.pools.Free(p.ref)
	}
	s.recycle = nil
}
