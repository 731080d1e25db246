package particles

import (
	"testing"

	"vb-engine-core/internal/fixedpoint"
	"vb-engine-core/internal/mempool"
)

type zeroJitter struct{}

func (zeroJitter) Fix13(fixedpoint.Fix13) fixedpoint.Fix13 { return 0 }

func testPools(t *testing.T) *mempool.Pools {
	t.Helper()
	pools, err := mempool.NewDefault(nil)
	if err != nil {
		t.Fatalf("mempool.NewDefault: %v", err)
	}
	return pools
}

func TestUpdateSpawnsOnDeadline(t *testing.T) {
	sys := New(Spec{
		SpawnPeriodMs: 100,
		LifetimeMs:    1000,
		MaxParticles:  4,
		ParticleSize:  8,
	}, testPools(t), zeroJitter{})

	// The spawn deadline starts at zero, so the very first Update (whatever
	// its delta) always spawns the system's initial particle.
	sys.Update(10, fixedpoint.Vector3D{})
	if len(sys.Live()) != 1 {
		t.Fatalf("Live() = %d after the first Update, want 1", len(sys.Live()))
	}

	sys.Update(95, fixedpoint.Vector3D{})
	if len(sys.Live()) != 2 {
		t.Fatalf("Live() = %d after crossing one more deadline, want 2", len(sys.Live()))
	}
}

func TestUpdateCapsAtMaxParticles(t *testing.T) {
	sys := New(Spec{
		SpawnPeriodMs: 10,
		LifetimeMs:    10000,
		MaxParticles:  2,
		ParticleSize:  8,
	}, testPools(t), zeroJitter{})

	sys.Update(1000, fixedpoint.Vector3D{})
	if len(sys.Live()) != 2 {
		t.Fatalf("Live() = %d, want capped at MaxParticles=2", len(sys.Live()))
	}
}

func TestExpiredParticlesAreRecycled(t *testing.T) {
	sys := New(Spec{
		SpawnPeriodMs: 10,
		LifetimeMs:    50,
		MaxParticles:  1,
		ParticleSize:  8,
	}, testPools(t), zeroJitter{})

	sys.Update(10, fixedpoint.Vector3D{})
	if len(sys.Live()) != 1 {
		t.Fatalf("Live() = %d after spawn, want 1", len(sys.Live()))
	}

	sys.Update(60, fixedpoint.Vector3D{})
	if len(sys.Live()) != 0 {
		t.Fatalf("Live() = %d after lifetime elapsed, want 0", len(sys.Live()))
	}
	if len(sys.recycle) == 0 {
		t.Fatal("expected the expired particle to land in the recycle pool")
	}
}

func TestRecyclePoolReusedBeforeAllocating(t *testing.T) {
	pools := testPools(t)
	sys := New(Spec{
		SpawnPeriodMs: 10,
		LifetimeMs:    15,
		MaxParticles:  1,
		ParticleSize:  8,
	}, pools, zeroJitter{})

	sys.Update(10, fixedpoint.Vector3D{}) // spawns the only slot
	sys.Update(10, fixedpoint.Vector3D{}) // that particle expires and is recycled
	if len(sys.recycle) != 1 {
		t.Fatalf("recycle pool = %d entries, want 1 (the expired particle)", len(sys.recycle))
	}

	usedBefore := pools.UsedBytes()
	sys.Update(10, fixedpoint.Vector3D{}) // the next spawn must reuse the recycled slot
	if len(sys.recycle) != 0 {
		t.Fatalf("recycle pool = %d entries, want 0 (reused by the new spawn)", len(sys.recycle))
	}
	if len(sys.Live()) != 1 {
		t.Fatalf("Live() = %d, want 1", len(sys.Live()))
	}
	if pools.UsedBytes() != usedBefore {
		t.Fatal("expected reuse from the recycle pool, not a fresh pool allocation")
	}
}

func TestClearRecyclesAllLive(t *testing.T) {
	sys := New(Spec{
		SpawnPeriodMs: 10,
		LifetimeMs:    1000,
		MaxParticles:  3,
		ParticleSize:  8,
	}, testPools(t), zeroJitter{})

	sys.Update(30, fixedpoint.Vector3D{})
	if len(sys.Live()) == 0 {
		t.Fatal("expected some live particles before Clear")
	}

	sys.Clear()
	if len(sys.Live()) != 0 {
		t.Fatalf("Live() = %d after Clear, want 0", len(sys.Live()))
	}
}

func TestReleaseFreesRecycledPoolBlocks(t *testing.T) {
	pools := testPools(t)
	sys := New(Spec{
		SpawnPeriodMs: 10,
		LifetimeMs:    1000,
		MaxParticles:  2,
		ParticleSize:  8,
	}, pools, zeroJitter{})

	sys.Update(10, fixedpoint.Vector3D{})
	sys.Clear()
	before := pools.UsedBytes()
	sys.Release()
	after := pools.UsedBytes()
	if after >= before {
		t.Fatalf("UsedBytes after Release = %d, want less than %d", after, before)
	}
}
