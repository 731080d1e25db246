package physics

import (
	"testing"

	"vb-engine-core/internal/fixedpoint"
)

func TestGravityAppliesFromRestOnSubjectAxis(t *testing.T) {
	m := NewManager(50, fixedpoint.Vector3D{Y: fixedpoint.FromFloat13(-1)})
	b := NewBody()
	b.GravityAxes = AxisY
	// A body starts at rest on every axis; gravity must still kick it into
	// motion on an axis it's subject to, or it would never start falling.
	m.Add(b)
	m.Update()
	if b.Velocity.Y >= 0 {
		t.Fatalf("expected gravity to pull Y velocity negative from rest, got %v", b.Velocity.Y.ToFloat())
	}
}

func TestGravityStopsApplyingOnceAxisIsMoving(t *testing.T) {
	m := NewManager(50, fixedpoint.Vector3D{Y: fixedpoint.FromFloat13(-1)})
	b := NewBody()
	b.GravityAxes = AxisY
	m.Add(b)
	m.Update()
	afterFirst := b.Velocity.Y

	// Once the axis is already moving, gravity no longer contributes new
	// force to it for that step; with zero friction the velocity this
	// update produced carries forward unchanged.
	m.Update()
	if b.Velocity.Y != afterFirst {
		t.Fatalf("expected Y velocity to stay %v once moving, got %v", afterFirst.ToFloat(), b.Velocity.Y.ToFloat())
	}
}

func TestGravityDoesNotApplyToNonSubjectAxis(t *testing.T) {
	m := NewManager(50, fixedpoint.Vector3D{X: fixedpoint.FromFloat13(-1)})
	b := NewBody()
	b.GravityAxes = AxisY // subject to Y gravity only
	b.Velocity.X = fixedpoint.FromFloat13(1)
	m.Add(b)
	m.Update()
	if b.Velocity.X != fixedpoint.FromFloat13(1) {
		t.Fatalf("expected X velocity unaffected by Y-only gravity, got %v", b.Velocity.X.ToFloat())
	}
}

func TestPositionIntegratesFromVelocity(t *testing.T) {
	m := NewManager(50, fixedpoint.Vector3D{})
	b := NewBody()
	b.Velocity.X = fixedpoint.FromInt13(10)
	m.Add(b)
	m.Update()
	if b.Position.X <= 0 {
		t.Fatalf("expected positive X position after integrating positive velocity, got %v", b.Position.X.ToInt())
	}
}

func TestInactiveBodyDoesNotIntegrate(t *testing.T) {
	m := NewManager(50, fixedpoint.Vector3D{})
	b := NewBody()
	b.Active = false
	b.Velocity.X = fixedpoint.FromInt13(10)
	m.Add(b)
	m.Update()
	if b.Position.X != 0 {
		t.Fatal("expected inactive body to stay put")
	}
}

func TestFrictionDecaysMovingAxisVelocity(t *testing.T) {
	m := NewManager(50, fixedpoint.Vector3D{})
	b := NewBody()
	b.Velocity.X = fixedpoint.FromInt13(100)
	b.Friction.X = fixedpoint.FromInt13(1)
	m.Add(b)
	before := b.Velocity.X
	m.Update()
	if b.Velocity.X >= before {
		t.Fatalf("expected friction to reduce velocity, before=%d after=%d", before, b.Velocity.X)
	}
}

func TestCycleCounterWrapsAtFPS(t *testing.T) {
	m := NewManager(4, fixedpoint.Vector3D{})
	for i := 0; i < 5; i++ {
		m.Update()
	}
	if m.cycle != 1 {
		t.Fatalf("expected cycle to wrap back to 1 after fps updates, got %d", m.cycle)
	}
}

func TestHighTimeScaleSkipsNoUpdates(t *testing.T) {
	m := NewManager(50, fixedpoint.Vector3D{})
	m.SetTimeScale(fixedpoint.FromInt13(1))
	b := NewBody()
	b.Velocity.X = fixedpoint.FromInt13(1)
	m.Add(b)
	for i := 0; i < 10; i++ {
		m.Update()
	}
	if b.Position.X == 0 {
		t.Fatal("expected integration to run every cycle at time scale 1.0")
	}
}

func TestLowTimeScaleSkipsMostUpdates(t *testing.T) {
	m := NewManager(50, fixedpoint.Vector3D{})
	m.SetTimeScale(fixedpoint.FromFloat13(0.2))
	ran := 0
	for i := 0; i < 50; i++ {
		if !m.shouldSkip() {
			ran++
		}
		m.cycle++
		if m.cycle > m.fps {
			m.cycle = 1
		}
	}
	if ran >= 25 {
		t.Fatalf("expected a low time scale to skip most updates, ran %d/50", ran)
	}
}
