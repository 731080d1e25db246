// Package physics implements the engine's body integrator and skip-cycle
// time-scale throttle (spec.md §4.L). Grounded on
// original_source/source/Component/Physics/Body/BodyManager.c's per-body
// gravity-axis masking and fixed-dt Euler integration, generalized from its
// linked-list walk to a slice the frame loop owns outright.
package physics

import "vb-engine-core/internal/fixedpoint"

// Axis is a bitmask of world axes, used for both gravity-subject axes and
// the axes a body is actively moving on.
type Axis uint8

const (
	AxisNone Axis = 0
	AxisX    Axis = 1 << 0
	AxisY    Axis = 1 << 1
	AxisZ    Axis = 1 << 2
)

// Body is one physics-integrated actor: position, velocity, mass, the
// gravity axes it's subject to, and a per-axis friction coefficient.
type Body struct {
	Position fixedpoint.Vector3D
	Velocity fixedpoint.Vector3D
	Mass     fixedpoint.Fix13

	GravityAxes Axis
	Friction    fixedpoint.Vector3D

	Active  bool
	Expired bool
}

// NewBody creates an active body with unit mass.
func NewBody() *Body {
	return &Body{Mass: fixedpoint.FromInt13(1), Active: true}
}

// movingAxes reports which axes the body currently has nonzero velocity
// on.
func (b *Body) movingAxes() Axis {
	var a Axis
	if b.Velocity.X != 0 {
		a |= AxisX
	}
	if b.Velocity.Y != 0 {
		a |= AxisY
	}
	if b.Velocity.Z != 0 {
		a |= AxisZ
	}
	return a
}

func axisMask(a Axis, v fixedpoint.Fix13) fixedpoint.Fix13 {
	if a != 0 {
		return v
	}
	return 0
}

// integrate applies one fixed timestep of gravity, impulse integration,
// and friction to the body.
func (b *Body) integrate(gravity fixedpoint.Vector3D, dt fixedpoint.Fix13) {
	// Gravity only applies to axes the body isn't already moving on; once
	// motion starts along an axis, gravity stops contributing new force to
	// it for this step.
	mask := b.GravityAxes &^ b.movingAxes()

	force := fixedpoint.Vector3D{
		X: axisMask(mask&AxisX, gravity.X.Mul(b.Mass)),
		Y: axisMask(mask&AxisY, gravity.Y.Mul(b.Mass)),
		Z: axisMask(mask&AxisZ, gravity.Z.Mul(b.Mass)),
	}

	accel := fixedpoint.Vector3D{
		X: force.X.Div(b.Mass),
		Y: force.Y.Div(b.Mass),
		Z: force.Z.Div(b.Mass),
	}

	b.Velocity = b.Velocity.Add(accel.Scale(dt))
	b.Position = b.Position.Add(b.Velocity.Scale(dt))

	b.applyFriction(dt)
}

// applyFriction decays velocity along every axis the body is moving on.
func (b *Body) applyFriction(dt fixedpoint.Fix13) {
	moving := b.movingAxes()
	decay := func(v, friction fixedpoint.Fix13, axis Axis) fixedpoint.Fix13 {
		if moving&axis == 0 {
			return v
		}
		delta := friction.Mul(dt)
		if v > 0 {
			v -= delta
			if v < 0 {
				v = 0
			}
		} else if v < 0 {
			v += delta
			if v > 0 {
				v = 0
			}
		}
		return v
	}
	b.Velocity.X = decay(b.Velocity.X, b.Friction.X, AxisX)
	b.Velocity.Y = decay(b.Velocity.Y, b.Friction.Y, AxisY)
	b.Velocity.Z = decay(b.Velocity.Z, b.Friction.Z, AxisZ)
}

// Manager owns every live body and the skip-cycle time-scale throttle
// (spec.md §4.L).
type Manager struct {
	bodies []*Body

	gravity fixedpoint.Vector3D
	dt      fixedpoint.Fix13

	fps       int
	cycle     int
	timeScale fixedpoint.Fix13
}

// NewManager creates a physics manager at the given frame rate and gravity
// vector, with a fixed elapsed-time divisor producing dt = 1/fps.
func NewManager(fps int, gravity fixedpoint.Vector3D) *Manager {
	return &Manager{
		fps:       fps,
		gravity:   gravity,
		dt:        fixedpoint.FromInt13(1).Div(fixedpoint.FromInt13(fps)),
		timeScale: fixedpoint.FromInt13(1),
	}
}

// Add registers a body.
func (m *Manager) Add(b *Body) { m.bodies = append(m.bodies, b) }

// Bodies returns every live body.
func (m *Manager) Bodies() []*Body { return m.bodies }

// SetTimeScale sets the throttle factor in (0, 1].
func (m *Manager) SetTimeScale(scale fixedpoint.Fix13) { m.timeScale = scale }

// shouldSkip reports whether the current cycle's update is throttled by the
// time scale: above 0.5, one update in every round(1/(1-timeScale)) is
// skipped; at or below 0.5, the period is N = round(1/timeScale) and N-1 of
// every N updates are skipped.
func (m *Manager) shouldSkip() bool {
	half := fixedpoint.FromFloat13(0.5)
	one := fixedpoint.FromInt13(1)

	if m.timeScale >= one {
		return false
	}

	if m.timeScale > half {
		// Above 0.5: skip 1 update out of every round(1/(1-timeScale))ish
		// cycle — expressed directly as "skip when cycle hits the period".
		period := int(one.Div(one.Sub(m.timeScale)).Add(half).ToInt())
		if period < 1 {
			period = 1
		}
		return m.cycle%period == period-1
	}

	period := int(one.Div(m.timeScale).Add(half).ToInt())
	if period < 1 {
		period = 1
	}
	skip := period - 1
	return m.cycle%period < skip
}

// Update advances the cycle counter (wrapping at 1), applies the
// skip-cycle throttle, and integrates every active, non-expired body by
// one fixed timestep unless this cycle is skipped.
func (m *Manager) Update() {
	m.cycle++
	if m.cycle > m.fps {
		m.cycle = 1
	}

	if m.shouldSkip() {
		return
	}

	for _, b := range m.bodies {
		if !b.Active || b.Expired {
			continue
		}
		b.integrate(m.gravity, m.dt)
	}
}
