// Package collision implements the engine's broad/narrow-phase collider
// sweep and axis-of-collision resolution (spec.md §4.K). Grounded on
// original_source/source/Component/Collider/ColliderManager.c's
// dirty-flag/delete-deferred update loop, generalized from its linked-list
// walk to a slice the single-threaded frame loop owns outright.
package collision

import (
	"vb-engine-core/internal/fixedpoint"
	"vb-engine-core/internal/messaging"
)

// Event codes dispatched to collider owners.
const (
	EventCollisionStart messaging.Code = iota
	EventCollisionPersists
	EventCollisionEnd
)

// Axis is a bitmask identifying which world axes an axis-of-collision
// sweep determined caused an overlap.
type Axis uint8

const (
	AxisNone Axis = 0
	AxisX    Axis = 1 << 0
	AxisY    Axis = 1 << 1
	AxisZ    Axis = 1 << 2
)

// Layer is a bitmask a collider belongs to and can be told to ignore.
type Layer uint32

// CollisionInformation is the payload dispatched to both owners on
// collision start/persist/end.
type CollisionInformation struct {
	Self, Other *Collider
	Axis        Axis
}

// Owner is anything a collider belongs to; used only for pair exclusion
// (colliders sharing an owner never test against each other) and as the
// messaging.Receiver collision events are dispatched to.
type Owner interface {
	messaging.Receiver
}

// Cuboid is an axis-aligned bounding box in world space.
type Cuboid struct {
	Min, Max fixedpoint.Vector3D
}

// Overlaps reports six-sided AABB overlap between two cuboids.
func (c Cuboid) Overlaps(o Cuboid) bool {
	return c.Min.X < o.Max.X && o.Min.X < c.Max.X &&
		c.Min.Y < o.Max.Y && o.Min.Y < c.Max.Y &&
		c.Min.Z < o.Max.Z && o.Min.Z < c.Max.Z
}

// Translated returns the cuboid shifted by delta.
func (c Cuboid) Translated(delta fixedpoint.Vector3D) Cuboid {
	return Cuboid{Min: c.Min.Add(delta), Max: c.Max.Add(delta)}
}

// Collider is one collidable shape bound to an owner.
type Collider struct {
	Owner Owner

	Position fixedpoint.Vector3D
	Local    Cuboid // cuboid in the collider's own local space

	Layers         Layer
	LayersToIgnore Layer

	Enabled           bool
	ChecksForCollision bool

	// MaxExtentSquared bounds the broad-phase centre-distance test; callers
	// set it to the square of half the cuboid's diagonal (or larger, to be
	// conservative).
	MaxExtentSquared int64

	deleteMe      bool
	transformDirty bool
	world         Cuboid
	generation    int

	lastPosition fixedpoint.Vector3D

	// overlapping tracks which other colliders this one currently overlaps,
	// so start/persist/end can be distinguished frame to frame.
	overlapping map[*Collider]bool
}

// NewCollider creates an enabled, collision-checking collider.
func NewCollider(owner Owner, local Cuboid) *Collider {
	return &Collider{
		Owner: owner, Local: local,
		Enabled: true, ChecksForCollision: true,
		transformDirty: true,
		overlapping:    make(map[*Collider]bool),
	}
}

// SetPosition moves the collider and marks its world transform stale.
func (c *Collider) SetPosition(pos fixedpoint.Vector3D) {
	if pos == c.Position {
		return
	}
	c.lastPosition = c.Position
	c.Position = pos
	c.transformDirty = true
}

// Destroy defers removal to the next update pass.
func (c *Collider) Destroy() { c.deleteMe = true }

// World returns the collider's current world-space cuboid, recomputing it
// if stale.
func (c *Collider) World() Cuboid {
	if c.transformDirty {
		c.world = c.Local.Translated(c.Position)
		c.transformDirty = false
	}
	return c.world
}

func centerSquaredDistance(a, b Cuboid) int64 {
	ac := a.Min.Add(a.Max)
	bc := b.Min.Add(b.Max)
	delta := ac.Sub(bc)
	// ac/bc are doubled centres (avoids a division); the caller's
	// MaxExtentSquared threshold is scaled to match in Manager.Update.
	return delta.SquareLength()
}

// Manager owns every live collider and runs the per-frame broad/narrow
// phase sweep (spec.md §4.K).
type Manager struct {
	colliders         []*Collider
	positionGeneration int
	dirty             bool
}

// NewManager creates an empty collision manager.
func NewManager() *Manager { return &Manager{} }

// Add registers a collider. Adding one during collision dispatch (i.e.
// from inside a CollisionStart/Persists/End handler) marks the sweep dirty
// so the inner iteration restarts rather than missing the new collider.
func (m *Manager) Add(c *Collider) {
	m.colliders = append(m.colliders, c)
	m.dirty = true
}

// Colliders returns every live collider.
func (m *Manager) Colliders() []*Collider { return m.colliders }

// purge removes colliders marked deleteMe.
func (m *Manager) purge() {
	kept := m.colliders[:0]
	for _, c := range m.colliders {
		if !c.deleteMe {
			kept = append(kept, c)
		}
	}
	m.colliders = kept
}

// Update runs one frame's collision sweep: increments the position
// generation, purges deleted colliders, and tests every enabled,
// collision-checking collider against every other one once.
//
// If a collider is added mid-sweep (Add sets dirty), the inner iteration
// restarts — the caller is expected not to do this outside of a
// collision-event handler, since restarting an already-notified pair would
// double-dispatch; in debug builds callers should treat a dirty restart as
// a programming error.
func (m *Manager) Update() {
	m.positionGeneration++
	m.purge()

	for i := 0; i < len(m.colliders); i++ {
		a := m.colliders[i]
		if a.deleteMe || !a.Enabled || !a.ChecksForCollision {
			continue
		}

		m.dirty = false
		worldA := a.World()

		for j := 0; j < len(m.colliders); j++ {
			if i == j {
				continue
			}
			b := m.colliders[j]
			if j < i && b.ChecksForCollision {
				continue // pair already tested with b as the outer collider
			}
			if b.deleteMe || !b.Enabled {
				continue
			}
			if a.Owner == b.Owner {
				continue
			}
			if a.LayersToIgnore&b.Layers != 0 || b.LayersToIgnore&a.Layers != 0 {
				continue
			}

			worldB := b.World()
			if centerSquaredDistance(worldA, worldB) > maxExtentSum(a, b) {
				continue
			}

			overlap := worldA.Overlaps(worldB)
			wasOverlapping := a.overlapping[b]

			switch {
			case overlap && !wasOverlapping:
				a.overlapping[b] = true
				dispatch(a, b, EventCollisionStart)
			case overlap && wasOverlapping:
				dispatch(a, b, EventCollisionPersists)
			case !overlap && wasOverlapping:
				delete(a.overlapping, b)
				dispatch(a, b, EventCollisionEnd)
			}

			if m.dirty {
				j = -1 // restart the inner pass
				m.dirty = false
			}
		}
	}
}

func maxExtentSum(a, b *Collider) int64 {
	sum := a.MaxExtentSquared + b.MaxExtentSquared
	// (2*centre) squared distance needs a 4x-scaled threshold to compare
	// against the doubled-centre delta computed in centerSquaredDistance.
	return sum * 4
}

func dispatch(a, b *Collider, code messaging.Code) {
	info := CollisionInformation{Self: a, Other: b}
	a.Owner.HandleMessage(messaging.Message{Receiver: a.Owner, Code: code, Payload: info})
	infoB := CollisionInformation{Self: b, Other: a}
	b.Owner.HandleMessage(messaging.Message{Receiver: b.Owner, Code: code, Payload: infoB})
}

// AxisOfCollision sweeps small fractional displacements back along the
// collider's last motion, re-testing per axis to identify which axis first
// produced the overlap against other. A returned bit means retreating
// along that axis alone would have avoided the overlap, i.e. that axis is
// what caused the hit.
func AxisOfCollision(c, other *Collider) Axis {
	motion := c.Position.Sub(c.lastPosition)
	var axis Axis

	test := func(mask fixedpoint.Vector3D) bool {
		probe := c.Position.Sub(fixedpoint.Vector3D{
			X: motion.X.Mul(mask.X),
			Y: motion.Y.Mul(mask.Y),
			Z: motion.Z.Mul(mask.Z),
		})
		world := c.Local.Translated(probe)
		return world.Overlaps(other.World())
	}

	unit := fixedpoint.FromInt13(1)
	if !test(fixedpoint.Vector3D{X: unit}) {
		axis |= AxisX
	}
	if !test(fixedpoint.Vector3D{Y: unit}) {
		axis |= AxisY
	}
	if !test(fixedpoint.Vector3D{Z: unit}) {
		axis |= AxisZ
	}
	return axis
}
