package stage

import (
	"vb-engine-core/internal/fixedpoint"
	"vb-engine-core/internal/messaging"
)

// NodeID is a stable handle into a Stage's node arena: an index paired with
// a generation counter, so a destroyed node's ID can never alias a later
// node reused at the same slot (design note "Cyclic parent/child
// references").
type NodeID struct {
	index      int
	generation int
}

// Valid reports whether id was ever issued (the zero NodeID is invalid).
func (id NodeID) Valid() bool { return id.generation != 0 }

// Entity is the payload a stage node forwards transform updates and
// messages to. Concrete game objects implement this to hang their sprite,
// collider, and body state off a stage position.
type Entity interface {
	messaging.Receiver
	// OnTransformed is called once this node's global Transformation has
	// been recomputed for the frame, so the entity can sync its sprite,
	// collider, and body positions to it.
	OnTransformed(t Transformation)
}

type node struct {
	generation int
	live       bool

	parent   NodeID
	children []NodeID

	transform Transformation
	entity    Entity
	source    messaging.Source
}

// Stage owns a flat arena of nodes addressed by NodeID, replacing the
// original's raw parent/child pointers (design note "Cyclic parent/child
// references"). Destroying a node is a bounds-checked depth-first
// post-order walk over its subtree's indices rather than following
// potentially-dangling pointers.
type Stage struct {
	nodes []node
	free  []int
	root  NodeID
}

// New creates an empty stage with a root node at the origin.
func New() *Stage {
	s := &Stage{}
	s.root = s.alloc(NodeID{}, nil, Root(Identity()))
	return s
}

// Root returns the stage's root node id. The root has no parent and is
// never destroyed by Destroy.
func (s *Stage) Root() NodeID { return s.root }

func (s *Stage) alloc(parent NodeID, entity Entity, t Transformation) NodeID {
	var idx int
	if len(s.free) > 0 {
		idx = s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		s.nodes[idx].generation++
	} else {
		idx = len(s.nodes)
		s.nodes = append(s.nodes, node{generation: 1})
	}

	n := &s.nodes[idx]
	n.live = true
	n.parent = parent
	n.children = n.children[:0]
	n.transform = t
	n.entity = entity

	id := NodeID{index: idx, generation: n.generation}
	if parent.Valid() {
		if p := s.get(parent); p != nil {
			p.children = append(p.children, id)
		}
	}
	return id
}

// get returns the live node for id, or nil if id is stale or out of range.
func (s *Stage) get(id NodeID) *node {
	if id.index < 0 || id.index >= len(s.nodes) {
		return nil
	}
	n := &s.nodes[id.index]
	if !n.live || n.generation != id.generation {
		return nil
	}
	return n
}

// Add creates a new child node of parent carrying entity, with the given
// local transform. Returns the zero NodeID if parent is stale.
func (s *Stage) Add(parent NodeID, entity Entity, local Transformation) NodeID {
	p := s.get(parent)
	if p == nil {
		return NodeID{}
	}
	local.Invalid = FullyInvalid
	return s.alloc(parent, entity, local)
}

// Entity returns the entity attached to id, or nil if id is stale or has no
// entity.
func (s *Stage) Entity(id NodeID) Entity {
	n := s.get(id)
	if n == nil {
		return nil
	}
	return n.entity
}

// Transform returns id's last-propagated transformation.
func (s *Stage) Transform(id NodeID) Transformation {
	n := s.get(id)
	if n == nil {
		return Transformation{}
	}
	return n.transform
}

// SetLocalPosition moves id's local transform, invalidating its subtree on
// the next Propagate.
func (s *Stage) SetLocalPosition(id NodeID, pos fixedpoint.Vector3D) {
	n := s.get(id)
	if n == nil {
		return
	}
	n.transform.SetLocalPosition(pos)
}

// Source returns id's embeddable messaging.Source, so callers can subscribe
// to or fire events scoped to that node.
func (s *Stage) Source(id NodeID) *messaging.Source {
	n := s.get(id)
	if n == nil {
		return nil
	}
	return &n.source
}

// Children returns id's direct children.
func (s *Stage) Children(id NodeID) []NodeID {
	n := s.get(id)
	if n == nil {
		return nil
	}
	out := make([]NodeID, len(n.children))
	copy(out, n.children)
	return out
}

// Propagate recomputes every stale global transform, depth-first from the
// root, calling Entity.OnTransformed for each node whose global transform
// changed (spec.md §4.Q: "hierarchy, transform concatenation, propagation").
// A node whose Invalid flag is already Clean is not recomputed unless an
// ancestor's change forces re-concatenation; its children are still
// visited, so a dirty descendant of a clean node is recomputed.
func (s *Stage) Propagate() {
	s.propagate(s.root, false)
}

func (s *Stage) propagate(id NodeID, parentChanged bool) {
	n := s.get(id)
	if n == nil {
		return
	}

	changed := parentChanged || n.transform.Invalid != Clean
	if changed {
		if id == s.root {
			n.transform = Root(n.transform)
		} else if p := s.get(n.parent); p != nil {
			n.transform = Concatenate(p.transform, n.transform)
		}
		if n.entity != nil {
			n.entity.OnTransformed(n.transform)
		}
	}

	for _, child := range n.children {
		s.propagate(child, changed)
	}
}

// Destroy removes id and its entire subtree in depth-first post-order,
// detaching it from its parent's child list first so a concurrent Propagate
// walk (there is none in this single-threaded engine, but defensively)
// never visits a half-torn-down node.
func (s *Stage) Destroy(id NodeID) {
	if id == s.root {
		return
	}
	n := s.get(id)
	if n == nil {
		return
	}

	if p := s.get(n.parent); p != nil {
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}

	s.destroySubtree(id)
}

func (s *Stage) destroySubtree(id NodeID) {
	n := s.get(id)
	if n == nil {
		return
	}
	children := n.children
	for _, c := range children {
		s.destroySubtree(c)
	}

	n.source.RemoveAllEventListeners()
	n.live = false
	n.entity = nil
	n.children = nil
	s.free = append(s.free, id.index)
}

// NodeCount returns the number of live nodes, including the root.
func (s *Stage) NodeCount() int {
	n := 0
	for _, nd := range s.nodes {
		if nd.live {
			n++
		}
	}
	return n
}
