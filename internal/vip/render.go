package vip

import "vb-engine-core/internal/camera"

// Frustum is the camera's screen-space clip rectangle and depth range that
// sprites are clipped against.
type Frustum = camera.Frustum

// SpriteRegistry owns every live Renderable, partitioned into ordinary and
// "special" (param-table-owning) sprites, and assigns WORLD layers each
// frame (spec.md §4.I). Insertion keeps each partition sorted by ZKey via a
// linear walk — acceptable given the typical 30-40 live sprites a scene
// carries.
type SpriteRegistry struct {
	ordinary []Renderable
	special  []Renderable
}

// NewSpriteRegistry creates an empty sprite registry.
func NewSpriteRegistry() *SpriteRegistry { return &SpriteRegistry{} }

// Register inserts a sprite into the ordinary or special partition,
// keeping the partition sorted back-to-front by ZKey.
func (r *SpriteRegistry) Register(s Renderable) {
	list := &r.ordinary
	if s.Special() {
		list = &r.special
	}
	i := 0
	for i < len(*list) && (*list)[i].ZKey() <= s.ZKey() {
		i++
	}
	*list = append(*list, nil)
	copy((*list)[i+1:], (*list)[i:])
	(*list)[i] = s
}

// Unregister removes a sprite from whichever partition holds it.
func (r *SpriteRegistry) Unregister(s Renderable) {
	remove := func(list []Renderable) []Renderable {
		for i, v := range list {
			if v == s {
				return append(list[:i], list[i+1:]...)
			}
		}
		return list
	}
	r.ordinary = remove(r.ordinary)
	r.special = remove(r.special)
}

// Ordinary returns the ordinary-partition sprites, back-to-front.
func (r *SpriteRegistry) Ordinary() []Renderable { return r.ordinary }

// Special returns the special (param-table-owning) partition, back-to-front.
func (r *SpriteRegistry) Special() []Renderable { return r.special }

// Animate ticks every registered sprite's AnimationController, if it has
// one, once per frame (spec.md component K). randN is forwarded to
// AnimationController.Tick for functions with a randomised frame delay.
func (r *SpriteRegistry) Animate(randN func(n int) int) {
	for _, list := range [][]Renderable{r.ordinary, r.special} {
		for _, s := range list {
			if a, ok := s.(Animated); ok {
				if ctrl := a.AnimationController(); ctrl != nil {
					ctrl.Tick(randN)
				}
			}
		}
	}
}

// RenderScheduler assigns WORLD layers each frame and writes the shadow
// display list. Grounded on spec.md §4.I: sprites are walked back-to-front
// across both partitions merged by ZKey, assigned descending indices
// starting at 31, and the first unused layer below the lowest assigned
// index is terminated with EndHead.
type RenderScheduler struct {
	registry *SpriteRegistry
	frustum  Frustum
}

// NewRenderScheduler creates a scheduler over the given registry and
// frustum.
func NewRenderScheduler(registry *SpriteRegistry, frustum Frustum) *RenderScheduler {
	return &RenderScheduler{registry: registry, frustum: frustum}
}

// SetFrustum updates the frustum sprites are clipped against.
func (s *RenderScheduler) SetFrustum(f Frustum) { s.frustum = f }

// merged returns every sprite across both partitions, back-to-front
// (ascending ZKey, since the hardware draws index 0 first and 31 last —
// the highest index wins visually).
func (s *RenderScheduler) merged() []Renderable {
	all := make([]Renderable, 0, len(s.registry.ordinary)+len(s.registry.special))
	all = append(all, s.registry.ordinary...)
	all = append(all, s.registry.special...)

	for i := 1; i < len(all); i++ {
		j := i
		for j > 0 && all[j-1].ZKey() > all[j].ZKey() {
			all[j-1], all[j] = all[j], all[j-1]
			j--
		}
	}
	return all
}

// Render walks sprites back-to-front assigning descending WORLD indices
// starting at 31, writes each sprite's attributes into vram via DoRender,
// and terminates the display list with EndHead at the first unused layer
// below the lowest assigned index.
func (s *RenderScheduler) Render(vram *VRAM, evenFrame bool) {
	sprites := s.merged()

	index := WorldLayers - 1
	for i := len(sprites) - 1; i >= 0 && index >= 0; i-- {
		sprite := sprites[i]
		if sprite.Hidden() {
			continue
		}

		used := sprite.DoRender(vram, s.frustum, index, evenFrame)
		if used == NoRenderIndex {
			sprite.SetIndex(NoRenderIndex)
			continue
		}

		sprite.SetIndex(used)
		index--
	}

	if vram != nil && index >= 0 {
		vram.World[index].Head = EndHead
	}
}
