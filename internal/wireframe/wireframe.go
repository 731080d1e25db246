// Package wireframe implements the engine's line/polygon renderer, drawing
// directly into the twin (double-buffered) framebuffers the display
// controller scans out (spec.md §4.L in the component table — "Wireframe
// renderer"). Grounded on
// original_source/source/Component/Graphics/3d/Mesh.c's segment-list mesh
// representation and design note "Param-table and render-list double
// buffering": the same even/odd frame-parity swap the render scheduler
// uses for its WORLD-attribute shadow buffer applies here, modeled as two
// Framebuffer values swapped by the VIP's frame-parity bit rather than a
// single mutable bitmap.
package wireframe

import "vb-engine-core/internal/fixedpoint"

// Framebuffer is one of the hardware's two video-plane bitmaps: one bit per
// pixel, packed 8 pixels to a byte, addressed (x, y) with x running fastest.
type Framebuffer struct {
	Width, Height int
	bits          []byte
}

// NewFramebuffer creates a cleared framebuffer of the given pixel
// dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width: width, Height: height,
		bits: make([]byte, (width*height+7)/8),
	}
}

// Clear zeroes every pixel.
func (f *Framebuffer) Clear() {
	for i := range f.bits {
		f.bits[i] = 0
	}
}

// Set lights the pixel at (x, y). Out-of-bounds writes are silently
// dropped, matching the hardware's clipping behavior rather than panicking
// mid-frame over an off-screen vertex.
func (f *Framebuffer) Set(x, y int) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	idx := y*f.Width + x
	f.bits[idx/8] |= 1 << uint(idx%8)
}

// At reports whether the pixel at (x, y) is lit.
func (f *Framebuffer) At(x, y int) bool {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return false
	}
	idx := y*f.Width + x
	return f.bits[idx/8]&(1<<uint(idx%8)) != 0
}

// TwinBuffers is the pair of Framebuffers the VIP alternates between by
// frame parity, mirroring the WORLD-attribute shadow buffer's even/odd
// double-buffering so a partially drawn frame is never scanned out.
type TwinBuffers struct {
	buffers [2]*Framebuffer
}

// NewTwinBuffers creates a pair of framebuffers of the given dimensions.
func NewTwinBuffers(width, height int) *TwinBuffers {
	return &TwinBuffers{buffers: [2]*Framebuffer{
		NewFramebuffer(width, height),
		NewFramebuffer(width, height),
	}}
}

// Write returns the framebuffer the main loop should draw into this frame:
// the one the display controller is NOT currently scanning out.
func (t *TwinBuffers) Write(evenFrame bool) *Framebuffer {
	if evenFrame {
		return t.buffers[0]
	}
	return t.buffers[1]
}

// Read returns the framebuffer the display controller scans out this
// frame: the opposite of Write.
func (t *TwinBuffers) Read(evenFrame bool) *Framebuffer {
	if evenFrame {
		return t.buffers[1]
	}
	return t.buffers[0]
}

// Point2D is a projected screen-space vertex.
type Point2D struct {
	X, Y int
}

// Project flattens a world-space point through an orthographic projection
// (§1 non-goals: "no 3D transforms beyond Z-sort and orthographic
// projection") into screen space, translating by the given screen origin.
func Project(p fixedpoint.Vector3D, originX, originY int) Point2D {
	return Point2D{X: p.X.ToInt() + originX, Y: p.Y.ToInt() + originY}
}

// DrawLine rasterizes a line between two screen-space points using
// Bresenham's algorithm.
func DrawLine(fb *Framebuffer, a, b Point2D) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X >= b.X {
		sx = -1
	}
	if a.Y >= b.Y {
		sy = -1
	}
	err := dx + dy

	x, y := a.X, a.Y
	for {
		fb.Set(x, y)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// DrawPolygon draws the closed outline of a polygon given its screen-space
// vertices in order.
func DrawPolygon(fb *Framebuffer, points []Point2D) {
	n := len(points)
	if n < 2 {
		return
	}
	for i := 0; i < n; i++ {
		DrawLine(fb, points[i], points[(i+1)%n])
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Segment is one edge of a Mesh: two vertex indices into the mesh's vertex
// list, grounded on original_source's Mesh segment-pair representation.
type Segment struct {
	A, B int
}

// Mesh is a wireframe model: a vertex list in local space plus the
// segments connecting them, drawn each frame against the entity's current
// world transform.
type Mesh struct {
	Vertices []fixedpoint.Vector3D
	Segments []Segment
	Hidden   bool
}

// Draw projects every vertex through worldPosition and draws each segment
// into fb.
func (m *Mesh) Draw(fb *Framebuffer, worldPosition fixedpoint.Vector3D, originX, originY int) {
	if m.Hidden {
		return
	}
	projected := make([]Point2D, len(m.Vertices))
	for i, v := range m.Vertices {
		projected[i] = Project(v.Add(worldPosition), originX, originY)
	}
	for _, seg := range m.Segments {
		if seg.A < 0 || seg.A >= len(projected) || seg.B < 0 || seg.B >= len(projected) {
			continue
		}
		DrawLine(fb, projected[seg.A], projected[seg.B])
	}
}
