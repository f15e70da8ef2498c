// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import "math"

// minW is the smallest clip w accepted. Triangles with any vertex at or
// behind the eye plane are rejected whole; there is no near-plane clipping.
const minW = 1e-6

// Span is a half-open range of framebuffer rows [Y0, Y1).
type Span struct {
	Y0, Y1 int
}

// Full returns the span covering every row.
func (fb *Framebuffer) Full() Span {
	return Span{Y0: 0, Y1: fb.height}
}

// DrawTriangles rasterizes tris in order, touching only rows in rows.
// It returns the number of fragments written.
//
// Calls with disjoint spans may run concurrently on the same framebuffer.
func (fb *Framebuffer) DrawTriangles(tris []Triangle, st State, frag FragmentFunc, rows Span) int {
	if rows.Y0 < 0 {
		rows.Y0 = 0
	}
	if rows.Y1 > fb.height {
		rows.Y1 = fb.height
	}
	if rows.Y0 >= rows.Y1 {
		return 0
	}

	n := 0
	for i := range tris {
		n += fb.drawTriangle(&tris[i], st, frag, rows)
	}
	return n
}

// screenVertex is a vertex after perspective divide and viewport mapping.
type screenVertex struct {
	x, y, z float32
	invW    float32
	v       *[MaxVaryings]float32
}

func (fb *Framebuffer) project(in *Vertex) (screenVertex, bool) {
	w := in.Position[3]
	if !(w > minW) {
		return screenVertex{}, false
	}
	invW := 1 / w
	return screenVertex{
		x:    (in.Position[0]*invW + 1) * 0.5 * float32(fb.width),
		y:    (1 - in.Position[1]*invW) * 0.5 * float32(fb.height),
		z:    (in.Position[2]*invW + 1) * 0.5,
		invW: invW,
		v:    &in.Varyings,
	}, true
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// topLeft reports whether the edge a->b of a triangle with positive area
// owns the pixels lying exactly on it.
func topLeft(a, b screenVertex) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return (dy == 0 && dx > 0) || dy < 0
}

func covers(w float32, owned bool) bool {
	return w > 0 || (w == 0 && owned)
}

func (fb *Framebuffer) drawTriangle(t *Triangle, st State, frag FragmentFunc, rows Span) int {
	var v [3]screenVertex
	for i := range v {
		sv, ok := fb.project(&t[i])
		if !ok {
			return 0
		}
		v[i] = sv
	}

	area := edge(v[0].x, v[0].y, v[1].x, v[1].y, v[2].x, v[2].y)
	if area == 0 || math.IsNaN(float64(area)) {
		return 0
	}
	if area < 0 {
		v[1], v[2] = v[2], v[1]
		area = -area
	}
	a, b, c := v[0], v[1], v[2]

	minX := int(math.Floor(float64(min(a.x, b.x, c.x))))
	maxX := int(math.Ceil(float64(max(a.x, b.x, c.x))))
	minY := int(math.Floor(float64(min(a.y, b.y, c.y))))
	maxY := int(math.Ceil(float64(max(a.y, b.y, c.y))))
	minX = max(minX, 0)
	maxX = min(maxX, fb.width)
	minY = max(minY, rows.Y0)
	maxY = min(maxY, rows.Y1)

	ownA := topLeft(b, c) // edge opposite a
	ownB := topLeft(c, a)
	ownC := topLeft(a, b)
	invArea := 1 / area

	written := 0
	for y := minY; y < maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5

			wa := edge(b.x, b.y, c.x, c.y, px, py)
			wb := edge(c.x, c.y, a.x, a.y, px, py)
			wc := edge(a.x, a.y, b.x, b.y, px, py)
			if !covers(wa, ownA) || !covers(wb, ownB) || !covers(wc, ownC) {
				continue
			}
			ba, bb, bc := wa*invArea, wb*invArea, wc*invArea

			z := ba*a.z + bb*b.z + bc*c.z
			if z < 0 || z > 1 {
				continue
			}
			i := y*fb.width + x
			if st.Depth != nil && !st.Depth(z, fb.depth[i]) {
				continue
			}

			var varyings [MaxVaryings]float32
			if st.Varyings > 0 {
				pa, pb, pc := ba*a.invW, bb*b.invW, bc*c.invW
				norm := 1 / (pa + pb + pc)
				pa, pb, pc = pa*norm, pb*norm, pc*norm
				for k := 0; k < st.Varyings && k < MaxVaryings; k++ {
					varyings[k] = pa*a.v[k] + pb*b.v[k] + pc*c.v[k]
				}
			}

			rgba := frag(&varyings)
			p := i * 4
			fb.pix[p+0] = ToByte(rgba[0])
			fb.pix[p+1] = ToByte(rgba[1])
			fb.pix[p+2] = ToByte(rgba[2])
			fb.pix[p+3] = ToByte(rgba[3])
			if st.Depth != nil {
				fb.depth[i] = z
			}
			written++
		}
	}
	return written
}
