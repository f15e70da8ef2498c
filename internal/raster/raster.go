// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package raster rasterizes clip-space triangles into an RGBA8 color buffer
// with a float depth buffer.
//
// Vertices arrive in homogeneous clip space. Each triangle is projected with
// a perspective divide, mapped to the viewport with the origin at the top-left
// corner, and filled with the top-left rule. Depth uses the [0, 1] window
// range and varyings are interpolated perspective-correctly.
package raster

import "fmt"

// MaxVaryings is the number of float varyings carried per vertex.
const MaxVaryings = 4

// Vertex is a post-vertex-stage vertex.
type Vertex struct {
	Position [4]float32 // clip space x, y, z, w
	Varyings [MaxVaryings]float32
}

// Triangle is three vertices in submission order.
type Triangle [3]Vertex

// FragmentFunc returns the RGBA color, each component in [0, 1], for the
// interpolated varyings of one pixel.
type FragmentFunc func(varyings *[MaxVaryings]float32) [4]float32

// DepthFunc reports whether a fragment at depth incoming passes against stored.
type DepthFunc func(incoming, stored float32) bool

// State is the fixed-function state of a draw.
type State struct {
	// Depth enables depth testing and depth writes when non-nil.
	Depth DepthFunc

	// Varyings is the number of varyings to interpolate.
	Varyings int
}

// Framebuffer is a color and depth target.
type Framebuffer struct {
	width  int
	height int
	pix    []uint8   // RGBA8, row-major from the top
	depth  []float32 // one value per pixel
}

// NewFramebuffer creates a framebuffer of the given size. When pix is nil
// a color buffer is allocated; otherwise pix is used in place and must hold
// exactly width*height*4 bytes.
func NewFramebuffer(width, height int, pix []uint8) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid framebuffer size %dx%d", width, height)
	}
	if pix == nil {
		pix = make([]uint8, width*height*4)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("raster: color buffer has %d bytes, want %d", len(pix), width*height*4)
	}
	fb := &Framebuffer{
		width:  width,
		height: height,
		pix:    pix,
		depth:  make([]float32, width*height),
	}
	for i := range fb.depth {
		fb.depth[i] = 1
	}
	return fb, nil
}

// Width returns the framebuffer width in pixels.
func (fb *Framebuffer) Width() int { return fb.width }

// Height returns the framebuffer height in pixels.
func (fb *Framebuffer) Height() int { return fb.height }

// Pix returns the RGBA8 color buffer.
func (fb *Framebuffer) Pix() []uint8 { return fb.pix }

// DepthAt returns the stored depth at (x, y).
func (fb *Framebuffer) DepthAt(x, y int) float32 {
	return fb.depth[y*fb.width+x]
}

// Clear sets every pixel to rgba and every depth value to depth.
func (fb *Framebuffer) Clear(rgba [4]uint8, depth float32) {
	for i := 0; i < len(fb.pix); i += 4 {
		fb.pix[i+0] = rgba[0]
		fb.pix[i+1] = rgba[1]
		fb.pix[i+2] = rgba[2]
		fb.pix[i+3] = rgba[3]
	}
	for i := range fb.depth {
		fb.depth[i] = depth
	}
}

// ToByte converts a [0, 1] color component to a rounded byte.
func ToByte(v float32) uint8 {
	switch {
	case !(v > 0): // also NaN
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
