// Package backend provides the graphics contexts a quad.Surface draws through.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is registered on import of this package; the GPU
// backend registers itself when its package is imported:
//
//	import (
//		"github.com/gogpu/quad/backend"
//		_ "github.com/gogpu/quad/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default to get the best available backend, Get to request a specific
// backend by name, or Select to do either from a user-supplied name:
//
//	gc, err := backend.Select("software")
//	if err != nil {
//		log.Fatal(err)
//	}
//	s, err := quad.NewSurface(gc, 640, 480)
//
// # Available Backends
//
//   - "software": CPU triangle rasterizer with a float depth buffer (always available)
//   - "wgpu": GPU rendering via gogpu/wgpu with offscreen readback
package backend
