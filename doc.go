// Package quad renders a set of hard-coded quads with a time-driven 3D
// rotation through a pluggable graphics context.
//
// # Overview
//
// A Surface owns a GraphicsContext, a linked shader program (package shader)
// and the quads uploaded to it. A Driver redraws the surface once per tick
// of an injected Clock, rotating every quad by an amount derived from the
// clock time.
//
// # Quick Start
//
//	gc, _ := backend.Default()
//	s, err := quad.NewSurface(gc, 640, 480)
//	if err != nil {
//	    log.Fatal(err) // carries the shader compiler or linker diagnostic
//	}
//	defer s.Close()
//
//	_ = s.AddGeometry([]float32{
//	    1, 1, 0,
//	    -1, 1, 0,
//	    1, -1, 0,
//	    -1, -1, 0,
//	}, nil)
//
//	d, _ := quad.NewDriver(s, quad.NewStepClock(16*time.Millisecond, 60))
//	_ = d.Run(ctx)
//
// # Lifecycle
//
// NewSurface initializes the context and links the program. AddGeometry
// appends immutable entries. Setup enables depth testing and uploads the
// projection; Driver.Run performs it when needed. Run renders until its
// context is done or the clock stops. Close tears everything down.
//
// # Transform
//
// At clock time t milliseconds, with f = t / 1000 / pi, the model-view
// matrix is translate(0, 0, -6) * rotateZ(2f) * rotateX(3f). The projection
// is a 45 degree perspective with the surface aspect ratio and clip planes
// at 0.1 and 100. Matrices are column-major float32 (Mat4).
//
// # Logging
//
// quad is silent by default. See SetLogger.
package quad

// Version is the current version of the module.
const Version = "0.1.0"
