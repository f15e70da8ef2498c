package quad

import "github.com/gogpu/quad/shader"

// SurfaceOption configures a Surface during creation.
//
// Example:
//
//	// Position-only quads with the flat fragment color
//	s, err := quad.NewSurface(gc, 640, 480)
//
//	// Per-vertex colored quads
//	s, err := quad.NewSurface(gc, 640, 480, quad.WithProgram(shader.ColoredQuad()))
type SurfaceOption func(*surfaceOptions)

// surfaceOptions holds optional configuration for Surface creation.
type surfaceOptions struct {
	program *shader.Program
}

// defaultSurfaceOptions returns the default surface options.
func defaultSurfaceOptions() surfaceOptions {
	return surfaceOptions{
		program: shader.Quad(),
	}
}

// WithProgram selects the shader program the surface compiles and links.
// A nil program keeps the default position-only program.
func WithProgram(p *shader.Program) SurfaceOption {
	return func(o *surfaceOptions) {
		if p != nil {
			o.program = p
		}
	}
}

// DriverOption configures a Driver during creation.
type DriverOption func(*driverOptions)

// driverOptions holds optional configuration for Driver creation.
type driverOptions struct {
	clear  RGBA
	camera *Camera
	hook   func(Frame)
}

// defaultDriverOptions returns the default driver options.
func defaultDriverOptions() driverOptions {
	return driverOptions{
		clear: Chartreuse,
	}
}

// WithClearColor sets the color each frame is cleared to.
func WithClearColor(c RGBA) DriverOption {
	return func(o *driverOptions) {
		o.clear = c
	}
}

// WithCamera sets the camera used when the driver performs surface setup.
// Without it the driver uses DefaultCamera with the surface aspect ratio.
func WithCamera(cam Camera) DriverOption {
	return func(o *driverOptions) {
		o.camera = &cam
	}
}

// WithFrameHook registers a function called after every successfully
// flushed frame. The frame's Target is only valid during the call.
func WithFrameHook(fn func(Frame)) DriverOption {
	return func(o *driverOptions) {
		o.hook = fn
	}
}
