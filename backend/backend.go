package backend

import (
	"errors"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU rasterizer backend.
	BackendSoftware = "software"
	// BackendWGPU is the name of the Pure Go GPU backend (gogpu/wgpu).
	BackendWGPU = "wgpu"
	// BackendAuto selects the best registered backend.
	BackendAuto = "auto"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when drawing before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrNoProgram is returned when drawing before UseProgram.
	ErrNoProgram = errors.New("backend: no program in use")

	// ErrUnsupportedProgram is returned by UseProgram for programs the
	// backend cannot execute.
	ErrUnsupportedProgram = errors.New("backend: unsupported program")

	// ErrForeignBuffer is returned when a draw binds a buffer created by
	// another context.
	ErrForeignBuffer = errors.New("backend: buffer belongs to another context")

	// ErrReleasedBuffer is returned when a draw binds a released buffer.
	ErrReleasedBuffer = errors.New("backend: buffer released")

	// ErrClosed is returned when using a context after Close.
	ErrClosed = errors.New("backend: context closed")
)
