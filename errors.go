package quad

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Surface and Driver.
var (
	// ErrInvalidGeometry is returned by AddGeometry when the arrays do not
	// describe exactly VerticesPerQuad vertices.
	ErrInvalidGeometry = errors.New("quad: invalid geometry")

	// ErrMissingLocation is returned by NewSurface when a name the program
	// requires cannot be resolved in the linked program.
	ErrMissingLocation = errors.New("quad: missing attribute or uniform location")

	// ErrAlreadySetup is returned by a second call to Surface.Setup.
	ErrAlreadySetup = errors.New("quad: surface already set up")

	// ErrDriverRunning is returned by Run while the driver is already running.
	ErrDriverRunning = errors.New("quad: driver already running")

	// ErrClockStopped is returned by Clock.WaitFrame when the clock has no
	// more frames to deliver. Run treats it as a normal end of the loop.
	ErrClockStopped = errors.New("quad: clock stopped")

	// ErrClosed is returned when using a Surface after Close.
	ErrClosed = errors.New("quad: surface closed")

	// ErrInvalidCamera is wrapped by Camera.Validate failures.
	ErrInvalidCamera = errors.New("quad: invalid camera")
)

func errInvalidCamera(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidCamera, reason)
}
