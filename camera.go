package quad

import (
	"math"

	"github.com/chewxy/math32"
)

// Camera describes the perspective projection applied to every quad.
type Camera struct {
	FOV    float32 // vertical field of view in degrees
	Aspect float32 // width / height
	Near   float32
	Far    float32
}

// Default projection parameters.
const (
	DefaultFOV  = 45
	DefaultNear = 0.1
	DefaultFar  = 100
)

// DefaultCamera returns the scene camera: 45 degree vertical field of view,
// near plane 0.1 and far plane 100.
func DefaultCamera(aspect float32) Camera {
	return Camera{
		FOV:    DefaultFOV,
		Aspect: aspect,
		Near:   DefaultNear,
		Far:    DefaultFar,
	}
}

// Projection returns the perspective matrix for the camera.
func (c Camera) Projection() Mat4 {
	return Perspective(c.FOV*math32.Pi/180, c.Aspect, c.Near, c.Far)
}

// Validate reports whether the camera can produce a finite projection.
func (c Camera) Validate() error {
	switch {
	case c.FOV <= 0 || c.FOV >= 180:
		return errInvalidCamera("field of view must be in (0, 180) degrees")
	case c.Aspect <= 0:
		return errInvalidCamera("aspect ratio must be positive")
	case c.Near <= 0:
		return errInvalidCamera("near plane must be positive")
	case c.Far > 0 && c.Far <= c.Near:
		return errInvalidCamera("far plane must lie beyond the near plane")
	}
	return nil
}

// ModelView returns the per-frame transform at time t milliseconds:
// translate(0, 0, -6), then rotate 2f around Z, then 3f around X,
// with f = t / 1000 / pi.
func ModelView(tMillis float64) Mat4 {
	f := float32(tMillis / 1000 / math.Pi)
	return Identity4().
		Translate(V3(0, 0, -6)).
		Rotate(2*f, AxisZ).
		Rotate(3*f, AxisX)
}
