package quad

import "fmt"

// Vertex layout of every geometry entry.
const (
	VerticesPerQuad    = 4
	PositionComponents = 3
	ColorComponents    = 4
)

// GeometryEntry is one quad uploaded to the graphics context.
// Entries are immutable once added.
type GeometryEntry struct {
	Index     int
	Positions Buffer
	Colors    Buffer // nil for the position-only program
	Vertices  int
}

// HasColors reports whether the entry carries per-vertex colors.
func (g GeometryEntry) HasColors() bool {
	return g.Colors != nil
}

func validateGeometry(positions, colors []float32, wantColors bool) error {
	if len(positions) != VerticesPerQuad*PositionComponents {
		return fmt.Errorf("%w: %d position floats, want %d",
			ErrInvalidGeometry, len(positions), VerticesPerQuad*PositionComponents)
	}
	switch {
	case wantColors && colors == nil:
		return fmt.Errorf("%w: program requires per-vertex colors", ErrInvalidGeometry)
	case !wantColors && colors != nil:
		return fmt.Errorf("%w: program has no color attribute", ErrInvalidGeometry)
	case wantColors && len(colors) != VerticesPerQuad*ColorComponents:
		return fmt.Errorf("%w: %d color floats, want %d",
			ErrInvalidGeometry, len(colors), VerticesPerQuad*ColorComponents)
	}
	return nil
}
