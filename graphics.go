package quad

import "github.com/gogpu/quad/shader"

// GraphicsContext is the rendering device a Surface draws through.
//
// The contract mirrors a small immediate-mode API: a frame is a Clear,
// any number of DrawArrays calls, then Flush. Target holds the completed
// frame after Flush returns. Implementations live in package backend.
type GraphicsContext interface {
	// Name returns the backend name, e.g. "software" or "wgpu".
	Name() string

	// Init allocates the render target at the given size in pixels.
	Init(width, height int) error

	// UseProgram makes the linked program current for subsequent draws.
	UseProgram(p *shader.Linked) error

	// CreateBuffer uploads vertex data and returns a handle to it.
	CreateBuffer(label string, data []float32) (Buffer, error)

	// SetDepthTest enables or disables depth testing with the given compare function.
	SetDepthTest(enabled bool, cmp CompareFunc)

	// UniformMatrix4 writes m to the uniform at loc.
	UniformMatrix4(loc shader.Location, m Mat4) error

	// Clear resets the color target to c and the depth target to 1.0.
	Clear(c RGBA)

	// DrawArrays draws count vertices starting at first, assembled per mode.
	DrawArrays(mode Topology, bindings []VertexBinding, first, count int) error

	// Flush completes the frame.
	Flush() error

	// Target returns the color target. Valid after Flush.
	Target() *Pixmap

	// Close releases all resources held by the context.
	Close() error
}

// Buffer is vertex data owned by a GraphicsContext.
type Buffer interface {
	// Len returns the number of float32 values in the buffer.
	Len() int

	// Release frees the buffer. Releasing twice is a no-op.
	Release()
}

// VertexBinding feeds one attribute from a buffer.
type VertexBinding struct {
	Location   shader.Location
	Buffer     Buffer
	Size       int  // components per vertex
	Normalized bool // always false for float data
	Stride     int  // bytes between vertices, 0 means tightly packed
	Offset     int  // bytes from the start of the buffer
}

// ByteStride returns the effective stride in bytes.
func (b VertexBinding) ByteStride() int {
	if b.Stride == 0 {
		return b.Size * 4
	}
	return b.Stride
}

// Topology selects how vertices are assembled into triangles.
type Topology int

const (
	// TopologyTriangleList draws independent triangles from every 3 vertices.
	TopologyTriangleList Topology = iota

	// TopologyTriangleStrip draws n-2 triangles where each vertex after the
	// second forms a triangle with the previous two.
	TopologyTriangleStrip
)

// String returns the topology name.
func (t Topology) String() string {
	switch t {
	case TopologyTriangleList:
		return "triangle-list"
	case TopologyTriangleStrip:
		return "triangle-strip"
	default:
		return "unknown"
	}
}

// CompareFunc is a depth comparison between an incoming and a stored value.
type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// Test reports whether a fragment at depth incoming passes against stored.
func (c CompareFunc) Test(incoming, stored float32) bool {
	switch c {
	case CompareLess:
		return incoming < stored
	case CompareEqual:
		return incoming == stored
	case CompareLessEqual:
		return incoming <= stored
	case CompareGreater:
		return incoming > stored
	case CompareNotEqual:
		return incoming != stored
	case CompareGreaterEqual:
		return incoming >= stored
	case CompareAlways:
		return true
	default:
		return false
	}
}

// String returns the compare function name.
func (c CompareFunc) String() string {
	switch c {
	case CompareNever:
		return "never"
	case CompareLess:
		return "less"
	case CompareEqual:
		return "equal"
	case CompareLessEqual:
		return "less-equal"
	case CompareGreater:
		return "greater"
	case CompareNotEqual:
		return "not-equal"
	case CompareGreaterEqual:
		return "greater-equal"
	case CompareAlways:
		return "always"
	default:
		return "unknown"
	}
}
