package quad

import (
	"errors"
	"fmt"

	"github.com/gogpu/quad/shader"
)

// Surface is a drawable region bound to a graphics context, a linked shader
// program and the quads uploaded to it.
//
// A Surface is not safe for concurrent use. It is driven from a single
// goroutine, normally by a Driver.
type Surface struct {
	gc        GraphicsContext
	width     int
	height    int
	program   *shader.Linked
	locations map[string]shader.Location
	geometry  []GeometryEntry
	colored   bool
	setup     bool
	closed    bool
}

// NewSurface initializes gc at width x height pixels, compiles and links the
// shader program and resolves every attribute and uniform it requires.
//
// Compile failures are returned as *shader.CompileError and link failures as
// *shader.LinkError, both carrying the compiler diagnostic. A required name
// that does not resolve yields ErrMissingLocation. On failure gc is closed.
func NewSurface(gc GraphicsContext, width, height int, opts ...SurfaceOption) (*Surface, error) {
	if gc == nil {
		return nil, errors.New("quad: nil graphics context")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("quad: invalid surface size %dx%d", width, height)
	}

	o := defaultSurfaceOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s, err := newSurface(gc, width, height, o.program)
	if err != nil {
		if cerr := gc.Close(); cerr != nil {
			Logger().Warn("quad: close graphics context", "backend", gc.Name(), "err", cerr)
		}
		return nil, err
	}

	Logger().Info("quad: surface created",
		"backend", gc.Name(),
		"width", width,
		"height", height,
		"program", o.program.Name)
	return s, nil
}

func newSurface(gc GraphicsContext, width, height int, p *shader.Program) (*Surface, error) {
	if err := gc.Init(width, height); err != nil {
		return nil, fmt.Errorf("quad: init %s context: %w", gc.Name(), err)
	}

	linked, err := shader.Link(p)
	if err != nil {
		return nil, err
	}

	required := append(append([]string(nil), p.Attributes...), p.Uniforms...)
	for _, name := range required {
		if _, ok := linked.Location(name); !ok {
			return nil, fmt.Errorf("%w: %q in program %q", ErrMissingLocation, name, p.Name)
		}
	}

	locations := make(map[string]shader.Location)
	for _, loc := range linked.Locations() {
		locations[loc.Name] = loc
	}

	if err := gc.UseProgram(linked); err != nil {
		return nil, fmt.Errorf("quad: use program %q: %w", p.Name, err)
	}

	return &Surface{
		gc:        gc,
		width:     width,
		height:    height,
		program:   linked,
		locations: locations,
		colored:   p.HasAttribute(shader.AttribVertexColor),
	}, nil
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.width }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.height }

// AspectRatio returns width / height.
func (s *Surface) AspectRatio() float32 {
	return float32(s.width) / float32(s.height)
}

// Context returns the graphics context the surface draws through.
func (s *Surface) Context() GraphicsContext { return s.gc }

// Program returns the linked shader program.
func (s *Surface) Program() *shader.Linked { return s.program }

// Location returns the resolved location of an attribute or uniform.
func (s *Surface) Location(name string) (shader.Location, bool) {
	loc, ok := s.locations[name]
	return loc, ok
}

// Locations returns every resolved location of the program.
func (s *Surface) Locations() []shader.Location {
	return s.program.Locations()
}

// Clear resets the color target to c and depth to 1.0 for the next frame.
func (s *Surface) Clear(c RGBA) {
	if s.closed {
		return
	}
	s.gc.Clear(c)
}

// AddGeometry uploads one quad and appends it to the geometry store.
//
// positions must hold VerticesPerQuad x PositionComponents floats. colors
// must hold VerticesPerQuad x ColorComponents floats when the program has a
// color attribute and must be nil otherwise. Violations return
// ErrInvalidGeometry and leave the store unchanged.
func (s *Surface) AddGeometry(positions, colors []float32) error {
	if s.closed {
		return ErrClosed
	}
	if err := validateGeometry(positions, colors, s.colored); err != nil {
		return err
	}

	index := len(s.geometry)
	pos, err := s.gc.CreateBuffer(fmt.Sprintf("quad%d.positions", index), positions)
	if err != nil {
		return fmt.Errorf("quad: upload positions of entry %d: %w", index, err)
	}

	var col Buffer
	if colors != nil {
		col, err = s.gc.CreateBuffer(fmt.Sprintf("quad%d.colors", index), colors)
		if err != nil {
			pos.Release()
			return fmt.Errorf("quad: upload colors of entry %d: %w", index, err)
		}
	}

	s.geometry = append(s.geometry, GeometryEntry{
		Index:     index,
		Positions: pos,
		Colors:    col,
		Vertices:  VerticesPerQuad,
	})
	Logger().Debug("quad: geometry added", "index", index, "colors", col != nil)
	return nil
}

// Geometry returns the geometry entries in insertion order.
func (s *Surface) Geometry() []GeometryEntry {
	return append([]GeometryEntry(nil), s.geometry...)
}

// Setup enables depth testing with CompareLessEqual and uploads the camera
// projection. It must run once before the first frame; a second call
// returns ErrAlreadySetup.
func (s *Surface) Setup(cam Camera) error {
	if s.closed {
		return ErrClosed
	}
	if s.setup {
		return ErrAlreadySetup
	}
	if err := cam.Validate(); err != nil {
		return err
	}

	s.gc.SetDepthTest(true, CompareLessEqual)
	if err := s.gc.UniformMatrix4(s.locations[shader.UniformProjectionMatrix], cam.Projection()); err != nil {
		return fmt.Errorf("quad: upload projection: %w", err)
	}
	s.setup = true
	return nil
}

// IsSetup reports whether Setup has completed.
func (s *Surface) IsSetup() bool { return s.setup }

// renderFrame clears the target, uploads mv and draws every entry as a
// 4-vertex triangle strip, then flushes. Draw and flush failures are
// collected; the remaining entries are still drawn.
func (s *Surface) renderFrame(clear RGBA, mv Mat4) error {
	if s.closed {
		return ErrClosed
	}

	s.gc.Clear(clear)
	if err := s.gc.UniformMatrix4(s.locations[shader.UniformModelViewMatrix], mv); err != nil {
		return fmt.Errorf("quad: upload model-view: %w", err)
	}

	posLoc := s.locations[shader.AttribVertexPosition]
	colLoc := s.locations[shader.AttribVertexColor]

	var errs []error
	for _, g := range s.geometry {
		bindings := []VertexBinding{{
			Location: posLoc,
			Buffer:   g.Positions,
			Size:     PositionComponents,
		}}
		if g.Colors != nil {
			bindings = append(bindings, VertexBinding{
				Location: colLoc,
				Buffer:   g.Colors,
				Size:     ColorComponents,
			})
		}
		if err := s.gc.DrawArrays(TopologyTriangleStrip, bindings, 0, g.Vertices); err != nil {
			errs = append(errs, fmt.Errorf("quad: draw entry %d: %w", g.Index, err))
		}
	}

	if err := s.gc.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("quad: flush: %w", err))
	}
	return errors.Join(errs...)
}

// Close releases the geometry buffers and the graphics context.
// Close is idempotent.
func (s *Surface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, g := range s.geometry {
		g.Positions.Release()
		if g.Colors != nil {
			g.Colors.Release()
		}
	}
	s.geometry = nil
	return s.gc.Close()
}
