package quad

import (
	"errors"
	"testing"

	"github.com/gogpu/quad/shader"
)

func newTestSurface(t *testing.T, opts ...SurfaceOption) (*Surface, *fakeContext) {
	t.Helper()
	gc := newFakeContext()
	s, err := NewSurface(gc, 640, 480, opts...)
	if err != nil {
		t.Fatalf("NewSurface() error = %v", err)
	}
	return s, gc
}

func TestNewSurfaceResolvesLocations(t *testing.T) {
	tests := []struct {
		name    string
		program *shader.Program
	}{
		{"quad", shader.Quad()},
		{"quad_color", shader.ColoredQuad()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, gc := newTestSurface(t, WithProgram(tt.program))
			for _, name := range append(append([]string(nil), tt.program.Attributes...), tt.program.Uniforms...) {
				if _, ok := s.Location(name); !ok {
					t.Errorf("Location(%q) not resolved", name)
				}
			}
			if gc.program != s.Program() {
				t.Error("linked program was not made current on the context")
			}
			if gc.width != 640 || gc.height != 480 {
				t.Errorf("context initialized at %dx%d, want 640x480", gc.width, gc.height)
			}
			if got := s.AspectRatio(); got != float32(640)/480 {
				t.Errorf("AspectRatio() = %v", got)
			}
		})
	}
}

func TestNewSurfaceCompileFailure(t *testing.T) {
	p := shader.Quad()
	p.Vertex.Code = "@vertex fn vs_main( -> { return 1 }"

	gc := newFakeContext()
	_, err := NewSurface(gc, 64, 64, WithProgram(p))

	var ce *shader.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("NewSurface() error = %v, want *shader.CompileError", err)
	}
	if ce.Log == "" {
		t.Error("compile error carries no diagnostic")
	}
	if gc.closed != 1 {
		t.Errorf("context closed %d times after failure, want 1", gc.closed)
	}
}

func TestNewSurfaceMissingLocation(t *testing.T) {
	p := shader.Quad()
	p.Uniforms = append(p.Uniforms, "light_direction")

	_, err := NewSurface(newFakeContext(), 64, 64, WithProgram(p))
	if !errors.Is(err, ErrMissingLocation) {
		t.Fatalf("NewSurface() error = %v, want ErrMissingLocation", err)
	}
}

func TestNewSurfaceInvalidArguments(t *testing.T) {
	if _, err := NewSurface(nil, 10, 10); err == nil {
		t.Error("NewSurface(nil) should fail")
	}
	if _, err := NewSurface(newFakeContext(), 0, 10); err == nil {
		t.Error("NewSurface with zero width should fail")
	}

	gc := newFakeContext()
	gc.initErr = errors.New("no adapter")
	if _, err := NewSurface(gc, 10, 10); !errors.Is(err, gc.initErr) {
		t.Errorf("NewSurface() error = %v, want wrapped init error", err)
	}
}

func TestAddGeometryKeepsOrder(t *testing.T) {
	s, gc := newTestSurface(t)

	quads := sourceQuads()
	for _, q := range quads {
		if err := s.AddGeometry(q, nil); err != nil {
			t.Fatalf("AddGeometry() error = %v", err)
		}
	}

	entries := s.Geometry()
	if len(entries) != len(quads) {
		t.Fatalf("len(Geometry()) = %d, want %d", len(entries), len(quads))
	}
	for i, e := range entries {
		if e.Index != i || e.Vertices != VerticesPerQuad || e.HasColors() {
			t.Errorf("entry %d = %+v", i, e)
		}
		buf := e.Positions.(*fakeBuffer)
		if buf.data[0] != quads[i][0] {
			t.Errorf("entry %d holds buffer %q with data %v", i, buf.label, buf.data)
		}
	}
	if len(gc.buffers) != 2 {
		t.Errorf("uploaded %d buffers, want 2", len(gc.buffers))
	}
}

func TestAddGeometryValidation(t *testing.T) {
	colors := make([]float32, VerticesPerQuad*ColorComponents)
	tests := []struct {
		name      string
		program   *shader.Program
		positions []float32
		colors    []float32
	}{
		{"three vertices", shader.Quad(), make([]float32, 9), nil},
		{"five vertices", shader.Quad(), make([]float32, 15), nil},
		{"colors on plain program", shader.Quad(), sourceQuads()[0], colors},
		{"missing colors", shader.ColoredQuad(), sourceQuads()[0], nil},
		{"short colors", shader.ColoredQuad(), sourceQuads()[0], colors[:12]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, gc := newTestSurface(t, WithProgram(tt.program))
			err := s.AddGeometry(tt.positions, tt.colors)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Fatalf("AddGeometry() error = %v, want ErrInvalidGeometry", err)
			}
			if len(s.Geometry()) != 0 || len(gc.buffers) != 0 {
				t.Error("rejected geometry must not be stored or uploaded")
			}
		})
	}
}

func TestAddGeometryUploadFailure(t *testing.T) {
	s, gc := newTestSurface(t)
	gc.bufferErr = errors.New("out of memory")
	if err := s.AddGeometry(sourceQuads()[0], nil); !errors.Is(err, gc.bufferErr) {
		t.Errorf("AddGeometry() error = %v, want wrapped upload error", err)
	}
	if len(s.Geometry()) != 0 {
		t.Error("failed upload must not add an entry")
	}
}

func TestSetup(t *testing.T) {
	s, gc := newTestSurface(t)
	cam := DefaultCamera(s.AspectRatio())

	if err := s.Setup(cam); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !gc.depthEnabled || gc.depthCompare != CompareLessEqual {
		t.Errorf("depth test = %v/%v, want enabled less-equal", gc.depthEnabled, gc.depthCompare)
	}
	if got := gc.uniforms[shader.UniformProjectionMatrix]; got != cam.Projection() {
		t.Errorf("projection uniform = %v, want %v", got, cam.Projection())
	}
	if err := s.Setup(cam); !errors.Is(err, ErrAlreadySetup) {
		t.Errorf("second Setup() error = %v, want ErrAlreadySetup", err)
	}
}

func TestSetupInvalidCamera(t *testing.T) {
	s, _ := newTestSurface(t)
	if err := s.Setup(Camera{}); !errors.Is(err, ErrInvalidCamera) {
		t.Errorf("Setup() error = %v, want ErrInvalidCamera", err)
	}
	if s.IsSetup() {
		t.Error("failed setup must leave the surface un-setup")
	}
}

func TestSurfaceClose(t *testing.T) {
	s, gc := newTestSurface(t)
	for _, q := range sourceQuads() {
		if err := s.AddGeometry(q, nil); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if gc.closed != 1 {
		t.Errorf("context closed %d times, want 1", gc.closed)
	}
	for _, b := range gc.buffers {
		if !b.released {
			t.Errorf("buffer %q not released", b.label)
		}
	}
	if err := s.AddGeometry(sourceQuads()[0], nil); !errors.Is(err, ErrClosed) {
		t.Errorf("AddGeometry() after Close error = %v, want ErrClosed", err)
	}
}
