package backend

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/quad"
	"github.com/gogpu/quad/shader"
)

// sceneQuads are the two tilted quads of the demo scene.
var sceneQuads = [][]float32{
	{
		-1, 1, 0,
		1, 1, 0,
		-1, -1, -1,
		1, -1, -1,
	},
	{
		-1, 1, 0,
		1, 1, 0,
		-1, -1, 1,
		1, -1, 1,
	},
}

var sceneColors = []float32{
	1, 0, 0, 1,
	0, 1, 0, 1,
	0, 0, 1, 1,
	1, 1, 1, 1,
}

// renderScene draws the demo scene once at time 0 and returns the target.
func renderScene(t *testing.T, gc quad.GraphicsContext, program *shader.Program) *quad.Pixmap {
	t.Helper()
	s, err := quad.NewSurface(gc, 640, 480, quad.WithProgram(program))
	if err != nil {
		t.Fatalf("NewSurface() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	var colors []float32
	if program.HasAttribute(shader.AttribVertexColor) {
		colors = sceneColors
	}
	for _, q := range sceneQuads {
		if err := s.AddGeometry(q, colors); err != nil {
			t.Fatalf("AddGeometry() error = %v", err)
		}
	}

	d, err := quad.NewDriver(s, quad.NewStepClock(0, 1))
	if err != nil {
		t.Fatal(err)
	}
	frame, err := d.Step(0)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	return frame.Target
}

func rgbaAt(pm *quad.Pixmap, x, y int) [4]uint8 {
	i := (y*pm.Width() + x) * 4
	d := pm.Data()
	return [4]uint8{d[i], d[i+1], d[i+2], d[i+3]}
}

func near(a, b [4]uint8, tol int) bool {
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < -tol || d > tol {
			return false
		}
	}
	return true
}

var (
	background = [4]uint8{128, 255, 0, 230}
	cream      = [4]uint8{255, 255, 204, 255}
)

func TestSoftwarePositionOnlyScene(t *testing.T) {
	pm := renderScene(t, NewSoftware(), shader.Quad())

	tests := []struct {
		name string
		x, y int
		want [4]uint8
	}{
		{"corner", 0, 0, background},
		{"center", 320, 240, cream},
		{"below top edge", 320, 150, cream},
		{"above top edge", 320, 100, background},
		{"below both quads", 320, 400, background},
		{"inside right", 400, 240, cream},
		{"outside right", 450, 240, background},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rgbaAt(pm, tt.x, tt.y); got != tt.want {
				t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestSoftwareColoredScene(t *testing.T) {
	pm := renderScene(t, NewSoftware(), shader.ColoredQuad())

	if got := rgbaAt(pm, 0, 0); got != background {
		t.Errorf("corner = %v, want background %v", got, background)
	}

	// The view ray through the center meets both quads on the diagonal
	// between the green and blue vertices, halfway along it.
	if got := rgbaAt(pm, 320, 240); !near(got, [4]uint8{0, 128, 128, 255}, 4) {
		t.Errorf("center = %v, want ~[0 128 128 255]", got)
	}

	distinct := make(map[[4]uint8]bool)
	for x := 220; x <= 420; x += 10 {
		distinct[rgbaAt(pm, x, 240)] = true
	}
	if len(distinct) < 5 {
		t.Errorf("only %d distinct colors across the quad, want interpolated colors", len(distinct))
	}
}

func TestSoftwareRotationChangesFrame(t *testing.T) {
	s, err := quad.NewSurface(NewSoftware(), 64, 48)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	for _, q := range sceneQuads {
		if err := s.AddGeometry(q, nil); err != nil {
			t.Fatal(err)
		}
	}
	d, err := quad.NewDriver(s, quad.NewStepClock(0, 0))
	if err != nil {
		t.Fatal(err)
	}

	f0, err := d.Step(0)
	if err != nil {
		t.Fatal(err)
	}
	first := append([]uint8(nil), f0.Target.Data()...)
	f1, err := d.Step(700_000_000) // 700ms
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(first, f1.Target.Data()) {
		t.Error("frames at 0ms and 700ms are identical")
	}
}

func TestSoftwareSupersample(t *testing.T) {
	pm := renderScene(t, NewSoftware(WithSupersample(2)), shader.Quad())
	if pm.Width() != 640 || pm.Height() != 480 {
		t.Fatalf("target size = %dx%d, want 640x480", pm.Width(), pm.Height())
	}
	if got := rgbaAt(pm, 0, 0); !near(got, background, 1) {
		t.Errorf("corner = %v, want %v", got, background)
	}
	if got := rgbaAt(pm, 320, 200); !near(got, cream, 1) {
		t.Errorf("center = %v, want %v", got, cream)
	}
}

func TestSoftwareSupersampleKeepsStraightAlpha(t *testing.T) {
	colors := []quad.RGBA{
		quad.Chartreuse,
		{R: 0.2, G: 0.4, B: 0.6, A: 0.5},
		{R: 1, G: 1, B: 1, A: 0.1},
	}
	for _, col := range colors {
		plain := NewSoftware()
		super := NewSoftware(WithSupersample(3))
		for _, c := range []*SoftwareContext{plain, super} {
			if err := c.Init(8, 8); err != nil {
				t.Fatal(err)
			}
			c.Clear(col)
			if err := c.Flush(); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}
		}
		want := rgbaAt(plain.Target(), 4, 4)
		for _, p := range [][2]int{{0, 0}, {4, 4}, {7, 7}} {
			if got := rgbaAt(super.Target(), p[0], p[1]); !near(got, want, 1) {
				t.Errorf("clear %+v at %v = %v, want %v", col, p, got, want)
			}
		}
		_ = plain.Close()
		_ = super.Close()
	}
}

func TestSoftwareWorkersMatchSerial(t *testing.T) {
	serial := renderScene(t, NewSoftware(), shader.ColoredQuad())
	banded := renderScene(t, NewSoftware(WithWorkers(4)), shader.ColoredQuad())
	if !bytes.Equal(serial.Data(), banded.Data()) {
		t.Error("banded rasterization differs from serial output")
	}
}

func TestSoftwareErrors(t *testing.T) {
	linked, err := shader.Link(shader.Quad())
	if err != nil {
		t.Fatal(err)
	}
	pos, _ := linked.Location(shader.AttribVertexPosition)

	c := NewSoftware()
	if err := c.DrawArrays(quad.TopologyTriangleStrip, nil, 0, 4); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("draw before Init = %v, want ErrNotInitialized", err)
	}
	if err := c.Flush(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("flush before Init = %v, want ErrNotInitialized", err)
	}
	if err := c.Init(8, 8); err != nil {
		t.Fatal(err)
	}
	if err := c.DrawArrays(quad.TopologyTriangleStrip, nil, 0, 4); !errors.Is(err, ErrNoProgram) {
		t.Errorf("draw without program = %v, want ErrNoProgram", err)
	}
	if err := c.UseProgram(linked); err != nil {
		t.Fatal(err)
	}

	buf, _ := c.CreateBuffer("short", []float32{0, 0, 0})
	binding := quad.VertexBinding{Location: pos, Buffer: buf, Size: 3}
	if err := c.DrawArrays(quad.TopologyTriangleStrip, []quad.VertexBinding{binding}, 0, 4); err == nil {
		t.Error("draw past the end of the buffer should fail")
	}

	other, _ := NewSoftware().CreateBuffer("other", make([]float32, 12))
	binding.Buffer = other
	if err := c.DrawArrays(quad.TopologyTriangleStrip, []quad.VertexBinding{binding}, 0, 4); !errors.Is(err, ErrForeignBuffer) {
		t.Errorf("foreign buffer = %v, want ErrForeignBuffer", err)
	}

	buf.Release()
	binding.Buffer = buf
	if err := c.DrawArrays(quad.TopologyTriangleStrip, []quad.VertexBinding{binding}, 0, 1); !errors.Is(err, ErrReleasedBuffer) {
		t.Errorf("released buffer = %v, want ErrReleasedBuffer", err)
	}

	proj, _ := linked.Location(shader.UniformProjectionMatrix)
	if err := c.UniformMatrix4(pos, quad.Identity4()); err == nil {
		t.Error("UniformMatrix4 on an attribute should fail")
	}
	if err := c.UniformMatrix4(proj, quad.Identity4()); err != nil {
		t.Errorf("UniformMatrix4() error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, err := c.CreateBuffer("late", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateBuffer after Close = %v, want ErrClosed", err)
	}
}

func TestSoftwareUnsupportedProgram(t *testing.T) {
	p := shader.Quad()
	p.Name = "custom"
	linked, err := shader.Link(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewSoftware().UseProgram(linked); !errors.Is(err, ErrUnsupportedProgram) {
		t.Errorf("UseProgram() = %v, want ErrUnsupportedProgram", err)
	}
}
