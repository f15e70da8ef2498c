package raster

import (
	"sync"
	"testing"
)

func clipVertex(x, y, z, w float32, varyings ...float32) Vertex {
	v := Vertex{Position: [4]float32{x * w, y * w, z * w, w}}
	copy(v.Varyings[:], varyings)
	return v
}

func solid(rgba [4]float32) FragmentFunc {
	return func(*[MaxVaryings]float32) [4]float32 { return rgba }
}

func newTestFramebuffer(t *testing.T, w, h int) *Framebuffer {
	t.Helper()
	fb, err := NewFramebuffer(w, h, nil)
	if err != nil {
		t.Fatalf("NewFramebuffer() error = %v", err)
	}
	return fb
}

func pixel(fb *Framebuffer, x, y int) [4]uint8 {
	i := (y*fb.Width() + x) * 4
	p := fb.Pix()
	return [4]uint8{p[i], p[i+1], p[i+2], p[i+3]}
}

func fullScreenQuad(z float32) []Vertex {
	return []Vertex{
		clipVertex(-1, 1, z, 1),
		clipVertex(1, 1, z, 1),
		clipVertex(-1, -1, z, 1),
		clipVertex(1, -1, z, 1),
	}
}

func TestNewFramebuffer(t *testing.T) {
	if _, err := NewFramebuffer(0, 4, nil); err == nil {
		t.Error("zero width should fail")
	}
	if _, err := NewFramebuffer(2, 2, make([]uint8, 15)); err == nil {
		t.Error("short color buffer should fail")
	}

	pix := make([]uint8, 2*2*4)
	fb, err := NewFramebuffer(2, 2, pix)
	if err != nil {
		t.Fatal(err)
	}
	fb.Clear([4]uint8{1, 2, 3, 4}, 0.5)
	if pix[4] != 1 || pix[7] != 4 {
		t.Error("framebuffer must write into the supplied color buffer")
	}
	if fb.DepthAt(1, 1) != 0.5 {
		t.Errorf("DepthAt() = %v, want 0.5", fb.DepthAt(1, 1))
	}
}

func TestStripAssembly(t *testing.T) {
	verts := make([]Vertex, 5)
	for i := range verts {
		verts[i].Varyings[0] = float32(i)
	}
	tris := Strip(verts)
	want := [][3]float32{{0, 1, 2}, {2, 1, 3}, {2, 3, 4}}
	if len(tris) != len(want) {
		t.Fatalf("Strip() produced %d triangles, want %d", len(tris), len(want))
	}
	for i, tri := range tris {
		got := [3]float32{tri[0].Varyings[0], tri[1].Varyings[0], tri[2].Varyings[0]}
		if got != want[i] {
			t.Errorf("triangle %d = %v, want %v", i, got, want[i])
		}
	}
	if Strip(verts[:2]) != nil {
		t.Error("Strip() of two vertices should be empty")
	}
	if got := len(List(verts)); got != 1 {
		t.Errorf("List() of 5 vertices = %d triangles, want 1", got)
	}
}

func TestStripCoversEveryPixelOnce(t *testing.T) {
	fb := newTestFramebuffer(t, 16, 16)
	n := fb.DrawTriangles(Strip(fullScreenQuad(0)), State{}, solid([4]float32{1, 0, 0, 1}), fb.Full())
	if n != 16*16 {
		t.Errorf("fragments written = %d, want %d", n, 16*16)
	}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if p := pixel(fb, x, y); p != [4]uint8{255, 0, 0, 255} {
				t.Fatalf("pixel (%d,%d) = %v", x, y, p)
			}
		}
	}
}

func TestViewportOrientation(t *testing.T) {
	fb := newTestFramebuffer(t, 8, 8)
	// Upper half of NDC space maps to the top rows.
	top := []Vertex{
		clipVertex(-1, 1, 0, 1),
		clipVertex(1, 1, 0, 1),
		clipVertex(-1, 0, 0, 1),
		clipVertex(1, 0, 0, 1),
	}
	fb.DrawTriangles(Strip(top), State{}, solid([4]float32{0, 0, 1, 1}), fb.Full())

	if p := pixel(fb, 3, 0); p[2] != 255 {
		t.Errorf("top row pixel = %v, want blue", p)
	}
	if p := pixel(fb, 3, 7); p[2] != 0 {
		t.Errorf("bottom row pixel = %v, want untouched", p)
	}
}

func TestRejectsVertexBehindEye(t *testing.T) {
	fb := newTestFramebuffer(t, 8, 8)
	tri := Triangle{
		clipVertex(-1, -1, 0, 1),
		clipVertex(1, -1, 0, 1),
		{Position: [4]float32{0, 1, 0, 0}},
	}
	if n := fb.DrawTriangles([]Triangle{tri}, State{}, solid([4]float32{1, 1, 1, 1}), fb.Full()); n != 0 {
		t.Errorf("fragments written = %d, want 0", n)
	}
}

func TestDepthTest(t *testing.T) {
	lessEqual := func(in, stored float32) bool { return in <= stored }
	red := solid([4]float32{1, 0, 0, 1})
	green := solid([4]float32{0, 1, 0, 1})

	tests := []struct {
		name  string
		depth DepthFunc
		want  [4]uint8
	}{
		{"less-equal keeps nearer", lessEqual, [4]uint8{255, 0, 0, 255}},
		{"disabled overwrites", nil, [4]uint8{0, 255, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newTestFramebuffer(t, 8, 8)
			st := State{Depth: tt.depth}
			fb.DrawTriangles(Strip(fullScreenQuad(0.2)), st, red, fb.Full())
			fb.DrawTriangles(Strip(fullScreenQuad(0.5)), st, green, fb.Full())

			if p := pixel(fb, 4, 4); p != tt.want {
				t.Errorf("pixel = %v, want %v", p, tt.want)
			}
		})
	}

	fb := newTestFramebuffer(t, 4, 4)
	fb.DrawTriangles(Strip(fullScreenQuad(0.2)), State{Depth: lessEqual}, red, fb.Full())
	if d := fb.DepthAt(1, 1); d < 0.5999 || d > 0.6001 {
		t.Errorf("stored depth = %v, want 0.6", d)
	}
}

func TestDepthOutsideRangeDiscarded(t *testing.T) {
	fb := newTestFramebuffer(t, 4, 4)
	if n := fb.DrawTriangles(Strip(fullScreenQuad(1.5)), State{}, solid([4]float32{1, 1, 1, 1}), fb.Full()); n != 0 {
		t.Errorf("fragments beyond the far plane = %d, want 0", n)
	}
}

func TestPerspectiveCorrectVaryings(t *testing.T) {
	fb := newTestFramebuffer(t, 20, 20)
	tri := Triangle{
		clipVertex(-1, -1, 0, 1, 0),
		clipVertex(1, -1, 0, 3, 1),
		clipVertex(-1, 1, 0, 1, 0),
	}
	frag := func(v *[MaxVaryings]float32) [4]float32 { return [4]float32{v[0], 0, 0, 1} }
	fb.DrawTriangles([]Triangle{tri}, State{Varyings: 1}, frag, fb.Full())

	// Pixel (10, 18) sits at NDC (0.05, -0.85): screen-space weight 0.525
	// on the w=3 vertex, which is 0.269 after perspective correction.
	got := pixel(fb, 10, 18)[0]
	if got < 67 || got > 71 {
		t.Errorf("interpolated value = %d, want ~69 (affine would give ~134)", got)
	}
}

func TestBandsMatchSerial(t *testing.T) {
	tris := Strip([]Vertex{
		clipVertex(-0.9, 0.8, 0.1, 2, 1, 0, 0, 1),
		clipVertex(0.7, 0.9, 0.3, 4, 0, 1, 0, 1),
		clipVertex(-0.6, -0.8, 0.2, 3, 0, 0, 1, 1),
		clipVertex(0.8, -0.7, 0.4, 5, 1, 1, 1, 1),
	})
	st := State{Depth: func(in, stored float32) bool { return in <= stored }, Varyings: 4}
	frag := func(v *[MaxVaryings]float32) [4]float32 { return *v }

	serial := newTestFramebuffer(t, 33, 31)
	want := serial.DrawTriangles(tris, st, frag, serial.Full())

	banded := newTestFramebuffer(t, 33, 31)
	bounds := []int{0, 7, 15, 22, 31}
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i+1 < len(bounds); i++ {
		wg.Add(1)
		go func(span Span) {
			defer wg.Done()
			n := banded.DrawTriangles(tris, st, frag, span)
			mu.Lock()
			total += n
			mu.Unlock()
		}(Span{Y0: bounds[i], Y1: bounds[i+1]})
	}
	wg.Wait()

	if total != want {
		t.Errorf("banded fragments = %d, serial = %d", total, want)
	}
	for i := range serial.Pix() {
		if serial.Pix()[i] != banded.Pix()[i] {
			t.Fatalf("banded output differs at byte %d", i)
		}
	}
}

func TestToByte(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-1, 0}, {0, 0}, {0.5, 128}, {0.8, 204}, {1, 255}, {7, 255},
	}
	for _, tt := range tests {
		if got := ToByte(tt.in); got != tt.want {
			t.Errorf("ToByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
