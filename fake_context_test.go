package quad

import (
	"errors"

	"github.com/gogpu/quad/shader"
)

// fakeContext records every call made by a Surface.
type fakeContext struct {
	width, height int
	program       *shader.Linked
	buffers       []*fakeBuffer
	depthEnabled  bool
	depthCompare  CompareFunc
	uniforms      map[string]Mat4
	clears        []RGBA
	draws         []fakeDraw
	flushes       int
	closed        int
	target        *Pixmap

	initErr   error
	bufferErr error
	drawErr   error
	flushErr  error
}

type fakeDraw struct {
	mode     Topology
	bindings []VertexBinding
	first    int
	count    int
}

type fakeBuffer struct {
	label    string
	data     []float32
	released bool
}

func (b *fakeBuffer) Len() int { return len(b.data) }
func (b *fakeBuffer) Release() { b.released = true }

func newFakeContext() *fakeContext {
	return &fakeContext{uniforms: make(map[string]Mat4)}
}

func (f *fakeContext) Name() string { return "fake" }

func (f *fakeContext) Init(width, height int) error {
	if f.initErr != nil {
		return f.initErr
	}
	f.width, f.height = width, height
	f.target = NewPixmap(width, height)
	return nil
}

func (f *fakeContext) UseProgram(p *shader.Linked) error {
	f.program = p
	return nil
}

func (f *fakeContext) CreateBuffer(label string, data []float32) (Buffer, error) {
	if f.bufferErr != nil {
		return nil, f.bufferErr
	}
	b := &fakeBuffer{label: label, data: append([]float32(nil), data...)}
	f.buffers = append(f.buffers, b)
	return b, nil
}

func (f *fakeContext) SetDepthTest(enabled bool, cmp CompareFunc) {
	f.depthEnabled, f.depthCompare = enabled, cmp
}

func (f *fakeContext) UniformMatrix4(loc shader.Location, m Mat4) error {
	if loc.Kind != shader.KindUniform {
		return errors.New("fake: not a uniform location")
	}
	f.uniforms[loc.Name] = m
	return nil
}

func (f *fakeContext) Clear(c RGBA) {
	f.clears = append(f.clears, c)
	f.target.Clear(c)
}

func (f *fakeContext) DrawArrays(mode Topology, bindings []VertexBinding, first, count int) error {
	if f.drawErr != nil {
		return f.drawErr
	}
	f.draws = append(f.draws, fakeDraw{
		mode:     mode,
		bindings: append([]VertexBinding(nil), bindings...),
		first:    first,
		count:    count,
	})
	return nil
}

func (f *fakeContext) Flush() error {
	f.flushes++
	return f.flushErr
}

func (f *fakeContext) Target() *Pixmap { return f.target }

func (f *fakeContext) Close() error {
	f.closed++
	return nil
}

// sourceQuads returns the two quads of the demo scene.
func sourceQuads() [][]float32 {
	return [][]float32{
		{
			1.0, 1.0, 0.0,
			-1.0, 1.0, 0.0,
			1.0, -1.0, 0.0,
			-1.0, -1.0, 0.0,
		},
		{
			2.0, 2.0, 0.0,
			-2.0, 2.0, 0.0,
			2.0, -2.0, 0.0,
			-2.0, -2.0, 0.0,
		},
	}
}
