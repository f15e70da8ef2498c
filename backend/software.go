package backend

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/quad"
	"github.com/gogpu/quad/internal/parallel"
	"github.com/gogpu/quad/internal/raster"
	"github.com/gogpu/quad/shader"
)

// SoftwareContext is a CPU graphics context. Draws rasterize immediately
// into an RGBA8 color buffer with a float32 depth buffer.
//
// With supersampling the scene is rendered at n times the target size in
// each dimension and filtered down on Flush.
type SoftwareContext struct {
	supersample int
	workers     int
	pool        *parallel.Pool

	width  int
	height int
	target *quad.Pixmap
	work   *image.NRGBA // supersampled straight-alpha color buffer, nil without supersampling
	fb     *raster.Framebuffer

	program  *shader.Linked
	stages   *programStages
	uniforms map[uniformKey]quad.Mat4
	depth    raster.DepthFunc

	initialized bool
	closed      bool
}

// uniformKey addresses one uniform member by block and byte offset.
type uniformKey struct {
	group   uint32
	binding uint32
	offset  uint64
}

func keyOf(loc shader.Location) uniformKey {
	return uniformKey{group: loc.Group, binding: loc.Index, offset: loc.Offset}
}

// SoftwareOption configures a SoftwareContext.
type SoftwareOption func(*SoftwareContext)

// WithSupersample renders at n x n samples per pixel. Values below 2
// disable supersampling.
func WithSupersample(n int) SoftwareOption {
	return func(c *SoftwareContext) {
		if n < 1 {
			n = 1
		}
		c.supersample = n
	}
}

// WithWorkers rasterizes in row bands on n goroutines. Zero or a negative
// value uses GOMAXPROCS; 1 rasterizes on the calling goroutine.
func WithWorkers(n int) SoftwareOption {
	return func(c *SoftwareContext) {
		c.workers = n
	}
}

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() quad.GraphicsContext {
		return NewSoftware()
	})
}

// NewSoftware creates a software graphics context. Call Init before use.
func NewSoftware(opts ...SoftwareOption) *SoftwareContext {
	c := &SoftwareContext{
		supersample: 1,
		workers:     1,
		uniforms:    make(map[uniformKey]quad.Mat4),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the backend identifier.
func (c *SoftwareContext) Name() string {
	return BackendSoftware
}

// Init allocates the color and depth buffers. Calling Init again resizes them.
func (c *SoftwareContext) Init(width, height int) error {
	if c.closed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("backend: invalid size %dx%d", width, height)
	}

	c.width, c.height = width, height
	c.target = quad.NewPixmap(width, height)

	var err error
	if c.supersample > 1 {
		c.work = image.NewNRGBA(image.Rect(0, 0, width*c.supersample, height*c.supersample))
		c.fb, err = raster.NewFramebuffer(width*c.supersample, height*c.supersample, c.work.Pix)
	} else {
		c.work = nil
		c.fb, err = raster.NewFramebuffer(width, height, c.target.Data())
	}
	if err != nil {
		return err
	}

	if c.workers != 1 && c.pool == nil {
		c.pool = parallel.NewPool(c.workers)
	}
	c.initialized = true

	quad.Logger().Debug("backend: software context initialized",
		"width", width,
		"height", height,
		"supersample", c.supersample,
		"workers", c.workers)
	return nil
}

// UseProgram selects the CPU stages for the linked program.
func (c *SoftwareContext) UseProgram(p *shader.Linked) error {
	if p == nil {
		return errors.New("backend: nil program")
	}
	stages, ok := builtinStages[p.Program.Name]
	if !ok {
		return fmt.Errorf("%w: %q has no CPU stages", ErrUnsupportedProgram, p.Program.Name)
	}
	c.program = p
	c.stages = stages
	return nil
}

// CreateBuffer copies data into a new vertex buffer.
func (c *SoftwareContext) CreateBuffer(label string, data []float32) (quad.Buffer, error) {
	if c.closed {
		return nil, ErrClosed
	}
	return &softwareBuffer{
		owner: c,
		label: label,
		data:  append([]float32(nil), data...),
	}, nil
}

// SetDepthTest enables or disables depth testing.
func (c *SoftwareContext) SetDepthTest(enabled bool, cmp quad.CompareFunc) {
	if !enabled {
		c.depth = nil
		return
	}
	c.depth = cmp.Test
}

// UniformMatrix4 stores m for the uniform at loc.
func (c *SoftwareContext) UniformMatrix4(loc shader.Location, m quad.Mat4) error {
	if loc.Kind != shader.KindUniform {
		return fmt.Errorf("backend: %q is not a uniform", loc.Name)
	}
	if loc.Size() != quad.Mat4Size {
		return fmt.Errorf("backend: uniform %q is %s, not mat4x4<f32>", loc.Name, loc.Type)
	}
	c.uniforms[keyOf(loc)] = m
	return nil
}

// Clear resets the color buffer to col and depth to 1.0.
func (c *SoftwareContext) Clear(col quad.RGBA) {
	if !c.initialized {
		return
	}
	f := col.Float32s()
	c.fb.Clear([4]uint8{
		raster.ToByte(f[0]),
		raster.ToByte(f[1]),
		raster.ToByte(f[2]),
		raster.ToByte(f[3]),
	}, 1)
}

// DrawArrays runs the vertex stage over count vertices starting at first,
// assembles them per mode and rasterizes the result.
func (c *SoftwareContext) DrawArrays(mode quad.Topology, bindings []quad.VertexBinding, first, count int) error {
	switch {
	case c.closed:
		return ErrClosed
	case !c.initialized:
		return ErrNotInitialized
	case c.stages == nil:
		return ErrNoProgram
	case first < 0 || count < 0:
		return fmt.Errorf("backend: invalid vertex range first=%d count=%d", first, count)
	}

	inputs := make([]vertexInput, count)
	for i := range inputs {
		inputs[i].position = [4]float32{0, 0, 0, 1}
		inputs[i].color = [4]float32{0, 0, 0, 1}
	}
	for _, b := range bindings {
		if err := c.fetch(b, first, inputs); err != nil {
			return err
		}
	}

	u := c.uniformValues()
	verts := make([]raster.Vertex, count)
	for i := range inputs {
		verts[i] = c.stages.vertex(&u, &inputs[i])
	}

	var tris []raster.Triangle
	switch mode {
	case quad.TopologyTriangleStrip:
		tris = raster.Strip(verts)
	case quad.TopologyTriangleList:
		tris = raster.List(verts)
	default:
		return fmt.Errorf("backend: unsupported topology %v", mode)
	}

	st := raster.State{Depth: c.depth, Varyings: c.stages.varyings}
	if c.pool == nil {
		c.fb.DrawTriangles(tris, st, c.stages.fragment, c.fb.Full())
		return nil
	}
	bands := parallel.Bands(c.fb.Height(), c.pool.Workers())
	c.pool.Run(len(bands)-1, func(i int) {
		c.fb.DrawTriangles(tris, st, c.stages.fragment, raster.Span{Y0: bands[i], Y1: bands[i+1]})
	})
	return nil
}

// fetch copies one attribute stream into inputs.
func (c *SoftwareContext) fetch(b quad.VertexBinding, first int, inputs []vertexInput) error {
	buf, ok := b.Buffer.(*softwareBuffer)
	if !ok || buf.owner != c {
		return ErrForeignBuffer
	}
	if buf.released {
		return fmt.Errorf("%w: %s", ErrReleasedBuffer, buf.label)
	}
	if b.Location.Kind != shader.KindAttribute {
		return fmt.Errorf("backend: %q is not an attribute", b.Location.Name)
	}
	if b.Size < 1 || b.Size > 4 {
		return fmt.Errorf("backend: attribute %q has %d components", b.Location.Name, b.Size)
	}
	stride := b.ByteStride()
	if stride%4 != 0 || b.Offset%4 != 0 {
		return fmt.Errorf("backend: attribute %q is not 4-byte aligned", b.Location.Name)
	}

	for i := range inputs {
		base := (b.Offset + (first+i)*stride) / 4
		if base+b.Size > len(buf.data) {
			return fmt.Errorf("backend: vertex %d of %q reads past the end of %s", first+i, b.Location.Name, buf.label)
		}
		var dst *[4]float32
		switch b.Location.Name {
		case shader.AttribVertexPosition:
			dst = &inputs[i].position
		case shader.AttribVertexColor:
			dst = &inputs[i].color
		default:
			return fmt.Errorf("backend: attribute %q is not read by %s", b.Location.Name, c.program.Program.Name)
		}
		copy(dst[:b.Size], buf.data[base:base+b.Size])
	}
	return nil
}

func (c *SoftwareContext) uniformValues() uniformValues {
	var u uniformValues
	if loc, ok := c.program.Location(shader.UniformProjectionMatrix); ok {
		u.projection = c.uniforms[keyOf(loc)]
	}
	if loc, ok := c.program.Location(shader.UniformModelViewMatrix); ok {
		u.modelView = c.uniforms[keyOf(loc)]
	}
	u.mvp = u.projection.Mul(u.modelView)
	return u
}

// Flush completes the frame. With supersampling the render buffer is
// filtered down into the target.
func (c *SoftwareContext) Flush() error {
	if c.closed {
		return ErrClosed
	}
	if !c.initialized {
		return ErrNotInitialized
	}
	if c.work == nil {
		return nil
	}
	dst := &image.NRGBA{
		Pix:    c.target.Data(),
		Stride: c.width * 4,
		Rect:   image.Rect(0, 0, c.width, c.height),
	}
	draw.BiLinear.Scale(dst, dst.Rect, c.work, c.work.Rect, draw.Src, nil)
	return nil
}

// Target returns the color target.
func (c *SoftwareContext) Target() *quad.Pixmap {
	return c.target
}

// Close releases the worker pool. Close is idempotent.
func (c *SoftwareContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
	return nil
}

// softwareBuffer is vertex data held in host memory.
type softwareBuffer struct {
	owner    *SoftwareContext
	label    string
	data     []float32
	released bool
}

func (b *softwareBuffer) Len() int { return len(b.data) }

func (b *softwareBuffer) Release() {
	b.released = true
	b.data = nil
}

var _ quad.GraphicsContext = (*SoftwareContext)(nil)
