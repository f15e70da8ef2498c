// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quad"
	"github.com/gogpu/quad/backend"
	"github.com/gogpu/quad/shader"
)

// Context is a quad.GraphicsContext backed by a wgpu HAL device.
//
// Vertex buffers live on the device for their whole lifetime. Uniform
// values are captured per draw and uploaded when the frame is flushed.
type Context struct {
	device hal.Device
	queue  hal.Queue
	owned  *opened // non-nil when the context opened the device itself
	open   func() (*opened, error)

	width   int
	height  int
	target  *quad.Pixmap
	targets textureSet

	program   *shader.Linked
	programGP *programObjects
	pipelines map[pipelineKey]hal.RenderPipeline

	uniforms    map[uint32][]byte // host copy of each uniform block by binding
	depthTest   bool
	depthCmp    quad.CompareFunc
	clear       *gputypes.Color
	pending     []pendingDraw
	initialized bool
	closed      bool
}

// Option configures a Context.
type Option func(*Context)

// WithDevice renders on an existing device and queue. The context does
// not destroy them on Close.
func WithDevice(device hal.Device, queue hal.Queue) Option {
	return func(c *Context) {
		c.device = device
		c.queue = queue
	}
}

func init() {
	backend.Register(backend.BackendWGPU, func() quad.GraphicsContext {
		return New()
	})
}

// New creates a GPU context. Without WithDevice, Init opens a Vulkan device.
func New(opts ...Option) *Context {
	c := &Context{
		open:      openVulkan,
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
		uniforms:  make(map[uint32][]byte),
		depthCmp:  quad.CompareLess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the backend identifier.
func (c *Context) Name() string {
	return backend.BackendWGPU
}

// Init acquires a device if none was supplied and allocates the render
// targets. Calling Init again resizes them.
func (c *Context) Init(width, height int) error {
	if c.closed {
		return backend.ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu: invalid size %dx%d", width, height)
	}
	if c.device == nil {
		o, err := c.open()
		if err != nil {
			return fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, err)
		}
		c.owned = o
		c.device, c.queue = o.device, o.queue
	}
	if err := c.targets.ensure(c.device, uint32(width), uint32(height)); err != nil {
		return err
	}
	c.width, c.height = width, height
	c.target = quad.NewPixmap(width, height)
	c.initialized = true

	quad.Logger().Debug("wgpu: context initialized", "width", width, "height", height)
	return nil
}

// UseProgram creates the shader modules and layouts of p. Pipelines are
// created lazily per draw state.
func (c *Context) UseProgram(p *shader.Linked) error {
	switch {
	case c.closed:
		return backend.ErrClosed
	case !c.initialized:
		return backend.ErrNotInitialized
	case p == nil:
		return errors.New("wgpu: nil program")
	}
	for _, b := range p.UniformBlocks() {
		if b.Group != 0 {
			return fmt.Errorf("%w: uniform block %q is in group %d", backend.ErrUnsupportedProgram, b.Name, b.Group)
		}
	}

	objs, err := createProgramObjects(c.device, p)
	if err != nil {
		return err
	}
	c.destroyPipelines()
	if c.programGP != nil {
		c.programGP.destroy(c.device)
	}
	c.program = p
	c.programGP = objs
	c.pending = c.pending[:0]

	c.uniforms = make(map[uint32][]byte)
	for _, b := range p.UniformBlocks() {
		c.uniforms[b.Binding] = make([]byte, b.Size)
	}
	return nil
}

// CreateBuffer uploads data into a new vertex buffer on the device.
func (c *Context) CreateBuffer(label string, data []float32) (quad.Buffer, error) {
	switch {
	case c.closed:
		return nil, backend.ErrClosed
	case c.device == nil:
		return nil, backend.ErrNotInitialized
	}
	size := uint64(len(data)) * 4
	if size == 0 {
		size = 4
	}
	buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if len(data) > 0 {
		if err := c.queue.WriteBuffer(buf, 0, float32Bytes(data)); err != nil {
			c.device.DestroyBuffer(buf)
			return nil, fmt.Errorf("upload %s: %w", label, err)
		}
	}
	return &gpuBuffer{owner: c, label: label, buf: buf, n: len(data)}, nil
}

// SetDepthTest enables or disables depth testing for subsequent draws.
func (c *Context) SetDepthTest(enabled bool, cmp quad.CompareFunc) {
	c.depthTest = enabled
	c.depthCmp = cmp
}

// UniformMatrix4 stores m in the host copy of the uniform block at loc.
func (c *Context) UniformMatrix4(loc shader.Location, m quad.Mat4) error {
	if loc.Kind != shader.KindUniform {
		return fmt.Errorf("wgpu: %q is not a uniform", loc.Name)
	}
	if loc.Size() != quad.Mat4Size {
		return fmt.Errorf("wgpu: uniform %q is %s, not mat4x4<f32>", loc.Name, loc.Type)
	}
	block, ok := c.uniforms[loc.Index]
	if !ok || loc.Offset+quad.Mat4Size > uint64(len(block)) {
		return fmt.Errorf("wgpu: uniform %q is outside the program's uniform blocks", loc.Name)
	}
	copy(block[loc.Offset:], m.Bytes())
	return nil
}

// Clear discards the draws recorded so far. The next render pass starts
// from col with depth 1.0.
func (c *Context) Clear(col quad.RGBA) {
	c.clear = &gputypes.Color{R: col.R, G: col.G, B: col.B, A: col.A}
	c.pending = c.pending[:0]
}

// DrawArrays records a draw of count vertices starting at first.
func (c *Context) DrawArrays(mode quad.Topology, bindings []quad.VertexBinding, first, count int) error {
	switch {
	case c.closed:
		return backend.ErrClosed
	case !c.initialized:
		return backend.ErrNotInitialized
	case c.programGP == nil:
		return backend.ErrNoProgram
	case first < 0 || count < 0:
		return fmt.Errorf("wgpu: invalid vertex range first=%d count=%d", first, count)
	}

	draw := pendingDraw{first: uint32(first), count: uint32(count)}
	slots := make([]vertexSlot, 0, len(bindings))
	for _, b := range bindings {
		buf, err := c.checkBinding(b, first+count)
		if err != nil {
			return err
		}
		slots = append(slots, vertexSlot{
			location: b.Location.Index,
			size:     b.Size,
			stride:   uint64(b.ByteStride()),
		})
		draw.buffers = append(draw.buffers, buf.buf)
		draw.offsets = append(draw.offsets, uint64(b.Offset))
	}

	key := pipelineKey{topology: mode, depth: c.depthTest, cmp: c.depthCmp, layout: layoutKey(slots)}
	pipeline, err := c.pipeline(key, slots)
	if err != nil {
		return err
	}
	draw.pipeline = pipeline
	draw.uniforms = c.snapshotUniforms()
	c.pending = append(c.pending, draw)
	return nil
}

func (c *Context) checkBinding(b quad.VertexBinding, end int) (*gpuBuffer, error) {
	buf, ok := b.Buffer.(*gpuBuffer)
	if !ok || buf.owner != c {
		return nil, backend.ErrForeignBuffer
	}
	if buf.buf == nil {
		return nil, fmt.Errorf("%w: %s", backend.ErrReleasedBuffer, buf.label)
	}
	if b.Location.Kind != shader.KindAttribute {
		return nil, fmt.Errorf("wgpu: %q is not an attribute", b.Location.Name)
	}
	if _, err := vertexFormat(b.Size); err != nil {
		return nil, fmt.Errorf("wgpu: attribute %q: %w", b.Location.Name, err)
	}
	stride := b.ByteStride()
	if stride%4 != 0 || b.Offset%4 != 0 {
		return nil, fmt.Errorf("wgpu: attribute %q is not 4-byte aligned", b.Location.Name)
	}
	if end > 0 && (b.Offset+(end-1)*stride)/4+b.Size > buf.n {
		return nil, fmt.Errorf("wgpu: vertex %d of %q reads past the end of %s", end-1, b.Location.Name, buf.label)
	}
	return buf, nil
}

// snapshotUniforms copies the current uniform blocks ordered by binding.
func (c *Context) snapshotUniforms() []uniformData {
	blocks := c.program.UniformBlocks()
	out := make([]uniformData, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, uniformData{
			binding: b.Binding,
			data:    append([]byte(nil), c.uniforms[b.Binding]...),
		})
	}
	return out
}

// Flush executes the recorded draws and reads the color attachment back
// into the target.
func (c *Context) Flush() error {
	switch {
	case c.closed:
		return backend.ErrClosed
	case !c.initialized:
		return backend.ErrNotInitialized
	}
	err := c.encodeSubmitReadback()
	c.pending = c.pending[:0]
	c.clear = nil
	return err
}

// Target returns the color target.
func (c *Context) Target() *quad.Pixmap {
	return c.target
}

// Close destroys the GPU objects of the context, and the device if the
// context opened it. Close is idempotent.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.pending = nil
	if c.device == nil {
		return nil
	}
	c.destroyPipelines()
	if c.programGP != nil {
		c.programGP.destroy(c.device)
		c.programGP = nil
	}
	c.targets.destroy(c.device)
	if c.owned != nil {
		c.owned.destroy()
		c.owned = nil
	}
	c.device, c.queue = nil, nil
	return nil
}

// gpuBuffer is a vertex buffer on the device.
type gpuBuffer struct {
	owner *Context
	label string
	buf   hal.Buffer
	n     int
}

func (b *gpuBuffer) Len() int { return b.n }

func (b *gpuBuffer) Release() {
	if b.buf == nil {
		return
	}
	if b.owner.device != nil {
		b.owner.device.DestroyBuffer(b.buf)
	}
	b.buf = nil
}

// float32Bytes encodes v as little-endian bytes.
func float32Bytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

var _ quad.GraphicsContext = (*Context)(nil)
