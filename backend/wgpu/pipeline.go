// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quad"
	"github.com/gogpu/quad/shader"
)

// colorFormat is the format of the offscreen color attachment.
const colorFormat = gputypes.TextureFormatBGRA8Unorm

// depthFormat is the format of the depth attachment.
const depthFormat = gputypes.TextureFormatDepth24PlusStencil8

// programObjects holds the GPU objects shared by every pipeline of a program.
type programObjects struct {
	vertex   hal.ShaderModule
	fragment hal.ShaderModule

	vertexEntry   string
	fragmentEntry string

	uniformLayout  hal.BindGroupLayout // nil when the program has no uniforms
	pipelineLayout hal.PipelineLayout
}

// createProgramObjects creates the shader modules and layouts for p.
func createProgramObjects(device hal.Device, p *shader.Linked) (*programObjects, error) {
	objs := &programObjects{
		vertexEntry:   p.Vertex.EntryPoint,
		fragmentEntry: p.Fragment.EntryPoint,
	}
	name := p.Program.Name

	vs, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  name + "_vs",
		Source: hal.ShaderSource{SPIRV: p.Vertex.SPIRV},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s vertex shader: %w", name, err)
	}
	objs.vertex = vs

	fs, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  name + "_fs",
		Source: hal.ShaderSource{SPIRV: p.Fragment.SPIRV},
	})
	if err != nil {
		objs.destroy(device)
		return nil, fmt.Errorf("create %s fragment shader: %w", name, err)
	}
	objs.fragment = fs

	var layouts []hal.BindGroupLayout
	if blocks := p.UniformBlocks(); len(blocks) > 0 {
		entries := make([]gputypes.BindGroupLayoutEntry, 0, len(blocks))
		for _, b := range blocks {
			entries = append(entries, gputypes.BindGroupLayoutEntry{
				Binding:    b.Binding,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type: gputypes.BufferBindingTypeUniform,
				},
			})
		}
		bgl, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   name + "_uniform_layout",
			Entries: entries,
		})
		if err != nil {
			objs.destroy(device)
			return nil, fmt.Errorf("create %s bind group layout: %w", name, err)
		}
		objs.uniformLayout = bgl
		layouts = append(layouts, bgl)
	}

	pl, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            name + "_pipe_layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		objs.destroy(device)
		return nil, fmt.Errorf("create %s pipeline layout: %w", name, err)
	}
	objs.pipelineLayout = pl
	return objs, nil
}

func (o *programObjects) destroy(device hal.Device) {
	if o.pipelineLayout != nil {
		device.DestroyPipelineLayout(o.pipelineLayout)
		o.pipelineLayout = nil
	}
	if o.uniformLayout != nil {
		device.DestroyBindGroupLayout(o.uniformLayout)
		o.uniformLayout = nil
	}
	if o.fragment != nil {
		device.DestroyShaderModule(o.fragment)
		o.fragment = nil
	}
	if o.vertex != nil {
		device.DestroyShaderModule(o.vertex)
		o.vertex = nil
	}
}

// vertexSlot is one vertex buffer binding as the pipeline sees it.
type vertexSlot struct {
	location uint32
	size     int
	stride   uint64
}

// pipelineKey identifies the fixed-function state baked into a pipeline.
type pipelineKey struct {
	topology quad.Topology
	depth    bool
	cmp      quad.CompareFunc
	layout   string
}

func layoutKey(slots []vertexSlot) string {
	var sb strings.Builder
	for _, s := range slots {
		fmt.Fprintf(&sb, "%d:%d:%d;", s.location, s.size, s.stride)
	}
	return sb.String()
}

// pipeline returns the cached pipeline for key, creating it on first use.
func (c *Context) pipeline(key pipelineKey, slots []vertexSlot) (hal.RenderPipeline, error) {
	if p, ok := c.pipelines[key]; ok {
		return p, nil
	}

	topology, err := primitiveTopology(key.topology)
	if err != nil {
		return nil, err
	}
	buffers := make([]gputypes.VertexBufferLayout, 0, len(slots))
	for _, s := range slots {
		format, err := vertexFormat(s.size)
		if err != nil {
			return nil, err
		}
		buffers = append(buffers, gputypes.VertexBufferLayout{
			ArrayStride: s.stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: format, Offset: 0, ShaderLocation: s.location},
			},
		})
	}

	depthState := &hal.DepthStencilState{
		Format:            depthFormat,
		DepthWriteEnabled: key.depth,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront:      keepStencil,
		StencilBack:       keepStencil,
		StencilReadMask:   0xFF,
		StencilWriteMask:  0x00,
	}
	if key.depth {
		depthState.DepthCompare = compareFunction(key.cmp)
	}

	objs := c.programGP
	p, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("%s_%s_pipeline", c.program.Program.Name, key.topology),
		Layout: objs.pipelineLayout,
		Vertex: hal.VertexState{
			Module:     objs.vertex,
			EntryPoint: objs.vertexEntry,
			Buffers:    buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     objs.fragment,
			EntryPoint: objs.fragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    colorFormat,
				Blend:     nil,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		DepthStencil: depthState,
		Primitive: gputypes.PrimitiveState{
			Topology: topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	c.pipelines[key] = p
	quad.Logger().Debug("wgpu: pipeline created",
		"program", c.program.Program.Name,
		"topology", key.topology,
		"depth", key.depth,
		"compare", key.cmp)
	return p, nil
}

func (c *Context) destroyPipelines() {
	for k, p := range c.pipelines {
		c.device.DestroyRenderPipeline(p)
		delete(c.pipelines, k)
	}
}

var keepStencil = hal.StencilFaceState{
	Compare:     gputypes.CompareFunctionAlways,
	FailOp:      hal.StencilOperationKeep,
	DepthFailOp: hal.StencilOperationKeep,
	PassOp:      hal.StencilOperationKeep,
}

func primitiveTopology(t quad.Topology) (gputypes.PrimitiveTopology, error) {
	switch t {
	case quad.TopologyTriangleList:
		return gputypes.PrimitiveTopologyTriangleList, nil
	case quad.TopologyTriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, nil
	default:
		return 0, fmt.Errorf("wgpu: unsupported topology %v", t)
	}
}

func vertexFormat(components int) (gputypes.VertexFormat, error) {
	switch components {
	case 1:
		return gputypes.VertexFormatFloat32, nil
	case 2:
		return gputypes.VertexFormatFloat32x2, nil
	case 3:
		return gputypes.VertexFormatFloat32x3, nil
	case 4:
		return gputypes.VertexFormatFloat32x4, nil
	default:
		return 0, fmt.Errorf("%d components is not a float vertex format", components)
	}
}

func compareFunction(c quad.CompareFunc) gputypes.CompareFunction {
	switch c {
	case quad.CompareNever:
		return gputypes.CompareFunctionNever
	case quad.CompareLess:
		return gputypes.CompareFunctionLess
	case quad.CompareEqual:
		return gputypes.CompareFunctionEqual
	case quad.CompareLessEqual:
		return gputypes.CompareFunctionLessEqual
	case quad.CompareGreater:
		return gputypes.CompareFunctionGreater
	case quad.CompareNotEqual:
		return gputypes.CompareFunctionNotEqual
	case quad.CompareGreaterEqual:
		return gputypes.CompareFunctionGreaterEqual
	default:
		return gputypes.CompareFunctionAlways
	}
}
