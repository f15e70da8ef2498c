// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the required BytesPerRow alignment of
// texture-to-buffer copies.
const copyPitchAlignment = 256

// fenceTimeout bounds the wait for a submitted frame.
const fenceTimeout = 5 * time.Second

// pendingDraw is a draw recorded by DrawArrays and replayed on Flush.
type pendingDraw struct {
	pipeline hal.RenderPipeline
	buffers  []hal.Buffer
	offsets  []uint64
	first    uint32
	count    uint32
	uniforms []uniformData
}

// uniformData is the content of one uniform block at draw time.
type uniformData struct {
	binding uint32
	data    []byte
}

// textureSet holds the color and depth attachments.
type textureSet struct {
	width  uint32
	height uint32

	colorTex  hal.Texture
	colorView hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView
}

// ensure creates or recreates the attachments when the size changes.
func (ts *textureSet) ensure(device hal.Device, w, h uint32) error {
	if ts.width == w && ts.height == h && ts.colorTex != nil {
		return nil
	}
	ts.destroy(device)

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	colorTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "quad_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        colorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create color texture: %w", err)
	}
	ts.colorTex = colorTex

	colorView, err := device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label: "quad_color_view",
	})
	if err != nil {
		ts.destroy(device)
		return fmt.Errorf("create color view: %w", err)
	}
	ts.colorView = colorView

	depthTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "quad_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		ts.destroy(device)
		return fmt.Errorf("create depth texture: %w", err)
	}
	ts.depthTex = depthTex

	depthView, err := device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label: "quad_depth_view",
	})
	if err != nil {
		ts.destroy(device)
		return fmt.Errorf("create depth view: %w", err)
	}
	ts.depthView = depthView

	ts.width = w
	ts.height = h
	return nil
}

func (ts *textureSet) destroy(device hal.Device) {
	if ts.depthView != nil {
		device.DestroyTextureView(ts.depthView)
		ts.depthView = nil
	}
	if ts.depthTex != nil {
		device.DestroyTexture(ts.depthTex)
		ts.depthTex = nil
	}
	if ts.colorView != nil {
		device.DestroyTextureView(ts.colorView)
		ts.colorView = nil
	}
	if ts.colorTex != nil {
		device.DestroyTexture(ts.colorTex)
		ts.colorTex = nil
	}
	ts.width = 0
	ts.height = 0
}

// frameResources are the per-frame uniform buffers and bind groups.
type frameResources struct {
	buffers    []hal.Buffer
	bindGroups []hal.BindGroup
}

func (r *frameResources) destroy(device hal.Device) {
	for _, bg := range r.bindGroups {
		if bg != nil {
			device.DestroyBindGroup(bg)
		}
	}
	for _, b := range r.buffers {
		if b != nil {
			device.DestroyBuffer(b)
		}
	}
}

// buildUniforms uploads the uniform snapshot of every pending draw and
// returns one bind group per draw. Draws with identical snapshots share a
// bind group.
func (c *Context) buildUniforms(res *frameResources) ([]hal.BindGroup, error) {
	groups := make([]hal.BindGroup, len(c.pending))
	if c.programGP.uniformLayout == nil {
		return groups, nil
	}
	for i, d := range c.pending {
		if i > 0 && sameUniforms(d.uniforms, c.pending[i-1].uniforms) {
			groups[i] = groups[i-1]
			continue
		}
		entries := make([]gputypes.BindGroupEntry, 0, len(d.uniforms))
		for _, u := range d.uniforms {
			buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
				Label: fmt.Sprintf("quad_uniform%d", i),
				Size:  uint64(len(u.data)),
				Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
			})
			if err != nil {
				return nil, fmt.Errorf("create uniform buffer: %w", err)
			}
			res.buffers = append(res.buffers, buf)
			if err := c.queue.WriteBuffer(buf, 0, u.data); err != nil {
				return nil, fmt.Errorf("upload uniforms: %w", err)
			}
			entries = append(entries, gputypes.BindGroupEntry{
				Binding: u.binding,
				Resource: gputypes.BufferBinding{
					Buffer: buf.NativeHandle(), Offset: 0, Size: uint64(len(u.data)),
				},
			})
		}
		bg, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   fmt.Sprintf("quad_uniform_bind%d", i),
			Layout:  c.programGP.uniformLayout,
			Entries: entries,
		})
		if err != nil {
			return nil, fmt.Errorf("create bind group: %w", err)
		}
		res.bindGroups = append(res.bindGroups, bg)
		groups[i] = bg
	}
	return groups, nil
}

func sameUniforms(a, b []uniformData) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].binding != b[i].binding || string(a[i].data) != string(b[i].data) {
			return false
		}
	}
	return true
}

// encodeSubmitReadback records the pending draws in one render pass,
// copies the color attachment to a staging buffer, submits, waits and
// reads the pixels back into the target.
func (c *Context) encodeSubmitReadback() error {
	var res frameResources
	defer res.destroy(c.device)

	var bindGroups []hal.BindGroup
	if c.programGP != nil {
		var err error
		if bindGroups, err = c.buildUniforms(&res); err != nil {
			return err
		}
	}

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "quad_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("quad_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	color := hal.RenderPassColorAttachment{
		View:    c.targets.colorView,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	depth := &hal.RenderPassDepthStencilAttachment{
		View:              c.targets.depthView,
		DepthLoadOp:       gputypes.LoadOpLoad,
		DepthStoreOp:      gputypes.StoreOpStore,
		DepthClearValue:   1.0,
		StencilLoadOp:     gputypes.LoadOpClear,
		StencilStoreOp:    gputypes.StoreOpDiscard,
		StencilClearValue: 0,
	}
	if c.clear != nil {
		color.LoadOp = gputypes.LoadOpClear
		color.ClearValue = *c.clear
		depth.DepthLoadOp = gputypes.LoadOpClear
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:                  "quad_pass",
		ColorAttachments:       []hal.RenderPassColorAttachment{color},
		DepthStencilAttachment: depth,
	})
	for i, d := range c.pending {
		rp.SetPipeline(d.pipeline)
		if bindGroups[i] != nil {
			rp.SetBindGroup(0, bindGroups[i], nil)
		}
		for slot, buf := range d.buffers {
			rp.SetVertexBuffer(uint32(slot), buf, d.offsets[slot])
		}
		rp.Draw(d.count, 1, d.first, 0)
	}
	rp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: c.targets.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	w, h := c.targets.width, c.targets.height
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "quad_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer c.device.DestroyBuffer(staging)

	encoder.CopyTextureToBuffer(c.targets.colorTex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: c.targets.colorTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: c.targets.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	fence, err := c.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer c.device.DestroyFence(fence)

	if err := c.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := c.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, stagingSize)
	if err := c.queue.ReadBuffer(staging, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	unpackBGRA(c.target.Data(), readback, int(w), int(h), int(alignedBytesPerRow))
	return nil
}

// unpackBGRA strips row padding from src and swizzles BGRA to RGBA into dst.
func unpackBGRA(dst, src []byte, w, h, pitch int) {
	for y := 0; y < h; y++ {
		row := src[y*pitch : y*pitch+w*4]
		out := dst[y*w*4 : (y+1)*w*4]
		for x := 0; x < w*4; x += 4 {
			out[x+0] = row[x+2]
			out[x+1] = row[x+1]
			out[x+2] = row[x+0]
			out[x+3] = row[x+3]
		}
	}
}
