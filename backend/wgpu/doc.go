// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu is the GPU backend for quad surfaces. It renders through the
// gogpu/wgpu HAL and reads each finished frame back into the surface pixmap.
//
// Importing the package registers the backend as "wgpu":
//
//	import _ "github.com/gogpu/quad/backend/wgpu"
//
// By default the context opens its own Vulkan device on Init. A host that
// already owns a device can share it with [WithDevice] or
// [NewFromProvider].
//
// Programs are consumed as the SPIR-V produced by the shader package.
// Draws are recorded on DrawArrays and executed in one render pass on
// Flush, followed by a copy of the color attachment to a staging buffer.
//
// Build with -tags nogpu to exclude the backend.
package wgpu
