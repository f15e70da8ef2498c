// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/quad"
)

// halProvider exposes the HAL objects behind a gpucontext.DeviceProvider.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// opened is a device together with the objects that own it.
type opened struct {
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance
	adapter  string
}

func (o *opened) destroy() {
	if o.device != nil {
		o.device.Destroy()
	}
	if o.instance != nil {
		o.instance.Destroy()
	}
}

// openVulkan opens a device on the first discrete or integrated GPU,
// falling back to the first adapter.
func openVulkan() (*opened, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, errors.New("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	return openFirst(instance)
}

// openFirst opens a device on the preferred adapter of instance. The
// instance is destroyed on failure.
func openFirst(instance hal.Instance) (*opened, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	quad.Logger().Info("wgpu: device opened", "adapter", selected.Info.Name)
	return &opened{
		device:   openDev.Device,
		queue:    openDev.Queue,
		instance: instance,
		adapter:  selected.Info.Name,
	}, nil
}

// NewFromProvider creates a context on the device of a host application.
// The provider must also expose its HAL device and queue through
// HalDevice() any and HalQueue() any. The context does not destroy the
// shared device.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Context, error) {
	if provider == nil {
		return nil, errors.New("wgpu: nil device provider")
	}
	if f := provider.SurfaceFormat(); f != colorFormat {
		quad.Logger().Debug("wgpu: provider surface format differs from the offscreen target",
			"surface", f, "target", colorFormat)
	}
	c := New(opts...)
	if err := c.SetDeviceProvider(provider); err != nil {
		return nil, err
	}
	return c, nil
}

// SetDeviceProvider makes the context render on a shared HAL device. It
// must be called before Init.
func (c *Context) SetDeviceProvider(provider any) error {
	if c.initialized {
		return errors.New("wgpu: device provider set after Init")
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return errors.New("wgpu: device provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return errors.New("wgpu: HalDevice() is not a hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return errors.New("wgpu: HalQueue() is not a hal.Queue")
	}
	c.device, c.queue = device, queue
	return nil
}
