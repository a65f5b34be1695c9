// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/device"
	"github.com/gogpu/ggbench/driver"
	"github.com/gogpu/ggbench/target"
)

// GPUFactory creates surfaces backed by render targets on one device.
type GPUFactory struct {
	dev  *device.Context
	name string

	mu     sync.RWMutex
	closed bool
}

// NewGPUFactory returns a factory on dev. Surfaces are named after the
// driver backend (e.g., "vulkan"). Close disposes dev.
func NewGPUFactory(dev *device.Context) *GPUFactory {
	return &GPUFactory{dev: dev, name: dev.Backend()}
}

// OpenGPUFactory creates a device on backend and returns a factory owning
// it. Errors wrap ggbench.ErrDeviceInit; callers typically fall back to
// NewCPUFactory.
func OpenGPUFactory(backend driver.Backend, opts ...device.Option) (*GPUFactory, error) {
	dev, err := device.Create(backend, opts...)
	if err != nil {
		return nil, err
	}
	return NewGPUFactory(dev), nil
}

// Device returns the device context.
func (f *GPUFactory) Device() *device.Context { return f.dev }

// Backend returns GPU.
func (f *GPUFactory) Backend() Backend { return GPU }

// CreateSurface allocates a render target for one frame.
func (f *GPUFactory) CreateSurface(width, height int) (Surface, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ggbench.ErrClosed
	}
	rt, err := target.New(f.dev, width, height)
	if err != nil {
		return nil, err
	}
	return &gpuSurface{name: f.name, rt: rt}, nil
}

// Close disposes the device context.
func (f *GPUFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.dev.Dispose()
	return nil
}

type gpuSurface struct {
	name string
	rt   *target.RenderTarget
}

func (s *gpuSurface) Name() string        { return s.name }
func (s *gpuSurface) Backend() Backend    { return GPU }
func (s *gpuSurface) Width() int          { return s.rt.Width() }
func (s *gpuSurface) Height() int         { return s.rt.Height() }
func (s *gpuSurface) Canvas() *gg.Context { return s.rt.Canvas() }
func (s *gpuSurface) Flush() error        { return s.rt.Flush() }
func (s *gpuSurface) Close() error        { return s.rt.Close() }

func (s *gpuSurface) Encode(format ggbench.ImageFormat, quality int) ([]byte, error) {
	return s.rt.Encode(format, quality)
}

func (s *gpuSurface) SaveTo(path string, format ggbench.ImageFormat, quality int) error {
	return s.rt.SaveTo(path, format, quality)
}
