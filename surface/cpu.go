// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"os"

	"github.com/gogpu/gg"
	"github.com/gogpu/ggbench"
)

// CPUName is the name of CPU surfaces.
const CPUName = "regular"

// CPUFactory creates CPU surfaces. The zero value is ready to use.
type CPUFactory struct{}

// NewCPUFactory returns a factory of CPU surfaces. Its Close does nothing.
func NewCPUFactory() CPUFactory {
	return CPUFactory{}
}

// CreateSurface creates a width x height CPU surface.
func (CPUFactory) CreateSurface(width, height int) (Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface: invalid size %dx%d", width, height)
	}
	canvas := gg.NewContext(width, height)
	canvas.SetRasterizerMode(gg.RasterizerAnalytic)
	canvas.SetTextMode(gg.TextModeBitmap)
	return &cpuSurface{canvas: canvas, width: width, height: height}, nil
}

// Backend returns CPU.
func (CPUFactory) Backend() Backend { return CPU }

// Close does nothing.
func (CPUFactory) Close() error { return nil }

// cpuSurface is a gg canvas encoded straight from its pixmap. Its canvas
// never uses gg's GPU accelerator.
type cpuSurface struct {
	canvas        *gg.Context
	width, height int
	closed        bool
}

func (s *cpuSurface) Name() string        { return CPUName }
func (s *cpuSurface) Backend() Backend    { return CPU }
func (s *cpuSurface) Width() int          { return s.width }
func (s *cpuSurface) Height() int         { return s.height }
func (s *cpuSurface) Canvas() *gg.Context { return s.canvas }

func (s *cpuSurface) Flush() error {
	if s.closed {
		return ggbench.ErrClosed
	}
	return s.canvas.FlushGPU()
}

func (s *cpuSurface) Encode(format ggbench.ImageFormat, quality int) ([]byte, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	return ggbench.Encode(ggbench.Straight(s.canvas.Image()), format, quality)
}

func (s *cpuSurface) SaveTo(path string, format ggbench.ImageFormat, quality int) error {
	data, err := s.Encode(format, quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: image output is world readable
		return fmt.Errorf("surface: write %s: %w", path, err)
	}
	return nil
}

func (s *cpuSurface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.canvas.Close()
}
