// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"

	"github.com/gogpu/gg"
	"github.com/gogpu/ggbench"
)

// Backend identifies the rendering path of a surface.
type Backend uint8

const (
	// CPU surfaces rasterize and encode on the host only.
	CPU Backend = iota

	// GPU surfaces are backed by a device image.
	GPU
)

// String returns "cpu" or "gpu".
func (b Backend) String() string {
	switch b {
	case CPU:
		return "cpu"
	case GPU:
		return "gpu"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// Surface is a drawing target for one frame.
//
// Surfaces are NOT thread-safe. Each surface should be used from a single
// goroutine at a time; ownership may move between goroutines.
type Surface interface {
	// Name identifies the surface kind in output paths
	// (e.g., "regular" or "vulkan").
	Name() string

	// Backend returns the rendering path.
	Backend() Backend

	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Canvas returns the drawing context. The origin is the top-left corner.
	Canvas() *gg.Context

	// Flush makes all drawing visible to Encode.
	Flush() error

	// Encode flushes and encodes the surface contents.
	Encode(format ggbench.ImageFormat, quality int) ([]byte, error)

	// SaveTo encodes the surface and writes it to path. The directory
	// must exist.
	SaveTo(path string, format ggbench.ImageFormat, quality int) error

	// Close releases all resources associated with the surface.
	// Close is idempotent; multiple calls are safe.
	Close() error
}

// Factory creates surfaces. Implementations are safe for concurrent use.
type Factory interface {
	// CreateSurface creates a width x height surface.
	CreateSurface(width, height int) (Surface, error)

	// Backend returns the rendering path of created surfaces.
	Backend() Backend

	// Close releases the factory. Surfaces created earlier must be closed
	// first. Close is idempotent.
	Close() error
}
