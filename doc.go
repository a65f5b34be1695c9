// Package ggbench renders batches of offscreen frames with gg and compares
// CPU and GPU backends under sequential and bounded-parallel scheduling.
//
// # Overview
//
// A batch is a list of draw functions. A renderer from package render asks a
// surface factory for one surface per frame, runs the draw function on the
// surface canvas, and hands the finished surfaces to the caller in frame
// order. The caller encodes each surface (PNG, JPEG, BMP or TIFF) and closes
// it.
//
//	factory := surface.NewCPUFactory()
//	defer factory.Close()
//
//	r := render.NewParallel(factory, runtime.NumCPU())
//	for res, err := range r.Render(ctx, 1920, 1080, frames) {
//	    if err != nil {
//	        return err
//	    }
//	    data, err := res.Surface.Encode(ggbench.FormatPNG, 100)
//	    res.Surface.Close()
//	    // ...
//	}
//
// # Backends
//
// The CPU backend draws into a plain gg context. The GPU backend allocates a
// linear, host-visible device image per frame through a driver (package
// driver), uploads the canvas through a graphics binding and reads the
// pixels back from mapped memory. Drivers:
//
//   - driver/wgpu: gogpu/wgpu HAL (Vulkan by default)
//   - driver/soft: in-memory emulation, used by tests and on GPU-less hosts
//
// # Packages
//
//   - driver: Vulkan-shaped driver interfaces and the driver registry
//   - device: one-time device discovery and the allocation lock
//   - target: per-frame GPU render target
//   - surface: Surface and Factory over both backends
//   - render: Sequential and Parallel renderers
package ggbench

// Version is the current version of ggbench.
const Version = "0.3.0"
