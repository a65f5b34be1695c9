// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render drives a batch of frames through a surface factory.
//
// A batch is a slice of FrameFunc; the frame index is the position in the
// slice. A Renderer creates one surface per frame, runs the frame's function
// on it and yields the surface to the caller, who encodes and closes it.
//
// # Strategies
//
//   - Sequential renders frame i, yields it, then starts frame i+1.
//   - Parallel renders up to Limit frames at once and still yields them in
//     index order, holding early finishers in a reorder buffer.
//
// # Usage
//
//	r := render.NewParallel(surface.NewCPUFactory(), 8)
//	for res, err := range r.Render(ctx, 1920, 1080, frames) {
//	    if err != nil {
//	        return err // *ggbench.FrameError or ctx.Err()
//	    }
//	    data, err := res.Surface.Encode(ggbench.FormatPNG, 100)
//	    res.Surface.Close()
//	    ...
//	}
//
// Breaking out of the loop early is allowed; the renderer stops starting
// frames and closes the surfaces it can no longer deliver.
package render
