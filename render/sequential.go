// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"iter"

	"github.com/gogpu/ggbench/surface"
)

// Sequential renders one frame at a time.
type Sequential struct {
	factory surface.Factory
}

// NewSequential returns a sequential renderer on f.
func NewSequential(f surface.Factory) *Sequential {
	return &Sequential{factory: f}
}

// String returns "sequential".
func (r *Sequential) String() string { return "sequential" }

// Render renders frame i, yields it, then moves on to frame i+1.
func (r *Sequential) Render(ctx context.Context, width, height int, frames []FrameFunc) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		for i, fn := range frames {
			if err := ctx.Err(); err != nil {
				yield(Result{}, err)
				return
			}
			s, err := renderFrame(ctx, r.factory, i, fn, width, height)
			if err != nil {
				yield(Result{}, err)
				return
			}
			if !yield(Result{Frame: i, Surface: s}, nil) {
				return
			}
		}
	}
}
