// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"fmt"
	"iter"

	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/surface"
)

// FrameFunc draws one frame on s. A non-nil error fails the frame.
type FrameFunc func(ctx context.Context, s surface.Surface) error

// Result is one rendered frame. The receiver owns Surface and must close it.
type Result struct {
	Frame   int
	Surface surface.Surface
}

// Renderer renders a batch of frames.
//
// Render yields each successful frame exactly once, in increasing Frame
// order. After a failure it yields (Result{}, err) once and stops; err is a
// *ggbench.FrameError, several of them joined, or the context error.
// Renderers hold no state between calls.
type Renderer interface {
	Render(ctx context.Context, width, height int, frames []FrameFunc) iter.Seq2[Result, error]
}

// renderFrame creates a surface and draws frame i on it. A panic in the
// factory or in fn fails the frame. On failure the surface, if any, is
// closed and the error is a *ggbench.FrameError.
func renderFrame(ctx context.Context, f surface.Factory, i int, fn FrameFunc, width, height int) (s surface.Surface, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err == nil {
			return
		}
		if s != nil {
			if cerr := s.Close(); cerr != nil {
				ggbench.Logger().Warn("render: close failed frame", "frame", i, "err", cerr)
			}
		}
		s, err = nil, &ggbench.FrameError{Frame: i, Err: err}
	}()
	if s, err = f.CreateSurface(width, height); err != nil {
		return nil, err
	}
	if fn == nil {
		return s, nil
	}
	err = fn(ctx, s)
	return s, err
}

// closeSurface closes a surface the caller will never receive.
func closeSurface(frame int, s surface.Surface) {
	if err := s.Close(); err != nil {
		ggbench.Logger().Warn("render: close undelivered frame", "frame", frame, "err", err)
	}
}
