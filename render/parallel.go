// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/internal/parallel"
	"github.com/gogpu/ggbench/surface"
)

// Parallel renders up to Limit frames concurrently.
type Parallel struct {
	factory surface.Factory
	limit   int
}

// NewParallel returns a parallel renderer on f. A limit below 1 is
// treated as 1.
func NewParallel(f surface.Factory, limit int) *Parallel {
	return &Parallel{factory: f, limit: max(limit, 1)}
}

// Limit returns the concurrency limit.
func (r *Parallel) Limit() int { return r.limit }

// String returns "parallel(K)".
func (r *Parallel) String() string { return fmt.Sprintf("parallel(%d)", r.limit) }

type outcome struct {
	frame   int
	surface surface.Surface
	err     error
}

// Render renders frames on Limit workers and yields them in index order.
//
// Frames are started in index order. A finished frame is held until every
// lower index has been yielded; at most 2*Limit frames are started but not
// yet yielded. When a frame fails no further frames are started, running
// frames finish, every frame below the lowest failed index is yielded, and
// then the error. Surfaces that will not be yielded are closed.
func (r *Parallel) Render(ctx context.Context, width, height int, frames []FrameFunc) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		if len(frames) == 0 {
			return
		}
		k := min(r.limit, len(frames))

		dispatch, stop := context.WithCancel(ctx)
		defer stop()

		pool := parallel.NewWorkerPool(k)
		results := make(chan outcome, k)
		window := make(chan struct{}, 2*k)

		go func() {
			defer close(results)
			defer pool.Close()
			for i, fn := range frames {
				select {
				case window <- struct{}{}:
				case <-dispatch.Done():
					return
				}
				// A slot may win the race against cancellation.
				if dispatch.Err() != nil {
					return
				}
				err := pool.Submit(dispatch, func() {
					s, err := renderFrame(ctx, r.factory, i, fn, width, height)
					results <- outcome{frame: i, surface: s, err: err}
				})
				if err != nil {
					return
				}
			}
		}()

		var (
			pending  = make(map[int]surface.Surface)
			failures []*ggbench.FrameError
			firstBad = math.MaxInt
			next     int
			consumed bool
		)
		for o := range results {
			if o.err != nil {
				var fe *ggbench.FrameError
				if !errors.As(o.err, &fe) {
					fe = &ggbench.FrameError{Frame: o.frame, Err: o.err}
				}
				failures = append(failures, fe)
				firstBad = min(firstBad, o.frame)
				stop()
				<-window
			} else {
				pending[o.frame] = o.surface
			}

			for next < firstBad {
				s, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				<-window
				if consumed {
					closeSurface(next, s)
				} else if !yield(Result{Frame: next, Surface: s}, nil) {
					consumed = true
					stop()
				}
				next++
			}

			// Nothing at or above a failure will be delivered.
			for frame, s := range pending {
				if frame > firstBad {
					delete(pending, frame)
					<-window
					closeSurface(frame, s)
				}
			}
		}

		// Frames still waiting on an index that was never started.
		for frame, s := range pending {
			closeSurface(frame, s)
		}
		if consumed {
			return
		}

		switch {
		case len(failures) == 1:
			yield(Result{}, failures[0])
		case len(failures) > 1:
			slices.SortFunc(failures, func(a, b *ggbench.FrameError) int { return cmp.Compare(a.Frame, b.Frame) })
			errs := make([]error, len(failures))
			for i, fe := range failures {
				errs[i] = fe
			}
			yield(Result{}, errors.Join(errs...))
		case next < len(frames):
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("render: stopped after %d of %d frames", next, len(frames))
			}
			yield(Result{}, err)
		}
	}
}
