package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/device"
	"github.com/gogpu/ggbench/driver"
	"github.com/gogpu/ggbench/internal/config"
	"github.com/gogpu/ggbench/internal/demo"
	"github.com/gogpu/ggbench/internal/output"
	"github.com/gogpu/ggbench/render"
	"github.com/gogpu/ggbench/surface"
)

// demoSeed fixes the demo colors so CPU and GPU output can be compared.
const demoSeed = 1

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render a batch of demo frames",
		Long: `Renders the demo batch on the selected backends and writes every frame
to <out>/<surface>/image<i>.<ext>. Elapsed time is printed per backend.`,
		Args: cobra.NoArgs,
		RunE: runBatch,
	}
	config.AddFlags(cmd.Flags())
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(cmd.Flags(), os.Getenv)
	if err != nil {
		return err
	}
	// The config file may set a level the root command did not see.
	if err := setLogger(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
		return err
	}

	scene, err := demo.NewScene(demoSeed)
	if err != nil {
		return err
	}
	defer scene.Close()

	factories, err := openFactories(cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, f := range factories {
			if err := f.Close(); err != nil {
				ggbench.Logger().Warn("close factory failed", "backend", f.Backend(), "err", err)
			}
		}
	}()

	frames := scene.Frames(cfg.Frames)
	out := output.NewWriter(cfg.Out, cfg.ImageFormat())
	stdout := cmd.OutOrStdout()

	var errs []error
	for _, f := range factories {
		r := newRenderer(cfg, f)
		start := time.Now()
		n, err := renderBatch(cmd.Context(), r, cfg, frames, out)
		elapsed := time.Since(start)

		fmt.Fprintf(stdout, "%s %v: %d/%d frames %dx%d in %v\n",
			f.Backend(), r, n, len(frames), cfg.Width, cfg.Height, elapsed.Round(time.Millisecond))
		ggbench.Logger().Info("batch finished",
			"backend", f.Backend(), "renderer", fmt.Sprint(r), "frames", n, "elapsed", elapsed)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", f.Backend(), err)
			errs = append(errs, fmt.Errorf("%s backend: %w", f.Backend(), err))
		}
	}
	return errors.Join(errs...)
}

func newRenderer(cfg config.Config, f surface.Factory) render.Renderer {
	if cfg.Strategy == config.StrategySequential {
		return render.NewSequential(f)
	}
	return render.NewParallel(f, cfg.Parallel)
}

// openFactories returns the factories for the configured backends. A GPU
// that cannot be initialized is skipped, or replaced by the CPU when it was
// the only backend requested.
func openFactories(cfg config.Config) ([]surface.Factory, error) {
	var factories []surface.Factory
	if cfg.UseCPU() {
		factories = append(factories, surface.NewCPUFactory())
	}
	if !cfg.UseGPU() {
		return factories, nil
	}

	gpu, err := openGPU(cfg)
	switch {
	case err == nil:
		ggbench.Logger().Info("gpu device selected", "driver", gpu.Device().Backend(), "device", gpu.Device().Info().Name)
		factories = append(factories, gpu)
	case errors.Is(err, ggbench.ErrDeviceInit) && cfg.UseCPU():
		ggbench.Logger().Warn("skipping gpu backend", "err", err)
	case errors.Is(err, ggbench.ErrDeviceInit):
		ggbench.Logger().Warn("gpu unavailable, falling back to cpu", "err", err)
		factories = append(factories, surface.NewCPUFactory())
	default:
		return nil, err
	}
	return factories, nil
}

// openGPU opens the configured driver, or without one the registered drivers
// in priority order until a device comes up.
func openGPU(cfg config.Config) (*surface.GPUFactory, error) {
	var opts []device.Option
	if cfg.Device != "" {
		opts = append(opts, device.WithDeviceName(cfg.Device))
	}
	if cfg.Driver != "" {
		b := driver.Get(cfg.Driver)
		if b == nil {
			return nil, fmt.Errorf("driver %q is not available (registered: %s)", cfg.Driver, strings.Join(driver.Available(), ", "))
		}
		return surface.OpenGPUFactory(b, opts...)
	}
	return openFirst(driver.Prioritized(), opts...)
}

// openFirst returns a factory on the first backend whose device initializes.
// Device init failures move on to the next backend; other errors stop.
func openFirst(backends []driver.Backend, opts ...device.Option) (*surface.GPUFactory, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: no driver available", ggbench.ErrDeviceInit)
	}
	var errs []error
	for _, b := range backends {
		f, err := surface.OpenGPUFactory(b, opts...)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, ggbench.ErrDeviceInit) {
			return nil, err
		}
		ggbench.Logger().Warn("gpu driver unavailable", "driver", b.Name(), "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}
	return nil, errors.Join(errs...)
}

// renderBatch renders frames with r and writes them through out. The render
// stage yields frames in order; encoding and writing run in a second stage
// with up to cfg.Parallel frames at once. It returns the number of frames
// written.
func renderBatch(ctx context.Context, r render.Renderer, cfg config.Config, frames []render.FrameFunc, out *output.Writer) (int, error) {
	format := cfg.ImageFormat()
	var written atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallel + 1)
	g.Go(func() error {
		for res, err := range r.Render(gctx, cfg.Width, cfg.Height, frames) {
			if err != nil {
				return err
			}
			g.Go(func() error {
				defer func() {
					if err := res.Surface.Close(); err != nil {
						ggbench.Logger().Warn("close surface failed", "frame", res.Frame, "err", err)
					}
				}()
				data, err := res.Surface.Encode(format, cfg.Quality)
				if err != nil {
					return &ggbench.FrameError{Frame: res.Frame, Err: err}
				}
				path, err := out.Write(res.Surface.Name(), res.Frame, data)
				if err != nil {
					return &ggbench.FrameError{Frame: res.Frame, Err: err}
				}
				ggbench.Logger().Debug("frame written", "frame", res.Frame, "path", path)
				written.Add(1)
				return nil
			})
		}
		return nil
	})
	err := g.Wait()
	return int(written.Load()), err
}
