package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// FlagConfig is the name of the flag selecting a TOML file.
const FlagConfig = "config"

// AddFlags registers the run flags on fs with the built-in defaults.
func AddFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagConfig, "", "TOML configuration file")
	fs.Int("frames", d.Frames, "number of frames to render")
	fs.Int("width", d.Width, "frame width in pixels")
	fs.Int("height", d.Height, "frame height in pixels")
	fs.Int("parallel", d.Parallel, "concurrency limit of the parallel strategy (env "+EnvParallel+")")
	fs.String("backend", d.Backend, "backends to run: cpu, gpu or both")
	fs.String("strategy", d.Strategy, "scheduling: sequential or parallel")
	fs.String("driver", d.Driver, "GPU driver name, empty for the best available (env "+EnvDriver+")")
	fs.String("device", d.Device, "pick the first GPU whose name contains this string")
	fs.String("out", d.Out, "output directory")
	fs.String("format", d.Format, "image format: png, jpeg, bmp or tiff")
	fs.Int("quality", d.Quality, "encoder quality 0-100")
}

// ApplyFlags overlays the flags in fs that were set on the command line.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "frames":
			c.Frames, err = fs.GetInt(f.Name)
		case "width":
			c.Width, err = fs.GetInt(f.Name)
		case "height":
			c.Height, err = fs.GetInt(f.Name)
		case "parallel":
			c.Parallel, err = fs.GetInt(f.Name)
		case "quality":
			c.Quality, err = fs.GetInt(f.Name)
		case "backend":
			c.Backend = f.Value.String()
		case "strategy":
			c.Strategy = f.Value.String()
		case "driver":
			c.Driver = f.Value.String()
		case "device":
			c.Device = f.Value.String()
		case "out":
			c.Out = f.Value.String()
		case "format":
			c.Format = f.Value.String()
		case "log-level":
			c.LogLevel = f.Value.String()
		}
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Resolve builds the effective configuration: defaults, the file named by
// the config flag, environment overrides and set flags, then validates it.
func Resolve(fs *pflag.FlagSet, getenv func(string) string) (Config, error) {
	c := Default()
	if f := fs.Lookup(FlagConfig); f != nil && f.Value.String() != "" {
		if err := c.LoadFile(f.Value.String()); err != nil {
			return Config{}, err
		}
	}
	if err := c.ApplyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := c.ApplyFlags(fs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
