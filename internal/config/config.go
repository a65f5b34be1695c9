// Package config resolves ggbench run settings.
//
// Settings are layered: built-in defaults, then an optional TOML file, then
// environment variables, then command-line flags the user actually set.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/ggbench"
)

// Environment variables read by Resolve.
const (
	EnvParallel = "GGBENCH_PARALLEL"
	EnvDriver   = "GGBENCH_DRIVER"
)

// Backend selections.
const (
	BackendCPU  = "cpu"
	BackendGPU  = "gpu"
	BackendBoth = "both"
)

// Strategy selections.
const (
	StrategySequential = "sequential"
	StrategyParallel   = "parallel"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid value")

// Config holds the settings of one run.
type Config struct {
	Frames   int    `toml:"frames"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	Parallel int    `toml:"parallel"`
	Backend  string `toml:"backend"`
	Strategy string `toml:"strategy"`
	Driver   string `toml:"driver"`
	Device   string `toml:"device"`
	Out      string `toml:"out"`
	Format   string `toml:"format"`
	Quality  int    `toml:"quality"`
	LogLevel string `toml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Frames:   30,
		Width:    1920,
		Height:   1080,
		Parallel: runtime.NumCPU(),
		Backend:  BackendBoth,
		Strategy: StrategyParallel,
		Out:      "output",
		Format:   "png",
		Quality:  100,
		LogLevel: "info",
	}
}

// Decode overlays the TOML document data on c. Keys absent from the document
// keep their current value; unknown keys are an error.
func (c *Config) Decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return fmt.Errorf("config: %s", sme.String())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LoadFile overlays the TOML file at path on c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Decode(data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// ApplyEnv overlays environment overrides read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvParallel)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, EnvParallel, v)
		}
		c.Parallel = n
	}
	if v := strings.TrimSpace(getenv(EnvDriver)); v != "" {
		c.Driver = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Frames < 0:
		return fmt.Errorf("%w: frames %d", ErrInvalid, c.Frames)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height)
	case c.Parallel < 1:
		return fmt.Errorf("%w: parallel %d", ErrInvalid, c.Parallel)
	case c.Quality < 0 || c.Quality > 100:
		return fmt.Errorf("%w: quality %d", ErrInvalid, c.Quality)
	case c.Out == "":
		return fmt.Errorf("%w: empty output directory", ErrInvalid)
	}
	switch c.Backend {
	case BackendCPU, BackendGPU, BackendBoth:
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalid, c.Backend)
	}
	switch c.Strategy {
	case StrategySequential, StrategyParallel:
	default:
		return fmt.Errorf("%w: strategy %q", ErrInvalid, c.Strategy)
	}
	if _, err := ggbench.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ImageFormat returns the parsed output format.
func (c Config) ImageFormat() ggbench.ImageFormat {
	f, err := ggbench.ParseFormat(c.Format)
	if err != nil {
		return ggbench.FormatPNG
	}
	return f
}

// UseCPU reports whether the CPU backend runs.
func (c Config) UseCPU() bool { return c.Backend != BackendGPU }

// UseGPU reports whether the GPU backend runs.
func (c Config) UseGPU() bool { return c.Backend != BackendCPU }

// ParseLevel parses a slog level name (debug, info, warn, error).
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, s)
	}
	return l, nil
}
