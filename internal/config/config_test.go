package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/gogpu/ggbench"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	AddFlags(fs)
	fs.String("log-level", "info", "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return fs
}

func env(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ggbench.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Frames != 30 || c.Width != 1920 || c.Height != 1080 {
		t.Errorf("Default() = %+v", c)
	}
	if c.Parallel < 1 {
		t.Errorf("Parallel = %d, want >= 1", c.Parallel)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if !c.UseCPU() || !c.UseGPU() {
		t.Error("default backend should run both")
	}
}

func TestPrecedence(t *testing.T) {
	path := writeFile(t, `
frames = 10
parallel = 3
driver = "file"
format = "bmp"
`)

	tests := []struct {
		name         string
		args         []string
		env          map[string]string
		wantFrames   int
		wantParallel int
		wantDriver   string
	}{
		{"file", []string{"--config", path}, nil, 10, 3, "file"},
		{"env over file", []string{"--config", path}, map[string]string{EnvParallel: "5", EnvDriver: "soft"}, 10, 5, "soft"},
		{"flags over env", []string{"--config", path, "--parallel=7", "--driver=vulkan", "--frames=2"},
			map[string]string{EnvParallel: "5", EnvDriver: "soft"}, 2, 7, "vulkan"},
		{"defaults", nil, nil, 30, Default().Parallel, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Resolve(newFlags(t, tt.args...), env(tt.env))
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if c.Frames != tt.wantFrames || c.Parallel != tt.wantParallel || c.Driver != tt.wantDriver {
				t.Errorf("got frames=%d parallel=%d driver=%q, want %d %d %q",
					c.Frames, c.Parallel, c.Driver, tt.wantFrames, tt.wantParallel, tt.wantDriver)
			}
		})
	}
}

func TestFileKeepsUnsetKeys(t *testing.T) {
	c := Default()
	if err := c.Decode([]byte(`width = 64`)); err != nil {
		t.Fatal(err)
	}
	if c.Width != 64 || c.Height != 1080 {
		t.Errorf("got %dx%d, want 64x1080", c.Width, c.Height)
	}
}

func TestFileUnknownKey(t *testing.T) {
	c := Default()
	if err := c.Decode([]byte(`colour = "red"`)); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestMissingFile(t *testing.T) {
	fs := newFlags(t, "--config", filepath.Join(t.TempDir(), "absent.toml"))
	if _, err := Resolve(fs, env(nil)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Resolve = %v, want os.ErrNotExist", err)
	}
}

func TestBadEnv(t *testing.T) {
	_, err := Resolve(newFlags(t), env(map[string]string{EnvParallel: "many"}))
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Resolve = %v, want ErrInvalid", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"negative frames", func(c *Config) { c.Frames = -1 }},
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"zero parallel", func(c *Config) { c.Parallel = 0 }},
		{"quality", func(c *Config) { c.Quality = 101 }},
		{"backend", func(c *Config) { c.Backend = "tpu" }},
		{"strategy", func(c *Config) { c.Strategy = "random" }},
		{"format", func(c *Config) { c.Format = "gif" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"out", func(c *Config) { c.Out = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.edit(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestFlagsOnly(t *testing.T) {
	c, err := Resolve(newFlags(t, "--backend=cpu", "--strategy=sequential", "--format=jpg", "--log-level=debug"), env(nil))
	if err != nil {
		t.Fatal(err)
	}
	if c.UseGPU() || !c.UseCPU() {
		t.Error("cpu backend should not run the GPU")
	}
	if c.Strategy != StrategySequential {
		t.Errorf("Strategy = %q", c.Strategy)
	}
	if c.ImageFormat() != ggbench.FormatJPEG {
		t.Errorf("ImageFormat() = %v", c.ImageFormat())
	}
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", c.LogLevel)
	}
}
