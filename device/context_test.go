package device

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/driver"
	"github.com/gogpu/ggbench/driver/soft"
	"github.com/gogpu/gputypes"
)

func TestCreateDispose(t *testing.T) {
	b := soft.New(soft.DefaultConfig())

	ctx, err := Create(b)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := ctx.Info().Type; got != driver.DeviceTypeVirtualGPU {
		t.Errorf("Info().Type = %v, want VirtualGPU", got)
	}
	if got := ctx.Backend(); got != driver.BackendSoft {
		t.Errorf("Backend() = %q", got)
	}
	if s := b.Stats(); s.Instances != 1 || s.Devices != 1 {
		t.Errorf("Stats after Create = %+v", s)
	}

	if ctx.Accelerated() {
		t.Error("soft device reported as shared with gg's accelerator")
	}

	ctx.Dispose()
	ctx.Dispose()
	if s := b.Stats(); s.Live() != 0 {
		t.Errorf("Stats after Dispose = %+v, want nothing live", s)
	}
	if err := ctx.Exec(func(Handles) error { return nil }); !errors.Is(err, ggbench.ErrClosed) {
		t.Errorf("Exec after Dispose: err = %v, want ErrClosed", err)
	}
}

func TestCreateFailures(t *testing.T) {
	boom := errors.New("boom")
	computeOnly := soft.DefaultDevice()
	computeOnly.QueueFamilies = []driver.QueueFamilyProperties{{Flags: driver.QueueCompute, Count: 1}}

	tests := []struct {
		name string
		cfg  soft.Config
		want error
	}{
		{
			name: "CPU only",
			cfg:  soft.Config{Devices: []soft.DeviceConfig{soft.CPUDevice()}},
			want: ggbench.ErrNoSuitableDevice,
		},
		{
			name: "no devices",
			cfg:  soft.Config{},
			want: ggbench.ErrNoSuitableDevice,
		},
		{
			name: "no graphics queue",
			cfg:  soft.Config{Devices: []soft.DeviceConfig{computeOnly}},
			want: ggbench.ErrNoGraphicsQueue,
		},
		{
			name: "instance fault",
			cfg:  soft.Config{Devices: []soft.DeviceConfig{soft.DefaultDevice()}, Faults: soft.Faults{CreateInstance: boom}},
			want: boom,
		},
		{
			name: "device fault",
			cfg:  soft.Config{Devices: []soft.DeviceConfig{soft.DefaultDevice()}, Faults: soft.Faults{CreateDevice: boom}},
			want: boom,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := soft.New(tt.cfg)
			ctx, err := Create(b)
			if err == nil {
				ctx.Dispose()
				t.Fatal("Create succeeded")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ggbench.ErrDeviceInit) {
				t.Errorf("err = %v, want it to wrap ErrDeviceInit", err)
			}
			if s := b.Stats(); s.Live() != 0 {
				t.Errorf("Stats = %+v, want nothing live", s)
			}
		})
	}
}

func TestCreateNilBackend(t *testing.T) {
	if _, err := Create(nil); !errors.Is(err, ggbench.ErrDeviceInit) {
		t.Errorf("Create(nil) err = %v, want ErrDeviceInit", err)
	}
}

func TestSkipsCPUDevice(t *testing.T) {
	b := soft.New(soft.Config{Devices: []soft.DeviceConfig{soft.CPUDevice(), soft.DefaultDevice()}})
	ctx, err := Create(b)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer ctx.Dispose()
	if got := ctx.Info().Type; got == driver.DeviceTypeCPU {
		t.Error("selected a CPU device")
	}
}

func TestWithDeviceName(t *testing.T) {
	second := soft.DefaultDevice()
	second.Name = "Second GPU"
	second.Type = driver.DeviceTypeDiscreteGPU
	b := soft.New(soft.Config{Devices: []soft.DeviceConfig{soft.DefaultDevice(), second}})

	ctx, err := Create(b, WithDeviceName("second"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer ctx.Dispose()
	if got := ctx.Info().Name; got != "Second GPU" {
		t.Errorf("selected %q, want %q", got, "Second GPU")
	}

	if _, err := Create(b, WithDeviceName("missing")); !errors.Is(err, ggbench.ErrNoSuitableDevice) {
		t.Errorf("Create with unmatched filter: err = %v, want ErrNoSuitableDevice", err)
	}
}

func TestExecSerializes(t *testing.T) {
	b := soft.New(soft.DefaultConfig())
	ctx, err := Create(b)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer ctx.Dispose()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ctx.Exec(func(h Handles) error {
				img, err := h.Device.CreateImage(&driver.ImageDescriptor{
					Width: 8, Height: 8, Format: gputypes.TextureFormatRGBA8Unorm, Tiling: driver.TilingLinear,
				})
				if err != nil {
					return err
				}
				h.Device.DestroyImage(img)
				return nil
			})
			if err != nil {
				t.Errorf("Exec: %v", err)
			}
		}()
	}
	wg.Wait()

	if s := b.Stats(); s.PeakConcurrency != 1 {
		t.Errorf("PeakConcurrency = %d, want 1", s.PeakConcurrency)
	}
}
