package soft

import (
	"errors"
	"testing"

	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/driver"
	"github.com/gogpu/gputypes"
)

// openDevice returns a device on the first physical device of b, with its
// queue and memory properties.
func openDevice(t *testing.T, b *Backend) (driver.Device, driver.Queue, driver.MemoryProperties) {
	t.Helper()
	inst, err := b.CreateInstance()
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	t.Cleanup(inst.Destroy)

	phys, err := inst.EnumeratePhysicalDevices()
	if err != nil || len(phys) == 0 {
		t.Fatalf("EnumeratePhysicalDevices: %v (%d devices)", err, len(phys))
	}
	dev, err := phys[0].CreateDevice(0)
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	t.Cleanup(dev.Destroy)

	q, err := dev.Queue(0, 0)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	return dev, q, phys[0].MemoryProperties()
}

func linearDesc(w, h uint32) *driver.ImageDescriptor {
	return &driver.ImageDescriptor{
		Label:  "test",
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Tiling: driver.TilingLinear,
		Usage:  gputypes.TextureUsageCopyDst | gputypes.TextureUsageRenderAttachment,
	}
}

// boundImage creates a linear image bound to host-visible coherent memory.
func boundImage(t *testing.T, dev driver.Device, props driver.MemoryProperties, w, h uint32) (driver.Image, driver.Memory, driver.MemoryRequirements) {
	t.Helper()
	img, err := dev.CreateImage(linearDesc(w, h))
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	reqs := dev.ImageMemoryRequirements(img)
	idx, ok := props.FindMemoryType(reqs.TypeBits, driver.MemoryHostVisible|driver.MemoryHostCoherent)
	if !ok {
		t.Fatal("no host-visible coherent memory type")
	}
	mem, err := dev.AllocateMemory(reqs.Size, idx)
	if err != nil {
		t.Fatalf("AllocateMemory: %v", err)
	}
	if err := dev.BindImageMemory(img, mem, 0); err != nil {
		t.Fatalf("BindImageMemory: %v", err)
	}
	return img, mem, reqs
}

func TestBackendName(t *testing.T) {
	if got := New(DefaultConfig()).Name(); got != driver.BackendSoft {
		t.Errorf("Name() = %q, want %q", got, driver.BackendSoft)
	}
}

func TestRegistered(t *testing.T) {
	b := driver.Get(driver.BackendSoft)
	if b == nil {
		t.Fatal("soft driver not registered")
	}
	if _, ok := b.(*Backend); !ok {
		t.Errorf("registered backend is %T, want *Backend", b)
	}
}

func TestRequirementsLinearPadding(t *testing.T) {
	dev, _, props := openDevice(t, New(DefaultConfig()))

	img, err := dev.CreateImage(linearDesc(10, 3))
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	defer dev.DestroyImage(img)

	reqs := dev.ImageMemoryRequirements(img)
	if reqs.RowPitch != 64 {
		t.Errorf("RowPitch = %d, want 64 (40 bytes aligned to 64)", reqs.RowPitch)
	}
	if reqs.Size < reqs.RowPitch*3 {
		t.Errorf("Size = %d, want at least %d", reqs.Size, reqs.RowPitch*3)
	}
	if _, ok := props.FindMemoryType(reqs.TypeBits, driver.MemoryHostVisible|driver.MemoryHostCoherent); !ok {
		t.Error("linear image cannot use host-visible coherent memory")
	}
}

func TestRequirementsOptimalDeviceLocalOnly(t *testing.T) {
	dev, _, props := openDevice(t, New(DefaultConfig()))

	desc := linearDesc(16, 16)
	desc.Tiling = driver.TilingOptimal
	img, err := dev.CreateImage(desc)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	defer dev.DestroyImage(img)

	reqs := dev.ImageMemoryRequirements(img)
	if _, ok := props.FindMemoryType(reqs.TypeBits, driver.MemoryHostVisible); ok {
		t.Error("optimal image allows host-visible memory")
	}
	if _, ok := props.FindMemoryType(reqs.TypeBits, driver.MemoryDeviceLocal); !ok {
		t.Error("optimal image rejects device-local memory")
	}
}

func TestCreateImageInvalid(t *testing.T) {
	dev, _, _ := openDevice(t, New(DefaultConfig()))

	tests := []struct {
		name string
		desc *driver.ImageDescriptor
	}{
		{"zero width", linearDesc(0, 1)},
		{"zero height", linearDesc(1, 0)},
		{"too wide", linearDesc(maxImageDimension+1, 1)},
		{"bad format", &driver.ImageDescriptor{Width: 1, Height: 1, Format: gputypes.TextureFormatUndefined}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dev.CreateImage(tt.desc)
			if !errors.Is(err, ggbench.ErrResourceCreation) {
				t.Errorf("CreateImage error = %v, want ErrResourceCreation", err)
			}
		})
	}
}

func TestWriteAndMapRoundTrip(t *testing.T) {
	b := New(DefaultConfig())
	dev, q, props := openDevice(t, b)
	img, mem, reqs := boundImage(t, dev, props, 2, 2)

	pixels := []byte{
		1, 2, 3, 4, 5, 6, 7, 8,
		9, 10, 11, 12, 13, 14, 15, 16,
	}
	cmds := driver.NewCommandList("upload")
	cmds.TransitionImage(img, driver.LayoutUndefined, driver.LayoutTransferDst)
	cmds.WriteImage(img, pixels, 8)
	cmds.TransitionImage(img, driver.LayoutTransferDst, driver.LayoutGeneral)
	if err := q.Submit(cmds); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	data, err := dev.MapMemory(mem, 0, reqs.Size)
	if err != nil {
		t.Fatalf("MapMemory: %v", err)
	}
	for y := range 2 {
		row := data[uint64(y)*reqs.RowPitch : uint64(y)*reqs.RowPitch+8]
		for x, got := range row {
			if want := pixels[y*8+x]; got != want {
				t.Fatalf("row %d byte %d = %d, want %d", y, x, got, want)
			}
		}
		if pad := data[uint64(y)*reqs.RowPitch+8]; pad != undefinedByte {
			t.Errorf("row %d padding = %#x, want %#x", y, pad, undefinedByte)
		}
	}
	dev.UnmapMemory(mem)

	dev.DestroyImage(img)
	dev.FreeMemory(mem)
	if s := b.Stats(); s.Images != 0 || s.Memories != 0 || s.Mapped != 0 || s.Submits != 1 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestMapRequiresGeneralLayout(t *testing.T) {
	dev, q, props := openDevice(t, New(DefaultConfig()))
	img, mem, reqs := boundImage(t, dev, props, 4, 4)
	defer dev.FreeMemory(mem)
	defer dev.DestroyImage(img)

	if _, err := dev.MapMemory(mem, 0, reqs.Size); !errors.Is(err, ggbench.ErrLayoutTransition) {
		t.Fatalf("MapMemory in Undefined: err = %v, want ErrLayoutTransition", err)
	}

	cmds := driver.NewCommandList("general")
	cmds.TransitionImage(img, driver.LayoutUndefined, driver.LayoutGeneral)
	if err := q.Submit(cmds); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := dev.MapMemory(mem, 0, reqs.Size); err != nil {
		t.Fatalf("MapMemory in General: %v", err)
	}
	if _, err := dev.MapMemory(mem, 0, reqs.Size); err == nil {
		t.Error("second MapMemory succeeded")
	}
	dev.UnmapMemory(mem)
}

func TestSubmitStaleLayout(t *testing.T) {
	dev, q, props := openDevice(t, New(DefaultConfig()))
	img, mem, _ := boundImage(t, dev, props, 4, 4)
	defer dev.FreeMemory(mem)
	defer dev.DestroyImage(img)

	// Image is Undefined; barrier claims General.
	cmds := driver.NewCommandList("stale")
	cmds.TransitionImage(img, driver.LayoutGeneral, driver.LayoutTransferDst)
	if err := q.Submit(cmds); !errors.Is(err, ggbench.ErrLayoutTransition) {
		t.Errorf("Submit error = %v, want ErrLayoutTransition", err)
	}
}

func TestWriteNeedsTransferLayout(t *testing.T) {
	dev, q, props := openDevice(t, New(DefaultConfig()))
	img, mem, _ := boundImage(t, dev, props, 1, 1)
	defer dev.FreeMemory(mem)
	defer dev.DestroyImage(img)

	cmds := driver.NewCommandList("write")
	cmds.WriteImage(img, make([]byte, 4), 4)
	if err := q.Submit(cmds); !errors.Is(err, ggbench.ErrLayoutTransition) {
		t.Errorf("Submit error = %v, want ErrLayoutTransition", err)
	}
}

func TestBindValidation(t *testing.T) {
	dev, _, props := openDevice(t, New(DefaultConfig()))

	img, err := dev.CreateImage(linearDesc(8, 8))
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	defer dev.DestroyImage(img)
	reqs := dev.ImageMemoryRequirements(img)
	idx, _ := props.FindMemoryType(reqs.TypeBits, driver.MemoryHostVisible)

	small, err := dev.AllocateMemory(reqs.Size/2, idx)
	if err != nil {
		t.Fatalf("AllocateMemory: %v", err)
	}
	defer dev.FreeMemory(small)
	if err := dev.BindImageMemory(img, small, 0); !errors.Is(err, ggbench.ErrResourceCreation) {
		t.Errorf("bind to small memory: err = %v, want ErrResourceCreation", err)
	}

	mem, err := dev.AllocateMemory(reqs.Size, idx)
	if err != nil {
		t.Fatalf("AllocateMemory: %v", err)
	}
	defer dev.FreeMemory(mem)
	if err := dev.BindImageMemory(img, mem, 0); err != nil {
		t.Fatalf("BindImageMemory: %v", err)
	}
	if err := dev.BindImageMemory(img, mem, 0); !errors.Is(err, ggbench.ErrResourceCreation) {
		t.Errorf("double bind: err = %v, want ErrResourceCreation", err)
	}
}

func TestAllocateTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Devices[0].MaxAllocation = 1024
	dev, _, _ := openDevice(t, New(cfg))

	if _, err := dev.AllocateMemory(2048, 1); !errors.Is(err, ErrOutOfDeviceMemory) {
		t.Errorf("AllocateMemory error = %v, want ErrOutOfDeviceMemory", err)
	}
	if _, err := dev.AllocateMemory(16, 99); !errors.Is(err, ggbench.ErrResourceCreation) {
		t.Errorf("AllocateMemory bad type error = %v, want ErrResourceCreation", err)
	}
}

func TestDestroyedHandles(t *testing.T) {
	dev, _, props := openDevice(t, New(DefaultConfig()))
	img, mem, _ := boundImage(t, dev, props, 1, 1)
	dev.DestroyImage(img)
	dev.FreeMemory(mem)

	if err := dev.BindImageMemory(img, mem, 0); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("BindImageMemory after destroy: err = %v, want ErrInvalidHandle", err)
	}
	if _, err := dev.MapMemory(mem, 0, 4); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("MapMemory after free: err = %v, want ErrInvalidHandle", err)
	}
	// Double destroy is a no-op.
	dev.DestroyImage(img)
	dev.FreeMemory(mem)
}

func TestFaults(t *testing.T) {
	boom := errors.New("boom")
	cfg := DefaultConfig()
	cfg.Faults.CreateImage = boom
	dev, _, _ := openDevice(t, New(cfg))

	if _, err := dev.CreateImage(linearDesc(1, 1)); !errors.Is(err, boom) {
		t.Errorf("CreateImage error = %v, want injected fault", err)
	}

	cfg = DefaultConfig()
	cfg.Faults.CreateInstance = boom
	if _, err := New(cfg).CreateInstance(); !errors.Is(err, boom) {
		t.Errorf("CreateInstance error = %v, want injected fault", err)
	}
}

func TestStatsLive(t *testing.T) {
	b := New(DefaultConfig())
	func() {
		dev, _, props := openDevice(t, b)
		img, mem, _ := boundImage(t, dev, props, 2, 2)
		s := b.Stats()
		if s.Images != 1 || s.Memories != 1 || s.Devices != 1 || s.Instances != 1 {
			t.Errorf("Stats = %+v", s)
		}
		dev.DestroyImage(img)
		dev.FreeMemory(mem)
	}()
	if s := b.Stats(); s.Images != 0 || s.Memories != 0 {
		t.Errorf("after release Stats = %+v", s)
	}
	if s := b.Stats(); s.PeakConcurrency != 1 {
		t.Errorf("PeakConcurrency = %d, want 1 for sequential calls", s.PeakConcurrency)
	}
}

func TestCPUDevice(t *testing.T) {
	cfg := Config{Devices: []DeviceConfig{CPUDevice(), DefaultDevice()}}
	inst, err := New(cfg).CreateInstance()
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Destroy()
	phys, err := inst.EnumeratePhysicalDevices()
	if err != nil {
		t.Fatal(err)
	}
	if got := phys[0].Properties().Type; got != driver.DeviceTypeCPU {
		t.Errorf("device 0 type = %v, want CPU", got)
	}
	if got := phys[1].Properties().Type; got != driver.DeviceTypeVirtualGPU {
		t.Errorf("device 1 type = %v, want VirtualGPU", got)
	}
}
