package wgpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/driver"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	gpu "github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the row alignment HAL texture-buffer copies require.
const copyPitchAlignment = 256

// Memory type indices exposed by every physical device.
const (
	memoryTypeDeviceLocal uint32 = iota
	memoryTypeHostVisible
)

var memoryTypes = []driver.MemoryType{
	{Flags: driver.MemoryDeviceLocal, HeapIndex: 0},
	{Flags: driver.MemoryHostVisible | driver.MemoryHostCoherent, HeapIndex: 1},
}

// cpuAdapterNames are substrings of adapter names that identify software
// rasterizers when the HAL reports them with another device type.
var cpuAdapterNames = []string{"llvmpipe", "lavapipe", "swiftshader", "softpipe"}

// Backend adapts a HAL backend.
type Backend struct {
	name string
	hal  hal.Backend
}

// New wraps a HAL backend under the given registry name.
func New(name string, hb hal.Backend) *Backend {
	return &Backend{name: name, hal: hb}
}

// Name returns the registry name.
func (b *Backend) Name() string { return b.name }

// CreateInstance creates a HAL instance.
func (b *Backend) CreateInstance() (driver.Instance, error) {
	inst, err := b.hal.CreateInstance(&hal.InstanceDescriptor{
		Backends: gputypes.Backends(1) << b.hal.Variant(),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s instance: %w", b.name, err)
	}
	return &instance{hal: inst}, nil
}

type instance struct {
	hal hal.Instance
}

func (i *instance) EnumeratePhysicalDevices() ([]driver.PhysicalDevice, error) {
	adapters := i.hal.EnumerateAdapters(nil)
	out := make([]driver.PhysicalDevice, 0, len(adapters))
	for _, a := range adapters {
		out = append(out, &physicalDevice{adapter: a})
	}
	return out, nil
}

func (i *instance) Destroy() {
	i.hal.Destroy()
}

type physicalDevice struct {
	adapter hal.ExposedAdapter
}

func (p *physicalDevice) Properties() driver.PhysicalDeviceProperties {
	info := p.adapter.Info
	return driver.PhysicalDeviceProperties{
		Name:   info.Name,
		Vendor: info.Vendor,
		Type:   deviceType(info),
		Driver: strings.TrimSpace(info.Driver + " " + info.DriverInfo),
	}
}

// deviceType maps the HAL device type. Software rasterizers are reported as
// CPU even when the loader classifies them otherwise.
func deviceType(info gputypes.AdapterInfo) driver.DeviceType {
	name := strings.ToLower(info.Name)
	for _, s := range cpuAdapterNames {
		if strings.Contains(name, s) {
			return driver.DeviceTypeCPU
		}
	}
	switch info.DeviceType {
	case gputypes.DeviceTypeIntegratedGPU:
		return driver.DeviceTypeIntegratedGPU
	case gputypes.DeviceTypeDiscreteGPU:
		return driver.DeviceTypeDiscreteGPU
	case gputypes.DeviceTypeVirtualGPU:
		return driver.DeviceTypeVirtualGPU
	case gputypes.DeviceTypeCPU:
		return driver.DeviceTypeCPU
	default:
		return driver.DeviceTypeOther
	}
}

// QueueFamilies reports the single HAL queue as one family.
func (p *physicalDevice) QueueFamilies() []driver.QueueFamilyProperties {
	return []driver.QueueFamilyProperties{
		{Flags: driver.QueueGraphics | driver.QueueCompute | driver.QueueTransfer, Count: 1},
	}
}

func (p *physicalDevice) MemoryProperties() driver.MemoryProperties {
	return driver.MemoryProperties{Types: memoryTypes}
}

func (p *physicalDevice) CreateDevice(queueFamily uint32) (driver.Device, error) {
	if queueFamily != 0 {
		return nil, fmt.Errorf("wgpu: queue family %d out of range", queueFamily)
	}
	open, err := p.adapter.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("wgpu: open %q: %w", p.adapter.Info.Name, err)
	}
	shared, err := gpu.NewDeviceFromHAL(open.Device, open.Queue, 0, gpu.DefaultLimits(), p.adapter.Info.Name)
	if err != nil {
		open.Device.Destroy()
		return nil, fmt.Errorf("wgpu: wrap %q: %w", p.adapter.Info.Name, err)
	}
	ggbench.Logger().Debug("wgpu: device opened", "adapter", p.adapter.Info.Name)
	return &device{
		hal:    open.Device,
		queue:  open.Queue,
		shared: shared,
		info: gpucontext.AdapterInfo{
			Name: p.adapter.Info.Name,
			Type: adapterType(deviceType(p.adapter.Info)),
		},
	}, nil
}

func adapterType(t driver.DeviceType) gpucontext.AdapterType {
	switch t {
	case driver.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case driver.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case driver.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}
