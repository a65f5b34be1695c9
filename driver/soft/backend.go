package soft

import (
	"errors"
	"fmt"

	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/driver"
)

// Soft driver errors.
var (
	// ErrInvalidHandle is returned for handles that do not belong to the device
	// or were already destroyed.
	ErrInvalidHandle = errors.New("soft: invalid or destroyed handle")

	// ErrOutOfDeviceMemory is returned when an allocation exceeds MaxAllocation.
	ErrOutOfDeviceMemory = fmt.Errorf("%w: out of device memory", ggbench.ErrResourceCreation)
)

// Backend is the soft driver entry point. All instances created by one
// Backend share its counters.
type Backend struct {
	cfg   Config
	stats *stats
}

// New creates a soft backend.
func New(cfg Config) *Backend {
	return &Backend{cfg: cfg, stats: &stats{}}
}

// Name returns driver.BackendSoft.
func (b *Backend) Name() string {
	return driver.BackendSoft
}

// Stats returns the current driver counters.
func (b *Backend) Stats() Snapshot {
	return b.stats.snapshot()
}

// CreateInstance creates a soft driver instance.
func (b *Backend) CreateInstance() (driver.Instance, error) {
	defer b.stats.enter()()
	if err := b.cfg.Faults.CreateInstance; err != nil {
		return nil, err
	}
	b.stats.add(&b.stats.instances, 1)
	return &instance{backend: b}, nil
}

type instance struct {
	backend   *Backend
	devices   int
	destroyed bool
}

func (i *instance) EnumeratePhysicalDevices() ([]driver.PhysicalDevice, error) {
	defer i.backend.stats.enter()()
	if i.destroyed {
		return nil, ErrInvalidHandle
	}
	out := make([]driver.PhysicalDevice, len(i.backend.cfg.Devices))
	for n, cfg := range i.backend.cfg.Devices {
		out[n] = &physicalDevice{instance: i, cfg: cfg}
	}
	return out, nil
}

func (i *instance) Destroy() {
	defer i.backend.stats.enter()()
	if i.destroyed {
		return
	}
	if i.devices > 0 {
		ggbench.Logger().Warn("soft: instance destroyed with live devices", "devices", i.devices)
	}
	i.destroyed = true
	i.backend.stats.add(&i.backend.stats.instances, -1)
}

type physicalDevice struct {
	instance *instance
	cfg      DeviceConfig
}

func (p *physicalDevice) Properties() driver.PhysicalDeviceProperties {
	return driver.PhysicalDeviceProperties{
		Name:   p.cfg.Name,
		Vendor: "gogpu",
		Type:   p.cfg.Type,
		Driver: "soft",
	}
}

func (p *physicalDevice) QueueFamilies() []driver.QueueFamilyProperties {
	return p.cfg.QueueFamilies
}

func (p *physicalDevice) MemoryProperties() driver.MemoryProperties {
	return driver.MemoryProperties{Types: p.cfg.MemoryTypes}
}

func (p *physicalDevice) CreateDevice(queueFamily uint32) (driver.Device, error) {
	b := p.instance.backend
	defer b.stats.enter()()
	if err := b.cfg.Faults.CreateDevice; err != nil {
		return nil, err
	}
	if p.instance.destroyed {
		return nil, ErrInvalidHandle
	}
	if int(queueFamily) >= len(p.cfg.QueueFamilies) {
		return nil, fmt.Errorf("soft: queue family %d out of range", queueFamily)
	}
	p.instance.devices++
	b.stats.add(&b.stats.devices, 1)
	return &device{
		backend:     b,
		physical:    p,
		queueFamily: queueFamily,
		images:      make(map[*image]struct{}),
		memories:    make(map[*memory]struct{}),
	}, nil
}
