package soft

import (
	"time"

	"github.com/gogpu/ggbench/driver"
)

// DeviceConfig describes one emulated physical device.
type DeviceConfig struct {
	Name          string
	Type          driver.DeviceType
	QueueFamilies []driver.QueueFamilyProperties
	MemoryTypes   []driver.MemoryType

	// RowAlignment is the row pitch alignment of linear images in bytes.
	RowAlignment uint64

	// MaxAllocation is the largest single allocation in bytes.
	MaxAllocation uint64
}

// Faults injects errors into driver operations. A nil field means the
// operation succeeds.
type Faults struct {
	CreateInstance  error
	CreateDevice    error
	CreateImage     error
	AllocateMemory  error
	BindImageMemory error
	MapMemory       error
	Submit          error
}

// Config configures the soft driver.
type Config struct {
	Devices []DeviceConfig
	Faults  Faults

	// SubmitLatency is added to every submission to emulate GPU work.
	SubmitLatency time.Duration
}

// DefaultDevice returns a virtual GPU with one graphics queue family and
// device-local, host-visible coherent and host-visible cached memory types.
func DefaultDevice() DeviceConfig {
	return DeviceConfig{
		Name: "ggbench soft GPU",
		Type: driver.DeviceTypeVirtualGPU,
		QueueFamilies: []driver.QueueFamilyProperties{
			{Flags: driver.QueueGraphics | driver.QueueCompute | driver.QueueTransfer, Count: 1},
		},
		MemoryTypes: []driver.MemoryType{
			{Flags: driver.MemoryDeviceLocal, HeapIndex: 0},
			{Flags: driver.MemoryHostVisible | driver.MemoryHostCoherent, HeapIndex: 1},
			{Flags: driver.MemoryHostVisible | driver.MemoryHostCached, HeapIndex: 1},
		},
		RowAlignment:  64,
		MaxAllocation: 1 << 31,
	}
}

// CPUDevice returns a CPU-class device, the kind a software rasterizer
// such as llvmpipe reports.
func CPUDevice() DeviceConfig {
	d := DefaultDevice()
	d.Name = "ggbench soft CPU"
	d.Type = driver.DeviceTypeCPU
	return d
}

// DefaultConfig returns a configuration with one DefaultDevice.
func DefaultConfig() Config {
	return Config{Devices: []DeviceConfig{DefaultDevice()}}
}
