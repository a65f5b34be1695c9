package driver

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// DeviceType classifies a physical device.
type DeviceType uint8

const (
	// DeviceTypeOther is an unknown device class.
	DeviceTypeOther DeviceType = iota

	// DeviceTypeIntegratedGPU is a GPU sharing memory with the host.
	DeviceTypeIntegratedGPU

	// DeviceTypeDiscreteGPU is a dedicated GPU.
	DeviceTypeDiscreteGPU

	// DeviceTypeVirtualGPU is a GPU exposed through virtualization.
	DeviceTypeVirtualGPU

	// DeviceTypeCPU is a software rasterizer running on the host CPU.
	DeviceTypeCPU
)

// String returns the device type name.
func (t DeviceType) String() string {
	switch t {
	case DeviceTypeOther:
		return "Other"
	case DeviceTypeIntegratedGPU:
		return "IntegratedGPU"
	case DeviceTypeDiscreteGPU:
		return "DiscreteGPU"
	case DeviceTypeVirtualGPU:
		return "VirtualGPU"
	case DeviceTypeCPU:
		return "CPU"
	default:
		return fmt.Sprintf("DeviceType(%d)", int(t))
	}
}

// PhysicalDeviceProperties describes a physical device.
type PhysicalDeviceProperties struct {
	// Name is the device name (e.g., "NVIDIA GeForce RTX 3080").
	Name string

	// Vendor is the vendor name or ID.
	Vendor string

	// Type is the device class.
	Type DeviceType

	// Driver is the driver description, if known.
	Driver string
}

// QueueFlags describes the capabilities of a queue family.
type QueueFlags uint32

const (
	// QueueGraphics supports graphics operations.
	QueueGraphics QueueFlags = 1 << iota

	// QueueCompute supports compute dispatch.
	QueueCompute

	// QueueTransfer supports copy operations.
	QueueTransfer
)

// Has reports whether all bits in want are set.
func (f QueueFlags) Has(want QueueFlags) bool {
	return f&want == want
}

// QueueFamilyProperties describes one queue family of a physical device.
type QueueFamilyProperties struct {
	Flags QueueFlags
	Count uint32
}

// MemoryPropertyFlags describes a memory type.
type MemoryPropertyFlags uint32

const (
	// MemoryDeviceLocal is memory local to the device.
	MemoryDeviceLocal MemoryPropertyFlags = 1 << iota

	// MemoryHostVisible can be mapped into host address space.
	MemoryHostVisible

	// MemoryHostCoherent needs no explicit flush or invalidate after mapping.
	MemoryHostCoherent

	// MemoryHostCached is cached on the host.
	MemoryHostCached
)

// Has reports whether all bits in want are set.
func (f MemoryPropertyFlags) Has(want MemoryPropertyFlags) bool {
	return f&want == want
}

// MemoryType is one memory type of a physical device.
type MemoryType struct {
	Flags     MemoryPropertyFlags
	HeapIndex uint32
}

// MemoryProperties lists the memory types of a physical device. Memory type
// indices used in MemoryRequirements.TypeBits and AllocateMemory refer to
// positions in Types.
type MemoryProperties struct {
	Types []MemoryType
}

// FindMemoryType returns the first memory type index allowed by typeBits
// whose flags contain want.
func (p MemoryProperties) FindMemoryType(typeBits uint32, want MemoryPropertyFlags) (uint32, bool) {
	for i, mt := range p.Types {
		if i >= 32 {
			break
		}
		if typeBits&(1<<uint(i)) != 0 && mt.Flags.Has(want) {
			return uint32(i), true //nolint:gosec // G115: i < 32
		}
	}
	return 0, false
}

// Tiling is the memory arrangement of image texels.
type Tiling uint8

const (
	// TilingOptimal is an implementation-defined arrangement.
	TilingOptimal Tiling = iota

	// TilingLinear is row-major with a fixed row pitch, readable by the host.
	TilingLinear
)

// String returns the tiling name.
func (t Tiling) String() string {
	if t == TilingLinear {
		return "Linear"
	}
	return "Optimal"
}

// ImageDescriptor describes a 2D image.
type ImageDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat
	Tiling Tiling
	Usage  gputypes.TextureUsage
}

// MemoryRequirements describes the memory an image needs.
type MemoryRequirements struct {
	// Size is the allocation size in bytes, including row padding.
	Size uint64

	// Alignment is the required offset alignment.
	Alignment uint64

	// TypeBits has bit i set when memory type i may back the image.
	TypeBits uint32

	// RowPitch is the byte distance between rows of a linear image.
	RowPitch uint64
}

// BytesPerPixel returns the texel size of the formats ggbench uses.
func BytesPerPixel(f gputypes.TextureFormat) uint32 {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	case gputypes.TextureFormatR8Unorm:
		return 1
	default:
		return 0
	}
}

// AlignUp rounds v up to a multiple of align, which must be a power of two.
func AlignUp(v, align uint64) uint64 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}
