package driver

import "github.com/gogpu/gpucontext"

// Backend creates driver instances. It is the entry point of a driver
// implementation.
type Backend interface {
	// Name returns the registry name of the backend (e.g., "vulkan").
	Name() string

	// CreateInstance creates a driver instance.
	CreateInstance() (Instance, error)
}

// Instance is a loaded driver.
type Instance interface {
	// EnumeratePhysicalDevices lists the devices visible to the driver.
	EnumeratePhysicalDevices() ([]PhysicalDevice, error)

	// Destroy releases the instance. All devices must be destroyed first.
	Destroy()
}

// PhysicalDevice is a device that can be opened.
type PhysicalDevice interface {
	Properties() PhysicalDeviceProperties
	QueueFamilies() []QueueFamilyProperties
	MemoryProperties() MemoryProperties

	// CreateDevice opens a logical device with one queue from queueFamily.
	CreateDevice(queueFamily uint32) (Device, error)
}

// Image is an opaque image handle.
type Image interface {
	Label() string
}

// Memory is an opaque device memory handle.
type Memory interface {
	Size() uint64
}

// Device is a logical device.
type Device interface {
	// Queue returns queue index of the given family.
	Queue(family, index uint32) (Queue, error)

	// CreateImage creates an image without memory.
	CreateImage(desc *ImageDescriptor) (Image, error)

	// ImageMemoryRequirements returns the memory img needs.
	ImageMemoryRequirements(img Image) MemoryRequirements

	// AllocateMemory allocates size bytes from memory type typeIndex.
	AllocateMemory(size uint64, typeIndex uint32) (Memory, error)

	// BindImageMemory binds mem to img at offset.
	BindImageMemory(img Image, mem Memory, offset uint64) error

	// MapMemory maps a range of host-visible memory. The slice is valid
	// until UnmapMemory.
	MapMemory(mem Memory, offset, size uint64) ([]byte, error)

	// UnmapMemory unmaps mem.
	UnmapMemory(mem Memory)

	// DestroyImage destroys img. Its memory must be freed separately.
	DestroyImage(img Image)

	// FreeMemory frees mem.
	FreeMemory(mem Memory)

	// WaitIdle blocks until all submitted work completes.
	WaitIdle() error

	// Destroy destroys the device.
	Destroy()
}

// SharedDevice is implemented by devices that can lend themselves to gg's
// GPU accelerator. Devices without it are drawn on the CPU and uploaded.
type SharedDevice interface {
	DeviceProvider() gpucontext.DeviceProvider
}

// Queue executes command lists.
type Queue interface {
	// Submit executes the commands and returns after they complete.
	Submit(cmds *CommandList) error
}
