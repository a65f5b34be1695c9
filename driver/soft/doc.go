// Package soft implements an in-memory software driver.
//
// The soft driver emulates the parts of a Vulkan device that the GPU render
// target relies on: physical devices with a device type, queue families,
// memory types with property flags, linear images with padded rows, memory
// binding, host mapping, and layout tracking. Every handle is checked, every
// layout transition is validated against the image's current layout, and
// host mapping of image memory requires the image to be in LayoutGeneral.
//
// The driver counts live instances, devices, images, memory allocations and
// mappings, and records the peak number of driver calls in flight at once.
// Tests use these counters to check for leaks and for unserialized access.
// Faults can be injected per operation.
//
// Importing the package registers the driver as "soft" with DefaultConfig.
package soft

import "github.com/gogpu/ggbench/driver"

func init() {
	driver.Register(driver.BackendSoft, func() driver.Backend {
		return New(DefaultConfig())
	})
}
