// Package driver defines the low-level GPU driver interfaces used by the
// GPU render target.
//
// The interfaces are shaped after Vulkan: an Instance enumerates
// PhysicalDevices, a PhysicalDevice creates a logical Device, a Device creates
// Images and Memory and binds them, and a Queue executes CommandLists. This is
// the minimal surface needed to allocate a linear, host-visible image, move
// it between layouts, upload canvas pixels and map its memory for read-back.
//
// Implementations register themselves by name:
//
//	import _ "github.com/gogpu/ggbench/driver/wgpu" // "vulkan"
//	import _ "github.com/gogpu/ggbench/driver/soft" // "soft"
//
//	b := driver.Get("vulkan")
//
// Thread safety: drivers are not required to be safe for concurrent use.
// Package device serializes all calls through a single lock.
package driver
