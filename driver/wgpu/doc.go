// Package wgpu implements the driver interfaces on top of the gogpu/wgpu HAL.
//
// Images are HAL textures. Host-visible memory is a HAL buffer with MapRead
// usage; mapping memory bound to an image copies the texture into the buffer
// with 256-byte aligned rows, waits for the queue and maps the buffer.
// Device-local memory has no backing of its own and stands for the texture.
//
// HAL texture usages stand in for image layouts when recording barriers:
// General maps to storage binding, which the Vulkan HAL places in
// VK_IMAGE_LAYOUT_GENERAL.
//
// Devices lend themselves to gg's GPU accelerator through
// driver.SharedDevice, so canvases drawn for a Vulkan device rasterize on
// that device.
//
// Importing the package registers the Vulkan HAL backend as "vulkan" and
// gg's GPU accelerator.
package wgpu

import (
	_ "github.com/gogpu/gg/gpu" // registers gg's GPU accelerator
	"github.com/gogpu/ggbench/driver"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // registers the Vulkan HAL backend
)

func init() {
	driver.Register(driver.BackendVulkan, func() driver.Backend {
		hb, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil
		}
		return New(driver.BackendVulkan, hb)
	})
}
