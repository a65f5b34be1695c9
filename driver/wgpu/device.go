package wgpu

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/driver"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	gpu "github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"
)

// errInvalidHandle is returned for handles from another driver or already
// destroyed.
var errInvalidHandle = errors.New("wgpu: invalid or destroyed handle")

type image struct {
	desc    driver.ImageDescriptor
	texture hal.Texture
	pitch   uint64
	layout  driver.ImageLayout
	mem     *memory
}

func (i *image) Label() string { return i.desc.Label }

type memory struct {
	size      uint64
	typeIndex uint32
	buffer    hal.Buffer // nil for device-local memory
	image     *image
	mapped    bool
}

func (m *memory) Size() uint64 { return m.size }

// device drives the HAL directly. shared owns hal and queue and is what gg's
// accelerator renders with.
type device struct {
	hal    hal.Device
	queue  hal.Queue
	shared *gpu.Device
	info   gpucontext.AdapterInfo
}

// DeviceProvider lends the device to gg.
func (d *device) DeviceProvider() gpucontext.DeviceProvider {
	return provider{d: d}
}

// provider is a headless gpucontext.DeviceProvider: no surface format and no
// adapter handle, so gg takes the shared *wgpu.Device as is.
type provider struct {
	d *device
}

func (p provider) Device() gpucontext.Device             { return p.d.shared }
func (p provider) Queue() gpucontext.Queue               { return p.d.shared.Queue() }
func (p provider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (p provider) Adapter() gpucontext.Adapter           { return nil }
func (p provider) AdapterInfo() gpucontext.AdapterInfo   { return p.d.info }

func (d *device) Queue(family, index uint32) (driver.Queue, error) {
	if family != 0 || index != 0 {
		return nil, fmt.Errorf("wgpu: no queue %d in family %d", index, family)
	}
	return &queue{device: d}, nil
}

func (d *device) CreateImage(desc *driver.ImageDescriptor) (driver.Image, error) {
	bpp := driver.BytesPerPixel(desc.Format)
	if bpp == 0 || desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d %v", ggbench.ErrResourceCreation, desc.Width, desc.Height, desc.Format)
	}
	// The HAL has no linear host-mapped textures: Tiling only decides which
	// memory types ImageMemoryRequirements offers, and host-visible memory
	// is a staging buffer filled by a copy.
	tex, err := d.hal.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage: desc.Usage | gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
			gputypes.TextureUsageStorageBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: texture %q: %w", ggbench.ErrResourceCreation, desc.Label, err)
	}
	return &image{
		desc:    *desc,
		texture: tex,
		pitch:   driver.AlignUp(uint64(desc.Width)*uint64(bpp), copyPitchAlignment),
		layout:  driver.LayoutUndefined,
	}, nil
}

func (d *device) ImageMemoryRequirements(img driver.Image) driver.MemoryRequirements {
	i, ok := img.(*image)
	if !ok {
		return driver.MemoryRequirements{}
	}
	typeBits := uint32(1) << memoryTypeDeviceLocal
	if i.desc.Tiling == driver.TilingLinear {
		typeBits |= 1 << memoryTypeHostVisible
	}
	return driver.MemoryRequirements{
		Size:      i.pitch * uint64(i.desc.Height),
		Alignment: copyPitchAlignment,
		TypeBits:  typeBits,
		RowPitch:  i.pitch,
	}
}

func (d *device) AllocateMemory(size uint64, typeIndex uint32) (driver.Memory, error) {
	m := &memory{size: size, typeIndex: typeIndex}
	switch typeIndex {
	case memoryTypeDeviceLocal:
	case memoryTypeHostVisible:
		buf, err := d.hal.CreateBuffer(&hal.BufferDescriptor{
			Label: "ggbench readback",
			Size:  size,
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: readback buffer: %w", ggbench.ErrResourceCreation, err)
		}
		m.buffer = buf
	default:
		return nil, fmt.Errorf("%w: memory type %d out of range", ggbench.ErrResourceCreation, typeIndex)
	}
	return m, nil
}

func (d *device) BindImageMemory(img driver.Image, mem driver.Memory, offset uint64) error {
	i, ok := img.(*image)
	m, ok2 := mem.(*memory)
	if !ok || !ok2 || i.texture == nil {
		return errInvalidHandle
	}
	if i.mem != nil || m.image != nil {
		return fmt.Errorf("%w: image or memory already bound", ggbench.ErrResourceCreation)
	}
	if offset != 0 || m.size < i.pitch*uint64(i.desc.Height) {
		return fmt.Errorf("%w: memory too small for image %q", ggbench.ErrResourceCreation, i.Label())
	}
	i.mem, m.image = m, i
	return nil
}

// MapMemory copies the bound image into the readback buffer and maps it.
func (d *device) MapMemory(mem driver.Memory, offset, size uint64) ([]byte, error) {
	m, ok := mem.(*memory)
	if !ok {
		return nil, errInvalidHandle
	}
	if m.buffer == nil {
		return nil, fmt.Errorf("wgpu: memory type %d is not host visible", m.typeIndex)
	}
	if m.mapped {
		return nil, errors.New("wgpu: memory already mapped")
	}
	if offset > m.size || size > m.size-offset {
		return nil, fmt.Errorf("wgpu: map range [%d, +%d) out of bounds", offset, size)
	}
	if i := m.image; i != nil {
		if i.layout != driver.LayoutGeneral {
			return nil, fmt.Errorf("%w: host access needs %s, image is %s",
				ggbench.ErrLayoutTransition, driver.LayoutGeneral, i.layout)
		}
		if err := d.readback(i, m); err != nil {
			return nil, err
		}
	}
	mapping, err := d.hal.MapBuffer(m.buffer, offset, size)
	if err != nil {
		return nil, fmt.Errorf("wgpu: map buffer: %w", err)
	}
	m.mapped = true
	return unsafe.Slice((*byte)(mapping.Ptr), size), nil
}

// readback copies the texture of i into the buffer of m and waits for it.
func (d *device) readback(i *image, m *memory) error {
	return d.encode("ggbench readback", func(enc hal.CommandEncoder) {
		enc.TransitionTextures([]hal.TextureBarrier{textureBarrier(i.texture, driver.LayoutGeneral, driver.LayoutTransferSrc)})
		enc.CopyTextureToBuffer(i.texture, m.buffer, []hal.BufferTextureCopy{copyRegion(i)})
		enc.TransitionTextures([]hal.TextureBarrier{textureBarrier(i.texture, driver.LayoutTransferSrc, driver.LayoutGeneral)})
	})
}

// encode records one command buffer, submits it and waits for the device.
func (d *device) encode(label string, record func(hal.CommandEncoder)) error {
	enc, err := d.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("wgpu: create encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	record(enc)
	cmd, err := enc.EndEncoding()
	if err != nil {
		enc.DiscardEncoding()
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.hal.FreeCommandBuffer(cmd)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	if err := d.hal.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait idle: %w", err)
	}
	return nil
}

func (d *device) UnmapMemory(mem driver.Memory) {
	m, ok := mem.(*memory)
	if !ok || !m.mapped {
		return
	}
	if err := d.hal.UnmapBuffer(m.buffer); err != nil {
		ggbench.Logger().Warn("wgpu: unmap buffer", "err", err)
	}
	m.mapped = false
}

func (d *device) DestroyImage(img driver.Image) {
	i, ok := img.(*image)
	if !ok || i.texture == nil {
		return
	}
	d.hal.DestroyTexture(i.texture)
	i.texture = nil
	if i.mem != nil {
		i.mem.image = nil
		i.mem = nil
	}
}

func (d *device) FreeMemory(mem driver.Memory) {
	m, ok := mem.(*memory)
	if !ok {
		return
	}
	if m.image != nil {
		m.image.mem = nil
		m.image = nil
	}
	if m.buffer != nil {
		d.UnmapMemory(m)
		d.hal.DestroyBuffer(m.buffer)
		m.buffer = nil
	}
}

func (d *device) WaitIdle() error {
	return d.hal.WaitIdle()
}

// Destroy releases the shared device, which destroys the HAL device.
func (d *device) Destroy() {
	d.shared.Release()
}

// layoutUsage maps an image layout to the HAL texture usage whose barrier
// layout matches it.
func layoutUsage(l driver.ImageLayout) gputypes.TextureUsage {
	switch l {
	case driver.LayoutGeneral:
		return gputypes.TextureUsageStorageBinding
	case driver.LayoutColorAttachment:
		return gputypes.TextureUsageRenderAttachment
	case driver.LayoutTransferSrc:
		return gputypes.TextureUsageCopySrc
	case driver.LayoutTransferDst:
		return gputypes.TextureUsageCopyDst
	case driver.LayoutShaderReadOnly:
		return gputypes.TextureUsageTextureBinding
	default:
		return gputypes.TextureUsageNone
	}
}

func textureBarrier(tex hal.Texture, old, new driver.ImageLayout) hal.TextureBarrier {
	return hal.TextureBarrier{
		Texture: tex,
		Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll, MipLevelCount: 1, ArrayLayerCount: 1},
		Usage:   hal.TextureUsageTransition{OldUsage: layoutUsage(old), NewUsage: layoutUsage(new)},
	}
}

func copyRegion(i *image) hal.BufferTextureCopy {
	return hal.BufferTextureCopy{
		BufferLayout: hal.ImageDataLayout{
			BytesPerRow:  uint32(i.pitch), //nolint:gosec // G115: pitch < 16384*4 aligned
			RowsPerImage: i.desc.Height,
		},
		TextureBase: hal.ImageCopyTexture{Texture: i.texture, Aspect: gputypes.TextureAspectAll},
		Size:        hal.Extent3D{Width: i.desc.Width, Height: i.desc.Height, DepthOrArrayLayers: 1},
	}
}
