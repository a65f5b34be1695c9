package soft

import (
	"fmt"
	"time"

	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/driver"
)

const (
	maxImageDimension = 16384
	memoryAlignment   = 256

	// undefinedByte fills fresh allocations so that reading memory that was
	// never written is visibly wrong.
	undefinedByte = 0xCD
)

type image struct {
	desc      driver.ImageDescriptor
	reqs      driver.MemoryRequirements
	layout    driver.ImageLayout
	mem       *memory
	offset    uint64
	destroyed bool
}

func (i *image) Label() string { return i.desc.Label }

type memory struct {
	data      []byte
	typeIndex uint32
	image     *image
	mapped    bool
	freed     bool
}

func (m *memory) Size() uint64 { return uint64(len(m.data)) }

type device struct {
	backend     *Backend
	physical    *physicalDevice
	queueFamily uint32
	images      map[*image]struct{}
	memories    map[*memory]struct{}
	destroyed   bool
}

func (d *device) Queue(family, index uint32) (driver.Queue, error) {
	defer d.backend.stats.enter()()
	if d.destroyed {
		return nil, ErrInvalidHandle
	}
	if family != d.queueFamily || index >= d.physical.cfg.QueueFamilies[family].Count {
		return nil, fmt.Errorf("soft: no queue %d in family %d", index, family)
	}
	return &queue{device: d}, nil
}

func (d *device) CreateImage(desc *driver.ImageDescriptor) (driver.Image, error) {
	defer d.backend.stats.enter()()
	if err := d.backend.cfg.Faults.CreateImage; err != nil {
		return nil, err
	}
	if d.destroyed {
		return nil, ErrInvalidHandle
	}
	if desc.Width == 0 || desc.Height == 0 || desc.Width > maxImageDimension || desc.Height > maxImageDimension {
		return nil, fmt.Errorf("%w: image size %dx%d", ggbench.ErrResourceCreation, desc.Width, desc.Height)
	}
	bpp := driver.BytesPerPixel(desc.Format)
	if bpp == 0 {
		return nil, fmt.Errorf("%w: unsupported format %v", ggbench.ErrResourceCreation, desc.Format)
	}

	img := &image{desc: *desc, layout: driver.LayoutUndefined}
	img.reqs = d.requirements(desc, bpp)
	d.images[img] = struct{}{}
	d.backend.stats.add(&d.backend.stats.images, 1)
	ggbench.Logger().Debug("soft: image created", "label", desc.Label, "size", img.reqs.Size, "pitch", img.reqs.RowPitch)
	return img, nil
}

// requirements computes memory requirements. Linear images pad rows to the
// device row alignment and may live in any memory type; optimal images may
// only live in device-local memory.
func (d *device) requirements(desc *driver.ImageDescriptor, bpp uint32) driver.MemoryRequirements {
	pitch := uint64(desc.Width) * uint64(bpp)
	var typeBits uint32
	for i, mt := range d.physical.cfg.MemoryTypes {
		if desc.Tiling == driver.TilingLinear || mt.Flags.Has(driver.MemoryDeviceLocal) {
			typeBits |= 1 << uint(i)
		}
	}
	if desc.Tiling == driver.TilingLinear {
		pitch = driver.AlignUp(pitch, d.physical.cfg.RowAlignment)
	}
	return driver.MemoryRequirements{
		Size:      driver.AlignUp(pitch*uint64(desc.Height), memoryAlignment),
		Alignment: memoryAlignment,
		TypeBits:  typeBits,
		RowPitch:  pitch,
	}
}

func (d *device) ImageMemoryRequirements(img driver.Image) driver.MemoryRequirements {
	defer d.backend.stats.enter()()
	i, err := d.image(img)
	if err != nil {
		return driver.MemoryRequirements{}
	}
	return i.reqs
}

func (d *device) AllocateMemory(size uint64, typeIndex uint32) (driver.Memory, error) {
	defer d.backend.stats.enter()()
	if err := d.backend.cfg.Faults.AllocateMemory; err != nil {
		return nil, err
	}
	if d.destroyed {
		return nil, ErrInvalidHandle
	}
	if int(typeIndex) >= len(d.physical.cfg.MemoryTypes) {
		return nil, fmt.Errorf("%w: memory type %d out of range", ggbench.ErrResourceCreation, typeIndex)
	}
	if size == 0 || size > d.physical.cfg.MaxAllocation {
		return nil, fmt.Errorf("%w: %d bytes", ErrOutOfDeviceMemory, size)
	}

	data := make([]byte, size)
	for i := range data {
		data[i] = undefinedByte
	}
	m := &memory{data: data, typeIndex: typeIndex}
	d.memories[m] = struct{}{}
	d.backend.stats.add(&d.backend.stats.memories, 1)
	return m, nil
}

func (d *device) BindImageMemory(img driver.Image, mem driver.Memory, offset uint64) error {
	defer d.backend.stats.enter()()
	if err := d.backend.cfg.Faults.BindImageMemory; err != nil {
		return err
	}
	i, err := d.image(img)
	if err != nil {
		return err
	}
	m, err := d.memory(mem)
	if err != nil {
		return err
	}
	switch {
	case i.mem != nil || m.image != nil:
		return fmt.Errorf("%w: image or memory already bound", ggbench.ErrResourceCreation)
	case i.reqs.TypeBits&(1<<m.typeIndex) == 0:
		return fmt.Errorf("%w: memory type %d not allowed for image", ggbench.ErrResourceCreation, m.typeIndex)
	case offset%i.reqs.Alignment != 0 || offset+i.reqs.Size > m.Size():
		return fmt.Errorf("%w: bind offset %d out of range", ggbench.ErrResourceCreation, offset)
	}
	i.mem, i.offset = m, offset
	m.image = i
	return nil
}

func (d *device) MapMemory(mem driver.Memory, offset, size uint64) ([]byte, error) {
	defer d.backend.stats.enter()()
	if err := d.backend.cfg.Faults.MapMemory; err != nil {
		return nil, err
	}
	m, err := d.memory(mem)
	if err != nil {
		return nil, err
	}
	if !d.physical.cfg.MemoryTypes[m.typeIndex].Flags.Has(driver.MemoryHostVisible) {
		return nil, fmt.Errorf("soft: memory type %d is not host visible", m.typeIndex)
	}
	if m.mapped {
		return nil, fmt.Errorf("soft: memory already mapped")
	}
	if offset > m.Size() || size > m.Size()-offset {
		return nil, fmt.Errorf("soft: map range [%d, +%d) out of bounds", offset, size)
	}
	if m.image != nil && m.image.layout != driver.LayoutGeneral {
		return nil, fmt.Errorf("%w: host access needs %s, image is %s",
			ggbench.ErrLayoutTransition, driver.LayoutGeneral, m.image.layout)
	}
	m.mapped = true
	d.backend.stats.add(&d.backend.stats.mapped, 1)
	return m.data[offset : offset+size : offset+size], nil
}

func (d *device) UnmapMemory(mem driver.Memory) {
	defer d.backend.stats.enter()()
	m, err := d.memory(mem)
	if err != nil || !m.mapped {
		return
	}
	m.mapped = false
	d.backend.stats.add(&d.backend.stats.mapped, -1)
}

func (d *device) DestroyImage(img driver.Image) {
	defer d.backend.stats.enter()()
	i, err := d.image(img)
	if err != nil {
		return
	}
	i.destroyed = true
	if i.mem != nil {
		i.mem.image = nil
	}
	delete(d.images, i)
	d.backend.stats.add(&d.backend.stats.images, -1)
}

func (d *device) FreeMemory(mem driver.Memory) {
	defer d.backend.stats.enter()()
	m, err := d.memory(mem)
	if err != nil {
		return
	}
	if m.image != nil {
		ggbench.Logger().Warn("soft: memory freed while bound to a live image", "image", m.image.Label())
	}
	if m.mapped {
		m.mapped = false
		d.backend.stats.add(&d.backend.stats.mapped, -1)
	}
	m.freed = true
	delete(d.memories, m)
	d.backend.stats.add(&d.backend.stats.memories, -1)
}

func (d *device) WaitIdle() error {
	defer d.backend.stats.enter()()
	if d.destroyed {
		return ErrInvalidHandle
	}
	return nil
}

func (d *device) Destroy() {
	defer d.backend.stats.enter()()
	if d.destroyed {
		return
	}
	if len(d.images) > 0 || len(d.memories) > 0 {
		ggbench.Logger().Warn("soft: device destroyed with live resources",
			"images", len(d.images), "memories", len(d.memories))
	}
	d.destroyed = true
	d.physical.instance.devices--
	d.backend.stats.add(&d.backend.stats.devices, -1)
}

func (d *device) image(h driver.Image) (*image, error) {
	i, ok := h.(*image)
	if !ok || i.destroyed || d.destroyed {
		return nil, ErrInvalidHandle
	}
	if _, ok := d.images[i]; !ok {
		return nil, ErrInvalidHandle
	}
	return i, nil
}

func (d *device) memory(h driver.Memory) (*memory, error) {
	m, ok := h.(*memory)
	if !ok || m.freed || d.destroyed {
		return nil, ErrInvalidHandle
	}
	if _, ok := d.memories[m]; !ok {
		return nil, ErrInvalidHandle
	}
	return m, nil
}

type queue struct {
	device *device
}

// Submit executes the commands in order. Layout transitions must name the
// image's current layout, and writes need TransferDst or General.
func (q *queue) Submit(cmds *driver.CommandList) error {
	d := q.device
	defer d.backend.stats.enter()()
	if err := cmds.Err(); err != nil {
		return err
	}
	if err := d.backend.cfg.Faults.Submit; err != nil {
		return err
	}
	for n, cmd := range cmds.Commands() {
		if err := q.execute(cmd); err != nil {
			return fmt.Errorf("soft: %s command %d: %w", cmds.Label, n, err)
		}
	}
	if d.backend.cfg.SubmitLatency > 0 {
		time.Sleep(d.backend.cfg.SubmitLatency)
	}
	d.backend.stats.add(&d.backend.stats.submits, 1)
	return nil
}

func (q *queue) execute(cmd driver.Command) error {
	i, err := q.device.image(cmd.Image)
	if err != nil {
		return err
	}
	switch cmd.Kind {
	case driver.CmdTransition:
		if i.layout != cmd.OldLayout {
			return fmt.Errorf("%w: image is %s, barrier expects %s",
				ggbench.ErrLayoutTransition, i.layout, cmd.OldLayout)
		}
		if err := driver.CheckTransition(cmd.OldLayout, cmd.NewLayout); err != nil {
			return err
		}
		i.layout = cmd.NewLayout
		return nil
	case driver.CmdWriteImage:
		return q.write(i, cmd.Pixels, uint64(cmd.BytesPerRow))
	default:
		return fmt.Errorf("soft: unknown command %d", cmd.Kind)
	}
}

func (q *queue) write(i *image, pixels []byte, srcPitch uint64) error {
	if i.mem == nil {
		return fmt.Errorf("soft: write to image %q without memory", i.Label())
	}
	if i.layout != driver.LayoutTransferDst && i.layout != driver.LayoutGeneral {
		return fmt.Errorf("%w: write needs %s, image is %s",
			ggbench.ErrLayoutTransition, driver.LayoutTransferDst, i.layout)
	}
	row := uint64(i.desc.Width) * uint64(driver.BytesPerPixel(i.desc.Format))
	h := uint64(i.desc.Height)
	if srcPitch < row || uint64(len(pixels)) < (h-1)*srcPitch+row {
		return fmt.Errorf("soft: %d source bytes with pitch %d too small for %dx%d image",
			len(pixels), srcPitch, i.desc.Width, i.desc.Height)
	}
	dst := i.mem.data[i.offset:]
	for y := range h {
		copy(dst[y*i.reqs.RowPitch:y*i.reqs.RowPitch+row], pixels[y*srcPitch:y*srcPitch+row])
	}
	return nil
}
