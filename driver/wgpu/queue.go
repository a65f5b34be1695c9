package wgpu

import (
	"fmt"

	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/driver"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

type queue struct {
	device *device
}

// Submit validates the command list against the tracked image layouts,
// records it into one HAL command buffer and waits for completion.
func (q *queue) Submit(cmds *driver.CommandList) error {
	if err := cmds.Err(); err != nil {
		return err
	}
	d := q.device

	// Validate before touching the HAL so a bad list records nothing.
	layouts := make(map[*image]driver.ImageLayout)
	for n, cmd := range cmds.Commands() {
		i, ok := cmd.Image.(*image)
		if !ok || i.texture == nil {
			return fmt.Errorf("wgpu: %s command %d: %w", cmds.Label, n, errInvalidHandle)
		}
		cur, seen := layouts[i]
		if !seen {
			cur = i.layout
		}
		switch cmd.Kind {
		case driver.CmdTransition:
			if cur != cmd.OldLayout {
				return fmt.Errorf("wgpu: %s command %d: %w: image is %s, barrier expects %s",
					cmds.Label, n, ggbench.ErrLayoutTransition, cur, cmd.OldLayout)
			}
			layouts[i] = cmd.NewLayout
		case driver.CmdWriteImage:
			if cur != driver.LayoutTransferDst && cur != driver.LayoutGeneral {
				return fmt.Errorf("wgpu: %s command %d: %w: write needs %s, image is %s",
					cmds.Label, n, ggbench.ErrLayoutTransition, driver.LayoutTransferDst, cur)
			}
			layouts[i] = cur
		}
	}

	var uploads []hal.Buffer
	defer func() {
		for _, b := range uploads {
			d.hal.DestroyBuffer(b)
		}
	}()
	staged := make([]hal.Buffer, len(cmds.Commands()))
	for n, cmd := range cmds.Commands() {
		if cmd.Kind != driver.CmdWriteImage {
			continue
		}
		buf, err := d.upload(cmd.Image.(*image), cmd.Pixels, uint64(cmd.BytesPerRow))
		if err != nil {
			return fmt.Errorf("wgpu: %s command %d: %w", cmds.Label, n, err)
		}
		uploads = append(uploads, buf)
		staged[n] = buf
	}

	err := d.encode(cmds.Label, func(enc hal.CommandEncoder) {
		for n, cmd := range cmds.Commands() {
			i := cmd.Image.(*image)
			switch cmd.Kind {
			case driver.CmdTransition:
				enc.TransitionTextures([]hal.TextureBarrier{textureBarrier(i.texture, cmd.OldLayout, cmd.NewLayout)})
			case driver.CmdWriteImage:
				enc.CopyBufferToTexture(staged[n], i.texture, []hal.BufferTextureCopy{copyRegion(i)})
			}
		}
	})
	if err != nil {
		return err
	}
	for i, l := range layouts {
		i.layout = l
	}
	return nil
}

// upload stages pixels in a buffer with the copy row alignment.
func (d *device) upload(i *image, pixels []byte, srcPitch uint64) (hal.Buffer, error) {
	row := uint64(i.desc.Width) * uint64(driver.BytesPerPixel(i.desc.Format))
	h := uint64(i.desc.Height)
	if srcPitch < row || uint64(len(pixels)) < (h-1)*srcPitch+row {
		return nil, fmt.Errorf("%d source bytes with pitch %d too small for %dx%d image",
			len(pixels), srcPitch, i.desc.Width, i.desc.Height)
	}
	data := pixels
	if srcPitch != i.pitch || uint64(len(pixels)) < i.pitch*h {
		data = make([]byte, i.pitch*h)
		for y := range h {
			copy(data[y*i.pitch:y*i.pitch+row], pixels[y*srcPitch:y*srcPitch+row])
		}
	}
	buf, err := d.hal.CreateBuffer(&hal.BufferDescriptor{
		Label: "ggbench upload",
		Size:  i.pitch * h,
		Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: upload buffer: %w", ggbench.ErrResourceCreation, err)
	}
	if err := d.queue.WriteBuffer(buf, 0, data[:i.pitch*h]); err != nil {
		d.hal.DestroyBuffer(buf)
		return nil, fmt.Errorf("wgpu: write upload buffer: %w", err)
	}
	return buf, nil
}
