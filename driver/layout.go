package driver

import (
	"fmt"

	"github.com/gogpu/ggbench"
)

// ImageLayout is the state of an image with respect to the operations it
// can take part in.
type ImageLayout uint8

const (
	// LayoutUndefined is the initial layout; contents are undefined.
	LayoutUndefined ImageLayout = iota

	// LayoutGeneral supports all operations, including host access to
	// linear images.
	LayoutGeneral

	// LayoutColorAttachment is optimal for rendering.
	LayoutColorAttachment

	// LayoutTransferSrc is optimal as a copy source.
	LayoutTransferSrc

	// LayoutTransferDst is optimal as a copy destination.
	LayoutTransferDst

	// LayoutShaderReadOnly is optimal for sampling.
	LayoutShaderReadOnly
)

// String returns the layout name.
func (l ImageLayout) String() string {
	switch l {
	case LayoutUndefined:
		return "Undefined"
	case LayoutGeneral:
		return "General"
	case LayoutColorAttachment:
		return "ColorAttachment"
	case LayoutTransferSrc:
		return "TransferSrc"
	case LayoutTransferDst:
		return "TransferDst"
	case LayoutShaderReadOnly:
		return "ShaderReadOnly"
	default:
		return fmt.Sprintf("ImageLayout(%d)", int(l))
	}
}

// transitions lists the supported old -> new layout pairs.
// Nothing transitions back to Undefined.
var transitions = map[ImageLayout][]ImageLayout{
	LayoutUndefined:       {LayoutGeneral, LayoutColorAttachment, LayoutTransferDst},
	LayoutGeneral:         {LayoutColorAttachment, LayoutTransferSrc, LayoutTransferDst},
	LayoutColorAttachment: {LayoutGeneral, LayoutTransferSrc, LayoutTransferDst, LayoutShaderReadOnly},
	LayoutTransferSrc:     {LayoutGeneral, LayoutColorAttachment, LayoutTransferDst},
	LayoutTransferDst:     {LayoutGeneral, LayoutColorAttachment, LayoutTransferSrc, LayoutShaderReadOnly},
	LayoutShaderReadOnly:  {LayoutColorAttachment, LayoutTransferDst},
}

// ValidTransition reports whether an image may move from old to new.
func ValidTransition(old, new ImageLayout) bool {
	for _, l := range transitions[old] {
		if l == new {
			return true
		}
	}
	return false
}

// CheckTransition returns an error wrapping ggbench.ErrLayoutTransition when
// the transition is not supported.
func CheckTransition(old, new ImageLayout) error {
	if !ValidTransition(old, new) {
		return fmt.Errorf("%w: %s -> %s", ggbench.ErrLayoutTransition, old, new)
	}
	return nil
}
