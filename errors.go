package ggbench

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all ggbench packages. Callers match with errors.Is.
var (
	// ErrDeviceInit is returned when no usable GPU device could be set up.
	// It is fatal to the GPU backend; callers may fall back to the CPU.
	ErrDeviceInit = errors.New("ggbench: device initialization failed")

	// ErrNoSuitableDevice is returned when every physical device is CPU class.
	ErrNoSuitableDevice = fmt.Errorf("%w: no non-CPU physical device", ErrDeviceInit)

	// ErrNoGraphicsQueue is returned when no queue family supports graphics and transfer.
	ErrNoGraphicsQueue = fmt.Errorf("%w: no graphics queue family", ErrDeviceInit)

	// ErrResourceCreation is returned when an image or its memory could not be
	// created or bound. It is fatal to one frame only.
	ErrResourceCreation = errors.New("ggbench: resource creation failed")

	// ErrNoSuitableMemoryType is returned when no memory type is both
	// host-visible and host-coherent for an image.
	ErrNoSuitableMemoryType = fmt.Errorf("%w: no host-visible coherent memory type", ErrResourceCreation)

	// ErrLayoutTransition is returned for an unsupported image layout change.
	ErrLayoutTransition = errors.New("ggbench: unsupported layout transition")

	// ErrEncoding is returned when pixels cannot be encoded.
	ErrEncoding = errors.New("ggbench: encoding failed")

	// ErrUnsupportedFormat is returned for an unknown image container format.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", ErrEncoding)

	// ErrNotFlushed is returned when pixels are read back before any flush.
	ErrNotFlushed = errors.New("ggbench: read back before flush")

	// ErrClosed is returned when a closed surface, target or factory is used.
	ErrClosed = errors.New("ggbench: use of closed resource")
)

// FrameError reports a failure of one frame of a batch, either from the
// caller-supplied draw function or from creating the frame surface.
type FrameError struct {
	Frame int
	Err   error
}

// Error implements the error interface.
func (e *FrameError) Error() string {
	return fmt.Sprintf("ggbench: frame %d: %v", e.Frame, e.Err)
}

// Unwrap returns the underlying error.
func (e *FrameError) Unwrap() error {
	return e.Err
}
