package ggbench

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// ImageFormat is an encoded image container format.
type ImageFormat uint8

const (
	// FormatPNG is lossless PNG. Quality selects the compression level.
	FormatPNG ImageFormat = iota

	// FormatJPEG is baseline JPEG. Quality is passed to the encoder.
	FormatJPEG

	// FormatBMP is uncompressed BMP. Quality is ignored.
	FormatBMP

	// FormatTIFF is TIFF. Quality 100 selects deflate, anything lower no compression.
	FormatTIFF
)

// String returns the lower-case format name.
func (f ImageFormat) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	default:
		return fmt.Sprintf("ImageFormat(%d)", int(f))
	}
}

// Extension returns the file extension for the format, including the dot.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatBMP:
		return ".bmp"
	case FormatTIFF:
		return ".tiff"
	default:
		return ".png"
	}
}

// ParseFormat parses a format name such as "png" or "jpg".
func ParseFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "bmp":
		return FormatBMP, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Encode encodes img in the given format. Quality is clamped to [0, 100].
// Encoding the same pixels twice yields identical bytes.
func Encode(img image.Image, format ImageFormat, quality int) ([]byte, error) {
	quality = max(0, min(quality, 100))

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: pngCompression(quality)}
		err = enc.Encode(&buf, img)
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: max(quality, 1)})
	case FormatBMP:
		err = bmp.Encode(&buf, img)
	case FormatTIFF:
		opts := &tiff.Options{Compression: tiff.Uncompressed}
		if quality == 100 {
			opts.Compression = tiff.Deflate
		}
		err = tiff.Encode(&buf, img, opts)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncoding, format, err)
	}
	return buf.Bytes(), nil
}

// pngCompression maps quality to a PNG compression level. Quality only
// trades speed for size here; the pixels are always lossless.
func pngCompression(quality int) png.CompressionLevel {
	switch {
	case quality >= 90:
		return png.BestCompression
	case quality >= 50:
		return png.DefaultCompression
	case quality > 0:
		return png.BestSpeed
	default:
		return png.NoCompression
	}
}

// Straight converts any image to straight-alpha RGBA with a tight stride.
// Canvas snapshots go through it so that both backends encode the same
// pixel layout.
func Straight(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Stride == 4*n.Rect.Dx() {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
