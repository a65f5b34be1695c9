package ggbench

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := range 6 {
		for x := range 8 {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 40), B: 200, A: 128})
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want ImageFormat
	}{
		{"png", FormatPNG},
		{".PNG", FormatPNG},
		{"jpg", FormatJPEG},
		{"jpeg", FormatJPEG},
		{"bmp", FormatBMP},
		{"tif", FormatTIFF},
		{"tiff", FormatTIFF},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnsupportedFormat) || !errors.Is(err, ErrEncoding) {
		t.Errorf("ParseFormat(gif) = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFormatExtension(t *testing.T) {
	for f, want := range map[ImageFormat]string{FormatPNG: ".png", FormatJPEG: ".jpg", FormatBMP: ".bmp", FormatTIFF: ".tiff"} {
		if got := f.Extension(); got != want {
			t.Errorf("%v.Extension() = %q, want %q", f, got, want)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	img := testImage()
	for _, f := range []ImageFormat{FormatPNG, FormatJPEG, FormatBMP, FormatTIFF} {
		a, err := Encode(img, f, 100)
		if err != nil {
			t.Fatalf("Encode(%v): %v", f, err)
		}
		b, err := Encode(img, f, 100)
		if err != nil {
			t.Fatal(err)
		}
		if len(a) == 0 || !bytes.Equal(a, b) {
			t.Errorf("%v: encoding is not deterministic", f)
		}
	}
}

func TestEncodePNGLossless(t *testing.T) {
	img := testImage()
	data, err := Encode(img, FormatPNG, 0)
	if err != nil {
		t.Fatal(err)
	}
	got, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if c := color.NRGBAModel.Convert(got.At(3, 2)).(color.NRGBA); c != img.NRGBAAt(3, 2) {
		t.Errorf("pixel = %v, want %v", c, img.NRGBAAt(3, 2))
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	if _, err := Encode(testImage(), ImageFormat(42), 100); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Encode = %v, want ErrUnsupportedFormat", err)
	}
}

func TestStraight(t *testing.T) {
	img := testImage()
	if Straight(img) != img {
		t.Error("tight NRGBA image was copied")
	}

	pre := image.NewRGBA(image.Rect(0, 0, 2, 1))
	pre.SetRGBA(0, 0, color.RGBA{R: 100, G: 50, B: 0, A: 128})
	got := Straight(pre).NRGBAAt(0, 0)
	if got.A != 128 || got.R < 198 || got.R > 200 {
		t.Errorf("Straight = %v, want R~199 A=128", got)
	}
}

func TestFrameError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&FrameError{Frame: 3, Err: cause})
	if !errors.Is(err, cause) {
		t.Error("FrameError does not unwrap")
	}
	var fe *FrameError
	if !errors.As(err, &fe) || fe.Frame != 3 {
		t.Errorf("errors.As = %v", fe)
	}
	if got := err.Error(); got != "ggbench: frame 3: boom" {
		t.Errorf("Error() = %q", got)
	}
}
