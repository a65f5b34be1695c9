// Package demo provides the frames rendered by the ggbench command.
package demo

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/ggbench/render"
	"github.com/gogpu/ggbench/surface"
)

// Scene draws a filled circle with an "ID: n" label on a transparent
// background. Colors derive from Seed and the frame number, so a frame
// renders the same pixels on every backend.
type Scene struct {
	Seed uint64

	font *text.FontSource
}

// NewScene loads the Go Regular font.
func NewScene(seed uint64) (*Scene, error) {
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("demo: load font: %w", err)
	}
	return &Scene{Seed: seed, font: src}, nil
}

// Close releases the font.
func (s *Scene) Close() error {
	return s.font.Close()
}

// Frames returns n draw functions.
func (s *Scene) Frames(n int) []render.FrameFunc {
	frames := make([]render.FrameFunc, n)
	for i := range frames {
		frames[i] = func(ctx context.Context, sf surface.Surface) error {
			return s.Draw(sf.Canvas(), i)
		}
	}
	return frames
}

// Draw renders frame number on dc.
func (s *Scene) Draw(dc *gg.Context, number int) error {
	rng := rand.New(rand.NewPCG(s.Seed, uint64(number)))
	r, g, b := rng.Float64(), rng.Float64(), rng.Float64()

	w, h := float64(dc.Width()), float64(dc.Height())
	size := min(w, h) * 0.8

	dc.ClearWithColor(gg.RGBA{R: 0, G: 0, B: 1, A: 0})

	dc.SetRGB(r, g, b)
	dc.DrawCircle(w/2, h/2, size/2)
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("demo: fill circle: %w", err)
	}

	dc.SetFont(s.font.Face(size * 0.25))
	dc.SetRGBA(1-r, 1-g, 1-b, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("ID: %d", number), w/2, h/2, 0.5, 0.5)
	return nil
}
