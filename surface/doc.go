// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the per-frame drawing surface used by renderers.
//
// A Surface pairs a gg.Context canvas with a way to turn it into encoded
// image bytes. Two variants exist:
//
//   - CPU surfaces draw into a gg pixmap and encode it directly.
//   - GPU surfaces draw into a gg pixmap that is flushed into a device image
//     and read back from host-visible memory (see package target).
//
// A Factory creates surfaces of one variant. Renderers receive a Factory and
// never construct surfaces themselves.
//
// # Usage
//
//	var f surface.Factory = surface.NewCPUFactory()
//	if gpu, err := surface.OpenGPUFactory(driver.Default()); err == nil {
//	    f = gpu
//	}
//	defer f.Close()
//
//	s, err := f.CreateSurface(800, 600)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	dc := s.Canvas()
//	dc.ClearWithColor(gg.RGBA{R: 1, G: 1, B: 1, A: 1})
//	data, err := s.Encode(ggbench.FormatPNG, 100)
//
// Surfaces are NOT thread-safe. Factories are.
package surface
