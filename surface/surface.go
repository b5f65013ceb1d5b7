// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the CPU raster surface that strip workers draw
// into.
//
// A Surface wraps an *image.RGBA and exposes the small drawing primitive
// set the engine needs: solid clears, axis-aligned rectangle fills, convex
// quad fills (for rotated rectangles), image blits, and immutable
// snapshots. Surfaces are not safe for concurrent use; the engine
// guarantees each surface has exactly one writer per frame.
package surface

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/gputypes"
)

// Surface is a CPU-backed drawing target.
type Surface struct {
	width  int
	height int
	img    *image.RGBA
}

// New creates a surface with the given dimensions.
// Dimensions smaller than 1 are clamped to 1.
func New(width, height int) *Surface {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Surface{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.width }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.height }

// Format returns the pixel format of the surface.
func (s *Surface) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Image returns the underlying image. The returned image shares memory
// with the surface; use Snapshot for an independent copy.
func (s *Surface) Image() *image.RGBA { return s.img }

// Pixels returns direct access to the pixel data in RGBA order.
func (s *Surface) Pixels() []byte { return s.img.Pix }

// Stride returns the number of bytes per row.
func (s *Surface) Stride() int { return s.img.Stride }

// Clear fills the entire surface with the given color.
func (s *Surface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// FillRect fills the rectangle r, clipped to the surface bounds, with the
// given color using source-over blending.
func (s *Surface) FillRect(r image.Rectangle, c color.Color) {
	r = r.Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(s.img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// FillQuad fills a convex quadrilateral given by four corner points in
// order (clockwise or counter-clockwise), clipped to the surface bounds.
// Coordinates are in surface-local pixel space. The fill is hard-edged;
// each pixel is covered when its center lies inside the quad.
func (s *Surface) FillQuad(quad [4][2]float64, c color.Color) {
	minY, maxY := quad[0][1], quad[0][1]
	for _, p := range quad[1:] {
		if p[1] < minY {
			minY = p[1]
		}
		if p[1] > maxY {
			maxY = p[1]
		}
	}

	y0 := int(minY)
	if y0 < 0 {
		y0 = 0
	}
	y1 := int(maxY) + 1
	if y1 > s.height {
		y1 = s.height
	}

	src := image.NewUniform(c)
	for y := y0; y < y1; y++ {
		cy := float64(y) + 0.5
		left, right, ok := quadSpan(quad, cy)
		if !ok {
			continue
		}

		x0 := int(left + 0.5)
		x1 := int(right + 0.5)
		if x0 < 0 {
			x0 = 0
		}
		if x1 > s.width {
			x1 = s.width
		}
		if x0 >= x1 {
			continue
		}
		draw.Draw(s.img, image.Rect(x0, y, x1, y+1), src, image.Point{}, draw.Over)
	}
}

// quadSpan returns the horizontal span covered by the quad at scanline cy.
// It intersects cy with each of the four edges and reports the min and max
// crossing, which is sufficient for convex quads.
func quadSpan(quad [4][2]float64, cy float64) (left, right float64, ok bool) {
	first := true
	for i := range 4 {
		x0, y0 := quad[i][0], quad[i][1]
		x1, y1 := quad[(i+1)%4][0], quad[(i+1)%4][1]

		if (y0 <= cy) == (y1 <= cy) {
			continue // edge does not cross the scanline
		}

		t := (cy - y0) / (y1 - y0)
		x := x0 + t*(x1-x0)
		if first {
			left, right = x, x
			first = false
			continue
		}
		if x < left {
			left = x
		}
		if x > right {
			right = x
		}
	}
	return left, right, !first
}

// DrawImage blits src onto the surface with its top-left corner at the
// given point, clipped to the surface bounds.
func (s *Surface) DrawImage(src image.Image, at image.Point) {
	r := src.Bounds().Sub(src.Bounds().Min).Add(at)
	draw.Draw(s.img, r, src, src.Bounds().Min, draw.Over)
}

// Snapshot returns an independent copy of the current surface contents.
func (s *Surface) Snapshot() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	copy(out.Pix, s.img.Pix)
	return out
}
