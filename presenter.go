// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stripframe

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"
	"time"

	xdraw "golang.org/x/image/draw"
)

// placeholderColor fills the destination before the first frame completes.
var placeholderColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// presenter tracks the measured real frame rate of the display side.
// Display rate is decoupled from production rate, so RealFPS may differ
// from the configured target under load.
type presenter struct {
	mu     sync.Mutex
	frames int
	mark   time.Time

	fps atomic.Int64
}

// Draw renders the most recently published composite into dst at dstRect,
// scaling as needed, with the given opacity in [0, 1]. Before the first
// frame completes, the destination is filled with a neutral placeholder.
//
// Draw is intended to be called from the host's paint cycle. It never
// blocks on frame production: whatever composite is currently published is
// drawn, and a production cycle in flight publishes only fully formed
// images.
func (e *Engine) Draw(dst draw.Image, dstRect image.Rectangle, opacity float64) {
	if dst == nil || dstRect.Empty() {
		return
	}

	img := e.buffers.ReadComposite()
	if img == nil {
		draw.Draw(dst, dstRect, image.NewUniform(placeholderColor), image.Point{}, draw.Src)
		return
	}

	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}

	src := img.Bounds()
	switch {
	case opacity == 1 && src.Dx() == dstRect.Dx() && src.Dy() == dstRect.Dy():
		draw.Draw(dst, dstRect, img, src.Min, draw.Src)

	case opacity == 1:
		xdraw.ApproxBiLinear.Scale(dst, dstRect, img, src, xdraw.Src, nil)

	default:
		scaled := image.NewRGBA(image.Rect(0, 0, dstRect.Dx(), dstRect.Dy()))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, src, xdraw.Src, nil)
		alpha := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
		draw.DrawMask(dst, dstRect, scaled, image.Point{}, alpha, image.Point{}, draw.Over)
	}

	e.present.record()
}

// RealFPS returns the measured display frame rate, updated once per second
// of wall time.
func (e *Engine) RealFPS() int {
	return int(e.present.fps.Load())
}

// record counts one successful draw and refreshes the measured FPS each
// time at least a second has elapsed since the last measurement point.
func (p *presenter) record() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if p.mark.IsZero() {
		p.mark = now
		p.frames = 1
		return
	}

	p.frames++
	if elapsed := now.Sub(p.mark); elapsed >= time.Second {
		p.fps.Store(int64(float64(p.frames)/elapsed.Seconds() + 0.5))
		p.frames = 0
		p.mark = now
	}
}
