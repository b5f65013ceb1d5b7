// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bounce provides the reference workload: a rotating rectangle
// bouncing around the canvas.
package bounce

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/gogpu/stripframe/frame"
	"github.com/gogpu/stripframe/surface"
)

// Defaults for a freshly constructed workload.
const (
	defaultSize  = 80.0
	defaultSpeed = 160.0 // pixels per second
	defaultSpin  = 1.2   // radians per second
)

// Workload animates a bouncing, rotating rectangle.
//
// Update and Snapshot are driven from the engine's pacing goroutine;
// SetActive and Resize may be called from the host. RenderStrip runs on
// worker goroutines and reads only the by-value snapshot it is handed.
type Workload struct {
	mu     sync.Mutex
	bounds frame.Vec2
	pos    frame.Vec2 // top-left corner
	vel    frame.Vec2
	size   frame.Vec2
	angle  float64
	spin   float64
	active bool

	fill color.RGBA
}

// New creates a workload for a canvas of the given size, with the
// rectangle starting in the top-left quadrant moving down-right.
func New(width, height int) *Workload {
	return &Workload{
		bounds: frame.Vec2{X: float64(width), Y: float64(height)},
		pos:    frame.Vec2{X: float64(width) / 8, Y: float64(height) / 8},
		vel:    frame.Vec2{X: defaultSpeed, Y: defaultSpeed * 0.75},
		size:   frame.Vec2{X: defaultSize, Y: defaultSize * 0.625},
		spin:   defaultSpin,
		active: true,
		fill:   color.RGBA{R: 64, G: 160, B: 255, A: 255},
	}
}

// SetActive starts or freezes the animation.
func (w *Workload) SetActive(active bool) {
	w.mu.Lock()
	w.active = active
	w.mu.Unlock()
}

// Resize updates the bounce bounds after a canvas size change.
func (w *Workload) Resize(width, height int) {
	w.mu.Lock()
	w.bounds = frame.Vec2{X: float64(width), Y: float64(height)}
	w.clampLocked()
	w.mu.Unlock()
}

// Update advances the simulation by dt seconds. It reports true whenever
// the animation is active, since the rectangle is always in motion.
func (w *Workload) Update(dt float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.active || dt <= 0 {
		return false
	}

	w.pos.X += w.vel.X * dt
	w.pos.Y += w.vel.Y * dt

	// Reflect off the canvas edges, clamping so the rectangle never
	// escapes even after a large dt.
	if w.pos.X < 0 {
		w.pos.X = 0
		w.vel.X = math.Abs(w.vel.X)
	}
	if w.pos.X+w.size.X > w.bounds.X {
		w.pos.X = w.bounds.X - w.size.X
		w.vel.X = -math.Abs(w.vel.X)
	}
	if w.pos.Y < 0 {
		w.pos.Y = 0
		w.vel.Y = math.Abs(w.vel.Y)
	}
	if w.pos.Y+w.size.Y > w.bounds.Y {
		w.pos.Y = w.bounds.Y - w.size.Y
		w.vel.Y = -math.Abs(w.vel.Y)
	}

	w.angle = math.Mod(w.angle+w.spin*dt, 2*math.Pi)
	return true
}

// clampLocked keeps the rectangle inside the bounds after a resize.
func (w *Workload) clampLocked() {
	if w.pos.X+w.size.X > w.bounds.X {
		w.pos.X = math.Max(0, w.bounds.X-w.size.X)
	}
	if w.pos.Y+w.size.Y > w.bounds.Y {
		w.pos.Y = math.Max(0, w.bounds.Y-w.size.Y)
	}
}

// Snapshot captures the current state by value.
func (w *Workload) Snapshot() frame.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return frame.Snapshot{
		Object:   frame.RectF{X: w.pos.X, Y: w.pos.Y, W: w.size.X, H: w.size.Y},
		Velocity: w.vel,
		Angle:    w.angle,
		Active:   w.active,
	}
}

// RenderStrip draws the rectangle's intersection with the strip. The strip
// surface arrives pre-cleared; coordinates in the snapshot are canvas
// space, so the quad is shifted up by the strip's vertical offset.
func (w *Workload) RenderStrip(dst *surface.Surface, strip image.Rectangle, index int, snap frame.Snapshot) {
	c := snap.Object.Center()
	hw, hh := snap.Object.W/2, snap.Object.H/2
	sin, cos := math.Sincos(snap.Angle)

	var quad [4][2]float64
	for i, corner := range [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}} {
		x := corner[0]*cos - corner[1]*sin
		y := corner[0]*sin + corner[1]*cos
		quad[i] = [2]float64{c.X + x, c.Y + y - float64(strip.Min.Y)}
	}

	dst.FillQuad(quad, w.fill)
}
