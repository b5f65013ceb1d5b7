// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frame defines the per-frame data contract between the engine and
// its pluggable workload, and owns the persistent strip surfaces and the
// published composite image.
package frame

// Vec2 is a 2D vector in pixel units.
type Vec2 struct {
	X, Y float64
}

// RectF is an axis-aligned rectangle in floating-point pixel coordinates.
type RectF struct {
	X, Y, W, H float64
}

// Center returns the rectangle's center point.
func (r RectF) Center() Vec2 {
	return Vec2{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Snapshot is an immutable capture of simulation state for one frame.
//
// The scheduler captures a Snapshot by value once per cycle, before any
// strip is dispatched, so every worker in a frame observes identical state
// with no torn reads. Snapshots are stack-scoped to one cycle and are only
// ever shared by copy.
type Snapshot struct {
	// Object is the position rectangle of the animated object.
	Object RectF

	// Velocity is the object's velocity in pixels per second.
	Velocity Vec2

	// Angle is the object's rotation in radians.
	Angle float64

	// Active reports whether the simulation is animating.
	Active bool
}
