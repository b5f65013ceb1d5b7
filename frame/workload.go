// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"image"

	"github.com/gogpu/stripframe/surface"
)

// Workload is the pluggable simulation and drawing strategy supplied by the
// engine's caller.
//
// Update and Snapshot are invoked only from the engine's pacing goroutine.
// RenderStrip is invoked concurrently from worker goroutines, once per
// non-empty strip per frame, and must confine its writes to dst; all shared
// state it needs arrives by value in the snapshot.
type Workload interface {
	// Update advances the simulation by dt seconds and reports whether
	// the visible state changed. A false return lets the engine skip the
	// next frame entirely.
	Update(dt float64) bool

	// Snapshot captures the current simulation state by value.
	Snapshot() Snapshot

	// RenderStrip draws the strip with the given index into dst.
	// strip is the strip's rectangle in canvas coordinates; strip.Min.Y
	// is the vertical offset of dst's first row. snap is the frame's
	// state capture.
	RenderStrip(dst *surface.Surface, strip image.Rectangle, index int, snap Snapshot)
}
