// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"image"
	"sync"

	"github.com/gogpu/stripframe/internal/strip"
	"github.com/gogpu/stripframe/surface"
)

// Buffers owns the persistent per-strip drawing surfaces and the published
// composite image.
//
// The surface pool is allocated lazily and reallocated only when the canvas
// shape or worker count changes, never per frame. Workers borrow their strip
// surface for the duration of one frame; the composite is handed off by
// reference replacement, so a reader holding the previous image keeps a
// fully valid frame.
//
// Thread safety: all methods are safe for concurrent use. One mutex guards
// the pool, the valid flag, and the composite reference.
type Buffers struct {
	mu sync.Mutex

	// valid reports whether strips match the last requested shape.
	valid bool

	width   int
	height  int
	workers int

	// strips holds one surface per strip slot; entries for zero-height
	// strips are nil.
	strips []*surface.Surface

	// composite is the most recently published full frame, nil before the
	// first frame completes.
	composite *image.RGBA
}

// NewBuffers creates an empty buffer manager. Surfaces are allocated on the
// first Ensure call.
func NewBuffers() *Buffers {
	return &Buffers{}
}

// Ensure makes the surface pool valid for the requested shape, reallocating
// it if the shape or worker count changed. It reports whether a valid pool
// is available; degenerate shapes (non-positive dimensions or workers < 1)
// leave the pool untouched and report false.
//
// Ensure is safe to call concurrently with Invalidate arriving from a
// resize notification: the check-then-allocate sequence runs under the
// lock, so a pool is never allocated twice for the same shape.
func (b *Buffers) Ensure(width, height, workers int) bool {
	if width <= 0 || height <= 0 || workers < 1 {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.valid && b.width == width && b.height == height && b.workers == workers {
		return true
	}

	heights := strip.Heights(height, workers)
	b.strips = make([]*surface.Surface, workers)
	for i, h := range heights {
		if h == 0 {
			continue
		}
		b.strips[i] = surface.New(width, h)
	}

	b.width = width
	b.height = height
	b.workers = workers
	b.valid = true
	return true
}

// Invalidate clears the valid flag and releases the persistent surfaces.
// The next Ensure call reallocates. Called on canvas resize or worker-count
// change.
func (b *Buffers) Invalidate() {
	b.mu.Lock()
	b.valid = false
	b.strips = nil
	b.mu.Unlock()
}

// Strip returns the persistent surface for the given strip index, or nil
// for zero-height strips, invalid indices, or an invalid pool.
func (b *Buffers) Strip(i int) *surface.Surface {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.valid || i < 0 || i >= len(b.strips) {
		return nil
	}
	return b.strips[i]
}

// StripCount returns the number of strip slots in the current pool, or 0
// if the pool is invalid.
func (b *Buffers) StripCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.valid {
		return 0
	}
	return len(b.strips)
}

// PublishComposite atomically replaces the published composite image.
// The previous image stays valid for any reader already holding it.
func (b *Buffers) PublishComposite(img *image.RGBA) {
	b.mu.Lock()
	b.composite = img
	b.mu.Unlock()
}

// ReadComposite returns the most recently published composite, or nil
// before the first frame completes. The returned image is never mutated
// after publication; readers may hold it across frames.
func (b *Buffers) ReadComposite() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.composite
}
