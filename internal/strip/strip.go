// Package strip computes the horizontal strip partition of a canvas.
//
// A canvas of height H rendered by W workers is divided into W horizontal
// strips, ordered top to bottom. Rows are spread as evenly as possible: the
// first H mod W strips are one row taller than the rest, so heights always
// sum to exactly H and differ by at most one. Strips may have height zero
// only when the worker count exceeds the canvas height.
package strip

// Descriptor identifies one horizontal strip of the canvas.
type Descriptor struct {
	// Index is the 0-based strip index, ordered top to bottom.
	Index int

	// Y is the vertical pixel offset of the strip's first row.
	Y int

	// Height is the strip height in pixels. May be zero when the worker
	// count exceeds the canvas height.
	Height int
}

// Heights returns the strip heights for the given canvas height and worker
// count. Every strip gets height/workers rows and the first height mod
// workers strips get one extra row, so no strip is starved while earlier
// strips still hold rows.
//
// Heights(200, 4) = [50 50 50 50]
// Heights(200, 3) = [67 67 66]
// Heights(7, 5)   = [2 2 1 1 1]
// Heights(3, 5)   = [1 1 1 0 0]
//
// Returns nil if workers < 1 or height < 0.
func Heights(height, workers int) []int {
	if workers < 1 || height < 0 {
		return nil
	}

	base := height / workers
	extra := height % workers

	heights := make([]int, workers)
	for i := range heights {
		heights[i] = base
		if i < extra {
			heights[i]++
		}
	}
	return heights
}

// Partition returns the full strip descriptors for the given canvas height
// and worker count. Offsets are cumulative, so strip i starts where strip
// i-1 ends. Returns nil if workers < 1 or height < 0.
func Partition(height, workers int) []Descriptor {
	heights := Heights(height, workers)
	if heights == nil {
		return nil
	}

	descs := make([]Descriptor, workers)
	y := 0
	for i, h := range heights {
		descs[i] = Descriptor{Index: i, Y: y, Height: h}
		y += h
	}
	return descs
}
