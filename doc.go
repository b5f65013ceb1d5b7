// Package stripframe provides a frame-parallel, off-main-thread CPU
// rendering engine.
//
// # Overview
//
// stripframe produces complete raster frames on background workers while
// the host's presentation thread only ever displays the most recently
// finished frame. Each frame, the canvas is partitioned into horizontal
// strips, one per worker; workers render their strips into persistent
// surfaces, a barrier collects completion, and the strips are composited
// into a single published image. A pacing loop drives the cycle at a
// configurable target frame rate with drift correction.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/stripframe"
//		"github.com/gogpu/stripframe/workload/bounce"
//	)
//
//	cfg := stripframe.DefaultConfig()
//	eng, err := stripframe.New(cfg, bounce.New(cfg.Width, cfg.Height))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	eng.Activate()
//	// From the host's paint callback:
//	eng.Draw(dst, dst.Bounds(), 1.0)
//
// # Architecture
//
// The engine is organized into:
//   - Public API: Engine, Config, the frame package (Workload, Snapshot,
//     Buffers) and the surface package (drawing surfaces)
//   - Internal: strip (partition geometry), parallel (worker pool,
//     barrier, affinity), sched (per-frame cycle), pace (frame pacing)
//   - Workloads: bounce (reference bouncing-rectangle animation)
//
// # Threading Model
//
// Three thread roles: one long-lived pacing goroutine, a bounded pool of
// worker goroutines sized to the configured worker count, and the host's
// own presentation thread. The presenter never blocks on production; it
// reads whatever composite is currently published, so display rate is
// fully decoupled from production rate.
//
// # Logging
//
// stripframe produces no log output by default. Call SetLogger to enable
// structured logging via log/slog.
package stripframe
