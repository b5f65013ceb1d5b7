// Package sched implements the per-frame strip scheduling cycle: fan-out of
// strip rendering tasks to the worker pool with staggered launch, fan-in on
// the completion barrier, and compositing of the finished strips into one
// published image.
package sched

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/stripframe/frame"
	"github.com/gogpu/stripframe/internal/parallel"
	"github.com/gogpu/stripframe/internal/strip"
	"github.com/gogpu/stripframe/surface"
)

// Config carries the scheduler's fixed per-activation parameters.
type Config struct {
	// Workers is the strip count and pool size.
	Workers int

	// Stagger is the busy-wait inserted between successive strip
	// dispatches, applied to all but the last launch. Spawning every
	// worker in the same instant causes a synchronized scheduling burst
	// and visible frame-time spikes; a short stagger smooths CPU load.
	Stagger time.Duration

	// Background is the clear color applied to each strip surface before
	// its worker draws.
	Background color.Color

	// Logger receives warnings for swallowed worker failures. May be nil.
	Logger *slog.Logger

	// Notify, if non-nil, receives a non-blocking signal after each
	// published frame. Signals coalesce when the receiver lags; the
	// render cycle never blocks on presentation.
	Notify chan<- struct{}
}

// Scheduler runs one render cycle per pacing tick.
//
// The pacing goroutine is the only caller of RunCycle. Resize, MarkDirty
// and Terminate may be called from any goroutine.
type Scheduler struct {
	buffers  *frame.Buffers
	pool     *parallel.Pool
	barrier  *parallel.Barrier
	workload frame.Workload
	cfg      Config

	// geoMu guards the canvas dimensions, which the host mutates via
	// resize notifications while the pacing loop runs.
	geoMu  sync.Mutex
	width  int
	height int

	// needsRedraw gates the cycle; cleared after a published frame, set
	// by MarkDirty whenever the logic hook reports a state change.
	needsRedraw atomic.Bool

	// terminated is checked by the cycle and by the barrier wait.
	terminated atomic.Bool

	// stripImages holds the per-strip snapshots collected by workers.
	// Entries persist across cycles, so a failed worker leaves its band
	// stale rather than tearing the frame.
	stripImages []*image.RGBA
}

// New creates a scheduler rendering through the given pool into the given
// buffers. The pool must have exactly cfg.Workers workers.
func New(buffers *frame.Buffers, pool *parallel.Pool, workload frame.Workload, width, height int, cfg Config) *Scheduler {
	if cfg.Background == nil {
		cfg.Background = color.Black
	}
	return &Scheduler{
		buffers:     buffers,
		pool:        pool,
		barrier:     parallel.NewBarrier(),
		workload:    workload,
		cfg:         cfg,
		width:       width,
		height:      height,
		stripImages: make([]*image.RGBA, cfg.Workers),
	}
}

// MarkDirty requests a redraw on the next cycle.
func (s *Scheduler) MarkDirty() {
	s.needsRedraw.Store(true)
}

// Resize updates the canvas dimensions, invalidates the surface pool and
// forces a redraw on the next cycle.
func (s *Scheduler) Resize(width, height int) {
	s.geoMu.Lock()
	s.width = width
	s.height = height
	s.geoMu.Unlock()

	s.buffers.Invalidate()
	s.MarkDirty()
}

// Terminate marks the scheduler as stopping and force-releases the barrier
// so a blocked RunCycle returns. The scheduler must not be reused after
// Terminate; a new one is built on reactivation.
func (s *Scheduler) Terminate() {
	s.terminated.Store(true)
	s.barrier.Release()
}

// RunCycle renders one frame: snapshot, fan-out, fan-in, composite,
// publish. Skipped entirely when no redraw is needed or the configuration
// is degenerate.
func (s *Scheduler) RunCycle() {
	if !s.needsRedraw.Load() || s.terminated.Load() {
		return
	}

	// Capture once so every worker observes identical state.
	snap := s.workload.Snapshot()

	s.geoMu.Lock()
	width, height := s.width, s.height
	s.geoMu.Unlock()

	if !s.buffers.Ensure(width, height, s.cfg.Workers) {
		return // degenerate shape; retried next tick
	}

	descs := strip.Partition(height, s.cfg.Workers)
	s.barrier.Arm(s.cfg.Workers)

	for i, d := range descs {
		if d.Height == 0 {
			// Nothing to draw; the strip still counts toward the barrier.
			s.barrier.Done()
			continue
		}

		surf := s.buffers.Strip(i)
		if surf == nil {
			s.barrier.Done()
			continue
		}
		surf.Clear(s.cfg.Background)

		task := stripTask{
			surf:  surf,
			rect:  image.Rect(0, d.Y, width, d.Y+d.Height),
			index: d.Index,
			snap:  snap,
		}
		if !s.pool.Dispatch(i, func() { s.renderStrip(task) }) {
			// Pool is closing; account for the strip ourselves so the
			// barrier cannot deadlock.
			s.barrier.Done()
			continue
		}

		if i < len(descs)-1 {
			parallel.SpinWait(s.cfg.Stagger)
		}
	}

	complete := s.barrier.Wait()
	if !complete || s.terminated.Load() {
		return
	}

	s.publish(width, height, descs)
	s.needsRedraw.Store(false)
}

// stripTask is the immutable unit of work handed to one worker.
type stripTask struct {
	surf  *surface.Surface
	rect  image.Rectangle
	index int
	snap  frame.Snapshot
}

// renderStrip runs on a worker goroutine. Completion is signaled on every
// exit path, including panics in the workload's draw callback; a failed
// strip is skipped, not retried, and the frame proceeds with whatever
// content its band already holds.
func (s *Scheduler) renderStrip(t stripTask) {
	defer s.barrier.Done()
	defer func() {
		if r := recover(); r != nil {
			if s.cfg.Logger != nil {
				s.cfg.Logger.Warn("strip render failed",
					slog.Int("strip", t.index),
					slog.Any("panic", r))
			}
		}
	}()

	s.workload.RenderStrip(t.surf, t.rect, t.index, t.snap)
	s.stripImages[t.index] = t.surf.Snapshot()
}

// publish composites every collected strip snapshot at its vertical offset
// and hands the finished image to the buffer manager.
func (s *Scheduler) publish(width, height int, descs []strip.Descriptor) {
	composite := image.NewRGBA(image.Rect(0, 0, width, height))

	for i, d := range descs {
		if d.Height == 0 || i >= len(s.stripImages) {
			continue
		}
		img := s.stripImages[i]
		if img == nil {
			continue // worker failed before producing a snapshot
		}
		dst := image.Rect(0, d.Y, width, d.Y+d.Height)
		draw.Draw(composite, dst, img, image.Point{}, draw.Src)
	}

	s.buffers.PublishComposite(composite)

	if s.cfg.Notify != nil {
		select {
		case s.cfg.Notify <- struct{}{}:
		default:
		}
	}
}
