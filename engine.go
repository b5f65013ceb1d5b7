// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stripframe

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/gogpu/stripframe/frame"
	"github.com/gogpu/stripframe/internal/pace"
	"github.com/gogpu/stripframe/internal/parallel"
	"github.com/gogpu/stripframe/internal/sched"
)

// Engine is the frame-parallel rendering engine.
//
// An Engine owns one pacing goroutine and a bounded pool of worker
// goroutines while active. The host drives presentation by calling Draw
// from its own paint cycle; the engine never calls back into the host
// synchronously from a worker, and cross-thread notification is delivered
// asynchronously through the FrameReady channel.
//
// Thread safety: all exported methods are safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	workload frame.Workload
	buffers  *frame.Buffers

	pool      *parallel.Pool
	scheduler *sched.Scheduler
	pacer     *pace.Pacer

	active bool
	closed bool

	// ready outlives individual activations so hosts can subscribe once.
	ready chan struct{}

	present presenter
}

// New creates an engine for the given configuration and workload.
// The engine is created inactive; call Activate to start rendering.
func New(cfg Config, workload Workload) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if workload == nil {
		return nil, errors.New("stripframe: nil workload")
	}
	return &Engine{
		cfg:      cfg,
		workload: workload,
		buffers:  frame.NewBuffers(),
		ready:    make(chan struct{}, 1),
	}, nil
}

// Activate starts the pacing goroutine and the worker pool. It is a no-op
// if the engine is already active or closed.
func (e *Engine) Activate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activateLocked()
}

func (e *Engine) activateLocked() {
	if e.active || e.closed {
		return
	}

	e.pool = parallel.NewPool(e.cfg.Workers, pinFunc(e.cfg.Affinity))
	e.scheduler = sched.New(e.buffers, e.pool, e.workload, e.cfg.Width, e.cfg.Height, sched.Config{
		Workers:    e.cfg.Workers,
		Stagger:    e.cfg.LaunchStagger,
		Background: e.cfg.Background,
		Logger:     Logger(),
		Notify:     e.ready,
	})
	e.scheduler.MarkDirty()

	s := e.scheduler
	w := e.workload
	e.pacer = pace.New(e.cfg.TargetFPS, func(dt float64) {
		if w.Update(dt) {
			s.MarkDirty()
		}
		s.RunCycle()
	})
	e.pacer.Start()
	e.active = true

	Logger().Info("stripframe engine activated",
		slog.Int("workers", e.cfg.Workers),
		slog.Int("target_fps", e.cfg.TargetFPS),
		slog.String("affinity", string(e.cfg.Affinity.Mode)))
}

// Deactivate stops the pacing goroutine and joins every worker before
// returning: no worker still holds a reference to shared state once
// Deactivate completes. The last published composite remains readable.
// It is a no-op if the engine is not active.
func (e *Engine) Deactivate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deactivateLocked()
}

func (e *Engine) deactivateLocked() {
	if !e.active {
		return
	}

	// Force-release the barrier first so a cycle blocked on fan-in
	// observes termination, then join the pacer and the workers.
	e.scheduler.Terminate()
	e.pacer.Stop()
	e.pool.Close()

	e.pacer = nil
	e.pool = nil
	e.scheduler = nil
	e.active = false

	Logger().Info("stripframe engine deactivated")
}

// Close deactivates the engine and marks it unusable. Safe to call
// multiple times.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deactivateLocked()
	e.closed = true
}

// Active reports whether the engine is currently rendering.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// FrameReady returns a channel receiving one signal per published frame.
// Signals coalesce when the receiver lags; production never blocks on it.
// The channel is valid for the engine's whole lifetime, across
// activation cycles.
func (e *Engine) FrameReady() <-chan struct{} {
	return e.ready
}

// Resize informs the engine of a canvas size change. Buffers are
// invalidated and the next cycle reallocates them and redraws.
func (e *Engine) Resize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg.Width = width
	e.cfg.Height = height
	if e.active {
		e.scheduler.Resize(width, height)
	} else {
		e.buffers.Invalidate()
	}
}

// SetTargetFPS changes the target frame rate. Applied via a full
// stop/apply/restart cycle when the engine is active.
func (e *Engine) SetTargetFPS(fps int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.cfg
	next.TargetFPS = fps
	if err := next.Validate(); err != nil {
		return err
	}
	e.applyLocked(func() { e.cfg.TargetFPS = fps })
	return nil
}

// SetWorkerCount changes the worker (and strip) count. The old surface
// pool is discarded; the next cycle allocates exactly the new number of
// surfaces sized to the new strip heights. Applied via stop/apply/restart
// when active.
func (e *Engine) SetWorkerCount(workers int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.cfg
	next.Workers = workers
	if err := next.Validate(); err != nil {
		return err
	}
	e.applyLocked(func() {
		e.cfg.Workers = workers
		e.buffers.Invalidate()
	})
	return nil
}

// SetAffinity changes the worker CPU-pinning policy. Applied via
// stop/apply/restart when active.
func (e *Engine) SetAffinity(affinity AffinityConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.cfg
	next.Affinity = affinity
	if err := next.Validate(); err != nil {
		return err
	}
	e.applyLocked(func() { e.cfg.Affinity = affinity })
	return nil
}

// applyLocked applies a configuration mutation under the stop → mutate →
// restart discipline so in-flight workers never observe a live change.
func (e *Engine) applyLocked(mutate func()) {
	wasActive := e.active
	if wasActive {
		e.deactivateLocked()
	}
	mutate()
	if wasActive {
		e.activateLocked()
	}
}

// pinFunc translates an affinity policy into the pool's per-worker pin
// callback. Returns nil for the unpinned policy.
func pinFunc(a AffinityConfig) parallel.PinFunc {
	switch a.Mode {
	case AffinityFixed:
		core := a.Core
		return func(int) { _ = parallel.Pin(core) }
	case AffinityRandom:
		return func(int) { _ = parallel.Pin(rand.IntN(runtime.NumCPU())) }
	default:
		return nil
	}
}
