// Package pace implements the cadence-controlling loop that drives render
// cycles at a target frame rate with drift correction.
package pace

import (
	"sync"
	"time"
)

// fallbackDT is the logic-update delta used when the target FPS is
// non-positive.
const fallbackDT = 1.0 / 30.0

// defaultResync is the drift threshold beyond which the scheduling baseline
// snaps to the current time instead of catching up a backlog (debugger
// pauses, system suspend).
const defaultResync = time.Second

// Pacer runs a single long-lived background goroutine that invokes a tick
// function once per frame interval.
//
// Each iteration calls tick with a fixed delta of 1/targetFPS seconds,
// measures the elapsed wall time, and sleeps for the remainder of the
// interval, floored at zero. The scheduling baseline advances by exactly
// one interval per frame, not by wall time, so occasional overruns are
// averaged out instead of permanently shifting the cadence. When the
// baseline falls more than the resync threshold behind real time, it snaps
// to the current time rather than issuing a burst of zero-sleep frames.
type Pacer struct {
	interval time.Duration
	dt       float64
	tick     func(dt float64)
	resync   time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// New creates a pacer targeting the given FPS. tick is invoked from the
// pacing goroutine only. A non-positive fps falls back to a constant
// update delta with a zero sleep interval.
func New(targetFPS int, tick func(dt float64)) *Pacer {
	p := &Pacer{
		tick:   tick,
		resync: defaultResync,
	}
	if targetFPS > 0 {
		p.interval = time.Second / time.Duration(targetFPS)
		p.dt = 1.0 / float64(targetFPS)
	} else {
		p.dt = fallbackDT
	}
	return p
}

// SetResyncThreshold overrides the drift threshold. Used by tests to avoid
// real one-second stalls; production code keeps the default.
func (p *Pacer) SetResyncThreshold(d time.Duration) {
	p.resync = d
}

// Interval returns the frame interval.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Start launches the pacing goroutine. It is a no-op if already running.
func (p *Pacer) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.loop(p.stop, p.done)
}

// Stop signals the pacing goroutine and waits for it to exit. It is a
// no-op if not running.
func (p *Pacer) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	<-done
}

// loop is the pacing goroutine body.
func (p *Pacer) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	baseline := time.Now()
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		p.tick(p.dt)

		// Advance by exactly one interval to hold long-run cadence.
		baseline = baseline.Add(p.interval)

		now := time.Now()
		if now.Sub(baseline) > p.resync {
			// Too far behind to catch up frame by frame.
			baseline = now
		}

		sleep := baseline.Sub(now)
		if sleep <= 0 {
			continue // never sleeps negative, never blocks to catch up
		}

		timer.Reset(sleep)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
