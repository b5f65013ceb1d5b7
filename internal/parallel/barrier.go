package parallel

import "sync"

// Barrier is the fan-in side of the per-frame fan-out/fan-in cycle.
//
// The orchestrator arms the barrier with the expected completion count,
// dispatches work, then waits. Each worker (and each self-completing
// zero-height strip) calls Done exactly once. Wait returns when the count
// reaches the armed target, or immediately after Release is called during
// termination.
type Barrier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	target   int
	count    int
	released bool
}

// NewBarrier creates an unarmed barrier.
func NewBarrier() *Barrier {
	b := &Barrier{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Arm resets the completion count to zero and sets the expected target.
// A released barrier stays released; termination is final for a given
// barrier, and a fresh one is created on reactivation.
func (b *Barrier) Arm(target int) {
	b.mu.Lock()
	b.target = target
	b.count = 0
	if target <= 0 {
		// Nothing to wait for; fire immediately.
		b.cond.Broadcast()
	}
	b.mu.Unlock()
}

// Done records one completion. The signal fires if and only if the count
// has reached the armed target.
func (b *Barrier) Done() {
	b.mu.Lock()
	b.count++
	if b.count >= b.target {
		b.cond.Broadcast()
	}
	b.mu.Unlock()
}

// Wait blocks until the completion count reaches the armed target or the
// barrier is released. It reports whether the target was actually reached.
func (b *Barrier) Wait() bool {
	b.mu.Lock()
	for b.count < b.target && !b.released {
		b.cond.Wait()
	}
	complete := b.count >= b.target
	b.mu.Unlock()
	return complete
}

// Release force-fires the barrier so a blocked Wait returns during
// termination. The release is sticky: every subsequent Wait returns
// immediately until the engine is torn down.
func (b *Barrier) Release() {
	b.mu.Lock()
	b.released = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

// Count returns the current completion count.
func (b *Barrier) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
