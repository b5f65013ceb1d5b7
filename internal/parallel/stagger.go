package parallel

import "time"

// SpinWait busy-waits for approximately d.
//
// The launch stagger between successive strip dispatches sits far below
// timer resolution, so a sleeping wait would either round to zero or
// oversleep by orders of magnitude. A spin keeps the delay at the intended
// sub-microsecond scale. Callers must keep d small; the total dispatch
// latency grows as workers x d.
func SpinWait(d time.Duration) {
	if d <= 0 {
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}
