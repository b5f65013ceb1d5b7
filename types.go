package stripframe

import "github.com/gogpu/stripframe/frame"

// Workload is the pluggable simulation and drawing strategy supplied at
// construction. See [frame.Workload].
type Workload = frame.Workload

// FrameSnapshot is the immutable per-frame capture of simulation state.
// See [frame.Snapshot].
type FrameSnapshot = frame.Snapshot
