package sched

import (
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/stripframe/frame"
	"github.com/gogpu/stripframe/internal/parallel"
	"github.com/gogpu/stripframe/surface"
)

// testWorkload paints each strip a solid color derived from its index so
// the composite can be checked band by band.
type testWorkload struct {
	snapshots atomic.Int64

	mu      sync.Mutex
	renders []int

	panicOn int           // strip index that panics; -1 for none
	block   chan struct{} // if non-nil, RenderStrip waits on it
}

func newTestWorkload() *testWorkload {
	return &testWorkload{panicOn: -1}
}

func (w *testWorkload) Update(dt float64) bool { return true }

func (w *testWorkload) Snapshot() frame.Snapshot {
	w.snapshots.Add(1)
	return frame.Snapshot{Active: true}
}

func (w *testWorkload) RenderStrip(dst *surface.Surface, strip image.Rectangle, index int, snap frame.Snapshot) {
	if w.block != nil {
		<-w.block
	}
	if index == w.panicOn {
		panic("injected render failure")
	}

	w.mu.Lock()
	w.renders = append(w.renders, index)
	w.mu.Unlock()

	dst.Clear(stripColor(index))
}

func stripColor(index int) color.RGBA {
	return color.RGBA{R: uint8(10 + index*20), A: 255}
}

func newScheduler(t *testing.T, w frame.Workload, width, height, workers int) (*Scheduler, *parallel.Pool) {
	t.Helper()
	return newSchedulerNotify(t, w, width, height, workers, nil)
}

func newSchedulerNotify(t *testing.T, w frame.Workload, width, height, workers int, notify chan<- struct{}) (*Scheduler, *parallel.Pool) {
	t.Helper()
	pool := parallel.NewPool(workers, nil)
	t.Cleanup(pool.Close)

	s := New(frame.NewBuffers(), pool, w, width, height, Config{
		Workers: workers,
		Stagger: 150 * time.Nanosecond,
		Notify:  notify,
	})
	return s, pool
}

// =============================================================================
// Cycle Gating Tests
// =============================================================================

func TestRunCycle_SkippedWhenClean(t *testing.T) {
	w := newTestWorkload()
	s, _ := newScheduler(t, w, 100, 40, 2)

	s.RunCycle() // never marked dirty

	if w.snapshots.Load() != 0 {
		t.Error("clean cycle captured a snapshot")
	}
	if s.buffers.ReadComposite() != nil {
		t.Error("clean cycle published a frame")
	}
}

func TestRunCycle_ClearsDirtyFlagAfterPublish(t *testing.T) {
	w := newTestWorkload()
	s, _ := newScheduler(t, w, 100, 40, 2)

	s.MarkDirty()
	s.RunCycle()
	if got := w.snapshots.Load(); got != 1 {
		t.Fatalf("snapshots = %d, want 1", got)
	}

	s.RunCycle() // flag cleared; must be a no-op
	if got := w.snapshots.Load(); got != 1 {
		t.Errorf("snapshots = %d after clean cycle, want 1", got)
	}
}

func TestRunCycle_DegenerateShapeSkipsSilently(t *testing.T) {
	w := newTestWorkload()
	s, _ := newScheduler(t, w, 0, 40, 2)

	s.MarkDirty()
	s.RunCycle()

	if s.buffers.ReadComposite() != nil {
		t.Error("degenerate shape published a frame")
	}

	// The cycle is retried once the shape becomes valid.
	s.Resize(100, 40)
	s.RunCycle()
	if s.buffers.ReadComposite() == nil {
		t.Error("no frame published after shape became valid")
	}
}

// =============================================================================
// Compositing Tests
// =============================================================================

func TestRunCycle_CompositesStripsInOrder(t *testing.T) {
	w := newTestWorkload()
	s, _ := newScheduler(t, w, 100, 90, 3)

	s.MarkDirty()
	s.RunCycle()

	img := s.buffers.ReadComposite()
	if img == nil {
		t.Fatal("no composite published")
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 90 {
		t.Fatalf("composite bounds = %v, want 100x90", img.Bounds())
	}

	// Strips of height 30 each: rows 0-29, 30-59, 60-89.
	for index, y := range []int{15, 45, 75} {
		want := stripColor(index)
		if got := img.RGBAAt(50, y); got != want {
			t.Errorf("row %d = %v, want strip %d color %v", y, got, index, want)
		}
	}
}

func TestRunCycle_ZeroHeightStripsSelfComplete(t *testing.T) {
	w := newTestWorkload()
	s, _ := newScheduler(t, w, 100, 3, 5)

	s.MarkDirty()

	done := make(chan struct{})
	go func() {
		s.RunCycle()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunCycle deadlocked with zero-height strips")
	}

	img := s.buffers.ReadComposite()
	if img == nil {
		t.Fatal("no composite published")
	}
	if img.Bounds().Dy() != 3 {
		t.Errorf("composite height = %d, want 3", img.Bounds().Dy())
	}

	w.mu.Lock()
	renders := len(w.renders)
	w.mu.Unlock()
	if renders != 3 {
		t.Errorf("renders = %d, want 3 (zero-height strips must not draw)", renders)
	}
}

// =============================================================================
// Failure Policy Tests
// =============================================================================

func TestRunCycle_WorkerPanicDoesNotDeadlockOrTearFrame(t *testing.T) {
	w := newTestWorkload()
	w.panicOn = 1
	s, _ := newScheduler(t, w, 100, 90, 3)

	s.MarkDirty()

	done := make(chan struct{})
	go func() {
		s.RunCycle()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunCycle deadlocked after worker panic")
	}

	img := s.buffers.ReadComposite()
	if img == nil {
		t.Fatal("panic in one strip suppressed the whole frame")
	}

	// Healthy strips keep their content.
	if got := img.RGBAAt(50, 15); got != stripColor(0) {
		t.Errorf("strip 0 band = %v, want %v", got, stripColor(0))
	}
	if got := img.RGBAAt(50, 75); got != stripColor(2) {
		t.Errorf("strip 2 band = %v, want %v", got, stripColor(2))
	}
	// The failed strip produced no snapshot; its band is blank.
	if got := img.RGBAAt(50, 45); got != (color.RGBA{}) {
		t.Errorf("failed strip band = %v, want blank", got)
	}
}

// =============================================================================
// Termination Tests
// =============================================================================

func TestTerminate_ReleasesBlockedCycle(t *testing.T) {
	w := newTestWorkload()
	w.block = make(chan struct{})
	s, pool := newScheduler(t, w, 100, 40, 2)

	s.MarkDirty()

	done := make(chan struct{})
	go func() {
		s.RunCycle()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond) // let workers block inside RenderStrip
	s.Terminate()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Terminate did not release the barrier wait")
	}

	if s.buffers.ReadComposite() != nil {
		t.Error("terminated cycle must not publish")
	}

	close(w.block)
	pool.Close()
}

func TestRunCycle_AfterTerminateIsNoOp(t *testing.T) {
	w := newTestWorkload()
	s, _ := newScheduler(t, w, 100, 40, 2)

	s.Terminate()
	s.MarkDirty()
	s.RunCycle()

	if w.snapshots.Load() != 0 {
		t.Error("terminated scheduler still captured a snapshot")
	}
}

// =============================================================================
// Notification Tests
// =============================================================================

func TestNotify_SignalsWithoutBlocking(t *testing.T) {
	w := newTestWorkload()
	ready := make(chan struct{}, 1)
	s, _ := newSchedulerNotify(t, w, 100, 40, 2, ready)

	// Publish several frames without anyone consuming; signals coalesce
	// rather than stalling the cycle.
	for range 3 {
		s.MarkDirty()
		s.RunCycle()
	}

	select {
	case <-ready:
	default:
		t.Error("no frame-ready signal pending after publishes")
	}
}

// =============================================================================
// Publication Integrity Tests
// =============================================================================

// stampWorkload clears every strip with a color derived from the frame's
// snapshot, so a correctly published composite is uniform: every pixel
// carries the same frame stamp.
type stampWorkload struct {
	frames atomic.Int64
}

func (w *stampWorkload) Update(dt float64) bool { return true }

func (w *stampWorkload) Snapshot() frame.Snapshot {
	return frame.Snapshot{Angle: float64(w.frames.Add(1)), Active: true}
}

func (w *stampWorkload) RenderStrip(dst *surface.Surface, strip image.Rectangle, index int, snap frame.Snapshot) {
	n := int(snap.Angle)
	dst.Clear(color.RGBA{R: uint8(n), G: uint8(n >> 8), B: uint8(^n), A: 255})
}

// TestPublish_ReaderNeverSeesTornFrame hammers ReadComposite from a reader
// goroutine while cycles publish stamped frames, checking every observed
// image is uniform. A reader racing publication must get either the old
// frame or the new one, never a mix.
func TestPublish_ReaderNeverSeesTornFrame(t *testing.T) {
	w := &stampWorkload{}
	s, _ := newScheduler(t, w, 64, 48, 4)

	done := make(chan struct{})
	var torn atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			img := s.buffers.ReadComposite()
			if img == nil {
				continue
			}
			r0, g0, b0 := img.Pix[0], img.Pix[1], img.Pix[2]
			for p := 4; p < len(img.Pix); p += 4 {
				if img.Pix[p] != r0 || img.Pix[p+1] != g0 || img.Pix[p+2] != b0 {
					torn.Store(true)
					return
				}
			}
		}
	}()

	for range 300 {
		s.MarkDirty()
		s.RunCycle()
	}
	close(done)
	wg.Wait()

	if torn.Load() {
		t.Fatal("reader observed a composite mixing two frames")
	}
}
