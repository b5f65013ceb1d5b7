package stripframe

import (
	"image"
	"image/color"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/stripframe/frame"
	"github.com/gogpu/stripframe/surface"
)

// solidWorkload paints every strip a single color each frame.
type solidWorkload struct {
	fill color.RGBA
}

func (w *solidWorkload) Update(dt float64) bool { return true }

func (w *solidWorkload) Snapshot() frame.Snapshot {
	return frame.Snapshot{Active: true}
}

func (w *solidWorkload) RenderStrip(dst *surface.Surface, strip image.Rectangle, index int, snap frame.Snapshot) {
	dst.Clear(w.fill)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 64
	cfg.Height = 48
	cfg.TargetFPS = 60
	cfg.Workers = 3
	return cfg
}

func waitFrame(t *testing.T, e *Engine) {
	t.Helper()
	select {
	case <-e.FrameReady():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
	}
}

// =============================================================================
// Construction Tests
// =============================================================================

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TargetFPS = 0
	if _, err := New(cfg, &solidWorkload{}); err == nil {
		t.Error("expected error for zero target fps")
	}
}

func TestNew_RejectsNilWorkload(t *testing.T) {
	if _, err := New(testConfig(), nil); err == nil {
		t.Error("expected error for nil workload")
	}
}

func TestNew_StartsInactive(t *testing.T) {
	e, err := New(testConfig(), &solidWorkload{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if e.Active() {
		t.Error("new engine should be inactive")
	}
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestActivate_ProducesFrames(t *testing.T) {
	fill := color.RGBA{R: 200, G: 40, B: 40, A: 255}
	e, err := New(testConfig(), &solidWorkload{fill: fill})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	e.Activate()
	if !e.Active() {
		t.Fatal("engine should be active after Activate")
	}
	waitFrame(t, e)

	img := e.buffers.ReadComposite()
	if img == nil {
		t.Fatal("no composite published after frame signal")
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("composite bounds = %v, want 64x48", b)
	}
	if got := img.RGBAAt(32, 24); got != fill {
		t.Errorf("composite pixel = %v, want %v", got, fill)
	}
}

func TestActivate_Idempotent(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{})
	defer e.Close()

	e.Activate()
	e.Activate()
	if !e.Active() {
		t.Error("engine should remain active")
	}
}

func TestDeactivate_StopsAndKeepsLastFrame(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{fill: color.RGBA{A: 255}})
	defer e.Close()

	e.Activate()
	waitFrame(t, e)
	e.Deactivate()

	if e.Active() {
		t.Error("engine should be inactive after Deactivate")
	}
	if e.buffers.ReadComposite() == nil {
		t.Error("last composite should survive deactivation")
	}
}

func TestDeactivate_Idempotent(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{})
	defer e.Close()

	e.Deactivate()
	e.Activate()
	e.Deactivate()
	e.Deactivate()
}

// TestLifecycle_NoGoroutineLeak cycles activation repeatedly and checks the
// goroutine count returns to its starting level.
func TestLifecycle_NoGoroutineLeak(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{})
	defer e.Close()

	base := runtime.NumGoroutine()
	for range 100 {
		e.Activate()
		e.Deactivate()
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= base+2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("goroutines: started with %d, ended with %d", base, runtime.NumGoroutine())
}

func TestClose_PreventsReactivation(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{})
	e.Activate()
	e.Close()
	e.Close()

	e.Activate()
	if e.Active() {
		t.Error("closed engine should not activate")
	}
}

// =============================================================================
// Configuration Change Tests
// =============================================================================

func TestSetTargetFPS_RejectsInvalid(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{})
	defer e.Close()

	if err := e.SetTargetFPS(0); err == nil {
		t.Error("expected error for zero fps")
	}
	if got := e.Config().TargetFPS; got != 60 {
		t.Errorf("rejected change mutated config: fps = %d", got)
	}
}

func TestSetWorkerCount_RejectsInvalid(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{})
	defer e.Close()

	if err := e.SetWorkerCount(0); err == nil {
		t.Error("expected error for zero workers")
	}
}

func TestSetAffinity_RejectsUnknownMode(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{})
	defer e.Close()

	if err := e.SetAffinity(AffinityConfig{Mode: "sticky"}); err == nil {
		t.Error("expected error for unknown affinity mode")
	}
}

func TestSetWorkerCount_RestartsActiveEngine(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{fill: color.RGBA{G: 255, A: 255}})
	defer e.Close()

	e.Activate()
	waitFrame(t, e)

	if err := e.SetWorkerCount(5); err != nil {
		t.Fatalf("SetWorkerCount: %v", err)
	}
	if !e.Active() {
		t.Fatal("engine should still be active after worker change")
	}
	if got := e.Config().Workers; got != 5 {
		t.Errorf("workers = %d, want 5", got)
	}

	waitFrame(t, e)
	if n := e.buffers.StripCount(); n != 5 {
		t.Errorf("strip count = %d, want 5", n)
	}
}

func TestSetTargetFPS_WhileInactiveDoesNotStart(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{})
	defer e.Close()

	if err := e.SetTargetFPS(90); err != nil {
		t.Fatalf("SetTargetFPS: %v", err)
	}
	if e.Active() {
		t.Error("setter on an inactive engine must not activate it")
	}
	if got := e.Config().TargetFPS; got != 90 {
		t.Errorf("fps = %d, want 90", got)
	}
}

func TestResize_NextFrameUsesNewSize(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{fill: color.RGBA{B: 255, A: 255}})
	defer e.Close()

	e.Activate()
	waitFrame(t, e)

	e.Resize(100, 80)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		waitFrame(t, e)
		img := e.buffers.ReadComposite()
		if img != nil && img.Bounds().Dx() == 100 && img.Bounds().Dy() == 80 {
			return
		}
	}
	t.Fatal("composite never adopted the new canvas size")
}

func TestResize_DegenerateSizeSkipsRendering(t *testing.T) {
	e, _ := New(testConfig(), &solidWorkload{})
	defer e.Close()

	e.Resize(0, 0)
	e.Activate()

	// No frame should arrive for a zero-sized canvas.
	select {
	case <-e.FrameReady():
		t.Fatal("frame published for a degenerate canvas")
	case <-time.After(150 * time.Millisecond):
	}

	// A valid resize recovers.
	e.Resize(64, 48)
	waitFrame(t, e)
}

// =============================================================================
// Frame Integrity Tests
// =============================================================================

// stampedWorkload paints the whole canvas a per-frame color so a Draw output
// blending two different frames is detectable.
type stampedWorkload struct {
	frames atomic.Int64
}

func (w *stampedWorkload) Update(dt float64) bool { return true }

func (w *stampedWorkload) Snapshot() frame.Snapshot {
	return frame.Snapshot{Angle: float64(w.frames.Add(1)), Active: true}
}

func (w *stampedWorkload) RenderStrip(dst *surface.Surface, strip image.Rectangle, index int, snap frame.Snapshot) {
	n := int(snap.Angle)
	dst.Clear(color.RGBA{R: uint8(n), G: uint8(n >> 8), B: uint8(^n), A: 255})
}

// TestDraw_NeverObservesTornFrame calls Draw repeatedly while the engine
// produces stamped frames and checks every output is uniform: presentation
// must only ever see fully formed composites.
func TestDraw_NeverObservesTornFrame(t *testing.T) {
	e, err := New(testConfig(), &stampedWorkload{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	e.Activate()
	waitFrame(t, e)

	dst := image.NewRGBA(image.Rect(0, 0, 64, 48))
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		e.Draw(dst, dst.Bounds(), 1)

		r0, g0, b0 := dst.Pix[0], dst.Pix[1], dst.Pix[2]
		for p := 4; p < len(dst.Pix); p += 4 {
			if dst.Pix[p] != r0 || dst.Pix[p+1] != g0 || dst.Pix[p+2] != b0 {
				t.Fatalf("Draw output mixes frames at byte %d: (%d %d %d) vs (%d %d %d)",
					p, dst.Pix[p], dst.Pix[p+1], dst.Pix[p+2], r0, g0, b0)
			}
		}
	}
}
