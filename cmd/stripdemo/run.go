package main

import (
	"fmt"
	"image"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/gogpu/stripframe"
	"github.com/gogpu/stripframe/workload/bounce"
)

const fpsHistoryLen = 60

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Show the animation live in the terminal",
		Long: `run renders the bouncing rectangle into the full terminal, one engine
pixel per cell. Keys: q quits, space pauses, + and - change the worker
count, g toggles the FPS graph.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runInteractive(cfg)
		},
	}
}

// viewer owns the terminal screen and the backing image the engine draws
// into each frame.
type viewer struct {
	screen  tcell.Screen
	engine  *stripframe.Engine
	world   *bounce.Workload
	back    *image.RGBA
	fpsHist []float64
	graph   bool
	paused  bool
}

func runInteractive(cfg stripframe.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("stripdemo: create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("stripdemo: init screen: %w", err)
	}
	defer screen.Fini()

	cols, rows := screen.Size()
	cfg.Width = cols
	cfg.Height = rows

	world := bounce.New(cols, rows)
	engine, err := stripframe.New(cfg, world)
	if err != nil {
		return err
	}
	defer engine.Close()

	v := &viewer{
		screen: screen,
		engine: engine,
		world:  world,
		back:   image.NewRGBA(image.Rect(0, 0, cols, rows)),
		graph:  true,
	}

	engine.Activate()

	events := make(chan tcell.Event, 8)
	quit := make(chan struct{})
	go screen.ChannelEvents(events, quit)
	defer close(quit)

	for {
		select {
		case <-engine.FrameReady():
			v.paint()

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				v.resize()
			case *tcell.EventKey:
				if done := v.handleKey(ev); done {
					return nil
				}
			}
		}
	}
}

// resize follows the terminal size: the engine gets the new canvas and the
// workload the new bounce bounds.
func (v *viewer) resize() {
	cols, rows := v.screen.Size()
	v.back = image.NewRGBA(image.Rect(0, 0, cols, rows))
	v.world.Resize(cols, rows)
	v.engine.Resize(cols, rows)
	v.screen.Sync()
}

func (v *viewer) handleKey(ev *tcell.EventKey) bool {
	switch {
	case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC,
		ev.Rune() == 'q', ev.Rune() == 'Q':
		return true

	case ev.Rune() == ' ':
		v.paused = !v.paused
		v.world.SetActive(!v.paused)

	case ev.Rune() == '+', ev.Rune() == '=':
		_ = v.engine.SetWorkerCount(v.engine.Config().Workers + 1)

	case ev.Rune() == '-', ev.Rune() == '_':
		_ = v.engine.SetWorkerCount(v.engine.Config().Workers - 1)

	case ev.Rune() == 'g', ev.Rune() == 'G':
		v.graph = !v.graph
	}
	return false
}

// paint pulls the latest composite into the backing image and maps every
// pixel to a cell background color, then overlays the status line.
func (v *viewer) paint() {
	v.engine.Draw(v.back, v.back.Bounds(), 1)

	b := v.back.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := v.back.RGBAAt(x, y)
			style := tcell.StyleDefault.Background(
				tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
			v.screen.SetContent(x, y, ' ', nil, style)
		}
	}

	v.overlay()
	v.screen.Show()
}

func (v *viewer) overlay() {
	fps := v.engine.RealFPS()
	v.fpsHist = append(v.fpsHist, float64(fps))
	if len(v.fpsHist) > fpsHistoryLen {
		v.fpsHist = v.fpsHist[1:]
	}

	cfg := v.engine.Config()
	status := fmt.Sprintf(" fps %d/%d  workers %d  [space] pause  [+/-] workers  [g] graph  [q] quit ",
		fps, cfg.TargetFPS, cfg.Workers)
	v.putText(0, 0, status)

	if v.graph && len(v.fpsHist) > 1 {
		chart := asciigraph.Plot(v.fpsHist,
			asciigraph.Height(4),
			asciigraph.Width(min(fpsHistoryLen, v.back.Bounds().Dx()-12)),
			asciigraph.Caption("real fps"))
		for i, line := range strings.Split(chart, "\n") {
			v.putText(0, 1+i, line)
		}
	}
}

func (v *viewer) putText(x, y int, s string) {
	style := tcell.StyleDefault.
		Foreground(tcell.ColorWhite).
		Background(tcell.ColorBlack)
	for i, r := range s {
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}
