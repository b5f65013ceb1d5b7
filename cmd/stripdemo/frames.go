package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/stripframe"
	"github.com/gogpu/stripframe/workload/bounce"
)

func newFramesCmd() *cobra.Command {
	var (
		count  int
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "frames",
		Short: "Render headlessly and write PNG frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return dumpFrames(cfg, count, outDir)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 30, "number of frames to write")
	cmd.Flags().StringVarP(&outDir, "out", "o", "frames", "output directory")
	return cmd
}

func dumpFrames(cfg stripframe.Config, count int, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("stripdemo: create output dir: %w", err)
	}

	world := bounce.New(cfg.Width, cfg.Height)
	engine, err := stripframe.New(cfg, world)
	if err != nil {
		return err
	}
	defer engine.Close()

	engine.Activate()

	back := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	for i := range count {
		select {
		case <-engine.FrameReady():
		case <-time.After(5 * time.Second):
			return fmt.Errorf("stripdemo: timed out waiting for frame %d", i)
		}

		engine.Draw(back, back.Bounds(), 1)
		if err := writePNG(filepath.Join(outDir, fmt.Sprintf("frame_%03d.png", i)), back); err != nil {
			return err
		}
	}

	fmt.Printf("wrote %d frames to %s\n", count, outDir)
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stripdemo: create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("stripdemo: encode %s: %w", path, err)
	}
	return nil
}
