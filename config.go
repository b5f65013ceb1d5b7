package stripframe

import (
	"fmt"
	"image/color"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// AffinityMode selects the CPU-pinning policy applied to worker goroutines.
// Pinning is a best-effort, platform-dependent hint and a no-op where
// unsupported.
type AffinityMode string

const (
	// AffinityNone leaves workers unpinned.
	AffinityNone AffinityMode = "none"

	// AffinityFixed pins every worker to the configured core.
	AffinityFixed AffinityMode = "fixed"

	// AffinityRandom pins each worker to a uniformly chosen core at
	// spawn time.
	AffinityRandom AffinityMode = "random"
)

// AffinityConfig describes the worker CPU-affinity policy.
type AffinityConfig struct {
	Mode AffinityMode `yaml:"mode"`
	Core int          `yaml:"core"`
}

// Config holds the engine configuration.
//
// Configuration is mutated only through the Engine's setters; changing a
// value while the engine is active forces a full stop/apply/restart cycle,
// never a live in-place change visible to in-flight workers.
type Config struct {
	// Width and Height are the canvas dimensions in pixels. A canvas
	// with non-positive dimensions causes render cycles to be skipped
	// until a resize makes it valid.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// TargetFPS is the target frame rate. Must be > 0; the frame
	// interval is 1s/TargetFPS.
	TargetFPS int `yaml:"target_fps"`

	// Workers is the number of worker goroutines and therefore the
	// number of strips. Must be >= 1.
	Workers int `yaml:"workers"`

	// Affinity is the worker CPU-pinning policy.
	Affinity AffinityConfig `yaml:"affinity"`

	// LaunchStagger is the busy-wait inserted between successive strip
	// dispatches within one frame. The default of 150ns is an empirical
	// figure; it trades startup smoothness against total dispatch
	// latency, which bounds how many strips are sensible at high worker
	// counts.
	LaunchStagger time.Duration `yaml:"launch_stagger"`

	// Background is the clear color applied to strip surfaces before
	// drawing.
	Background color.RGBA `yaml:"-"`
}

// DefaultConfig returns the engine defaults: a 640x360 canvas at 30 FPS
// with four unpinned workers.
func DefaultConfig() Config {
	return Config{
		Width:         640,
		Height:        360,
		TargetFPS:     30,
		Workers:       4,
		Affinity:      AffinityConfig{Mode: AffinityNone},
		LaunchStagger: 150 * time.Nanosecond,
		Background:    color.RGBA{R: 18, G: 18, B: 18, A: 255},
	}
}

// Validate checks the configuration, returning a descriptive error for the
// first invalid field.
func (c Config) Validate() error {
	if c.TargetFPS <= 0 {
		return fmt.Errorf("stripframe: target fps %d, must be > 0", c.TargetFPS)
	}
	if c.Workers < 1 {
		return fmt.Errorf("stripframe: worker count %d, must be >= 1", c.Workers)
	}
	switch c.Affinity.Mode {
	case AffinityNone, AffinityRandom, "":
	case AffinityFixed:
		if c.Affinity.Core < 0 || c.Affinity.Core >= runtime.NumCPU() {
			return fmt.Errorf("stripframe: affinity core %d out of range [0, %d)",
				c.Affinity.Core, runtime.NumCPU())
		}
	default:
		return fmt.Errorf("stripframe: unknown affinity mode %q", c.Affinity.Mode)
	}
	if c.LaunchStagger < 0 {
		return fmt.Errorf("stripframe: launch stagger %v, must be >= 0", c.LaunchStagger)
	}
	return nil
}

// LoadConfig reads a YAML configuration file, applying defaults for any
// field the file omits.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("stripframe: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("stripframe: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
