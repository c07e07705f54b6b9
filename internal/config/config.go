package config

import (
	"fmt"
	"os"

	"github.com/ivlev/descreen/internal/analyzer"
	"github.com/ivlev/descreen/internal/descreen"
	"github.com/ivlev/descreen/internal/system"
	"gopkg.in/yaml.v3"
)

type Config struct {
	InputPath        string  `yaml:"input"`
	ReportPath       string  `yaml:"report"`
	DPI              float64 `yaml:"dpi"`
	Pow2             int     `yaml:"pow2"`
	Stride           int     `yaml:"stride"`
	Workers          int     `yaml:"workers"`
	Detector         string  `yaml:"detector"`
	MinProminence    float64 `yaml:"min_prominence"`
	ParallelChannels bool    `yaml:"parallel_channels"`
	CachePlans       bool    `yaml:"cache_plans"`
	ShowStats        bool    `yaml:"show_stats"`
	LogLevel         string  `yaml:"log_level"`
	BuildVersion     string  `yaml:"-"`
}

// Default returns settings for a 600 dpi scan analysed in 512 px windows.
func Default() *Config {
	return &Config{
		DPI:           600,
		Pow2:          9,
		Workers:       system.DefaultWorkers(),
		Detector:      "screentone",
		MinProminence: analyzer.DefaultMinProminence,
		CachePlans:    true,
		LogLevel:      "info",
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// WindowSize is the side of the analysis window in pixels.
func (c *Config) WindowSize() int {
	return 1 << c.Pow2
}

// TileStride is the step between analysed windows; 0 means non-overlapping.
func (c *Config) TileStride() int {
	if c.Stride > 0 {
		return c.Stride
	}
	return c.WindowSize()
}

// DetectorOptions maps the settings onto the tile detector.
func (c *Config) DetectorOptions() analyzer.Options {
	return analyzer.Options{
		Pow2:          c.Pow2,
		Stride:        c.TileStride(),
		Workers:       c.Workers,
		MinProminence: c.MinProminence,
		Analyzer: descreen.Options{
			ParallelChannels: c.ParallelChannels,
			CachePlans:       c.CachePlans,
		},
	}
}

func (c *Config) Validate() error {
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be > 0 (got %g)", c.DPI)
	}
	if c.Pow2 < 0 || c.Pow2 > descreen.MaxPow2 {
		return fmt.Errorf("pow2 must be within [0,%d] (got %d)", descreen.MaxPow2, c.Pow2)
	}
	if c.Stride < 0 {
		return fmt.Errorf("stride must be >= 0 (got %d)", c.Stride)
	}
	if c.MinProminence < 0 {
		return fmt.Errorf("min_prominence must be >= 0 (got %g)", c.MinProminence)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1 (got %d)", c.Workers)
	}
	return nil
}
