package report

import (
	"time"

	"github.com/ivlev/descreen/internal/analyzer"
)

const Version = "1.0"

// Report is the result of analysing one source, page by page.
type Report struct {
	Version    string    `yaml:"version"`
	Generated  time.Time `yaml:"generated"`
	Input      string    `yaml:"input"`
	DPI        float64   `yaml:"dpi"`
	WindowSize int       `yaml:"window_size"`
	Stride     int       `yaml:"stride"`
	Pages      []Page    `yaml:"pages"`
}

// Page holds the summary of one page and, optionally, its tile verdicts.
type Page struct {
	Index   int              `yaml:"index"`
	Width   int              `yaml:"width"`
	Height  int              `yaml:"height"`
	Summary analyzer.Summary `yaml:"summary"`
	Blocks  []Block          `yaml:"blocks,omitempty"`
}

// Block is a tile verdict with a flattened rectangle.
type Block struct {
	X          int     `yaml:"x"`
	Y          int     `yaml:"y"`
	W          int     `yaml:"w"`
	H          int     `yaml:"h"`
	Type       string  `yaml:"type"`
	LPI        int     `yaml:"lpi,omitempty"`
	Angle      int     `yaml:"angle,omitempty"`
	Confidence float64 `yaml:"confidence,omitempty"`
}

func NewBlocks(blocks []analyzer.Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = Block{
			X:          b.Rect.Min.X,
			Y:          b.Rect.Min.Y,
			W:          b.Rect.Dx(),
			H:          b.Rect.Dy(),
			Type:       b.Type,
			LPI:        b.LPI,
			Angle:      b.Angle,
			Confidence: b.Confidence,
		}
	}
	return out
}

// Detected counts the pages with at least one screentone tile.
func (r *Report) Detected() int {
	n := 0
	for _, p := range r.Pages {
		if p.Summary.Detected() {
			n++
		}
	}
	return n
}
