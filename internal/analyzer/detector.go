package analyzer

import (
	"context"
	"image"
)

const (
	TypeScreentone = "screentone"
	TypePlain      = "plain"
)

// Block is the verdict for one analysed tile of a page.
type Block struct {
	Rect       image.Rectangle `json:"rect" yaml:"rect"`
	Type       string          `json:"type" yaml:"type"` // "screentone" or "plain"
	LPI        int             `json:"lpi" yaml:"lpi"`
	Angle      int             `json:"angle" yaml:"angle"`
	Confidence float64         `json:"confidence" yaml:"confidence"` // share of channels agreeing, 0..1
}

// Detector is the interface for page analysis strategies
type Detector interface {
	Detect(ctx context.Context, img image.Image, dpi float64) ([]Block, error)
}
