package analyzer

import (
	"context"
	"fmt"
	"image"

	"github.com/ivlev/descreen/internal/descreen"
	"github.com/ivlev/descreen/internal/system"
	"golang.org/x/sync/errgroup"
)

// DefaultMinProminence rejects peaks weaker than 1% of the window's mean
// intensity. Flat paper only produces transform rounding noise, which is many
// orders of magnitude below that.
const DefaultMinProminence = 0.01

type Options struct {
	Pow2          int
	Stride        int     // 0 means one window size
	Workers       int     // 0 means one per physical core
	MinProminence float64 // peak/DC ratio a tile needs to count as screentone
	Analyzer      descreen.Options
}

// ScreentoneDetector tiles a page into 2^Pow2 windows and runs the spectral
// screentone analysis on each.
type ScreentoneDetector struct {
	Pow2          int
	Stride        int
	Workers       int
	MinProminence float64

	analyzer *descreen.Analyzer
}

func NewScreentoneDetector(opts Options) (*ScreentoneDetector, error) {
	if opts.Pow2 < 0 || opts.Pow2 > descreen.MaxPow2 {
		return nil, fmt.Errorf("pow2 must be within [0,%d] (got %d)", descreen.MaxPow2, opts.Pow2)
	}
	if opts.Stride < 0 {
		return nil, fmt.Errorf("stride must be >= 0 (got %d)", opts.Stride)
	}
	d := &ScreentoneDetector{
		Pow2:          opts.Pow2,
		Stride:        opts.Stride,
		Workers:       opts.Workers,
		MinProminence: opts.MinProminence,
		analyzer:      descreen.NewAnalyzer(opts.Analyzer),
	}
	if d.Stride == 0 {
		d.Stride = 1 << d.Pow2
	}
	if d.Workers <= 0 {
		d.Workers = system.DefaultWorkers()
	}
	return d, nil
}

// Detect returns one Block per tile in row-major tile order. Any analysis
// error aborts the page.
func (d *ScreentoneDetector) Detect(ctx context.Context, img image.Image, dpi float64) ([]Block, error) {
	buf := descreen.NewImageBuffer(img, dpi)
	size := 1 << d.Pow2
	origins := Tiles(buf.Width, buf.Height, size, d.Stride)
	blocks := make([]Block, len(origins))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Workers)
	for i, origin := range origins {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			det, err := d.analyzer.Detect(buf, descreen.Window{X: origin.X, Y: origin.Y, Pow2: d.Pow2})
			if err != nil {
				return fmt.Errorf("tile (%d,%d): %w", origin.X, origin.Y, err)
			}
			blocks[i] = newBlock(origin, size, det, d.MinProminence)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// newBlock turns a window detection into a tile verdict. Three empty channels
// agree on 0 lpi; that is blank paper, not a screen. So is an agreement on a
// peak too faint to be printed structure.
func newBlock(origin image.Point, size int, det descreen.Detection, minProminence float64) Block {
	b := Block{
		Rect: image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size, size))},
		Type: TypePlain,
	}
	if det.Found && det.LPI > 0 && det.Channels[det.Source].Prominence() >= minProminence {
		b.Type = TypeScreentone
		b.LPI = det.LPI
		b.Angle = det.Angle
		b.Confidence = float64(det.Agree) / descreen.Channels
	}
	return b
}

// Tiles lists window origins covering a width x height page. Windows stay
// inside the page where it is large enough; the last row and column are
// snapped to the far edge instead of hanging over it.
func Tiles(width, height, size, stride int) []image.Point {
	xs := axis(width, size, stride)
	ys := axis(height, size, stride)
	out := make([]image.Point, 0, len(xs)*len(ys))
	for _, y := range ys {
		for _, x := range xs {
			out = append(out, image.Pt(x, y))
		}
	}
	return out
}

func axis(length, size, stride int) []int {
	if length <= size {
		return []int{0}
	}
	var out []int
	for p := 0; p+size <= length; p += stride {
		out = append(out, p)
	}
	if last := length - size; out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}
