package chart

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

type Style string

const (
	// StyleDot renders a binary amplitude-modulated dot screen, as a printer
	// would.
	StyleDot Style = "dot"
	// StyleSine renders a single continuous-tone sinusoidal grating, which
	// concentrates all energy in one spectral bin.
	StyleSine Style = "sine"
)

// Options describes a synthetic screentone page.
type Options struct {
	Width  int
	Height int
	DPI    float64
	LPI    float64
	Angle  float64 // degrees from the vertical frequency axis
	Style  Style
	Tone   float64 // ink coverage for StyleDot, 0..1
	Ink    color.RGBA

	Label     bool
	LabelSize int // QR side in pixels
}

// DefaultOptions returns a 1200x1200 px, 600 dpi, 85 lpi dot screen at 15
// degrees, which is a common newspaper setting.
func DefaultOptions() Options {
	return Options{
		Width:     1200,
		Height:    1200,
		DPI:       600,
		LPI:       85,
		Angle:     15,
		Style:     StyleDot,
		Tone:      0.5,
		Ink:       color.RGBA{A: 255},
		LabelSize: 160,
	}
}

func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("chart size must be positive (got %dx%d)", o.Width, o.Height)
	}
	if o.DPI <= 0 || o.LPI <= 0 {
		return fmt.Errorf("dpi and lpi must be positive (got %g, %g)", o.DPI, o.LPI)
	}
	if o.LPI >= o.DPI/2 {
		return fmt.Errorf("lpi %g is above the Nyquist limit of %g dpi", o.LPI, o.DPI)
	}
	switch o.Style {
	case StyleDot, StyleSine:
	default:
		return fmt.Errorf("unknown chart style: %q", o.Style)
	}
	if o.Tone < 0 || o.Tone > 1 {
		return fmt.Errorf("tone must be within [0,1] (got %g)", o.Tone)
	}
	if o.Label && (o.LabelSize <= 0 || o.LabelSize > o.Width || o.LabelSize > o.Height) {
		return fmt.Errorf("label size %d does not fit a %dx%d chart", o.LabelSize, o.Width, o.Height)
	}
	return nil
}

// Caption is the text encoded in the QR label.
func (o Options) Caption() string {
	return fmt.Sprintf("descreen-chart style=%s dpi=%g lpi=%g angle=%g", o.Style, o.DPI, o.LPI, o.Angle)
}

// Frequency returns the screen frequency vector in cycles per pixel. The
// angle is measured so that atan2(fx, fy) equals o.Angle.
func (o Options) Frequency() (fx, fy float64) {
	f := o.LPI / o.DPI
	rad := o.Angle * math.Pi / 180
	return f * math.Sin(rad), f * math.Cos(rad)
}

// Generate renders the chart described by opts.
func Generate(opts Options) (*image.RGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	fx, fy := opts.Frequency()
	threshold := 1 - 2*opts.Tone

	for y := 0; y < opts.Height; y++ {
		for x := 0; x < opts.Width; x++ {
			u := 2 * math.Pi * (fx*float64(x) + fy*float64(y))

			var cover float64
			switch opts.Style {
			case StyleSine:
				cover = 0.5 - 0.4*math.Cos(u)
			case StyleDot:
				v := 2 * math.Pi * (-fy*float64(x) + fx*float64(y))
				if (math.Cos(u)+math.Cos(v))/2 > threshold {
					cover = 1
				}
			}
			img.SetRGBA(x, y, blend(opts.Ink, cover))
		}
	}

	if opts.Label {
		if err := stampLabel(img, opts); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// blend mixes ink over white paper at the given coverage.
func blend(ink color.RGBA, cover float64) color.RGBA {
	mix := func(c uint8) uint8 {
		return uint8(math.Round(255 - cover*(255-float64(c))))
	}
	return color.RGBA{R: mix(ink.R), G: mix(ink.G), B: mix(ink.B), A: 255}
}

// stampLabel draws a QR code with the chart caption in the bottom-right
// corner so a scanned chart identifies its own parameters.
func stampLabel(img *image.RGBA, opts Options) error {
	q, err := qrcode.New(opts.Caption(), qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr label: %w", err)
	}
	label := q.Image(opts.LabelSize)

	b := img.Bounds()
	dst := image.Rect(b.Max.X-opts.LabelSize, b.Max.Y-opts.LabelSize, b.Max.X, b.Max.Y)
	draw.NearestNeighbor.Scale(img, dst, label, label.Bounds(), draw.Src, nil)
	return nil
}
