package chart

import (
	"math"
	"strings"
	"testing"

	"github.com/ivlev/descreen/internal/descreen"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Options)
		wantErr bool
	}{
		{"defaults", func(o *Options) {}, false},
		{"sine", func(o *Options) { o.Style = StyleSine }, false},
		{"zero width", func(o *Options) { o.Width = 0 }, true},
		{"zero dpi", func(o *Options) { o.DPI = 0 }, true},
		{"above nyquist", func(o *Options) { o.LPI = 300 }, true},
		{"unknown style", func(o *Options) { o.Style = "line" }, true},
		{"tone out of range", func(o *Options) { o.Tone = 1.5 }, true},
		{"label too big", func(o *Options) { o.Label = true; o.LabelSize = 5000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestFrequency(t *testing.T) {
	opts := DefaultOptions()
	opts.DPI, opts.LPI, opts.Angle = 256, 50, math.Atan2(30, 40)*180/math.Pi

	fx, fy := opts.Frequency()
	if math.Abs(fx*256-30) > 1e-9 || math.Abs(fy*256-40) > 1e-9 {
		t.Errorf("Expected (30,40) cycles per 256 px, got (%v,%v)", fx*256, fy*256)
	}
}

func TestSineChartIsDetected(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height = 256, 256
	opts.DPI, opts.LPI, opts.Angle = 256, 50, math.Atan2(30, 40)*180/math.Pi
	opts.Style = StyleSine

	img, err := Generate(opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	d, err := descreen.NewAnalyzer(descreen.Options{}).Detect(descreen.NewImageBuffer(img, opts.DPI), descreen.Window{Pow2: 8})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !d.Found || d.LPI != 50 || d.Angle != 7 {
		t.Errorf("Expected 50 lpi at 7 degrees, got %+v", d)
	}
}

func TestDotChartIsDetected(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height = 512, 512

	img, err := Generate(opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	d, err := descreen.NewAnalyzer(descreen.Options{}).Detect(descreen.NewImageBuffer(img, opts.DPI), descreen.Window{Pow2: 9})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !d.Found {
		t.Fatalf("Expected detection, got %+v", d)
	}
	if math.Abs(float64(d.LPI)-opts.LPI) > 2 {
		t.Errorf("Expected ~%v lpi, got %d", opts.LPI, d.LPI)
	}
	if math.Abs(float64(d.Angle)-opts.Angle) > 1 {
		t.Errorf("Expected ~%v degrees, got %d", opts.Angle, d.Angle)
	}
}

func TestLabelIsStamped(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height = 400, 400
	opts.Style = StyleSine
	opts.Label = true
	opts.LabelSize = 120

	if !strings.Contains(opts.Caption(), "lpi=85") {
		t.Errorf("Caption misses lpi: %q", opts.Caption())
	}

	img, err := Generate(opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// A sine chart never reaches pure black or white; the QR code does.
	var black, white int
	for y := 400 - 120; y < 400; y++ {
		for x := 400 - 120; x < 400; x++ {
			switch img.RGBAAt(x, y).R {
			case 0:
				black++
			case 255:
				white++
			}
		}
	}
	if black == 0 || white == 0 {
		t.Errorf("Expected QR modules in the corner, got %d black and %d white pixels", black, white)
	}
	if c := img.RGBAAt(0, 0).R; c == 0 || c == 255 {
		t.Errorf("Chart body should be continuous tone, got %d", c)
	}
}
