package descreen

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// gratingBuffer draws, per channel, a sinusoid with freq[c] = {kx, ky} cycles
// across a width-pixel span, so that a window of that width puts its peak at
// spectral bin (kx, ky).
func gratingBuffer(width, height int, dpi float64, freq [3][2]int) ImageBuffer {
	pix := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < 3; c++ {
				phase := 2 * math.Pi * float64(freq[c][0]*x+freq[c][1]*y) / float64(width)
				pix[(y*width+x)*3+c] = uint8(math.Round(128 + 100*math.Cos(phase)))
			}
		}
	}
	return ImageBuffer{Pixels: pix, Width: width, Height: height, DPI: dpi}
}

func TestConsensus(t *testing.T) {
	tests := []struct {
		name       string
		lpi        [3]int
		wantFound  bool
		wantLPI    int
		wantSource int
		wantAgree  int
	}{
		{"channels 0 and 1 agree", [3]int{50, 50, 61}, true, 50, 0, 2},
		{"channels 0 and 2 agree", [3]int{50, 61, 50}, true, 50, 0, 2},
		{"channels 1 and 2 agree", [3]int{50, 61, 61}, true, 61, 1, 2},
		{"all agree", [3]int{85, 85, 85}, true, 85, 0, 3},
		{"all distinct", [3]int{50, 55, 61}, false, 0, 0, 0},
		{"off by one is a mismatch", [3]int{50, 51, 52}, false, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ch [Channels]ChannelResult
			for i, l := range tt.lpi {
				ch[i] = ChannelResult{LPI: l, Angle: i + 10}
			}

			d := consensus(ch)
			if d.Found != tt.wantFound {
				t.Fatalf("Expected found=%v, got %v", tt.wantFound, d.Found)
			}
			if !d.Found {
				return
			}
			if d.LPI != tt.wantLPI || d.Source != tt.wantSource || d.Agree != tt.wantAgree {
				t.Errorf("Expected lpi %d from channel %d (%d agreeing), got lpi %d from channel %d (%d agreeing)",
					tt.wantLPI, tt.wantSource, tt.wantAgree, d.LPI, d.Source, d.Agree)
			}
			if d.Angle != tt.wantSource+10 {
				t.Errorf("Angle should come from channel %d, got %d", tt.wantSource, d.Angle)
			}
		})
	}
}

func TestAnalyzeRecoversSinusoid(t *testing.T) {
	const dpi = 300.0
	buf := gratingBuffer(256, 256, dpi, [3][2]int{{30, 40}, {30, 40}, {30, 40}})

	cfg := &Config{Pixels: buf.Pixels, Width: buf.Width, Height: buf.Height, DPI: dpi}
	found, err := Analyze(cfg, 0, 0, 8)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !found {
		t.Fatal("Expected a screentone to be detected")
	}

	// 50 cycles per 256 px at 300 dpi
	wantLPI := 50 * dpi / 256
	if math.Abs(float64(cfg.LPI)-wantLPI) > 1 {
		t.Errorf("Expected lpi ~%.2f, got %d", wantLPI, cfg.LPI)
	}
	wantAngle := int(math.Round(math.Atan2(30, 40)*180/math.Pi)) % 30
	if cfg.Angle != wantAngle {
		t.Errorf("Expected angle %d, got %d", wantAngle, cfg.Angle)
	}
}

func TestDetectReportsPeakBins(t *testing.T) {
	buf := gratingBuffer(128, 128, 128, [3][2]int{{20, 9}, {20, 9}, {0, 40}})

	d, err := NewAnalyzer(Options{}).Detect(buf, Window{Pow2: 7})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	want := []PeakResult{{X: 20, Y: 9}, {X: 20, Y: 9}, {X: 0, Y: 40}}
	for c, p := range want {
		got := d.Channels[c].Peak
		if got.X != p.X || got.Y != p.Y {
			t.Errorf("channel %d: expected bin (%d,%d), got (%d,%d)", c, p.X, p.Y, got.X, got.Y)
		}
	}
	if !d.Found || d.Source != 0 || d.Agree != 2 {
		t.Errorf("Unexpected consensus: %+v", d)
	}
	if d.LPI != 22 {
		t.Errorf("Expected lpi 22, got %d", d.LPI)
	}
	// amplitude 100 over a mean of 128: 100/2 / 128
	if p := d.Channels[0].Prominence(); p < 0.35 || p > 0.43 {
		t.Errorf("Expected prominence ~0.39, got %v", p)
	}
}

func TestAnalyzeLeavesConfigOnMiss(t *testing.T) {
	// 50, 45 and 60 lpi: no two channels agree.
	buf := gratingBuffer(256, 256, 256, [3][2]int{{30, 40}, {45, 0}, {0, 60}})

	cfg := &Config{Pixels: buf.Pixels, Width: buf.Width, Height: buf.Height, DPI: buf.DPI, LPI: 123, Angle: 17}
	found, err := Analyze(cfg, 0, 0, 8)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if found {
		t.Fatal("Expected no detection")
	}
	if cfg.LPI != 123 || cfg.Angle != 17 {
		t.Errorf("Config was modified: lpi=%d angle=%d", cfg.LPI, cfg.Angle)
	}
}

func TestDetectWindowOutsideImage(t *testing.T) {
	buf := gratingBuffer(64, 64, 300, [3][2]int{{10, 10}, {10, 10}, {10, 10}})

	d, err := NewAnalyzer(Options{}).Detect(buf, Window{X: 500, Y: 500, Pow2: 6})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	for c, ch := range d.Channels {
		if ch.Peak.Found() || ch.LPI != 0 {
			t.Errorf("channel %d: expected no peak, got %+v", c, ch)
		}
	}
	// Three empty channels agree on 0 lpi.
	if d.LPI != 0 {
		t.Errorf("Expected lpi 0, got %d", d.LPI)
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	buf := gratingBuffer(256, 256, 600, [3][2]int{{33, 17}, {33, 17}, {12, 50}})
	win := Window{X: 0, Y: 0, Pow2: 8}

	variants := []Options{
		{},
		{CachePlans: true},
		{ParallelChannels: true},
		{ParallelChannels: true, CachePlans: true},
	}

	first, err := NewAnalyzer(Options{}).Detect(buf, win)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	for _, opts := range variants {
		a := NewAnalyzer(opts)
		for i := 0; i < 2; i++ {
			got, err := a.Detect(buf, win)
			if err != nil {
				t.Fatalf("%+v: Detect failed: %v", opts, err)
			}
			if diff := cmp.Diff(first, got); diff != "" {
				t.Errorf("%+v run %d: result mismatch (-want +got):\n%s", opts, i, diff)
			}
		}
	}
}

func TestAnalyzeErrors(t *testing.T) {
	good := solidBuffer(32, 32, 10)

	tests := []struct {
		name    string
		cfg     Config
		x, y    int
		pow2    int
		wantErr error
	}{
		{"zero dpi", Config{Pixels: good.Pixels, Width: 32, Height: 32}, 0, 0, 4, ErrInvalidConfig},
		{"short buffer", Config{Pixels: good.Pixels[:10], Width: 32, Height: 32, DPI: 300}, 0, 0, 4, ErrInvalidConfig},
		{"empty image", Config{DPI: 300}, 0, 0, 4, ErrInvalidConfig},
		{"negative origin", Config{Pixels: good.Pixels, Width: 32, Height: 32, DPI: 300}, -1, 0, 4, ErrInvalidConfig},
		{"negative pow2", Config{Pixels: good.Pixels, Width: 32, Height: 32, DPI: 300}, 0, 0, -1, ErrInvalidConfig},
		{"window too large", Config{Pixels: good.Pixels, Width: 32, Height: 32, DPI: 300}, 0, 0, MaxPow2 + 1, ErrAllocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.LPI, cfg.Angle = 7, 3
			found, err := Analyze(&cfg, tt.x, tt.y, tt.pow2)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if found || cfg.LPI != 7 || cfg.Angle != 3 {
				t.Errorf("Failed call must not report or write a result")
			}
		})
	}
}
