package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ivlev/descreen/internal/analyzer"
	"github.com/ivlev/descreen/internal/chart"
	"github.com/ivlev/descreen/internal/config"
	"github.com/ivlev/descreen/internal/report"
	"github.com/ivlev/descreen/internal/source"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newProject(t *testing.T, dir string, cfg *config.Config) *Project {
	t.Helper()
	src, err := source.NewImageSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { src.Close() })

	det, err := analyzer.NewDetector(cfg.Detector, cfg.DetectorOptions())
	if err != nil {
		t.Fatal(err)
	}
	return NewProject(cfg, src, det)
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.InputPath = dir
	cfg.DPI = 256
	cfg.Pow2 = 8
	cfg.Workers = 2
	return cfg
}

func TestProjectRun(t *testing.T) {
	dir := t.TempDir()

	opts := chart.DefaultOptions()
	opts.Width, opts.Height = 512, 256
	opts.DPI, opts.LPI, opts.Angle = 256, 50, math.Atan2(30, 40)*180/math.Pi
	opts.Style = chart.StyleSine
	tone, err := chart.Generate(opts)
	if err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(dir, "page_01.png"), tone)

	blank := image.NewRGBA(image.Rect(0, 0, 256, 256))
	draw.Draw(blank, blank.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	writePNG(t, filepath.Join(dir, "page_02.png"), blank)

	cfg := testConfig(dir)
	cfg.ReportPath = filepath.Join(t.TempDir(), "out", "report.yaml")
	cfg.ShowStats = true

	r, err := newProject(t, dir, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(r.Pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(r.Pages))
	}
	want := analyzer.Summary{Tiles: 2, Screentone: 2, Coverage: 1, LPI: 50, Angle: 7, MeanLPI: 50}
	if diff := cmp.Diff(want, r.Pages[0].Summary); diff != "" {
		t.Errorf("Page 0 summary mismatch (-want +got):\n%s", diff)
	}
	if r.Pages[1].Summary.Detected() {
		t.Errorf("Blank page reported a screen: %+v", r.Pages[1].Summary)
	}
	if r.Pages[0].Width != 512 || r.Pages[1].Index != 1 {
		t.Errorf("Unexpected page metadata: %+v / %+v", r.Pages[0], r.Pages[1])
	}
	if r.WindowSize != 256 || r.Stride != 256 || r.DPI != 256 {
		t.Errorf("Unexpected report header: %+v", r)
	}

	saved, err := report.Read(cfg.ReportPath)
	if err != nil {
		t.Fatalf("Read report failed: %v", err)
	}
	if diff := cmp.Diff(r, saved); diff != "" {
		t.Errorf("Saved report mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectRunEmptySource(t *testing.T) {
	dir := t.TempDir()
	if _, err := newProject(t, dir, testConfig(dir)).Run(context.Background()); err == nil {
		t.Error("Expected error for a source without pages")
	}
}

func TestProjectRunCancelled(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "page.png"), image.NewRGBA(image.Rect(0, 0, 64, 64)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newProject(t, dir, testConfig(dir)).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestProjectRunBadPage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := newProject(t, dir, testConfig(dir)).Run(context.Background()); err == nil {
		t.Error("Expected error for an undecodable page")
	}
}
