package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/descreen/internal/chart"
	"golang.org/x/image/tiff"
)

func main() {
	opts := chart.DefaultOptions()

	outputPtr := flag.String("output", "", "Output .png or .tif (default: input/chart_<lpi>lpi_<angle>deg.png)")
	widthPtr := flag.Int("width", opts.Width, "Width in pixels")
	heightPtr := flag.Int("height", opts.Height, "Height in pixels")
	dpiPtr := flag.Float64("dpi", opts.DPI, "Resolution the chart is meant to be scanned at")
	lpiPtr := flag.Float64("lpi", opts.LPI, "Screen frequency in lines per inch")
	anglePtr := flag.Float64("angle", opts.Angle, "Screen angle in degrees")
	stylePtr := flag.String("style", string(opts.Style), "dot or sine")
	tonePtr := flag.Float64("tone", opts.Tone, "Ink coverage of a dot screen, 0..1")
	labelPtr := flag.Bool("label", false, "Stamp a QR code with the chart parameters")

	flag.Parse()

	opts.Width, opts.Height = *widthPtr, *heightPtr
	opts.DPI, opts.LPI, opts.Angle = *dpiPtr, *lpiPtr, *anglePtr
	opts.Style = chart.Style(*stylePtr)
	opts.Tone = *tonePtr
	opts.Label = *labelPtr

	img, err := chart.Generate(opts)
	if err != nil {
		log.Fatalf("[-] Chart error: %v", err)
	}

	output := *outputPtr
	if output == "" {
		os.MkdirAll("input", 0755)
		output = filepath.Join("input", fmt.Sprintf("chart_%glpi_%gdeg.png", opts.LPI, opts.Angle))
	}
	if err := save(output, img); err != nil {
		log.Fatalf("[-] Write error: %v", err)
	}
	fmt.Printf("[+] %s: %s\n", output, opts.Caption())
}

func save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
