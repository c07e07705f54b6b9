package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivlev/descreen/internal/analyzer"
	"github.com/ivlev/descreen/internal/config"
	"github.com/ivlev/descreen/internal/descreen"
	"github.com/ivlev/descreen/internal/engine"
	"github.com/ivlev/descreen/internal/logger"
	"github.com/ivlev/descreen/internal/report"
	"github.com/ivlev/descreen/internal/source"
	"github.com/ivlev/descreen/internal/system"
)

var version = "dev"

func main() {
	for _, d := range []string{"input", "reports"} {
		os.MkdirAll(d, 0755)
	}

	cfg := config.Default()
	cfg.BuildVersion = version

	configPtr := flag.String("config", "", "YAML settings file, overridden by explicit flags")
	inputPtr := flag.String("input", "", "Scan, PDF or directory of scans (default: newest file in input/)")
	reportPtr := flag.String("report", "", "Report path (default: timestamped file in reports/)")
	dpiPtr := flag.Float64("dpi", cfg.DPI, "Scan resolution in dots per inch")
	pow2Ptr := flag.Int("pow2", cfg.Pow2, "Window side as a power of two")
	stridePtr := flag.Int("stride", cfg.Stride, "Step between windows in pixels (0: window size)")
	workersPtr := flag.Int("workers", cfg.Workers, "Concurrent window analyses")
	windowPtr := flag.Bool("window", false, "Analyse a single window at -x/-y of the first page")
	xPtr := flag.Int("x", 0, "Window left edge for -window")
	yPtr := flag.Int("y", 0, "Window top edge for -window")
	parallelPtr := flag.Bool("parallel-channels", cfg.ParallelChannels, "Analyse the colour channels concurrently")
	statsPtr := flag.Bool("stats", false, "Log timing and memory usage")
	logLevelPtr := flag.String("log-level", cfg.LogLevel, "debug, info, warn or error")

	flag.Parse()

	if *configPtr != "" {
		if err := config.LoadFile(*configPtr, cfg); err != nil {
			log.Fatalf("[-] Config error: %v", err)
		}
	}
	// Explicit flags win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputPath = *inputPtr
		case "report":
			cfg.ReportPath = *reportPtr
		case "dpi":
			cfg.DPI = *dpiPtr
		case "pow2":
			cfg.Pow2 = *pow2Ptr
		case "stride":
			cfg.Stride = *stridePtr
		case "workers":
			cfg.Workers = *workersPtr
		case "parallel-channels":
			cfg.ParallelChannels = *parallelPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		case "log-level":
			cfg.LogLevel = *logLevelPtr
		}
	})
	logger.SetLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Invalid settings: %v", err)
	}

	if cfg.InputPath == "" {
		latest, err := system.FindLatestInput("input")
		if err != nil {
			log.Fatalf("[-] Error: %v. Put a scan or PDF into input/", err)
		}
		cfg.InputPath = latest
		fmt.Printf("[*] Selected input: %s\n", cfg.InputPath)
	}

	src, err := source.Open(cfg.InputPath)
	if err != nil {
		log.Fatalf("[-] Source error: %v", err)
	}
	defer src.Close()

	if *windowPtr {
		if err := analyzeWindow(cfg, src, *xPtr, *yPtr); err != nil {
			log.Fatalf("[-] Analysis error: %v", err)
		}
		return
	}

	if cfg.ReportPath == "" {
		cfg.ReportPath = report.GeneratePath("reports", cfg.InputPath)
	}

	det, err := analyzer.NewDetector(cfg.Detector, cfg.DetectorOptions())
	if err != nil {
		log.Fatalf("[-] Detector error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := engine.NewProject(cfg, src, det).Run(ctx)
	if err != nil {
		log.Fatalf("[-] Project error: %v", err)
	}

	for _, p := range r.Pages {
		if p.Summary.Detected() {
			fmt.Printf("[+] Page %d: %d lpi at %d deg (%.0f%% of tiles)\n",
				p.Index+1, p.Summary.LPI, p.Summary.Angle, p.Summary.Coverage*100)
		} else {
			fmt.Printf("[ ] Page %d: no screentone\n", p.Index+1)
		}
	}
	fmt.Printf("[+++] Done: %d/%d pages screened\n", r.Detected(), len(r.Pages))
}

// analyzeWindow runs the bare window analysis on the first page.
func analyzeWindow(cfg *config.Config, src source.Source, x, y int) error {
	img, err := src.RenderPage(0, int(cfg.DPI+0.5))
	if err != nil {
		return err
	}
	buf := descreen.NewImageBuffer(img, cfg.DPI)
	a := descreen.NewAnalyzer(descreen.Options{ParallelChannels: cfg.ParallelChannels})

	res := &descreen.Config{Pixels: buf.Pixels, Width: buf.Width, Height: buf.Height, DPI: buf.DPI}
	found, err := a.Analyze(res, x, y, cfg.Pow2)
	if err != nil {
		return err
	}
	if !found {
		fmt.Printf("[ ] No screentone in the %d px window at (%d,%d)\n", cfg.WindowSize(), x, y)
		return nil
	}
	fmt.Printf("[+] Screentone: %d lpi at %d deg\n", res.LPI, res.Angle)
	return nil
}
