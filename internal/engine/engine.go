package engine

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/ivlev/descreen/internal/analyzer"
	"github.com/ivlev/descreen/internal/config"
	"github.com/ivlev/descreen/internal/logger"
	"github.com/ivlev/descreen/internal/report"
	"github.com/ivlev/descreen/internal/source"
	"github.com/ivlev/descreen/internal/system"
	"github.com/sirupsen/logrus"
)

// Project analyses every page of a source and collects a report.
type Project struct {
	Config   *config.Config
	Source   source.Source
	Detector analyzer.Detector
}

func NewProject(cfg *config.Config, src source.Source, det analyzer.Detector) *Project {
	return &Project{
		Config:   cfg,
		Source:   src,
		Detector: det,
	}
}

type renderResult struct {
	Index int
	Image image.Image
}

// Run renders the pages with a pool of workers and analyses them as they
// arrive. The first failure cancels the remaining work. When ReportPath is
// set the report is also written there.
func (p *Project) Run(ctx context.Context) (*report.Report, error) {
	startTime := time.Now()

	pageCount := p.Source.PageCount()
	if pageCount == 0 {
		return nil, fmt.Errorf("source has no pages")
	}

	fmt.Println("--- [DESCREEN] ---")
	fmt.Printf("[*] Source: %s | Pages: %d\n", p.Config.InputPath, pageCount)
	fmt.Printf("[*] DPI: %g | Window: %d px | Stride: %d px | Workers: %d\n",
		p.Config.DPI, p.Config.WindowSize(), p.Config.TileStride(), p.Config.Workers)
	fmt.Println("------------------")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int, pageCount)
	renderResults := make(chan renderResult)
	pages := make([]report.Page, pageCount)

	// Pages are large; keep at most a couple in flight per analysis pass.
	numRenderWorkers := min(p.Config.Workers, pageCount, 2)
	renderDPI := int(math.Round(p.Config.DPI))

	var wgRender sync.WaitGroup
	for w := 0; w < numRenderWorkers; w++ {
		wgRender.Add(1)
		go func() {
			defer wgRender.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				img, err := p.Source.RenderPage(i, renderDPI)
				if err != nil {
					fail(fmt.Errorf("render page %d: %w", i, err))
					return
				}
				select {
				case renderResults <- renderResult{Index: i, Image: img}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for i := 0; i < pageCount; i++ {
		jobs <- i
	}
	close(jobs)

	go func() {
		wgRender.Wait()
		close(renderResults)
	}()

	done := 0
	for res := range renderResults {
		if ctx.Err() != nil {
			continue
		}
		page, err := p.analysePage(ctx, res)
		if err != nil {
			fail(fmt.Errorf("page %d: %w", res.Index, err))
			continue
		}
		pages[res.Index] = page
		done++
		fmt.Printf("[>] Ready: %d/%d\n", done, pageCount)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &report.Report{
		Version:    report.Version,
		Generated:  time.Now().UTC(),
		Input:      p.Config.InputPath,
		DPI:        p.Config.DPI,
		WindowSize: p.Config.WindowSize(),
		Stride:     p.Config.TileStride(),
		Pages:      pages,
	}

	if p.Config.ReportPath != "" {
		if err := report.Write(r, p.Config.ReportPath); err != nil {
			return nil, fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("[+] Report: %s\n", p.Config.ReportPath)
	}

	if p.Config.ShowStats {
		p.logStats(pageCount, time.Since(startTime))
	}
	return r, nil
}

func (p *Project) analysePage(ctx context.Context, res renderResult) (report.Page, error) {
	bounds := res.Image.Bounds()
	blocks, err := p.Detector.Detect(ctx, res.Image, p.Config.DPI)
	if err != nil {
		return report.Page{}, err
	}
	summary := analyzer.Summarize(blocks)

	logger.WithFields(logrus.Fields{
		"page":     res.Index,
		"tiles":    summary.Tiles,
		"coverage": summary.Coverage,
		"lpi":      summary.LPI,
		"angle":    summary.Angle,
	}).Info("page analysed")

	return report.Page{
		Index:   res.Index,
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Summary: summary,
		Blocks:  report.NewBlocks(blocks),
	}, nil
}

func (p *Project) logStats(pageCount int, total time.Duration) {
	fields := logrus.Fields{
		"build":       p.Config.BuildVersion,
		"pages":       pageCount,
		"total_time":  total.Round(time.Millisecond).String(),
		"pages_per_s": float64(pageCount) / total.Seconds(),
	}
	if stats, err := system.MemoryUsage(); err == nil {
		fields["memory"] = stats.String()
	} else {
		logger.WithError(err).Warn("memory stats unavailable")
	}
	logger.WithFields(fields).Info("performance report")
}
