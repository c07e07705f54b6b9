package descreen

import (
	"fmt"

	"github.com/ivlev/descreen/internal/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Channels is the number of interleaved colour channels in an ImageBuffer.
const Channels = 3

// ChannelResult is the outcome of the spectral pipeline on one channel.
// A channel without a peak has a zero Peak and an LPI of 0. DC is the
// magnitude of bin (0,0), the channel's total intensity.
type ChannelResult struct {
	Peak  PeakResult
	LPI   int
	Angle int
	DC    float64
}

// Prominence is the peak magnitude relative to DC, 0 for a dark window.
func (c ChannelResult) Prominence() float64 {
	if c.DC == 0 {
		return 0
	}
	return c.Peak.Magnitude / c.DC
}

// Detection is the consensus over the three channels. LPI and Angle are only
// meaningful when Found is set; Source is the channel they were taken from.
type Detection struct {
	Found    bool
	LPI      int
	Angle    int
	Source   int
	Agree    int
	Channels [Channels]ChannelResult
}

// consensus accepts a detection when at least two channels report exactly the
// same LPI. Channel 0 wins whenever it is part of a matching pair.
func consensus(ch [Channels]ChannelResult) Detection {
	d := Detection{Channels: ch}
	switch {
	case ch[0].LPI == ch[1].LPI || ch[0].LPI == ch[2].LPI:
		d.Found, d.Source = true, 0
	case ch[1].LPI == ch[2].LPI:
		d.Found, d.Source = true, 1
	default:
		return d
	}
	d.LPI = ch[d.Source].LPI
	d.Angle = ch[d.Source].Angle
	for _, c := range ch {
		if c.LPI == d.LPI {
			d.Agree++
		}
	}
	return d
}

type Options struct {
	// ParallelChannels runs the three channel pipelines concurrently. Each
	// channel then gets its own sample and plan.
	ParallelChannels bool

	// CachePlans reuses FFT plans across calls instead of building one per
	// analysis.
	CachePlans bool
}

// Analyzer runs window analyses. It is safe for concurrent use.
type Analyzer struct {
	opts  Options
	plans *PlanCache
}

func NewAnalyzer(opts Options) *Analyzer {
	a := &Analyzer{opts: opts}
	if opts.CachePlans {
		a.plans = NewPlanCache()
	}
	return a
}

func (a *Analyzer) acquirePlan(size int) *Plan {
	if a.plans != nil {
		return a.plans.Get(size)
	}
	return NewPlan(size)
}

func (a *Analyzer) releasePlan(p *Plan) {
	if a.plans != nil {
		a.plans.Put(p)
	}
}

// Detect analyses the window win of buf on every channel and applies the
// consensus rule. Errors are only returned for broken preconditions and for
// allocation or transform failures; in that case no partial result is kept.
func (a *Analyzer) Detect(buf ImageBuffer, win Window) (Detection, error) {
	if err := buf.validate(); err != nil {
		return Detection{}, err
	}
	if err := win.validate(); err != nil {
		return Detection{}, err
	}

	var (
		results [Channels]ChannelResult
		err     error
	)
	if a.opts.ParallelChannels {
		err = a.detectParallel(buf, win, &results)
	} else {
		err = a.detectSequential(buf, win, &results)
	}
	if err != nil {
		return Detection{}, err
	}

	d := consensus(results)
	if logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		logger.WithFields(logrus.Fields{
			"x":     win.X,
			"y":     win.Y,
			"size":  win.Size(),
			"lpi":   [Channels]int{results[0].LPI, results[1].LPI, results[2].LPI},
			"found": d.Found,
		}).Debug("window analysed")
	}
	return d, nil
}

// detectSequential shares one sample and one plan between the channels.
func (a *Analyzer) detectSequential(buf ImageBuffer, win Window, out *[Channels]ChannelResult) error {
	size := win.Size()
	sample, err := NewPaddedSample(size)
	if err != nil {
		return err
	}
	plan := a.acquirePlan(size)
	defer a.releasePlan(plan)

	for c := 0; c < Channels; c++ {
		r, err := runChannel(buf, win, c, sample, plan)
		if err != nil {
			return err
		}
		out[c] = r
	}
	return nil
}

func (a *Analyzer) detectParallel(buf ImageBuffer, win Window, out *[Channels]ChannelResult) error {
	size := win.Size()
	var g errgroup.Group
	for c := 0; c < Channels; c++ {
		g.Go(func() error {
			sample, err := NewPaddedSample(size)
			if err != nil {
				return err
			}
			plan := a.acquirePlan(size)
			defer a.releasePlan(plan)

			r, err := runChannel(buf, win, c, sample, plan)
			if err != nil {
				return err
			}
			out[c] = r
			return nil
		})
	}
	return g.Wait()
}

func runChannel(buf ImageBuffer, win Window, channel int, sample *PaddedSample, plan *Plan) (ChannelResult, error) {
	size := win.Size()
	sample.Fill(buf, channel, win.X, win.Y)
	if err := plan.Execute(sample); err != nil {
		return ChannelResult{}, fmt.Errorf("channel %d: %w", channel, err)
	}
	view := sample.Spectrum()
	peak := FindPeak(view, size)
	lpi, angle := MapPeak(peak.X, peak.Y, size, size, buf.DPI)
	return ChannelResult{Peak: peak, LPI: lpi, Angle: angle, DC: view.Magnitude(0, 0)}, nil
}

// Config is the in/out record of Analyze. LPI and Angle are outputs and are
// only written when a screentone is detected.
type Config struct {
	Pixels []byte
	Width  int
	Height int
	DPI    float64
	LPI    int
	Angle  int
}

// Analyze inspects the 2^pow2 square at (x, y). On detection it stores the
// screen frequency and angle in cfg and returns true. Otherwise cfg is left
// exactly as it was.
func (a *Analyzer) Analyze(cfg *Config, x, y, pow2 int) (bool, error) {
	buf := ImageBuffer{Pixels: cfg.Pixels, Width: cfg.Width, Height: cfg.Height, DPI: cfg.DPI}
	d, err := a.Detect(buf, Window{X: x, Y: y, Pow2: pow2})
	if err != nil {
		return false, err
	}
	if !d.Found {
		return false, nil
	}
	cfg.LPI = d.LPI
	cfg.Angle = d.Angle
	return true, nil
}

var defaultAnalyzer = NewAnalyzer(Options{})

// Analyze runs the default sequential analyzer, building a fresh plan per
// call.
func Analyze(cfg *Config, x, y, pow2 int) (bool, error) {
	return defaultAnalyzer.Analyze(cfg, x, y, pow2)
}
