package analyzer

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary condenses the tile verdicts of one page.
type Summary struct {
	Tiles      int     `json:"tiles" yaml:"tiles"`
	Screentone int     `json:"screentone" yaml:"screentone"`
	Coverage   float64 `json:"coverage" yaml:"coverage"`
	LPI        int     `json:"lpi" yaml:"lpi"`
	Angle      int     `json:"angle" yaml:"angle"`
	MeanLPI    float64 `json:"mean_lpi" yaml:"mean_lpi"`
	StdDevLPI  float64 `json:"stddev_lpi" yaml:"stddev_lpi"`
}

// Detected reports whether any tile carried a screen.
func (s Summary) Detected() bool {
	return s.Screentone > 0
}

// Summarize picks the most frequent LPI among screentone tiles and the most
// frequent angle among the tiles with that LPI. Ties go to the lower value.
func Summarize(blocks []Block) Summary {
	s := Summary{Tiles: len(blocks)}

	var lpis []float64
	lpiVotes := map[int]int{}
	for _, b := range blocks {
		if b.Type != TypeScreentone {
			continue
		}
		s.Screentone++
		lpis = append(lpis, float64(b.LPI))
		lpiVotes[b.LPI]++
	}
	if s.Tiles > 0 {
		s.Coverage = float64(s.Screentone) / float64(s.Tiles)
	}
	if s.Screentone == 0 {
		return s
	}

	s.LPI = mode(lpiVotes)
	angleVotes := map[int]int{}
	for _, b := range blocks {
		if b.Type == TypeScreentone && b.LPI == s.LPI {
			angleVotes[b.Angle]++
		}
	}
	s.Angle = mode(angleVotes)

	if len(lpis) > 1 {
		s.MeanLPI, s.StdDevLPI = stat.MeanStdDev(lpis, nil)
	} else {
		s.MeanLPI = lpis[0]
	}
	return s
}

func mode(votes map[int]int) int {
	keys := make([]int, 0, len(votes))
	for k := range votes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	best, bestVotes := 0, 0
	for _, k := range keys {
		if votes[k] > bestVotes {
			best, bestVotes = k, votes[k]
		}
	}
	return best
}
