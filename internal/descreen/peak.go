package descreen

import "math"

// PeakResult is the strongest qualifying spectral bin. A zero Magnitude means
// nothing qualified and X, Y are both 0.
type PeakResult struct {
	X, Y      int
	Magnitude float64
}

func (p PeakResult) Found() bool {
	return p.Magnitude > 0
}

// ExclusionRadius is the distance from DC inside which bins are ignored.
// It removes the DC term and the paper-texture energy around it.
func ExclusionRadius(size int) float64 {
	return float64(size) / 8
}

// FindPeak scans the top half of the spectrum (rows 0..size/2-1, every stored
// column) in row-major order and returns the largest strict local maximum
// lying strictly outside ExclusionRadius(size). Ties keep the first bin
// scanned.
func FindPeak(view SpectrumView, size int) PeakResult {
	width := view.Width()
	height := size / 2
	if height > view.Height() {
		height = view.Height()
	}
	radius := ExclusionRadius(size)

	var peak PeakResult
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if distance(col, row) <= radius {
				continue
			}
			mag := view.Magnitude(col, row)
			if mag <= peak.Magnitude {
				continue
			}
			if !isLocalMax(view, width, height, col, row, mag) {
				continue
			}
			peak = PeakResult{X: col, Y: row, Magnitude: mag}
		}
	}
	return peak
}

// isLocalMax compares mag against the up, right, down and left neighbours
// that exist inside width x height. Missing neighbours never disqualify.
func isLocalMax(view SpectrumView, width, height, col, row int, mag float64) bool {
	if row > 0 && mag <= view.Magnitude(col, row-1) {
		return false
	}
	if col < width-1 && mag <= view.Magnitude(col+1, row) {
		return false
	}
	if row < height-1 && mag <= view.Magnitude(col, row+1) {
		return false
	}
	if col > 0 && mag <= view.Magnitude(col-1, row) {
		return false
	}
	return true
}

func distance(x, y int) float64 {
	fx, fy := float64(x), float64(y)
	return math.Sqrt(fx*fx + fy*fy)
}
