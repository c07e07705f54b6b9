package descreen

import "math"

// screenSymmetry is the rotational period of a halftone screen in degrees.
const screenSymmetry = 30

// MapPeak converts spectral bin (x, y) of a width x height window scanned at
// dpi into a screen frequency in lines per inch and an angle in [0, 30).
//
// The angle is atan2(x, y), measured from the vertical frequency axis. This
// argument order is the established convention for reported angles and must
// not be swapped. dpi must be positive.
func MapPeak(x, y, width, height int, dpi float64) (lpi, angle int) {
	widthInches := float64(width) / dpi
	heightInches := float64(height) / dpi

	fx := math.Round(float64(x) / widthInches)
	fy := math.Round(float64(y) / heightInches)
	lpi = int(math.Round(math.Sqrt(fx*fx + fy*fy)))

	deg := math.Round(math.Atan2(float64(x), float64(y)) * 180 / math.Pi)
	angle = int(deg) % screenSymmetry
	return lpi, angle
}
