package descreen

import "math"

// SpectrumView reads a transformed PaddedSample as a row-major array of
// width x height complex values stored as interleaved re/im float64 pairs.
// width is (size+padding)/2, the non-redundant half of each row.
type SpectrumView struct {
	data   []float64
	width  int
	height int
}

func (v SpectrumView) Width() int  { return v.width }
func (v SpectrumView) Height() int { return v.height }

func (v SpectrumView) At(col, row int) complex128 {
	i := 2 * (row*v.width + col)
	return complex(v.data[i], v.data[i+1])
}

func (v SpectrumView) Magnitude(col, row int) float64 {
	i := 2 * (row*v.width + col)
	re, im := v.data[i], v.data[i+1]
	return math.Sqrt(re*re + im*im)
}

func (v SpectrumView) set(col, row int, c complex128) {
	i := 2 * (row*v.width + col)
	v.data[i] = real(c)
	v.data[i+1] = imag(c)
}
