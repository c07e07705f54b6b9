package descreen

import "fmt"

// MaxPow2 bounds the analysis window side at 8192 samples. Larger windows are
// refused with ErrAllocation rather than attempting a multi-gigabyte buffer.
const MaxPow2 = 13

// ImageBuffer is a decoded scan: interleaved 8-bit R,G,B samples, row-major,
// origin top-left, no alpha. The detector only ever reads Pixels.
type ImageBuffer struct {
	Pixels []byte
	Width  int
	Height int
	DPI    float64
}

func (b ImageBuffer) validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: image is %dx%d", ErrInvalidConfig, b.Width, b.Height)
	}
	if b.DPI <= 0 {
		return fmt.Errorf("%w: dpi must be > 0 (got %g)", ErrInvalidConfig, b.DPI)
	}
	if need := b.Width * b.Height * 3; len(b.Pixels) < need {
		return fmt.Errorf("%w: pixel buffer holds %d bytes, need %d", ErrInvalidConfig, len(b.Pixels), need)
	}
	return nil
}

// Window is a square analysis region of side 1<<Pow2 with its top-left corner
// at (X, Y). It may extend past the image; those samples read as zero.
type Window struct {
	X, Y int
	Pow2 int
}

func (w Window) Size() int {
	return 1 << w.Pow2
}

func (w Window) validate() error {
	if w.X < 0 || w.Y < 0 {
		return fmt.Errorf("%w: window origin (%d,%d) is negative", ErrInvalidConfig, w.X, w.Y)
	}
	if w.Pow2 < 0 {
		return fmt.Errorf("%w: pow2 must be >= 0 (got %d)", ErrInvalidConfig, w.Pow2)
	}
	if w.Pow2 > MaxPow2 {
		return fmt.Errorf("%w: window 2^%d exceeds limit 2^%d", ErrAllocation, w.Pow2, MaxPow2)
	}
	return nil
}

// padding is the number of extra real slots each row needs so that the
// in-place real-to-complex transform can store size/2+1 complex values.
func padding(size int) int {
	if size&1 == 1 {
		return 1
	}
	return 2
}

// PaddedSample is a size x (size+padding) real buffer holding one channel of
// one window. After a Plan has executed on it, the same memory is read back
// through Spectrum as (size+padding)/2 complex values per row.
type PaddedSample struct {
	size    int
	padding int
	data    []float64
}

func NewPaddedSample(size int) (*PaddedSample, error) {
	if size <= 0 || size > 1<<MaxPow2 {
		return nil, fmt.Errorf("%w: window size %d", ErrAllocation, size)
	}
	p := padding(size)
	return &PaddedSample{
		size:    size,
		padding: p,
		data:    make([]float64, size*(size+p)),
	}, nil
}

func (s *PaddedSample) Size() int    { return s.size }
func (s *PaddedSample) Padding() int { return s.padding }

func (s *PaddedSample) stride() int {
	return s.size + s.padding
}

// Real returns the real-view value at (row, col).
func (s *PaddedSample) Real(row, col int) float64 {
	return s.data[row*s.stride()+col]
}

// Fill copies one channel of the window at (x, y) into the real view.
// Pixels outside the image become 0. Padding columns are left untouched.
func (s *PaddedSample) Fill(buf ImageBuffer, channel, x, y int) {
	stride := s.stride()
	for row := 0; row < s.size; row++ {
		line := s.data[row*stride : row*stride+s.size]
		py := y + row
		for col := range line {
			px := x + col
			if px < 0 || py < 0 || px >= buf.Width || py >= buf.Height {
				line[col] = 0
				continue
			}
			line[col] = float64(buf.Pixels[(py*buf.Width+px)*3+channel])
		}
	}
}

// Spectrum reinterprets the buffer as the complex output of the transform.
func (s *PaddedSample) Spectrum() SpectrumView {
	return SpectrumView{
		data:   s.data,
		width:  s.stride() / 2,
		height: s.size,
	}
}
