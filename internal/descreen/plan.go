package descreen

import (
	"fmt"

	"github.com/ivlev/descreen/internal/system"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Plan computes the forward, unnormalized 2D real-to-complex DFT of a
// PaddedSample in place. Rows go through a real FFT (size/2+1 outputs each),
// then every retained column goes through a complex FFT. A Plan holds scratch
// space and must not be shared between goroutines.
type Plan struct {
	size   int
	rows   *fourier.FFT
	cols   *fourier.CmplxFFT
	coeffs []complex128
	column []complex128
}

func NewPlan(size int) *Plan {
	width := (size + padding(size)) / 2
	return &Plan{
		size:   size,
		rows:   fourier.NewFFT(size),
		cols:   fourier.NewCmplxFFT(size),
		coeffs: make([]complex128, size*width),
		column: make([]complex128, size),
	}
}

func (p *Plan) Size() int { return p.size }

// Execute overwrites s with its spectrum. gonum signals misuse by panicking;
// that is reported as ErrTransform.
func (p *Plan) Execute(s *PaddedSample) (err error) {
	if s.size != p.size {
		return fmt.Errorf("%w: plan for %d, sample of %d", ErrTransform, p.size, s.size)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTransform, r)
		}
	}()

	stride := s.stride()
	width := stride / 2
	for row := 0; row < p.size; row++ {
		p.rows.Coefficients(p.coeffs[row*width:(row+1)*width], s.data[row*stride:row*stride+p.size])
	}
	for col := 0; col < width; col++ {
		for row := 0; row < p.size; row++ {
			p.column[row] = p.coeffs[row*width+col]
		}
		p.cols.Coefficients(p.column, p.column)
		for row := 0; row < p.size; row++ {
			p.coeffs[row*width+col] = p.column[row]
		}
	}
	for i, c := range p.coeffs {
		s.data[2*i] = real(c)
		s.data[2*i+1] = imag(c)
	}
	return nil
}

// PlanCache hands out plans keyed by window size so repeated analyses of the
// same size skip FFT setup.
type PlanCache struct {
	pool *system.KeyedPool[int, *Plan]
}

func NewPlanCache() *PlanCache {
	return &PlanCache{pool: system.NewKeyedPool(NewPlan)}
}

func (c *PlanCache) Get(size int) *Plan {
	return c.pool.Get(size)
}

func (c *PlanCache) Put(p *Plan) {
	c.pool.Put(p.size, p)
}
