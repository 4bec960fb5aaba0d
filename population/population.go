package population

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// WeightTol is the tolerance within which population weights must sum up to 1
const WeightTol = 1e-9

// Particle is a weighted parameter vector accepted by the sampler
type Particle struct {
	// Params stores particle parameters
	Params []float64
	// Weight is particle importance weight
	Weight float64
	// Distance is the distance which got the particle accepted
	Distance float64
}

// Population is a finalized set of weighted particles produced by one sampler iteration.
// Population is immutable: all accessors return copies of its data.
type Population struct {
	// iter is the iteration which produced the population
	iter int
	// threshold is the distance threshold the particles were accepted under
	threshold float64
	// x stores particle parameters in rows
	x *mat.Dense
	// w stores particle weights
	w []float64
	// d stores particle distances
	d []float64
}

// New creates new Population from particles accepted in iteration iter under the given threshold.
// Particle weights are normalized so they sum up to 1.
// New returns error if particles are empty, have inconsistent dimensions or invalid weights.
func New(iter int, threshold float64, particles []Particle) (*Population, error) {
	if len(particles) == 0 {
		return nil, fmt.Errorf("invalid particle count: %d", len(particles))
	}

	dim := len(particles[0].Params)
	if dim == 0 {
		return nil, fmt.Errorf("invalid particle dimension: %d", dim)
	}

	x := mat.NewDense(len(particles), dim, nil)
	w := make([]float64, len(particles))
	d := make([]float64, len(particles))

	for i, p := range particles {
		if len(p.Params) != dim {
			return nil, fmt.Errorf("invalid particle %d dimension: %d != %d", i, len(p.Params), dim)
		}
		if p.Weight < 0 || math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) {
			return nil, fmt.Errorf("invalid particle %d weight: %v", i, p.Weight)
		}
		x.SetRow(i, p.Params)
		w[i] = p.Weight
		d[i] = p.Distance
	}

	sum := floats.Sum(w)
	if sum <= 0 {
		return nil, fmt.Errorf("particle weights sum up to zero")
	}
	// normalize the particle weights so they express probability
	floats.Scale(1/sum, w)

	return &Population{
		iter:      iter,
		threshold: threshold,
		x:         x,
		w:         w,
		d:         d,
	}, nil
}

// Iteration returns the iteration which produced the population
func (p *Population) Iteration() int { return p.iter }

// Threshold returns the distance threshold the population was accepted under
func (p *Population) Threshold() float64 { return p.threshold }

// Len returns the number of particles in population
func (p *Population) Len() int { return len(p.w) }

// Dim returns the dimension of particle parameters
func (p *Population) Dim() int {
	_, c := p.x.Dims()
	return c
}

// Particle returns i-th particle
func (p *Population) Particle(i int) Particle {
	return Particle{
		Params:   mat.Row(nil, i, p.x),
		Weight:   p.w[i],
		Distance: p.d[i],
	}
}

// Particles returns all population particles
func (p *Population) Particles() []Particle {
	particles := make([]Particle, len(p.w))
	for i := range particles {
		particles[i] = p.Particle(i)
	}

	return particles
}

// Matrix returns particle parameters stored in matrix rows
func (p *Population) Matrix() *mat.Dense {
	x := &mat.Dense{}
	x.CloneFrom(p.x)

	return x
}

// Weights returns particle weights
func (p *Population) Weights() []float64 {
	w := make([]float64, len(p.w))
	copy(w, p.w)

	return w
}

// Distances returns particle distances
func (p *Population) Distances() []float64 {
	d := make([]float64, len(p.d))
	copy(d, p.d)

	return d
}

// ESS returns effective sample size of the population
func (p *Population) ESS() float64 {
	return 1 / floats.Dot(p.w, p.w)
}

// Validate checks population invariants: it contains exactly m particles, all particles lie
// within their bounds and the weights sum up to 1. contains reports whether parameters are in bounds.
func (p *Population) Validate(m int, contains func([]float64) bool) error {
	if p.Len() != m {
		return fmt.Errorf("invalid population size: %d != %d", p.Len(), m)
	}

	if sum := floats.Sum(p.w); math.Abs(sum-1) > WeightTol {
		return fmt.Errorf("population weights sum up to %v", sum)
	}

	for i := 0; i < p.Len(); i++ {
		if params := mat.Row(nil, i, p.x); contains != nil && !contains(params) {
			return fmt.Errorf("particle %d out of bounds: %v", i, params)
		}
		if p.d[i] < 0 {
			return fmt.Errorf("particle %d has negative distance: %v", i, p.d[i])
		}
	}

	return nil
}

// String implements the Stringer interface.
func (p *Population) String() string {
	return fmt.Sprintf("Population{\nIteration=%d\nThreshold=%v\nSize=%d\nESS=%.2f\n}", p.iter, p.threshold, p.Len(), p.ESS())
}
