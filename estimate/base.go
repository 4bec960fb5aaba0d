// Package estimate summarizes weighted particle populations into posterior estimates.
package estimate

import (
	"fmt"
	"math"

	"github.com/milosgajdos/go-abc/matrix"
	"github.com/milosgajdos/go-abc/population"
	"gonum.org/v1/gonum/mat"
)

// Base is base posterior estimate
type Base struct {
	// val is estimated posterior mean
	val *mat.VecDense
	// cov is estimated posterior covariance
	cov *mat.SymDense
}

// NewBase returns base estimate given val
func NewBase(val mat.Vector) (*Base, error) {
	v := &mat.VecDense{}
	if val != nil {
		v.CloneFromVec(val)
	}

	c := mat.NewSymDense(v.Len(), nil)

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// NewBaseWithCov returns base estimate given posterior mean and covariance
func NewBaseWithCov(val mat.Vector, cov mat.Symmetric) (*Base, error) {
	rv, _ := val.Dims()
	rc := cov.SymmetricDim()

	if rv != rc {
		return nil, fmt.Errorf("invalid dimensions. Val: %d, Cov: %d x %d", rv, rc, rc)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// FromPopulation returns weighted mean and covariance estimate of population p
func FromPopulation(p *population.Population) (*Base, error) {
	if p == nil || p.Len() == 0 {
		return nil, fmt.Errorf("empty population")
	}

	x, w := p.Matrix(), p.Weights()
	mean := mat.NewVecDense(p.Dim(), matrix.WeightedColMeans(x, w))

	// a single particle carries no spread
	if p.Len() == 1 {
		return NewBase(mean)
	}

	cov, err := matrix.WeightedCov(x, w)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate covariance: %w", err)
	}

	return NewBaseWithCov(mean, cov)
}

// Val returns estimated value
func (b *Base) Val() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(b.val)

	return v
}

// Cov returns covariance estimate
func (b *Base) Cov() mat.Symmetric {
	cov := mat.NewSymDense(b.cov.SymmetricDim(), nil)
	cov.CopySym(b.cov)

	return cov
}

// Std returns standard deviations of the estimate
func (b *Base) Std() []float64 {
	std := make([]float64, b.val.Len())
	for i := range std {
		std[i] = math.Sqrt(b.cov.At(i, i))
	}

	return std
}
