package pikalman

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Noise generates measurement noise for synthesized fixes. The filter
// itself takes each fix's own covariance; this interface only serves the
// simulator and tests.
type Noise interface {
	Sample() *mat.VecDense  // Returns one noise draw
	Cov() *mat.SymDense     // Returns the covariance the draws follow
	String() string         // Stringer interface implementation
}

// Noiseless returns zero noise draws and implements the Noise interface.
type Noiseless struct {
	cov *mat.SymDense
}

// NewNoiseless creates a Noiseless noise with the provided covariance (the
// covariance still travels with each fix, only the draws are zero).
func NewNoiseless(cov *mat.SymDense) *Noiseless {
	if cov == nil {
		panic("covariance must be specified")
	}
	return &Noiseless{cov: cov}
}

// Sample implements the Noise interface.
func (n Noiseless) Sample() *mat.VecDense {
	r, _ := n.cov.Dims()
	return mat.NewVecDense(r, nil)
}

// Cov implements the Noise interface.
func (n Noiseless) Cov() *mat.SymDense {
	return n.cov
}

// String implements the Stringer interface.
func (n Noiseless) String() string {
	return fmt.Sprintf("Noiseless{\nR=%v}\n", mat.Formatted(n.cov, mat.Prefix("  ")))
}

// AWGN implements the Noise interface and generates additive white Gaussian
// noise with the provided covariance.
type AWGN struct {
	cov  *mat.SymDense
	dist *distmv.Normal
}

// NewAWGN creates new AWGN noise from the provided covariance and seed.
func NewAWGN(cov *mat.SymDense, seed uint64) (*AWGN, error) {
	r, _ := cov.Dims()
	dist, ok := distmv.NewNormal(make([]float64, r), cov, rand.NewSource(seed))
	if !ok {
		return nil, fmt.Errorf("pikalman: noise covariance is not positive definite")
	}
	return &AWGN{cov: cov, dist: dist}, nil
}

// Sample implements the Noise interface.
func (n *AWGN) Sample() *mat.VecDense {
	draw := n.dist.Rand(nil)
	return mat.NewVecDense(len(draw), draw)
}

// Cov implements the Noise interface.
func (n *AWGN) Cov() *mat.SymDense {
	return n.cov
}

// String implements the Stringer interface.
func (n *AWGN) String() string {
	return fmt.Sprintf("AWGN{\nR=%v}\n", mat.Formatted(n.cov, mat.Prefix("  ")))
}
