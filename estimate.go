package pikalman

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// TrackEstimate is the output of each accepted fix (seed and steady-state
// alike): the corrected state and covariance plus the intermediate
// quantities of the update.
type TrackEstimate struct {
	time              time.Time
	state             *mat.VecDense
	innovation        *mat.VecDense
	covar, predCovar  *mat.SymDense
	innovCovar        *mat.SymDense
	gain              *mat.Dense
}

// Time returns the instant this estimate corresponds to.
func (e TrackEstimate) Time() time.Time { return e.time }

// State returns the corrected state vector \hat{x}_{k}^{+}.
func (e TrackEstimate) State() *mat.VecDense { return e.state }

// Covariance returns the corrected covariance P_{k}^{+}.
func (e TrackEstimate) Covariance() *mat.SymDense { return e.covar }

// PredCovariance returns the pre-update covariance P_{k}^{-}.
func (e TrackEstimate) PredCovariance() *mat.SymDense { return e.predCovar }

// Innovation returns the innovation vector y_{k} - H*\hat{x}_{k}^{-}.
func (e TrackEstimate) Innovation() *mat.VecDense { return e.innovation }

// InnovationCovariance returns the innovation covariance H*P*H^T + R.
func (e TrackEstimate) InnovationCovariance() *mat.SymDense { return e.innovCovar }

// Gain returns the Kalman gain applied during the update. Nil for the seed
// estimate, which copies the observation directly.
func (e TrackEstimate) Gain() *mat.Dense { return e.gain }

// Position returns the estimated east and north position.
func (e TrackEstimate) Position() (east, north float64) {
	return e.state.AtVec(0), e.state.AtVec(1)
}

// Velocity returns the estimated east and north velocity.
func (e TrackEstimate) Velocity() (vEast, vNorth float64) {
	return e.state.AtVec(numAxes), e.state.AtVec(numAxes + 1)
}

// IsWithinNσ returns whether the innovation is within the N*σ bounds of the
// innovation covariance, component-wise. Seed estimates trivially pass.
func (e TrackEstimate) IsWithinNσ(N float64) bool {
	if e.innovation == nil || e.innovCovar == nil {
		return true
	}
	for i := 0; i < e.innovation.Len(); i++ {
		nσ := N * math.Sqrt(e.innovCovar.At(i, i))
		if e.innovation.AtVec(i) > nσ || e.innovation.AtVec(i) < -nσ {
			return false
		}
	}
	return true
}

// IsWithin2σ returns whether the innovation is within the 2σ bounds.
func (e TrackEstimate) IsWithin2σ() bool {
	return e.IsWithinNσ(2)
}

// String implements the Stringer interface.
func (e TrackEstimate) String() string {
	state := mat.Formatted(e.state, mat.Prefix("  "))
	covar := mat.Formatted(e.covar, mat.Prefix("  "))
	if e.innovation == nil {
		return fmt.Sprintf("{\nt=%s\ns=%v\nP=%v\n}", e.time.Format(time.RFC3339Nano), state, covar)
	}
	innov := mat.Formatted(e.innovation, mat.Prefix("  "))
	predp := mat.Formatted(e.predCovar, mat.Prefix("  "))
	return fmt.Sprintf("{\nt=%s\ns=%v\nP=%v\nP-=%v\ni=%v\n}", e.time.Format(time.RFC3339Nano), state, covar, predp, innov)
}
