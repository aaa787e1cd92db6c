package pikalman

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NEESSeries computes the normalized estimation error squared
// (x_true - x_est)^T · P⁻¹ · (x_true - x_est) for each estimate against the
// matching ground-truth state. A consistent, well-tuned filter keeps the
// mean NEES near the state dimension.
func NEESSeries(truth []*mat.VecDense, ests []TrackEstimate) ([]float64, error) {
	if len(truth) != len(ests) {
		return nil, fmt.Errorf("pikalman: %d truth states for %d estimates", len(truth), len(ests))
	}
	nees := make([]float64, len(ests))
	for k, est := range ests {
		var e mat.VecDense
		e.SubVec(truth[k], est.State())

		var chol mat.Cholesky
		if !chol.Factorize(est.Covariance()) {
			return nil, fmt.Errorf("pikalman: estimate covariance at step %d is not positive definite", k)
		}
		var solved mat.VecDense
		if err := chol.SolveVecTo(&solved, &e); err != nil {
			return nil, err
		}
		nees[k] = mat.Dot(&e, &solved)
	}
	return nees, nil
}

// NISSeries computes the normalized innovation squared
// innov^T · S⁻¹ · innov per estimate. Seed estimates carry no innovation
// and are skipped.
func NISSeries(ests []TrackEstimate) ([]float64, error) {
	nis := make([]float64, 0, len(ests))
	for k, est := range ests {
		if est.Innovation() == nil {
			continue
		}
		var chol mat.Cholesky
		if !chol.Factorize(est.InnovationCovariance()) {
			return nil, fmt.Errorf("pikalman: innovation covariance at step %d is not positive definite", k)
		}
		var solved mat.VecDense
		if err := chol.SolveVecTo(&solved, est.Innovation()); err != nil {
			return nil, err
		}
		nis = append(nis, mat.Dot(est.Innovation(), &solved))
	}
	return nis, nil
}

// ChiSquareBounds returns the acceptance interval for the mean of n
// chi-square samples with the given degrees of freedom, at the given
// confidence level (e.g. 0.95).
func ChiSquareBounds(dof, n int, confidence float64) (lo, hi float64, err error) {
	if dof <= 0 || n <= 0 {
		return 0, 0, errors.New("pikalman: dof and n must be positive")
	}
	if confidence <= 0 || confidence >= 1 {
		return 0, 0, errors.New("pikalman: confidence must be in (0, 1)")
	}
	dist := distuv.ChiSquared{K: float64(dof * n)}
	alpha := 1 - confidence
	lo = dist.Quantile(alpha/2) / float64(n)
	hi = dist.Quantile(1-alpha/2) / float64(n)
	return lo, hi, nil
}

// MeanWithinChiSquare reports whether the sample mean falls inside the
// chi-square acceptance interval for the given degrees of freedom, and
// returns the mean alongside.
func MeanWithinChiSquare(samples []float64, dof int, confidence float64) (bool, float64, error) {
	if len(samples) == 0 {
		return false, 0, errors.New("pikalman: no samples")
	}
	lo, hi, err := ChiSquareBounds(dof, len(samples), confidence)
	if err != nil {
		return false, 0, err
	}
	mean := stat.Mean(samples, nil)
	return mean >= lo && mean <= hi, mean, nil
}
