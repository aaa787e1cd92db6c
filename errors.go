package pikalman

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Per-fix errors. All of these are recoverable: the estimator rejects the
// offending fix and remains usable for the next one.
var (
	// ErrNonCausalFix is returned when a fix carries a timestamp at or
	// before the estimator's reference time. The recursion cannot roll
	// back, so late and duplicate fixes are rejected, not reordered.
	ErrNonCausalFix = errors.New("pikalman: fix timestamp is not after the current reference time")

	// ErrDegenerateNoise is returned when a measurement noise covariance
	// (after the configured floor is applied) or the resulting innovation
	// covariance is not positive definite.
	ErrDegenerateNoise = errors.New("pikalman: measurement noise covariance is not positive definite")

	// ErrNotInitialized is returned by CurrentEstimate before the first
	// fix has been accepted.
	ErrNotInitialized = errors.New("pikalman: no fix accepted yet")
)

// ConfigError reports an invalid construction parameter. Unlike per-fix
// errors, a ConfigError is fatal: the filter refuses to start.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pikalman: invalid configuration %s: %s", e.Field, e.Reason)
}

// DimensionAgreement defines how two matrices' dimensions should agree.
type DimensionAgreement uint8

const (
	dimErrMsg                    = "dimensions must agree: "
	rows2cols DimensionAgreement = iota + 1
	cols2rows
	cols2cols
	rows2rows
	rowsAndcols
)

// checkMatDims checks the matrix dimensions match provided a DimensionAgreement. Returns an error if not.
func checkMatDims(m1, m2 mat.Matrix, name1, name2 string, method DimensionAgreement) error {
	r1, c1 := m1.Dims()
	r2, c2 := m2.Dims()
	switch method {
	case rows2cols:
		if r1 != c2 {
			return fmt.Errorf("%s%s(%dx...) %s(...x%d)", dimErrMsg, name1, r1, name2, c2)
		}
	case cols2rows:
		if c1 != r2 {
			return fmt.Errorf("%s%s(...x%d) %s(%dx...)", dimErrMsg, name1, c1, name2, r2)
		}
	case cols2cols:
		if c1 != c2 {
			return fmt.Errorf("%s%s(...x%d) %s(...x%d)", dimErrMsg, name1, c1, name2, c2)
		}
	case rows2rows:
		if r1 != r2 {
			return fmt.Errorf("%s%s(%dx...) %s(%dx...)", dimErrMsg, name1, r1, name2, r2)
		}
	case rowsAndcols:
		if c1 != c2 || r1 != r2 {
			return fmt.Errorf("%s%s(%dx%d) %s(%dx%d)", dimErrMsg, name1, r1, c1, name2, r2, c2)
		}
	}
	return nil
}
