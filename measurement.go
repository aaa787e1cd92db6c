package pikalman

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// FixKind tags the shape of an observation.
type FixKind uint8

const (
	// PositionOnly observes east and north position.
	PositionOnly FixKind = iota + 1
	// PositionVelocity observes east and north position and velocity.
	PositionVelocity
)

// ObservedDim returns the number of observed quantities for this shape.
func (k FixKind) ObservedDim() int {
	switch k {
	case PositionOnly:
		return numAxes
	case PositionVelocity:
		return 2 * numAxes
	default:
		return 0
	}
}

// String implements the Stringer interface.
func (k FixKind) String() string {
	switch k {
	case PositionOnly:
		return "position"
	case PositionVelocity:
		return "position+velocity"
	default:
		return fmt.Sprintf("FixKind(%d)", uint8(k))
	}
}

// Fix is a single timestamped GPS observation together with the receiver's
// reported (or assumed) accuracy at that instant. Use NewPositionFix or
// NewPositionVelocityFix to build a validated Fix.
type Fix struct {
	Time  time.Time
	Kind  FixKind
	z     *mat.VecDense
	noise *mat.SymDense
}

// NewPositionFix returns a position-only fix at the given instant. noise is
// the 2x2 measurement noise covariance (m²) for the east/north positions.
func NewPositionFix(t time.Time, east, north float64, noise *mat.SymDense) (Fix, error) {
	return newFix(t, PositionOnly, mat.NewVecDense(2, []float64{east, north}), noise)
}

// NewPositionVelocityFix returns a fix observing both position and velocity.
// noise is the 4x4 measurement noise covariance over [east, north, vEast,
// vNorth].
func NewPositionVelocityFix(t time.Time, east, north, vEast, vNorth float64, noise *mat.SymDense) (Fix, error) {
	return newFix(t, PositionVelocity, mat.NewVecDense(4, []float64{east, north, vEast, vNorth}), noise)
}

func newFix(t time.Time, kind FixKind, z *mat.VecDense, noise *mat.SymDense) (Fix, error) {
	if t.IsZero() {
		return Fix{}, fmt.Errorf("pikalman: fix timestamp must be set")
	}
	if noise == nil {
		return Fix{}, fmt.Errorf("pikalman: fix noise covariance must be set")
	}
	if err := checkMatDims(z, noise, "observation", "noise", rows2cols); err != nil {
		return Fix{}, err
	}
	return Fix{Time: t, Kind: kind, z: z, noise: noise}, nil
}

// Observation returns the observed quantities as a vector ordered per the
// fix kind.
func (f Fix) Observation() *mat.VecDense { return f.z }

// Noise returns the measurement noise covariance R attached to this fix.
func (f Fix) Noise() *mat.SymDense { return f.noise }

// ObservedDim returns the number of observed quantities.
func (f Fix) ObservedDim() int { return f.Kind.ObservedDim() }

// String implements the Stringer interface.
func (f Fix) String() string {
	return fmt.Sprintf("Fix{%s %s z=%v}", f.Time.Format(time.RFC3339Nano), f.Kind, mat.Formatted(f.z.T()))
}
