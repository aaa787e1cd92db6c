package pikalman

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Model defines how the tracked state evolves between fixes: the kinematic
// state-transition matrix for an elapsed time, the process noise accumulated
// over that time, and the observation matrix mapping the full state onto the
// quantities a given fix shape actually observes.
//
// The state ordering is [east, north, vEast, vNorth] for constant-velocity
// models, extended with [aEast, aNorth] for constant-acceleration models.
// All positions are meters in a local tangent plane, velocities m/s and
// accelerations m/s²; projecting receiver latitude/longitude into that plane
// is the fix source's job.
type Model interface {
	// Transition returns the state-transition matrix Φ(dt). dt must be
	// non-negative; Transition(0) is the identity.
	Transition(dt float64) *mat.Dense
	// ProcessNoise returns the process noise Q(dt) accumulated over dt
	// seconds, scaled by the model's noise intensity. Monotonically
	// non-decreasing in dt, and zero at dt=0.
	ProcessNoise(dt float64) *mat.SymDense
	// Observation returns the measurement matrix H for the given fix shape.
	Observation(kind FixKind) *mat.Dense
	// Dim returns the state dimension.
	Dim() int
	String() string
}

// numAxes is the number of planar axes tracked (east, north).
const numAxes = 2

// ConstantVelocity is a 4-state (position, velocity) kinematic model with a
// discrete white-noise-acceleration process noise of intensity q (m/s²)².
// Use NewConstantVelocity to initialize.
type ConstantVelocity struct {
	q float64
}

// NewConstantVelocity returns a constant-velocity motion model with the
// provided white-noise-acceleration intensity q.
func NewConstantVelocity(q float64) (*ConstantVelocity, error) {
	if q <= 0 {
		return nil, &ConfigError{Field: "process noise intensity", Reason: fmt.Sprintf("must be positive, got %f", q)}
	}
	return &ConstantVelocity{q: q}, nil
}

// Dim implements the Model interface.
func (m *ConstantVelocity) Dim() int { return 2 * numAxes }

// Transition implements the Model interface.
func (m *ConstantVelocity) Transition(dt float64) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, dt, 0,
		0, 1, 0, dt,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// ProcessNoise implements the Model interface. Each axis accumulates the
// standard white-noise-acceleration blocks q·[dt³/3 dt²/2; dt²/2 dt] over
// its (position, velocity) pair.
func (m *ConstantVelocity) ProcessNoise(dt float64) *mat.SymDense {
	q := mat.NewSymDense(4, nil)
	q11 := m.q * dt * dt * dt / 3
	q12 := m.q * dt * dt / 2
	q22 := m.q * dt
	for axis := 0; axis < numAxes; axis++ {
		q.SetSym(axis, axis, q11)
		q.SetSym(axis, axis+numAxes, q12)
		q.SetSym(axis+numAxes, axis+numAxes, q22)
	}
	return q
}

// Observation implements the Model interface.
func (m *ConstantVelocity) Observation(kind FixKind) *mat.Dense {
	return observationMatrix(kind, m.Dim())
}

// String implements the Stringer interface.
func (m *ConstantVelocity) String() string {
	return fmt.Sprintf("ConstantVelocity{q=%f}", m.q)
}

// ConstantAcceleration is a 6-state (position, velocity, acceleration)
// kinematic model with a discrete white-noise-jerk process noise of
// intensity q (m/s³)². Use NewConstantAcceleration to initialize.
type ConstantAcceleration struct {
	q float64
}

// NewConstantAcceleration returns a constant-acceleration motion model with
// the provided white-noise-jerk intensity q.
func NewConstantAcceleration(q float64) (*ConstantAcceleration, error) {
	if q <= 0 {
		return nil, &ConfigError{Field: "process noise intensity", Reason: fmt.Sprintf("must be positive, got %f", q)}
	}
	return &ConstantAcceleration{q: q}, nil
}

// Dim implements the Model interface.
func (m *ConstantAcceleration) Dim() int { return 3 * numAxes }

// Transition implements the Model interface.
func (m *ConstantAcceleration) Transition(dt float64) *mat.Dense {
	half := 0.5 * dt * dt
	return mat.NewDense(6, 6, []float64{
		1, 0, dt, 0, half, 0,
		0, 1, 0, dt, 0, half,
		0, 0, 1, 0, dt, 0,
		0, 0, 0, 1, 0, dt,
		0, 0, 0, 0, 1, 0,
		0, 0, 0, 0, 0, 1,
	})
}

// ProcessNoise implements the Model interface. Each axis accumulates the
// white-noise-jerk blocks over its (position, velocity, acceleration)
// triplet.
func (m *ConstantAcceleration) ProcessNoise(dt float64) *mat.SymDense {
	q := mat.NewSymDense(6, nil)
	dt2 := dt * dt
	dt3 := dt2 * dt
	dt4 := dt3 * dt
	dt5 := dt4 * dt
	for axis := 0; axis < numAxes; axis++ {
		p, v, a := axis, axis+numAxes, axis+2*numAxes
		q.SetSym(p, p, m.q*dt5/20)
		q.SetSym(p, v, m.q*dt4/8)
		q.SetSym(p, a, m.q*dt3/6)
		q.SetSym(v, v, m.q*dt3/3)
		q.SetSym(v, a, m.q*dt2/2)
		q.SetSym(a, a, m.q*dt)
	}
	return q
}

// Observation implements the Model interface.
func (m *ConstantAcceleration) Observation(kind FixKind) *mat.Dense {
	return observationMatrix(kind, m.Dim())
}

// String implements the Stringer interface.
func (m *ConstantAcceleration) String() string {
	return fmt.Sprintf("ConstantAcceleration{q=%f}", m.q)
}

// observationMatrix selects the leading state components a fix shape
// observes. Positions come first in the state ordering and velocities
// second, so both fix shapes are prefix selections regardless of model.
func observationMatrix(kind FixKind, stateDim int) *mat.Dense {
	obs := kind.ObservedDim()
	h := mat.NewDense(obs, stateDim, nil)
	for i := 0; i < obs; i++ {
		h.Set(i, i, 1)
	}
	return h
}
