package pikalman

import (
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"
)

func TestSimulatorRun(t *testing.T) {
	cv, _ := NewConstantVelocity(1)
	meas, err := NewAWGN(ScaledIdentity(2, 4), 3)
	if err != nil {
		t.Fatal(err)
	}
	sim := Simulator{Model: cv, Meas: meas, Start: time.Unix(0, 0)}

	x0 := mat.NewVecDense(4, []float64{0, 0, 2, -1})
	drop := func(k int) bool { return k >= 10 && k < 15 }
	run, err := sim.Run(x0, FixedIntervals(30, time.Second), drop)
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Steps) != 30 {
		t.Fatalf("expected 30 steps, got %d", len(run.Steps))
	}
	if got := len(run.Fixes()); got != 25 {
		t.Fatalf("expected 25 observed fixes, got %d", got)
	}
	// Truth follows the kinematics exactly.
	last := run.Steps[29].Truth
	if last.AtVec(0) != 60 || last.AtVec(1) != -30 {
		t.Fatalf("truth at step 30 is (%f, %f)", last.AtVec(0), last.AtVec(1))
	}
	for k, step := range run.Steps {
		if step.Dropped != (k >= 10 && k < 15) {
			t.Fatalf("step %d dropped=%v", k, step.Dropped)
		}
		if !step.Dropped && step.Fix.Kind != PositionOnly {
			t.Fatalf("step %d fix kind %s", k, step.Fix.Kind)
		}
	}
}

func TestSimulatorPositionVelocityFixes(t *testing.T) {
	cv, _ := NewConstantVelocity(1)
	sim := Simulator{Model: cv, Meas: NewNoiseless(ScaledIdentity(4, 1))}
	x0 := mat.NewVecDense(4, []float64{0, 0, 1, 1})
	run, err := sim.Run(x0, FixedIntervals(3, time.Second), nil)
	if err != nil {
		t.Fatal(err)
	}
	fix := run.Steps[2].Fix
	if fix.Kind != PositionVelocity {
		t.Fatalf("fix kind %s", fix.Kind)
	}
	// Noiseless observations match the truth exactly.
	if fix.Observation().AtVec(0) != 3 || fix.Observation().AtVec(2) != 1 {
		t.Fatalf("observation %v", mat.Formatted(fix.Observation().T()))
	}
}

func TestSimulatorValidation(t *testing.T) {
	cv, _ := NewConstantVelocity(1)
	sim := Simulator{Model: cv, Meas: NewNoiseless(ScaledIdentity(3, 1))}
	if _, err := sim.Run(mat.NewVecDense(4, nil), FixedIntervals(1, time.Second), nil); err == nil {
		t.Fatal("3x3 measurement noise does not fail")
	}
	sim = Simulator{Model: cv, Meas: NewNoiseless(ScaledIdentity(2, 1))}
	if _, err := sim.Run(mat.NewVecDense(6, nil), FixedIntervals(1, time.Second), nil); err == nil {
		t.Fatal("6-state x0 against a 4-state model does not fail")
	}
}
