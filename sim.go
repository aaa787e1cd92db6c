package pikalman

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Simulator synthesizes a ground-truth trajectory and the noisy fixes a
// receiver would report along it. The truth follows the motion model's
// kinematics exactly; only the observations carry noise. Intervals between
// fixes are caller-supplied, so irregular timing and long dropouts are
// simulated directly.
type Simulator struct {
	Model Model
	Meas  Noise
	Start time.Time
}

// SimStep is one instant of a simulated run: the true state and, unless the
// step fell in a dropout window, the fix observed there.
type SimStep struct {
	Time    time.Time
	Truth   *mat.VecDense
	Fix     Fix
	Dropped bool
}

// SimRun is an ordered trace of simulated steps.
type SimRun struct {
	Steps []SimStep
}

// Fixes returns the fixes that were actually observed, in order.
func (r SimRun) Fixes() []Fix {
	fixes := make([]Fix, 0, len(r.Steps))
	for _, step := range r.Steps {
		if !step.Dropped {
			fixes = append(fixes, step.Fix)
		}
	}
	return fixes
}

// Run propagates x0 through one interval per entry of intervals, observing
// a fix at each resulting instant. drop may be nil; otherwise steps where
// drop(k) is true emit no fix, simulating receiver dropout.
func (s *Simulator) Run(x0 *mat.VecDense, intervals []time.Duration, drop func(k int) bool) (SimRun, error) {
	if s.Model == nil || s.Meas == nil {
		return SimRun{}, &ConfigError{Field: "simulator", Reason: "model and measurement noise must be set"}
	}
	if err := checkMatDims(x0, s.Model.Transition(0), "x0", "transition", rows2cols); err != nil {
		return SimRun{}, err
	}
	obs, _ := s.Meas.Cov().Dims()
	var kind FixKind
	switch obs {
	case numAxes:
		kind = PositionOnly
	case 2 * numAxes:
		kind = PositionVelocity
	default:
		return SimRun{}, &ConfigError{Field: "measurement noise", Reason: fmt.Sprintf("covariance must be %dx%d or %dx%d", numAxes, numAxes, 2*numAxes, 2*numAxes)}
	}

	x := mat.VecDenseCopyOf(x0)
	now := s.Start
	if now.IsZero() {
		now = time.Unix(0, 0).UTC()
	}

	steps := make([]SimStep, 0, len(intervals))
	for k, interval := range intervals {
		var next mat.VecDense
		next.MulVec(s.Model.Transition(interval.Seconds()), x)
		x = &next
		now = now.Add(interval)

		step := SimStep{Time: now, Truth: mat.VecDenseCopyOf(x)}
		if drop != nil && drop(k) {
			step.Dropped = true
			steps = append(steps, step)
			continue
		}

		noise := s.Meas.Sample()
		var err error
		switch kind {
		case PositionOnly:
			step.Fix, err = NewPositionFix(now,
				x.AtVec(0)+noise.AtVec(0),
				x.AtVec(1)+noise.AtVec(1),
				s.Meas.Cov())
		case PositionVelocity:
			step.Fix, err = NewPositionVelocityFix(now,
				x.AtVec(0)+noise.AtVec(0),
				x.AtVec(1)+noise.AtVec(1),
				x.AtVec(2)+noise.AtVec(2),
				x.AtVec(3)+noise.AtVec(3),
				s.Meas.Cov())
		}
		if err != nil {
			return SimRun{}, err
		}
		steps = append(steps, step)
	}
	return SimRun{Steps: steps}, nil
}

// FixedIntervals returns n copies of the same interval, the timing of a
// receiver reporting at a steady rate.
func FixedIntervals(n int, interval time.Duration) []time.Duration {
	intervals := make([]time.Duration, n)
	for i := range intervals {
		intervals[i] = interval
	}
	return intervals
}
