package pikalman

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Estimator owns the running state estimate and its covariance for one
// tracking session. It starts Uninitialized; the first accepted fix seeds
// the state and moves it to Tracking, where it stays for the session's
// lifetime. The estimator keeps its own reference time and computes the
// elapsed dt for each fix from that, so callers simply feed timestamped
// fixes in order.
//
// The estimator holds no internal synchronization and must not be called
// concurrently; see Tracker for the serialization point in front of an
// asynchronous fix source. Use NewEstimator to initialize.
type Estimator struct {
	model Model

	noiseFloor     float64
	gapThreshold   float64
	gapVelVariance float64
	initPosVar     float64
	initVelVar     float64

	initialized bool
	refTime     time.Time
	x           *mat.VecDense
	p           *mat.SymDense

	rejected uint64
}

// NewEstimator returns an Uninitialized estimator for the given motion
// model. The remaining numeric parameters come from cfg; cfg.Model is
// ignored here (see New for building the model from the config too).
func NewEstimator(model Model, cfg Config) (*Estimator, error) {
	if model == nil {
		return nil, &ConfigError{Field: "model", Reason: "must be set"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{
		model:          model,
		noiseFloor:     cfg.MeasurementNoiseFloor,
		gapThreshold:   cfg.GapThresholdSeconds,
		gapVelVariance: cfg.GapVelocityVariance,
		initPosVar:     cfg.InitialPositionVariance,
		initVelVar:     cfg.InitialVelocityVariance,
	}, nil
}

// Model returns the motion model in use.
func (kf *Estimator) Model() Model { return kf.model }

// Initialized returns whether a first fix has been accepted.
func (kf *Estimator) Initialized() bool { return kf.initialized }

// ReferenceTime returns the timestamp of the last accepted fix (or the zero
// time while Uninitialized).
func (kf *Estimator) ReferenceTime() time.Time { return kf.refTime }

// Rejected returns how many fixes this estimator has rejected.
func (kf *Estimator) Rejected() uint64 { return kf.rejected }

// CurrentEstimate returns the current state and covariance without side
// effects. While Uninitialized it returns ErrNotInitialized: absence of data
// is an expected transient during startup, not a failure.
func (kf *Estimator) CurrentEstimate() (TrackEstimate, error) {
	if !kf.initialized {
		return TrackEstimate{}, ErrNotInitialized
	}
	return TrackEstimate{
		time:      kf.refTime,
		state:     mat.VecDenseCopyOf(kf.x),
		covar:     copySym(kf.p),
		predCovar: copySym(kf.p),
	}, nil
}

// Predict advances the state estimate by dt seconds without a measurement:
// x <- Φ(dt)·x and P <- Φ(dt)·P·Φ(dt)^T + Q(dt). Predict(0) is the identity.
// The reference time advances with the prediction, so a subsequent fix is
// measured against the advanced instant.
func (kf *Estimator) Predict(dt float64) error {
	if !kf.initialized {
		return ErrNotInitialized
	}
	if dt < 0 {
		return fmt.Errorf("%w: predict dt=%f", ErrNonCausalFix, dt)
	}
	if dt == 0 {
		return nil
	}
	kf.x, kf.p = kf.propagate(kf.x, kf.p, dt)
	kf.refTime = kf.refTime.Add(time.Duration(dt * float64(time.Second)))
	return nil
}

// ProcessFix advances the filter to the fix's timestamp and corrects the
// state with its observation. The first accepted fix seeds the filter
// instead. A rejected fix leaves state, covariance and reference time
// exactly as they were.
func (kf *Estimator) ProcessFix(f Fix) (TrackEstimate, error) {
	if f.z == nil || f.noise == nil {
		kf.rejected++
		return TrackEstimate{}, fmt.Errorf("pikalman: fix has no observation or noise covariance")
	}
	if !kf.initialized {
		return kf.seed(f), nil
	}

	dt := f.Time.Sub(kf.refTime).Seconds()
	if dt <= 0 {
		kf.rejected++
		return TrackEstimate{}, fmt.Errorf("%w: fix at %s, reference %s",
			ErrNonCausalFix, f.Time.Format(time.RFC3339Nano), kf.refTime.Format(time.RFC3339Nano))
	}

	// Work on copies and commit only on success, so a rejected fix cannot
	// leave a half-applied prediction behind.
	x := mat.VecDenseCopyOf(kf.x)
	p := copySym(kf.p)

	// A fix after a long dropout should not trust the stale derivative
	// estimate: the target may have maneuvered while unobserved.
	if kf.gapThreshold > 0 && dt > kf.gapThreshold {
		for i := numAxes; i < kf.model.Dim(); i++ {
			if p.At(i, i) < kf.gapVelVariance {
				p.SetSym(i, i, kf.gapVelVariance)
			}
		}
	}

	xPred, pPred := kf.propagate(x, p, dt)

	xNew, pNew, est, err := kf.correct(xPred, pPred, f)
	if err != nil {
		kf.rejected++
		return TrackEstimate{}, err
	}

	kf.x = xNew
	kf.p = pNew
	kf.refTime = f.Time
	return est, nil
}

// seed initializes the state directly from the first fix. Unobserved
// derivative components start at zero with the configured high variance.
func (kf *Estimator) seed(f Fix) TrackEstimate {
	n := kf.model.Dim()
	x := mat.NewVecDense(n, nil)
	for i := 0; i < f.ObservedDim() && i < n; i++ {
		x.SetVec(i, f.z.AtVec(i))
	}
	p := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if i < numAxes {
			p.SetSym(i, i, kf.initPosVar)
		} else {
			p.SetSym(i, i, kf.initVelVar)
		}
	}
	kf.x = x
	kf.p = p
	kf.refTime = f.Time
	kf.initialized = true
	return TrackEstimate{
		time:      f.Time,
		state:     mat.VecDenseCopyOf(x),
		covar:     copySym(p),
		predCovar: copySym(p),
	}
}

// propagate applies the motion model over dt seconds.
func (kf *Estimator) propagate(x *mat.VecDense, p *mat.SymDense, dt float64) (*mat.VecDense, *mat.SymDense) {
	phi := kf.model.Transition(dt)

	var xNext mat.VecDense
	xNext.MulVec(phi, x)

	var phiP, phiPPhiT, pNext mat.Dense
	phiP.Mul(phi, p)
	phiPPhiT.Mul(&phiP, phi.T())
	pNext.Add(&phiPPhiT, kf.model.ProcessNoise(dt))

	pSym, _ := Symmetrize(&pNext)
	return &xNext, pSym
}

// correct runs the measurement update against the predicted state. The
// innovation covariance is the only matrix ever inverted, via a Cholesky
// decomposition that doubles as the positive-definiteness guard. The
// covariance update uses the Joseph form and is symmetrized afterwards.
func (kf *Estimator) correct(xPred *mat.VecDense, pPred *mat.SymDense, f Fix) (*mat.VecDense, *mat.SymDense, TrackEstimate, error) {
	h := kf.model.Observation(f.Kind)
	r := kf.flooredNoise(f.noise)

	var chol mat.Cholesky
	if !chol.Factorize(r) {
		return nil, nil, TrackEstimate{}, fmt.Errorf("%w: R for fix at %s", ErrDegenerateNoise, f.Time.Format(time.RFC3339Nano))
	}

	// Innovation y - H·x⁻ and its covariance S = H·P⁻·H^T + R.
	var yHat, innov mat.VecDense
	yHat.MulVec(h, xPred)
	innov.SubVec(f.z, &yHat)

	var pht, hpht, sDense mat.Dense
	pht.Mul(pPred, h.T())
	hpht.Mul(h, &pht)
	sDense.Add(&hpht, r)
	s, _ := Symmetrize(&sDense)

	if !chol.Factorize(s) {
		return nil, nil, TrackEstimate{}, fmt.Errorf("%w: innovation covariance for fix at %s", ErrDegenerateNoise, f.Time.Format(time.RFC3339Nano))
	}
	var sInv mat.SymDense
	if err := chol.InverseTo(&sInv); err != nil {
		return nil, nil, TrackEstimate{}, fmt.Errorf("%w: %s", ErrDegenerateNoise, err)
	}

	// Gain K = P⁻·H^T·S⁻¹ and state correction.
	var gain mat.Dense
	gain.Mul(&pht, &sInv)

	var corr, xNew mat.VecDense
	corr.MulVec(&gain, &innov)
	xNew.AddVec(xPred, &corr)

	// Joseph form: P⁺ = (I-KH)·P⁻·(I-KH)^T + K·R·K^T.
	n := kf.model.Dim()
	var kh, ikh, ikhP, joseph, kr, krkt, pDense mat.Dense
	kh.Mul(&gain, h)
	ikh.Sub(Identity(n), &kh)
	ikhP.Mul(&ikh, pPred)
	joseph.Mul(&ikhP, ikh.T())
	kr.Mul(&gain, r)
	krkt.Mul(&kr, gain.T())
	pDense.Add(&joseph, &krkt)
	pNew, err := Symmetrize(&pDense)
	if err != nil {
		return nil, nil, TrackEstimate{}, err
	}

	est := TrackEstimate{
		time:       f.Time,
		state:      mat.VecDenseCopyOf(&xNew),
		covar:      copySym(pNew),
		predCovar:  pPred,
		innovation: &innov,
		innovCovar: s,
		gain:       &gain,
	}
	return &xNew, pNew, est, nil
}

// flooredNoise returns a copy of R with every diagonal entry clamped up to
// the configured floor, guarding against receivers that report zero
// variance.
func (kf *Estimator) flooredNoise(r *mat.SymDense) *mat.SymDense {
	floored := copySym(r)
	n, _ := floored.Dims()
	for i := 0; i < n; i++ {
		if floored.At(i, i) < kf.noiseFloor {
			floored.SetSym(i, i, kf.noiseFloor)
		}
	}
	return floored
}

func copySym(s *mat.SymDense) *mat.SymDense {
	n, _ := s.Dims()
	c := mat.NewSymDense(n, nil)
	c.CopySym(s)
	return c
}
