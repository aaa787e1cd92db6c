package pikalman

import (
	"context"
	"errors"
	"sync"
)

// Stats counts the fixes a Tracker has handled, by outcome.
type Stats struct {
	Accepted   uint64
	NonCausal  uint64
	Degenerate uint64
	Rejected   uint64 // other rejections (malformed fixes)
}

// Tracker is the serialization point between an asynchronous fix source and
// the single-threaded estimator: fixes are funneled through one queue and
// drained by one consumer, so the recursion always sees them in full and in
// order. Estimates go to the Sink once per accepted fix, seed included.
// Use NewTracker to initialize.
type Tracker struct {
	est  *Estimator
	sink Sink

	fixes chan Fix

	mu    sync.RWMutex
	stats Stats

	closeOnce sync.Once
}

// NewTracker returns a tracker draining into est and emitting to sink.
// queueDepth is the fix queue capacity.
func NewTracker(est *Estimator, sink Sink, queueDepth int) (*Tracker, error) {
	if est == nil {
		return nil, &ConfigError{Field: "estimator", Reason: "must be set"}
	}
	if sink == nil {
		return nil, &ConfigError{Field: "sink", Reason: "must be set"}
	}
	if queueDepth <= 0 {
		return nil, &ConfigError{Field: "queue depth", Reason: "must be positive"}
	}
	return &Tracker{est: est, sink: sink, fixes: make(chan Fix, queueDepth)}, nil
}

// Offer enqueues a fix without blocking. It returns false when the queue is
// full, leaving the caller to drop or retry.
func (t *Tracker) Offer(f Fix) bool {
	select {
	case t.fixes <- f:
		return true
	default:
		return false
	}
}

// Push enqueues a fix, blocking until there is room or ctx is done.
func (t *Tracker) Push(ctx context.Context, f Fix) error {
	select {
	case t.fixes <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting fixes. A Run in progress drains what was already
// queued and then returns.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() { close(t.fixes) })
}

// Stats returns a copy of the outcome counters.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// Estimator returns the wrapped estimator. It must only be used from the
// goroutine running Run, or once Run has returned.
func (t *Tracker) Estimator() *Estimator { return t.est }

// Run drains the fix queue until Close is called or ctx is done. Rejected
// fixes are counted and dropped; the filter stays usable for the next fix.
// A sink write failure stops the run and is returned.
func (t *Tracker) Run(ctx context.Context) error {
	defer t.sink.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-t.fixes:
			if !ok {
				return nil
			}
			if err := t.process(f); err != nil {
				return err
			}
		}
	}
}

func (t *Tracker) process(f Fix) error {
	est, err := t.est.ProcessFix(f)
	t.mu.Lock()
	switch {
	case err == nil:
		t.stats.Accepted++
	case errors.Is(err, ErrNonCausalFix):
		t.stats.NonCausal++
	case errors.Is(err, ErrDegenerateNoise):
		t.stats.Degenerate++
	default:
		t.stats.Rejected++
	}
	t.mu.Unlock()
	if err != nil {
		return nil
	}
	return t.sink.Write(est)
}
