package pikalman

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"
)

func TestNewTrackerErrors(t *testing.T) {
	kf := newTestEstimator(t, DefaultConfig())
	sink := SinkFunc(func(TrackEstimate) error { return nil })
	if _, err := NewTracker(nil, sink, 8); err == nil {
		t.Fatal("nil estimator does not fail")
	}
	if _, err := NewTracker(kf, nil, 8); err == nil {
		t.Fatal("nil sink does not fail")
	}
	if _, err := NewTracker(kf, sink, 0); err == nil {
		t.Fatal("zero queue depth does not fail")
	}
}

func TestTrackerSerializesAndCounts(t *testing.T) {
	kf := newTestEstimator(t, DefaultConfig())

	var mu sync.Mutex
	var received []TrackEstimate
	sink := SinkFunc(func(est TrackEstimate) error {
		mu.Lock()
		received = append(received, est)
		mu.Unlock()
		return nil
	})

	tracker, err := NewTracker(kf, sink, 16)
	if err != nil {
		t.Fatal(err)
	}

	t0 := time.Unix(0, 0)
	noise := ScaledIdentity(2, 5)
	ctx := context.Background()

	for k := 0; k < 5; k++ {
		fix, _ := NewPositionFix(t0.Add(time.Duration(k)*time.Second), float64(k), 0, noise)
		if err := tracker.Push(ctx, fix); err != nil {
			t.Fatal(err)
		}
	}
	// One late fix and one with a degenerate noise covariance.
	late, _ := NewPositionFix(t0.Add(2*time.Second), 9, 9, noise)
	if err := tracker.Push(ctx, late); err != nil {
		t.Fatal(err)
	}
	bad, _ := NewPositionFix(t0.Add(10*time.Second), 9, 9, mat.NewSymDense(2, []float64{1, 2, 2, 1}))
	if err := tracker.Push(ctx, bad); err != nil {
		t.Fatal(err)
	}
	tracker.Close()

	if err := tracker.Run(ctx); err != nil {
		t.Fatal(err)
	}

	stats := tracker.Stats()
	if stats.Accepted != 5 {
		t.Fatalf("accepted %d, want 5", stats.Accepted)
	}
	if stats.NonCausal != 1 {
		t.Fatalf("non-causal %d, want 1", stats.NonCausal)
	}
	if stats.Degenerate != 1 {
		t.Fatalf("degenerate %d, want 1", stats.Degenerate)
	}
	// One estimate per accepted fix, seed included, in order.
	if len(received) != 5 {
		t.Fatalf("sink saw %d estimates, want 5", len(received))
	}
	for k := 1; k < len(received); k++ {
		if !received[k].Time().After(received[k-1].Time()) {
			t.Fatal("sink estimates out of order")
		}
	}
}

func TestTrackerOffer(t *testing.T) {
	kf := newTestEstimator(t, DefaultConfig())
	sink := SinkFunc(func(TrackEstimate) error { return nil })
	tracker, err := NewTracker(kf, sink, 1)
	if err != nil {
		t.Fatal(err)
	}
	fix, _ := NewPositionFix(time.Unix(0, 0), 0, 0, ScaledIdentity(2, 5))
	if !tracker.Offer(fix) {
		t.Fatal("offer to an empty queue failed")
	}
	if tracker.Offer(fix) {
		t.Fatal("offer to a full queue succeeded")
	}
}

func TestTrackerStopsOnSinkError(t *testing.T) {
	kf := newTestEstimator(t, DefaultConfig())
	sinkErr := errors.New("disk full")
	sink := SinkFunc(func(TrackEstimate) error { return sinkErr })
	tracker, err := NewTracker(kf, sink, 4)
	if err != nil {
		t.Fatal(err)
	}
	fix, _ := NewPositionFix(time.Unix(0, 0), 0, 0, ScaledIdentity(2, 5))
	if err := tracker.Push(context.Background(), fix); err != nil {
		t.Fatal(err)
	}
	tracker.Close()
	if err := tracker.Run(context.Background()); !errors.Is(err, sinkErr) {
		t.Fatalf("expected the sink error, got %v", err)
	}
}

func TestTrackerContextCancel(t *testing.T) {
	kf := newTestEstimator(t, DefaultConfig())
	sink := SinkFunc(func(TrackEstimate) error { return nil })
	tracker, err := NewTracker(kf, sink, 4)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tracker.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run did not stop on cancellation")
	}
}
