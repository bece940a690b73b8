package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewTimer tests timer creation
func TestNewTimer(t *testing.T) {
	timer := NewTimer()

	if timer == nil {
		t.Fatal("NewTimer() returned nil")
	}

	if timer.start.IsZero() {
		t.Error("NewTimer() start time is zero")
	}
}

// TestTimerDuration tests duration measurement
func TestTimerDuration(t *testing.T) {
	timer := NewTimer()

	sleep := 100 * time.Millisecond
	time.Sleep(sleep)

	if d := timer.Duration(); d < sleep {
		t.Errorf("Timer.Duration() = %v, want >= %v", d, sleep)
	}
}

// TestTimerDurationGrows tests that Duration can be read repeatedly
func TestTimerDurationGrows(t *testing.T) {
	timer := NewTimer()

	time.Sleep(20 * time.Millisecond)
	first := timer.Duration()

	time.Sleep(20 * time.Millisecond)
	second := timer.Duration()

	if second <= first {
		t.Errorf("second Duration() should be longer: first=%v, second=%v", first, second)
	}
}

// TestTimerObserveDuration tests histogram observation
func TestTimerObserveDuration(t *testing.T) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_duration_seconds",
		Help:    "Test duration histogram",
		Buckets: prometheus.DefBuckets,
	})

	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)

	// This should not panic
	timer.ObserveDuration(histogram)

	if timer.Duration() == 0 {
		t.Error("Timer.ObserveDuration() recorded zero duration")
	}
}

// TestTimerObserveDurationVec tests observation into a labelled histogram
func TestTimerObserveDurationVec(t *testing.T) {
	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)

	// Observing into the registered audit histogram must not panic
	timer.ObserveDurationVec(AuditDuration, "disk")

	if timer.Duration() == 0 {
		t.Error("Timer.ObserveDurationVec() recorded zero duration")
	}
}
