package feedback

import (
	"math"
	"testing"
)

func TestWindowAppendAndMean(t *testing.T) {
	var w window

	if w.Len() != 0 {
		t.Errorf("Len() = %d, want 0", w.Len())
	}
	if w.Mean() != 0 {
		t.Errorf("Mean() of empty window = %f, want 0", w.Mean())
	}

	w.Append(10)
	w.Append(20)
	if w.Len() != 2 {
		t.Errorf("Len() = %d, want 2", w.Len())
	}
	if w.Mean() != 15 {
		t.Errorf("Mean() = %f, want 15", w.Mean())
	}
}

// TestWindowEviction verifies the oldest value is evicted once the
// window holds ten readings.
func TestWindowEviction(t *testing.T) {
	var w window

	// Fill with 1..10
	for i := 1; i <= windowCapacity; i++ {
		w.Append(float64(i))
	}
	if w.Len() != windowCapacity {
		t.Fatalf("Len() = %d, want %d", w.Len(), windowCapacity)
	}
	if w.Mean() != 5.5 {
		t.Errorf("Mean() = %f, want 5.5", w.Mean())
	}

	// The 11th value evicts the 1 - window is now 2..11
	w.Append(11)
	if w.Len() != windowCapacity {
		t.Errorf("Len() = %d after overflow, want %d", w.Len(), windowCapacity)
	}
	if w.Mean() != 6.5 {
		t.Errorf("Mean() = %f after eviction, want 6.5", w.Mean())
	}
}

func TestWindowMeanPartialFill(t *testing.T) {
	var w window
	values := []float64{30.5, 40.25, 55}

	for _, v := range values {
		w.Append(v)
	}

	want := (30.5 + 40.25 + 55) / 3
	if math.Abs(w.Mean()-want) > 1e-9 {
		t.Errorf("Mean() = %f, want %f", w.Mean(), want)
	}
}
