package aggregate

import (
	"math"
	"testing"

	"github.com/karnek/ivhist/internal/surface"
)

var testTargets = []int{30, 60, 90, 120, 180, 270, 360, 540, 720}

func rec(ticker string, days float64, vol, cen float64) surface.Record {
	return surface.Record{
		Ticker: ticker,
		Years:  days / 365.0,
		AtmVol: vol,
		AtmCen: cen,
		Vega:   10,
	}
}

func TestAssignBucketsClosest(t *testing.T) {
	records := []surface.Record{
		rec("AAPL", 28, 0.30, 0.28), // closest to 30
		rec("AAPL", 62, 0.31, 0.29), // closest to 60
		rec("AAPL", 200, 0.32, 0.30), // closest to 180
	}
	buckets := assignBuckets(records, testTargets)
	if len(buckets) != 3 {
		t.Fatalf("got %d buckets", len(buckets))
	}
	if buckets[30].AtmVol != 0.30 || buckets[60].AtmVol != 0.31 || buckets[180].AtmVol != 0.32 {
		t.Errorf("wrong assignment: %+v", buckets)
	}
}

func TestAssignBucketsKeepsClosest(t *testing.T) {
	records := []surface.Record{
		rec("AAPL", 40, 0.35, 0.33), // 10 days off 30
		rec("AAPL", 28, 0.30, 0.28), // 2 days off 30, wins
	}
	buckets := assignBuckets(records, testTargets)
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(buckets))
	}
	if buckets[30].AtmVol != 0.30 {
		t.Errorf("kept the farther quote: %+v", buckets[30])
	}
}

func TestAssignBucketsOrderIndependent(t *testing.T) {
	// Two near-equidistant quotes around the 30 target: the winner must
	// not depend on input order.
	a := rec("AAPL", 35, 0.35, 0.33)
	b := rec("AAPL", 25, 0.30, 0.28)

	first := assignBuckets([]surface.Record{a, b}, testTargets)
	second := assignBuckets([]surface.Record{b, a}, testTargets)
	if first[30].AtmVol != second[30].AtmVol {
		t.Errorf("winner depends on input order: %v vs %v",
			first[30].AtmVol, second[30].AtmVol)
	}
}

func TestForwardVol(t *testing.T) {
	// Flat curve: the forward equals the spot.
	fwd, ok := forwardVol(0.30, 0.30, 30, 60)
	if !ok {
		t.Fatal("flat forward should exist")
	}
	if math.Abs(fwd-0.30) > 1e-12 {
		t.Errorf("flat forward = %v, want 0.30", fwd)
	}

	// Upward sloping curve, hand-computed.
	v1, v2 := 0.20, 0.25
	t1, t2 := 30.0/365.0, 60.0/365.0
	want := math.Sqrt((v2*v2*t2 - v1*v1*t1) / (t2 - t1))
	fwd, ok = forwardVol(0.20, 0.25, 30, 60)
	if !ok || math.Abs(fwd-want) > 1e-12 {
		t.Errorf("forward = %v ok=%v, want %v", fwd, ok, want)
	}

	// Steep inversion: total variance decreases, no real forward.
	if _, ok := forwardVol(0.50, 0.10, 30, 60); ok {
		t.Error("inverted curve should have no forward")
	}

	// Degenerate interval.
	if _, ok := forwardVol(0.30, 0.30, 60, 60); ok {
		t.Error("zero-length interval should have no forward")
	}
}

func TestMeltTicker(t *testing.T) {
	buckets := map[int]surface.Record{
		30: rec("AAPL", 30, 0.30, 0.28),
		60: rec("AAPL", 60, 0.31, 0.29),
		// 90 absent, 120 present: no 60_90 or 90_120 forward.
		120: rec("AAPL", 120, 0.32, 0.30),
	}
	obs := meltTicker("AAPL", buckets, testTargets)

	countByLabel := map[string]int{}
	for _, o := range obs {
		countByLabel[o.expiryLabel]++
		if o.ticker != "AAPL" {
			t.Errorf("wrong ticker: %+v", o)
		}
	}

	// Three spot labels and one forward, with both value types each.
	want := map[string]int{"30": 2, "60": 2, "120": 2, "fwd_30_60": 2}
	if len(countByLabel) != len(want) {
		t.Fatalf("labels = %v, want %v", countByLabel, want)
	}
	for label, n := range want {
		if countByLabel[label] != n {
			t.Errorf("label %s: %d observations, want %d", label, countByLabel[label], n)
		}
	}
}

func TestMeltTickerEmpty(t *testing.T) {
	if obs := meltTicker("AAPL", nil, testTargets); len(obs) != 0 {
		t.Errorf("expected no observations, got %d", len(obs))
	}
}
