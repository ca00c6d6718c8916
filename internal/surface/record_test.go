package surface

import "testing"

func liquidBase() Record {
	return Record{
		Ticker:    "AAPL",
		Date:      MustDate("2024-03-15"),
		Years:     0.25,
		AtmVol:    0.30,
		CallCount: 15,
		PutCount:  12,
		VWidth:    0.05,
	}
}

func TestLiquid(t *testing.T) {
	const (
		minYears     = 0.01
		maxYears     = 2.0
		maxAtmVol    = 1.5
		minContracts = 20
		maxVWidth    = 0.2
	)

	tests := []struct {
		name   string
		mutate func(*Record)
		want   bool
	}{
		{"baseline", func(r *Record) {}, true},
		{"expiry too short", func(r *Record) { r.Years = 0.005 }, false},
		{"expiry at lower bound", func(r *Record) { r.Years = 0.01 }, false},
		{"expiry too long", func(r *Record) { r.Years = 2.5 }, false},
		{"expiry at upper bound", func(r *Record) { r.Years = 2.0 }, false},
		{"vol implausible", func(r *Record) { r.AtmVol = 1.6 }, false},
		{"thin quotes", func(r *Record) { r.CallCount, r.PutCount = 5, 5 }, false},
		{"contracts at bound", func(r *Record) { r.CallCount, r.PutCount = 10, 10 }, true},
		{"wide market", func(r *Record) { r.VWidth = 0.25 }, false},
		{"width at bound", func(r *Record) { r.VWidth = 0.2 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := liquidBase()
			tt.mutate(&r)
			got := r.Liquid(minYears, maxYears, maxAtmVol, minContracts, maxVWidth)
			if got != tt.want {
				t.Errorf("Liquid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordKey(t *testing.T) {
	a := Record{Ticker: "AAPL", Years: 30.0 / 365.0}
	b := Record{Ticker: "AAPL", Years: 30.2 / 365.0}
	c := Record{Ticker: "AAPL", Years: 90.0 / 365.0}

	if a.Key() != b.Key() {
		t.Errorf("near-identical expiries should share a key: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == c.Key() {
		t.Errorf("distinct expiries should not share a key: %q", a.Key())
	}

	d := Record{Ticker: "MSFT", Years: 30.0 / 365.0}
	if a.Key() == d.Key() {
		t.Error("distinct tickers should not share a key")
	}
}
