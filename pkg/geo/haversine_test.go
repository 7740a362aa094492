package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name             string
		a, b             orb.Point
		wantKm           float64
		tolerancePercent float64
	}{
		{
			name:             "London to Paris",
			a:                orb.Point{-0.1278, 51.5074},
			b:                orb.Point{2.3522, 48.8566},
			wantKm:           343.5,
			tolerancePercent: 1,
		},
		{
			name:             "Singapore CBD to Changi Airport",
			a:                orb.Point{103.8513, 1.2830},
			b:                orb.Point{103.9915, 1.3644},
			wantKm:           18.02,
			tolerancePercent: 1,
		},
		{
			name:             "One degree of longitude on the equator",
			a:                orb.Point{0, 0},
			b:                orb.Point{1, 0},
			wantKm:           111.195,
			tolerancePercent: 0.1,
		},
		{
			name:   "Same point",
			a:      orb.Point{103.8198, 1.3521},
			b:      orb.Point{103.8198, 1.3521},
			wantKm: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if tt.wantKm == 0 {
				if got != 0 {
					t.Errorf("expected 0, got %f", got)
				}
				return
			}
			diff := math.Abs(got-tt.wantKm) / tt.wantKm * 100
			if diff > tt.tolerancePercent {
				t.Errorf("DistanceKm = %f km, want ~%f km (diff %.2f%%)", got, tt.wantKm, diff)
			}
		})
	}
}

func TestDistanceKmSymmetricAndNonNegative(t *testing.T) {
	points := []orb.Point{
		{0, 0}, {179.9, -45}, {-179.9, 45}, {12.5, 41.9}, {-74.0, 40.7}, {139.7, 35.7},
	}
	for _, a := range points {
		if d := DistanceKm(a, a); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %f, want 0", a, a, d)
		}
		for _, b := range points {
			ab := DistanceKm(a, b)
			ba := DistanceKm(b, a)
			if ab < 0 {
				t.Errorf("DistanceKm(%v, %v) = %f, want >= 0", a, b, ab)
			}
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("DistanceKm not symmetric for %v, %v: %f vs %f", a, b, ab, ba)
			}
		}
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		name string
		in   orb.Point
		want orb.Point
	}{
		{"already rounded", orb.Point{1.23456, -7.65432}, orb.Point{1.23456, -7.65432}},
		{"rounds down", orb.Point{1.234561, 2.000004}, orb.Point{1.23456, 2.0}},
		{"rounds up", orb.Point{1.234566, 2.000006}, orb.Point{1.23457, 2.00001}},
		{"negative", orb.Point{-0.000004, -10.123456}, orb.Point{0, -10.12346}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Round(tt.in)
			if math.Abs(got[0]-tt.want[0]) > 1e-12 || math.Abs(got[1]-tt.want[1]) > 1e-12 {
				t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundCollapsesNearbyVertices(t *testing.T) {
	// Both vertices sit within half a unit of the fifth decimal of 10.00001.
	a := Round(orb.Point{10.000012, 20.000012})
	b := Round(orb.Point{10.000008, 20.000009})
	if a != b {
		t.Errorf("Round produced distinct nodes %v and %v", a, b)
	}
}

func TestRadiusKm(t *testing.T) {
	ns, ew := RadiusKm(0.5, 0)
	if math.Abs(ns-55.6) > 0.1 || math.Abs(ew-ns) > 1e-9 {
		t.Errorf("RadiusKm(0.5, 0) = (%f, %f), want ~(55.6, 55.6)", ns, ew)
	}

	_, ew60 := RadiusKm(0.5, 60)
	if math.Abs(ew60-ns/2) > 0.01 {
		t.Errorf("east-west radius at 60°N = %f, want ~%f", ew60, ns/2)
	}
}

func TestPadBound(t *testing.T) {
	b := PadBound(15, orb.Point{10, 50}, orb.Point{-5, 40})
	want := orb.Bound{Min: orb.Point{-20, 25}, Max: orb.Point{25, 65}}
	if b != want {
		t.Errorf("PadBound = %v, want %v", b, want)
	}
}

func BenchmarkDistanceKm(b *testing.B) {
	p, q := orb.Point{103.8198, 1.3521}, orb.Point{103.8520, 1.2905}
	for b.Loop() {
		DistanceKm(p, q)
	}
}
