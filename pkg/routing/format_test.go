package routing

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"fiber_router/pkg/graph"
)

func TestFormat(t *testing.T) {
	a, b, c := orb.Point{10, 50}, orb.Point{11, 50}, orb.Point{12, 51}
	g, err := graph.Build([]graph.Edge{
		{U: a, V: b, Weight: 123.456, ActualDist: 123.456, Owner: "Zeta", Type: graph.Land},
		{U: b, V: c, Weight: 70, ActualDist: 100.004, Owner: "Alpha", Type: graph.Submarine},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	path, err := ShortestPath(g, 0, 2)
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}

	res := Format(g, path)

	if res.Summary.TotalKm != 223.46 {
		t.Errorf("total_km = %v, want 223.46", res.Summary.TotalKm)
	}
	if res.Summary.RTT != 2.23 {
		t.Errorf("rtt = %v, want 2.23", res.Summary.RTT)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(res.Segments))
	}
	s0 := res.Segments[0]
	if s0.Coords != [2]LatLon{{50, 10}, {50, 11}} {
		t.Errorf("coords = %v, want [lat, lon] pairs", s0.Coords)
	}
	if s0.Dist != 123.46 || s0.Owner != "Zeta" || s0.Type != "land" {
		t.Errorf("segment 0 = %+v", s0)
	}
	if res.Segments[1].Dist != 100 {
		t.Errorf("segment 1 dist = %v, want 100", res.Segments[1].Dist)
	}
	if len(res.Partners) != 2 || res.Partners[0] != "Alpha" || res.Partners[1] != "Zeta" {
		t.Errorf("partners = %v, want sorted [Alpha Zeta]", res.Partners)
	}
}

func TestFormatDeduplicatesPartners(t *testing.T) {
	a, b, c := orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{2, 0}
	g, err := graph.Build([]graph.Edge{
		{U: a, V: b, Weight: 1, ActualDist: 1, Owner: "Same", Type: graph.Land},
		{U: b, V: c, Weight: 1, ActualDist: 1, Owner: "Same", Type: graph.Land},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	path, err := ShortestPath(g, 0, 2)
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	if res := Format(g, path); len(res.Partners) != 1 {
		t.Errorf("partners = %v, want one entry", res.Partners)
	}
}

func TestFormatJSONShape(t *testing.T) {
	g, err := graph.Build([]graph.Edge{
		{U: orb.Point{0, 0}, V: orb.Point{1, 0}, Weight: 1, ActualDist: 1, Owner: "O", Type: graph.Bridge},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	path, err := ShortestPath(g, 0, 1)
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}

	b, err := json.Marshal(Format(g, path))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got := string(b)
	for _, key := range []string{`"summary"`, `"total_km"`, `"rtt"`, `"segments"`, `"coords"`, `"owner"`, `"type":"bridge"`, `"dist"`, `"partners"`} {
		if !strings.Contains(got, key) {
			t.Errorf("JSON %s missing %s", got, key)
		}
	}
	if strings.Contains(got, "Stats") || strings.Contains(got, "LandEdges") {
		t.Errorf("JSON %s leaks build stats", got)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1.234, 1.23},
		{1.235, 1.24},
		{99.999, 100},
		{0.004, 0},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
