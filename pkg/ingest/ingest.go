// Package ingest turns GeoJSON line features into route graph edges.
package ingest

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"fiber_router/pkg/geo"
	"fiber_router/pkg/graph"
)

// Filter decides whether a segment starting at rounded vertex p is kept.
type Filter func(p orb.Point) bool

// Options configures one ingestion pass.
type Options struct {
	OwnerField    string // feature property naming the operator
	FallbackOwner string // used when OwnerField is absent or empty
	CostFactor    float64
	Type          graph.EdgeType
	Filter        Filter // optional
}

// Result holds the edges of one network and its distinct nodes in first-seen
// order.
type Result struct {
	Edges []graph.Edge
	Nodes []orb.Point

	Skipped int // segments rejected by the filter
}

// Ingest emits one edge per consecutive vertex pair of every line in fc.
// Features whose geometry is not a LineString or MultiLineString are ignored.
// A nil or empty collection yields an empty result.
func Ingest(fc *geojson.FeatureCollection, opts Options) *Result {
	res := &Result{}
	if fc == nil {
		return res
	}

	seen := make(map[orb.Point]struct{})
	addNode := func(p orb.Point) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		res.Nodes = append(res.Nodes, p)
	}

	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		owner := ownerOf(f.Properties, opts.OwnerField, opts.FallbackOwner)

		for _, line := range lines(f.Geometry) {
			for i := 0; i < len(line)-1; i++ {
				u := geo.Round(line[i])
				v := geo.Round(line[i+1])
				if opts.Filter != nil && !opts.Filter(u) {
					res.Skipped++
					continue
				}
				d := geo.DistanceKm(u, v)
				res.Edges = append(res.Edges, graph.Edge{
					U:          u,
					V:          v,
					Weight:     d * opts.CostFactor,
					ActualDist: d,
					Owner:      owner,
					Type:       opts.Type,
				})
				addNode(u)
				addNode(v)
			}
		}
	}

	return res
}

// Points extracts the rounded coordinates of every Point and MultiPoint
// feature in fc.
func Points(fc *geojson.FeatureCollection) []orb.Point {
	if fc == nil {
		return nil
	}
	var out []orb.Point
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.Point:
			out = append(out, geo.Round(g))
		case orb.MultiPoint:
			for _, p := range g {
				out = append(out, geo.Round(p))
			}
		}
	}
	return out
}

func lines(g orb.Geometry) []orb.LineString {
	switch g := g.(type) {
	case orb.LineString:
		return []orb.LineString{g}
	case orb.MultiLineString:
		return g
	}
	return nil
}

// ownerOf returns the string form of props[field], or fallback when the
// property is missing, null, empty, zero or false. Numbers render in plain
// decimal without exponent; JSON 5 and 5.0 both decode to float64 and
// render as "5".
func ownerOf(props geojson.Properties, field, fallback string) string {
	v, ok := props[field]
	if !ok || v == nil {
		return fallback
	}
	switch v := v.(type) {
	case string:
		if v == "" {
			return fallback
		}
		return v
	case bool:
		if !v {
			return fallback
		}
	case float64:
		if v == 0 {
			return fallback
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
