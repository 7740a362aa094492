package ingest

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// FilterMode names how submarine geometry is restricted around the query.
type FilterMode string

const (
	// FilterLongitude keeps segments whose first vertex lies strictly inside
	// the padded longitude band of the endpoints, at any latitude.
	FilterLongitude FilterMode = "longitude"
	// FilterBBox applies the padded band on both axes.
	FilterBBox FilterMode = "bbox"
	// FilterNone keeps everything.
	FilterNone FilterMode = "none"
)

// ParseFilterMode validates a configured mode name.
func ParseFilterMode(s string) (FilterMode, error) {
	switch m := FilterMode(s); m {
	case FilterLongitude, FilterBBox, FilterNone:
		return m, nil
	case "":
		return FilterLongitude, nil
	}
	return "", fmt.Errorf("unknown submarine filter mode %q", s)
}

// EndpointFilter builds the filter for a route between start and end, padded
// by pad degrees. FilterNone returns nil.
func EndpointFilter(mode FilterMode, start, end orb.Point, pad float64) Filter {
	minLon := math.Min(start.Lon(), end.Lon()) - pad
	maxLon := math.Max(start.Lon(), end.Lon()) + pad
	minLat := math.Min(start.Lat(), end.Lat()) - pad
	maxLat := math.Max(start.Lat(), end.Lat()) + pad

	switch mode {
	case FilterNone:
		return nil
	case FilterBBox:
		return func(p orb.Point) bool {
			return minLon < p.Lon() && p.Lon() < maxLon &&
				minLat < p.Lat() && p.Lat() < maxLat
		}
	default:
		return func(p orb.Point) bool {
			return minLon < p.Lon() && p.Lon() < maxLon
		}
	}
}
