package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusKm = 6371.0

// coordScale rounds coordinates to 5 decimal places (~1.1 m at the equator).
const coordScale = 1e5

// KmPerDegree is the length of one degree of latitude, and of longitude at
// the equator, on the haversine sphere.
const KmPerDegree = math.Pi / 180 * earthRadiusKm

// DistanceKm returns the great-circle distance in kilometers between two
// lon/lat points.
func DistanceKm(a, b orb.Point) float64 {
	lat1r := a.Lat() * math.Pi / 180
	lat2r := b.Lat() * math.Pi / 180
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180
	dLon := (b.Lon() - a.Lon()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Round snaps both axes of p to 5 decimal places. Rounded points are the
// node identity of the route graph.
func Round(p orb.Point) orb.Point {
	return orb.Point{
		math.Round(p[0]*coordScale) / coordScale,
		math.Round(p[1]*coordScale) / coordScale,
	}
}

// RadiusKm reports the physical extent of a planar degree radius at the given
// latitude: north-south it is constant, east-west it shrinks with cos(lat).
func RadiusKm(deg, lat float64) (northSouth, eastWest float64) {
	northSouth = deg * KmPerDegree
	eastWest = northSouth * math.Cos(lat*math.Pi/180)
	return northSouth, eastWest
}

// PadBound grows the bounding box of the given points by pad degrees on
// every side.
func PadBound(pad float64, points ...orb.Point) orb.Bound {
	if len(points) == 0 {
		return orb.Bound{}
	}
	b := points[0].Bound()
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return orb.Bound{
		Min: orb.Point{b.Min[0] - pad, b.Min[1] - pad},
		Max: orb.Point{b.Max[0] + pad, b.Max[1] + pad},
	}
}
