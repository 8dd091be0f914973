package geoproj

import (
	"encoding/json"
	"math"

	"areascope/internal/core/domain"
)

const earthRadius = 6378137.0 // WGS 84 equatorial radius, meters

// ProjectedPoint is a coordinate in the map's planar projection
// (spherical Web Mercator, EPSG:3857). It serializes as an [x, y] pair,
// matching the coordinate arrays exchanged with the map client.
type ProjectedPoint struct {
	X float64
	Y float64
}

func (p ProjectedPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *ProjectedPoint) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	p.X, p.Y = pair[0], pair[1]
	return nil
}

// ToProjected applies the geographic→Mercator transform per point.
// The input ring is not mutated.
func ToProjected(ring domain.Ring) []ProjectedPoint {
	out := make([]ProjectedPoint, len(ring))
	for i, p := range ring {
		out[i] = ProjectedPoint{
			X: earthRadius * p.Lon * math.Pi / 180,
			Y: earthRadius * math.Log(math.Tan(math.Pi/4+p.Lat*math.Pi/360)),
		}
	}
	return out
}

// ToGeographic is the inverse of ToProjected. Callers are responsible for
// stripping any closing duplicate point before storing the result as a ring.
func ToGeographic(pts []ProjectedPoint) domain.Ring {
	out := make(domain.Ring, len(pts))
	for i, p := range pts {
		out[i] = domain.GeoPoint{
			Lat: (2*math.Atan(math.Exp(p.Y/earthRadius)) - math.Pi/2) * 180 / math.Pi,
			Lon: p.X / earthRadius * 180 / math.Pi,
		}
	}
	return out
}

// CloseRing appends the first point when the last point does not equal it on
// both axes. Idempotent: closing an already-closed ring changes nothing.
// Returns a new slice; the input is not mutated.
func CloseRing(pts []ProjectedPoint) []ProjectedPoint {
	if len(pts) == 0 {
		return pts
	}
	first, last := pts[0], pts[len(pts)-1]
	if first.X == last.X && first.Y == last.Y {
		return pts
	}
	out := make([]ProjectedPoint, len(pts)+1)
	copy(out, pts)
	out[len(pts)] = first
	return out
}

// StripClosingPoint drops the duplicate closing point, if present.
func StripClosingPoint(pts []ProjectedPoint) []ProjectedPoint {
	if len(pts) < 2 {
		return pts
	}
	first, last := pts[0], pts[len(pts)-1]
	if first.X == last.X && first.Y == last.Y {
		return pts[:len(pts)-1]
	}
	return pts
}

// RingBounds returns the geographic bounding box of a ring.
func RingBounds(ring domain.Ring) domain.Bounds {
	if len(ring) == 0 {
		return domain.Bounds{}
	}
	b := domain.Bounds{
		MinLat: ring[0].Lat, MaxLat: ring[0].Lat,
		MinLon: ring[0].Lon, MaxLon: ring[0].Lon,
	}
	for _, p := range ring[1:] {
		if p.Lat < b.MinLat {
			b.MinLat = p.Lat
		}
		if p.Lat > b.MaxLat {
			b.MaxLat = p.Lat
		}
		if p.Lon < b.MinLon {
			b.MinLon = p.Lon
		}
		if p.Lon > b.MaxLon {
			b.MaxLon = p.Lon
		}
	}
	return b
}
