package domain

import "encoding/json"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Ring is an ordered sequence of geographic coordinates describing a polygon
// boundary. It serializes as a list of [lat, lon] pairs, which is also the
// durable storage format.
type Ring []GeoPoint

func (r Ring) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(r))
	for i, p := range r {
		pairs[i] = [2]float64{p.Lat, p.Lon}
	}
	return json.Marshal(pairs)
}

func (r *Ring) UnmarshalJSON(data []byte) error {
	var pairs [][2]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	out := make(Ring, len(pairs))
	for i, p := range pairs {
		out[i] = GeoPoint{Lat: p[0], Lon: p[1]}
	}
	*r = out
	return nil
}

// Clone returns an independent copy of the ring.
func (r Ring) Clone() Ring {
	if r == nil {
		return nil
	}
	out := make(Ring, len(r))
	copy(out, r)
	return out
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Extend grows the bounds to include other.
func (b *Bounds) Extend(other Bounds) {
	if other.MinLat < b.MinLat {
		b.MinLat = other.MinLat
	}
	if other.MinLon < b.MinLon {
		b.MinLon = other.MinLon
	}
	if other.MaxLat > b.MaxLat {
		b.MaxLat = other.MaxLat
	}
	if other.MaxLon > b.MaxLon {
		b.MaxLon = other.MaxLon
	}
}
