package geoproj_test

import (
	"math"
	"testing"

	"areascope/internal/core/domain"
	"areascope/internal/pkg/geoproj"
)

const tolerance = 1e-9

func TestRoundTrip(t *testing.T) {
	ring := domain.Ring{
		{Lat: 50.90, Lon: 6.90},
		{Lat: 50.95, Lon: 6.95},
		{Lat: 50.90, Lon: 7.00},
	}

	back := geoproj.ToGeographic(geoproj.ToProjected(ring))
	if len(back) != len(ring) {
		t.Fatalf("expected %d points, got %d", len(ring), len(back))
	}
	for i := range ring {
		if math.Abs(back[i].Lat-ring[i].Lat) > tolerance ||
			math.Abs(back[i].Lon-ring[i].Lon) > tolerance {
			t.Errorf("point %d: expected %v, got %v", i, ring[i], back[i])
		}
	}
}

func TestRoundTrip_SinglePoint(t *testing.T) {
	ring := domain.Ring{{Lat: -33.8688, Lon: 151.2093}}
	back := geoproj.ToGeographic(geoproj.ToProjected(ring))
	if math.Abs(back[0].Lat-ring[0].Lat) > tolerance ||
		math.Abs(back[0].Lon-ring[0].Lon) > tolerance {
		t.Errorf("expected %v, got %v", ring[0], back[0])
	}
}

func TestRoundTrip_ClosedThenStripped(t *testing.T) {
	ring := domain.Ring{
		{Lat: 50.90, Lon: 6.90},
		{Lat: 50.95, Lon: 6.95},
		{Lat: 50.90, Lon: 7.00},
	}

	closed := geoproj.CloseRing(geoproj.ToProjected(ring))
	back := geoproj.ToGeographic(closed)
	back = back[:len(back)-1]

	if len(back) != len(ring) {
		t.Fatalf("expected %d points after stripping, got %d", len(ring), len(back))
	}
	for i := range ring {
		if math.Abs(back[i].Lat-ring[i].Lat) > tolerance {
			t.Errorf("point %d: expected lat %v, got %v", i, ring[i].Lat, back[i].Lat)
		}
	}
}

func TestCloseRing(t *testing.T) {
	open := []geoproj.ProjectedPoint{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}

	closed := geoproj.CloseRing(open)
	if len(closed) != 4 {
		t.Fatalf("expected 4 points, got %d", len(closed))
	}
	if closed[3] != closed[0] {
		t.Errorf("last point %v does not close to first %v", closed[3], closed[0])
	}
	if len(open) != 3 {
		t.Errorf("input was mutated, len now %d", len(open))
	}
}

func TestCloseRing_Idempotent(t *testing.T) {
	open := []geoproj.ProjectedPoint{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	once := geoproj.CloseRing(open)
	twice := geoproj.CloseRing(once)
	if len(twice) != len(once) {
		t.Fatalf("second close grew the ring: %d vs %d", len(twice), len(once))
	}
}

func TestCloseRing_Empty(t *testing.T) {
	if got := geoproj.CloseRing(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %d points", len(got))
	}
}

func TestStripClosingPoint(t *testing.T) {
	closed := []geoproj.ProjectedPoint{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}
	stripped := geoproj.StripClosingPoint(closed)
	if len(stripped) != 3 {
		t.Fatalf("expected 3 points, got %d", len(stripped))
	}

	open := []geoproj.ProjectedPoint{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	if got := geoproj.StripClosingPoint(open); len(got) != 3 {
		t.Errorf("open ring should be untouched, got %d points", len(got))
	}
}

func TestRingBounds(t *testing.T) {
	ring := domain.Ring{
		{Lat: 50.90, Lon: 6.90},
		{Lat: 50.95, Lon: 6.95},
		{Lat: 50.85, Lon: 7.00},
	}
	b := geoproj.RingBounds(ring)
	if b.MinLat != 50.85 || b.MaxLat != 50.95 || b.MinLon != 6.90 || b.MaxLon != 7.00 {
		t.Errorf("unexpected bounds: %+v", b)
	}
}
