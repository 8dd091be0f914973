package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"areascope/internal/core/domain"
	"areascope/internal/core/ports"
	"areascope/internal/pkg/metrics"
)

// locateZoom is the zoom level applied after a successful place lookup.
const locateZoom = 13

// LocateService resolves free-text place names and pans the map there.
// It never mutates area state.
type LocateService struct {
	geocoder ports.Geocoder
	renderer ports.FeatureRenderer
	notices  *NoticeService
	sessions *SessionService
	cache    ports.CacheService
}

// NewLocateService creates a new LocateService.
func NewLocateService(
	geocoder ports.Geocoder,
	renderer ports.FeatureRenderer,
	notices *NoticeService,
	sessions *SessionService,
) *LocateService {
	return &LocateService{
		geocoder: geocoder,
		renderer: renderer,
		notices:  notices,
		sessions: sessions,
	}
}

// SetCache wires read-through caching of geocoding results. Optional.
func (s *LocateService) SetCache(c ports.CacheService) { s.cache = c }

// Locate resolves query and pans the view to the first result. Zero results
// and transport failures surface distinct notices and leave the view
// untouched. A result arriving after ctx is done is dropped.
func (s *LocateService) Locate(ctx context.Context, sessionID, query string) (*ports.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		s.notices.Show("Enter a place to search for")
		return nil, fmt.Errorf("search query must not be empty")
	}

	results, err := s.lookup(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		s.notices.Show("Search failed. Please try again.")
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}

	// The caller may have navigated away while the lookup was in flight.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if len(results) == 0 {
		metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		s.notices.Show("Location not found. Please try another search.")
		return nil, nil
	}

	best := results[0]
	metrics.GeocodeRequests.WithLabelValues("ok").Inc()

	s.renderer.PanTo(domain.GeoPoint{Lat: best.Lat, Lon: best.Lon}, locateZoom)
	s.sessions.AdvanceToSearch(sessionID)
	s.notices.Show("Found: " + best.DisplayName)

	return &best, nil
}

// lookup queries the geocoder through the cache. Place names change rarely,
// so hits are kept for an hour.
func (s *LocateService) lookup(ctx context.Context, query string) ([]ports.GeocodeResult, error) {
	cacheKey := "geocode:" + strings.ToLower(query)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []ports.GeocodeResult
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	results, err := s.geocoder.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(results) > 0 {
		if data, err := json.Marshal(results); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, 3600); err != nil {
				slog.Debug("cache geocode results", "error", err)
			}
		}
	}

	return results, nil
}
