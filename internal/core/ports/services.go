package ports

import (
	"context"

	"areascope/internal/core/domain"
)

// GeocodeResult is a single match returned by a geocoding provider.
type GeocodeResult struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// Geocoder resolves free-text place names to coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]GeocodeResult, error)
}

// FeatureRenderer keeps the map client's rendered feature set consistent with
// the area list and drives the view. Implementations own the rendered set as
// a derived, disposable cache; the area list stays the single source of truth.
type FeatureRenderer interface {
	UpsertFeature(area domain.Area)
	RemoveFeature(id int64)
	FitView(b domain.Bounds)
	PanTo(p domain.GeoPoint, zoom int)
}

// EventPublisher broadcasts domain events to the message bus, from where they
// are relayed to connected map clients.
type EventPublisher interface {
	PublishAreaEvent(ctx context.Context, ev domain.AreaEvent) error
	PublishModeChange(ctx context.Context, sessionID string, mode domain.Mode) error
	PublishNotice(ctx context.Context, message string) error
	PublishRenderCommand(ctx context.Context, data []byte) error
}
