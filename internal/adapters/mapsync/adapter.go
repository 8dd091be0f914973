package mapsync

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"areascope/internal/core/domain"
	"areascope/internal/core/ports"
	"areascope/internal/pkg/geoproj"
	"areascope/internal/pkg/metrics"
)

// View constants applied to fit and locate commands.
const (
	fitPadding = 50
	fitMaxZoom = 15
)

// RenderCommand is one instruction for the map client. Rings and centers are
// in the map's planar projection; the client applies them verbatim.
type RenderCommand struct {
	Op     string                   `json:"op"`
	ID     int64                    `json:"id,omitempty"`
	Name   string                   `json:"name,omitempty"`
	Color  string                   `json:"color,omitempty"`
	Ring   []geoproj.ProjectedPoint `json:"ring,omitempty"`
	Extent []geoproj.ProjectedPoint `json:"extent,omitempty"` // [min, max]
	Center *geoproj.ProjectedPoint  `json:"center,omitempty"`
	Zoom   int                      `json:"zoom,omitempty"`
	// Fit options
	Padding int `json:"padding,omitempty"`
	MaxZoom int `json:"max_zoom,omitempty"`
}

// AreaLister is the read slice of the area store the adapter needs for
// whole-extent fits.
type AreaLister interface {
	List() []domain.Area
}

// Adapter implements ports.FeatureRenderer by translating area state into
// render commands on the event bus. It tracks which feature ids are currently
// rendered; that registry is a derived cache of the area list and can always
// be rebuilt by replaying the list through UpsertFeature.
type Adapter struct {
	mu       sync.Mutex
	rendered map[int64]struct{}

	publisher ports.EventPublisher
	areas     AreaLister
}

// New creates a map sync adapter publishing on the given bus.
func New(publisher ports.EventPublisher) *Adapter {
	return &Adapter{
		rendered:  make(map[int64]struct{}),
		publisher: publisher,
	}
}

// SetAreas wires the area list for ViewAll. Optional.
func (a *Adapter) SetAreas(l AreaLister) { a.areas = l }

// UpsertFeature renders an area. A feature already on the map is removed
// first so an area is never drawn twice under the same id.
func (a *Adapter) UpsertFeature(area domain.Area) {
	a.mu.Lock()
	_, exists := a.rendered[area.ID]
	a.rendered[area.ID] = struct{}{}
	a.mu.Unlock()

	if exists {
		a.send(RenderCommand{Op: "remove", ID: area.ID})
	}
	a.send(RenderCommand{
		Op:    "upsert",
		ID:    area.ID,
		Name:  area.Name,
		Color: area.Color,
		Ring:  geoproj.CloseRing(geoproj.ToProjected(area.Ring)),
	})
}

// RemoveFeature takes a feature off the map. Unknown ids are a no-op, so
// remove is idempotent.
func (a *Adapter) RemoveFeature(id int64) {
	a.mu.Lock()
	_, exists := a.rendered[id]
	delete(a.rendered, id)
	a.mu.Unlock()

	if !exists {
		return
	}
	a.send(RenderCommand{Op: "remove", ID: id})
}

// FitView frames the given geographic bounds with the standard padding.
func (a *Adapter) FitView(b domain.Bounds) {
	extent := geoproj.ToProjected(domain.Ring{
		{Lat: b.MinLat, Lon: b.MinLon},
		{Lat: b.MaxLat, Lon: b.MaxLon},
	})
	a.send(RenderCommand{
		Op:      "fit",
		Extent:  []geoproj.ProjectedPoint{extent[0], extent[1]},
		Padding: fitPadding,
		MaxZoom: fitMaxZoom,
	})
}

// PanTo centers the view on a point at the given zoom.
func (a *Adapter) PanTo(p domain.GeoPoint, zoom int) {
	center := geoproj.ToProjected(domain.Ring{p})[0]
	a.send(RenderCommand{Op: "pan", Center: &center, Zoom: zoom})
}

// ViewAll fits the view around every area. No areas means the view stays
// where it is.
func (a *Adapter) ViewAll() {
	if a.areas == nil {
		return
	}
	list := a.areas.List()

	var bounds domain.Bounds
	first := true
	for _, area := range list {
		if len(area.Ring) == 0 {
			continue
		}
		rb := geoproj.RingBounds(area.Ring)
		if first {
			bounds = rb
			first = false
		} else {
			bounds.Extend(rb)
		}
	}
	if first {
		return
	}
	a.FitView(bounds)
}

// Snapshot builds the upsert commands that bring an empty map up to the
// current area list. Hidden areas are skipped. Nothing is published; the
// caller delivers the commands to a single client.
func (a *Adapter) Snapshot() []RenderCommand {
	if a.areas == nil {
		return nil
	}
	list := a.areas.List()

	cmds := make([]RenderCommand, 0, len(list))
	for _, area := range list {
		if !area.Visible {
			continue
		}
		cmds = append(cmds, RenderCommand{
			Op:    "upsert",
			ID:    area.ID,
			Name:  area.Name,
			Color: area.Color,
			Ring:  geoproj.CloseRing(geoproj.ToProjected(area.Ring)),
		})
	}
	return cmds
}

// RenderedCount reports how many features are currently on the map.
func (a *Adapter) RenderedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rendered)
}

func (a *Adapter) send(cmd RenderCommand) {
	metrics.RenderCommands.WithLabelValues(cmd.Op).Inc()

	data, err := json.Marshal(cmd)
	if err != nil {
		slog.Error("encode render command", "error", err, "op", cmd.Op)
		return
	}
	if err := a.publisher.PublishRenderCommand(context.Background(), data); err != nil {
		slog.Warn("publish render command", "error", err, "op", cmd.Op)
	}
}
