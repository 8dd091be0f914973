package mapsync

import (
	"context"
	"errors"
	"log/slog"

	"areascope/internal/core/domain"
	"areascope/internal/core/ports"
	"areascope/internal/core/usecases"
	"areascope/internal/pkg/geoproj"
	"areascope/internal/pkg/metrics"
)

// Gesture types sent by the map client.
const (
	GestureDrawPoint = "drawpoint"
	GestureDrawEnd   = "drawend"
	GestureModifyEnd = "modifyend"
	GestureClick     = "click"
)

// GestureEvent is one finished interaction on the map client. Coordinates
// arrive in the map's planar projection and are converted before they touch
// the area list.
type GestureEvent struct {
	Type        string                   `json:"type"`
	Session     string                   `json:"session"`
	AreaID      int64                    `json:"id,omitempty"`
	Coordinates []geoproj.ProjectedPoint `json:"coordinates,omitempty"`
}

// GestureHandler dispatches gesture events against the mode current at
// dispatch time. The mode is read fresh on every event; a gesture raced
// against a mode switch lands in whichever mode won.
type GestureHandler struct {
	areas    *usecases.AreaService
	sessions *usecases.SessionService
	view     ports.FeatureRenderer
	notices  *usecases.NoticeService
}

// NewGestureHandler creates a gesture dispatcher.
func NewGestureHandler(areas *usecases.AreaService, sessions *usecases.SessionService) *GestureHandler {
	return &GestureHandler{areas: areas, sessions: sessions}
}

// SetView wires the renderer so selecting an edit target frames it. Optional.
func (h *GestureHandler) SetView(r ports.FeatureRenderer) { h.view = r }

// SetNotices wires the notice channel. Optional.
func (h *GestureHandler) SetNotices(n *usecases.NoticeService) { h.notices = n }

// Handle routes one gesture event. Events that do not apply in the current
// mode are dropped silently: the client fires gestures optimistically and the
// mode machine is the single authority on what they mean.
func (h *GestureHandler) Handle(ctx context.Context, ev GestureEvent) error {
	metrics.GestureEvents.WithLabelValues(ev.Type).Inc()

	switch ev.Type {
	case GestureDrawPoint:
		return h.handleDrawPoint(ev)
	case GestureDrawEnd:
		return h.handleDrawEnd(ctx, ev)
	case GestureModifyEnd:
		return h.handleModifyEnd(ctx, ev)
	case GestureClick:
		return h.handleClick(ctx, ev)
	default:
		slog.Warn("unknown gesture type", "type", ev.Type, "session", ev.Session)
		return nil
	}
}

// handleDrawPoint records in-progress sketch vertices. The session drops
// them silently outside draw mode.
func (h *GestureHandler) handleDrawPoint(ev GestureEvent) error {
	for _, p := range geoproj.ToGeographic(ev.Coordinates) {
		h.sessions.AppendDrawPoint(ev.Session, p)
	}
	return nil
}

func (h *GestureHandler) handleDrawEnd(ctx context.Context, ev GestureEvent) error {
	mode := h.sessions.CurrentMode(ev.Session)
	if mode.Kind != domain.ModeDrawing {
		return nil
	}

	// Draw mode exits after one polygon no matter how the gesture went.
	defer h.sessions.FinishDrawing(ctx, ev.Session)

	ring := geoproj.ToGeographic(geoproj.StripClosingPoint(ev.Coordinates))
	if len(ring) == 0 {
		// The client sent its vertices incrementally; the end event is
		// just the signal to commit the buffered sketch.
		ring = h.sessions.Get(ev.Session).DrawBuffer()
	}
	area, err := h.areas.Create(ctx, ring)
	if err != nil {
		if errors.Is(err, domain.ErrRingTooShort) {
			slog.Debug("draw gesture too short", "session", ev.Session, "points", len(ring))
			if h.notices != nil {
				h.notices.Show("Polygon needs at least 3 points")
			}
			return nil
		}
		return err
	}

	h.sessions.NoteAreaCreated(ev.Session, h.areas.Count())
	slog.Info("area drawn", "id", area.ID, "name", area.Name, "session", ev.Session)
	return nil
}

func (h *GestureHandler) handleModifyEnd(ctx context.Context, ev GestureEvent) error {
	mode := h.sessions.CurrentMode(ev.Session)
	if mode.Kind != domain.ModeEditing || mode.Target == 0 || mode.Target != ev.AreaID {
		return nil
	}

	ring := geoproj.ToGeographic(geoproj.StripClosingPoint(ev.Coordinates))
	if err := h.areas.UpdateRing(ctx, ev.AreaID, ring); err != nil {
		return err
	}
	if h.notices != nil {
		h.notices.Show("Area updated successfully")
	}
	return nil
}

func (h *GestureHandler) handleClick(ctx context.Context, ev GestureEvent) error {
	if ev.AreaID == 0 {
		return nil
	}

	mode := h.sessions.CurrentMode(ev.Session)
	switch {
	case mode.Kind == domain.ModeErasing:
		err := h.areas.Delete(ctx, ev.AreaID)
		if errors.Is(err, domain.ErrAreaNotFound) {
			// Two rapid clicks on the same feature: the second one loses.
			return nil
		}
		return err
	case mode.Kind == domain.ModeEditing && mode.Target == 0:
		if !h.sessions.SelectEditTarget(ctx, ev.Session, ev.AreaID) {
			return nil
		}
		// Frame the target so its vertices are workable.
		if h.view != nil {
			if area, ok := h.areas.Get(ev.AreaID); ok && len(area.Ring) > 0 {
				h.view.FitView(geoproj.RingBounds(area.Ring))
			}
		}
		return nil
	default:
		return nil
	}
}
