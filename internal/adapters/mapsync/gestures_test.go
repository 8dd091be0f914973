package mapsync_test

import (
	"context"
	"testing"
	"time"

	"areascope/internal/adapters/mapsync"
	"areascope/internal/core/domain"
	"areascope/internal/core/usecases"
	"areascope/internal/pkg/geoproj"
)

type memStore struct{}

func (memStore) Load(ctx context.Context) ([]domain.Area, error)     { return nil, nil }
func (memStore) Save(ctx context.Context, areas []domain.Area) error { return nil }

func newGestureFixture() (*mapsync.GestureHandler, *usecases.AreaService, *usecases.SessionService) {
	areas := usecases.NewAreaService(memStore{})
	notices := usecases.NewNoticeService(time.Minute)
	sessions := usecases.NewSessionService(areas, notices)
	areas.SetModeObserver(sessions)
	return mapsync.NewGestureHandler(areas, sessions), areas, sessions
}

// closedTriangle mimics the map client: the drawn ring arrives closed.
func closedTriangle() []geoproj.ProjectedPoint {
	open := geoproj.ToProjected(domain.Ring{
		{Lat: 50.90, Lon: 6.90},
		{Lat: 50.95, Lon: 6.95},
		{Lat: 50.90, Lon: 7.00},
	})
	return geoproj.CloseRing(open)
}

func TestGestureHandler_DrawEnd(t *testing.T) {
	handler, areas, sessions := newGestureFixture()
	ctx := context.Background()

	sessions.StartDrawing(ctx, "s1")
	err := handler.Handle(ctx, mapsync.GestureEvent{
		Type:        mapsync.GestureDrawEnd,
		Session:     "s1",
		Coordinates: closedTriangle(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if areas.Count() != 1 {
		t.Fatalf("expected 1 area, got %d", areas.Count())
	}
	// The closing duplicate is stripped before storage.
	if got := areas.List()[0].Ring; len(got) != 3 {
		t.Errorf("expected an open 3-point ring, got %d points", len(got))
	}
	if sessions.CurrentMode("s1").Kind != domain.ModeIdle {
		t.Error("draw mode must self-exit after the gesture")
	}
	if sessions.Get("s1").Step() != domain.StepComplete {
		t.Error("first area should advance the workflow step")
	}
}

func TestGestureHandler_DrawEnd_OutsideDrawMode(t *testing.T) {
	handler, areas, _ := newGestureFixture()

	err := handler.Handle(context.Background(), mapsync.GestureEvent{
		Type:        mapsync.GestureDrawEnd,
		Session:     "s1",
		Coordinates: closedTriangle(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if areas.Count() != 0 {
		t.Error("draw gestures outside draw mode must be dropped")
	}
}

func TestGestureHandler_IncrementalSketch(t *testing.T) {
	handler, areas, sessions := newGestureFixture()
	ctx := context.Background()

	sessions.StartDrawing(ctx, "s1")
	for _, pt := range closedTriangle()[:3] {
		err := handler.Handle(ctx, mapsync.GestureEvent{
			Type:        mapsync.GestureDrawPoint,
			Session:     "s1",
			Coordinates: []geoproj.ProjectedPoint{pt},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := len(sessions.Get("s1").DrawBuffer()); got != 3 {
		t.Fatalf("expected 3 buffered vertices, got %d", got)
	}

	// A drawend without coordinates commits the buffered sketch.
	err := handler.Handle(ctx, mapsync.GestureEvent{
		Type: mapsync.GestureDrawEnd, Session: "s1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if areas.Count() != 1 {
		t.Fatalf("expected 1 area from the buffered sketch, got %d", areas.Count())
	}
	if got := len(sessions.Get("s1").DrawBuffer()); got != 0 {
		t.Errorf("exiting draw mode must clear the sketch, %d vertices left", got)
	}
}

func TestGestureHandler_DrawPoint_OutsideDrawMode(t *testing.T) {
	handler, _, sessions := newGestureFixture()
	ctx := context.Background()

	err := handler.Handle(ctx, mapsync.GestureEvent{
		Type:        mapsync.GestureDrawPoint,
		Session:     "s1",
		Coordinates: closedTriangle()[:1],
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(sessions.Get("s1").DrawBuffer()); got != 0 {
		t.Errorf("sketch vertices outside draw mode must be dropped, got %d", got)
	}
}

func TestGestureHandler_ClickErases(t *testing.T) {
	handler, areas, sessions := newGestureFixture()
	ctx := context.Background()

	area, _ := areas.Create(ctx, domain.Ring{
		{Lat: 50.90, Lon: 6.90}, {Lat: 50.95, Lon: 6.95}, {Lat: 50.90, Lon: 7.00},
	})
	if err := sessions.StartErasing(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := handler.Handle(ctx, mapsync.GestureEvent{
		Type: mapsync.GestureClick, Session: "s1", AreaID: area.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if areas.Count() != 0 {
		t.Error("click in erase mode must delete the area")
	}
	if sessions.CurrentMode("s1").Kind != domain.ModeErasing {
		t.Error("erase mode must survive the deletion")
	}

	// A second click on the now-gone feature is harmless.
	err = handler.Handle(ctx, mapsync.GestureEvent{
		Type: mapsync.GestureClick, Session: "s1", AreaID: area.ID,
	})
	if err != nil {
		t.Errorf("double-erase must be a no-op, got %v", err)
	}
}

func TestGestureHandler_ClickSelectsEditTarget(t *testing.T) {
	handler, areas, sessions := newGestureFixture()
	ctx := context.Background()

	area, _ := areas.Create(ctx, domain.Ring{
		{Lat: 50.90, Lon: 6.90}, {Lat: 50.95, Lon: 6.95}, {Lat: 50.90, Lon: 7.00},
	})
	if err := sessions.StartEditing(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := handler.Handle(ctx, mapsync.GestureEvent{
		Type: mapsync.GestureClick, Session: "s1", AreaID: area.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mode := sessions.CurrentMode("s1")
	if mode.Kind != domain.ModeEditing || mode.Target != area.ID {
		t.Errorf("expected editing target %d, got %v", area.ID, mode)
	}
}

type recordingView struct {
	fits []domain.Bounds
}

func (v *recordingView) UpsertFeature(area domain.Area)    {}
func (v *recordingView) RemoveFeature(id int64)            {}
func (v *recordingView) FitView(b domain.Bounds)           { v.fits = append(v.fits, b) }
func (v *recordingView) PanTo(p domain.GeoPoint, zoom int) {}

func TestGestureHandler_SelectTargetFramesArea(t *testing.T) {
	handler, areas, sessions := newGestureFixture()
	view := &recordingView{}
	handler.SetView(view)
	ctx := context.Background()

	area, _ := areas.Create(ctx, domain.Ring{
		{Lat: 50.90, Lon: 6.90}, {Lat: 50.95, Lon: 6.95}, {Lat: 50.90, Lon: 7.00},
	})
	if err := sessions.StartEditing(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := handler.Handle(ctx, mapsync.GestureEvent{
		Type: mapsync.GestureClick, Session: "s1", AreaID: area.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(view.fits) != 1 {
		t.Fatalf("expected 1 fit command, got %d", len(view.fits))
	}
	b := view.fits[0]
	if b.MinLat != 50.90 || b.MaxLat != 50.95 || b.MinLon != 6.90 || b.MaxLon != 7.00 {
		t.Errorf("fit bounds do not cover the target ring: %+v", b)
	}

	// A click while a target is already held must not re-frame.
	_ = handler.Handle(ctx, mapsync.GestureEvent{
		Type: mapsync.GestureClick, Session: "s1", AreaID: area.ID,
	})
	if len(view.fits) != 1 {
		t.Error("second click must not issue another fit")
	}
}

func TestGestureHandler_ModifyEnd_ShowsNotice(t *testing.T) {
	areas := usecases.NewAreaService(memStore{})
	notices := usecases.NewNoticeService(time.Minute)
	sessions := usecases.NewSessionService(areas, notices)
	handler := mapsync.NewGestureHandler(areas, sessions)
	handler.SetNotices(notices)
	ctx := context.Background()

	area, _ := areas.Create(ctx, domain.Ring{
		{Lat: 50.90, Lon: 6.90}, {Lat: 50.95, Lon: 6.95}, {Lat: 50.90, Lon: 7.00},
	})
	sessions.StartEditing(ctx, "s1")
	sessions.SelectEditTarget(ctx, "s1", area.ID)

	err := handler.Handle(ctx, mapsync.GestureEvent{
		Type: mapsync.GestureModifyEnd, Session: "s1", AreaID: area.ID, Coordinates: closedTriangle(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := notices.Current(); got != "Area updated successfully" {
		t.Errorf("expected update notice, got %q", got)
	}
}

func TestGestureHandler_ModifyEnd(t *testing.T) {
	handler, areas, sessions := newGestureFixture()
	ctx := context.Background()

	area, _ := areas.Create(ctx, domain.Ring{
		{Lat: 50.90, Lon: 6.90}, {Lat: 50.95, Lon: 6.95}, {Lat: 50.90, Lon: 7.00},
	})
	sessions.StartEditing(ctx, "s1")
	sessions.SelectEditTarget(ctx, "s1", area.ID)

	moved := geoproj.CloseRing(geoproj.ToProjected(domain.Ring{
		{Lat: 51.00, Lon: 6.80},
		{Lat: 51.05, Lon: 6.85},
		{Lat: 51.00, Lon: 6.90},
	}))
	err := handler.Handle(ctx, mapsync.GestureEvent{
		Type: mapsync.GestureModifyEnd, Session: "s1", AreaID: area.ID, Coordinates: moved,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := areas.Get(area.ID)
	if got.Ring[0].Lat < 50.99 || got.Ring[0].Lat > 51.01 {
		t.Errorf("ring was not updated: %v", got.Ring[0])
	}
}

func TestGestureHandler_ModifyEnd_WrongTarget(t *testing.T) {
	handler, areas, sessions := newGestureFixture()
	ctx := context.Background()

	area, _ := areas.Create(ctx, domain.Ring{
		{Lat: 50.90, Lon: 6.90}, {Lat: 50.95, Lon: 6.95}, {Lat: 50.90, Lon: 7.00},
	})
	sessions.StartEditing(ctx, "s1")
	sessions.SelectEditTarget(ctx, "s1", area.ID)

	err := handler.Handle(ctx, mapsync.GestureEvent{
		Type: mapsync.GestureModifyEnd, Session: "s1", AreaID: area.ID + 1, Coordinates: closedTriangle(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := areas.Get(area.ID)
	if got.Ring[0].Lat != 50.90 {
		t.Error("a modify for a non-target area must be dropped")
	}
}

func TestGestureHandler_UnknownType(t *testing.T) {
	handler, _, _ := newGestureFixture()
	if err := handler.Handle(context.Background(), mapsync.GestureEvent{Type: "hover"}); err != nil {
		t.Errorf("unknown gestures must be dropped, got %v", err)
	}
}
