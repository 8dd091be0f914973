package usecases_test

import (
	"context"
	"errors"
	"testing"

	"areascope/internal/core/domain"
	"areascope/internal/core/usecases"
)

// --- Mock AreaStore ---

type mockAreaStore struct {
	loadFn func(ctx context.Context) ([]domain.Area, error)
	saveFn func(ctx context.Context, areas []domain.Area) error
	saved  [][]domain.Area
}

func (m *mockAreaStore) Load(ctx context.Context) ([]domain.Area, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return nil, nil
}

func (m *mockAreaStore) Save(ctx context.Context, areas []domain.Area) error {
	m.saved = append(m.saved, areas)
	if m.saveFn != nil {
		return m.saveFn(ctx, areas)
	}
	return nil
}

// --- Mock FeatureRenderer ---

type mockRenderer struct {
	upserts []domain.Area
	removes []int64
	fits    []domain.Bounds
	pans    []domain.GeoPoint
	zooms   []int
}

func (m *mockRenderer) UpsertFeature(a domain.Area) { m.upserts = append(m.upserts, a) }
func (m *mockRenderer) RemoveFeature(id int64)      { m.removes = append(m.removes, id) }
func (m *mockRenderer) FitView(b domain.Bounds)     { m.fits = append(m.fits, b) }
func (m *mockRenderer) PanTo(p domain.GeoPoint, zoom int) {
	m.pans = append(m.pans, p)
	m.zooms = append(m.zooms, zoom)
}

// --- Mock ModeObserver ---

type mockObserver struct {
	deleted []int64
}

func (m *mockObserver) AreaDeleted(id int64) { m.deleted = append(m.deleted, id) }

func validRing() domain.Ring {
	return domain.Ring{
		{Lat: 50.90, Lon: 6.90},
		{Lat: 50.95, Lon: 6.95},
		{Lat: 50.90, Lon: 7.00},
	}
}

// --- Tests ---

func TestAreaService_Create(t *testing.T) {
	store := &mockAreaStore{}
	renderer := &mockRenderer{}
	svc := usecases.NewAreaService(store)
	svc.SetRenderer(renderer)

	area, err := svc.Create(context.Background(), validRing())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if area.Name != "Area 1" {
		t.Errorf("expected name 'Area 1', got %q", area.Name)
	}
	if !area.Visible {
		t.Error("new area should be visible")
	}
	if area.Color != domain.DefaultAreaColor {
		t.Errorf("expected default color, got %q", area.Color)
	}

	list := svc.List()
	if len(list) != 1 {
		t.Fatalf("expected 1 area, got %d", len(list))
	}
	if len(list[0].Ring) != 3 {
		t.Errorf("expected ring of 3 points, got %d", len(list[0].Ring))
	}
	if list[0].Ring[0] != (domain.GeoPoint{Lat: 50.90, Lon: 6.90}) {
		t.Errorf("unexpected first point: %v", list[0].Ring[0])
	}

	if len(store.saved) != 1 {
		t.Errorf("expected 1 write-through save, got %d", len(store.saved))
	}
	if len(renderer.upserts) != 1 || renderer.upserts[0].ID != area.ID {
		t.Error("created area was not rendered")
	}
}

func TestAreaService_Create_ShortRing(t *testing.T) {
	store := &mockAreaStore{}
	svc := usecases.NewAreaService(store)

	_, err := svc.Create(context.Background(), domain.Ring{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}})
	if !errors.Is(err, domain.ErrRingTooShort) {
		t.Fatalf("expected ErrRingTooShort, got %v", err)
	}
	if svc.Count() != 0 {
		t.Errorf("expected 0 areas, got %d", svc.Count())
	}
	if len(store.saved) != 0 {
		t.Error("rejected ring must not be persisted")
	}
}

func TestAreaService_Create_UniqueIDs(t *testing.T) {
	svc := usecases.NewAreaService(&mockAreaStore{})

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		area, err := svc.Create(context.Background(), validRing())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[area.ID] {
			t.Fatalf("duplicate id %d", area.ID)
		}
		seen[area.ID] = true
	}
}

func TestAreaService_Create_NamesCountUp(t *testing.T) {
	svc := usecases.NewAreaService(&mockAreaStore{})

	first, _ := svc.Create(context.Background(), validRing())
	second, _ := svc.Create(context.Background(), validRing())

	if first.Name != "Area 1" || second.Name != "Area 2" {
		t.Errorf("expected Area 1 / Area 2, got %q / %q", first.Name, second.Name)
	}
}

func TestAreaService_ToggleVisibility_Twice(t *testing.T) {
	store := &mockAreaStore{}
	renderer := &mockRenderer{}
	svc := usecases.NewAreaService(store)
	svc.SetRenderer(renderer)

	area, _ := svc.Create(context.Background(), validRing())

	visible, err := svc.ToggleVisibility(context.Background(), area.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if visible {
		t.Error("first toggle should hide the area")
	}
	if len(renderer.removes) != 1 {
		t.Error("hidden area's feature must be removed from the map")
	}

	visible, err = svc.ToggleVisibility(context.Background(), area.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !visible {
		t.Error("second toggle should restore visibility")
	}

	// Create + two toggles = three write-through saves.
	if len(store.saved) != 3 {
		t.Fatalf("expected 3 saves, got %d", len(store.saved))
	}
	if store.saved[1][0].Visible || !store.saved[2][0].Visible {
		t.Error("persisted list does not reflect the toggles")
	}
}

func TestAreaService_ToggleVisibility_Unknown(t *testing.T) {
	svc := usecases.NewAreaService(&mockAreaStore{})
	if _, err := svc.ToggleVisibility(context.Background(), 42); !errors.Is(err, domain.ErrAreaNotFound) {
		t.Errorf("expected ErrAreaNotFound, got %v", err)
	}
}

func TestAreaService_Load(t *testing.T) {
	store := &mockAreaStore{
		loadFn: func(ctx context.Context) ([]domain.Area, error) {
			return []domain.Area{{ID: 7, Name: "Test Area", Ring: validRing(), Visible: true}}, nil
		},
	}
	svc := usecases.NewAreaService(store)
	svc.Load(context.Background())

	list := svc.List()
	if len(list) != 1 {
		t.Fatalf("expected 1 area after reload, got %d", len(list))
	}
	if list[0].Name != "Test Area" {
		t.Errorf("expected name 'Test Area', got %q", list[0].Name)
	}
}

func TestAreaService_Load_Corrupt(t *testing.T) {
	store := &mockAreaStore{
		loadFn: func(ctx context.Context) ([]domain.Area, error) {
			return nil, errors.New("invalid character 'x'")
		},
	}
	svc := usecases.NewAreaService(store)
	svc.Load(context.Background())

	if svc.Count() != 0 {
		t.Errorf("corrupt slot must yield an empty list, got %d areas", svc.Count())
	}
}

func TestAreaService_Load_KeepsIDsMonotonic(t *testing.T) {
	store := &mockAreaStore{
		loadFn: func(ctx context.Context) ([]domain.Area, error) {
			return []domain.Area{{ID: 1 << 62, Name: "Area 1", Ring: validRing(), Visible: true}}, nil
		},
	}
	svc := usecases.NewAreaService(store)
	svc.Load(context.Background())

	area, err := svc.Create(context.Background(), validRing())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if area.ID <= 1<<62 {
		t.Errorf("new id %d not past loaded maximum", area.ID)
	}
}

func TestAreaService_UpdateRing(t *testing.T) {
	svc := usecases.NewAreaService(&mockAreaStore{})
	area, _ := svc.Create(context.Background(), validRing())

	newRing := domain.Ring{
		{Lat: 51.0, Lon: 6.8},
		{Lat: 51.1, Lon: 6.9},
		{Lat: 51.0, Lon: 7.0},
		{Lat: 50.9, Lon: 6.9},
	}
	if err := svc.UpdateRing(context.Background(), area.ID, newRing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := svc.Get(area.ID)
	if !ok {
		t.Fatal("area vanished after update")
	}
	if len(got.Ring) != 4 || got.Ring[0].Lat != 51.0 {
		t.Errorf("ring was not replaced: %v", got.Ring)
	}
}

func TestAreaService_UpdateRing_UnknownID(t *testing.T) {
	store := &mockAreaStore{}
	svc := usecases.NewAreaService(store)

	// Fire-and-forget: an unknown id is a logged no-op, not an error.
	if err := svc.UpdateRing(context.Background(), 99, validRing()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.saved) != 0 {
		t.Error("no-op update must not persist")
	}
}

func TestAreaService_Delete(t *testing.T) {
	renderer := &mockRenderer{}
	observer := &mockObserver{}
	svc := usecases.NewAreaService(&mockAreaStore{})
	svc.SetRenderer(renderer)
	svc.SetModeObserver(observer)

	area, _ := svc.Create(context.Background(), validRing())

	if err := svc.Delete(context.Background(), area.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Count() != 0 {
		t.Errorf("expected 0 areas, got %d", svc.Count())
	}
	if len(renderer.removes) != 1 || renderer.removes[0] != area.ID {
		t.Error("deleted area's feature was not removed")
	}
	if len(observer.deleted) != 1 || observer.deleted[0] != area.ID {
		t.Error("mode observer was not signalled")
	}
}

func TestAreaService_PersistFailure_KeepsMutation(t *testing.T) {
	store := &mockAreaStore{
		saveFn: func(ctx context.Context, areas []domain.Area) error {
			return errors.New("quota exceeded")
		},
	}
	svc := usecases.NewAreaService(store)

	if _, err := svc.Create(context.Background(), validRing()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Count() != 1 {
		t.Error("in-memory list must stay authoritative when persistence fails")
	}
}

func TestAreaService_List_IsSnapshot(t *testing.T) {
	svc := usecases.NewAreaService(&mockAreaStore{})
	area, _ := svc.Create(context.Background(), validRing())

	list := svc.List()
	list[0].Ring[0].Lat = -90

	got, _ := svc.Get(area.ID)
	if got.Ring[0].Lat == -90 {
		t.Error("mutating a snapshot leaked into the store")
	}
}
