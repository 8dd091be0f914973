package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"areascope/internal/core/domain"
	"areascope/internal/core/ports"
	"areascope/internal/pkg/metrics"
)

// ModeObserver is notified when an area disappears, so the interaction mode
// machine can release a dangling edit target.
type ModeObserver interface {
	AreaDeleted(id int64)
}

// AreaService owns the canonical list of areas. It is the only writer: every
// mutation is applied under the lock, persisted write-through to the durable
// slot, and then reflected onto the map via the renderer. Persistence
// failures are logged and never roll back the in-memory mutation.
type AreaService struct {
	mu     sync.Mutex
	areas  []domain.Area
	lastID int64

	store     ports.AreaStore
	renderer  ports.FeatureRenderer
	publisher ports.EventPublisher
	observer  ModeObserver
}

// NewAreaService creates a new AreaService backed by the given durable slot.
func NewAreaService(store ports.AreaStore) *AreaService {
	return &AreaService{store: store}
}

// SetRenderer wires the map sync adapter. Optional.
func (s *AreaService) SetRenderer(r ports.FeatureRenderer) { s.renderer = r }

// SetPublisher wires the event bus. Optional.
func (s *AreaService) SetPublisher(p ports.EventPublisher) { s.publisher = p }

// SetModeObserver wires the interaction mode machine. Optional.
func (s *AreaService) SetModeObserver(o ModeObserver) { s.observer = o }

// Load reads the persisted area list once at startup. A missing or corrupt
// slot yields an empty list, never an error to the caller.
func (s *AreaService) Load(ctx context.Context) {
	areas, err := s.store.Load(ctx)
	if err != nil {
		slog.Error("load areas: starting with empty list", "error", err)
		areas = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.areas = areas
	for _, a := range areas {
		if a.ID > s.lastID {
			s.lastID = a.ID
		}
	}
	slog.Info("areas loaded", "count", len(areas))
}

// Create validates a completed draw ring and appends a new area.
// Rings under 3 points are rejected and nothing is persisted.
func (s *AreaService) Create(ctx context.Context, ring domain.Ring) (*domain.Area, error) {
	if len(ring) < 3 {
		metrics.RingsRejected.Inc()
		return nil, domain.ErrRingTooShort
	}

	s.mu.Lock()
	area := domain.Area{
		ID:      s.nextIDLocked(),
		Name:    fmt.Sprintf("Area %d", len(s.areas)+1),
		Ring:    ring.Clone(),
		Visible: true,
		Color:   domain.DefaultAreaColor,
	}
	s.areas = append(s.areas, area)
	s.persistLocked(ctx)
	s.mu.Unlock()

	metrics.AreasCreated.Inc()
	if s.renderer != nil {
		s.renderer.UpsertFeature(area)
	}
	s.emit(ctx, domain.AreaEvent{Type: domain.AreaCreated, ID: area.ID, Area: &area, Time: time.Now()})

	return &area, nil
}

// UpdateRing replaces the ring of the area with the given id. An unknown id
// is a logged no-op: edit completions are fire-and-forget, and the area may
// have been erased while its vertices were being dragged.
func (s *AreaService) UpdateRing(ctx context.Context, id int64, ring domain.Ring) error {
	if len(ring) < 3 {
		return domain.ErrRingTooShort
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		slog.Warn("ring update for unknown area id", "id", id)
		return nil
	}
	s.areas[idx].Ring = ring.Clone()
	updated := s.cloneLocked(idx)
	s.persistLocked(ctx)
	s.mu.Unlock()

	metrics.AreasUpdated.Inc()
	if s.renderer != nil {
		s.renderer.UpsertFeature(updated)
	}
	s.emit(ctx, domain.AreaEvent{Type: domain.AreaUpdated, ID: id, Area: &updated, Time: time.Now()})

	return nil
}

// ToggleVisibility flips the visible flag and reconciles the rendered
// feature: hidden areas are removed from the map, shown ones re-added.
func (s *AreaService) ToggleVisibility(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, domain.ErrAreaNotFound
	}
	s.areas[idx].Visible = !s.areas[idx].Visible
	toggled := s.cloneLocked(idx)
	s.persistLocked(ctx)
	s.mu.Unlock()

	metrics.VisibilityToggles.Inc()
	if s.renderer != nil {
		if toggled.Visible {
			s.renderer.UpsertFeature(toggled)
		} else {
			s.renderer.RemoveFeature(id)
		}
	}
	s.emit(ctx, domain.AreaEvent{Type: domain.AreaVisibility, ID: id, Area: &toggled, Time: time.Now()})

	return toggled.Visible, nil
}

// Delete removes the area, its rendered feature, and, via the observer,
// any edit session targeting it.
func (s *AreaService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrAreaNotFound
	}
	s.areas = append(s.areas[:idx], s.areas[idx+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	metrics.AreasDeleted.Inc()
	if s.renderer != nil {
		s.renderer.RemoveFeature(id)
	}
	if s.observer != nil {
		s.observer.AreaDeleted(id)
	}
	s.emit(ctx, domain.AreaEvent{Type: domain.AreaDeleted, ID: id, Time: time.Now()})

	return nil
}

// List returns an insertion-ordered snapshot of the areas.
func (s *AreaService) List() []domain.Area {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Area, len(s.areas))
	for i := range s.areas {
		out[i] = s.cloneLocked(i)
	}
	return out
}

// Count returns the number of areas.
func (s *AreaService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.areas)
}

// Get returns a snapshot of a single area.
func (s *AreaService) Get(id int64) (domain.Area, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Area{}, false
	}
	return s.cloneLocked(idx), true
}

// nextIDLocked returns a time-based id, bumped past the last issued one so
// ids stay unique even when two areas are created within the same
// millisecond. Deleted ids are never reissued.
func (s *AreaService) nextIDLocked() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *AreaService) indexLocked(id int64) int {
	for i := range s.areas {
		if s.areas[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *AreaService) cloneLocked(idx int) domain.Area {
	a := s.areas[idx]
	a.Ring = a.Ring.Clone()
	return a
}

// persistLocked writes the full list through to the durable slot. The
// in-memory list stays authoritative when the write fails.
func (s *AreaService) persistLocked(ctx context.Context) {
	snapshot := make([]domain.Area, len(s.areas))
	copy(snapshot, s.areas)
	if err := s.store.Save(ctx, snapshot); err != nil {
		metrics.PersistFailures.Inc()
		slog.Error("persist areas", "error", err, "count", len(snapshot))
	}
}

func (s *AreaService) emit(ctx context.Context, ev domain.AreaEvent) {
	if s.publisher != nil {
		if err := s.publisher.PublishAreaEvent(ctx, ev); err != nil {
			slog.Warn("publish area event", "error", err, "type", ev.Type, "id", ev.ID)
		}
	}
}
