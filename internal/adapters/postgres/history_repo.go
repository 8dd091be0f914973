package postgres

import (
	"context"
	"encoding/json"

	"areascope/internal/core/domain"
)

// AreaHistoryRepo implements ports.AreaHistoryRepository. Every area mutation
// is appended as one row; the table is an audit trail, never read back into
// the live list.
type AreaHistoryRepo struct {
	db *DB
}

func NewAreaHistoryRepo(db *DB) *AreaHistoryRepo {
	return &AreaHistoryRepo{db: db}
}

// EnsureSchema creates the audit table when it does not exist yet.
func (r *AreaHistoryRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS area_events (
			time        TIMESTAMPTZ NOT NULL,
			event_type  TEXT        NOT NULL,
			area_id     BIGINT      NOT NULL,
			name        TEXT,
			visible     BOOLEAN,
			ring        JSONB
		);
		CREATE INDEX IF NOT EXISTS area_events_time_idx ON area_events (time DESC);
	`)
	return err
}

func (r *AreaHistoryRepo) Insert(ctx context.Context, ev domain.AreaEvent) error {
	var name interface{}
	var visible interface{}
	var ring interface{}
	if ev.Area != nil {
		name = ev.Area.Name
		visible = ev.Area.Visible
		if data, err := json.Marshal(ev.Area.Ring); err == nil {
			ring = data
		}
	}

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO area_events (time, event_type, area_id, name, visible, ring)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ev.Time, string(ev.Type), ev.ID, name, visible, ring)
	return err
}

// Count returns the total number of audit rows, independent of any window.
func (r *AreaHistoryRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM area_events`).Scan(&n)
	return n, err
}

func (r *AreaHistoryRepo) ListRecent(ctx context.Context, limit int) ([]domain.AreaEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT time, event_type, area_id, name, visible, ring
		FROM area_events
		ORDER BY time DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AreaEvent
	for rows.Next() {
		var ev domain.AreaEvent
		var eventType string
		var name *string
		var visible *bool
		var ring []byte
		if err := rows.Scan(&ev.Time, &eventType, &ev.ID, &name, &visible, &ring); err != nil {
			return nil, err
		}
		ev.Type = domain.AreaEventType(eventType)
		if name != nil {
			area := domain.Area{ID: ev.ID, Name: *name}
			if visible != nil {
				area.Visible = *visible
			}
			if len(ring) > 0 {
				_ = json.Unmarshal(ring, &area.Ring)
			}
			ev.Area = &area
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
