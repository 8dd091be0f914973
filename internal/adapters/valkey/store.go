package valkey

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"areascope/internal/core/domain"
)

// AreaStore implements ports.AreaStore on a single Valkey key holding the
// whole area list as one JSON document. The key has no TTL; the slot is
// durable, not a cache.
type AreaStore struct {
	c   *Client
	key string
}

// NewAreaStore creates a store writing to the given key.
func NewAreaStore(c *Client, key string) *AreaStore {
	return &AreaStore{c: c, key: key}
}

// Load reads and decodes the slot. A missing key yields an empty list.
func (s *AreaStore) Load(ctx context.Context) ([]domain.Area, error) {
	cmd := s.c.client.Do(ctx, s.c.client.B().Get().Key(s.key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read area slot: %w", err)
	}
	data, err := cmd.AsBytes()
	if err != nil {
		return nil, fmt.Errorf("read area slot: %w", err)
	}

	var areas []domain.Area
	if err := json.Unmarshal(data, &areas); err != nil {
		return nil, fmt.Errorf("decode area slot: %w", err)
	}
	return areas, nil
}

// Save replaces the slot with the full list.
func (s *AreaStore) Save(ctx context.Context, areas []domain.Area) error {
	if areas == nil {
		areas = []domain.Area{}
	}
	data, err := json.Marshal(areas)
	if err != nil {
		return fmt.Errorf("encode area slot: %w", err)
	}
	cmd := s.c.client.Do(ctx, s.c.client.B().Set().Key(s.key).Value(string(data)).Build())
	if err := cmd.Error(); err != nil {
		return fmt.Errorf("write area slot: %w", err)
	}
	return nil
}
