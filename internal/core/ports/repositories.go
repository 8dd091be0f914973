package ports

import (
	"context"

	"areascope/internal/core/domain"
)

// AreaStore persists the full area list in a single durable slot. The list is
// written through on every mutation and read exactly once at startup.
type AreaStore interface {
	Load(ctx context.Context) ([]domain.Area, error)
	Save(ctx context.Context, areas []domain.Area) error
}

// AreaHistoryRepository records area mutations for diagnostics. Inserts
// happen off the mutation path, driven by the audit consumer; the API reads.
type AreaHistoryRepository interface {
	Insert(ctx context.Context, event domain.AreaEvent) error
	ListRecent(ctx context.Context, limit int) ([]domain.AreaEvent, error)
	Count(ctx context.Context) (int, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
