package ports

import (
	"context"

	"github.com/samirrijal/diadiem/internal/core/domain"
)

// Location is the address bar: the serialized filter query of the current entry.
type Location interface {
	Query() string
	// Replace overwrites the current entry without adding history.
	Replace(query string)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSearchPerformed(ctx context.Context, ev *domain.SearchEvent) error
	PublishBusinessUpdated(ctx context.Context, businessID int64) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeBusinessUpdated(ctx context.Context, handler func(ctx context.Context, businessID int64) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
}

// KeyValueStore holds small per-visitor lists.
type KeyValueStore interface {
	// PushRecent moves value to the head of the list at key and trims it to limit.
	PushRecent(ctx context.Context, key, value string, limit int) error
	Recent(ctx context.Context, key string) ([]string, error)
}
