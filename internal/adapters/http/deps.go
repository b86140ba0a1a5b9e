package http

import (
	"context"

	"github.com/samirrijal/diadiem/internal/core/usecases"
)

// Pinger is a backing service the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Directory *usecases.DirectoryService
	Recent    *usecases.RecentService // nil when no key-value store is configured
	Explore   usecases.ExploreConfig  // settings for /v1/explore sessions
	DB        Pinger
	Cache     Pinger
	NATS      interface{ Ping() error }
}
