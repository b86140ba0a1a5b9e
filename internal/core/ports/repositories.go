package ports

import (
	"context"
	"time"

	"github.com/samirrijal/diadiem/internal/core/domain"
)

// ProviderQuery is the request contract of the business-data provider.
type ProviderQuery struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search,omitempty"`
	City     string `json:"city,omitempty"`
	District string `json:"district,omitempty"`
	Category string `json:"category,omitempty"`
}

// ProviderResult is one page of matches plus the total across all pages.
type ProviderResult struct {
	Items      []domain.BusinessSummary `json:"items"`
	TotalCount int                      `json:"total_count"`
}

// BusinessProvider is the external data store the search core queries.
type BusinessProvider interface {
	Query(ctx context.Context, q ProviderQuery) (ProviderResult, error)
	GetByID(ctx context.Context, id int64) (*domain.BusinessSummary, error)
}

// DealRepository reads and advances deal statuses.
type DealRepository interface {
	// PendingTransitions lists deals whose status no longer matches their time window at now.
	PendingTransitions(ctx context.Context, now time.Time) ([]domain.DealTransition, error)
	SetStatus(ctx context.Context, dealID int64, from, to domain.DealStatus) (bool, error)
}

// ViewCounter records business detail views.
type ViewCounter interface {
	IncrementViews(ctx context.Context, businessID int64) error
}
