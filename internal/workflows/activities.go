package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/usecases"
)

// DealActivities holds the activity implementations for the deal lifecycle workflow.
type DealActivities struct {
	Deals *usecases.DealService
}

// ListPendingTransitions returns the deals whose status no longer matches their window.
func (a *DealActivities) ListPendingTransitions(ctx context.Context) ([]domain.DealTransition, error) {
	pending, err := a.Deals.Pending(ctx)
	if err != nil {
		return nil, err
	}
	activity.GetLogger(ctx).Info("pending deal transitions", "count", len(pending))
	return pending, nil
}

// ApplyTransition moves one deal to its new status.
func (a *DealActivities) ApplyTransition(ctx context.Context, t domain.DealTransition) (bool, error) {
	ok, err := a.Deals.Apply(ctx, t)
	if err != nil {
		return false, fmt.Errorf("deal %d %s -> %s: %w", t.DealID, t.From, t.To, err)
	}
	return ok, nil
}

// AnnounceBusinesses tells search caches that the businesses' deals changed.
func (a *DealActivities) AnnounceBusinesses(ctx context.Context, businessIDs []int64) error {
	a.Deals.Announce(ctx, businessIDs)
	return nil
}
