package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/ports"
	"github.com/samirrijal/diadiem/internal/pkg/metrics"
	"github.com/samirrijal/diadiem/internal/pkg/telemetry"
)

// DealService advances deals through Scheduled → Active → Expired.
type DealService struct {
	deals  ports.DealRepository
	events ports.EventPublisher
	now    func() time.Time
}

// NewDealService creates a new DealService. events may be nil.
func NewDealService(deals ports.DealRepository, events ports.EventPublisher) *DealService {
	return &DealService{deals: deals, events: events, now: time.Now}
}

// SweepResult summarises one sweep.
type SweepResult struct {
	Applied    int     `json:"applied"`
	Businesses []int64 `json:"businesses"`
}

// Pending lists the transitions due at the current time.
func (s *DealService) Pending(ctx context.Context) ([]domain.DealTransition, error) {
	pending, err := s.deals.PendingTransitions(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list pending transitions: %w", err)
	}
	return pending, nil
}

// Apply performs one transition. It reports false when the deal's status
// changed underneath us and the transition was skipped.
func (s *DealService) Apply(ctx context.Context, t domain.DealTransition) (bool, error) {
	ok, err := s.deals.SetStatus(ctx, t.DealID, t.From, t.To)
	if err != nil {
		return false, fmt.Errorf("set deal %d status: %w", t.DealID, err)
	}
	if ok {
		metrics.DealTransitions.WithLabelValues(string(t.To)).Inc()
	}
	return ok, nil
}

// Announce publishes a business-updated event per ID. Failures are logged;
// caches fall back to their TTL.
func (s *DealService) Announce(ctx context.Context, businessIDs []int64) {
	if s.events == nil {
		return
	}
	for _, id := range businessIDs {
		if err := s.events.PublishBusinessUpdated(ctx, id); err != nil {
			slog.Warn("publish business updated", "business_id", id, "error", err)
		}
	}
}

// Sweep applies every pending transition and announces each affected
// business once. A transition that lost a race with another writer is skipped.
func (s *DealService) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "DealService.Sweep")
	defer span.End()

	pending, err := s.Pending(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return SweepResult{}, err
	}

	res := SweepResult{Businesses: []int64{}}
	seen := make(map[int64]bool)
	for _, t := range pending {
		ok, err := s.Apply(ctx, t)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return res, err
		}
		if !ok {
			continue
		}
		res.Applied++
		if !seen[t.BusinessID] {
			seen[t.BusinessID] = true
			res.Businesses = append(res.Businesses, t.BusinessID)
		}
	}

	span.SetAttributes(attribute.Int(telemetry.AttrDealTransitions, res.Applied))
	s.Announce(ctx, res.Businesses)
	return res, nil
}
