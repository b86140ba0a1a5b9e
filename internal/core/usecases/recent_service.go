package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/ports"
)

// RecentLimit bounds the recently viewed list per visitor.
const RecentLimit = 10

// RecentService tracks the businesses a visitor opened most recently.
type RecentService struct {
	kv       ports.KeyValueStore
	provider ports.BusinessProvider
	views    ports.ViewCounter
}

// NewRecentService creates a new RecentService. views may be nil.
func NewRecentService(kv ports.KeyValueStore, provider ports.BusinessProvider, views ports.ViewCounter) *RecentService {
	return &RecentService{kv: kv, provider: provider, views: views}
}

// Record moves businessID to the head of the visitor's list and counts the view.
func (s *RecentService) Record(ctx context.Context, visitorID string, businessID int64) error {
	if visitorID == "" {
		return fmt.Errorf("visitor id must not be empty")
	}
	if _, err := s.provider.GetByID(ctx, businessID); err != nil {
		return err
	}
	if err := s.kv.PushRecent(ctx, recentKey(visitorID), strconv.FormatInt(businessID, 10), RecentLimit); err != nil {
		return fmt.Errorf("push recent: %w", err)
	}
	if s.views != nil {
		if err := s.views.IncrementViews(ctx, businessID); err != nil {
			return fmt.Errorf("increment views: %w", err)
		}
	}
	return nil
}

// List returns the visitor's businesses, most recent first. Businesses that
// no longer exist are skipped. An empty list means the affordance is hidden.
func (s *RecentService) List(ctx context.Context, visitorID string) ([]domain.BusinessSummary, error) {
	if visitorID == "" {
		return []domain.BusinessSummary{}, nil
	}
	ids, err := s.kv.Recent(ctx, recentKey(visitorID))
	if err != nil {
		return nil, fmt.Errorf("read recent: %w", err)
	}

	out := make([]domain.BusinessSummary, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		b, err := s.provider.GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

func recentKey(visitorID string) string {
	return "recent:" + visitorID
}
