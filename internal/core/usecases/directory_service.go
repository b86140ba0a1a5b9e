package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/fetch"
	"github.com/samirrijal/diadiem/internal/core/filter"
	"github.com/samirrijal/diadiem/internal/core/ports"
	"github.com/samirrijal/diadiem/internal/core/refine"
	"github.com/samirrijal/diadiem/internal/core/schedule"
	"github.com/samirrijal/diadiem/internal/core/view"
	"github.com/samirrijal/diadiem/internal/core/viewport"
	"github.com/samirrijal/diadiem/internal/pkg/metrics"
)

// DirectoryService answers stateless directory requests: one-shot searches,
// business detail and opening-hours checks.
type DirectoryService struct {
	provider ports.BusinessProvider
	events   ports.EventPublisher
	schedule schedule.Evaluator
	refiner  *refine.Refiner
	pageSize int
	now      func() time.Time
}

// NewDirectoryService creates a new DirectoryService. events may be nil.
func NewDirectoryService(provider ports.BusinessProvider, events ports.EventPublisher, ev schedule.Evaluator, locale string, pageSize int) *DirectoryService {
	if pageSize <= 0 {
		pageSize = fetch.DefaultPageSize
	}
	return &DirectoryService{
		provider: provider,
		events:   events,
		schedule: ev,
		refiner:  refine.New(ev, locale),
		pageSize: pageSize,
		now:      time.Now,
	}
}

// Provider exposes the underlying provider for the provider-contract endpoint.
func (s *DirectoryService) Provider() ports.BusinessProvider { return s.provider }

// PageSize is the page size used for every provider query.
func (s *DirectoryService) PageSize() int { return s.pageSize }

// Schedule is the evaluator used for "open now".
func (s *DirectoryService) Schedule() schedule.Evaluator { return s.schedule }

// Search runs hydrate, fetch, refine and reconcile once and returns the
// resulting render model. A provider failure yields an empty page with
// Error set; it is never returned as an error.
func (s *DirectoryService) Search(ctx context.Context, st filter.State, bounds *domain.Bounds, follow bool) view.Snapshot {
	f := fetch.New(s.pageSize)
	req, _ := f.Begin(st)
	c := fetch.Execute(ctx, s.provider, req)
	f.Apply(c)
	metrics.ObserveFetch(c.Duration, c.Err)
	if c.Err != nil {
		slog.WarnContext(ctx, "search failed", "query", st.Encode(), "error", c.Err)
	}

	if s.events != nil {
		ev := &domain.SearchEvent{
			Query:      st.Encode(),
			TotalCount: c.Page.TotalCount,
			Failed:     c.Err != nil,
			Time:       s.now(),
		}
		if err := s.events.PublishSearchPerformed(ctx, ev); err != nil {
			slog.DebugContext(ctx, "publish search event", "error", err)
		}
	}

	if bounds != nil && !bounds.Valid() {
		bounds = nil
	}
	now := s.now()
	page := f.Page()
	refined := s.refiner.Apply(page.Items, refine.OptionsFrom(st), now)
	visible := viewport.Reconcile(refined, bounds, follow)

	return view.Build(view.Input{
		State:     st,
		Phase:     f.Phase(),
		Err:       f.Err(),
		Page:      page,
		Visible:   visible,
		Bounds:    bounds,
		MapFollow: follow,
		PageSize:  s.pageSize,
		Now:       now,
		Schedule:  s.schedule,
	})
}

// BusinessDetail is a single business with its current opening state.
type BusinessDetail struct {
	view.Card
	// OpenBecause is the opening-hours label that makes the business open now.
	OpenBecause string `json:"open_because,omitempty"`
}

// Business returns one business with its open-now explanation.
func (s *DirectoryService) Business(ctx context.Context, id int64) (*BusinessDetail, error) {
	b, err := s.provider.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	label := s.schedule.Explain(b.OpeningHours, now)
	return &BusinessDetail{
		Card: view.Card{
			BusinessSummary: *b,
			OpenNow:         label != "",
			ActiveDeals:     b.ActiveDeals(),
		},
		OpenBecause: label,
	}, nil
}

// OpenStatus is the answer to "is this business open at a given time".
type OpenStatus struct {
	BusinessID int64     `json:"business_id"`
	At         time.Time `json:"at"`
	Open       bool      `json:"open"`
	Because    string    `json:"because,omitempty"`
}

// IsOpen evaluates the business's opening hours at the given instant; a zero
// at means now.
func (s *DirectoryService) IsOpen(ctx context.Context, id int64, at time.Time) (*OpenStatus, error) {
	b, err := s.provider.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = s.now()
	}
	label := s.schedule.Explain(b.OpeningHours, at)
	return &OpenStatus{BusinessID: id, At: at, Open: label != "", Because: label}, nil
}
