// Package fetch requests result pages from the business provider and
// applies them in request order.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/filter"
	"github.com/samirrijal/diadiem/internal/core/ports"
)

// DefaultPageSize is the provider page size.
const DefaultPageSize = 20

// Phase is the observable state of the fetcher.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseDebouncing Phase = "debouncing"
	PhaseFetching   Phase = "fetching"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// Request is one issued provider query.
type Request struct {
	Token     uint64
	Key       string
	Filters   string // canonical encoding of the state the request was built from
	Query     ports.ProviderQuery
	StartedAt time.Time
}

// Completion is the outcome of executing a Request.
type Completion struct {
	Token    uint64
	Key      string
	Page     domain.ResultPage
	Err      error
	Duration time.Duration
}

// Fetcher is the IDLE → DEBOUNCING → FETCHING → SUCCESS|ERROR state machine.
// Only the completion of the most recently issued request is applied.
// Begin, Apply and the accessors must be called from one goroutine;
// Execute may run anywhere.
type Fetcher struct {
	pageSize int
	now      func() time.Time

	phase   Phase
	settled Phase
	latest  uint64

	inflight    bool
	inflightKey string
	startedAt   time.Time
	appliedKey  string

	page domain.ResultPage
	err  error
}

// New returns an idle Fetcher. A pageSize <= 0 uses DefaultPageSize.
func New(pageSize int) *Fetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Fetcher{
		pageSize: pageSize,
		now:      time.Now,
		phase:    PhaseIdle,
		settled:  PhaseIdle,
	}
}

// WithClock replaces the clock used to time requests. A nil now is ignored.
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	if now != nil {
		f.now = now
	}
	return f
}

// Query builds the provider query for a filter state.
func (f *Fetcher) Query(s filter.State) ports.ProviderQuery {
	return ports.ProviderQuery{
		Page:     s.Page,
		PageSize: f.pageSize,
		Search:   s.Keyword,
		City:     s.City,
		District: s.District,
		Category: s.Category,
	}
}

// MarkDebouncing records that a keyword edit is waiting to settle.
func (f *Fetcher) MarkDebouncing() {
	f.phase = PhaseDebouncing
}

// Begin issues a new request for s. It returns false, and leaves any
// debouncing phase, when the provider would be asked the same question as
// the request in flight or the last successful one.
func (f *Fetcher) Begin(s filter.State) (Request, bool) {
	key := s.ProviderKey()
	if f.inflight && key == f.inflightKey {
		f.phase = PhaseFetching
		return Request{}, false
	}
	if !f.inflight && key == f.appliedKey {
		f.phase = f.settled
		return Request{}, false
	}
	f.latest++
	f.inflight = true
	f.inflightKey = key
	f.startedAt = f.now()
	f.phase = PhaseFetching
	return Request{
		Token:     f.latest,
		Key:       key,
		Filters:   s.Encode(),
		Query:     f.Query(s),
		StartedAt: f.startedAt,
	}, true
}

// Invalidate forgets the last successful query so the next Begin refetches.
func (f *Fetcher) Invalidate() {
	f.appliedKey = ""
}

// Execute runs req against p. It does not touch the Fetcher.
func (f *Fetcher) Execute(ctx context.Context, p ports.BusinessProvider, req Request) Completion {
	return Execute(ctx, p, req)
}

// Execute runs req against p.
func Execute(ctx context.Context, p ports.BusinessProvider, req Request) Completion {
	start := time.Now()
	c := Completion{Token: req.Token, Key: req.Key}
	res, err := p.Query(ctx, req.Query)
	c.Duration = time.Since(start)
	if err != nil {
		c.Err = fmt.Errorf("query provider: %w", err)
		c.Page = domain.ResultPage{Items: []domain.BusinessSummary{}, PageIndex: req.Query.Page}
		return c
	}
	items := res.Items
	if items == nil {
		items = []domain.BusinessSummary{}
	}
	c.Page = domain.ResultPage{Items: items, TotalCount: res.TotalCount, PageIndex: req.Query.Page}
	return c
}

// Apply installs c if it answers the latest request. Stale completions are
// dropped and Apply returns false.
func (f *Fetcher) Apply(c Completion) bool {
	if c.Token != f.latest || !f.inflight {
		return false
	}
	f.inflight = false
	f.inflightKey = ""
	if c.Err != nil {
		f.err = c.Err
		f.page = domain.ResultPage{Items: []domain.BusinessSummary{}, PageIndex: c.Page.PageIndex}
		f.appliedKey = ""
		f.settled = PhaseError
	} else {
		f.err = nil
		f.page = c.Page
		f.appliedKey = c.Key
		f.settled = PhaseSuccess
	}
	if f.phase != PhaseDebouncing {
		f.phase = f.settled
	}
	return true
}

// Phase returns the current phase.
func (f *Fetcher) Phase() Phase { return f.phase }

// Page returns the last applied page.
func (f *Fetcher) Page() domain.ResultPage { return f.page }

// Err returns the error of the last applied completion, if any.
func (f *Fetcher) Err() error { return f.err }

// InFlight reports whether a request is awaiting its completion.
func (f *Fetcher) InFlight() bool { return f.inflight }

// Latest returns the token of the most recently issued request.
func (f *Fetcher) Latest() uint64 { return f.latest }

// Stalled reports whether the request in flight has been running longer than after.
func (f *Fetcher) Stalled(now time.Time, after time.Duration) bool {
	return f.inflight && after > 0 && now.Sub(f.startedAt) >= after
}
