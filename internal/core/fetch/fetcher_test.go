package fetch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/fetch"
	"github.com/samirrijal/diadiem/internal/core/filter"
	"github.com/samirrijal/diadiem/internal/core/ports"
)

// --- Mock BusinessProvider ---

type mockProvider struct {
	queryFn func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error)
	calls   int
}

func (m *mockProvider) Query(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
	m.calls++
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return ports.ProviderResult{}, nil
}

func (m *mockProvider) GetByID(ctx context.Context, id int64) (*domain.BusinessSummary, error) {
	return nil, domain.ErrNotFound
}

func byKeyword(q ports.ProviderQuery) ports.ProviderResult {
	return ports.ProviderResult{
		Items:      []domain.BusinessSummary{{ID: 1, Name: q.Search}},
		TotalCount: 1,
	}
}

// --- Tests ---

func TestFetcher_QueryMapping(t *testing.T) {
	f := fetch.New(0)
	s := filter.ParseQuery("keyword=spa&category=beauty&location=Hue&district=Phu+Hoi&page=3&sort=rating")
	q := f.Query(s)
	want := ports.ProviderQuery{Page: 3, PageSize: 20, Search: "spa", City: "Hue", District: "Phu Hoi", Category: "beauty"}
	if q != want {
		t.Errorf("got %+v, want %+v", q, want)
	}
}

func TestFetcher_SuccessLifecycle(t *testing.T) {
	p := &mockProvider{queryFn: func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
		return byKeyword(q), nil
	}}
	f := fetch.New(20)
	if f.Phase() != fetch.PhaseIdle {
		t.Fatalf("expected idle, got %s", f.Phase())
	}

	f.MarkDebouncing()
	if f.Phase() != fetch.PhaseDebouncing {
		t.Fatalf("expected debouncing, got %s", f.Phase())
	}

	req, ok := f.Begin(filter.ParseQuery("keyword=spa"))
	if !ok {
		t.Fatal("expected request to be issued")
	}
	if f.Phase() != fetch.PhaseFetching || !f.InFlight() {
		t.Fatalf("expected fetching, got %s", f.Phase())
	}

	c := f.Execute(context.Background(), p, req)
	if !f.Apply(c) {
		t.Fatal("expected completion applied")
	}
	if f.Phase() != fetch.PhaseSuccess {
		t.Errorf("expected success, got %s", f.Phase())
	}
	if got := f.Page(); got.TotalCount != 1 || got.Items[0].Name != "spa" || got.PageIndex != 1 {
		t.Errorf("unexpected page %+v", got)
	}
}

func TestFetcher_LastRequestWins(t *testing.T) {
	p := &mockProvider{queryFn: func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
		return byKeyword(q), nil
	}}
	f := fetch.New(20)

	reqA, _ := f.Begin(filter.ParseQuery("keyword=a"))
	reqB, _ := f.Begin(filter.ParseQuery("keyword=b"))

	// B resolves first, A arrives late.
	compB := f.Execute(context.Background(), p, reqB)
	compA := f.Execute(context.Background(), p, reqA)

	if !f.Apply(compB) {
		t.Fatal("expected B applied")
	}
	if f.Apply(compA) {
		t.Error("expected stale A to be discarded")
	}
	if got := f.Page().Items[0].Name; got != "b" {
		t.Errorf("expected B's result, got %q", got)
	}
}

func TestFetcher_StaleArrivingBeforeLatestIsIgnored(t *testing.T) {
	p := &mockProvider{queryFn: func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
		return byKeyword(q), nil
	}}
	f := fetch.New(20)

	reqA, _ := f.Begin(filter.ParseQuery("keyword=a"))
	reqB, _ := f.Begin(filter.ParseQuery("keyword=b"))

	if f.Apply(f.Execute(context.Background(), p, reqA)) {
		t.Error("expected A ignored once B was issued")
	}
	if f.Phase() != fetch.PhaseFetching {
		t.Errorf("expected still fetching, got %s", f.Phase())
	}
	f.Apply(f.Execute(context.Background(), p, reqB))
	if f.Page().Items[0].Name != "b" {
		t.Errorf("expected b, got %q", f.Page().Items[0].Name)
	}
}

func TestFetcher_ErrorTerminatesWithEmptyPage(t *testing.T) {
	p := &mockProvider{queryFn: func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
		return ports.ProviderResult{}, errors.New("connection refused")
	}}
	f := fetch.New(20)

	req, _ := f.Begin(filter.ParseQuery("keyword=spa"))
	c := f.Execute(context.Background(), p, req)
	if c.Err == nil {
		t.Fatal("expected error in completion")
	}
	f.Apply(c)
	if f.Phase() != fetch.PhaseError {
		t.Errorf("expected error phase, got %s", f.Phase())
	}
	if f.InFlight() {
		t.Error("expected nothing in flight after error")
	}
	if f.Err() == nil || len(f.Page().Items) != 0 || f.Page().TotalCount != 0 {
		t.Errorf("expected empty page with error, got %+v err=%v", f.Page(), f.Err())
	}

	// the same criteria can be retried after an error
	if _, ok := f.Begin(filter.ParseQuery("keyword=spa")); !ok {
		t.Error("expected retry to issue a new request")
	}
}

func TestFetcher_SkipsRedundantQueries(t *testing.T) {
	p := &mockProvider{queryFn: func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
		return byKeyword(q), nil
	}}
	f := fetch.New(20)

	req, _ := f.Begin(filter.ParseQuery("keyword=spa"))
	if _, ok := f.Begin(filter.ParseQuery("keyword=spa&sort=rating")); ok {
		t.Error("expected no duplicate request while the same query is in flight")
	}
	f.Apply(f.Execute(context.Background(), p, req))

	if _, ok := f.Begin(filter.ParseQuery("keyword=spa&open=true")); ok {
		t.Error("expected refinement-only change not to refetch")
	}
	if f.Phase() != fetch.PhaseSuccess {
		t.Errorf("expected phase restored to success, got %s", f.Phase())
	}

	f.Invalidate()
	if _, ok := f.Begin(filter.ParseQuery("keyword=spa")); !ok {
		t.Error("expected refetch after Invalidate")
	}
	if p.calls != 1 {
		t.Errorf("expected provider called once, got %d", p.calls)
	}
}

func TestFetcher_BackToAppliedQuerySupersedesInFlight(t *testing.T) {
	p := &mockProvider{queryFn: func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
		return byKeyword(q), nil
	}}
	f := fetch.New(20)

	req, _ := f.Begin(filter.ParseQuery("keyword=a"))
	f.Apply(f.Execute(context.Background(), p, req))

	reqB, _ := f.Begin(filter.ParseQuery("keyword=b"))
	reqA2, ok := f.Begin(filter.ParseQuery("keyword=a"))
	if !ok {
		t.Fatal("expected a new request superseding b")
	}
	if f.Apply(f.Execute(context.Background(), p, reqB)) {
		t.Error("expected b discarded")
	}
	f.Apply(f.Execute(context.Background(), p, reqA2))
	if f.Page().Items[0].Name != "a" {
		t.Errorf("expected a, got %q", f.Page().Items[0].Name)
	}
}

func TestFetcher_Stalled(t *testing.T) {
	f := fetch.New(20)
	req, _ := f.Begin(filter.Default())
	if f.Stalled(req.StartedAt.Add(time.Second), 5*time.Second) {
		t.Error("expected not stalled after 1s")
	}
	if !f.Stalled(req.StartedAt.Add(6*time.Second), 5*time.Second) {
		t.Error("expected stalled after 6s")
	}
}

func TestFetcher_WithClockTimesRequests(t *testing.T) {
	at := time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)
	f := fetch.New(20).WithClock(func() time.Time { return at })

	req, ok := f.Begin(filter.ParseQuery("keyword=spa&open=true"))
	if !ok {
		t.Fatal("expected request to be issued")
	}
	if !req.StartedAt.Equal(at) {
		t.Errorf("expected start time from the injected clock, got %v", req.StartedAt)
	}
	if req.Filters != "keyword=spa&open=true" {
		t.Errorf("expected request to carry its filters, got %q", req.Filters)
	}
	if !f.Stalled(at.Add(time.Minute), 5*time.Second) {
		t.Error("expected stalled a minute after the injected start")
	}
}
