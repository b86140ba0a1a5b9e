package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/diadiem/internal/core/debounce"
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

// ExploreConfig tunes an explore session. Zero durations disable the
// corresponding timer; a zero Debounce commits keywords immediately.
type ExploreConfig struct {
	PageSize    int
	Debounce    time.Duration
	StallAfter  time.Duration
	OpenRefresh time.Duration
	Locale      string
	Schedule    schedule.Evaluator

	Events ports.EventPublisher // optional
	Logger *slog.Logger         // optional
	Now    func() time.Time     // optional, for tests
}

// ExploreSession is one user's search screen: filters bound to an address,
// a debounced keyword, the fetch state machine, the map viewport and the
// derived list. All of its state is owned by the Run goroutine; Send and
// Close may be called from anywhere.
type ExploreSession struct {
	id       string
	cfg      ExploreConfig
	provider ports.BusinessProvider
	loc      ports.Location
	sink     func(view.Snapshot)
	log      *slog.Logger

	intents chan view.Intent
	posts   chan func()
	closing chan struct{}
	done    chan struct{}
	once    sync.Once

	// owned by Run
	ctx       context.Context
	manager   *filter.Manager
	fetcher   *fetch.Fetcher
	keyword   *debounce.Debouncer[string]
	refiner   *refine.Refiner
	stall     *time.Timer
	bounds    *domain.Bounds
	follow    bool
	lastState filter.State
}

// NewExploreSession creates a session reading and writing filters through
// loc and pushing every render model to sink.
func NewExploreSession(provider ports.BusinessProvider, loc ports.Location, sink func(view.Snapshot), cfg ExploreConfig) *ExploreSession {
	if cfg.PageSize <= 0 {
		cfg.PageSize = fetch.DefaultPageSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	id := uuid.NewString()
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &ExploreSession{
		id:       id,
		cfg:      cfg,
		provider: provider,
		loc:      loc,
		sink:     sink,
		log:      log.With("session_id", id),
		intents:  make(chan view.Intent, 32),
		posts:    make(chan func(), 32),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
		fetcher:  fetch.New(cfg.PageSize).WithClock(cfg.Now),
		refiner:  refine.New(cfg.Schedule, cfg.Locale),
	}
	s.keyword = debounce.NewVersioned(cfg.Debounce, func(gen uint64, k string) {
		s.post(func() {
			// a commit, removal or navigation handled after the timer fired wins
			if !s.keyword.Current(gen) {
				return
			}
			metrics.DebounceEmissions.Inc()
			s.commit(filter.SetKeyword(k))
		})
	})
	return s
}

// ID returns the session identifier used in logs and events.
func (s *ExploreSession) ID() string { return s.id }

// Send queues an intent. It returns false once the session is closed.
func (s *ExploreSession) Send(i view.Intent) bool {
	select {
	case <-s.closing:
		return false
	case <-s.done:
		return false
	default:
	}
	select {
	case s.intents <- i:
		return true
	case <-s.closing:
		return false
	case <-s.done:
		return false
	}
}

// Close stops the session. Pending keyword edits are dropped and the
// context of any fetch in flight is cancelled.
func (s *ExploreSession) Close() {
	s.once.Do(func() {
		close(s.closing)
		s.keyword.Stop()
	})
}

// Done is closed when Run has returned.
func (s *ExploreSession) Done() <-chan struct{} { return s.done }

// Run hydrates the filters from the address, performs the first fetch and
// processes intents until ctx ends or Close is called.
func (s *ExploreSession) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.ctx = ctx

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()
	defer close(s.done)
	defer s.shutdown()

	s.manager = filter.NewManager(s.loc, s.filtersChanged)
	s.lastState = s.manager.State()
	s.log.Info("explore session started", "query", s.loc.Query())
	s.startFetch(s.manager.State())
	s.publish()

	var tick <-chan time.Time
	if s.cfg.OpenRefresh > 0 {
		t := time.NewTicker(s.cfg.OpenRefresh)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closing:
			return
		case i := <-s.intents:
			s.handle(i)
		case fn := <-s.posts:
			fn()
		case <-tick:
			// opening hours depend on the clock; the page itself is unchanged
			s.publish()
		}
	}
}

func (s *ExploreSession) shutdown() {
	s.keyword.Stop()
	if s.stall != nil {
		s.stall.Stop()
	}
	s.log.Info("explore session closed")
}

// post runs fn on the Run goroutine. Posts after shutdown are dropped.
func (s *ExploreSession) post(fn func()) {
	select {
	case s.posts <- fn:
	case <-s.closing:
	case <-s.done:
	}
}

func (s *ExploreSession) handle(i view.Intent) {
	switch i.Type {
	case view.IntentTyping:
		if s.cfg.Debounce <= 0 {
			s.commit(filter.SetKeyword(i.Keyword))
			return
		}
		s.fetcher.MarkDebouncing()
		s.keyword.Set(i.Keyword)
	case view.IntentCommit:
		v := i.Values()
		if _, ok := v[filter.KeyKeyword]; ok {
			s.keyword.Cancel()
		}
		s.commit(filter.UpdateFromValues(v))
		return
	case view.IntentRemove:
		if i.Key == filter.KeyKeyword {
			s.keyword.Cancel()
		}
		s.commit(filter.Clear(i.Key))
		return
	case view.IntentPage:
		s.commit(filter.SetPage(i.Page))
		return
	case view.IntentBounds:
		if i.Bounds == nil || !i.Bounds.Valid() {
			s.log.Debug("ignoring invalid bounds", "bounds", i.Bounds)
			return
		}
		b := *i.Bounds
		s.bounds = &b
	case view.IntentFollow:
		s.follow = i.Follow
	case view.IntentNavigate:
		s.keyword.Cancel()
		if nav, ok := s.loc.(interface{ Push(string) }); ok {
			nav.Push(i.Query)
		} else {
			s.loc.Replace(i.Query)
		}
		s.sync()
		return
	case view.IntentBack, view.IntentForward:
		if !s.step(i.Type) {
			return
		}
		s.keyword.Cancel()
		s.sync()
		return
	case view.IntentRetry:
		s.fetcher.Invalidate()
		s.startFetch(s.manager.State())
	default:
		s.log.Debug("unknown intent", "type", i.Type)
		return
	}
	s.publish()
}

func (s *ExploreSession) step(t view.IntentType) bool {
	type history interface {
		Back() bool
		Forward() bool
	}
	h, ok := s.loc.(history)
	if !ok {
		return false
	}
	if t == view.IntentBack {
		return h.Back()
	}
	return h.Forward()
}

// commit applies a filter change. An unchanged serialized state neither
// notifies nor fetches; it only ends a debouncing phase.
func (s *ExploreSession) commit(u filter.Update) {
	if !s.manager.Commit(u) {
		if s.fetcher.Phase() == fetch.PhaseDebouncing && !s.keyword.Pending() {
			s.startFetch(s.manager.State())
		}
	}
	s.publish()
}

func (s *ExploreSession) sync() {
	if !s.manager.Sync() && s.fetcher.Phase() == fetch.PhaseDebouncing && !s.keyword.Pending() {
		s.startFetch(s.manager.State())
	}
	s.publish()
}

// filtersChanged is the Manager's change callback.
func (s *ExploreSession) filtersChanged(st filter.State) {
	if st.Keyword != s.lastState.Keyword {
		s.keyword.Cancel()
	}
	s.lastState = st
	s.startFetch(st)
}

func (s *ExploreSession) startFetch(st filter.State) {
	req, ok := s.fetcher.Begin(st)
	if !ok {
		metrics.SkippedFetches.Inc()
		if s.keyword.Pending() {
			s.fetcher.MarkDebouncing()
		}
		return
	}
	s.armStall(req.Token)

	ctx := s.ctx
	provider := s.provider
	go func() {
		c := fetch.Execute(ctx, provider, req)
		s.post(func() { s.complete(req, c) })
	}()
}

func (s *ExploreSession) armStall(token uint64) {
	if s.stall != nil {
		s.stall.Stop()
		s.stall = nil
	}
	if s.cfg.StallAfter <= 0 {
		return
	}
	s.stall = time.AfterFunc(s.cfg.StallAfter, func() {
		s.post(func() {
			if s.fetcher.InFlight() && s.fetcher.Latest() == token {
				metrics.StalledFetches.Inc()
				s.log.Warn("fetch stalled", "after", s.cfg.StallAfter)
				s.publish()
			}
		})
	})
}

func (s *ExploreSession) complete(req fetch.Request, c fetch.Completion) {
	metrics.ObserveFetch(c.Duration, c.Err)
	if !s.fetcher.Apply(c) {
		metrics.StaleCompletions.Inc()
		s.log.Debug("discarded stale completion", "token", c.Token, "latest", s.fetcher.Latest())
		return
	}
	if s.stall != nil {
		s.stall.Stop()
		s.stall = nil
	}
	if c.Err != nil {
		s.log.Warn("search failed", "query", req.Key, "error", c.Err)
	}
	s.emitSearchEvent(req, c)
	s.publish()
}

func (s *ExploreSession) emitSearchEvent(req fetch.Request, c fetch.Completion) {
	if s.cfg.Events == nil {
		return
	}
	ev := &domain.SearchEvent{
		SessionID:  s.id,
		Query:      req.Filters,
		TotalCount: c.Page.TotalCount,
		Failed:     c.Err != nil,
		Time:       s.cfg.Now(),
	}
	events := s.cfg.Events
	ctx := s.ctx
	go func() {
		if err := events.PublishSearchPerformed(ctx, ev); err != nil {
			s.log.Debug("publish search event", "error", err)
		}
	}()
}

// publish derives the render model from the current state and hands it to the sink.
func (s *ExploreSession) publish() {
	if s.sink == nil {
		return
	}
	now := s.cfg.Now()
	st := s.manager.State()
	page := s.fetcher.Page()
	refined := s.refiner.Apply(page.Items, refine.OptionsFrom(st), now)
	visible := viewport.Reconcile(refined, s.bounds, s.follow)

	s.sink(view.Build(view.Input{
		State:     st,
		Phase:     s.fetcher.Phase(),
		Stalled:   s.fetcher.Stalled(now, s.cfg.StallAfter),
		Err:       s.fetcher.Err(),
		Page:      page,
		Visible:   visible,
		Bounds:    s.bounds,
		MapFollow: s.follow,
		PageSize:  s.cfg.PageSize,
		Now:       now,
		Schedule:  s.cfg.Schedule,
	}))
}
