package usecases_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/ports"
)

// --- Mock BusinessProvider ---

type mockProvider struct {
	mu      sync.Mutex
	calls   []ports.ProviderQuery
	queryFn func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error)
	getFn   func(ctx context.Context, id int64) (*domain.BusinessSummary, error)
}

func (m *mockProvider) Query(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, q)
	m.mu.Unlock()
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return ports.ProviderResult{}, nil
}

func (m *mockProvider) GetByID(ctx context.Context, id int64) (*domain.BusinessSummary, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockProvider) lastCall() ports.ProviderQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCache) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// --- Mock KeyValueStore ---

type mockKV struct {
	lists map[string][]string
}

func newMockKV() *mockKV {
	return &mockKV{lists: make(map[string][]string)}
}

func (m *mockKV) PushRecent(ctx context.Context, key, value string, limit int) error {
	list := []string{value}
	for _, v := range m.lists[key] {
		if v != value {
			list = append(list, v)
		}
	}
	if len(list) > limit {
		list = list[:limit]
	}
	m.lists[key] = list
	return nil
}

func (m *mockKV) Recent(ctx context.Context, key string) ([]string, error) {
	return m.lists[key], nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	searches []domain.SearchEvent
	updated  []int64
	err      error
}

func (m *mockPublisher) PublishSearchPerformed(ctx context.Context, ev *domain.SearchEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, *ev)
	return m.err
}

func (m *mockPublisher) PublishBusinessUpdated(ctx context.Context, businessID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, businessID)
	return m.err
}

func (m *mockPublisher) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.searches)
}

// --- Mock DealRepository ---

type mockDealRepo struct {
	pendingFn   func(ctx context.Context, now time.Time) ([]domain.DealTransition, error)
	setStatusFn func(ctx context.Context, dealID int64, from, to domain.DealStatus) (bool, error)
}

func (m *mockDealRepo) PendingTransitions(ctx context.Context, now time.Time) ([]domain.DealTransition, error) {
	if m.pendingFn != nil {
		return m.pendingFn(ctx, now)
	}
	return nil, nil
}

func (m *mockDealRepo) SetStatus(ctx context.Context, dealID int64, from, to domain.DealStatus) (bool, error) {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, dealID, from, to)
	}
	return true, nil
}

// --- Mock ViewCounter ---

type mockViews struct {
	counted []int64
}

func (m *mockViews) IncrementViews(ctx context.Context, businessID int64) error {
	m.counted = append(m.counted, businessID)
	return nil
}
