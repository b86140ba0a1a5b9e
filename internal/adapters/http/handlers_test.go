package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/diadiem/internal/adapters/http"
	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/ports"
	"github.com/samirrijal/diadiem/internal/core/schedule"
	"github.com/samirrijal/diadiem/internal/core/usecases"
	"github.com/samirrijal/diadiem/internal/core/view"
)

// ---- Mocks ----

type mockProvider struct {
	queryFn   func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error)
	getByIDFn func(ctx context.Context, id int64) (*domain.BusinessSummary, error)
}

func (m *mockProvider) Query(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return ports.ProviderResult{}, nil
}

func (m *mockProvider) GetByID(ctx context.Context, id int64) (*domain.BusinessSummary, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

type mockKV struct {
	mu     sync.Mutex
	lists  map[string][]string
	pushFn func(key, value string) error
}

func (m *mockKV) PushRecent(ctx context.Context, key, value string, limit int) error {
	if m.pushFn != nil {
		if err := m.pushFn(key, value); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lists == nil {
		m.lists = map[string][]string{}
	}
	next := []string{value}
	for _, v := range m.lists[key] {
		if v != value {
			next = append(next, v)
		}
	}
	if len(next) > limit {
		next = next[:limit]
	}
	m.lists[key] = next
	return nil
}

func (m *mockKV) Recent(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lists[key]...), nil
}

type mockViews struct {
	counted []int64
}

func (m *mockViews) IncrementViews(ctx context.Context, id int64) error {
	m.counted = append(m.counted, id)
	return nil
}

type mockPinger struct {
	err error
}

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

// ---- Fixtures ----

var joined = time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)

func fixtures() []domain.BusinessSummary {
	return []domain.BusinessSummary{
		{
			ID: 1, Name: "Spa Hoa Sen", Categories: []string{"Spa"}, City: "Hồ Chí Minh", District: "Quận 1",
			Location: &domain.GeoPoint{Lat: 10.776, Lon: 106.700}, Rating: 4.2, ReviewCount: 12, Verified: true,
			OpeningHours: domain.OpeningHours{"Hàng ngày": "00:00 - 24:00"},
			Deals:        []domain.Deal{{ID: 7, Title: "Giảm 20%", Status: domain.DealActive}},
			JoinedAt:     joined,
		},
		{
			ID: 2, Name: "Phở Thìn", Categories: []string{"Nhà hàng"}, City: "Hà Nội",
			Location: &domain.GeoPoint{Lat: 21.018, Lon: 105.850}, Rating: 4.8, ReviewCount: 40,
			JoinedAt: joined.AddDate(0, 1, 0),
		},
		{
			ID: 3, Name: "Tiệm sửa xe Minh", Categories: []string{"Sửa xe"}, City: "Hồ Chí Minh",
			Rating: 5, ReviewCount: 0, Verified: true,
			JoinedAt: joined.AddDate(0, 2, 0),
		},
	}
}

func fixtureProvider() *mockProvider {
	items := fixtures()
	return &mockProvider{
		queryFn: func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
			return ports.ProviderResult{Items: items, TotalCount: 45}, nil
		},
		getByIDFn: func(ctx context.Context, id int64) (*domain.BusinessSummary, error) {
			for i := range items {
				if items[i].ID == id {
					b := items[i]
					return &b, nil
				}
			}
			return nil, domain.ErrNotFound
		},
	}
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps, handler.RouterConfig{})
	return app
}

func makeDeps(p ports.BusinessProvider, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Directory: usecases.NewDirectoryService(p, nil, schedule.Evaluator{}, "vi", 20),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func decodeError(t *testing.T, body io.Reader) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.NewDecoder(body).Decode(&apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

// ---- Provider contract ----

func TestListBusinesses_Success(t *testing.T) {
	var got ports.ProviderQuery
	p := fixtureProvider()
	inner := p.queryFn
	p.queryFn = func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
		got = q
		return inner(ctx, q)
	}
	app := setupApp(makeDeps(p))

	req := httptest.NewRequest("GET", "/v1/businesses?page=2&page_size=10&search=spa&city=H%E1%BB%93+Ch%C3%AD+Minh&category=Spa", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	want := ports.ProviderQuery{Page: 2, PageSize: 10, Search: "spa", City: "Hồ Chí Minh", Category: "Spa"}
	if got != want {
		t.Errorf("provider query = %+v, want %+v", got, want)
	}

	var result ports.ProviderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.TotalCount != 45 || len(result.Items) != 3 {
		t.Errorf("got total %d with %d items", result.TotalCount, len(result.Items))
	}

	link := resp.Header.Get("Link")
	for _, rel := range []string{`rel="first"`, `rel="prev"`, `rel="next"`, `rel="last"`} {
		if !strings.Contains(link, rel) {
			t.Errorf("Link header missing %s: %s", rel, link)
		}
	}
}

func TestListBusinesses_BadPageSize(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	for _, size := range []string{"0", "101"} {
		req := httptest.NewRequest("GET", "/v1/businesses?page_size="+size, nil)
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 400 {
			t.Fatalf("page_size=%s: expected 400, got %d", size, resp.StatusCode)
		}
		if apiErr := decodeError(t, resp.Body); apiErr.Code != "bad_request" {
			t.Errorf("expected bad_request, got %s", apiErr.Code)
		}
	}
}

func TestListBusinesses_ProviderError(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{
		queryFn: func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
			return ports.ProviderResult{}, errors.New("connection refused")
		},
	}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/businesses", nil), -1)
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if apiErr := decodeError(t, resp.Body); apiErr.Code != "provider_error" {
		t.Errorf("expected provider_error, got %s", apiErr.Code)
	}
}

// ---- Business detail ----

func TestGetBusiness_Success(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/businesses/1", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var detail usecases.BusinessDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if detail.Name != "Spa Hoa Sen" || !detail.OpenNow || detail.ActiveDeals != 1 {
		t.Errorf("unexpected detail: %+v", detail)
	}
	if detail.OpenBecause != "Hàng ngày" {
		t.Errorf("open_because = %q", detail.OpenBecause)
	}
}

func TestGetBusiness_NotFound(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/businesses/999", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if apiErr := decodeError(t, resp.Body); apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %s", apiErr.Code)
	}
}

func TestGetBusiness_BadID(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	for _, id := range []string{"abc", "0", "-4"} {
		resp, _ := app.Test(httptest.NewRequest("GET", "/v1/businesses/"+id, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("id %s: expected 400, got %d", id, resp.StatusCode)
		}
	}
}

func TestBusinessOpen(t *testing.T) {
	p := &mockProvider{
		getByIDFn: func(ctx context.Context, id int64) (*domain.BusinessSummary, error) {
			return &domain.BusinessSummary{
				ID:           id,
				Name:         "Cà phê Giảng",
				OpeningHours: domain.OpeningHours{"Thứ 2 - Thứ 6": "08:00 - 17:00"},
			}, nil
		},
	}
	app := setupApp(makeDeps(p))

	tests := []struct {
		at      string
		open    bool
		because string
	}{
		{"2024-01-03T10:00:00Z", true, "Thứ 2 - Thứ 6"}, // Wednesday
		{"2024-01-03T17:00:00Z", false, ""},
		{"2024-01-06T10:00:00Z", false, ""}, // Saturday
	}
	for _, tt := range tests {
		resp, _ := app.Test(httptest.NewRequest("GET", "/v1/businesses/4/open?at="+tt.at, nil), -1)
		if resp.StatusCode != 200 {
			t.Fatalf("at %s: expected 200, got %d", tt.at, resp.StatusCode)
		}
		var st usecases.OpenStatus
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatal(err)
		}
		if st.Open != tt.open || st.Because != tt.because || st.BusinessID != 4 {
			t.Errorf("at %s: got %+v", tt.at, st)
		}
	}
}

func TestBusinessOpen_BadTimestamp(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/businesses/1/open?at=tomorrow", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Search ----

func TestSearch_RefinesAndSorts(t *testing.T) {
	var got ports.ProviderQuery
	p := fixtureProvider()
	inner := p.queryFn
	p.queryFn = func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
		got = q
		return inner(ctx, q)
	}
	app := setupApp(makeDeps(p))

	req := httptest.NewRequest("GET", "/v1/search?keyword=+spa+&verified=true&sort=rating&district=Qu%E1%BA%ADn+1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got.Search != "spa" || got.District != "" {
		t.Errorf("provider query = %+v", got)
	}

	var snap view.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Query != "keyword=spa&sort=rating&verified=true" {
		t.Errorf("query = %q", snap.Query)
	}
	// Verified only, unreviewed business ranks last despite its 5.0.
	if len(snap.Items) != 2 || snap.Items[0].ID != 1 || snap.Items[1].ID != 3 {
		t.Fatalf("unexpected items: %+v", snap.Items)
	}
	if len(snap.Markers) != 1 || snap.Markers[0].ID != 1 {
		t.Errorf("expected one marker for business 1, got %+v", snap.Markers)
	}
	if len(snap.Tags) != 3 || snap.Tags[0].Key != "keyword" {
		t.Errorf("unexpected tags: %+v", snap.Tags)
	}
	if snap.Pagination.TotalPages != 3 || !snap.Pagination.HasNext {
		t.Errorf("unexpected pagination: %+v", snap.Pagination)
	}
}

func TestSearch_ProviderFailureStillOK(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{
		queryFn: func(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
			return ports.ProviderResult{}, errors.New("timeout")
		},
	}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/search?keyword=pho", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var snap view.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Phase != "error" || snap.Error == "" || len(snap.Items) != 0 {
		t.Errorf("expected error snapshot, got %+v", snap)
	}
}

func TestSearch_FollowBBox(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	// Around central Saigon; Hanoi and the business without a location fall out.
	req := httptest.NewRequest("GET", "/v1/search?follow=true&bbox=106.6,10.7,106.8,10.9", nil)
	resp, _ := app.Test(req, -1)
	var snap view.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if !snap.MapFollow || snap.Bounds == nil {
		t.Fatalf("expected follow with bounds, got %+v", snap)
	}
	if len(snap.Items) != 1 || snap.Items[0].ID != 1 {
		t.Errorf("expected only business 1, got %+v", snap.Items)
	}
	if snap.Items[0].DistanceM == nil {
		t.Error("expected distance from the viewport centre")
	}
}

func TestSearch_WithoutFollowKeepsAll(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/search?bbox=106.6,10.7,106.8,10.9", nil), -1)
	var snap view.Snapshot
	json.NewDecoder(resp.Body).Decode(&snap)
	if len(snap.Items) != 3 {
		t.Errorf("expected 3 items, got %d", len(snap.Items))
	}
}

func TestSearch_KeywordTooLong(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/search?keyword="+strings.Repeat("a", 201), nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCanonicalFilters(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	req := httptest.NewRequest("GET", "/v1/filters/canonical?page=1&sort=default&keyword=+pho+&district=Ba+%C4%90%C3%ACnh&deals=false&open=true", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var body struct {
		Query string `json:"query"`
		Tags  []struct {
			Key string `json:"key"`
		} `json:"tags"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Query != "keyword=pho&open=true" {
		t.Errorf("query = %q", body.Query)
	}
	if len(body.Tags) != 2 {
		t.Errorf("expected 2 tags, got %+v", body.Tags)
	}
}

// ---- Recently viewed ----

func TestRecordView_NotConfigured(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	req := httptest.NewRequest("POST", "/v1/businesses/1/views", nil)
	req.Header.Set("X-Visitor-ID", "v1")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestRecentlyViewed(t *testing.T) {
	p := fixtureProvider()
	kv := &mockKV{}
	views := &mockViews{}
	app := setupApp(makeDeps(p, func(d *handler.Dependencies) {
		d.Recent = usecases.NewRecentService(kv, p, views)
	}))

	post := func(id, visitor string) int {
		req := httptest.NewRequest("POST", "/v1/businesses/"+id+"/views", nil)
		if visitor != "" {
			req.Header.Set("X-Visitor-ID", visitor)
		}
		resp, _ := app.Test(req, -1)
		return resp.StatusCode
	}

	if code := post("1", ""); code != 400 {
		t.Errorf("missing visitor: expected 400, got %d", code)
	}
	if code := post("999", "v1"); code != 404 {
		t.Errorf("unknown business: expected 404, got %d", code)
	}
	for _, id := range []string{"1", "2", "1"} {
		if code := post(id, "v1"); code != 204 {
			t.Fatalf("record %s: expected 204, got %d", id, code)
		}
	}
	if len(views.counted) != 3 {
		t.Errorf("expected 3 counted views, got %v", views.counted)
	}

	req := httptest.NewRequest("GET", "/v1/recent", nil)
	req.Header.Set("X-Visitor-ID", "v1")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "private, no-store" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if resp.Header.Get("ETag") != "" {
		t.Error("private responses must not carry an ETag")
	}
	var items []domain.BusinessSummary
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].ID != 1 || items[1].ID != 2 {
		t.Errorf("unexpected recent list: %+v", items)
	}

	// Another visitor has no history.
	req = httptest.NewRequest("GET", "/v1/recent", nil)
	req.Header.Set("X-Visitor-ID", "v2")
	resp, _ = app.Test(req, -1)
	if body := strings.TrimSpace(string(readBody(t, resp.Body))); body != "[]" {
		t.Errorf("expected empty list, got %s", body)
	}
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name  string
		db    handler.Pinger
		cache handler.Pinger
		want  int
	}{
		{"no database", nil, nil, 503},
		{"database ok", mockPinger{}, nil, 200},
		{"database down", mockPinger{err: errors.New("refused")}, nil, 503},
		{"cache down", mockPinger{}, mockPinger{err: errors.New("refused")}, 503},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(makeDeps(fixtureProvider(), func(d *handler.Dependencies) {
				d.DB = tt.db
				d.Cache = tt.cache
			}))
			resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

// ---- Caching ----

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/businesses/2", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag on detail response")
	}

	req := httptest.NewRequest("GET", "/v1/businesses/2", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- Docs ----

func TestDocs_ServesEmbeddedOpenAPI(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	resp, err := app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/yaml") {
		t.Errorf("expected application/yaml, got %q", ct)
	}
	if body := string(readBody(t, resp.Body)); !strings.Contains(body, "Diadiem Directory API") {
		t.Error("expected the OpenAPI document in the body")
	}
}

func TestDocs_SwaggerPage(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	resp, err := app.Test(httptest.NewRequest("GET", "/docs", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("expected docs cache policy, got %q", cc)
	}
	body := string(readBody(t, resp.Body))
	for _, want := range []string{"swagger-ui", "openapi.yaml", "<title>Diadiem Directory API</title>"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

// ---- Explore ----

func TestExplore_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/explore?keyword=pho", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", resp.StatusCode)
	}
}

// ---- GraphQL ----

func TestGraphQL_Search(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	body := `{"query":"{ search(keyword: \"spa\", sort: \"name\") { query total_count items { id name open_now } tags { key label } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Search struct {
				Query      string `json:"query"`
				TotalCount int    `json:"total_count"`
				Items      []struct {
					ID   int64  `json:"id"`
					Name string `json:"name"`
				} `json:"items"`
				Tags []struct {
					Key string `json:"key"`
				} `json:"tags"`
			} `json:"search"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	s := result.Data.Search
	if s.Query != "keyword=spa&sort=name" || s.TotalCount != 45 {
		t.Errorf("unexpected search result: %+v", s)
	}
	if len(s.Items) != 3 || s.Items[0].Name != "Phở Thìn" {
		t.Errorf("expected name-sorted items, got %+v", s.Items)
	}
	if len(s.Tags) != 2 {
		t.Errorf("expected 2 tags, got %+v", s.Tags)
	}
}

func TestGraphQL_BusinessAndIsOpen(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	body := `{"query":"{ business(id: 1) { name active_deals location { lat } deals { title status } } isOpen(id: 1, at: \"2024-01-03T10:00:00Z\") { open because } missing: business(id: 42) { name } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)

	var result struct {
		Data struct {
			Business struct {
				Name        string `json:"name"`
				ActiveDeals int    `json:"active_deals"`
				Deals       []struct {
					Status string `json:"status"`
				} `json:"deals"`
			} `json:"business"`
			IsOpen struct {
				Open    bool   `json:"open"`
				Because string `json:"because"`
			} `json:"isOpen"`
			Missing *struct{} `json:"missing"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	if result.Data.Business.Name != "Spa Hoa Sen" || result.Data.Business.ActiveDeals != 1 {
		t.Errorf("unexpected business: %+v", result.Data.Business)
	}
	if len(result.Data.Business.Deals) != 1 || result.Data.Business.Deals[0].Status != "Active" {
		t.Errorf("unexpected deals: %+v", result.Data.Business.Deals)
	}
	if !result.Data.IsOpen.Open || result.Data.IsOpen.Because != "Hàng ngày" {
		t.Errorf("unexpected open status: %+v", result.Data.IsOpen)
	}
	if result.Data.Missing != nil {
		t.Error("expected null for an unknown business")
	}
}

func TestGraphQL_BadBody(t *testing.T) {
	app := setupApp(makeDeps(fixtureProvider()))

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
