package httpprovider_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samirrijal/diadiem/internal/adapters/httpprovider"
	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/ports"
)

func TestClient_Query(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/businesses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(ports.ProviderResult{
			Items:      []domain.BusinessSummary{{ID: 7, Name: "Spa Hoa Sen"}},
			TotalCount: 41,
		})
	}))
	defer srv.Close()

	c, err := httpprovider.New(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Query(context.Background(), ports.ProviderQuery{Page: 3, PageSize: 20, Search: "spa", City: "Hà Nội"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.TotalCount != 41 || len(res.Items) != 1 || res.Items[0].ID != 7 {
		t.Errorf("unexpected result %+v", res)
	}
	for _, want := range []string{"page=3", "page_size=20", "search=spa", "city=H%C3%A0+N%E1%BB%99i"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if strings.Contains(gotQuery, "district") || strings.Contains(gotQuery, "category") {
		t.Errorf("empty filters must be omitted: %q", gotQuery)
	}
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/404") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"status":502,"code":"provider_error","message":"database down"}`))
	}))
	defer srv.Close()

	c, _ := httpprovider.New(srv.URL)

	if _, err := c.GetByID(context.Background(), 404); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err := c.Query(context.Background(), ports.ProviderQuery{Page: 1})
	if err == nil || !strings.Contains(err.Error(), "database down") {
		t.Errorf("expected envelope message in error, got %v", err)
	}
}

func TestClient_CancelledContext(t *testing.T) {
	c, _ := httpprovider.New("http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Query(ctx, ports.ProviderQuery{Page: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNew_RejectsBadScheme(t *testing.T) {
	if _, err := httpprovider.New("ftp://example.com"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}
