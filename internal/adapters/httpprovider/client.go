// Package httpprovider consumes the provider contract of a running diadiem
// API (GET /v1/businesses) so remote clients can drive explore sessions.
package httpprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Client implements ports.BusinessProvider over HTTP.
type Client struct {
	base    string
	http    *fasthttp.Client
	timeout time.Duration
}

// New creates a client for the API rooted at baseURL (e.g. http://localhost:8080).
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse provider url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("provider url %q: scheme must be http or https", baseURL)
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			Name:                "diadiem-explore",
			MaxConnsPerHost:     16,
			ReadTimeout:         defaultTimeout,
			WriteTimeout:        defaultTimeout,
			MaxIdleConnDuration: time.Minute,
		},
		timeout: defaultTimeout,
	}, nil
}

// apiError mirrors the server's error envelope.
type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Query calls GET /v1/businesses.
func (c *Client) Query(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	for key, val := range map[string]string{
		"search":   q.Search,
		"city":     q.City,
		"district": q.District,
		"category": q.Category,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}

	var res ports.ProviderResult
	if err := c.get(ctx, "/v1/businesses?"+v.Encode(), &res); err != nil {
		return ports.ProviderResult{}, err
	}
	if res.Items == nil {
		res.Items = []domain.BusinessSummary{}
	}
	return res, nil
}

// GetByID calls GET /v1/businesses/:id.
func (c *Client) GetByID(ctx context.Context, id int64) (*domain.BusinessSummary, error) {
	var b domain.BusinessSummary
	if err := c.get(ctx, "/v1/businesses/"+strconv.FormatInt(id, 10), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}

	status := resp.StatusCode()
	if status == fasthttp.StatusNotFound {
		return domain.ErrNotFound
	}
	if status != fasthttp.StatusOK {
		var e apiError
		if json.Unmarshal(resp.Body(), &e) == nil && e.Message != "" {
			return fmt.Errorf("GET %s: %d %s: %s", path, status, e.Code, e.Message)
		}
		return fmt.Errorf("GET %s: unexpected status %d", path, status)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
