package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/ports"
	"github.com/samirrijal/diadiem/internal/pkg/metrics"
	"github.com/samirrijal/diadiem/internal/pkg/telemetry"
)

// generationKey is bumped whenever a business changes; cached pages carry
// the generation they were built under and age out on their own.
const generationKey = "search:generation"

// sharedQueryTimeout bounds a provider call shared by collapsed queries.
const sharedQueryTimeout = 15 * time.Second

// SearchService is a read-through cache in front of a BusinessProvider.
// It implements ports.BusinessProvider itself.
type SearchService struct {
	provider ports.BusinessProvider
	cache    ports.CacheService
	ttl      int
	group    singleflight.Group
}

// NewSearchService creates a new SearchService. cache may be nil.
func NewSearchService(provider ports.BusinessProvider, cache ports.CacheService, ttlSeconds int) *SearchService {
	if ttlSeconds <= 0 {
		ttlSeconds = 120
	}
	return &SearchService{provider: provider, cache: cache, ttl: ttlSeconds}
}

// Query returns one page of matches. Identical concurrent queries share a
// single provider call.
func (s *SearchService) Query(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "SearchService.Query")
	defer span.End()

	gen := s.generation(ctx)
	cacheKey := fmt.Sprintf("search:v%d:%s", gen, queryKey(q))
	span.SetAttributes(
		attribute.String(telemetry.AttrSearchQuery, q.Search),
		attribute.Int(telemetry.AttrSearchPage, q.Page),
		attribute.Int64(telemetry.AttrCacheGeneration, gen),
	)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var res ports.ProviderResult
			if err := json.Unmarshal(data, &res); err == nil {
				metrics.CacheHits.WithLabelValues("search").Inc()
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				return res, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("search").Inc()
	}

	ch := s.group.DoChan(cacheKey, func() (interface{}, error) {
		// the call is shared, so it outlives any one caller's cancellation
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedQueryTimeout)
		defer cancel()
		res, err := s.provider.Query(sctx, q)
		if err != nil {
			return ports.ProviderResult{}, err
		}
		if s.cache != nil {
			if data, err := json.Marshal(res); err == nil {
				_ = s.cache.Set(sctx, cacheKey, data, s.ttl)
			}
		}
		return res, nil
	})

	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		r.Err = ctx.Err()
	}
	if r.Err != nil {
		span.RecordError(r.Err)
		span.SetStatus(codes.Error, r.Err.Error())
		return ports.ProviderResult{}, r.Err
	}
	res := r.Val.(ports.ProviderResult)
	span.SetAttributes(attribute.Int(telemetry.AttrTotalCount, res.TotalCount))
	return res, nil
}

// GetByID returns a single business.
func (s *SearchService) GetByID(ctx context.Context, id int64) (*domain.BusinessSummary, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "SearchService.GetByID")
	defer span.End()
	span.SetAttributes(attribute.Int64(telemetry.AttrBusinessID, id))

	cacheKey := fmt.Sprintf("business:v%d:%d", s.generation(ctx), id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var b domain.BusinessSummary
			if err := json.Unmarshal(data, &b); err == nil {
				metrics.CacheHits.WithLabelValues("business").Inc()
				return &b, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("business").Inc()
	}

	b, err := s.provider.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(b); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.ttl)
		}
	}
	return b, nil
}

// Invalidate retires every cached page by moving to a new generation.
func (s *SearchService) Invalidate(ctx context.Context, businessID int64) error {
	if s.cache == nil {
		return nil
	}
	gen, err := s.cache.Incr(ctx, generationKey)
	if err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	slog.Debug("search cache invalidated", "business_id", businessID, "generation", gen)
	return nil
}

func (s *SearchService) generation(ctx context.Context) int64 {
	if s.cache == nil {
		return 0
	}
	data, err := s.cache.Get(ctx, generationKey)
	if err != nil {
		return 0
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0
	}
	return gen
}

func queryKey(q ports.ProviderQuery) string {
	v := url.Values{}
	v.Set("p", strconv.Itoa(q.Page))
	v.Set("n", strconv.Itoa(q.PageSize))
	v.Set("q", q.Search)
	v.Set("c", q.City)
	v.Set("d", q.District)
	v.Set("t", q.Category)
	return v.Encode()
}
