package http

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/filter"
	"github.com/samirrijal/diadiem/internal/core/ports"
	"github.com/samirrijal/diadiem/internal/pkg/geospatial"
)

const (
	maxPageSize    = 100
	maxKeywordLen  = 200
	maxNearRadiusM = 50000
	visitorHeader  = "X-Visitor-ID"
)

// queryValues returns the raw query string as url.Values, keeping repeated
// and empty keys the way the filter parser expects.
func queryValues(c *fiber.Ctx) url.Values {
	v, _ := url.ParseQuery(string(c.Request().URI().QueryString()))
	if v == nil {
		v = url.Values{}
	}
	return v
}

func paramID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

// ListBusinessesHandler serves the provider contract: one page of businesses
// matching search, category, city and district.
func ListBusinessesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}
		size := c.QueryInt("page_size", deps.Directory.PageSize())
		if size < 1 || size > maxPageSize {
			return errBadRequest(c, "page_size must be between 1 and 100")
		}
		search := strings.TrimSpace(c.Query("search"))
		if len(search) > maxKeywordLen {
			return errBadRequest(c, "search too long (max 200 characters)")
		}

		q := ports.ProviderQuery{
			Page:     page,
			PageSize: size,
			Search:   search,
			City:     strings.TrimSpace(c.Query("city")),
			District: strings.TrimSpace(c.Query("district")),
			Category: strings.TrimSpace(c.Query("category")),
		}
		res, err := deps.Directory.Provider().Query(c.UserContext(), q)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("provider query failed", "error", err)
			return errProvider(c, "business provider unavailable")
		}
		if res.Items == nil {
			res.Items = []domain.BusinessSummary{}
		}

		SetLinkHeaders(c, page, size, res.TotalCount)
		return c.JSON(res)
	}
}

// GetBusinessHandler returns one business with its open-now state.
func GetBusinessHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return errBadRequest(c, "id must be a positive integer")
		}
		b, err := deps.Directory.Business(c.UserContext(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "business not found")
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("get business failed", "business_id", id, "error", err)
			return errProvider(c, "business provider unavailable")
		}
		return c.JSON(b)
	}
}

// BusinessOpenHandler evaluates opening hours at ?at= (RFC 3339), or now.
func BusinessOpenHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return errBadRequest(c, "id must be a positive integer")
		}
		var at time.Time
		if raw := c.Query("at"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return errBadRequest(c, "at must be an RFC 3339 timestamp")
			}
			at = t
		}
		st, err := deps.Directory.IsOpen(c.UserContext(), id, at)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "business not found")
		}
		if err != nil {
			return errProvider(c, "business provider unavailable")
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(st)
	}
}

// SearchHandler runs the full search pipeline once for the filter keys in
// the query string. Map options: follow=true restricts the list to
// bbox=minLon,minLat,maxLon,maxLat, or to near=lat,lon with radius meters.
// A failing provider yields 200 with error set and an empty list.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := queryValues(c)
		st := filter.Parse(v)
		if len(st.Keyword) > maxKeywordLen {
			return errBadRequest(c, "keyword too long (max 200 characters)")
		}
		bounds := parseViewport(v)
		follow := v.Get("follow") == "true"

		snap := deps.Directory.Search(c.UserContext(), st, bounds, follow)
		SetLinkHeaders(c, st.Page, deps.Directory.PageSize(), snap.TotalCount)
		return c.JSON(snap)
	}
}

// parseViewport reads bbox or near/radius. Malformed values are ignored.
func parseViewport(v url.Values) *domain.Bounds {
	if raw := v.Get("bbox"); raw != "" {
		f, ok := parseFloats(raw, 4)
		if !ok {
			return nil
		}
		b := domain.Bounds{MinLon: f[0], MinLat: f[1], MaxLon: f[2], MaxLat: f[3]}
		if !b.Valid() {
			return nil
		}
		return &b
	}
	if raw := v.Get("near"); raw != "" {
		f, ok := parseFloats(raw, 2)
		if !ok {
			return nil
		}
		radius, err := strconv.ParseFloat(v.Get("radius"), 64)
		if err != nil || radius <= 0 || radius > maxNearRadiusM {
			radius = 1000
		}
		p := domain.GeoPoint{Lat: f[0], Lon: f[1]}
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			return nil
		}
		b := geospatial.BoundsAround(p, radius)
		return &b
	}
	return nil
}

func parseFloats(raw string, n int) ([]float64, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != n {
		return nil, false
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// CanonicalFiltersHandler returns the minimal query string for the given
// filter keys, with the parsed state and its tags.
func CanonicalFiltersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		st := filter.Parse(queryValues(c))
		tags := filter.Tags(st)
		if tags == nil {
			tags = []filter.Tag{}
		}
		return c.JSON(fiber.Map{
			"query": st.Encode(),
			"state": st,
			"tags":  tags,
		})
	}
}

// RecordViewHandler records a detail view for the visitor in X-Visitor-ID.
func RecordViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Recent == nil {
			return errUnavailable(c, "recently viewed is not configured")
		}
		id, ok := paramID(c)
		if !ok {
			return errBadRequest(c, "id must be a positive integer")
		}
		visitor := strings.TrimSpace(c.Get(visitorHeader))
		if visitor == "" {
			return errBadRequest(c, visitorHeader+" header is required")
		}
		err := deps.Recent.Record(c.UserContext(), visitor, id)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "business not found")
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("record view failed", "business_id", id, "error", err)
			return errInternal(c, "could not record view")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RecentHandler lists the visitor's recently viewed businesses. A visitor
// without history, or a server without a key-value store, gets an empty list.
func RecentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "private, no-store")
		visitor := strings.TrimSpace(c.Get(visitorHeader))
		if deps.Recent == nil || visitor == "" {
			return c.JSON([]domain.BusinessSummary{})
		}
		items, err := deps.Recent.List(c.UserContext(), visitor)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("list recent failed", "error", err)
			return errInternal(c, "could not load recently viewed")
		}
		return c.JSON(items)
	}
}
