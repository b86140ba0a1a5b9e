// Package filter owns the search criteria and their address-bar form.
package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/samirrijal/diadiem/internal/core/domain"
)

// Query-string keys. They are part of shared links and must not change.
const (
	KeyKeyword  = "keyword"
	KeyCategory = "category"
	KeyCity     = "location"
	KeyDistrict = "district"
	KeySort     = "sort"
	KeyDeals    = "deals"
	KeyVerified = "verified"
	KeyOpen     = "open"
	KeyPage     = "page"
)

// State is an immutable snapshot of the search criteria.
type State struct {
	Keyword    string           `json:"keyword"`
	Category   string           `json:"category"`
	City       string           `json:"city"`
	District   string           `json:"district"`
	Sort       domain.SortOrder `json:"sort"`
	HasDeals   bool             `json:"has_deals"`
	IsVerified bool             `json:"is_verified"`
	IsOpenNow  bool             `json:"is_open_now"`
	Page       int              `json:"page"`
}

// Default returns the state of an empty address.
func Default() State {
	return State{Sort: domain.SortDefault, Page: 1}
}

// Parse hydrates a State from query parameters. Unknown or invalid values
// degrade to their defaults.
func Parse(v url.Values) State {
	s := Default()
	s.Keyword = strings.TrimSpace(v.Get(KeyKeyword))
	s.Category = strings.TrimSpace(v.Get(KeyCategory))
	s.City = strings.TrimSpace(v.Get(KeyCity))
	s.District = strings.TrimSpace(v.Get(KeyDistrict))
	s.Sort = domain.ParseSortOrder(v.Get(KeySort))
	s.HasDeals = v.Get(KeyDeals) == "true"
	s.IsVerified = v.Get(KeyVerified) == "true"
	s.IsOpenNow = v.Get(KeyOpen) == "true"
	if p, err := strconv.Atoi(v.Get(KeyPage)); err == nil && p > 0 {
		s.Page = p
	}
	return s.normalize()
}

// ParseQuery hydrates a State from a raw query string. A malformed string
// hydrates whatever pairs could be read.
func ParseQuery(raw string) State {
	v, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return Parse(v)
}

func (s State) normalize() State {
	if s.City == "" {
		s.District = ""
	}
	if s.Page < 1 {
		s.Page = 1
	}
	if s.Sort == "" {
		s.Sort = domain.SortDefault
	}
	return s
}

// Values returns the minimal query parameters: keys at their default are omitted.
func (s State) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set(KeyKeyword, s.Keyword)
	set(KeyCategory, s.Category)
	set(KeyCity, s.City)
	if s.City != "" {
		set(KeyDistrict, s.District)
	}
	if s.Sort != domain.SortDefault && s.Sort != "" {
		v.Set(KeySort, string(s.Sort))
	}
	if s.HasDeals {
		v.Set(KeyDeals, "true")
	}
	if s.IsVerified {
		v.Set(KeyVerified, "true")
	}
	if s.IsOpenNow {
		v.Set(KeyOpen, "true")
	}
	if s.Page > 1 {
		v.Set(KeyPage, strconv.Itoa(s.Page))
	}
	return v
}

// Encode serializes the state to its canonical minimal query string.
// Equal criteria always encode to the same string.
func (s State) Encode() string {
	return s.Values().Encode()
}

// Update is a partial change to a State. Nil fields are left as they are.
type Update struct {
	Keyword    *string
	Category   *string
	City       *string
	District   *string
	Sort       *domain.SortOrder
	HasDeals   *bool
	IsVerified *bool
	IsOpenNow  *bool
	Page       *int
}

func ptr[T any](v T) *T { return &v }

// Single-field update constructors.
func SetKeyword(k string) Update        { return Update{Keyword: ptr(k)} }
func SetCategory(c string) Update       { return Update{Category: ptr(c)} }
func SetCity(c string) Update           { return Update{City: ptr(c)} }
func SetDistrict(d string) Update       { return Update{District: ptr(d)} }
func SetSort(o domain.SortOrder) Update { return Update{Sort: ptr(o)} }
func SetHasDeals(b bool) Update         { return Update{HasDeals: ptr(b)} }
func SetVerified(b bool) Update         { return Update{IsVerified: ptr(b)} }
func SetOpenNow(b bool) Update          { return Update{IsOpenNow: ptr(b)} }
func SetPage(p int) Update              { return Update{Page: ptr(p)} }

// SetLocation sets city and district together.
func SetLocation(city, district string) Update {
	return Update{City: ptr(city), District: ptr(district)}
}

// Clear returns the update that resets the criterion stored under a
// query-string key. Unknown keys give an empty update.
func Clear(key string) Update {
	switch key {
	case KeyKeyword:
		return SetKeyword("")
	case KeyCategory:
		return SetCategory("")
	case KeyCity:
		return SetCity("")
	case KeyDistrict:
		return SetDistrict("")
	case KeySort:
		return SetSort(domain.SortDefault)
	case KeyDeals:
		return SetHasDeals(false)
	case KeyVerified:
		return SetVerified(false)
	case KeyOpen:
		return SetOpenNow(false)
	case KeyPage:
		return SetPage(1)
	}
	return Update{}
}

// Merge combines two updates; fields set in o win.
func (u Update) Merge(o Update) Update {
	if o.Keyword != nil {
		u.Keyword = o.Keyword
	}
	if o.Category != nil {
		u.Category = o.Category
	}
	if o.City != nil {
		u.City = o.City
	}
	if o.District != nil {
		u.District = o.District
	}
	if o.Sort != nil {
		u.Sort = o.Sort
	}
	if o.HasDeals != nil {
		u.HasDeals = o.HasDeals
	}
	if o.IsVerified != nil {
		u.IsVerified = o.IsVerified
	}
	if o.IsOpenNow != nil {
		u.IsOpenNow = o.IsOpenNow
	}
	if o.Page != nil {
		u.Page = o.Page
	}
	return u
}

// Apply merges u into s. The page resets to 1 unless u sets it. Clearing or
// changing the city drops a district the update does not set.
func (s State) Apply(u Update) State {
	next := s
	if u.Keyword != nil {
		next.Keyword = strings.TrimSpace(*u.Keyword)
	}
	if u.Category != nil {
		next.Category = strings.TrimSpace(*u.Category)
	}
	if u.City != nil {
		next.City = strings.TrimSpace(*u.City)
		if next.City != s.City && u.District == nil {
			next.District = ""
		}
	}
	if u.District != nil {
		next.District = strings.TrimSpace(*u.District)
	}
	if u.Sort != nil {
		next.Sort = domain.ParseSortOrder(string(*u.Sort))
	}
	if u.HasDeals != nil {
		next.HasDeals = *u.HasDeals
	}
	if u.IsVerified != nil {
		next.IsVerified = *u.IsVerified
	}
	if u.IsOpenNow != nil {
		next.IsOpenNow = *u.IsOpenNow
	}
	if u.Page != nil {
		next.Page = *u.Page
	} else {
		next.Page = 1
	}
	return next.normalize()
}

// ProviderKey identifies the part of the state the remote provider sees.
// States with equal keys return the same page from the provider.
func (s State) ProviderKey() string {
	v := url.Values{}
	v.Set(KeyKeyword, s.Keyword)
	v.Set(KeyCategory, s.Category)
	v.Set(KeyCity, s.City)
	v.Set(KeyDistrict, s.District)
	v.Set(KeyPage, strconv.Itoa(s.Page))
	return v.Encode()
}

// UpdateFromValues builds an update touching only the keys present in v.
// Values are read the same way Parse reads them.
func UpdateFromValues(v url.Values) Update {
	parsed := Parse(v)
	var u Update
	if _, ok := v[KeyKeyword]; ok {
		u.Keyword = ptr(parsed.Keyword)
	}
	if _, ok := v[KeyCategory]; ok {
		u.Category = ptr(parsed.Category)
	}
	if _, ok := v[KeyCity]; ok {
		u.City = ptr(strings.TrimSpace(v.Get(KeyCity)))
	}
	if _, ok := v[KeyDistrict]; ok {
		u.District = ptr(strings.TrimSpace(v.Get(KeyDistrict)))
	}
	if _, ok := v[KeySort]; ok {
		u.Sort = ptr(parsed.Sort)
	}
	if _, ok := v[KeyDeals]; ok {
		u.HasDeals = ptr(parsed.HasDeals)
	}
	if _, ok := v[KeyVerified]; ok {
		u.IsVerified = ptr(parsed.IsVerified)
	}
	if _, ok := v[KeyOpen]; ok {
		u.IsOpenNow = ptr(parsed.IsOpenNow)
	}
	if _, ok := v[KeyPage]; ok {
		u.Page = ptr(parsed.Page)
	}
	return u
}
