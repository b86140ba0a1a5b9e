package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by providers when a business does not exist.
var ErrNotFound = errors.New("not found")

// DealStatus is the lifecycle state of a deal.
type DealStatus string

const (
	DealActive    DealStatus = "Active"
	DealExpired   DealStatus = "Expired"
	DealScheduled DealStatus = "Scheduled"
)

// Valid reports whether s is one of the known statuses.
func (s DealStatus) Valid() bool {
	switch s {
	case DealActive, DealExpired, DealScheduled:
		return true
	}
	return false
}

// Deal is a promotion attached to a business.
type Deal struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	Status   DealStatus `json:"status"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

// OpeningHours maps a day-range label ("Thứ 2 - Thứ 6", "Chủ nhật", "Hàng ngày")
// to a "HH:MM - HH:MM" range or a closed marker.
type OpeningHours map[string]string

// BusinessSummary is a directory listing as returned by the data provider.
type BusinessSummary struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Address      string       `json:"address,omitempty"`
	Categories   []string     `json:"categories"`
	City         string       `json:"city,omitempty"`
	District     string       `json:"district,omitempty"`
	Location     *GeoPoint    `json:"location,omitempty"`
	Rating       float64      `json:"rating"` // mean of review ratings
	ReviewCount  int          `json:"review_count"`
	ViewCount    int          `json:"view_count"`
	Verified     bool         `json:"verified"`
	Featured     bool         `json:"featured"`
	OpeningHours OpeningHours `json:"opening_hours,omitempty"`
	Deals        []Deal       `json:"deals,omitempty"`
	JoinedAt     time.Time    `json:"joined_at"`
}

// EffectiveRating is the rating used for ordering; unreviewed businesses rank as 0.
func (b *BusinessSummary) EffectiveRating() float64 {
	if b.ReviewCount <= 0 {
		return 0
	}
	return b.Rating
}

// ActiveDeals counts deals currently in the Active state.
func (b *BusinessSummary) ActiveDeals() int {
	n := 0
	for _, d := range b.Deals {
		if d.Status == DealActive {
			n++
		}
	}
	return n
}

// HasCategory reports whether the business carries the exact tag.
func (b *BusinessSummary) HasCategory(tag string) bool {
	for _, c := range b.Categories {
		if c == tag {
			return true
		}
	}
	return false
}

// ResultPage is one page of provider results. A new page replaces the previous one.
type ResultPage struct {
	Items      []BusinessSummary `json:"items"`
	TotalCount int               `json:"total_count"`
	PageIndex  int               `json:"page_index"`
}

// SortOrder selects the ordering applied after local filtering.
type SortOrder string

const (
	SortDefault SortOrder = "default"
	SortRating  SortOrder = "rating"
	SortNewest  SortOrder = "newest"
	SortName    SortOrder = "name"
)

// ParseSortOrder returns the matching order, or SortDefault for unknown input.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortRating, SortNewest, SortName:
		return SortOrder(s)
	}
	return SortDefault
}

// DealTransition is a pending status change computed by the deal lifecycle.
type DealTransition struct {
	DealID     int64      `json:"deal_id"`
	BusinessID int64      `json:"business_id"`
	From       DealStatus `json:"from"`
	To         DealStatus `json:"to"`
}

// SearchEvent is published whenever a session or request queries the provider.
type SearchEvent struct {
	SessionID  string    `json:"session_id,omitempty"`
	Query      string    `json:"query"`
	TotalCount int       `json:"total_count"`
	Failed     bool      `json:"failed"`
	Time       time.Time `json:"time"`
}

// StatusAt returns the status the deal should have at now given its window.
// A deal with no window is always active.
func (d Deal) StatusAt(now time.Time) DealStatus {
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return DealScheduled
	}
	if d.EndsAt != nil && !now.Before(*d.EndsAt) {
		return DealExpired
	}
	return DealActive
}
