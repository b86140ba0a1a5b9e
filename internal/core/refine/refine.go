// Package refine filters and orders an already fetched page locally.
package refine

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/filter"
	"github.com/samirrijal/diadiem/internal/core/schedule"
)

// Options are the locally evaluated parts of the filter state.
type Options struct {
	HasDeals   bool
	IsVerified bool
	IsOpenNow  bool
	Sort       domain.SortOrder
}

// OptionsFrom extracts the local refinements from s.
func OptionsFrom(s filter.State) Options {
	return Options{HasDeals: s.HasDeals, IsVerified: s.IsVerified, IsOpenNow: s.IsOpenNow, Sort: s.Sort}
}

// Refiner applies deal, verification and open-now filters, then sorts.
type Refiner struct {
	Schedule schedule.Evaluator
	tag      language.Tag
}

// New returns a Refiner sorting names by the given BCP 47 locale
// (Vietnamese when empty or invalid).
func New(ev schedule.Evaluator, locale string) *Refiner {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.Vietnamese
	}
	return &Refiner{Schedule: ev, tag: tag}
}

// Apply returns a new slice; items is not modified. Applying it to its own
// output with the same options and instant yields the same result.
func (r *Refiner) Apply(items []domain.BusinessSummary, opt Options, now time.Time) []domain.BusinessSummary {
	out := make([]domain.BusinessSummary, 0, len(items))
	for i := range items {
		b := &items[i]
		if opt.HasDeals && b.ActiveDeals() == 0 {
			continue
		}
		if opt.IsVerified && !b.Verified {
			continue
		}
		if opt.IsOpenNow && !r.Schedule.IsOpen(b.OpeningHours, now) {
			continue
		}
		out = append(out, *b)
	}
	r.sort(out, opt.Sort)
	return out
}

func (r *Refiner) sort(items []domain.BusinessSummary, order domain.SortOrder) {
	switch order {
	case domain.SortRating:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].EffectiveRating() > items[j].EffectiveRating()
		})
	case domain.SortNewest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].JoinedAt.After(items[j].JoinedAt)
		})
	case domain.SortName:
		// collate.Collator is not safe for concurrent use
		c := collate.New(r.tag, collate.IgnoreCase)
		sort.SliceStable(items, func(i, j int) bool {
			return c.CompareString(items[i].Name, items[j].Name) < 0
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Featured != items[j].Featured {
				return items[i].Featured
			}
			return items[i].ID < items[j].ID
		})
	}
}
