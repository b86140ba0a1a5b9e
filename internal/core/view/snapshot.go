// Package view derives the render model shown by list, map and filter chips.
package view

import (
	"time"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/fetch"
	"github.com/samirrijal/diadiem/internal/core/filter"
	"github.com/samirrijal/diadiem/internal/core/schedule"
	"github.com/samirrijal/diadiem/internal/pkg/geospatial"
)

// Card is one list entry.
type Card struct {
	domain.BusinessSummary
	OpenNow     bool `json:"open_now"`
	ActiveDeals int  `json:"active_deals"`
	// DistanceM is the distance from the map centre, when bounds are known.
	DistanceM *float64 `json:"distance_m,omitempty"`
}

// Marker is one pin on the map.
type Marker struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Featured bool    `json:"featured"`
	OpenNow  bool    `json:"open_now"`
}

// Snapshot is everything a client needs to render the explore screen.
type Snapshot struct {
	Query      string         `json:"query"`
	State      filter.State   `json:"state"`
	Phase      fetch.Phase    `json:"phase"`
	Stalled    bool           `json:"stalled"`
	Error      string         `json:"error,omitempty"`
	Items      []Card         `json:"items"`
	Markers    []Marker       `json:"markers"`
	Tags       []filter.Tag   `json:"tags"`
	Pagination Pagination     `json:"pagination"`
	TotalCount int            `json:"total_count"`
	MapFollow  bool           `json:"map_follow"`
	Bounds     *domain.Bounds `json:"bounds,omitempty"`
}

// Input collects the session state a Snapshot is built from.
type Input struct {
	State     filter.State
	Phase     fetch.Phase
	Stalled   bool
	Err       error
	Page      domain.ResultPage
	Visible   []domain.BusinessSummary // refined and reconciled
	Bounds    *domain.Bounds
	MapFollow bool
	PageSize  int
	Now       time.Time
	Schedule  schedule.Evaluator
}

// Build derives a Snapshot.
func Build(in Input) Snapshot {
	s := Snapshot{
		Query:      in.State.Encode(),
		State:      in.State,
		Phase:      in.Phase,
		Stalled:    in.Stalled,
		Items:      make([]Card, 0, len(in.Visible)),
		Markers:    []Marker{},
		Tags:       filter.Tags(in.State),
		Pagination: Paginate(in.Page.TotalCount, in.State.Page, in.PageSize),
		TotalCount: in.Page.TotalCount,
		MapFollow:  in.MapFollow,
		Bounds:     in.Bounds,
	}
	if s.Tags == nil {
		s.Tags = []filter.Tag{}
	}
	if in.Err != nil {
		s.Error = in.Err.Error()
	}

	var center *domain.GeoPoint
	if in.Bounds != nil {
		c := in.Bounds.Center()
		center = &c
	}

	for _, b := range in.Visible {
		open := in.Schedule.IsOpen(b.OpeningHours, in.Now)
		card := Card{BusinessSummary: b, OpenNow: open, ActiveDeals: b.ActiveDeals()}
		if b.Location != nil {
			if center != nil {
				d := geospatial.Haversine(center.Lat, center.Lon, b.Location.Lat, b.Location.Lon)
				card.DistanceM = &d
			}
			s.Markers = append(s.Markers, Marker{
				ID:       b.ID,
				Name:     b.Name,
				Lat:      b.Location.Lat,
				Lon:      b.Location.Lon,
				Featured: b.Featured,
				OpenNow:  open,
			})
		}
		s.Items = append(s.Items, card)
	}
	return s
}
