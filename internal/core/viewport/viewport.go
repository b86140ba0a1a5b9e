// Package viewport narrows a result set to the visible map area.
package viewport

import (
	"github.com/paulmach/orb"

	"github.com/samirrijal/diadiem/internal/core/domain"
)

// Reconcile returns items unchanged when follow is off. With follow on it
// keeps only items whose location lies inside bounds; items without a
// location are dropped. If no bounds have been reported yet, every located
// item is kept. items is never modified.
func Reconcile(items []domain.BusinessSummary, bounds *domain.Bounds, follow bool) []domain.BusinessSummary {
	if !follow {
		return items
	}
	var boxes []orb.Bound
	if bounds != nil {
		boxes = Bounds(*bounds)
	}
	out := make([]domain.BusinessSummary, 0, len(items))
	for _, b := range items {
		if b.Location == nil {
			continue
		}
		if bounds != nil && !containsAny(boxes, Point(*b.Location)) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Point converts a GeoPoint to an orb point, which is [lon, lat].
func Point(p domain.GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Bounds converts b to one orb bound, or two when it crosses the antimeridian.
func Bounds(b domain.Bounds) []orb.Bound {
	if b.MinLon <= b.MaxLon {
		return []orb.Bound{{
			Min: orb.Point{b.MinLon, b.MinLat},
			Max: orb.Point{b.MaxLon, b.MaxLat},
		}}
	}
	return []orb.Bound{
		{Min: orb.Point{b.MinLon, b.MinLat}, Max: orb.Point{180, b.MaxLat}},
		{Min: orb.Point{-180, b.MinLat}, Max: orb.Point{b.MaxLon, b.MaxLat}},
	}
}

// Contains reports whether p lies inside b, edges included.
func Contains(b domain.Bounds, p domain.GeoPoint) bool {
	return containsAny(Bounds(b), Point(p))
}

func containsAny(boxes []orb.Bound, p orb.Point) bool {
	for _, box := range boxes {
		if box.Contains(p) {
			return true
		}
	}
	return false
}
