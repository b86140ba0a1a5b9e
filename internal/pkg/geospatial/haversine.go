package geospatial

import (
	"math"

	"github.com/samirrijal/diadiem/internal/core/domain"
)

const earthRadiusM = 6371000.0

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundsAround returns the box of roughly radiusMeters around p, clamped to
// valid latitudes and wrapped across the antimeridian.
func BoundsAround(p domain.GeoPoint, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / 111320.0
	cos := math.Cos(toRad(p.Lat))
	lonDelta := 180.0
	if cos > 1e-9 {
		lonDelta = math.Min(180, radiusMeters/(111320.0*cos))
	}

	b := domain.Bounds{
		MinLat: math.Max(-90, p.Lat-latDelta),
		MaxLat: math.Min(90, p.Lat+latDelta),
		MinLon: wrapLon(p.Lon - lonDelta),
		MaxLon: wrapLon(p.Lon + lonDelta),
	}
	if lonDelta >= 180 {
		b.MinLon, b.MaxLon = -180, 180
	}
	return b
}

func wrapLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
