package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box, usually the visible map viewport.
// MinLon > MaxLon means the box crosses the antimeridian.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Valid reports whether the latitudes are ordered and all values are in range.
func (b Bounds) Valid() bool {
	if b.MinLat > b.MaxLat {
		return false
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return false
	}
	return b.MinLon >= -180 && b.MinLon <= 180 && b.MaxLon >= -180 && b.MaxLon <= 180
}

// Center returns the midpoint of the box.
func (b Bounds) Center() GeoPoint {
	lon := (b.MinLon + b.MaxLon) / 2
	if b.MinLon > b.MaxLon {
		lon += 180
		if lon > 180 {
			lon -= 360
		}
	}
	return GeoPoint{Lat: (b.MinLat + b.MaxLat) / 2, Lon: lon}
}
