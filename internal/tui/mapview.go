package tui

import (
	"math"
	"strings"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/view"
)

// Map glyphs, highest priority first when markers share a cell.
const (
	glyphSelected = '@'
	glyphFeatured = '*'
	glyphOpen     = 'o'
	glyphClosed   = '+'
	glyphEmpty    = ' '
)

// MapView plots markers on a character grid. Until the user zooms or pans
// it fits itself to whatever markers it was last given.
type MapView struct {
	width, height int
	bounds        domain.Bounds
	hasBounds     bool
	manual        bool
}

func NewMapView(width, height int) MapView {
	return MapView{width: width, height: height}
}

func (m *MapView) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Bounds returns the visible area and whether one is known yet.
func (m MapView) Bounds() (domain.Bounds, bool) {
	return m.bounds, m.hasBounds
}

// Manual reports whether the user has moved the map since the last reset.
func (m MapView) Manual() bool { return m.manual }

// Fit frames the markers with a small margin. It does nothing once the map
// is under manual control or when there is nothing to frame.
func (m *MapView) Fit(markers []view.Marker) {
	if m.manual || len(markers) == 0 {
		return
	}
	b := domain.Bounds{
		MinLat: markers[0].Lat, MaxLat: markers[0].Lat,
		MinLon: markers[0].Lon, MaxLon: markers[0].Lon,
	}
	for _, mk := range markers[1:] {
		b.MinLat = math.Min(b.MinLat, mk.Lat)
		b.MaxLat = math.Max(b.MaxLat, mk.Lat)
		b.MinLon = math.Min(b.MinLon, mk.Lon)
		b.MaxLon = math.Max(b.MaxLon, mk.Lon)
	}
	latPad := math.Max((b.MaxLat-b.MinLat)*0.1, 0.01)
	lonPad := math.Max((b.MaxLon-b.MinLon)*0.1, 0.01)
	b.MinLat = math.Max(b.MinLat-latPad, -90)
	b.MaxLat = math.Min(b.MaxLat+latPad, 90)
	b.MinLon = math.Max(b.MinLon-lonPad, -180)
	b.MaxLon = math.Min(b.MaxLon+lonPad, 180)
	m.bounds = b
	m.hasBounds = true
}

// Zoom scales the visible area around its centre; factor > 1 zooms in.
func (m *MapView) Zoom(factor float64) {
	if !m.hasBounds || factor <= 0 {
		return
	}
	c := m.bounds.Center()
	halfLat := m.latSpan() / 2 / factor
	halfLon := m.lonSpan() / 2 / factor
	m.setAround(c, halfLat, halfLon)
}

// Pan moves the view by a tenth of its span per step. dLat > 0 moves north,
// dLon > 0 moves east.
func (m *MapView) Pan(dLat, dLon int) {
	if !m.hasBounds {
		return
	}
	c := m.bounds.Center()
	c.Lat += float64(dLat) * m.latSpan() / 10
	c.Lon += float64(dLon) * m.lonSpan() / 10
	m.setAround(c, m.latSpan()/2, m.lonSpan()/2)
}

// Reset returns the map to auto-fit.
func (m *MapView) Reset() {
	m.manual = false
}

func (m *MapView) setAround(c domain.GeoPoint, halfLat, halfLon float64) {
	halfLat = math.Min(halfLat, 90)
	halfLon = math.Min(halfLon, 180)
	b := domain.Bounds{
		MinLat: math.Max(c.Lat-halfLat, -90),
		MaxLat: math.Min(c.Lat+halfLat, 90),
		MinLon: wrapLon(c.Lon - halfLon),
		MaxLon: wrapLon(c.Lon + halfLon),
	}
	if halfLon >= 180 {
		b.MinLon, b.MaxLon = -180, 180
	}
	m.bounds = b
	m.manual = true
}

func (m MapView) latSpan() float64 { return m.bounds.MaxLat - m.bounds.MinLat }

func (m MapView) lonSpan() float64 {
	span := m.bounds.MaxLon - m.bounds.MinLon
	if span < 0 {
		span += 360
	}
	return span
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

// cell projects a coordinate onto the grid. ok is false outside the bounds.
func (m MapView) cell(lat, lon float64) (x, y int, ok bool) {
	latSpan, lonSpan := m.latSpan(), m.lonSpan()
	if latSpan <= 0 || lonSpan <= 0 {
		return 0, 0, false
	}
	dLon := lon - m.bounds.MinLon
	if dLon < 0 {
		dLon += 360
	}
	if dLon > lonSpan || lat < m.bounds.MinLat || lat > m.bounds.MaxLat {
		return 0, 0, false
	}
	x = int(math.Round(dLon / lonSpan * float64(m.width-1)))
	y = int(math.Round((m.bounds.MaxLat - lat) / latSpan * float64(m.height-1)))
	return x, y, true
}

func glyphRank(r rune) int {
	switch r {
	case glyphSelected:
		return 4
	case glyphFeatured:
		return 3
	case glyphOpen:
		return 2
	case glyphClosed:
		return 1
	}
	return 0
}

// Render draws the markers. selected is the ID of the highlighted business,
// or 0 for none.
func (m MapView) Render(markers []view.Marker, selected int64) string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	grid := make([][]rune, m.height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(string(glyphEmpty), m.width))
	}
	if m.hasBounds {
		for _, mk := range markers {
			x, y, ok := m.cell(mk.Lat, mk.Lon)
			if !ok {
				continue
			}
			g := glyphClosed
			switch {
			case mk.ID == selected:
				g = glyphSelected
			case mk.Featured:
				g = glyphFeatured
			case mk.OpenNow:
				g = glyphOpen
			}
			if glyphRank(g) > glyphRank(grid[y][x]) {
				grid[y][x] = g
			}
		}
	}
	lines := make([]string, m.height)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}
