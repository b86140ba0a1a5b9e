// Package schedule decides whether a business is open from its weekly
// opening-hours table.
//
// Labels name a single day ("Thứ 2", "Sunday"), an inclusive range
// ("Thứ 2 - Thứ 6") or every day ("Hàng ngày"). Values are "HH:MM - HH:MM".
// Entries that cannot be parsed are ignored, and ranges never wrap past
// midnight: "22:00 - 02:00" is treated as a misconfiguration.
package schedule

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/pkg/textfold"
)

// weekdays maps folded day names to weekdays.
var weekdays = map[string]time.Weekday{
	"thu 2": time.Monday, "thu hai": time.Monday, "t2": time.Monday,
	"thu 3": time.Tuesday, "thu ba": time.Tuesday, "t3": time.Tuesday,
	"thu 4": time.Wednesday, "thu tu": time.Wednesday, "t4": time.Wednesday,
	"thu 5": time.Thursday, "thu nam": time.Thursday, "t5": time.Thursday,
	"thu 6": time.Friday, "thu sau": time.Friday, "t6": time.Friday,
	"thu 7": time.Saturday, "thu bay": time.Saturday, "t7": time.Saturday,
	"chu nhat": time.Sunday, "cn": time.Sunday,

	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

var everyDay = map[string]bool{
	"hang ngay": true,
	"ca tuan":   true,
	"moi ngay":  true,
	"every day": true,
	"everyday":  true,
	"daily":     true,
}

const minutesPerDay = 24 * 60

// Days returns the weekdays a label denotes, or ok=false when it is not a
// recognised label.
func Days(label string) (days []time.Weekday, ok bool) {
	l := textfold.Fold(label)
	if l == "" {
		return nil, false
	}
	if everyDay[l] {
		return []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday}, true
	}
	if d, ok := weekdays[l]; ok {
		return []time.Weekday{d}, true
	}

	from, to, found := splitRange(l)
	if !found {
		return nil, false
	}
	start, ok1 := weekdays[from]
	end, ok2 := weekdays[to]
	if !ok1 || !ok2 {
		return nil, false
	}
	// Monday-first week order so "Thứ 2 - Chủ nhật" spans the whole week;
	// an end before the start wraps ("Thứ 7 - Thứ 2" is Sat, Sun, Mon).
	s, e := mondayIndex(start), mondayIndex(end)
	for i := s; ; i = (i + 1) % 7 {
		days = append(days, time.Weekday((i+1)%7))
		if i == e {
			break
		}
	}
	return days, true
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// splitRange splits "a - b" on a hyphen or en dash.
func splitRange(s string) (string, string, bool) {
	s = strings.ReplaceAll(s, "–", "-")
	a, b, found := strings.Cut(s, "-")
	if !found {
		return "", "", false
	}
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// ParseRange parses "HH:MM - HH:MM" into minutes since midnight.
// 24:00 is accepted only as the end.
func ParseRange(v string) (start, end int, ok bool) {
	a, b, found := splitRange(strings.TrimSpace(v))
	if !found {
		return 0, 0, false
	}
	start, ok = parseClock(a, false)
	if !ok {
		return 0, 0, false
	}
	end, ok = parseClock(b, true)
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

func parseClock(s string, allowMidnightEnd bool) (int, bool) {
	h, m, found := strings.Cut(s, ":")
	if !found || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, false
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 || hh < 0 {
		return 0, false
	}
	if hh == 24 && mm == 0 && allowMidnightEnd {
		return minutesPerDay, true
	}
	if hh > 23 {
		return 0, false
	}
	return hh*60 + mm, true
}

// Evaluator evaluates opening hours in a fixed time zone. A nil Location
// uses the zone of the timestamp.
type Evaluator struct {
	Location *time.Location
}

// NewEvaluator loads the named zone, falling back to the timestamp's zone
// when the name is empty or unknown.
func NewEvaluator(zone string) Evaluator {
	if zone == "" {
		return Evaluator{}
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Evaluator{}
	}
	return Evaluator{Location: loc}
}

// IsOpen reports whether any entry covering at's weekday contains at's minute.
func (e Evaluator) IsOpen(hours domain.OpeningHours, at time.Time) bool {
	return e.Explain(hours, at) != ""
}

// Explain returns the label of the first entry, in label order, that makes
// the business open at the given instant, or "" when it is closed.
func (e Evaluator) Explain(hours domain.OpeningHours, at time.Time) string {
	if len(hours) == 0 {
		return ""
	}
	if e.Location != nil {
		at = at.In(e.Location)
	}
	day := at.Weekday()
	minute := at.Hour()*60 + at.Minute()

	labels := make([]string, 0, len(hours))
	for l := range hours {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	for _, label := range labels {
		days, ok := Days(label)
		if !ok || !contains(days, day) {
			continue
		}
		start, end, ok := ParseRange(hours[label])
		if !ok || end <= start {
			continue
		}
		if minute >= start && minute < end {
			return label
		}
	}
	return ""
}

func contains(days []time.Weekday, d time.Weekday) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}

// IsOpen evaluates hours in at's own time zone.
func IsOpen(hours domain.OpeningHours, at time.Time) bool {
	return Evaluator{}.IsOpen(hours, at)
}
