package schedule_test

import (
	"testing"
	"time"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/schedule"
)

// 2024-01-01 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.January, day, hour, minute, 0, 0, time.UTC)
}

func TestIsOpen_WeekdayRange(t *testing.T) {
	hours := domain.OpeningHours{"Thứ 2 - Thứ 6": "09:00 - 20:00"}

	if !schedule.IsOpen(hours, at(3, 10, 0)) {
		t.Error("expected open on Wednesday 10:00")
	}
	if schedule.IsOpen(hours, at(3, 21, 0)) {
		t.Error("expected closed on Wednesday 21:00")
	}
	if schedule.IsOpen(hours, at(7, 10, 0)) {
		t.Error("expected closed on Sunday")
	}
}

func TestIsOpen_HalfOpenInterval(t *testing.T) {
	hours := domain.OpeningHours{"Thứ 4": "09:00 - 20:00"}
	if !schedule.IsOpen(hours, at(3, 9, 0)) {
		t.Error("expected open at the opening minute")
	}
	if schedule.IsOpen(hours, at(3, 20, 0)) {
		t.Error("expected closed at the closing minute")
	}
	if !schedule.IsOpen(hours, at(3, 19, 59)) {
		t.Error("expected open one minute before closing")
	}
}

func TestIsOpen_EveryDayAndOverlap(t *testing.T) {
	hours := domain.OpeningHours{
		"Hàng ngày": "08:00 - 12:00",
		"Chủ nhật":  "14:00 - 18:00",
	}
	if !schedule.IsOpen(hours, at(7, 15, 0)) {
		t.Error("expected Sunday afternoon entry to match")
	}
	if !schedule.IsOpen(hours, at(2, 8, 30)) {
		t.Error("expected every-day entry to match on Tuesday")
	}
	if schedule.IsOpen(hours, at(2, 15, 0)) {
		t.Error("expected closed on Tuesday afternoon")
	}
}

func TestIsOpen_MalformedEntriesSkipped(t *testing.T) {
	hours := domain.OpeningHours{
		"Someday":       "09:00 - 17:00",
		"Thứ 2 - Thứ 9": "09:00 - 17:00",
		"Thứ 3":         "nine to five",
		"Thứ 5":         "25:00 - 26:00",
		"Thứ 6":         "Đóng cửa",
		"":              "09:00 - 17:00",
	}
	for day := 1; day <= 7; day++ {
		if schedule.IsOpen(hours, at(day, 10, 0)) {
			t.Errorf("expected closed on 2024-01-%02d with only malformed entries", day)
		}
	}
}

func TestIsOpen_EmptyAndReversedRanges(t *testing.T) {
	hours := domain.OpeningHours{
		"Thứ 2": "10:00 - 10:00",
		"Thứ 3": "22:00 - 02:00",
	}
	if schedule.IsOpen(hours, at(1, 10, 0)) {
		t.Error("expected equal start and end to be an empty range")
	}
	if schedule.IsOpen(hours, at(2, 23, 0)) {
		t.Error("expected reversed range to be skipped")
	}
	if schedule.IsOpen(hours, at(3, 1, 0)) {
		t.Error("expected no overnight carry-over")
	}
}

func TestIsOpen_MidnightEnd(t *testing.T) {
	hours := domain.OpeningHours{"Thứ 7": "18:00 - 24:00"}
	if !schedule.IsOpen(hours, at(6, 23, 59)) {
		t.Error("expected open until midnight")
	}
	if schedule.IsOpen(domain.OpeningHours{"Thứ 7": "24:00 - 24:00"}, at(6, 0, 0)) {
		t.Error("24:00 must not be accepted as a start time")
	}
}

func TestIsOpen_NilTable(t *testing.T) {
	if schedule.IsOpen(nil, at(1, 12, 0)) {
		t.Error("expected closed with no hours")
	}
}

func TestDays(t *testing.T) {
	cases := []struct {
		label string
		want  []time.Weekday
	}{
		{"Thứ 2", []time.Weekday{time.Monday}},
		{"chủ NHẬT", []time.Weekday{time.Sunday}},
		{"T2 - T4", []time.Weekday{time.Monday, time.Tuesday, time.Wednesday}},
		{"Thứ 7 – Thứ 2", []time.Weekday{time.Saturday, time.Sunday, time.Monday}},
		{"Mon - Fri", []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
		{"Thứ 2 - Chủ nhật", []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}},
	}
	for _, c := range cases {
		got, ok := schedule.Days(c.label)
		if !ok {
			t.Errorf("Days(%q) not recognised", c.label)
			continue
		}
		if len(got) != len(c.want) {
			t.Errorf("Days(%q) = %v, want %v", c.label, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("Days(%q) = %v, want %v", c.label, got, c.want)
				break
			}
		}
	}

	if days, ok := schedule.Days("Daily"); !ok || len(days) != 7 {
		t.Errorf("expected 7 days for Daily, got %v", days)
	}
}

func TestEvaluator_Location(t *testing.T) {
	ev := schedule.NewEvaluator("Asia/Ho_Chi_Minh")
	if ev.Location == nil {
		t.Skip("tzdata not available")
	}
	hours := domain.OpeningHours{"Thứ 2": "09:00 - 10:00"}
	// 02:30 UTC on Monday is 09:30 in Ho Chi Minh City.
	if !ev.IsOpen(hours, at(1, 2, 30)) {
		t.Error("expected open when evaluated in the business time zone")
	}
	if schedule.IsOpen(hours, at(1, 2, 30)) {
		t.Error("expected closed when evaluated in UTC")
	}
}

func TestEvaluator_UnknownZoneFallsBack(t *testing.T) {
	ev := schedule.NewEvaluator("Mars/Olympus")
	if ev.Location != nil {
		t.Error("expected nil location for unknown zone")
	}
}

func TestExplain(t *testing.T) {
	hours := domain.OpeningHours{
		"Thứ 2 - Thứ 6": "09:00 - 20:00",
		"Thứ 7":         "10:00 - 14:00",
	}
	if got := (schedule.Evaluator{}).Explain(hours, at(6, 11, 0)); got != "Thứ 7" {
		t.Errorf("expected Thứ 7, got %q", got)
	}
	if got := (schedule.Evaluator{}).Explain(hours, at(7, 11, 0)); got != "" {
		t.Errorf("expected empty label on Sunday, got %q", got)
	}
}
