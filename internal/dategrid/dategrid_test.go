package dategrid

import (
	"testing"
	"time"
)

func TestRollingWindow_LeapBoundary(t *testing.T) {
	days, err := RollingWindow("2024-02-28", 2, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"2024-02-26", "2024-02-27", "2024-02-28", "2024-02-29",
		"2024-03-01", "2024-03-02", "2024-03-03",
	}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(days))
	}
	for i, d := range days {
		if d.ISO != want[i] {
			t.Errorf("day[%d]: expected %s, got %s", i, want[i], d.ISO)
		}
	}
	if days[2].ISO != "2024-02-28" {
		t.Errorf("reference date should sit at index before=2, got %s", days[2].ISO)
	}
}

func TestRollingWindow_ReferenceAtIndexBefore(t *testing.T) {
	cases := []struct {
		ref           string
		before, after int
	}{
		{"2024-01-01", 0, 0},
		{"2024-12-31", 3, 3},
		{"2023-03-10", 5, 0},
		{"2024-02-29", 0, 7},
	}
	for _, tc := range cases {
		days, err := RollingWindow(tc.ref, tc.before, tc.after)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.ref, err)
		}
		if len(days) != tc.before+tc.after+1 {
			t.Errorf("%s: expected length %d, got %d", tc.ref, tc.before+tc.after+1, len(days))
		}
		if days[tc.before].ISO != tc.ref {
			t.Errorf("%s: expected reference at index %d, got %s", tc.ref, tc.before, days[tc.before].ISO)
		}
		for i := 1; i < len(days); i++ {
			if days[i].ISO <= days[i-1].ISO {
				t.Errorf("%s: days not strictly ascending at %d: %s then %s", tc.ref, i, days[i-1].ISO, days[i].ISO)
			}
		}
	}
}

func TestRollingWindow_RejectsNegativeRange(t *testing.T) {
	if _, err := RollingWindow("2024-03-10", -1, 2); err == nil {
		t.Error("expected error for negative before")
	}
	if _, err := RollingWindow("2024-03-10", 2, -1); err == nil {
		t.Error("expected error for negative after")
	}
	if _, err := RollingWindow("not-a-date", 1, 1); err == nil {
		t.Error("expected error for malformed reference date")
	}
}

func TestWeekWindow_MondayToSunday(t *testing.T) {
	// 2024-03-13 is a Wednesday; its week is Mon 2024-03-11 .. Sun 2024-03-17.
	days, err := WeekWindow("2024-03-13")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	if days[0].ISO != "2024-03-11" || days[0].Weekday != "MON" {
		t.Errorf("expected week to start Monday 2024-03-11, got %s (%s)", days[0].ISO, days[0].Weekday)
	}
	if days[6].ISO != "2024-03-17" || days[6].Weekday != "SUN" {
		t.Errorf("expected week to end Sunday 2024-03-17, got %s (%s)", days[6].ISO, days[6].Weekday)
	}

	found := 0
	for _, d := range days {
		if d.ISO == "2024-03-13" {
			found++
		}
	}
	if found != 1 {
		t.Errorf("reference date should appear exactly once, found %d times", found)
	}
}

func TestWeekWindow_SundayBelongsToPrecedingWeek(t *testing.T) {
	// 2024-03-17 is a Sunday; it must be the LAST day of the week starting
	// Monday 2024-03-11, not the first day of the next week.
	days, err := WeekWindow("2024-03-17")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days[0].ISO != "2024-03-11" {
		t.Errorf("expected Monday 2024-03-11 first, got %s", days[0].ISO)
	}
	if days[6].ISO != "2024-03-17" {
		t.Errorf("expected Sunday 2024-03-17 last, got %s", days[6].ISO)
	}
}

func TestWeekWindow_AcrossYearBoundary(t *testing.T) {
	// 2024-01-01 is a Monday.
	days, err := WeekWindow("2024-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days[0].ISO != "2024-01-01" {
		t.Errorf("expected week to start 2024-01-01, got %s", days[0].ISO)
	}

	// 2023-12-31 is a Sunday: week is Mon 2023-12-25 .. Sun 2023-12-31.
	days, err = WeekWindow("2023-12-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days[0].ISO != "2023-12-25" || days[6].ISO != "2023-12-31" {
		t.Errorf("expected 2023-12-25..2023-12-31, got %s..%s", days[0].ISO, days[6].ISO)
	}
}

func TestMonthGrid_CoversAllDaysOnce(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		days  int
	}{
		{2024, time.February, 29}, // leap year
		{2023, time.February, 28},
		{2024, time.March, 31},
		{2024, time.December, 31},
	}

	for _, tc := range cases {
		grid, err := MonthGrid(tc.year, tc.month)
		if err != nil {
			t.Fatalf("%d-%d: unexpected error: %v", tc.year, tc.month, err)
		}

		seen := map[int]int{}
		for _, week := range grid {
			if len(week) != 7 {
				t.Errorf("%d-%d: week length %d, expected 7", tc.year, tc.month, len(week))
			}
			for _, cell := range week {
				if cell.InMonth {
					seen[cell.Day]++
					if cell.ISO == "" {
						t.Errorf("%d-%d: in-month cell %d has empty ISO", tc.year, tc.month, cell.Day)
					}
				} else if cell.ISO != "" || cell.Day != 0 {
					t.Errorf("%d-%d: padding cell carries data: %+v", tc.year, tc.month, cell)
				}
			}
		}

		if len(seen) != tc.days {
			t.Errorf("%d-%d: expected %d in-month days, got %d", tc.year, tc.month, tc.days, len(seen))
		}
		for d := 1; d <= tc.days; d++ {
			if seen[d] != 1 {
				t.Errorf("%d-%d: day %d appears %d times", tc.year, tc.month, d, seen[d])
			}
		}
	}
}

func TestMonthGrid_SundayFirstAlignment(t *testing.T) {
	// March 2024 starts on a Friday: 5 leading padding cells (Sun..Thu).
	grid, err := MonthGrid(2024, time.March)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstWeek := grid[0]
	for i := 0; i < 5; i++ {
		if firstWeek[i].InMonth {
			t.Errorf("cell %d of first week should be padding", i)
		}
	}
	if !firstWeek[5].InMonth || firstWeek[5].Day != 1 {
		t.Errorf("expected day 1 in Friday column, got %+v", firstWeek[5])
	}
}

func TestMonthGrid_RejectsInvalidMonth(t *testing.T) {
	if _, err := MonthGrid(2024, time.Month(0)); err == nil {
		t.Error("expected error for month 0")
	}
	if _, err := MonthGrid(2024, time.Month(13)); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestMonthTitle(t *testing.T) {
	if got := MonthTitle(2024, time.March); got != "March 2024" {
		t.Errorf("expected 'March 2024', got %q", got)
	}
}
