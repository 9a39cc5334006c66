// Package dategrid builds display-ready date sequences for the meal planner
// calendar. All functions are pure: the only time input is the reference date,
// which makes them testable without touching the wall clock.
package dategrid

import (
	"fmt"
	"time"
)

// ISOFormat is the calendar-date layout used everywhere in the planner.
// Dates are local-calendar days with no time-of-day or timezone component.
const ISOFormat = "2006-01-02"

var weekdayLabels = [7]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// DayItem is a single calendar cell for the Today/Week strips.
type DayItem struct {
	ISO     string // YYYY-MM-DD
	Weekday string // SUN..SAT
	Day     int    // day of month, 1..31
}

// MonthCell is a single month-grid cell. Padding cells outside the month have
// ISO == "" and Day == 0.
type MonthCell struct {
	ISO     string
	Day     int
	InMonth bool
}

// ParseISO parses a YYYY-MM-DD date. The returned time is midnight UTC; only
// the calendar components are ever used.
func ParseISO(iso string) (time.Time, error) {
	t, err := time.Parse(ISOFormat, iso)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ISO date %q: %w", iso, err)
	}
	return t, nil
}

// FormatISO renders the calendar date of t as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.Format(ISOFormat)
}

func dayItem(t time.Time) DayItem {
	return DayItem{
		ISO:     FormatISO(t),
		Weekday: weekdayLabels[int(t.Weekday())],
		Day:     t.Day(),
	}
}

// RollingWindow returns before+after+1 consecutive days such that `before`
// days precede the reference date and `after` days follow it. The reference
// day itself sits at index `before`. Correct across month and year boundaries
// (time.AddDate normalizes).
func RollingWindow(refISO string, before, after int) ([]DayItem, error) {
	if before < 0 || after < 0 {
		return nil, fmt.Errorf("rolling window: negative range (before=%d after=%d)", before, after)
	}
	base, err := ParseISO(refISO)
	if err != nil {
		return nil, err
	}

	out := make([]DayItem, 0, before+after+1)
	for i := -before; i <= after; i++ {
		out = append(out, dayItem(base.AddDate(0, 0, i)))
	}
	return out, nil
}

// WeekWindow returns the Monday-to-Sunday week containing the reference date.
// A Sunday reference is the last day of its week, so the window starts on the
// preceding Monday.
func WeekWindow(refISO string) ([]DayItem, error) {
	base, err := ParseISO(refISO)
	if err != nil {
		return nil, err
	}

	// time.Weekday: Sunday=0 .. Saturday=6.
	mondayOffset := 1 - int(base.Weekday())
	if base.Weekday() == time.Sunday {
		mondayOffset = -6
	}
	monday := base.AddDate(0, 0, mondayOffset)

	out := make([]DayItem, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, dayItem(monday.AddDate(0, 0, i)))
	}
	return out, nil
}

// MonthGrid returns the Sunday-first calendar grid for the given month as full
// weeks of 7 cells. Leading cells before day 1 and trailing cells after the
// last day are padding.
func MonthGrid(year int, month time.Month) ([][]MonthCell, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month grid: invalid month %d", month)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	cells := make([]MonthCell, 0, 42)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, MonthCell{})
	}
	for d := 1; d <= daysInMonth; d++ {
		cells = append(cells, MonthCell{
			ISO:     FormatISO(time.Date(year, month, d, 0, 0, 0, 0, time.UTC)),
			Day:     d,
			InMonth: true,
		})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, MonthCell{})
	}

	weeks := make([][]MonthCell, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks, nil
}

// WeekdayLabels returns the fixed Sunday-first weekday header labels.
func WeekdayLabels() [7]string {
	return weekdayLabels
}

// MonthTitle renders a month cursor as e.g. "March 2024".
func MonthTitle(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month.String(), year)
}
