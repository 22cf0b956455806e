// Package timeutil provides wall-clock and calendar helpers shared by the
// scheduling and reporting layers. Times of day are handled as "HH:MM"
// strings and dates as UTC-midnight time.Time values so month arithmetic is
// immune to local timezone shifts.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// ClockMinutes converts an "HH:MM" string into minutes since midnight.
// Malformed or empty input yields 0.
func ClockMinutes(clock string) int {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return h*60 + m
}

// FormatMinutes renders minutes since midnight as "HH:MM", normalising into
// the 24h range with modular arithmetic.
func FormatMinutes(minutes int) string {
	normalized := ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", normalized/60, normalized%60)
}

// Hours returns the decimal-hour span between two "HH:MM" values. Either
// side empty yields 0. The result is not clamped; callers guard against
// negative spans.
func Hours(startTime, endTime string) float64 {
	if startTime == "" || endTime == "" {
		return 0
	}
	return float64(ClockMinutes(endTime)-ClockMinutes(startTime)) / 60
}

// AddHours returns startTime advanced by the given decimal hours, wrapping
// at day boundaries.
func AddHours(startTime string, hours float64) string {
	minutesToAdd := int(hoursToMinutes(hours))
	return FormatMinutes(ClockMinutes(startTime) + minutesToAdd)
}

func hoursToMinutes(hours float64) float64 {
	minutes := hours * 60
	if minutes >= 0 {
		return float64(int(minutes + 0.5))
	}
	return float64(int(minutes - 0.5))
}

// Date builds a UTC-midnight timestamp for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the half-open [start, end) interval covering a month.
func MonthRange(year, month int) (time.Time, time.Time) {
	start := Date(year, time.Month(month), 1)
	return start, start.AddDate(0, 1, 0)
}

// MonthDays enumerates every calendar day of the month in ascending order.
func MonthDays(year, month int) []time.Time {
	start, end := MonthRange(year, month)
	days := make([]time.Time, 0, 31)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// WorkingDays enumerates the Monday-Friday days of the month in ascending
// order. Holiday exclusion is applied by callers.
func WorkingDays(year, month int) []time.Time {
	all := MonthDays(year, month)
	days := make([]time.Time, 0, len(all))
	for _, d := range all {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			days = append(days, d)
		}
	}
	return days
}

// WeekStart returns the Monday that begins the calendar week of the given
// day, at UTC midnight.
func WeekStart(day time.Time) time.Time {
	d := Date(day.Year(), day.Month(), day.Day())
	diff := int(d.Weekday()) - int(time.Monday)
	if diff < 0 {
		diff += 7
	}
	return d.AddDate(0, 0, -diff)
}

// DayKey formats a date as YYYY-MM-DD, the canonical per-day map key.
func DayKey(day time.Time) string {
	return day.UTC().Format("2006-01-02")
}

// FormatHours renders a decimal hour count the way the printed timesheet
// expects: "4h", "2:30h".
func FormatHours(hours float64) string {
	h := int(hours)
	m := int((hours-float64(h))*60 + 0.5)
	if m == 60 {
		h++
		m = 0
	}
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%d:%02dh", h, m)
}

// FormatInterval renders a start/end pair as "08:00-10:00".
func FormatInterval(startTime, endTime string) string {
	return startTime + "-" + endTime
}
