// Package calendar models the production calendar: which days of a month are
// working days once public holidays and transferred workdays are applied.
package calendar

import "time"

// MonthFormat is the label layout used for month columns.
const MonthFormat = "Jan/2006"

// Month lists deviations from the regular Monday-Friday week for one month.
type Month struct {
	Holidays map[int]struct{}
	Workdays map[int]struct{}
}

// NewMonth returns a month without any deviations.
func NewMonth() Month {
	return Month{Holidays: map[int]struct{}{}, Workdays: map[int]struct{}{}}
}

// IsHoliday reports whether day is declared a holiday.
func (m Month) IsHoliday(day int) bool {
	_, ok := m.Holidays[day]
	return ok
}

// IsExtraWorkday reports whether day is declared a working day.
func (m Month) IsExtraWorkday(day int) bool {
	_, ok := m.Workdays[day]
	return ok
}

// Production maps a year to its twelve months, January first.
type Production map[int][12]Month

// Month returns the deviations for the given month. Years or months that are
// not described yield an empty month.
func (p Production) Month(year int, month time.Month) Month {
	months, ok := p[year]
	if !ok {
		return Month{}
	}
	return months[month-1]
}

// IsWorkday reports whether d is a working day.
func (p Production) IsWorkday(d time.Time) bool {
	m := p.Month(d.Year(), d.Month())
	if m.IsExtraWorkday(d.Day()) {
		return true
	}
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !m.IsHoliday(d.Day())
}

// Date builds a UTC midnight date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the clock part of t.
func Truncate(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// MonthsRange returns the first day of every month from start's month up to
// and including end's month.
func MonthsRange(start, end time.Time) []time.Time {
	end = Truncate(end)
	var months []time.Time
	for d := Date(start.Year(), start.Month(), 1); !d.After(end); d = d.AddDate(0, 1, 0) {
		months = append(months, d)
	}
	return months
}

// Workdays counts working days per month of MonthsRange(start, end). Days
// outside [start, end] are not counted, so the first and last months may be
// partial.
func Workdays(start, end time.Time, p Production) []int {
	start, end = Truncate(start), Truncate(end)
	months := MonthsRange(start, end)
	counts := make([]int, len(months))
	for i, first := range months {
		for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
			if d.Before(start) {
				continue
			}
			if d.After(end) {
				break
			}
			if p.IsWorkday(d) {
				counts[i]++
			}
		}
	}
	return counts
}
