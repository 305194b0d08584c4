package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthAbbr = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March, "Apr": time.April,
	"May": time.May, "Jun": time.June, "Jul": time.July, "Aug": time.August,
	"Sep": time.September, "Oct": time.October, "Nov": time.November, "Dec": time.December,
}

func isSeparator(r rune) bool {
	return r == ',' || r == ' ' || r == '\t' || r == ';'
}

// ParseMonth parses one month description. Items are separated by commas,
// spaces, tabs or semicolons: "N" marks day N as a holiday, "A-B" marks days A
// through B as holidays and "xN" marks day N as a working day.
func ParseMonth(desc string) (Month, error) {
	m := NewMonth()
	for _, item := range strings.FieldsFunc(desc, isSeparator) {
		switch {
		case strings.HasPrefix(item, "x"):
			day, err := parseDay(strings.TrimPrefix(item, "x"))
			if err != nil {
				return Month{}, fmt.Errorf("invalid workday %q: %w", item, err)
			}
			m.Workdays[day] = struct{}{}
		case strings.Contains(item, "-"):
			bounds := strings.Split(item, "-")
			if len(bounds) != 2 {
				return Month{}, fmt.Errorf("invalid holiday dates interval %q", item)
			}
			from, err := parseDay(bounds[0])
			if err != nil {
				return Month{}, fmt.Errorf("invalid holiday dates interval %q: %w", item, err)
			}
			to, err := parseDay(bounds[1])
			if err != nil {
				return Month{}, fmt.Errorf("invalid holiday dates interval %q: %w", item, err)
			}
			for day := from; day <= to; day++ {
				m.Holidays[day] = struct{}{}
			}
		default:
			day, err := parseDay(item)
			if err != nil {
				return Month{}, fmt.Errorf("invalid holiday %q: %w", item, err)
			}
			m.Holidays[day] = struct{}{}
		}
	}
	return m, nil
}

func parseDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if day < 1 || day > 31 {
		return 0, fmt.Errorf("day %d out of range", day)
	}
	return day, nil
}

// ParseYear parses month descriptions keyed by English month abbreviation
// (Jan, Feb, ...). Months without a description have no deviations.
func ParseYear(months map[string]string) ([12]Month, error) {
	var year [12]Month
	for i := range year {
		year[i] = NewMonth()
	}
	for name, desc := range months {
		month, ok := monthAbbr[name]
		if !ok {
			return year, fmt.Errorf("unknown month %q", name)
		}
		m, err := ParseMonth(desc)
		if err != nil {
			return year, fmt.Errorf("%s: %w", name, err)
		}
		year[month-1] = m
	}
	return year, nil
}
