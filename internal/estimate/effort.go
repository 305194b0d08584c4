package estimate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidEffort     = errors.New("invalid effort")
	ErrInvalidConfidence = errors.New("invalid confidence level")
)

// ParseEffort parses "<number><unit>" where unit is h (hours), d (8h workdays)
// or w (5-day workweeks). The result is truncated to whole seconds.
func ParseEffort(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidEffort)
	}

	var unit int64
	switch value[len(value)-1] {
	case 'h':
		unit = hourSeconds
	case 'd':
		unit = daySeconds
	case 'w':
		unit = weekSeconds
	default:
		return 0, fmt.Errorf("%w: %q must end with a unit, e.g. h, d or w", ErrInvalidEffort, value)
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(value[:len(value)-1]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidEffort, value, err)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %q is not a finite number", ErrInvalidEffort, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidEffort, value)
	}
	seconds := n * float64(unit)
	if seconds >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidEffort, value)
	}
	return int64(seconds), nil
}

// ParseConfidence maps hi/high, med/medium and lo/low to a level.
func ParseConfidence(value string) (ConfidenceLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "hi", "high":
		return High, nil
	case "med", "medium":
		return Medium, nil
	case "lo", "low":
		return Low, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidConfidence, value)
}
