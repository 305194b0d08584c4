// Package estimate extracts structured work estimates from free-text tracker
// comments that start with the "#plan" marker.
package estimate

import "fmt"

// ConfidenceLevel is an uncertainty multiplier: the less confident, the larger.
type ConfidenceLevel float64

const (
	High   ConfidenceLevel = 1
	Medium ConfidenceLevel = 1.5
	Low    ConfidenceLevel = 2
)

func (l ConfidenceLevel) String() string {
	switch l {
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	}
	return fmt.Sprintf("%g", float64(l))
}

const (
	hourSeconds = 60 * 60
	daySeconds  = 8 * hourSeconds
	weekSeconds = 5 * daySeconds

	// ManWeekSeconds is five workdays of eight hours.
	ManWeekSeconds = weekSeconds
)

// SecondsToManWeeks converts an effort in seconds to man-weeks.
func SecondsToManWeeks(seconds int64) float64 {
	return float64(seconds) / ManWeekSeconds
}

// WorkEstimate is a bundle of optional figures for one (issue, team) pair.
// Nil means "not specified", which is different from zero.
type WorkEstimate struct {
	ReqsLevel   *ConfidenceLevel
	DesignLevel *ConfidenceLevel

	// Efforts in seconds.
	ArchDesign     *int64
	PerfDesign     *int64
	Implementation *int64
	Documentation  *int64
	QAEffort       *int64
}

// Seconds returns the value of an optional effort, zero when absent.
func Seconds(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// Level returns the value of an optional confidence level and whether it is set.
func Level(v *ConfidenceLevel) (ConfidenceLevel, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Completed returns the estimate left for finished work: confidence levels are
// carried over, every effort is zero.
func (e *WorkEstimate) Completed() *WorkEstimate {
	return &WorkEstimate{
		ReqsLevel:      e.ReqsLevel,
		DesignLevel:    e.DesignLevel,
		ArchDesign:     Ptr[int64](0),
		PerfDesign:     Ptr[int64](0),
		Implementation: Ptr[int64](0),
		Documentation:  Ptr[int64](0),
		QAEffort:       Ptr[int64](0),
	}
}
