package capacity

import (
	"time"

	"github.com/vlanse/plan-b/internal/calendar"
	"github.com/vlanse/plan-b/internal/team"
)

const (
	// VacationShare of a team's yearly capacity is assumed spent on vacations.
	VacationShare = 5.0 / 12.0
	// SupportTasks is deducted from every month, in man-weeks.
	SupportTasks = 1.5
)

// Month is the capacity of one team in one calendar month.
type Month struct {
	Start        time.Time
	People       float64
	WorkingDays  int
	WorkingWeeks float64
	ManWeeks     float64
	Remaining    float64
}

// Available evaluates the team calendar rows for every month of the period.
// Vacations take VacationShare of a week per person per month.
func Available(tm team.Capability, start, end time.Time, prod calendar.Production) []Month {
	months := calendar.MonthsRange(start, end)
	days := calendar.Workdays(start, end, prod)
	out := make([]Month, len(months))
	for i, m := range months {
		people := tm.Efficiency(m)
		weeks := float64(days[i]) / 5
		out[i] = Month{
			Start:        m,
			People:       people,
			WorkingDays:  days[i],
			WorkingWeeks: weeks,
			ManWeeks:     people * weeks,
			Remaining:    people*weeks - people*VacationShare - SupportTasks,
		}
	}
	return out
}

// TotalRemaining sums the remaining capacity of every month.
func TotalRemaining(months []Month) float64 {
	var total float64
	for _, m := range months {
		total += m.Remaining
	}
	return total
}
