package report

import (
	"fmt"
	"time"

	"github.com/vlanse/plan-b/internal/calendar"
	"github.com/vlanse/plan-b/internal/capacity"
	"github.com/vlanse/plan-b/internal/layout"
	"github.com/vlanse/plan-b/internal/sheet"
	"github.com/vlanse/plan-b/internal/team"
)

// Calendar table rows, relative to its header.
const (
	rowPeople = iota + 1
	rowWorkingDays
	rowWorkingWeeks
	rowManWeeks
	rowVacations
	rowSupport
	rowRemaining
	rowFirstItem
)

const labelWidth = 15

// Item is one allocation row of a team calendar: the cells where the team's
// capacity for an item is planned, one per month.
type Item struct {
	Name   string
	Region layout.Region
}

// Period is the month range a team calendar covers.
type Period struct {
	Months   []time.Time
	Workdays []int
}

// NewPeriod evaluates the months and workday counts of [start, end].
func NewPeriod(start, end time.Time, prod calendar.Production) Period {
	return Period{Months: calendar.MonthsRange(start, end), Workdays: calendar.Workdays(start, end, prod)}
}

func monthHeader(s sheet.Sheet, f *sheet.Formats, at layout.Pos, title string, months []time.Time) {
	cells := []cell{{value: title, style: f.GreenHeader}}
	for _, m := range months {
		cells = append(cells, cell{value: m.Format(calendar.MonthFormat), style: f.GreenHeader})
	}
	writeRow(s, at, cells)
}

// peopleTable writes worker efficiencies per month with a total row.
func peopleTable(s sheet.Sheet, f *sheet.Formats, tm *team.Team, period Period, at layout.Pos) layout.Region {
	monthHeader(s, f, at, "People", period.Months)
	for i, w := range tm.Members {
		cells := []cell{{value: w.Name}}
		for _, m := range period.Months {
			cells = append(cells, cell{value: w.Efficiency(m), style: f.Numeric})
		}
		writeRow(s, layout.Rel(at, 1+i, 0), cells)
	}
	total := layout.Rel(at, 1+len(tm.Members), 0)
	cells := []cell{{value: "Total", style: f.BoldTotal}}
	for c := 1; c <= len(period.Months); c++ {
		var v any = 0.0
		if len(tm.Members) > 0 {
			v = formula(layout.Sum(layout.Rel(at, 1, c), layout.Rel(at, len(tm.Members), c)))
		}
		cells = append(cells, cell{value: v, style: f.BoldTotal})
	}
	writeRow(s, total, cells)
	return layout.NewRegion(at, 2+len(tm.Members), 1+len(period.Months))
}

// calendarTable writes the capacity rows, one allocation row per reference,
// the difference row and the needed/allocated summary. totals is the row
// of people totals the capacity rows are computed from.
func calendarTable(s sheet.Sheet, f *sheet.Formats, period Period, totals layout.Pos, refs []layout.CellReference, at layout.Pos) ([]Item, layout.Region) {
	months := len(period.Months)
	monthRow := func(row int, label string, labelStyle, style sheet.Style, value func(c int) any) {
		cells := []cell{{value: label, style: labelStyle}}
		for c := 1; c <= months; c++ {
			cells = append(cells, cell{value: value(c), style: style})
		}
		writeRow(s, layout.Rel(at, row, 0), cells)
	}
	ref := func(row, c int) string { return layout.Rel(at, row, c).Cell() }

	monthHeader(s, f, at, "", period.Months)
	monthRow(rowPeople, "People", sheet.Style{}, f.Numeric, func(c int) any {
		return formula("=" + layout.Rel(totals, 0, c).Cell())
	})
	monthRow(rowWorkingDays, "Working days", sheet.Style{}, sheet.Style{}, func(c int) any {
		return period.Workdays[c-1]
	})
	monthRow(rowWorkingWeeks, "Working weeks", sheet.Style{}, sheet.Style{}, func(c int) any {
		return formulaf("=%s/5", ref(rowWorkingDays, c))
	})
	monthRow(rowManWeeks, "Man * weeks", sheet.Style{}, f.Numeric, func(c int) any {
		return formulaf("=%s*%s", ref(rowPeople, c), ref(rowWorkingWeeks, c))
	})
	monthRow(rowVacations, "Vacations", sheet.Style{}, f.Numeric, func(c int) any {
		return formulaf("=%s*5/12", layout.Rel(totals, 0, c).Cell())
	})
	monthRow(rowSupport, "Support tasks", sheet.Style{}, f.Numeric, func(int) any {
		return capacity.SupportTasks
	})
	monthRow(rowRemaining, "Remaining", f.BoldTotal, f.BoldTotal, func(c int) any {
		return formulaf("=%s-%s-%s", ref(rowManWeeks, c), ref(rowVacations, c), ref(rowSupport, c))
	})
	s.SetColumnWidth(at.Column, at.Column, labelWidth)

	items := make([]Item, len(refs))
	for i, r := range refs {
		row := layout.Rel(at, rowFirstItem+i, 0)
		s.Write(row.Row, row.Column, r.Title, sheet.Style{})
		items[i] = Item{Name: r.Title, Region: layout.NewRegion(layout.Rel(row, 0, 1), 1, months)}
	}

	diff := rowFirstItem + len(refs)
	monthRow(diff, "Difference", f.BoldTotal, f.BoldTotal, func(c int) any {
		if len(refs) == 0 {
			return formula("=" + ref(rowRemaining, c))
		}
		return formulaf("=%s-SUM(%s)", ref(rowRemaining, c),
			layout.Range(layout.Rel(at, rowFirstItem, c), layout.Rel(at, diff-1, c)))
	})

	summary := layout.Rel(at, diff+2, 0)
	writeRow(s, summary, styled(f.GreenHeader, "Item", "Needed", "Allocated", "Diff"))
	for i, r := range refs {
		row := layout.Rel(summary, 1+i, 0)
		allocated := "0"
		if months > 0 {
			allocated = fmt.Sprintf("SUM(%s)", layout.Range(items[i].Region.Offset, items[i].Region.Last()))
		}
		writeRow(s, row, []cell{
			{value: r.Title},
			{value: formula("=" + r.Pos.Cell()), style: f.Numeric},
			{value: formula("=" + allocated), style: f.Numeric},
			{value: formulaf("=%s-%s", layout.Rel(row, 0, 2).Cell(), layout.Rel(row, 0, 1).Cell()), style: f.Numeric},
		})
	}
	return items, layout.NewRegion(at, diff+3+len(refs), max(1+months, 4))
}

// TeamSheet fills the calendar sheet of one team and returns its allocation
// rows in reference order.
func TeamSheet(s sheet.Sheet, f *sheet.Formats, tm *team.Team, period Period, refs []layout.CellReference) []Item {
	people := peopleTable(s, f, tm, period, layout.Origin)
	totals := layout.Rel(people.PosBelow(), -1, 0)
	items, _ := calendarTable(s, f, period, totals, refs, layout.Rel(people.PosBelow(), 1, 0))
	return items
}
