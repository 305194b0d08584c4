// Package summary renders per-release demand against team capacity for the
// terminal, using the numeric capacity model instead of a workbook.
package summary

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vlanse/plan-b/internal/calendar"
	"github.com/vlanse/plan-b/internal/capacity"
	"github.com/vlanse/plan-b/internal/plan"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CCCCCC"))
	labelStyle    = lipgloss.NewStyle().PaddingRight(2)
	numberStyle   = lipgloss.NewStyle().Align(lipgloss.Right).PaddingLeft(2)
	surplusStyle  = numberStyle.Foreground(lipgloss.Color("#4CAF50"))
	deficitStyle  = numberStyle.Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	footnoteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// TeamBalance compares what a team has with what the releases ask of it.
type TeamBalance struct {
	Team      string
	Available float64
	// Demand per release, in plan order.
	Demand  []float64
	Balance float64
}

// Summary is the evaluated plan, in man-weeks.
type Summary struct {
	Start    time.Time
	End      time.Time
	Releases []capacity.ReleaseTotals
	Teams    []TeamBalance
}

// Build evaluates a fetched plan.
func Build(p *plan.Plan) *Summary {
	s := &Summary{Start: p.Start, End: p.End}
	for _, r := range p.Releases {
		s.Releases = append(s.Releases, capacity.EvaluateRelease(r, p.Teams))
	}
	for _, tm := range p.Teams {
		b := TeamBalance{
			Team:      tm.Name,
			Available: capacity.TotalRemaining(capacity.Available(tm, p.Start, p.End, p.Calendar)),
		}
		b.Balance = b.Available
		for _, rt := range s.Releases {
			d := rt.Demand[tm.Name]
			b.Demand = append(b.Demand, d)
			b.Balance -= d
		}
		s.Teams = append(s.Teams, b)
	}
	return s
}

type table struct {
	header []string
	rows   [][]string
	styles [][]lipgloss.Style
}

func (t *table) add(cells []string, styles []lipgloss.Style) {
	t.rows = append(t.rows, cells)
	t.styles = append(t.styles, styles)
}

func (t *table) render() string {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	var lines []string
	cells := make([]string, len(t.header))
	for i, h := range t.header {
		st := numberStyle
		if i == 0 {
			st = labelStyle
		}
		cells[i] = headerStyle.Inherit(st).Width(widths[i] + 2).Render(h)
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	for r, row := range t.rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = t.styles[r][i].Width(widths[i] + 2).Render(c)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(lines, "\n")
}

func number(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func bugs(counts map[string]int) string {
	if len(counts) == 0 {
		return "0"
	}
	names := make([]string, 0, len(counts))
	total := 0
	for name, n := range counts {
		names = append(names, name)
		total += n
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%d", name, counts[name]))
	}
	return fmt.Sprintf("%d (%s)", total, strings.Join(parts, " "))
}

// Render formats the summary as two tables: release totals and team balance.
func (s *Summary) Render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Capacity plan %s - %s",
		s.Start.Format(calendar.MonthFormat), s.End.Format(calendar.MonthFormat))))
	b.WriteString("\n\n")

	releases := &table{header: []string{"Release", "Issues", "Feature dev", "QA", "Total", "Known bugs"}}
	for _, rt := range s.Releases {
		releases.add(
			[]string{rt.Name, fmt.Sprint(rt.Issues), number(rt.FeatureDev), number(rt.QA), number(rt.FeatureTotal), bugs(rt.KnownBugs)},
			[]lipgloss.Style{labelStyle, numberStyle, numberStyle, numberStyle, numberStyle, numberStyle},
		)
	}
	b.WriteString(releases.render())
	b.WriteString("\n\n")

	header := []string{"Team", "Available"}
	for _, rt := range s.Releases {
		header = append(header, rt.Name)
	}
	header = append(header, "Balance")
	teams := &table{header: header}
	for _, tb := range s.Teams {
		cells := []string{tb.Team, number(tb.Available)}
		styles := []lipgloss.Style{labelStyle, numberStyle}
		for _, d := range tb.Demand {
			cells = append(cells, number(d))
			styles = append(styles, numberStyle)
		}
		balance := surplusStyle
		if tb.Balance < 0 {
			balance = deficitStyle
		}
		teams.add(append(cells, number(tb.Balance)), append(styles, balance))
	}
	b.WriteString(teams.render())
	b.WriteString("\n")
	b.WriteString(footnoteStyle.Render("man-weeks; available capacity excludes vacations and support tasks"))
	b.WriteString("\n")
	return b.String()
}
