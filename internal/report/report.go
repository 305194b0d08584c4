// Package report compiles a capacity plan into worksheets: one sheet per team
// with its capacity calendar, then one sheet per release with its issue
// tables. Derived numbers are written as formulas so the workbook stays live.
package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vlanse/plan-b/internal/layout"
	"github.com/vlanse/plan-b/internal/plan"
	"github.com/vlanse/plan-b/internal/sheet"
	"github.com/vlanse/plan-b/internal/team"
)

// TeamLayout is where the allocation rows of one team ended up.
type TeamLayout struct {
	Team  *team.Team
	Sheet sheet.Sheet
	Items []Item
}

// Layout is the coordinate map of a compiled plan.
type Layout struct {
	Start  time.Time
	End    time.Time
	Months []time.Time
	Teams  []TeamLayout
}

// Compile writes every sheet of the plan into book, in configuration order.
func Compile(book sheet.Book, f *sheet.Formats, p *plan.Plan, logger *slog.Logger) (*Layout, error) {
	if logger == nil {
		logger = slog.Default()
	}

	teamSheets := make([]sheet.Sheet, len(p.Teams))
	for i, tm := range p.Teams {
		s, err := book.AddSheet(tm.Name)
		if err != nil {
			return nil, fmt.Errorf("team %s: %w", tm.Name, err)
		}
		teamSheets[i] = s
	}
	releaseSheets := make([]sheet.Sheet, len(p.Releases))
	for i, r := range p.Releases {
		s, err := book.AddSheet(r.Name)
		if err != nil {
			return nil, fmt.Errorf("release %s: %w", r.Name, err)
		}
		releaseSheets[i] = s
	}

	refs := TeamRefs{}
	for i, r := range p.Releases {
		refs.merge(ReleaseSheet(releaseSheets[i], f, r, p.Teams))
		logger.Debug("release sheet compiled", "release", r.Name, "issues", len(r.Issues))
	}

	period := NewPeriod(p.Start, p.End, p.Calendar)
	out := &Layout{Start: p.Start, End: p.End, Months: period.Months}
	for i, tm := range p.Teams {
		items := TeamSheet(teamSheets[i], f, tm, period, uniqueTitles(refs[tm.Name]))
		out.Teams = append(out.Teams, TeamLayout{Team: tm, Sheet: teamSheets[i], Items: items})
		logger.Debug("team sheet compiled", "team", tm.Name, "items", len(items))
	}
	return out, nil
}

// uniqueTitles makes item titles unique within one team, since allocations
// are matched by title on the next run. Repeated titles get the source key
// appended, or a counter when that is not enough.
func uniqueTitles(refs []layout.CellReference) []layout.CellReference {
	seen := make(map[string]bool, len(refs))
	out := make([]layout.CellReference, len(refs))
	for i, r := range refs {
		title := r.Title
		if seen[title] && r.Key != "" {
			title = fmt.Sprintf("%s (%s)", r.Title, r.Key)
		}
		for n := 2; seen[title]; n++ {
			title = fmt.Sprintf("%s (%d)", r.Title, n)
		}
		seen[title] = true
		r.Title = title
		out[i] = r
	}
	return out
}

// Sheet returns the team sheet with the given name, nil when absent.
func (l *Layout) Sheet(teamName string) sheet.Sheet {
	for _, t := range l.Teams {
		if t.Team.Name == teamName {
			return t.Sheet
		}
	}
	return nil
}
