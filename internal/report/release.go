package report

import (
	"github.com/vlanse/plan-b/internal/capacity"
	"github.com/vlanse/plan-b/internal/layout"
	"github.com/vlanse/plan-b/internal/plan"
	"github.com/vlanse/plan-b/internal/sheet"
	"github.com/vlanse/plan-b/internal/team"
)

// Fixed columns of the development table.
const (
	colKey = iota
	colSummary
	colReqs
	colDesign
	colArch
	colImplFirst
)

// headerRows is the height of every table header.
const headerRows = 2

const verticalWidth = 5

// columns locates the team-dependent columns of the development table for
// dev development teams and qa QA teams.
type columns struct {
	dev, qa int
}

func (c columns) implTotal() int      { return colImplFirst + c.dev }
func (c columns) integration() int    { return c.implTotal() + 1 }
func (c columns) testAutomation() int { return c.implTotal() + 2 }
func (c columns) stabilization() int  { return c.implTotal() + 3 }
func (c columns) documentation() int  { return c.implTotal() + 4 }
func (c columns) perfFirst() int      { return c.implTotal() + 5 }
func (c columns) perfTotal() int      { return c.perfFirst() + c.dev }
func (c columns) allocFirst() int     { return c.perfTotal() + 1 }
func (c columns) featureDev() int     { return c.allocFirst() + c.dev }
func (c columns) qaFirst() int        { return c.featureDev() + 1 }
func (c columns) qaTotal() int        { return c.qaFirst() + c.qa }
func (c columns) featureTotal() int   { return c.qaTotal() + 1 }
func (c columns) count() int          { return c.featureTotal() + 1 }

// TeamRefs collects, per team name, the cells holding what the team is
// asked to deliver.
type TeamRefs map[string][]layout.CellReference

func (r TeamRefs) merge(other TeamRefs) {
	for name, refs := range other {
		r[name] = append(r[name], refs...)
	}
}

func teamHeaders(s sheet.Sheet, f *sheet.Formats, at layout.Pos, teams []*team.Team) {
	cells := make([]cell, 0, len(teams)+1)
	for i, t := range teams {
		style := f.VerticalHeader
		if i == 0 {
			style = f.VerticalHeaderLeft
		}
		cells = append(cells, cell{value: t.Name, style: style})
	}
	cells = append(cells, cell{value: "Total", style: f.VerticalHeaderRight})
	n := writeRow(s, at, cells)
	s.SetColumnWidth(at.Column, at.Column+n-1, verticalWidth)
}

func devHeader(s sheet.Sheet, f *sheet.Formats, cols columns, devTeams, qaTeams []*team.Team, at layout.Pos) layout.Region {
	span := func(first, last int, title string) {
		s.MergeRange(layout.Rel(at, 0, first), layout.Rel(at, 0, last), title, f.CenteredHeaderBorder)
	}
	tall := func(col int, title string, style sheet.Style) {
		s.MergeRange(layout.Rel(at, 0, col), layout.Rel(at, 1, col), title, style)
	}
	vertical := func(col int, title string) {
		tall(col, title, f.VerticalHeader)
		s.SetColumnWidth(at.Column+col, at.Column+col, verticalWidth)
	}

	tall(colKey, "Key", f.CenteredHeader)
	tall(colSummary, "Summary", f.CenteredHeader)
	span(colReqs, colDesign, "Confidence")
	vertical(colArch, "Arch design")
	span(colImplFirst, cols.implTotal(), "Impl & unit tests")
	vertical(cols.integration(), "Integration")
	vertical(cols.testAutomation(), "Test automation")
	vertical(cols.stabilization(), "Stabilization")
	vertical(cols.documentation(), "Documentation")
	span(cols.perfFirst(), cols.perfTotal(), "Perf engineering")
	span(cols.allocFirst(), cols.featureDev(), "Feature dev subtotal")
	span(cols.qaFirst(), cols.qaTotal(), "QA effort")
	tall(cols.featureTotal(), "Feature total", f.CenteredHeader)

	sub := layout.Rel(at, 1, 0)
	writeRow(s, layout.Rel(sub, 0, colReqs), []cell{
		{value: "Reqs", style: f.VerticalHeaderLeft},
		{value: "Design", style: f.VerticalHeaderRight},
	})
	s.SetColumnWidth(at.Column+colReqs, at.Column+colDesign, verticalWidth)
	teamHeaders(s, f, layout.Rel(sub, 0, colImplFirst), devTeams)
	teamHeaders(s, f, layout.Rel(sub, 0, cols.perfFirst()), devTeams)
	teamHeaders(s, f, layout.Rel(sub, 0, cols.allocFirst()), devTeams)
	teamHeaders(s, f, layout.Rel(sub, 0, cols.qaFirst()), qaTeams)

	return layout.NewRegion(at, headerRows, cols.count())
}

func firstStyle(i int, f *sheet.Formats) sheet.Style {
	if i == 0 {
		return f.NumericLeft
	}
	return f.Numeric
}

// devIssueCells builds one row of the development table. Derived columns
// are formulas over the row's own cells.
func devIssueCells(f *sheet.Formats, issue *plan.Issue, teams []*team.Team, cols columns, row layout.Pos) []cell {
	devTeams := team.Filter(teams, team.Development)
	qaTeams := team.Filter(teams, team.QualityAssurance)
	totals := capacity.Evaluate(issue, teams)
	at := func(col int) string { return layout.Rel(row, 0, col).Cell() }

	cells := []cell{
		{value: issue.Key, url: issue.URL},
		{value: issue.Summary},
		{value: totals.ReqsMultiplier, style: f.Confidence(totals.ReqsMultiplier, sheet.BorderLeft)},
		{value: totals.DesignMultiplier, style: f.Confidence(totals.DesignMultiplier, sheet.BorderRight)},
		{value: totals.ArchDesign, style: f.Numeric},
	}
	for i, t := range devTeams {
		cells = append(cells, cell{value: totals.Implementation[t.Name], style: firstStyle(i, f)})
	}
	cells = append(cells,
		cell{value: sumOrZero(row, colImplFirst, len(devTeams)), style: f.NumericRight},
		cell{value: formulaf("=%s*%g", at(cols.implTotal()), capacity.IntegrationShare), style: f.Numeric},
		cell{value: formulaf("=%s*%g", at(cols.implTotal()), capacity.TestAutomationShare), style: f.Numeric},
		cell{value: formulaf("=%s*%g", at(cols.implTotal()), capacity.StabilizationShare), style: f.Numeric},
		cell{value: totals.Documentation, style: f.Numeric},
	)
	for i, t := range devTeams {
		cells = append(cells, cell{value: totals.Perf[t.Name], style: firstStyle(i, f)})
	}
	cells = append(cells, cell{value: sumOrZero(row, cols.perfFirst(), len(devTeams)), style: f.NumericRight})
	for i := range devTeams {
		impl := at(cols.implTotal())
		cells = append(cells, cell{
			value: formulaf("=IF(%s<>0,%s*%s/%s,0)", impl, at(cols.featureDev()), at(colImplFirst+i), impl),
			style: firstStyle(i, f),
		})
	}
	cells = append(cells, cell{
		value: formulaf("=(%s+%s+%s+%s+%s+%s+%s)*%s*%s",
			at(colArch), at(cols.implTotal()), at(cols.integration()), at(cols.testAutomation()),
			at(cols.stabilization()), at(cols.documentation()), at(cols.perfTotal()),
			at(colReqs), at(colDesign)),
		style: f.NumericRight,
	})
	for i, t := range qaTeams {
		cells = append(cells, cell{value: totals.QA[t.Name], style: firstStyle(i, f)})
	}
	cells = append(cells,
		cell{value: sumOrZero(row, cols.qaFirst(), len(qaTeams)), style: f.NumericRight},
		cell{value: formulaf("=%s+%s", at(cols.featureDev()), at(cols.qaTotal())), style: f.Numeric},
	)
	return cells
}

// totalsRow writes a "Total" row under body summing every column from skip on.
func totalsRow(s sheet.Sheet, f *sheet.Formats, body layout.Region, skip int) {
	cells := make([]cell, body.Columns)
	for c := range cells {
		switch {
		case c == 0:
			cells[c] = cell{value: "Total", style: f.BoldTotal}
		case c >= skip:
			first := layout.Rel(body.Offset, 0, c)
			last := layout.Rel(body.Offset, body.Rows-1, c)
			cells[c] = cell{value: formula(layout.Sum(first, last)), style: f.BoldTotal}
		default:
			cells[c] = cell{value: "", style: f.BoldTotal}
		}
	}
	writeRow(s, body.PosBelow(), cells)
}

// devTable lays out the issues not owned by QA teams. It returns the region
// used and, for every team, a reference to its total on the release sheet.
func devTable(s sheet.Sheet, f *sheet.Formats, r *plan.Release, teams []*team.Team, at layout.Pos) (layout.Region, TeamRefs) {
	var issues []*plan.Issue
	for _, issue := range r.Issues {
		if !issue.OwnedByQA() {
			issues = append(issues, issue)
		}
	}
	if len(issues) == 0 {
		return layout.NewRegion(at, 1, 0), TeamRefs{}
	}

	devTeams := team.Filter(teams, team.Development)
	qaTeams := team.Filter(teams, team.QualityAssurance)
	cols := columns{dev: len(devTeams), qa: len(qaTeams)}

	header := devHeader(s, f, cols, devTeams, qaTeams, at)
	for i, issue := range issues {
		row := layout.Rel(header.PosBelow(), i, 0)
		writeRow(s, row, devIssueCells(f, issue, teams, cols, row))
	}
	body := layout.NewRegion(header.PosBelow(), len(issues), cols.count())
	totalsRow(s, f, body, colArch)

	total := body.PosBelow().On(r.Name)
	refs := TeamRefs{}
	for i, t := range devTeams {
		refs[t.Name] = []layout.CellReference{{Pos: layout.Rel(total, 0, cols.allocFirst()+i), Title: r.Name}}
	}
	for i, t := range qaTeams {
		refs[t.Name] = []layout.CellReference{{Pos: layout.Rel(total, 0, cols.qaFirst()+i), Title: r.Name + " checks"}}
	}
	return layout.NewRegion(at, headerRows+len(issues)+1, cols.count()), refs
}

// qaTable lays out the issues owned by QA teams. Every issue becomes an
// item of each QA team, referencing the team's effort cell of that issue.
func qaTable(s sheet.Sheet, f *sheet.Formats, r *plan.Release, teams []*team.Team, at layout.Pos) (layout.Region, TeamRefs) {
	var issues []*plan.Issue
	for _, issue := range r.Issues {
		if issue.OwnedByQA() {
			issues = append(issues, issue)
		}
	}
	if len(issues) == 0 {
		return layout.NewRegion(at, 1, 0), TeamRefs{}
	}
	qaTeams := team.Filter(teams, team.QualityAssurance)
	const qaFirst = 2
	width := qaFirst + len(qaTeams) + 1

	s.MergeRange(layout.Rel(at, 0, colKey), layout.Rel(at, 1, colKey), "Key", f.CenteredHeader)
	s.MergeRange(layout.Rel(at, 0, colSummary), layout.Rel(at, 1, colSummary), "Summary", f.CenteredHeader)
	s.MergeRange(layout.Rel(at, 0, qaFirst), layout.Rel(at, 0, qaFirst+len(qaTeams)), "QA effort", f.CenteredHeaderBorder)
	teamHeaders(s, f, layout.Rel(at, 1, qaFirst), qaTeams)
	header := layout.NewRegion(at, headerRows, width)

	refs := TeamRefs{}
	for i, issue := range issues {
		row := layout.Rel(header.PosBelow(), i, 0)
		totals := capacity.Evaluate(issue, teams)
		cells := []cell{{value: issue.Key, url: issue.URL}, {value: issue.Summary}}
		for j, t := range qaTeams {
			cells = append(cells, cell{value: totals.QA[t.Name], style: firstStyle(j, f)})
			refs[t.Name] = append(refs[t.Name], layout.CellReference{
				Pos:   layout.Rel(row, 0, qaFirst+j).On(r.Name),
				Title: issue.Summary,
				Key:   issue.Key,
			})
		}
		cells = append(cells, cell{value: sumOrZero(row, qaFirst, len(qaTeams)), style: f.NumericRight})
		writeRow(s, row, cells)
	}
	body := layout.NewRegion(header.PosBelow(), len(issues), width)
	totalsRow(s, f, body, qaFirst)
	return layout.NewRegion(at, headerRows+len(issues)+1, width), refs
}

// ReleaseSheet fills the sheet of one release: the development table with
// the QA table two rows below it.
func ReleaseSheet(s sheet.Sheet, f *sheet.Formats, r *plan.Release, teams []*team.Team) TeamRefs {
	dev, refs := devTable(s, f, r, teams, layout.Origin)
	_, qaRefs := qaTable(s, f, r, teams, layout.Rel(dev.PosBelow(), 2, 0))
	refs.merge(qaRefs)

	if len(r.Issues) > 0 {
		keyWidth, summaryWidth := 0, 10
		for _, issue := range r.Issues {
			keyWidth = max(keyWidth, len(issue.Key))
			summaryWidth = max(summaryWidth, int(float64(len(issue.Summary))*0.75))
		}
		s.SetColumnWidth(colSummary, colSummary, float64(summaryWidth))
		s.SetColumnWidth(colKey, colKey, float64(keyWidth))
	}
	return refs
}
