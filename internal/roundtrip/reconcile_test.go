package roundtrip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlanse/plan-b/internal/calendar"
	"github.com/vlanse/plan-b/internal/layout"
	"github.com/vlanse/plan-b/internal/report"
	"github.com/vlanse/plan-b/internal/sheet"
	"github.com/vlanse/plan-b/internal/team"
)

func months(start time.Time, n int) []time.Time {
	return calendar.MonthsRange(start, start.AddDate(0, n-1, 0))
}

func recorded(teamName, item string, row, col int, ms []time.Time, values ...Value) TeamAllocation {
	a := ItemAllocation{Name: item, Row: row, Column: col, Rows: 1, Columns: len(values)}
	for i, v := range values {
		a.Values = append(a.Values, MonthValue{Month: ms[i], Value: v})
	}
	return TeamAllocation{Team: teamName, Items: []ItemAllocation{a}}
}

func newLayout(ms []time.Time, teams ...report.TeamLayout) *report.Layout {
	return &report.Layout{Start: ms[0], End: ms[len(ms)-1], Months: ms, Teams: teams}
}

func teamLayout(name string, items ...report.Item) (report.TeamLayout, *sheet.Memory) {
	m := sheet.NewMemory(name)
	return report.TeamLayout{Team: team.New(name, team.Development), Sheet: m, Items: items}, m
}

func TestReconcileMovedItem(t *testing.T) {
	ms := months(calendar.Date(2019, time.January, 1), 12)
	values := make([]Value, 12)
	for i := range values {
		values[i] = Num(float64(i + 1))
	}
	prev := &Edits{Start: ms[0], End: ms[11], Teams: []TeamAllocation{recorded("a", "ReleaseX", 10, 2, ms, values...)}}

	tl, mem := teamLayout("a",
		report.Item{Name: "New", Region: layout.NewRegion(layout.Pos{Row: 13, Column: 1}, 1, 12)},
		report.Item{Name: "ReleaseX", Region: layout.NewRegion(layout.Pos{Row: 14, Column: 1}, 1, 12)},
	)
	l := newLayout(ms, tl)

	patches, dropped := Reconcile(prev, l)
	assert.Empty(t, dropped)
	require.Len(t, patches, 12)
	assert.Equal(t, 12, Apply(l, patches))

	assert.Len(t, mem.Cells, 12, "values must land nowhere else")
	for i := 0; i < 12; i++ {
		c, ok := mem.At(14, 1+i)
		require.True(t, ok, "column %d", 1+i)
		assert.Equal(t, float64(i+1), c.Value)
	}
}

func TestReconcileDropped(t *testing.T) {
	ms := months(calendar.Date(2019, time.January, 1), 2)
	prev := &Edits{Teams: []TeamAllocation{
		recorded("a", "Old release", 10, 1, ms, Num(1), Num(2)),
		recorded("gone", "R1", 10, 1, ms, Num(1), Num(2)),
	}}
	tl, _ := teamLayout("a", report.Item{Name: "R1", Region: layout.NewRegion(layout.Pos{Row: 13, Column: 1}, 1, 2)})

	patches, dropped := Reconcile(prev, newLayout(ms, tl))
	assert.Empty(t, patches, "new items get no override")
	assert.ElementsMatch(t, []Dropped{{Team: "a", Item: "Old release"}, {Team: "gone", Item: "R1"}}, dropped)
}

func TestReconcileMatchesMonths(t *testing.T) {
	old := months(calendar.Date(2019, time.January, 1), 12)
	values := make([]Value, 12)
	for i := range values {
		values[i] = Num(float64(i + 1))
	}
	prev := &Edits{Teams: []TeamAllocation{recorded("a", "R1", 10, 1, old, values...)}}

	// July 2019 .. June 2020
	ms := months(calendar.Date(2019, time.July, 1), 12)
	tl, mem := teamLayout("a", report.Item{Name: "R1", Region: layout.NewRegion(layout.Pos{Row: 10, Column: 1}, 1, 12)})
	l := newLayout(ms, tl)

	patches, _ := Reconcile(prev, l)
	require.Len(t, patches, 6)
	Apply(l, patches)
	for i := 0; i < 6; i++ {
		assert.Equal(t, float64(7+i), mem.Cells[layout.Pos{Row: 10, Column: 1 + i}].Value)
	}
	_, ok := mem.At(10, 7)
	assert.False(t, ok)
}

func TestReconcileSkipsBlanksAndKeepsKinds(t *testing.T) {
	ms := months(calendar.Date(2019, time.January, 1), 3)
	prev := &Edits{Teams: []TeamAllocation{
		recorded("a", "R1", 10, 1, ms, Value{}, Formula("=B14*2"), ParseValue("later")),
	}}
	tl, mem := teamLayout("a", report.Item{Name: "R1", Region: layout.NewRegion(layout.Pos{Row: 5, Column: 1}, 1, 3)})
	l := newLayout(ms, tl)

	patches, _ := Reconcile(prev, l)
	require.Len(t, patches, 2)
	Apply(l, patches)
	assert.Equal(t, "=B14*2", mem.Text(5, 2))
	assert.Equal(t, "later", mem.Text(5, 3))
	_, ok := mem.At(5, 1)
	assert.False(t, ok)
}

func TestReconcileNoPrevious(t *testing.T) {
	ms := months(calendar.Date(2019, time.January, 1), 1)
	tl, _ := teamLayout("a")
	patches, dropped := Reconcile(nil, newLayout(ms, tl))
	assert.Nil(t, patches)
	assert.Nil(t, dropped)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, Value{}, ParseValue("  "))
	assert.Equal(t, Num(2.5), ParseValue("2.5"))
	assert.Equal(t, Value{Kind: Text, Text: "tbd"}, ParseValue("tbd"))
}
