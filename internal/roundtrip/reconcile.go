package roundtrip

import (
	"github.com/vlanse/plan-b/internal/layout"
	"github.com/vlanse/plan-b/internal/report"
	"github.com/vlanse/plan-b/internal/sheet"
)

// Patch puts a recorded value into a cell of the new layout.
type Patch struct {
	Team  string
	Item  string
	Pos   layout.Pos
	Value Value
}

// Dropped is a recorded item the new layout has no place for.
type Dropped struct {
	Team string
	Item string
}

// Reconcile matches recorded allocations against a new layout by team,
// item name and month. Items absent from the new layout are returned as
// dropped; new items and blank recorded cells produce no patch.
func Reconcile(prev *Edits, l *report.Layout) ([]Patch, []Dropped) {
	if prev == nil {
		return nil, nil
	}
	var patches []Patch
	placed := make(map[[2]string]bool)
	for _, t := range l.Teams {
		recorded := prev.Team(t.Team.Name)
		if recorded == nil {
			continue
		}
		for _, item := range t.Items {
			old := recorded.Item(item.Name)
			if old == nil {
				continue
			}
			placed[[2]string{t.Team.Name, item.Name}] = true
			for i, month := range l.Months {
				if i >= item.Region.Columns {
					break
				}
				v, ok := old.At(month)
				if !ok || v.Kind == Empty {
					continue
				}
				patches = append(patches, Patch{
					Team:  t.Team.Name,
					Item:  item.Name,
					Pos:   layout.Rel(item.Region.Offset, 0, i),
					Value: v,
				})
			}
		}
	}

	var dropped []Dropped
	for _, t := range prev.Teams {
		for _, item := range t.Items {
			if !placed[[2]string{t.Team, item.Name}] {
				dropped = append(dropped, Dropped{Team: t.Team, Item: item.Name})
			}
		}
	}
	return patches, dropped
}

// Apply writes patches into the team sheets of l. Patches for unknown teams
// are skipped.
func Apply(l *report.Layout, patches []Patch) int {
	applied := 0
	for _, p := range patches {
		s := l.Sheet(p.Team)
		if s == nil {
			continue
		}
		switch p.Value.Kind {
		case Number:
			s.Write(p.Pos.Row, p.Pos.Column, p.Value.Number, sheet.Style{})
		case Text:
			s.Write(p.Pos.Row, p.Pos.Column, p.Value.Text, sheet.Style{})
		case FormulaKind:
			s.WriteFormula(p.Pos.Row, p.Pos.Column, p.Value.Text, sheet.Style{})
		default:
			continue
		}
		applied++
	}
	return applied
}
