package sheet

import (
	"fmt"
	"strings"

	"github.com/vlanse/plan-b/internal/layout"
)

// Cell is what a Memory sheet recorded for one cell.
type Cell struct {
	Value   any
	Formula string
	URL     string
	Style   Style
}

// Memory is a Sheet that keeps cells in a map. It is used to inspect
// layouts without spreadsheet I/O.
type Memory struct {
	name   string
	Cells  map[layout.Pos]Cell
	Merges []layout.Region
	Widths map[int]float64
}

// NewMemory creates an empty in-memory sheet.
func NewMemory(name string) *Memory {
	return &Memory{name: name, Cells: make(map[layout.Pos]Cell), Widths: make(map[int]float64)}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Write(row, col int, value any, style Style) {
	m.Cells[layout.Pos{Row: row, Column: col}] = Cell{Value: value, Style: style}
}

func (m *Memory) WriteFormula(row, col int, formula string, style Style) {
	if !strings.HasPrefix(formula, "=") {
		formula = "=" + formula
	}
	m.Cells[layout.Pos{Row: row, Column: col}] = Cell{Formula: formula, Style: style}
}

func (m *Memory) WriteURL(row, col int, url, text string, style Style) {
	m.Cells[layout.Pos{Row: row, Column: col}] = Cell{Value: text, URL: url, Style: style}
}

func (m *Memory) MergeRange(first, last layout.Pos, value any, style Style) {
	m.Merges = append(m.Merges, layout.NewRegion(first.Local(), last.Row-first.Row+1, last.Column-first.Column+1))
	m.Cells[first.Local()] = Cell{Value: value, Style: style}
}

func (m *Memory) SetColumnWidth(first, last int, width float64) {
	for c := first; c <= last; c++ {
		m.Widths[c] = width
	}
}

// At returns the cell at row, col.
func (m *Memory) At(row, col int) (Cell, bool) {
	c, ok := m.Cells[layout.Pos{Row: row, Column: col}]
	return c, ok
}

// Text returns the formula of a cell, or its value formatted with %v.
// Empty cells yield "".
func (m *Memory) Text(row, col int) string {
	c, ok := m.At(row, col)
	if !ok {
		return ""
	}
	if c.Formula != "" {
		return c.Formula
	}
	if c.Value == nil {
		return ""
	}
	return fmt.Sprint(c.Value)
}

// MemoryBook is a Book of Memory sheets.
type MemoryBook struct {
	Sheets []*Memory
}

func (b *MemoryBook) AddSheet(name string) (Sheet, error) {
	for _, s := range b.Sheets {
		if strings.EqualFold(s.name, name) {
			return nil, fmt.Errorf("add sheet %q: %w", name, ErrDuplicateSheet)
		}
	}
	m := NewMemory(name)
	b.Sheets = append(b.Sheets, m)
	return m, nil
}

// Sheet returns the sheet with the given name, nil when absent.
func (b *MemoryBook) Sheet(name string) *Memory {
	for _, s := range b.Sheets {
		if s.name == name {
			return s
		}
	}
	return nil
}
