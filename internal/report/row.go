package report

import (
	"fmt"

	"github.com/vlanse/plan-b/internal/layout"
	"github.com/vlanse/plan-b/internal/sheet"
)

// formula is a cell value written as a spreadsheet formula. Plain strings are
// always written literally, whatever they start with.
type formula string

func formulaf(format string, args ...any) formula {
	return formula(fmt.Sprintf(format, args...))
}

// cell is one value of a row being written.
type cell struct {
	value any
	style sheet.Style
	url   string
}

// writeRow writes cells left to right starting at at and returns the number
// of columns written.
func writeRow(s sheet.Sheet, at layout.Pos, cells []cell) int {
	for i, c := range cells {
		row, col := at.Row, at.Column+i
		if c.url != "" {
			s.WriteURL(row, col, c.url, fmt.Sprint(c.value), c.style)
			continue
		}
		if f, ok := c.value.(formula); ok {
			s.WriteFormula(row, col, string(f), c.style)
			continue
		}
		s.Write(row, col, c.value, c.style)
	}
	return len(cells)
}

// styled wraps plain values into cells sharing one style.
func styled(style sheet.Style, values ...any) []cell {
	out := make([]cell, len(values))
	for i, v := range values {
		out[i] = cell{value: v, style: style}
	}
	return out
}

// sumOrZero sums n cells of a row starting at column first; an empty span is 0.
func sumOrZero(row layout.Pos, first, n int) any {
	if n == 0 {
		return 0.0
	}
	return formula(layout.Sum(layout.Rel(row, 0, first), layout.Rel(row, 0, first+n-1)))
}
