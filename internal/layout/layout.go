// Package layout is the coordinate algebra used to place tables on a sheet.
// Positions are zero-based. Layouts are built only by offsetting a base
// position; a builder takes an anchor and returns the Region it consumed.
package layout

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Pos addresses one cell, optionally qualified by a sheet name for
// cross-sheet references.
type Pos struct {
	Row    int
	Column int
	Sheet  string
}

// Origin is the top-left cell of a sheet.
var Origin = Pos{}

// Rel returns the position dRow rows and dCol columns away from base, on the
// same sheet.
func Rel(base Pos, dRow, dCol int) Pos {
	return Pos{Row: base.Row + dRow, Column: base.Column + dCol, Sheet: base.Sheet}
}

// On returns the same cell qualified by a sheet name.
func (p Pos) On(sheet string) Pos {
	p.Sheet = sheet
	return p
}

// Local drops the sheet qualifier.
func (p Pos) Local() Pos {
	p.Sheet = ""
	return p
}

// Cell renders the position as an A1 reference, prefixed with 'Sheet'! when
// qualified.
func (p Pos) Cell() string {
	name, err := excelize.CoordinatesToCellName(p.Column+1, p.Row+1)
	if err != nil {
		return "#REF!"
	}
	if p.Sheet == "" {
		return name
	}
	return quoteSheet(p.Sheet) + "!" + name
}

func (p Pos) String() string {
	return p.Cell()
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// Range renders "first:last". The sheet qualifier, if any, is taken from first.
func Range(first, last Pos) string {
	return first.Cell() + ":" + last.Local().Cell()
}

// Sum renders a SUM formula over the range first:last.
func Sum(first, last Pos) string {
	return fmt.Sprintf("=SUM(%s)", Range(first, last))
}

// Region is a rectangular block of cells.
type Region struct {
	Offset  Pos
	Rows    int
	Columns int
}

// NewRegion creates a region.
func NewRegion(offset Pos, rows, columns int) Region {
	return Region{Offset: offset, Rows: rows, Columns: columns}
}

// PosBelow is the first cell of the row right under the region, in the
// region's first column.
func (r Region) PosBelow() Pos {
	return Rel(r.Offset, r.Rows, 0)
}

// Last is the bottom-right cell of the region.
func (r Region) Last() Pos {
	return Rel(r.Offset, r.Rows-1, r.Columns-1)
}

// Empty reports whether the region covers no cell.
func (r Region) Empty() bool {
	return r.Rows <= 0 || r.Columns <= 0
}

// Contains reports whether p lies within the region. Sheet qualifiers are ignored.
func (r Region) Contains(p Pos) bool {
	return p.Row >= r.Offset.Row && p.Row < r.Offset.Row+r.Rows &&
		p.Column >= r.Offset.Column && p.Column < r.Offset.Column+r.Columns
}

// CellReference is a position with a human-readable title, used by one table
// to refer to another table's totals.
type CellReference struct {
	Pos   Pos
	Title string
	// Key identifies the source row when Title is not unique, e.g. an issue key.
	Key string
}
