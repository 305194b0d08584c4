// Package roundtrip carries values typed by hand into a generated workbook
// over to the next generation. The workbook records where every allocation
// row lives in a hidden "Meta" sheet; on the next run the recorded cells are
// read back and written into the new layout, matched by team, item and month.
package roundtrip

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vlanse/plan-b/internal/calendar"
	"github.com/vlanse/plan-b/internal/report"
	"github.com/vlanse/plan-b/internal/sheet"
)

// Header is the first cell of the Meta sheet. A different value means the
// workbook was written by an incompatible version or tampered with.
const Header = "CAPACITY PLAN METADATA v0.2 - DO NOT EDIT"

// SheetName is the name of the metadata sheet.
const SheetName = "Meta"

const isoDate = "2006-01-02"

const (
	tagPeriod   = "Period"
	tagCalendar = "Team calendars"
	tagTeam     = "Team"
	tagItem     = "Item"
)

var (
	ErrInvalidHeader = errors.New("invalid metadata header")
	ErrMissingSheet  = errors.New("missing sheet")
	ErrMalformed     = errors.New("malformed metadata")
)

// Save adds the Meta sheet describing l to book and returns it.
func Save(book sheet.Book, l *report.Layout) (sheet.Sheet, error) {
	s, err := book.AddSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("save metadata: %w", err)
	}
	write := func(row int, values ...any) {
		for c, v := range values {
			s.Write(row, c, v, sheet.Style{})
		}
	}
	write(0, Header)
	write(1, tagPeriod, l.Start.Format(isoDate), l.End.Format(isoDate))
	write(2, tagCalendar)
	row := 3
	for _, t := range l.Teams {
		write(row, tagTeam, t.Team.Name)
		row++
		for _, item := range t.Items {
			r := item.Region
			write(row, tagItem, item.Name, r.Offset.Row, r.Offset.Column, r.Rows, r.Columns)
			row++
		}
	}
	return s, nil
}

// Load reads the edits recorded in a previously generated workbook.
func Load(path string) (*Edits, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	edits, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return edits, nil
}

func load(f *excelize.File) (*Edits, error) {
	if idx, err := f.GetSheetIndex(SheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSheet, SheetName)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", SheetName, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 || rows[0][0] != Header {
		return nil, ErrInvalidHeader
	}

	edits := &Edits{}
	var months []time.Time
	inCalendars := false
	var current *TeamAllocation
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		line := i + 2
		switch row[0] {
		case tagPeriod:
			if len(row) < 3 {
				return nil, fmt.Errorf("%w: row %d: period needs start and end", ErrMalformed, line)
			}
			if edits.Start, err = time.Parse(isoDate, row[1]); err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, line, err)
			}
			if edits.End, err = time.Parse(isoDate, row[2]); err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, line, err)
			}
			months = calendar.MonthsRange(edits.Start, edits.End)
		case tagCalendar:
			inCalendars = true
		case tagTeam:
			if !inCalendars || len(row) < 2 {
				return nil, fmt.Errorf("%w: row %d: unexpected team", ErrMalformed, line)
			}
			if idx, err := f.GetSheetIndex(row[1]); err != nil || idx < 0 {
				return nil, fmt.Errorf("%w: %s", ErrMissingSheet, row[1])
			}
			edits.Teams = append(edits.Teams, TeamAllocation{Team: row[1]})
			current = &edits.Teams[len(edits.Teams)-1]
		case tagItem:
			if current == nil {
				return nil, fmt.Errorf("%w: row %d: item outside of a team", ErrMalformed, line)
			}
			item, err := readItem(f, current.Team, row, months)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, line, err)
			}
			current.Items = append(current.Items, item)
		}
	}
	return edits, nil
}

func readItem(f *excelize.File, sheetName string, row []string, months []time.Time) (ItemAllocation, error) {
	if len(row) < 6 {
		return ItemAllocation{}, fmt.Errorf("item needs 6 cells, got %d", len(row))
	}
	var coords [4]int
	for i := range coords {
		n, err := strconv.Atoi(strings.TrimSpace(row[2+i]))
		if err != nil {
			return ItemAllocation{}, fmt.Errorf("item %q: %w", row[1], err)
		}
		coords[i] = n
	}
	item := ItemAllocation{Name: row[1], Row: coords[0], Column: coords[1], Rows: coords[2], Columns: coords[3]}
	for c := 0; c < item.Columns && c < len(months); c++ {
		v, err := readValue(f, sheetName, item.Row, item.Column+c)
		if err != nil {
			return ItemAllocation{}, err
		}
		item.Values = append(item.Values, MonthValue{Month: months[c], Value: v})
	}
	return item, nil
}

func readValue(f *excelize.File, sheetName string, row, col int) (Value, error) {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return Value{}, err
	}
	formula, err := f.GetCellFormula(sheetName, cell)
	if err != nil {
		return Value{}, fmt.Errorf("read %s!%s: %w", sheetName, cell, err)
	}
	if formula != "" {
		return Formula("=" + strings.TrimPrefix(formula, "=")), nil
	}
	raw, err := f.GetCellValue(sheetName, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return Value{}, fmt.Errorf("read %s!%s: %w", sheetName, cell, err)
	}
	return ParseValue(raw), nil
}
