package sheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vlanse/plan-b/internal/layout"
)

// Workbook is an .xlsx document being built.
type Workbook struct {
	f      *excelize.File
	styles map[Style]int
	count  int
	err    error
}

// NewWorkbook creates an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{f: excelize.NewFile(), styles: make(map[Style]int)}
}

// AddSheet appends a worksheet. The first call renames the default sheet a
// new file starts with. Names are unique regardless of case.
func (w *Workbook) AddSheet(name string) (Sheet, error) {
	if w.count > 0 {
		if idx, err := w.f.GetSheetIndex(name); err == nil && idx >= 0 {
			return nil, fmt.Errorf("add sheet %q: %w", name, ErrDuplicateSheet)
		}
	}
	if w.count == 0 {
		if err := w.f.SetSheetName(w.f.GetSheetName(0), name); err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", name, err)
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return nil, fmt.Errorf("add sheet %q: %w", name, err)
	}
	w.count++
	return &excelSheet{book: w, name: name}, nil
}

// Hide makes a worksheet invisible in spreadsheet viewers.
func (w *Workbook) Hide(name string) error {
	if err := w.f.SetSheetVisible(name, false); err != nil {
		return fmt.Errorf("hide sheet %q: %w", name, err)
	}
	return nil
}

// Err returns the first write error.
func (w *Workbook) Err() error {
	return w.err
}

func (w *Workbook) fail(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Save writes the workbook to a temporary file next to path and renames it
// over path, so an existing file is replaced only by a complete one. The saved
// file keeps the mode of the file it replaces, or 0644 for a new one.
func (w *Workbook) Save(path string) error {
	if w.err != nil {
		return fmt.Errorf("build workbook: %w", w.err)
	}
	w.f.SetActiveSheet(0)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".planb-*.xlsx")
	if err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := w.f.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.f.Close()
}

func (w *Workbook) style(s Style) (int, error) {
	if id, ok := w.styles[s]; ok {
		return id, nil
	}
	id, err := w.f.NewStyle(toExcel(s))
	if err != nil {
		return 0, fmt.Errorf("new style: %w", err)
	}
	w.styles[s] = id
	return id, nil
}

func toExcel(s Style) *excelize.Style {
	out := &excelize.Style{}
	if s.Fill != "" {
		out.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.Fill}}
	}
	if s.Bold || s.FontColor != "" {
		out.Font = &excelize.Font{Bold: s.Bold, Color: s.FontColor}
	}
	if s.NumFmt != "" {
		numFmt := s.NumFmt
		out.CustomNumFmt = &numFmt
	}
	if s.Horizontal != "" || s.Vertical != "" || s.Wrap || s.Rotation != 0 {
		out.Alignment = &excelize.Alignment{
			Horizontal:   s.Horizontal,
			Vertical:     s.Vertical,
			WrapText:     s.Wrap,
			TextRotation: s.Rotation,
		}
	}
	for _, side := range []struct {
		bit  int
		name string
	}{{BorderLeft, "left"}, {BorderRight, "right"}, {BorderTop, "top"}, {BorderBottom, "bottom"}} {
		if s.Borders&side.bit != 0 {
			out.Border = append(out.Border, excelize.Border{Type: side.name, Color: "#000000", Style: 1})
		}
	}
	return out
}

type excelSheet struct {
	book *Workbook
	name string
}

func (s *excelSheet) Name() string { return s.name }

func (s *excelSheet) cell(row, col int) (string, bool) {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		s.book.fail(fmt.Errorf("sheet %q: %w", s.name, err))
		return "", false
	}
	return name, true
}

func (s *excelSheet) setStyle(first, last string, style Style) {
	if style == (Style{}) {
		return
	}
	id, err := s.book.style(style)
	if err != nil {
		s.book.fail(err)
		return
	}
	s.book.fail(s.book.f.SetCellStyle(s.name, first, last, id))
}

func (s *excelSheet) Write(row, col int, value any, style Style) {
	cell, ok := s.cell(row, col)
	if !ok {
		return
	}
	s.book.fail(s.book.f.SetCellValue(s.name, cell, value))
	s.setStyle(cell, cell, style)
}

func (s *excelSheet) WriteFormula(row, col int, formula string, style Style) {
	cell, ok := s.cell(row, col)
	if !ok {
		return
	}
	s.book.fail(s.book.f.SetCellFormula(s.name, cell, strings.TrimPrefix(formula, "=")))
	s.setStyle(cell, cell, style)
}

func (s *excelSheet) WriteURL(row, col int, url, text string, style Style) {
	cell, ok := s.cell(row, col)
	if !ok {
		return
	}
	s.book.fail(s.book.f.SetCellValue(s.name, cell, text))
	if url != "" {
		s.book.fail(s.book.f.SetCellHyperLink(s.name, cell, url, "External"))
	}
	s.setStyle(cell, cell, style)
}

func (s *excelSheet) MergeRange(first, last layout.Pos, value any, style Style) {
	a, ok := s.cell(first.Row, first.Column)
	if !ok {
		return
	}
	b, ok := s.cell(last.Row, last.Column)
	if !ok {
		return
	}
	if a != b {
		s.book.fail(s.book.f.MergeCell(s.name, a, b))
	}
	s.book.fail(s.book.f.SetCellValue(s.name, a, value))
	s.setStyle(a, b, style)
}

func (s *excelSheet) SetColumnWidth(first, last int, width float64) {
	a, err := excelize.ColumnNumberToName(first + 1)
	if err != nil {
		s.book.fail(err)
		return
	}
	b, err := excelize.ColumnNumberToName(last + 1)
	if err != nil {
		s.book.fail(err)
		return
	}
	s.book.fail(s.book.f.SetColWidth(s.name, a, b, width))
}
