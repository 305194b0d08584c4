// Package sheet is the cell-level primitive the report is written through,
// with an excelize-backed workbook and an in-memory implementation.
package sheet

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vlanse/plan-b/internal/layout"
)

// ErrDuplicateSheet is returned when a book already has a sheet of that name.
var ErrDuplicateSheet = errors.New("sheet already exists")

// Sheet writes cells of one worksheet. Write errors are sticky: the first one
// is kept by the workbook and reported when it is saved.
type Sheet interface {
	Name() string
	// Write stores a literal value: string, number or nil to clear.
	Write(row, col int, value any, style Style)
	// WriteFormula stores a formula; the leading "=" is optional.
	WriteFormula(row, col int, formula string, style Style)
	WriteURL(row, col int, url, text string, style Style)
	MergeRange(first, last layout.Pos, value any, style Style)
	SetColumnWidth(first, last int, width float64)
}

// MaxNameLength is the longest worksheet name a spreadsheet accepts.
const MaxNameLength = 31

// CheckName reports whether name can be used as a worksheet name.
func CheckName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("sheet name is empty")
	case utf8.RuneCountInString(name) > MaxNameLength:
		return fmt.Errorf("sheet name %q is longer than %d characters", name, MaxNameLength)
	case strings.ContainsAny(name, `[]:*?/\`):
		return fmt.Errorf("sheet name %q contains one of []:*?/\\", name)
	case strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'"):
		return fmt.Errorf("sheet name %q starts or ends with an apostrophe", name)
	}
	return nil
}

// Book creates worksheets in order. Sheet names are unique regardless of case.
type Book interface {
	AddSheet(name string) (Sheet, error)
}

// Border sides.
const (
	BorderLeft = 1 << iota
	BorderRight
	BorderTop
	BorderBottom
)

// Style describes the look of a cell. The zero value is the default style.
type Style struct {
	Fill       string
	FontColor  string
	Bold       bool
	NumFmt     string
	Horizontal string
	Vertical   string
	Wrap       bool
	Rotation   int
	Borders    int
}

// WithBorders returns s with the given border sides added.
func (s Style) WithBorders(sides int) Style {
	s.Borders |= sides
	return s
}

const (
	headerFill = "#5E7E3F"
	white      = "#FFFFFF"
	oneDecimal = "0.0"
)

// Formats is the palette a compilation writes with. Create one per
// compilation with NewFormats and pass it to every table builder.
type Formats struct {
	GreenHeader          Style
	BoldTotal            Style
	CenteredHeader       Style
	CenteredHeaderBorder Style
	VerticalHeader       Style
	VerticalHeaderLeft   Style
	VerticalHeaderRight  Style
	Numeric              Style
	NumericLeft          Style
	NumericRight         Style
	ConfidenceHigh       Style
	ConfidenceMedium     Style
	ConfidenceLow        Style
}

// NewFormats returns the report palette.
func NewFormats() *Formats {
	centered := Style{Horizontal: "center", Vertical: "top", Wrap: true, Bold: true, Fill: headerFill, FontColor: white}
	vertical := Style{Horizontal: "left", Wrap: true, Bold: true, Fill: headerFill, FontColor: white, Rotation: 90}
	numeric := Style{NumFmt: oneDecimal}
	return &Formats{
		GreenHeader:          Style{Fill: headerFill, FontColor: white},
		BoldTotal:            Style{Bold: true, Fill: "#FFFF00", NumFmt: oneDecimal, Borders: BorderTop | BorderBottom},
		CenteredHeader:       centered,
		CenteredHeaderBorder: centered.WithBorders(BorderLeft | BorderRight),
		VerticalHeader:       vertical,
		VerticalHeaderLeft:   vertical.WithBorders(BorderLeft),
		VerticalHeaderRight:  vertical.WithBorders(BorderRight),
		Numeric:              numeric,
		NumericLeft:          numeric.WithBorders(BorderLeft),
		NumericRight:         numeric.WithBorders(BorderRight),
		ConfidenceHigh:       Style{Fill: "#CEEDD0", NumFmt: oneDecimal},
		ConfidenceMedium:     Style{Fill: "#FCEAA5", NumFmt: oneDecimal},
		ConfidenceLow:        Style{Fill: "#F7C9CF", NumFmt: oneDecimal},
	}
}

// Confidence picks the style of a confidence multiplier cell. Values other
// than the three levels (zero for QA-owned issues) get a plain numeric style.
func (f *Formats) Confidence(level float64, borders int) Style {
	var s Style
	switch {
	case level == 1:
		s = f.ConfidenceHigh
	case level > 1 && level <= 1.5:
		s = f.ConfidenceMedium
	case level > 1.5:
		s = f.ConfidenceLow
	default:
		s = f.Numeric
	}
	return s.WithBorders(borders)
}
