package roundtrip

import (
	"strconv"
	"strings"
	"time"
)

// Kind tells what a recorded cell held.
type Kind int

const (
	Empty Kind = iota
	Number
	Text
	FormulaKind
)

// Value is the content of one allocation cell.
type Value struct {
	Kind   Kind
	Number float64
	// Text holds the text or, for formulas, the formula with its leading "=".
	Text string
}

// Num returns a numeric value.
func Num(v float64) Value { return Value{Kind: Number, Number: v} }

// Formula returns a formula value.
func Formula(f string) Value { return Value{Kind: FormulaKind, Text: f} }

// ParseValue interprets a raw cell string: blank is Empty, a number is
// Number, anything else is Text.
func ParseValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Value{}
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Num(n)
	}
	return Value{Kind: Text, Text: raw}
}

// MonthValue is the value planned for one month.
type MonthValue struct {
	Month time.Time
	Value Value
}

// ItemAllocation is what was planned for one item, with the coordinates it
// was recorded at.
type ItemAllocation struct {
	Name    string
	Row     int
	Column  int
	Rows    int
	Columns int
	Values  []MonthValue
}

// At returns the value of a month.
func (a *ItemAllocation) At(month time.Time) (Value, bool) {
	for _, mv := range a.Values {
		if mv.Month.Equal(month) {
			return mv.Value, true
		}
	}
	return Value{}, false
}

// TeamAllocation is the planned allocations of one team.
type TeamAllocation struct {
	Team  string
	Items []ItemAllocation
}

// Item returns the allocation of a named item, nil when absent.
func (t *TeamAllocation) Item(name string) *ItemAllocation {
	for i := range t.Items {
		if t.Items[i].Name == name {
			return &t.Items[i]
		}
	}
	return nil
}

// Edits is everything read back from a previous workbook.
type Edits struct {
	Start time.Time
	End   time.Time
	Teams []TeamAllocation
}

// Team returns the allocations of a named team, nil when absent.
func (e *Edits) Team(name string) *TeamAllocation {
	for i := range e.Teams {
		if e.Teams[i].Team == name {
			return &e.Teams[i]
		}
	}
	return nil
}
