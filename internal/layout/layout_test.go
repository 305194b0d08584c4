package layout

import "testing"

func TestCell(t *testing.T) {
	tests := []struct {
		pos  Pos
		want string
	}{
		{Pos{}, "A1"},
		{Pos{Row: 9, Column: 2}, "C10"},
		{Pos{Row: 0, Column: 26}, "AA1"},
		{Pos{Row: 3, Column: 1, Sheet: "Release 1.0"}, "'Release 1.0'!B4"},
		{Pos{Row: 0, Column: 0, Sheet: "Bob's"}, "'Bob''s'!A1"},
		{Pos{Row: -1, Column: 0}, "#REF!"},
	}
	for _, tt := range tests {
		if got := tt.pos.Cell(); got != tt.want {
			t.Errorf("%+v.Cell() = %q, want %q", tt.pos, got, tt.want)
		}
	}
}

func TestRel(t *testing.T) {
	base := Pos{Row: 2, Column: 3, Sheet: "s"}
	got := Rel(base, 4, -1)
	if got != (Pos{Row: 6, Column: 2, Sheet: "s"}) {
		t.Errorf("Rel = %+v", got)
	}
	if Rel(Rel(base, 1, 1), -1, -1) != base {
		t.Error("Rel must compose")
	}
}

func TestRegionPosBelow(t *testing.T) {
	for _, cols := range []int{0, 1, 3, 50} {
		pos := Pos{Row: 7, Column: 4}
		got := NewRegion(pos, 5, cols).PosBelow()
		if got.Row != 12 || got.Column != 4 {
			t.Errorf("columns=%d: PosBelow = %+v, want row 12 col 4", cols, got)
		}
	}
}

func TestRegionLastAndContains(t *testing.T) {
	r := NewRegion(Pos{Row: 10, Column: 2}, 1, 12)
	if last := r.Last(); last.Row != 10 || last.Column != 13 {
		t.Errorf("Last = %+v", last)
	}
	if !r.Contains(Pos{Row: 10, Column: 13}) || r.Contains(Pos{Row: 10, Column: 14}) || r.Contains(Pos{Row: 11, Column: 2}) {
		t.Error("Contains is wrong")
	}
	if !NewRegion(Origin, 0, 3).Empty() || r.Empty() {
		t.Error("Empty is wrong")
	}
}

func TestSum(t *testing.T) {
	got := Sum(Pos{Row: 1, Column: 1, Sheet: "x"}, Pos{Row: 4, Column: 1, Sheet: "x"})
	if got != "=SUM('x'!B2:B5)" {
		t.Errorf("Sum = %q", got)
	}
}
