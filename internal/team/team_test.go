package team

import (
	"math"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testTeams() []*Team {
	return []*Team{
		New("a", Development, NewWorker("V.Ivanov", 0.5), NewWorker("P.Smirnov", 0.5)),
		New("b", Development, NewWorker("A.Petrov", 0.5), NewWorker("S.Kuznetsov", 0.5)),
	}
}

func TestMatchByWorkerName(t *testing.T) {
	teams := testTeams()
	tests := []struct {
		person string
		want   string
	}{
		{"Vasily.Ivanov", "a"},
		{"vasily.ivanov", "a"},
		{"S.Kuznetsov", "b"},
		{"ipetrov", "b"},
		{"Andrey Petrov", "b"},
		{"Mr.Coordinator", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.person, func(t *testing.T) {
			got := MatchByWorkerName(tt.person, teams)
			name := ""
			if got != nil {
				name = got.Name
			}
			if name != tt.want {
				t.Errorf("MatchByWorkerName(%q) = %q, want %q", tt.person, name, tt.want)
			}
		})
	}
}

func TestMatchPrefersFirstTeam(t *testing.T) {
	teams := []*Team{
		New("first", Development, NewWorker("A.Smith", 1)),
		New("second", Development, NewWorker("B.Smith", 1)),
	}
	if got := MatchByWorkerName("C.Smith", teams); got == nil || got.Name != "first" {
		t.Fatalf("expected first team, got %v", got)
	}
}

func TestConstantEfficiency(t *testing.T) {
	w := NewWorker("A.Petrov", 0.8)
	if got := w.Efficiency(date(2019, time.January, 1)); got != 0.8 {
		t.Errorf("Efficiency = %v, want 0.8", got)
	}
	if got := NewWorker("Over", 1.5).Efficiency(date(2019, time.January, 1)); got != 1 {
		t.Errorf("Efficiency should be capped at 1, got %v", got)
	}
}

func TestRampUpEfficiency(t *testing.T) {
	w := NewRampUpWorker("TBH 1", date(2019, time.January, 1))

	tests := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"before hire", date(2018, time.December, 1), 0},
		{"first day", date(2019, time.January, 1), 0.4},
		{"100 days", date(2019, time.April, 11), 0.55},
		{"capped", date(2020, time.January, 1), 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Efficiency(tt.at); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Efficiency(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestTeamEfficiencyAndRoles(t *testing.T) {
	qa := New("Core QA", QualityAssurance, NewWorker("B.Smithson", 0.5), NewWorker("A.Testerson", 0.25))
	if !qa.IsQA() || qa.IsDevelopment() {
		t.Fatal("expected QA team")
	}
	if got := qa.Efficiency(date(2019, time.May, 1)); got != 0.75 {
		t.Errorf("team efficiency = %v, want 0.75", got)
	}

	teams := append(testTeams(), qa)
	if got := Filter(teams, QualityAssurance); len(got) != 1 || got[0] != qa {
		t.Errorf("Filter(QA) = %v", got)
	}
	if got := Filter(teams, Development); len(got) != 2 {
		t.Errorf("Filter(Development) returned %d teams, want 2", len(got))
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		role, team string
		want       Role
		ok         bool
	}{
		{"", "Backend", Development, true},
		{"", "Core QA", QualityAssurance, true},
		{"dev", "QA tools", Development, true},
		{"qa", "Backend", QualityAssurance, true},
		{"ops", "Backend", Development, false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.role, tt.team)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRole(%q, %q) = %v, %v; want %v, %v", tt.role, tt.team, got, ok, tt.want, tt.ok)
		}
	}
}
