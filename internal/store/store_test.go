package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vlanse/plan-b/internal/calendar"
	"github.com/vlanse/plan-b/internal/estimate"
	"github.com/vlanse/plan-b/internal/plan"
	"github.com/vlanse/plan-b/internal/team"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testTeams() []*team.Team {
	return []*team.Team{
		team.New("a", team.Development, team.NewWorker("V.Ivanov", 1)),
		team.New("qa", team.QualityAssurance, team.NewWorker("Q.Tester", 1)),
	}
}

func testPlan(teams []*team.Team) *plan.Plan {
	return &plan.Plan{
		Start: calendar.Date(2019, time.January, 1),
		End:   calendar.Date(2019, time.June, 30),
		Teams: teams,
		Releases: []*plan.Release{{
			Name:  "R1",
			Query: "fixVersion = R1",
			Issues: []*plan.Issue{
				plan.NewIssue("A-1", "Feature", "http://jira/browse/A-1", "Open", teams[0], map[string]*estimate.WorkEstimate{
					"a":  {ReqsLevel: estimate.Ptr(estimate.Medium), Implementation: estimate.Ptr[int64](144000)},
					"qa": {QAEffort: estimate.Ptr[int64](28800)},
				}),
				plan.NewIssue("A-2", "Finished", "http://jira/browse/A-2", "Done", nil, map[string]*estimate.WorkEstimate{
					"": {Documentation: estimate.Ptr[int64](3600)},
				}),
			},
			KnownBugs: map[string]int{"a": 4},
		}},
	}
}

func TestOpenAndSchema(t *testing.T) {
	s := tempStore(t)
	for _, table := range []string{"runs", "releases", "issues", "issue_estimates", "known_bugs"} {
		var name string
		err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrateAddsOwner(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE issues (run_id TEXT NOT NULL, release TEXT NOT NULL, position INTEGER NOT NULL,
		issue_key TEXT NOT NULL, summary TEXT NOT NULL DEFAULT '', url TEXT NOT NULL DEFAULT '', status TEXT NOT NULL DEFAULT '')`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('issues') WHERE name = 'owner'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Error("owner column was not added")
	}
}

func TestLatestRunEmpty(t *testing.T) {
	s := tempStore(t)
	if _, err := s.LatestRun(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
	if _, err := s.Replay(context.Background(), nil); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
}

func TestRecordAndReplay(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	teams := testTeams()

	if err := s.RecordSnapshot(ctx, "run-1", testPlan(teams)); err != nil {
		t.Fatalf("RecordSnapshot failed: %v", err)
	}
	second := testPlan(teams)
	second.Releases[0].KnownBugs["a"] = 7
	if err := s.RecordSnapshot(ctx, "run-2", second); err != nil {
		t.Fatalf("RecordSnapshot failed: %v", err)
	}

	run, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if run.ID != "run-2" || run.PeriodStart != "2019-01-01" || run.PeriodEnd != "2019-06-30" || run.Releases != 1 {
		t.Errorf("unexpected run %+v", run)
	}

	replay, err := s.Replay(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	issues, bugs, err := replay.Fetch(ctx, "fixVersion = R1", teams)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if bugs["a"] != 7 {
		t.Errorf("bugs = %v, want a=7", bugs)
	}
	if len(issues) != 2 || issues[0].Key != "A-1" || issues[1].Key != "A-2" {
		t.Fatalf("unexpected issues %+v", issues)
	}

	first := issues[0]
	if first.Owner != teams[0] || first.URL != "http://jira/browse/A-1" {
		t.Errorf("unexpected issue %+v", first)
	}
	a := first.Original["a"]
	if a.ReqsLevel == nil || *a.ReqsLevel != estimate.Medium || a.DesignLevel != nil {
		t.Errorf("levels not restored: %+v", a)
	}
	if estimate.Seconds(a.Implementation) != 144000 || a.ArchDesign != nil {
		t.Errorf("efforts not restored: %+v", a)
	}
	if estimate.Seconds(first.Original["qa"].QAEffort) != 28800 {
		t.Error("qa estimate not restored")
	}

	done := issues[1]
	if done.Owner != nil {
		t.Error("unowned issue got an owner")
	}
	if got := done.Remaining[""].Documentation; got == nil || *got != 0 {
		t.Errorf("finished issue remaining = %v, want 0", got)
	}
}

func TestReplayUnknownQuery(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	if err := s.RecordSnapshot(ctx, "run-1", testPlan(testTeams())); err != nil {
		t.Fatal(err)
	}
	replay, err := s.Replay(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := replay.Fetch(ctx, "fixVersion = R9", testTeams()); err == nil {
		t.Fatal("expected error for a query that was never recorded")
	}
}

func TestReplayDroppedTeam(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	if err := s.RecordSnapshot(ctx, "run-1", testPlan(testTeams())); err != nil {
		t.Fatal(err)
	}
	replay, err := s.Replay(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	issues, _, err := replay.Fetch(ctx, "fixVersion = R1", testTeams()[1:])
	if err != nil {
		t.Fatal(err)
	}
	if issues[0].Owner != nil {
		t.Error("owner of a team that is no longer planned should be dropped")
	}
}

func TestRecordDuplicateRun(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	p := testPlan(testTeams())
	if err := s.RecordSnapshot(ctx, "run-1", p); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordSnapshot(ctx, "run-1", p); err == nil {
		t.Fatal("expected error recording the same run twice")
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM issues`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("failed run left rows behind: %d issues", n)
	}
}
