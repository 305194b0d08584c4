package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/vlanse/plan-b/internal/estimate"
	"github.com/vlanse/plan-b/internal/team"
)

type fakeIssue struct {
	key, kind, summary, status, assignee, epic string
	comments                                   [][2]string
}

func (f fakeIssue) fields() map[string]any {
	fields := map[string]any{
		"summary":   f.summary,
		"issuetype": map[string]any{"name": f.kind},
		"status":    map[string]any{"name": f.status},
	}
	if f.assignee != "" {
		fields["assignee"] = map[string]any{"name": f.assignee}
	}
	if f.epic != "" {
		fields[DefaultEpicLinkField] = f.epic
	}
	return fields
}

// fakeJira serves the search and issue endpoints from a fixed issue list.
func fakeJira(t *testing.T, issues []fakeIssue) (*httptest.Server, *[]string) {
	t.Helper()
	var commentCalls []string
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "bot" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
		end := min(startAt+maxResults, len(issues))
		var page []map[string]any
		for _, f := range issues[startAt:end] {
			page = append(page, map[string]any{"key": f.key, "fields": f.fields()})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"startAt": startAt, "maxResults": maxResults, "total": len(issues), "issues": page,
		})
	})
	mux.HandleFunc("/rest/api/2/issue/", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/rest/api/2/issue/")
		commentCalls = append(commentCalls, key)
		for _, f := range issues {
			if f.key != key {
				continue
			}
			var comments []map[string]any
			for _, c := range f.comments {
				comments = append(comments, map[string]any{"author": map[string]any{"name": c[0]}, "body": c[1]})
			}
			json.NewEncoder(w).Encode(map[string]any{
				"key":    key,
				"fields": map[string]any{"comment": map[string]any{"comments": comments}},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &commentCalls
}

func testTeams() []*team.Team {
	return []*team.Team{
		team.New("a", team.Development, team.NewWorker("V.Ivanov", 0.5), team.NewWorker("P.Smirnov", 0.5)),
		team.New("b", team.Development, team.NewWorker("A.Petrov", 0.5), team.NewWorker("S.Kuznetsov", 0.5)),
		team.New("qa", team.QualityAssurance, team.NewWorker("Q.Tester", 1)),
	}
}

func newSource(t *testing.T, url string) *Source {
	t.Helper()
	s, err := New(Config{URL: url, Username: "bot", Password: "secret", PageSize: 2}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestFetch(t *testing.T) {
	srv, commentCalls := fakeJira(t, []fakeIssue{
		{key: "E-1", kind: "Epic", summary: "Epic one", status: "Open", assignee: "vasily.ivanov",
			comments: [][2]string{
				{"v.ivanov", "looks big"},
				{"v.ivanov", "#plan impl: 1w, reqs: med"},
				{"a.petrov", "#plan impl: 2d"},
			}},
		{key: "S-1", kind: "Story", summary: "Part of epic one", status: "Open", assignee: "ipetrov", epic: "E-1"},
		{key: "S-2", kind: "Story", summary: "Standalone", status: "Done", assignee: "mr.coordinator", epic: "X-9",
			comments: [][2]string{{"mr.coordinator", "#plan team: b, impl: 2d"}}},
		{key: "B-1", kind: "Bug", summary: "Crash", status: "Open", assignee: "a.petrov"},
		{key: "B-2", kind: "Bug US", summary: "Unassigned crash", status: "Open"},
		{key: "T-1", kind: "Task", summary: "Chore", status: "Open", assignee: "v.ivanov"},
	})

	issues, bugs, err := newSource(t, srv.URL).Fetch(context.Background(), "fixVersion = 1.0", testTeams())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(issues))
	}
	if strings.Join(*commentCalls, ",") != "E-1,S-2" {
		t.Errorf("comments loaded for %v, want E-1 and S-2 only", *commentCalls)
	}

	epic := issues[0]
	if epic.Key != "E-1" || epic.Summary != "Epic one" || epic.URL != srv.URL+"/browse/E-1" {
		t.Errorf("unexpected epic %+v", epic)
	}
	if epic.Owner == nil || epic.Owner.Name != "a" {
		t.Errorf("epic owner = %v, want a", epic.Owner)
	}
	if got := estimate.Seconds(epic.Original["a"].Implementation); got != estimate.ManWeekSeconds {
		t.Errorf("team a impl = %d", got)
	}
	if got := estimate.Seconds(epic.Original["b"].Implementation); got != 2*8*3600 {
		t.Errorf("team b impl = %d", got)
	}

	story := issues[1]
	if story.Owner != nil {
		t.Errorf("story owner = %v, want none", story.Owner.Name)
	}
	if story.Original["b"] == nil {
		t.Fatal("explicit team estimate missing")
	}
	if got := estimate.Seconds(story.Remaining["b"].Implementation); got != 0 {
		t.Errorf("done story remaining impl = %d, want 0", got)
	}

	if bugs["b"] != 1 || bugs["a"] != 0 || len(bugs) != 2 {
		t.Errorf("bugs = %v", bugs)
	}
}

func TestFetchUnmatchedEstimateAuthor(t *testing.T) {
	srv, _ := fakeJira(t, []fakeIssue{
		{key: "E-1", kind: "Epic", summary: "Epic", status: "Open", assignee: "v.ivanov",
			comments: [][2]string{{"mr.coordinator", "#plan impl: 1d"}}},
	})
	issues, _, err := newSource(t, srv.URL).Fetch(context.Background(), "q", testTeams())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if issues[0].Original[""] == nil {
		t.Error("estimate of unknown author should be kept under the unmatched bucket")
	}
}

func TestFetchParseError(t *testing.T) {
	srv, _ := fakeJira(t, []fakeIssue{
		{key: "E-7", kind: "Epic", summary: "Epic", status: "Open", assignee: "v.ivanov",
			comments: [][2]string{{"v.ivanov", "#plan impl: 1d, impl: 2d"}}},
	})
	_, _, err := newSource(t, srv.URL).Fetch(context.Background(), "q", testTeams())
	if !errors.Is(err, estimate.ErrAlreadySpecified) {
		t.Fatalf("err = %v, want ErrAlreadySpecified", err)
	}
	if !strings.Contains(err.Error(), "E-7") {
		t.Errorf("error %q should name the issue", err)
	}
}

func TestFetchUnauthorized(t *testing.T) {
	srv, _ := fakeJira(t, nil)
	s, err := New(Config{URL: srv.URL, Username: "bot", Password: "wrong"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Fetch(context.Background(), "q", testTeams()); err == nil {
		t.Fatal("expected error")
	}
}
