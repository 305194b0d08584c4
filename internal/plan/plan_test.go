package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/vlanse/plan-b/internal/estimate"
	"github.com/vlanse/plan-b/internal/team"
)

func TestNewIssueOpen(t *testing.T) {
	orig := map[string]*estimate.WorkEstimate{
		"a": {Implementation: estimate.Ptr[int64](3600)},
	}
	issue := NewIssue("A-1", "summary", "http://x/browse/A-1", "In Progress", nil, orig)
	if issue.Remaining["a"] != orig["a"] {
		t.Error("remaining estimate of an open issue must be the original one")
	}
}

func TestNewIssueTerminal(t *testing.T) {
	for _, status := range []string{"Closed", "resolved", "DONE"} {
		orig := map[string]*estimate.WorkEstimate{
			"a": {
				ReqsLevel:      estimate.Ptr(estimate.Low),
				DesignLevel:    estimate.Ptr(estimate.Medium),
				ArchDesign:     estimate.Ptr[int64](100),
				PerfDesign:     estimate.Ptr[int64](200),
				Implementation: estimate.Ptr[int64](300),
				Documentation:  estimate.Ptr[int64](400),
				QAEffort:       estimate.Ptr[int64](500),
			},
		}
		issue := NewIssue("A-1", "", "", status, nil, orig)
		rem := issue.Remaining["a"]
		if rem == orig["a"] {
			t.Fatalf("%s: remaining estimate must be a new value", status)
		}
		if *rem.ReqsLevel != estimate.Low || *rem.DesignLevel != estimate.Medium {
			t.Errorf("%s: confidence levels not preserved", status)
		}
		for _, v := range []*int64{rem.ArchDesign, rem.PerfDesign, rem.Implementation, rem.Documentation, rem.QAEffort} {
			if v == nil || *v != 0 {
				t.Errorf("%s: effort = %v, want 0", status, v)
			}
		}
		if *issue.Original["a"].Implementation != 300 {
			t.Errorf("%s: original estimate changed", status)
		}
	}
}

func TestNewIssueNilEstimates(t *testing.T) {
	issue := NewIssue("A-1", "", "", "", nil, nil)
	if issue.Original == nil || issue.Remaining == nil {
		t.Fatal("estimate maps must be initialised")
	}
	if issue.Estimate("a") != nil {
		t.Error("expected no estimate")
	}
}

type fakeSource struct {
	queries []string
	fail    string
}

func (f *fakeSource) Fetch(_ context.Context, query string, _ []*team.Team) ([]*Issue, map[string]int, error) {
	f.queries = append(f.queries, query)
	if query == f.fail {
		return nil, nil, errors.New("boom")
	}
	return []*Issue{NewIssue(query+"-1", "", "", "", nil, nil)}, map[string]int{"a": 2}, nil
}

func TestPlanFetch(t *testing.T) {
	p := &Plan{Releases: []*Release{{Name: "r1", Query: "q1"}, {Name: "r2", Query: "q2"}}}
	src := &fakeSource{}
	if err := p.Fetch(context.Background(), src, nil); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(src.queries) != 2 || src.queries[0] != "q1" || src.queries[1] != "q2" {
		t.Errorf("queries = %v", src.queries)
	}
	if p.Releases[1].Issues[0].Key != "q2-1" || p.Releases[1].KnownBugs["a"] != 2 {
		t.Errorf("release not filled: %+v", p.Releases[1])
	}
}

func TestPlanFetchAborts(t *testing.T) {
	p := &Plan{Releases: []*Release{{Name: "r1", Query: "q1"}, {Name: "r2", Query: "q2"}, {Name: "r3", Query: "q3"}}}
	src := &fakeSource{fail: "q2"}
	if err := p.Fetch(context.Background(), src, nil); err == nil {
		t.Fatal("expected error")
	}
	if len(src.queries) != 2 {
		t.Errorf("fetch should stop at first failure, queries = %v", src.queries)
	}
}
