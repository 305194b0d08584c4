// Package plan holds the domain snapshot a capacity plan is compiled from:
// issues with their per-team estimates, releases, and the data source contract.
package plan

import (
	"strings"

	"github.com/vlanse/plan-b/internal/estimate"
	"github.com/vlanse/plan-b/internal/team"
)

// terminalStatuses mark finished work; their remaining effort is zero.
var terminalStatuses = map[string]bool{
	"closed":   true,
	"resolved": true,
	"done":     true,
}

// IsTerminal reports whether status means the issue is finished.
func IsTerminal(status string) bool {
	return terminalStatuses[strings.ToLower(strings.TrimSpace(status))]
}

// Issue is one work item fetched from the tracker.
type Issue struct {
	Key     string
	Summary string
	URL     string
	Status  string
	// Owner is nil when the assignee could not be attributed to a team.
	Owner *team.Team

	// Original and Remaining are keyed by team name. Estimates that could not
	// be attributed to any team are kept under the empty name.
	Original  map[string]*estimate.WorkEstimate
	Remaining map[string]*estimate.WorkEstimate
}

// NewIssue builds an issue and derives its remaining estimates. For finished
// issues every remaining effort is zero and confidence levels are kept; for
// the rest, remaining estimates are the original ones.
func NewIssue(key, summary, url, status string, owner *team.Team, estimates map[string]*estimate.WorkEstimate) *Issue {
	if estimates == nil {
		estimates = make(map[string]*estimate.WorkEstimate)
	}
	issue := &Issue{
		Key:      key,
		Summary:  summary,
		URL:      url,
		Status:   status,
		Owner:    owner,
		Original: estimates,
	}
	if !IsTerminal(status) {
		issue.Remaining = estimates
		return issue
	}
	issue.Remaining = make(map[string]*estimate.WorkEstimate, len(estimates))
	for name, e := range estimates {
		issue.Remaining[name] = e.Completed()
	}
	return issue
}

// OwnedByQA reports whether the owning team is a QA team.
func (i *Issue) OwnedByQA() bool {
	return i.Owner != nil && i.Owner.IsQA()
}

// Estimate returns the remaining estimate of a team, nil when the team has none.
func (i *Issue) Estimate(teamName string) *estimate.WorkEstimate {
	return i.Remaining[teamName]
}
