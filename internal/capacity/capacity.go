// Package capacity is the confidence-weighted aggregation model: it turns the
// per-team estimates of an issue into man-week totals. The spreadsheet report
// encodes the same arithmetic as formulas; this package evaluates it directly.
package capacity

import (
	"github.com/vlanse/plan-b/internal/estimate"
	"github.com/vlanse/plan-b/internal/plan"
	"github.com/vlanse/plan-b/internal/team"
)

// DefaultLevel is used when no team specified a confidence level.
const DefaultLevel = estimate.Low

const (
	IntegrationShare    = 0.1
	TestAutomationShare = 0.2
	StabilizationShare  = 0.3
)

// Multipliers returns the requirements and design multipliers of an issue:
// the least confident level over all estimates, DefaultLevel when none is
// set, and zero for both when a QA team owns the issue.
func Multipliers(issue *plan.Issue) (reqs, design float64) {
	if issue.OwnedByQA() {
		return 0, 0
	}
	var r, d estimate.ConfidenceLevel
	for _, e := range issue.Remaining {
		if l, ok := estimate.Level(e.ReqsLevel); ok && l > r {
			r = l
		}
		if l, ok := estimate.Level(e.DesignLevel); ok && l > d {
			d = l
		}
	}
	if r == 0 {
		r = DefaultLevel
	}
	if d == 0 {
		d = DefaultLevel
	}
	return float64(r), float64(d)
}

// Totals is the evaluated model of one issue, in man-weeks.
type Totals struct {
	ReqsMultiplier   float64
	DesignMultiplier float64

	ArchDesign     float64
	Implementation map[string]float64
	ImplTotal      float64
	Integration    float64
	TestAutomation float64
	Stabilization  float64
	Documentation  float64
	Perf           map[string]float64
	PerfTotal      float64
	QA             map[string]float64
	QATotal        float64

	FeatureDev   float64
	FeatureTotal float64
	// Allocation splits FeatureDev over development teams by their share
	// of ImplTotal.
	Allocation map[string]float64
}

func manWeeks(v *int64) float64 {
	return estimate.SecondsToManWeeks(estimate.Seconds(v))
}

// Evaluate computes the totals of one issue for the given teams.
func Evaluate(issue *plan.Issue, teams []*team.Team) Totals {
	t := Totals{
		Implementation: make(map[string]float64),
		Perf:           make(map[string]float64),
		QA:             make(map[string]float64),
		Allocation:     make(map[string]float64),
	}
	t.ReqsMultiplier, t.DesignMultiplier = Multipliers(issue)

	for _, e := range issue.Remaining {
		t.ArchDesign += manWeeks(e.ArchDesign)
		t.Documentation += manWeeks(e.Documentation)
	}
	for _, tm := range teams {
		e := issue.Estimate(tm.Name)
		if e == nil {
			continue
		}
		switch {
		case tm.IsDevelopment():
			t.Implementation[tm.Name] = manWeeks(e.Implementation)
			t.ImplTotal += t.Implementation[tm.Name]
			t.Perf[tm.Name] = manWeeks(e.PerfDesign)
			t.PerfTotal += t.Perf[tm.Name]
		case tm.IsQA():
			t.QA[tm.Name] = manWeeks(e.QAEffort)
			t.QATotal += t.QA[tm.Name]
		}
	}

	t.Integration = t.ImplTotal * IntegrationShare
	t.TestAutomation = t.ImplTotal * TestAutomationShare
	t.Stabilization = t.ImplTotal * StabilizationShare

	t.FeatureDev = (t.ArchDesign + t.ImplTotal + t.Integration + t.TestAutomation +
		t.Stabilization + t.Documentation + t.PerfTotal) * t.ReqsMultiplier * t.DesignMultiplier
	t.FeatureTotal = t.FeatureDev + t.QATotal

	for _, tm := range team.Filter(teams, team.Development) {
		if t.ImplTotal != 0 {
			t.Allocation[tm.Name] = t.FeatureDev * t.Implementation[tm.Name] / t.ImplTotal
		} else {
			t.Allocation[tm.Name] = 0
		}
	}
	return t
}

// ReleaseTotals aggregates a release the way the report's tables do.
type ReleaseTotals struct {
	Name string
	// Demand is what each team needs for the release, in man-weeks: the
	// feature dev allocation of development teams and the QA effort of QA
	// teams.
	Demand       map[string]float64
	FeatureDev   float64
	QA           float64
	FeatureTotal float64
	Issues       int
	KnownBugs    map[string]int
}

// EvaluateRelease sums Evaluate over every issue of a release.
func EvaluateRelease(r *plan.Release, teams []*team.Team) ReleaseTotals {
	rt := ReleaseTotals{
		Name:      r.Name,
		Demand:    make(map[string]float64, len(teams)),
		Issues:    len(r.Issues),
		KnownBugs: r.KnownBugs,
	}
	for _, issue := range r.Issues {
		t := Evaluate(issue, teams)
		rt.FeatureDev += t.FeatureDev
		rt.QA += t.QATotal
		rt.FeatureTotal += t.FeatureTotal
		for name, v := range t.Allocation {
			rt.Demand[name] += v
		}
		for name, v := range t.QA {
			rt.Demand[name] += v
		}
	}
	return rt
}
