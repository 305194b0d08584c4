package estimate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/vlanse/plan-b/internal/team"
)

// Marker opens every estimate comment.
const Marker = "#plan"

var ErrAlreadySpecified = errors.New("already specified in comment")

var separatorsRx = regexp.MustCompile(`[;\n]`)

var (
	reqsLevelAliases      = []string{"reqs", "requirements", "requirements confidence", "reqs confidence", "reqs level"}
	designLevelAliases    = []string{"design", "design confidence", "design level"}
	archDesignAliases     = []string{"arch", "architecture", "arch design", "architecture design"}
	perfDesignAliases     = []string{"perf", "perf engineering", "performance engineering", "performance"}
	implementationAliases = []string{"impl", "implementation", "implementing"}
	documentationAliases  = []string{"doc", "documentation", "documenting"}
	qaEffortAliases       = []string{"qa", "qa effort", "qa acceptance"}
	teamAliases           = []string{"team"}
)

// field binds a set of aliases to the estimate field they set.
type field struct {
	name    string
	aliases []string
	set     func(e *WorkEstimate, value string) (bool, error)
}

func levelField(name string, aliases []string, target func(*WorkEstimate) **ConfidenceLevel) field {
	return field{name: name, aliases: aliases, set: func(e *WorkEstimate, value string) (bool, error) {
		dst := target(e)
		if *dst != nil {
			return false, nil
		}
		level, err := ParseConfidence(value)
		if err != nil {
			return true, err
		}
		*dst = &level
		return true, nil
	}}
}

func effortField(name string, aliases []string, target func(*WorkEstimate) **int64) field {
	return field{name: name, aliases: aliases, set: func(e *WorkEstimate, value string) (bool, error) {
		dst := target(e)
		if *dst != nil {
			return false, nil
		}
		seconds, err := ParseEffort(value)
		if err != nil {
			return true, err
		}
		*dst = &seconds
		return true, nil
	}}
}

// fields are tried in this order for every clause.
var fields = []field{
	levelField("reqs_level", reqsLevelAliases, func(e *WorkEstimate) **ConfidenceLevel { return &e.ReqsLevel }),
	levelField("design_level", designLevelAliases, func(e *WorkEstimate) **ConfidenceLevel { return &e.DesignLevel }),
	effortField("arch_design", archDesignAliases, func(e *WorkEstimate) **int64 { return &e.ArchDesign }),
	effortField("perf_design", perfDesignAliases, func(e *WorkEstimate) **int64 { return &e.PerfDesign }),
	effortField("implementation", implementationAliases, func(e *WorkEstimate) **int64 { return &e.Implementation }),
	effortField("documentation", documentationAliases, func(e *WorkEstimate) **int64 { return &e.Documentation }),
	effortField("qa_effort", qaEffortAliases, func(e *WorkEstimate) **int64 { return &e.QAEffort }),
}

var knownPrefixes = func() []string {
	var all []string
	for _, f := range fields {
		all = append(all, f.aliases...)
	}
	return append(all, teamAliases...)
}()

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// clauses splits the comment body into lower-cased (key, value) pairs of
// recognised fields, in comment order.
func clauses(text string) [][2]string {
	text = separatorsRx.ReplaceAllString(text, ",")
	var out [][2]string
	for _, raw := range strings.Split(text, ",") {
		clause := strings.ToLower(strings.TrimSpace(raw))
		if clause == "" || !hasKnownPrefix(clause) {
			continue
		}
		key, value, ok := strings.Cut(clause, ":")
		if !ok {
			continue
		}
		out = append(out, [2]string{strings.TrimSpace(key), strings.TrimSpace(value)})
	}
	return out
}

func hasKnownPrefix(clause string) bool {
	for _, p := range knownPrefixes {
		if strings.HasPrefix(clause, p) {
			return true
		}
	}
	return false
}

// set applies one clause to the estimate. Unknown keys are ignored.
func (e *WorkEstimate) set(key, value string) error {
	for _, f := range fields {
		if !contains(f.aliases, key) {
			continue
		}
		claimed, err := f.set(e, value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		if !claimed {
			return fmt.Errorf("%s %w", f.name, ErrAlreadySpecified)
		}
		return nil
	}
	return nil
}

// Parse extracts an estimate from a comment. It returns (nil, "", nil) when
// the comment does not start with Marker. The team is the one named by an
// explicit "team:" clause (case-insensitive exact name or unambiguous substring) or,
// failing that, the team of the comment author; it is empty when neither
// matches.
func Parse(text, author string, teams []*team.Team) (*WorkEstimate, string, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Marker) {
		return nil, "", nil
	}
	text = strings.TrimPrefix(text, Marker)

	result := &WorkEstimate{}
	teamName := ""
	teamSet := false
	for _, kv := range clauses(text) {
		key, value := kv[0], kv[1]
		if contains(teamAliases, key) {
			if teamSet {
				return nil, "", fmt.Errorf("team %w", ErrAlreadySpecified)
			}
			teamSet = true
			teamName = matchTeamName(value, teams)
			continue
		}
		if err := result.set(key, value); err != nil {
			return nil, "", err
		}
	}

	if teamName == "" {
		if t := team.MatchByWorkerName(author, teams); t != nil {
			teamName = t.Name
		}
	}
	return result, teamName, nil
}

// matchTeamName resolves a team clause. A team whose name equals the value
// wins; otherwise the value must be a substring of exactly one team name.
func matchTeamName(value string, teams []*team.Team) string {
	if value == "" {
		return ""
	}
	var matches []string
	for _, t := range teams {
		name := strings.ToLower(t.Name)
		if name == value {
			return t.Name
		}
		if strings.Contains(name, value) {
			matches = append(matches, t.Name)
		}
	}
	if len(matches) != 1 {
		return ""
	}
	return matches[0]
}
