// Package team describes the people whose capacity is planned: workers with a
// time-varying efficiency grouped into development or QA teams.
package team

import (
	"strings"
	"time"
)

// Role decides which effort columns a team contributes to.
type Role int

const (
	Development Role = iota
	QualityAssurance
)

func (r Role) String() string {
	if r == QualityAssurance {
		return "qa"
	}
	return "dev"
}

// ParseRole maps "dev"/"development" and "qa" to a role. An empty string
// derives the role from the team name: names containing "qa" are QA teams.
func ParseRole(role, teamName string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "dev", "development":
		return Development, true
	case "qa", "quality_assurance", "quality assurance":
		return QualityAssurance, true
	case "":
		if strings.Contains(strings.ToLower(teamName), "qa") {
			return QualityAssurance, true
		}
		return Development, true
	}
	return Development, false
}

// Capability is what the planner needs to know about a team.
type Capability interface {
	// Efficiency is the number of full-time people the team amounts to at the given date.
	Efficiency(at time.Time) float64
	IsDevelopment() bool
	IsQA() bool
}

// Team is an ordered set of workers with a role. It is not modified after
// construction.
type Team struct {
	Name    string
	Role    Role
	Members []Worker
}

// New creates a team.
func New(name string, role Role, members ...Worker) *Team {
	return &Team{Name: name, Role: role, Members: members}
}

func (t *Team) IsDevelopment() bool { return t.Role == Development }

func (t *Team) IsQA() bool { return t.Role == QualityAssurance }

// Efficiency sums member efficiencies at the given date.
func (t *Team) Efficiency(at time.Time) float64 {
	var total float64
	for _, w := range t.Members {
		total += w.Efficiency(at)
	}
	return total
}

var _ Capability = (*Team)(nil)

// Filter returns the teams with the given role, preserving order.
func Filter(teams []*Team, role Role) []*Team {
	var out []*Team
	for _, t := range teams {
		if t.Role == role {
			out = append(out, t)
		}
	}
	return out
}

// ByName indexes teams by name.
func ByName(teams []*Team) map[string]*Team {
	out := make(map[string]*Team, len(teams))
	for _, t := range teams {
		out[t.Name] = t
	}
	return out
}
