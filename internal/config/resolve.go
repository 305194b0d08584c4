package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/vlanse/plan-b/internal/calendar"
	"github.com/vlanse/plan-b/internal/plan"
	"github.com/vlanse/plan-b/internal/team"
)

// Credentials is a data source endpoint with its login.
type Credentials struct {
	Server   string
	Username string
	Password string
}

// Resolved is the plan section turned into domain values.
type Resolved struct {
	Plan       *plan.Plan
	Source     DataSource
	OutputFile string
}

// Resolve looks up the teams, releases and data source named by the plan
// section, keeping the plan's order.
func (c *Config) Resolve() (*Resolved, error) {
	teams := make([]*team.Team, 0, len(c.Plan.Teams))
	for _, name := range c.Plan.Teams {
		t, err := pick("teams", name, c.Teams, func(t Team) string { return t.Name })
		if err != nil {
			return nil, err
		}
		teams = append(teams, t.build())
	}

	releases := make([]*plan.Release, 0, len(c.Plan.Releases))
	for _, name := range c.Plan.Releases {
		r, err := pick("releases", name, c.Releases, func(r Release) string { return r.Name })
		if err != nil {
			return nil, err
		}
		releases = append(releases, &plan.Release{Name: r.Name, Query: r.DataQuery})
	}

	source, err := pick("data source", c.Plan.DataSource, c.IssueDataSources, func(d DataSource) string { return d.Name })
	if err != nil {
		return nil, err
	}

	prod, err := productionCalendar(c.ProductionCalendar)
	if err != nil {
		return nil, err
	}

	return &Resolved{
		Plan: &plan.Plan{
			Start:    calendar.Truncate(c.Plan.Period.StartDate.Time),
			End:      calendar.Truncate(c.Plan.Period.EndDate.Time),
			Calendar: prod,
			Teams:    teams,
			Releases: releases,
		},
		Source:     source,
		OutputFile: ExpandHome(c.Plan.OutputFile),
	}, nil
}

func pick[T any](kind, name string, items []T, nameOf func(T) string) (T, error) {
	var found []T
	for _, it := range items {
		if nameOf(it) == name {
			found = append(found, it)
		}
	}
	if len(found) != 1 {
		var zero T
		return zero, fmt.Errorf("%w: plan %s %q, found %d items", ErrReference, kind, name, len(found))
	}
	return found[0], nil
}

func (t Team) build() *team.Team {
	role, _ := team.ParseRole(t.Role, t.Name)
	workers := make([]team.Worker, 0, len(t.Members))
	for _, m := range t.Members {
		if m.Kind == KindRampUp {
			workers = append(workers, team.NewRampUpWorker(m.Name, calendar.Truncate(m.WorksSince.Time)))
			continue
		}
		workers = append(workers, team.NewWorker(m.Name, *m.Efficiency))
	}
	return team.New(t.Name, role, workers...)
}

// Credentials splits the source URL into server and login. JIRA_USERNAME and
// JIRA_PASSWORD from the environment take precedence over URL user info.
func (d DataSource) Credentials() (Credentials, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return Credentials{}, fmt.Errorf("data source %s url: %w", d.Name, err)
	}
	var creds Credentials
	if u.User != nil {
		creds.Username = u.User.Username()
		creds.Password, _ = u.User.Password()
	}
	if v := os.Getenv("JIRA_USERNAME"); v != "" {
		creds.Username = v
	}
	if v := os.Getenv("JIRA_PASSWORD"); v != "" {
		creds.Password = v
	}
	u.User = nil
	creds.Server = strings.TrimSuffix(u.String(), "/")
	return creds, nil
}
