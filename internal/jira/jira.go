// Package jira is the plan.DataSource backed by a Jira server: epics and
// stories are work items, bugs are counted per team, estimates come from
// "#plan" comments.
package jira

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	jira "github.com/andygrunwald/go-jira"

	"github.com/vlanse/plan-b/internal/estimate"
	"github.com/vlanse/plan-b/internal/plan"
	"github.com/vlanse/plan-b/internal/team"
)

// DefaultEpicLinkField is the custom field holding a story's epic key.
const DefaultEpicLinkField = "customfield_13694"

const defaultPageSize = 100

var (
	workItemTypes = map[string]bool{"Epic": true, "Story": true}
	bugTypes      = map[string]bool{"Bug": true, "Bug US": true}
)

// Config configures a Source.
type Config struct {
	URL           string
	Username      string
	Password      string
	EpicLinkField string
	PageSize      int
}

// Source fetches issues through the Jira REST API.
type Source struct {
	client        *jira.Client
	server        string
	epicLinkField string
	pageSize      int
	logger        *slog.Logger
}

// New creates a source using basic authentication.
func New(cfg Config, logger *slog.Logger) (*Source, error) {
	httpClient := http.DefaultClient
	if cfg.Username != "" {
		tp := jira.BasicAuthTransport{Username: cfg.Username, Password: cfg.Password}
		httpClient = tp.Client()
	}
	client, err := jira.NewClient(httpClient, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("jira client for %s: %w", cfg.URL, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Source{
		client:        client,
		server:        strings.TrimSuffix(cfg.URL, "/"),
		epicLinkField: cfg.EpicLinkField,
		pageSize:      cfg.PageSize,
		logger:        logger,
	}
	if s.epicLinkField == "" {
		s.epicLinkField = DefaultEpicLinkField
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	return s, nil
}

var _ plan.DataSource = (*Source)(nil)

// Fetch runs a JQL query and turns its epics and stories into issues.
// Stories of epics in the same result are skipped, the epic stands for them.
func (s *Source) Fetch(ctx context.Context, query string, teams []*team.Team) ([]*plan.Issue, map[string]int, error) {
	s.logger.Debug("searching issues", "jql", query)
	found, err := s.search(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	epics := make(map[string]bool)
	var items, bugs []jira.Issue
	for _, issue := range found {
		kind := issueType(issue)
		if kind == "Epic" {
			epics[issue.Key] = true
		}
		switch {
		case workItemTypes[kind]:
			items = append(items, issue)
		case bugTypes[kind]:
			bugs = append(bugs, issue)
		}
	}

	var out []*plan.Issue
	for _, issue := range items {
		if issueType(issue) == "Story" && epics[s.epicLink(issue)] {
			continue
		}
		converted, err := s.convert(ctx, issue, teams)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, converted)
	}
	return out, s.countBugs(bugs, teams), nil
}

func (s *Source) search(ctx context.Context, query string) ([]jira.Issue, error) {
	opts := &jira.SearchOptions{
		MaxResults: s.pageSize,
		Fields:     []string{"summary", "issuetype", "status", "assignee", s.epicLinkField},
	}
	var all []jira.Issue
	for {
		page, resp, err := s.client.Issue.SearchWithContext(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", query, err)
		}
		all = append(all, page...)
		opts.StartAt += len(page)
		if len(page) == 0 || resp == nil || opts.StartAt >= resp.Total {
			return all, nil
		}
	}
}

func (s *Source) comments(ctx context.Context, key string) ([]*jira.Comment, error) {
	s.logger.Debug("loading comments", "issue", key)
	issue, _, err := s.client.Issue.GetWithContext(ctx, key, &jira.GetQueryOptions{Fields: "comment"})
	if err != nil {
		return nil, fmt.Errorf("comments of %s: %w", key, err)
	}
	if issue.Fields == nil || issue.Fields.Comments == nil {
		return nil, nil
	}
	return issue.Fields.Comments.Comments, nil
}

func (s *Source) convert(ctx context.Context, issue jira.Issue, teams []*team.Team) (*plan.Issue, error) {
	comments, err := s.comments(ctx, issue.Key)
	if err != nil {
		return nil, err
	}

	// A later #plan comment of the same team replaces an earlier one.
	estimates := make(map[string]*estimate.WorkEstimate)
	for _, c := range comments {
		e, teamName, err := estimate.Parse(c.Body, userName(&c.Author), teams)
		if err != nil {
			return nil, fmt.Errorf("issue %s: %w", issue.Key, err)
		}
		if e == nil {
			continue
		}
		if teamName == "" {
			s.logger.Warn("could not match team of estimate", "issue", issue.Key, "author", userName(&c.Author))
		}
		estimates[teamName] = e
	}

	var assignee string
	if issue.Fields != nil {
		assignee = userName(issue.Fields.Assignee)
	}
	owner := team.MatchByWorkerName(assignee, teams)
	if owner == nil {
		s.logger.Warn("owner is not a member of any planned team", "issue", issue.Key, "assignee", assignee)
	}

	var summary, status string
	if issue.Fields != nil {
		summary = issue.Fields.Summary
		if issue.Fields.Status != nil {
			status = issue.Fields.Status.Name
		}
	}
	return plan.NewIssue(issue.Key, summary, s.server+"/browse/"+issue.Key, status, owner, estimates), nil
}

func (s *Source) countBugs(bugs []jira.Issue, teams []*team.Team) map[string]int {
	counts := make(map[string]int)
	for _, t := range team.Filter(teams, team.Development) {
		counts[t.Name] = 0
	}
	for _, bug := range bugs {
		var assignee string
		if bug.Fields != nil {
			assignee = userName(bug.Fields.Assignee)
		}
		owner := team.MatchByWorkerName(assignee, teams)
		if owner == nil || !owner.IsDevelopment() {
			s.logger.Info("bug is not assigned to a development team, not counted", "issue", bug.Key, "assignee", assignee)
			continue
		}
		counts[owner.Name]++
	}
	return counts
}

func (s *Source) epicLink(issue jira.Issue) string {
	if issue.Fields == nil || issue.Fields.Unknowns == nil {
		return ""
	}
	key, _ := issue.Fields.Unknowns[s.epicLinkField].(string)
	return key
}

func issueType(issue jira.Issue) string {
	if issue.Fields == nil {
		return ""
	}
	return issue.Fields.Type.Name
}

func userName(u *jira.User) string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.DisplayName
}
