// Package config loads and validates the plan configuration (TOML or YAML).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vlanse/plan-b/internal/calendar"
	"github.com/vlanse/plan-b/internal/roundtrip"
	"github.com/vlanse/plan-b/internal/sheet"
	"github.com/vlanse/plan-b/internal/team"
)

// ErrReference is returned when the plan section names a team, release or
// data source that is not defined exactly once.
var ErrReference = errors.New("invalid plan reference")

// Date is a calendar date that unmarshals from "2006-01-02" strings as well as
// TOML local dates.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if len(s) > len(time.DateOnly) {
		s = s[:len(time.DateOnly)]
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", string(text), err)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.Format(time.DateOnly)), nil
}

type Config struct {
	General            General                      `toml:"general" yaml:"general"`
	Teams              []Team                       `toml:"teams" yaml:"teams"`
	Releases           []Release                    `toml:"releases" yaml:"releases"`
	IssueDataSources   []DataSource                 `toml:"issue_data_sources" yaml:"issue_data_sources"`
	ProductionCalendar map[string]map[string]string `toml:"production_calendar" yaml:"production_calendar"`
	Plan               Plan                         `toml:"plan" yaml:"plan"`
}

type General struct {
	LogLevel string `toml:"log_level" yaml:"log_level"`
	StateDB  string `toml:"state_db" yaml:"state_db"` // snapshot database, disabled when empty
}

type Team struct {
	Name    string   `toml:"name" yaml:"name"`
	Role    string   `toml:"role" yaml:"role"` // "dev" or "qa", derived from the name when empty
	Members []Member `toml:"members" yaml:"members"`
}

type Member struct {
	Name       string   `toml:"name" yaml:"name"`
	Kind       string   `toml:"kind" yaml:"kind"` // "constant" or "ramp_up"
	Efficiency *float64 `toml:"efficiency" yaml:"efficiency"`
	WorksSince Date     `toml:"works_since" yaml:"works_since"`
}

type Release struct {
	Name      string `toml:"name" yaml:"name"`
	DataQuery string `toml:"data_query" yaml:"data_query"`
}

type DataSource struct {
	Name          string `toml:"name" yaml:"name"`
	Type          string `toml:"type" yaml:"type"`
	URL           string `toml:"url" yaml:"url"`
	EpicLinkField string `toml:"epic_link_field" yaml:"epic_link_field"`
}

type Plan struct {
	Teams      []string `toml:"teams" yaml:"teams"`
	Releases   []string `toml:"releases" yaml:"releases"`
	DataSource string   `toml:"data_source" yaml:"data_source"`
	OutputFile string   `toml:"output_file" yaml:"output_file"`
	Period     Period   `toml:"period" yaml:"period"`
}

type Period struct {
	StartDate Date `toml:"start_date" yaml:"start_date"`
	EndDate   Date `toml:"end_date" yaml:"end_date"`
}

const (
	KindConstant = "constant"
	KindRampUp   = "ramp_up"

	SourceJira = "jira"
)

// Load reads and validates a plan configuration file. Files ending in .yaml
// or .yml are parsed as YAML, everything else as TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = toml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = "info"
	}

	for i := range cfg.Teams {
		for j := range cfg.Teams[i].Members {
			m := &cfg.Teams[i].Members[j]
			if m.Kind == "" {
				m.Kind = KindConstant
				if team.IsRampUpName(m.Name) {
					m.Kind = KindRampUp
				}
			}
			if m.Kind == KindConstant && m.Efficiency == nil {
				e := team.DefaultEfficiency
				m.Efficiency = &e
			}
		}
	}

	for i := range cfg.IssueDataSources {
		if cfg.IssueDataSources[i].Type == "" {
			cfg.IssueDataSources[i].Type = SourceJira
		}
	}
}

func validate(cfg *Config) error {
	for _, t := range cfg.Teams {
		if t.Name == "" {
			return fmt.Errorf("team without name")
		}
		if _, ok := team.ParseRole(t.Role, t.Name); !ok {
			return fmt.Errorf("team %q has unknown role %q", t.Name, t.Role)
		}
		for _, m := range t.Members {
			switch m.Kind {
			case KindConstant:
				if *m.Efficiency < 0 || *m.Efficiency > 1 {
					return fmt.Errorf("team %q member %q efficiency %v out of [0, 1]", t.Name, m.Name, *m.Efficiency)
				}
			case KindRampUp:
				if m.WorksSince.IsZero() {
					return fmt.Errorf("team %q member %q is ramping up but has no works_since", t.Name, m.Name)
				}
			default:
				return fmt.Errorf("team %q member %q has unknown kind %q", t.Name, m.Name, m.Kind)
			}
		}
	}

	for _, r := range cfg.Releases {
		if r.Name == "" || r.DataQuery == "" {
			return fmt.Errorf("release %q needs a name and a data_query", r.Name)
		}
	}

	for _, ds := range cfg.IssueDataSources {
		if ds.Type != SourceJira {
			return fmt.Errorf("data source %q has unknown type %q", ds.Name, ds.Type)
		}
		if _, err := url.Parse(ds.URL); err != nil || ds.URL == "" {
			return fmt.Errorf("data source %q has invalid url %q", ds.Name, ds.URL)
		}
	}

	if _, err := productionCalendar(cfg.ProductionCalendar); err != nil {
		return err
	}

	p := cfg.Plan
	if p.OutputFile == "" {
		return fmt.Errorf("plan output_file is required")
	}
	if p.Period.StartDate.IsZero() || p.Period.EndDate.IsZero() {
		return fmt.Errorf("plan period needs start_date and end_date")
	}
	if p.Period.EndDate.Before(p.Period.StartDate.Time) {
		return fmt.Errorf("plan period ends %s before it starts %s",
			p.Period.EndDate.Format(time.DateOnly), p.Period.StartDate.Format(time.DateOnly))
	}
	if len(p.Teams) == 0 {
		return fmt.Errorf("plan must name at least one team")
	}
	if err := validateSheetNames(p); err != nil {
		return err
	}

	if cfg.General.StateDB != "" {
		dir := ExpandHome(filepath.Dir(cfg.General.StateDB))
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("state_db directory %q does not exist: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("state_db parent path %q is not a directory", dir)
		}
	}

	return nil
}

// validateSheetNames checks the plan's teams and releases, which become
// worksheet names of one workbook.
func validateSheetNames(p Plan) error {
	seen := map[string]string{strings.ToLower(roundtrip.SheetName): "reserved"}
	check := func(kind, name string) error {
		if err := sheet.CheckName(name); err != nil {
			return fmt.Errorf("plan %s: %w", kind, err)
		}
		key := strings.ToLower(name)
		if other, ok := seen[key]; ok {
			return fmt.Errorf("plan %s %q clashes with %s sheet name", kind, name, other)
		}
		seen[key] = kind
		return nil
	}
	for _, name := range p.Teams {
		if err := check("team", name); err != nil {
			return err
		}
	}
	for _, name := range p.Releases {
		if err := check("release", name); err != nil {
			return err
		}
	}
	return nil
}

func productionCalendar(years map[string]map[string]string) (calendar.Production, error) {
	prod := make(calendar.Production, len(years))
	for key, months := range years {
		year, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("production_calendar: invalid year %q", key)
		}
		parsed, err := calendar.ParseYear(months)
		if err != nil {
			return nil, fmt.Errorf("production_calendar %d: %w", year, err)
		}
		prod[year] = parsed
	}
	return prod, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
