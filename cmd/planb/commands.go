package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vlanse/plan-b/internal/config"
	"github.com/vlanse/plan-b/internal/estimate"
	"github.com/vlanse/plan-b/internal/export"
	"github.com/vlanse/plan-b/internal/jira"
	"github.com/vlanse/plan-b/internal/plan"
	"github.com/vlanse/plan-b/internal/store"
	"github.com/vlanse/plan-b/internal/summary"
)

// session is what every command needs: the loaded config, the resolved plan
// and a logger honouring both the flags and general.log_level.
type session struct {
	cfg      *config.Config
	resolved *config.Resolved
	logger   *slog.Logger
}

func load(cmd *cobra.Command, opts *options) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	level := cfg.General.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := configureLogger(cmd.ErrOrStderr(), level, opts.logFormat != "json")
	slog.SetDefault(logger)

	return &session{cfg: cfg, resolved: resolved, logger: logger}, nil
}

func (s *session) openStore() (*store.Store, error) {
	if s.cfg.General.StateDB == "" {
		return nil, nil
	}
	return store.Open(config.ExpandHome(s.cfg.General.StateDB))
}

// source returns the tracker client, or a replay of the latest snapshot when
// offline is set.
func (s *session) source(ctx context.Context, st *store.Store, offline bool) (plan.DataSource, error) {
	if offline {
		if st == nil {
			return nil, fmt.Errorf("--offline needs general.state_db")
		}
		return st.Replay(ctx, s.logger)
	}

	ds := s.resolved.Source
	creds, err := ds.Credentials()
	if err != nil {
		return nil, err
	}
	return jira.New(jira.Config{
		URL:           creds.Server,
		Username:      creds.Username,
		Password:      creds.Password,
		EpicLinkField: ds.EpicLinkField,
	}, s.logger.With("source", ds.Name))
}

func exportCmd(opts *options) *cobra.Command {
	var (
		output  string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch releases and write the capacity plan workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load(cmd, opts)
			if err != nil {
				return err
			}
			if output == "" {
				output = s.resolved.OutputFile
			}

			st, err := s.openStore()
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			ctx := cmd.Context()
			source, err := s.source(ctx, st, offline)
			if err != nil {
				return err
			}

			var recorder export.Recorder
			if st != nil && !offline {
				recorder = st
			}

			res, err := export.New(source, recorder, s.logger).Run(ctx, s.resolved.Plan, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (run %s, %d edited cells kept, %d items dropped)\n",
				res.Output, res.RunID, res.Patched, len(res.Dropped))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Workbook path; defaults to plan.output_file")
	cmd.Flags().BoolVar(&offline, "offline", false, "Replay the latest recorded snapshot instead of querying the tracker")
	return cmd
}

func summaryCmd(opts *options) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print per-release demand against team capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load(cmd, opts)
			if err != nil {
				return err
			}
			st, err := s.openStore()
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			ctx := cmd.Context()
			source, err := s.source(ctx, st, offline)
			if err != nil {
				return err
			}
			p := s.resolved.Plan
			if err := p.Fetch(ctx, source, s.logger); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), summary.Build(p).Render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Replay the latest recorded snapshot instead of querying the tracker")
	return cmd
}

func parseCmd(opts *options) *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a #plan comment read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load(cmd, opts)
			if err != nil {
				return err
			}
			text, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read comment: %w", err)
			}
			e, teamName, err := estimate.Parse(string(text), author, s.resolved.Plan.Teams)
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("comment does not start with %s", estimate.Marker)
			}
			printEstimate(cmd.OutOrStdout(), teamName, e)
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Comment author, used to attribute the estimate to a team")
	return cmd
}

func printEstimate(w io.Writer, teamName string, e *estimate.WorkEstimate) {
	if teamName == "" {
		teamName = "(no team)"
	}
	fmt.Fprintf(w, "team: %s\n", teamName)

	levels := []struct {
		name string
		v    *estimate.ConfidenceLevel
	}{
		{"reqs", e.ReqsLevel},
		{"design", e.DesignLevel},
	}
	for _, l := range levels {
		if l.v != nil {
			fmt.Fprintf(w, "%s: %s\n", l.name, l.v)
		}
	}

	efforts := []struct {
		name string
		v    *int64
	}{
		{"arch", e.ArchDesign},
		{"perf", e.PerfDesign},
		{"impl", e.Implementation},
		{"doc", e.Documentation},
		{"qa", e.QAEffort},
	}
	for _, f := range efforts {
		if f.v != nil {
			fmt.Fprintf(w, "%s: %.2f man-weeks\n", f.name, estimate.SecondsToManWeeks(*f.v))
		}
	}
}
