// Command planb compiles release capacity plans from issue tracker estimates
// into an editable spreadsheet.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

const appName = "planb"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	logLevel   string
	logFormat  string
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Release capacity planner",
		Long: `planb reads "#plan" estimate comments from the issue tracker, aggregates
them per team and release, and writes a capacity plan workbook. Allocations
edited by hand in the workbook survive the next export.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "plan.toml", "Config file path (TOML or YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to general.log_level")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(exportCmd(opts), summaryCmd(opts), parseCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func configureLogger(w io.Writer, logLevel string, useDev bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if useDev {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
