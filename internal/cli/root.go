// Package cli implements the pitchlens command line: the same resolution
// chain, badge renderer and export adapters the API serves, driven from a
// terminal.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/codezelat/pitchlens/internal/badge"
	"github.com/codezelat/pitchlens/internal/export"
	"github.com/codezelat/pitchlens/internal/resolve"
	"github.com/codezelat/pitchlens/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo records build metadata for the version command.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Env holds everything the commands run against.
type Env struct {
	Resolver  *resolve.Resolver
	Snapshots *snapshot.Store
	Raster    badge.Rasterizer
	Clipboard export.Clipboard
	// PageURL is the link share intents point back to.
	PageURL string
	Open    func(url string) error
	Close   func() error
}

// Builder constructs the Env. It runs on first use, so help and version
// work without any configuration.
type Builder func(ctx context.Context) (*Env, error)

type session struct {
	build   Builder
	env     *Env
	output  string
	verbose bool
}

func (s *session) load(cmd *cobra.Command) (*Env, error) {
	if s.env != nil {
		return s.env, nil
	}
	env, err := s.build(cmd.Context())
	if err != nil {
		return nil, err
	}
	s.env = env
	return env, nil
}

func (s *session) close() {
	if s.env == nil || s.env.Close == nil {
		return
	}
	if err := s.env.Close(); err != nil {
		slog.Warn("closing environment", "error", err)
	}
}

func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:           "pitchlens",
		Short:         "Market Resonance Scores and badges from the terminal",
		Long:          "pitchlens shows your latest analyses, submits new ones, and renders, copies, shares or saves score badges.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch s.output {
			case outputText, outputJSON, outputYAML:
			default:
				return fmt.Errorf("--output must be one of text, json, yaml; got %q", s.output)
			}

			level := slog.LevelWarn
			if s.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&s.output, "output", "o", outputText, "output format: text, json, yaml")
	pf.BoolVarP(&s.verbose, "verbose", "v", false, "log resolution details to stderr")

	root.AddCommand(
		newVersionCmd(),
		newLatestCmd(s),
		newHistoryCmd(s),
		newAnalyzeCmd(s),
		newDashboardCmd(s),
		newBadgeCmd(s),
		newEmbedCmd(s),
		newShareCmd(s),
		newCacheCmd(s),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pitchlens %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// Execute runs the command line with args. Errors are printed to stderr and
// returned.
func Execute(ctx context.Context, build Builder, args []string, stdout, stderr io.Writer) error {
	s := &session{build: build}
	defer s.close()

	root := newRootCmd(s)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return err
	}
	return nil
}
