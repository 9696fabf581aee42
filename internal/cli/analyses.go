package cli

import (
	"fmt"
	"io"

	"github.com/codezelat/pitchlens/internal/resolve"
	"github.com/codezelat/pitchlens/internal/scoring"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const emptyNotice = "No analyses yet. Run `pitchlens analyze --message \"...\"` to score your first pitch."

func newLatestCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.load(cmd)
			if err != nil {
				return err
			}

			res := env.Resolver.Latest(cmd.Context())
			return s.emit(cmd.OutOrStdout(), newLatestView(res), func(w io.Writer) {
				writeLatest(w, res)
			})
		},
	}
}

func writeLatest(w io.Writer, res resolve.Resolution) {
	if res.Empty() {
		fmt.Fprintln(w, noticeStyle.Render(emptyNotice))
		return
	}
	writeRecord(w, res.Record)
	writeOrigin(w, res.Source, res.Snapshot)
}

func newHistoryCmd(s *session) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be a positive integer, got %d", limit)
			}
			env, err := s.load(cmd)
			if err != nil {
				return err
			}

			res := env.Resolver.Recent(cmd.Context(), limit)
			return s.emit(cmd.OutOrStdout(), newHistoryView(res), func(w io.Writer) {
				writeHistory(w, res)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", resolve.DefaultHistoryLimit, "number of analyses to show")
	return cmd
}

func writeHistory(w io.Writer, res resolve.ListResolution) {
	if res.Empty() {
		fmt.Fprintln(w, noticeStyle.Render(emptyNotice))
		return
	}
	for _, r := range res.Records {
		writeHistoryLine(w, r)
	}
	writeOrigin(w, res.Source, res.Snapshot)
}

func newAnalyzeCmd(s *session) *cobra.Command {
	var flags struct {
		message    string
		url        string
		tone       string
		toneSlider int
		persona    string
	}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a message or landing page URL",
		Example: `  pitchlens analyze --message "Ship faster with fewer incidents" --tone casual
  pitchlens analyze --url https://example.com --persona authoritative`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := scoring.AnalyzeInput{
				Tone:    flags.tone,
				Persona: flags.persona,
			}
			f := cmd.Flags()
			if f.Changed("message") {
				in.Message = &flags.message
			}
			if f.Changed("url") {
				in.URL = &flags.url
			}
			if f.Changed("tone-slider") {
				in.ToneSlider = &flags.toneSlider
			}

			req, err := in.Request()
			if err != nil {
				return err
			}

			env, err := s.load(cmd)
			if err != nil {
				return err
			}

			rec, err := env.Resolver.Submit(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}
			return s.emit(cmd.OutOrStdout(), newRecordView(rec), func(w io.Writer) {
				writeRecord(w, rec)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.message, "message", "m", "", "message to analyze")
	f.StringVarP(&flags.url, "url", "u", "", "landing page URL to analyze")
	f.StringVar(&flags.tone, "tone", "", "tone: professional, casual, enthusiastic")
	f.IntVar(&flags.toneSlider, "tone-slider", 0, "tone as a 0-100 slider value; ignored when --tone is set")
	f.StringVar(&flags.persona, "persona", "", "persona: expert, friendly, authoritative")
	return cmd
}

type dashboardView struct {
	Latest  latestView  `json:"latest" yaml:"latest"`
	History historyView `json:"history" yaml:"history"`
}

func newDashboardCmd(s *session) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the latest analysis and recent history together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.load(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			view := resolve.Watch(ctx)
			defer view.Close()
			tok := view.Begin()

			var (
				latest  resolve.Resolution
				history resolve.ListResolution
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				env.Resolver.LatestInto(gctx, tok, func(r resolve.Resolution) { latest = r })
				return nil
			})
			g.Go(func() error {
				env.Resolver.RecentInto(gctx, tok, limit, func(r resolve.ListResolution) { history = r })
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}
			if !tok.Alive() {
				return ctx.Err()
			}

			v := dashboardView{Latest: newLatestView(latest), History: newHistoryView(history)}
			return s.emit(cmd.OutOrStdout(), v, func(w io.Writer) {
				writeLatest(w, latest)
				if !history.Empty() {
					fmt.Fprintln(w)
					fmt.Fprintln(w, titleStyle.Render("Recent"))
					writeHistory(w, history)
				}
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", resolve.DefaultHistoryLimit, "number of analyses in the history pane")
	return cmd
}
