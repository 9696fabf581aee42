package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/codezelat/pitchlens/internal/badge"
	"github.com/codezelat/pitchlens/internal/export"
	"github.com/codezelat/pitchlens/internal/resolve"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	sourceFlag          = "flag"
	surfaceUnavailable  = "Rendering surface unavailable; no PNG was produced."
	noAnalysisScoreNote = "No analysis found; using score 0."
)

// scoreFor picks the badge score: the --score flag when given, otherwise the
// latest resolved analysis, otherwise 0.
func scoreFor(cmd *cobra.Command, env *Env, flagScore int) (int, string, error) {
	if cmd.Flags().Changed("score") {
		if flagScore < 0 {
			return 0, "", fmt.Errorf("--score must be a non-negative integer, got %d", flagScore)
		}
		return flagScore, sourceFlag, nil
	}

	res := env.Resolver.Latest(cmd.Context())
	if res.Empty() {
		fmt.Fprintln(cmd.ErrOrStderr(), noticeStyle.Render(noAnalysisScoreNote))
		return 0, string(res.Source), nil
	}
	if res.Source == resolve.SourceCache && res.Snapshot != nil && res.Snapshot.Stale {
		fmt.Fprintln(cmd.ErrOrStderr(), staleStyle.Render("Using a stale cached score, saved "+humanAge(res.Snapshot.Age)+" ago."))
	}
	return res.Record.Score, string(res.Source), nil
}

type badgeFileView struct {
	Path   string `json:"path" yaml:"path"`
	Style  string `json:"style" yaml:"style"`
	Format string `json:"format" yaml:"format"`
	Score  int    `json:"score" yaml:"score"`
	Source string `json:"source" yaml:"source"`
}

func newBadgeCmd(s *session) *cobra.Command {
	var flags struct {
		style  string
		format string
		dir    string
		score  int
		all    bool
	}

	cmd := &cobra.Command{
		Use:   "badge",
		Short: "Save a score badge as PNG or SVG",
		Long: `Save a score badge to disk as pitchlens-badge.png or pitchlens-badge.svg.

With --all every style is written in both formats, one directory per style.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				styles  []badge.Style
				formats []export.Format
			)
			if flags.all {
				styles = badge.Styles
				formats = []export.Format{export.FormatPNG, export.FormatSVG}
			} else {
				style, err := badge.ParseStyle(flags.style)
				if err != nil {
					return err
				}
				format, err := export.ParseFormat(flags.format)
				if err != nil {
					return err
				}
				styles = []badge.Style{style}
				formats = []export.Format{format}
			}

			env, err := s.load(cmd)
			if err != nil {
				return err
			}
			score, source, err := scoreFor(cmd, env, flags.score)
			if err != nil {
				return err
			}

			var (
				mu      sync.Mutex
				written []badgeFileView
				skipped bool
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(2)
			for _, style := range styles {
				dir := flags.dir
				if flags.all {
					dir = filepath.Join(flags.dir, string(style))
				}
				for _, format := range formats {
					g.Go(func() error {
						data, err := export.Render(ctx, env.Raster, style, format, score)
						if errors.Is(err, badge.ErrSurfaceUnavailable) {
							mu.Lock()
							skipped = true
							mu.Unlock()
							return nil
						}
						if err != nil {
							return fmt.Errorf("render %s %s: %w", style, format, err)
						}
						path, err := export.WriteFile(dir, format, data)
						if err != nil {
							return err
						}

						mu.Lock()
						written = append(written, badgeFileView{
							Path: path, Style: string(style), Format: string(format),
							Score: score, Source: source,
						})
						mu.Unlock()
						return nil
					})
				}
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if skipped {
				fmt.Fprintln(cmd.ErrOrStderr(), noticeStyle.Render(surfaceUnavailable))
			}
			if written == nil {
				written = []badgeFileView{}
			}
			return s.emit(cmd.OutOrStdout(), written, func(w io.Writer) {
				for _, f := range written {
					fmt.Fprintf(w, "%s %s\n", liveStyle.Render("saved"), f.Path)
				}
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.style, "style", string(badge.Hero), "badge style: hero, compact, minimal")
	f.StringVar(&flags.format, "format", string(export.FormatPNG), "file format: png, svg")
	f.StringVarP(&flags.dir, "dir", "d", ".", "directory to write into")
	f.IntVar(&flags.score, "score", 0, "render this score instead of the latest analysis")
	f.BoolVar(&flags.all, "all", false, "write every style in both formats")
	return cmd
}

type embedView struct {
	Style  string             `json:"style" yaml:"style"`
	Score  int                `json:"score" yaml:"score"`
	HTML   string             `json:"html" yaml:"html"`
	Copied *export.CopyResult `json:"copied,omitempty" yaml:"copied,omitempty"`
}

func newEmbedCmd(s *session) *cobra.Command {
	var flags struct {
		style string
		score int
		copy  bool
	}

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Print the HTML embed snippet for a badge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			style, err := badge.ParseStyle(flags.style)
			if err != nil {
				return err
			}
			env, err := s.load(cmd)
			if err != nil {
				return err
			}
			score, _, err := scoreFor(cmd, env, flags.score)
			if err != nil {
				return err
			}

			html, err := badge.Embed(style, score)
			if err != nil {
				return err
			}

			v := embedView{Style: string(style), Score: score, HTML: html}
			if flags.copy {
				res := env.Clipboard.Copy(cmd.Context(), html)
				v.Copied = &res
				msg := liveStyle.Render(res.Message)
				if !res.OK {
					msg = staleStyle.Render(res.Message)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}
			return s.emit(cmd.OutOrStdout(), v, func(w io.Writer) {
				fmt.Fprintln(w, html)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.style, "style", string(badge.Hero), "badge style: hero, compact, minimal")
	f.IntVar(&flags.score, "score", 0, "embed this score instead of the latest analysis")
	f.BoolVarP(&flags.copy, "copy", "c", false, "copy the snippet to the clipboard")
	return cmd
}

type shareView struct {
	Platform string `json:"platform" yaml:"platform"`
	URL      string `json:"url" yaml:"url"`
	Message  string `json:"message" yaml:"message"`
	Score    int    `json:"score" yaml:"score"`
}

func newShareCmd(s *session) *cobra.Command {
	var flags struct {
		score int
		open  bool
	}

	cmd := &cobra.Command{
		Use:       "share <platform>",
		Short:     "Build a social share link for your score",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(export.Twitter), string(export.LinkedIn)},
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := export.ParsePlatform(args[0])
			if err != nil {
				return err
			}
			env, err := s.load(cmd)
			if err != nil {
				return err
			}
			score, _, err := scoreFor(cmd, env, flags.score)
			if err != nil {
				return err
			}

			link, err := export.ShareURL(platform, score, env.PageURL)
			if err != nil {
				return err
			}
			if flags.open {
				if err := env.Open(link); err != nil {
					return fmt.Errorf("opening browser: %w", err)
				}
			}

			v := shareView{
				Platform: string(platform),
				URL:      link,
				Message:  export.ShareMessage(score),
				Score:    score,
			}
			return s.emit(cmd.OutOrStdout(), v, func(w io.Writer) {
				fmt.Fprintln(w, link)
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.score, "score", 0, "share this score instead of the latest analysis")
	f.BoolVar(&flags.open, "open", false, "open the share link in the default browser")
	return cmd
}
