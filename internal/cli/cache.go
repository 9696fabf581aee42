package cli

import (
	"fmt"
	"io"

	"github.com/codezelat/pitchlens/internal/resolve"
	"github.com/spf13/cobra"
)

func newCacheCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the cached snapshot",
	}
	cmd.AddCommand(newCacheShowCmd(s), newCacheClearCmd(s))
	return cmd
}

type cacheView struct {
	Key        string `json:"key" yaml:"key"`
	Present    bool   `json:"present" yaml:"present"`
	originView `yaml:",inline"`
	Record     *recordView `json:"record,omitempty" yaml:"record,omitempty"`
}

func newCacheShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the snapshot used when the scoring service is unreachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.load(cmd)
			if err != nil {
				return err
			}

			v := cacheView{Key: env.Snapshots.Key()}
			snap, ok := env.Snapshots.ReadSnapshot(cmd.Context())
			if ok {
				rv := newRecordView(snap.Record)
				v.Present = true
				v.originView = newOriginView(resolve.SourceCache, &snap)
				v.Record = &rv
			} else {
				v.originView = newOriginView(resolve.SourceEmpty, nil)
			}

			return s.emit(cmd.OutOrStdout(), v, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s\n", labelStyle.Render("key"), v.Key)
				if !ok {
					fmt.Fprintln(w, noticeStyle.Render("No snapshot cached."))
					return
				}
				if snap.Legacy {
					fmt.Fprintln(w, noticeStyle.Render("Saved without a timestamp; age is measured from the analysis time."))
				}
				writeRecord(w, snap.Record)
				writeOrigin(w, resolve.SourceCache, &snap)
			})
		},
	}
}

func newCacheClearCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.load(cmd)
			if err != nil {
				return err
			}
			env.Snapshots.Clear(cmd.Context())
			fmt.Fprintln(cmd.ErrOrStderr(), "Snapshot cleared.")
			return nil
		},
	}
}
