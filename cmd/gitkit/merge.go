package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/someoneigna/gitkit/merge"
)

func newMergeCmd(a *app) *cobra.Command {
	var (
		ffMode   string
		favor    string
		noCommit bool
		notify   bool
	)

	cmd := &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into HEAD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := merge.NewOptions()
			opts.CommitOnSuccess = !noCommit

			switch ffMode {
			case "auto":
				opts.FastForward = merge.FastForwardDefault
			case "only":
				opts.FastForward = merge.FastForwardOnly
			case "never":
				opts.FastForward = merge.NoFastForward
			default:
				return fmt.Errorf("unknown --ff mode %q (auto, only, never)", ffMode)
			}

			switch favor {
			case "normal":
				opts.FileFavor = merge.FavorNormal
			case "ours":
				opts.FileFavor = merge.FavorOurs
			case "theirs":
				opts.FileFavor = merge.FavorTheirs
			case "union":
				opts.FileFavor = merge.FavorUnion
			default:
				return fmt.Errorf("unknown --favor %q (normal, ours, theirs, union)", favor)
			}

			if notify {
				opts.NotifyFlags = merge.NotifyAll
				opts.OnNotify = func(why merge.NotifyFlags, path string) error {
					fmt.Fprintf(cmd.OutOrStdout(), "notify %#x %s\n", uint32(why), path)
					return nil
				}
			}

			result, err := a.repo.Merge(args[0], a.identity(), opts)
			if err != nil {
				return err
			}

			switch {
			case result.AlreadyUpToDate:
				fmt.Fprintln(cmd.OutOrStdout(), "Already up to date.")
			case result.FastForward:
				fmt.Fprintf(cmd.OutOrStdout(), "Fast-forwarded to %s\n", result.CommitID)
			case len(result.Conflicts) > 0:
				for _, c := range result.Conflicts {
					fmt.Fprintf(cmd.OutOrStdout(), "CONFLICT: %s (%d regions)\n", c.Path, c.Regions)
				}
				return fmt.Errorf("merge left %d conflicted files", len(result.Conflicts))
			case result.CommitID != "":
				fmt.Fprintf(cmd.OutOrStdout(), "Merged as %s\n", result.CommitID)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Merged; no commit created.")
			}

			a.logger.Debug("merge finished",
				zap.String("source", args[0]),
				zap.Bool("fast_forward", result.FastForward),
				zap.Int("merged_files", result.MergedFiles),
				zap.Int("conflicts", len(result.Conflicts)))
			return nil
		},
	}

	cmd.Flags().StringVar(&ffMode, "ff", "auto", "Fast-forward mode: auto, only or never")
	cmd.Flags().StringVar(&favor, "favor", "normal", "Conflict favor: normal, ours, theirs or union")
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "Do not create the merge commit")
	cmd.Flags().BoolVar(&notify, "notify", false, "Print checkout notifications")
	return cmd
}
