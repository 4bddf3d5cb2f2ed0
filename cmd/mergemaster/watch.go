package main

import (
	"fmt"
	"time"

	"mergemaster/cmd/mergemaster/cli"
	"mergemaster/internal/watch"
	"mergemaster/pkg/types"

	"github.com/spf13/cobra"
)

// NewWatchCmd creates a command that merges once and then keeps copying
// new files until interrupted.
func NewWatchCmd(g *globalFlags) *cobra.Command {
	f := &mergeFlags{}
	var settle int

	cmd := &cobra.Command{
		Use:   "watch -i <dirs> -o <dest>",
		Short: "Merge, then keep copying new files as they appear",
		Long: `Watch performs a normal merge and then watches the source folders.
New files that pass the same filters are copied once they have not been
written to for the settle period. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine(cmd, g, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printStart(out, engine)
			if _, err := engine.Run(cmd.Context()); err != nil {
				return err
			}

			period := time.Duration(g.cfg.Watch.SettleMillis) * time.Millisecond
			if cmd.Flags().Changed("settle") {
				if settle < 0 {
					return fmt.Errorf("settle period must be >= 0, got %d", settle)
				}
				period = time.Duration(settle) * time.Millisecond
			}

			daemon, err := watch.NewDaemon(engine, period)
			if err != nil {
				return err
			}
			daemon.SetCallback(func(r types.CopyResult, err error) {
				if err != nil {
					cli.PrintWarning(cmd.ErrOrStderr(), err.Error())
					return
				}
				verb := "Copied"
				if engine.IsDryRun() {
					verb = "Would copy"
				}
				cli.PrintSuccess(out, fmt.Sprintf("%s %s -> %s", verb, r.Task.Source(), r.Destination))
			})

			cli.PrintInfo(out, "Watching for new files. Press Ctrl+C to stop.")
			if err := daemon.Run(cmd.Context()); err != nil {
				return err
			}

			status := daemon.Status()
			cli.PrintInfo(out, fmt.Sprintf("Watch stopped: %d files copied, %d failed", status.FilesCopied, status.Failures))
			return nil
		},
	}

	addMergeFlags(cmd, f)
	cmd.Flags().IntVar(&settle, "settle", 0, "Milliseconds a new file must be unchanged before it is copied (default from config, 1000)")

	return cmd
}
