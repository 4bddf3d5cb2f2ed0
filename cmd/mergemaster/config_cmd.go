package main

import (
	"fmt"
	"os"

	"mergemaster/cmd/mergemaster/cli"
	"mergemaster/internal/config"

	"github.com/spf13/cobra"
)

// NewConfigCmd groups configuration file commands.
func NewConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(g))
	return cmd
}

func newConfigInitCmd(g *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Long: `Write a configuration file with the default settings. Without a path the
file goes to --config, $MERGEMASTER_CONFIG or $HOME/.config/mergemaster/config.yaml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.cfgFile
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				path = os.Getenv(envConfig)
			}
			if path == "" {
				var err error
				if path, err = config.DefaultPath(); err != nil {
					return fmt.Errorf("cannot determine config path: %w", err)
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.SaveConfig(config.New(), path); err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "Wrote "+path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
