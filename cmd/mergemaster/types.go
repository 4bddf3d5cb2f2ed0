package main

import (
	"fmt"
	"strings"

	"mergemaster/cmd/mergemaster/cli"

	"github.com/spf13/cobra"
)

// NewTypesCmd lists the type categories accepted by -t.
func NewTypesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the file type categories",
		Long:  `List the type categories usable with -t, including categories added in the config file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			table := g.cfg.CategoryTable()

			cli.PrintHeader(out, "File type categories:")
			for _, name := range table.Names() {
				fmt.Fprintf(out, "  %s %s\n",
					cli.FlagStyle.Render(fmt.Sprintf("%-10s", name)),
					cli.DescStyle.Render(strings.Join(table[name], " ")))
			}
			return nil
		},
	}
}
