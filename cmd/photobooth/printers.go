package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPrintersCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "printers",
		Short: "List the printers known to the print command",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			names := newPrinter(cfg).List(cmd.Context())
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no printers found")
				return nil
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
