package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCountCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "count <Kind>",
		Short: "Print the number of objects of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.checkKind(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.store.Count(args[0]))
			return nil
		},
	}
}
