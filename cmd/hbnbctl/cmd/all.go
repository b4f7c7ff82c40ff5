package cmd

import (
	"github.com/spf13/cobra"
)

func newAllCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "all [Kind]",
		Short: "List every object, or every object of a kind",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := ""
			if len(args) == 1 {
				kind = args[0]
				if err := c.checkKind(kind); err != nil {
					return err
				}
			}
			return PrintEntities(cmd.OutOrStdout(), c.store.All(kind), c.format())
		},
	}
}
