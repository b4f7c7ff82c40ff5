package cmd

import (
	"github.com/spf13/cobra"
)

func newShowCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:     "show <Kind> <id>",
		Aliases: []string{"get"},
		Short:   "Print one object",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.lookup(args[0], args[1])
			if err != nil {
				return err
			}
			return PrintEntity(cmd.OutOrStdout(), e, c.format())
		},
	}
}
