package cmd

import (
	"fmt"

	"github.com/hbnb/hbnb/pkg/hbnb"
	"github.com/spf13/cobra"
)

func newDestroyCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:     "destroy <Kind> <id>",
		Aliases: []string{"delete"},
		Short:   "Delete one object and save the store",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.lookup(args[0], args[1])
			if err != nil {
				return err
			}

			c.store.Delete(e)
			if err := c.store.Save(cmd.Context()); err != nil {
				return fmt.Errorf("failed to save: %w", err)
			}

			c.audit.LogDelete(e)

			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted\n", hbnb.Key(e))
			return nil
		},
	}
}
