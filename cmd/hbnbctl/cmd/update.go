package cmd

import (
	"fmt"

	"github.com/hbnb/hbnb/pkg/hbnb"
	"github.com/spf13/cobra"
)

func newUpdateCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "update <Kind> <id> <attribute> <value>",
		Short: "Set one attribute of an object and save the store",
		Long: `Set one attribute of an object and save the store. The value is
converted to the attribute's type; a new attribute is stored as a string.
Surrounding double quotes are stripped.

Examples:
  hbnbctl update User 1234-1234-1234 email '"aibnb@mail.com"'
  hbnbctl update Place 1234-1234-1234 amenity_ids wifi,pool
  hbnbctl update State 1234-1234-1234 motto Eureka`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.lookup(args[0], args[1])
			if err != nil {
				return err
			}

			value, _ := unquote(args[3])
			attrs := map[string]attribute{args[2]: {raw: value, quoted: true}}
			updated, err := applyAttributes(c.registry, e, attrs)
			if err != nil {
				return err
			}
			if t, ok := updated.(interface{ Touch() }); ok {
				t.Touch()
			}

			c.store.New(updated)
			if err := c.store.Save(cmd.Context()); err != nil {
				return fmt.Errorf("failed to save: %w", err)
			}

			c.audit.LogUpdate(updated, []string{args[2]})

			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", hbnb.Key(updated))
			return nil
		},
	}
}
