package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "create <Kind> [key=value...]",
		Short: "Create an object and print its id",
		Long: `Create an object of the given kind, set the given attributes and save it.

Attributes the kind declares are converted to their type. Other attributes
are kept as given: a double-quoted value is a string, a value containing a
dot is a float and anything else must be an integer. Inside double quotes
underscores become spaces. Single-quote the assignment so the shell keeps
the double quotes.

Examples:
  hbnbctl create State 'name="California"' population=39000000
  hbnbctl create Place city_id=0001 user_id=0001 'name="My_little_house"' number_rooms=4 latitude=37.77`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			e, err := c.registry.Create(kind)
			if err != nil {
				return err
			}

			attrs := make(map[string]attribute, len(args)-1)
			for _, arg := range args[1:] {
				key, value, err := parseAssignment(arg)
				if err != nil {
					return err
				}
				attrs[key] = value
			}
			if len(attrs) > 0 {
				if e, err = applyAttributes(c.registry, e, attrs); err != nil {
					return err
				}
			}

			c.store.New(e)
			if err := c.store.Save(cmd.Context()); err != nil {
				return fmt.Errorf("failed to save: %w", err)
			}

			names := make([]string, 0, len(attrs))
			for name := range attrs {
				names = append(names, name)
			}
			c.audit.LogCreate(e, names)

			fmt.Fprintln(cmd.OutOrStdout(), e.GetID())
			return nil
		},
	}
}
