// Package cmd implements the hbnbctl commands.
package cmd

import (
	"errors"
	"fmt"

	"github.com/hbnb/hbnb/internal/audit"
	"github.com/hbnb/hbnb/internal/config"
	"github.com/hbnb/hbnb/internal/store"
	"github.com/hbnb/hbnb/pkg/hbnb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// console holds the state shared by every subcommand of one invocation.
type console struct {
	v        *viper.Viper
	cfgFile  string
	registry *hbnb.Registry

	store   store.Store
	release func() error
	logger  *zap.Logger
	audit   *audit.Logger
}

// newRootCommand builds the hbnbctl command tree. The caller must close the
// returned console once the command has run.
func newRootCommand() (*cobra.Command, *console) {
	c := &console{
		v:        config.New(),
		registry: hbnb.DefaultRegistry(),
	}

	rootCmd := &cobra.Command{
		Use:   "hbnbctl",
		Short: "Manage hbnb objects in the configured store",
		Long: `hbnbctl creates, inspects, updates and destroys hbnb objects.

Kinds: BaseModel, User, State, City, Amenity, Place, Review

Examples:
  # Create a State
  hbnbctl create State 'name="California"'

  # List every City as YAML
  hbnbctl all City -o yaml

  # Rename a State
  hbnbctl update State 0f3c... name "Nevada"`,
		Version:           "0.1.0",
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
	}

	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./hbnb.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table, json, yaml, name)")
	_ = c.v.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	config.AddStorageFlags(c.v, rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newCreateCmd(c),
		newShowCmd(c),
		newDestroyCmd(c),
		newAllCmd(c),
		newCountCmd(c),
		newUpdateCmd(c),
	)

	return rootCmd, c
}

// Execute runs hbnbctl with os.Args.
func Execute() error {
	rootCmd, c := newRootCommand()
	return execute(rootCmd, c)
}

// execute runs rootCmd and then releases the store, reporting both errors.
func execute(rootCmd *cobra.Command, c *console) (err error) {
	defer func() {
		if cerr := c.close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to release store: %w", cerr))
		}
	}()
	return rootCmd.Execute()
}

// open loads the configuration and the store.
func (c *console) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	c.logger = logger
	c.audit = audit.NewLogger(logger)

	scfg := cfg.StoreConfig(nil, logger)
	scfg.Registry = c.registry
	s, release, err := store.Open(scfg)
	if err != nil {
		return err
	}
	c.store, c.release = s, release

	if err := s.Reload(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	return nil
}

// close releases the store. It is safe to call when open never ran.
func (c *console) close() error {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	if c.release == nil {
		return nil
	}
	return c.release()
}

// checkKind returns an error unless kind is registered.
func (c *console) checkKind(kind string) error {
	if !c.registry.Has(kind) {
		return fmt.Errorf("%w: %q", hbnb.ErrUnknownKind, kind)
	}
	return nil
}

// lookup returns the object kind.id.
func (c *console) lookup(kind, id string) (hbnb.Entity, error) {
	if err := c.checkKind(kind); err != nil {
		return nil, err
	}
	e, err := c.store.Get(kind, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", hbnb.KeyFor(kind, id), err)
	}
	return e, nil
}

func (c *console) format() OutputFormat {
	return GetOutputFormat(c.v)
}
