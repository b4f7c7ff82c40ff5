// Command hbnbd serves the hbnb web views backed by the object store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hbnb/hbnb/internal/config"
	"github.com/hbnb/hbnb/internal/metrics"
	"github.com/hbnb/hbnb/internal/observability"
	"github.com/hbnb/hbnb/internal/store"
	"github.com/hbnb/hbnb/internal/web"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	v := config.New()

	cmd := &cobra.Command{
		Use:   "hbnbd",
		Short: "Serve the hbnb web views",
		Long: `hbnbd serves the hbnb HTML views and status API.

Configuration is read from flags, HBNB_* environment variables and an
optional hbnb.yaml in the working directory.

Examples:
  # Serve file.json on port 5000
  hbnbd

  # Serve a badger store
  hbnbd --storage-type badger --storage-dir /var/lib/hbnb`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./hbnb.yaml)")
	config.AddStorageFlags(v, cmd.Flags())
	config.AddServerFlags(v, cmd.Flags())

	return cmd
}

// app is a wired hbnbd instance.
type app struct {
	server  *web.Server
	store   store.Store
	release func() error
	obs     *observability.Observability
	logger  *zap.Logger
}

// newApp opens and loads the store and builds the web server.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	collector := metrics.NewCollector(logger)

	var obs *observability.Observability
	if cfg.Tracing.Enabled {
		var err error
		obs, err = observability.NewObservability(observability.Config{
			ServiceName: "hbnbd",
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize observability: %w", err)
		}
	}

	s, release, err := store.Open(cfg.StoreConfig(collector, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	loadCtx := ctx
	if obs != nil {
		var span trace.Span
		loadCtx, span = obs.StartSpan(ctx, "hbnbd.load")
		defer span.End()
	}
	if err := s.Reload(loadCtx); err != nil {
		_ = release()
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	server, err := web.NewServer(web.Config{
		Store:         s,
		Metrics:       collector,
		Logger:        logger,
		Observability: obs,
	})
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("failed to create web server: %w", err)
	}

	logger.Info("store loaded",
		zap.String("type", cfg.Storage.Type),
		zap.Int("objects", s.Count("")),
	)

	return &app{server: server, store: s, release: release, obs: obs, logger: logger}, nil
}

// close releases the store and flushes telemetry.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if err := a.release(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release store: %w", err))
	}
	if a.obs != nil {
		if err := a.obs.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting web server", zap.String("addr", cfg.Addr()))
		if err := a.server.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("web server failed", zap.Error(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down web server", zap.Error(err))
	}
	if err := a.close(shutdownCtx); err != nil {
		logger.Error("error releasing resources", zap.Error(err))
	}
	return serveErr
}
