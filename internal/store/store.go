// Package store selects and opens the object store backend.
package store

import (
	"fmt"

	"github.com/hbnb/hbnb/internal/metrics"
	"github.com/hbnb/hbnb/internal/store/badger"
	"github.com/hbnb/hbnb/internal/store/file"
	"github.com/hbnb/hbnb/pkg/hbnb"
	"go.uber.org/zap"
)

// Store is the object store interface served to consumers.
// This is an alias for hbnb.ObjectStore to allow for future extensions.
type Store = hbnb.ObjectStore

// Backend types.
const (
	TypeFile   = "file"
	TypeBadger = "badger"
)

// Config selects a backend and its location.
type Config struct {
	// Type is TypeFile (default) or TypeBadger.
	Type string
	// Path is the JSON file of the file backend.
	Path string
	// Dir is the data directory of the badger backend.
	Dir      string
	Registry *hbnb.Registry
	Metrics  *metrics.Collector
	Logger   *zap.Logger
}

// Open creates the configured store and a function releasing its resources.
// The store is empty until Reload is called.
func Open(cfg Config) (Store, func() error, error) {
	switch cfg.Type {
	case "", TypeFile:
		s, err := file.NewStore(file.Config{
			Path:     cfg.Path,
			Registry: cfg.Registry,
			Metrics:  cfg.Metrics,
			Logger:   cfg.Logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil

	case TypeBadger:
		if cfg.Dir == "" {
			return nil, nil, fmt.Errorf("%w: badger storage requires a data directory", hbnb.ErrInvalidInput)
		}
		s, err := badger.NewStore(badger.Config{
			DataDir:  cfg.Dir,
			Registry: cfg.Registry,
			Metrics:  cfg.Metrics,
			Logger:   cfg.Logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Shutdown, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown storage type %q", hbnb.ErrInvalidInput, cfg.Type)
	}
}
