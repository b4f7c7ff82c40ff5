// Package file provides a JSON file implementation of the ObjectStore interface.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/hbnb/hbnb/internal/metrics"
	"github.com/hbnb/hbnb/pkg/hbnb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Backend is the metrics label of this store.
const Backend = "file"

// DefaultPath is the backing file used when none is configured.
const DefaultPath = "file.json"

// ErrMalformedDocument is returned by Reload when the backing file is not a
// valid store document.
var ErrMalformedDocument = errors.New("malformed store document")

var _ hbnb.ObjectStore = (*Store)(nil)

var tracer = otel.Tracer("github.com/hbnb/hbnb/internal/store/file")

// Config holds file store configuration.
type Config struct {
	// Path is the backing file. Defaults to DefaultPath.
	Path     string
	Registry *hbnb.Registry
	Metrics  *metrics.Collector
	Logger   *zap.Logger
}

// Store implements ObjectStore on a single JSON file.
//
// Save truncates and rewrites the file in place. A crash mid-write can
// leave a corrupt file.
type Store struct {
	path      string
	objects   map[string]hbnb.Entity
	registry  *hbnb.Registry
	validator *documentValidator
	metrics   *metrics.Collector
	logger    *zap.Logger

	// mu guards objects and serializes file access.
	mu sync.RWMutex
}

// NewStore creates an empty store backed by cfg.Path. It does not read the
// file; call Reload.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Registry == nil {
		cfg.Registry = hbnb.DefaultRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	validator, err := newDocumentValidator()
	if err != nil {
		return nil, err
	}

	return &Store{
		path:      cfg.Path,
		objects:   make(map[string]hbnb.Entity),
		registry:  cfg.Registry,
		validator: validator,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With(zap.String("store", Backend), zap.String("path", cfg.Path)),
	}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// All returns the entities matching kind.
func (s *Store) All(kind string) map[string]hbnb.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]hbnb.Entity)
	for key, e := range s.objects {
		if hbnb.MatchesKind(e, kind) {
			result[key] = e
		}
	}
	return result
}

// Get returns the entity stored under kind and id.
func (s *Store) Get(kind, id string) (hbnb.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.objects[hbnb.KeyFor(kind, id)]
	if !ok {
		return nil, hbnb.ErrNotFound
	}
	return e, nil
}

// Count returns the number of entities matching kind.
func (s *Store) Count(kind string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if kind == "" || kind == hbnb.KindBaseModel {
		return len(s.objects)
	}
	n := 0
	for _, e := range s.objects {
		if hbnb.MatchesKind(e, kind) {
			n++
		}
	}
	return n
}

// New inserts or overwrites the entity at its composite key.
func (s *Store) New(entity hbnb.Entity) {
	if entity == nil {
		return
	}

	s.mu.Lock()
	s.objects[hbnb.Key(entity)] = entity
	s.updateGauge()
	s.mu.Unlock()
}

// Delete removes the entity's composite key if present.
func (s *Store) Delete(entity hbnb.Entity) {
	if entity == nil {
		return
	}

	s.mu.Lock()
	delete(s.objects, hbnb.Key(entity))
	s.updateGauge()
	s.mu.Unlock()
}

// Save writes every entity to the backing file.
func (s *Store) Save(ctx context.Context) error {
	_, span := tracer.Start(ctx, "store.Save")
	defer span.End()

	start := time.Now()
	s.mu.Lock()
	n, err := s.save()
	s.mu.Unlock()
	s.metrics.RecordOperation(Backend, metrics.OpSave, time.Since(start), n, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("store.objects", n))
	s.logger.Debug("saved objects", zap.Int("count", n))
	return nil
}

// save must be called with mu held.
func (s *Store) save() (int, error) {
	doc := make(map[string]map[string]any, len(s.objects))
	for key, e := range s.objects {
		fields, err := e.ToMap()
		if err != nil {
			return 0, fmt.Errorf("failed to serialize %s: %w", key, err)
		}
		doc[key] = fields
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return len(doc), nil
}

// Reload reads the backing file and inserts every entity it holds,
// overwriting existing keys. A missing file is not an error.
func (s *Store) Reload(ctx context.Context) error {
	return s.reload(ctx, metrics.OpReload, false)
}

// Close discards the in-memory state and reloads it from the backing file.
// It never writes.
func (s *Store) Close(ctx context.Context) error {
	return s.reload(ctx, metrics.OpClose, true)
}

func (s *Store) reload(ctx context.Context, op string, replace bool) error {
	_, span := tracer.Start(ctx, "store."+op)
	defer span.End()

	start := time.Now()
	s.mu.Lock()
	loaded, err := s.load()
	if err == nil {
		if replace {
			s.objects = make(map[string]hbnb.Entity, len(loaded))
		}
		for key, e := range loaded {
			s.objects[key] = e
		}
		s.updateGauge()
	}
	s.mu.Unlock()
	s.metrics.RecordOperation(Backend, op, time.Since(start), len(loaded), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("store.objects", len(loaded)))
	s.logger.Debug("reloaded objects", zap.String("op", op), zap.Int("count", len(loaded)))
	return nil
}

// load decodes the backing file. A missing file yields an empty result.
// Nothing is returned unless every record decodes.
func (s *Store) load() (map[string]hbnb.Entity, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	if err := s.validator.Validate(data); err != nil {
		return nil, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	// Records are rekeyed by kind and id. When two records share a key, the
	// one stored under that key wins, otherwise the last in key order.
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	loaded := make(map[string]hbnb.Entity, len(doc))
	canonical := make(map[string]bool, len(doc))
	for _, key := range keys {
		raw := doc[key]
		e, err := s.registry.Decode(raw)
		if errors.Is(err, hbnb.ErrUnknownKind) {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrMalformedDocument, key, err)
		}
		k := hbnb.Key(e)
		if canonical[k] {
			s.logger.Warn("duplicate record ignored", zap.String("key", key), zap.String("object", k))
			continue
		}
		if _, dup := loaded[k]; dup {
			s.logger.Warn("duplicate record replaced", zap.String("key", key), zap.String("object", k))
		}
		loaded[k] = e
		canonical[k] = key == k
	}
	return loaded, nil
}

// updateGauge must be called with mu held.
func (s *Store) updateGauge() {
	if s.metrics == nil {
		return
	}
	counts := make(map[string]int)
	for _, e := range s.objects {
		counts[e.GetKind()]++
	}
	s.metrics.SetObjectCounts(Backend, counts)
}
