// Package badger provides a BadgerDB implementation of the ObjectStore interface.
package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/hbnb/hbnb/internal/metrics"
	"github.com/hbnb/hbnb/pkg/hbnb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Backend is the metrics label of this store.
const Backend = "badger"

var _ hbnb.ObjectStore = (*Store)(nil)

var tracer = otel.Tracer("github.com/hbnb/hbnb/internal/store/badger")

// objectPrefix namespaces entity records in the database.
var objectPrefix = []byte("/objects/")

// Config holds badger store configuration.
type Config struct {
	// DataDir holds the database; it is created if missing.
	DataDir    string
	Registry   *hbnb.Registry
	Metrics    *metrics.Collector
	Logger     *zap.Logger
	GCInterval time.Duration
}

// Store implements ObjectStore using BadgerDB as the backing resource.
// Entities live in memory between Save and Reload exactly as with the file
// store; the database only replaces the JSON file.
type Store struct {
	db       *badger.DB
	objects  map[string]hbnb.Entity
	registry *hbnb.Registry
	metrics  *metrics.Collector
	logger   *zap.Logger
	mu       sync.RWMutex

	gcInterval time.Duration
	stopCh     chan struct{}
	stopWg     sync.WaitGroup
	stopOnce   sync.Once
}

// NewStore opens a BadgerDB store under cfg.DataDir. It does not load any
// entity; call Reload.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Registry == nil {
		cfg.Registry = hbnb.DefaultRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 5 * time.Minute
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.DataDir, "badger"))
	opts.Logger = nil // Disable Badger's default logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:         db,
		objects:    make(map[string]hbnb.Entity),
		registry:   cfg.Registry,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With(zap.String("store", Backend), zap.String("dir", cfg.DataDir)),
		gcInterval: cfg.GCInterval,
		stopCh:     make(chan struct{}),
	}

	// Start background goroutine for value log GC
	s.stopWg.Add(1)
	go s.runBackgroundTasks()

	return s, nil
}

// runBackgroundTasks runs background maintenance tasks.
func (s *Store) runBackgroundTasks() {
	defer s.stopWg.Done()

	gcTicker := time.NewTicker(s.gcInterval)
	defer gcTicker.Stop()

	for {
		select {
		case <-gcTicker.C:
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		case <-s.stopCh:
			return
		}
	}
}

// key constructs a storage key from an entity's composite key.
func (s *Store) key(compositeKey string) []byte {
	return append(append([]byte{}, objectPrefix...), compositeKey...)
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

// Save replaces every stored record with the in-memory entities. Records
// are written in a batch, so a store of any size fits; a failed Save may
// leave part of the batch applied.
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
	records := make(map[string][]byte, len(s.objects))
	for key, e := range s.objects {
		fields, err := e.ToMap()
		if err != nil {
			return 0, fmt.Errorf("failed to serialize %s: %w", key, err)
		}
		data, err := json.Marshal(fields)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		records[key] = data
	}

	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = objectPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().KeyCopy(nil)
			if _, ok := records[string(bytes.TrimPrefix(k, objectPrefix))]; !ok {
				stale = append(stale, k)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan keys: %w", err)
	}

	// A write batch splits into as many transactions as the store needs.
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, k := range stale {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("failed to delete key: %w", err)
		}
	}
	for key, data := range records {
		if err := wb.Set(s.key(key), data); err != nil {
			return 0, fmt.Errorf("failed to set entry: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush: %w", err)
	}
	return len(records), nil
}

// Reload reads every stored record and inserts it, overwriting existing keys.
// An empty database is not an error.
func (s *Store) Reload(ctx context.Context) error {
	return s.reload(ctx, metrics.OpReload, false)
}

// Close discards the in-memory state and reloads it from the database.
// It never writes and does not close the database; see Shutdown.
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
	s.logger.Debug("reloaded objects", zap.String("op", op), zap.Int("count", len(loaded)))
	return nil
}

// load decodes every stored record. Nothing is returned unless every record
// decodes.
func (s *Store) load() (map[string]hbnb.Entity, error) {
	loaded := make(map[string]hbnb.Entity)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = objectPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to copy value: %w", err)
			}

			e, err := s.registry.Decode(data)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", bytes.TrimPrefix(item.Key(), objectPrefix), err)
			}
			loaded[hbnb.Key(e)] = e
		}
		return nil
	})
	if err != nil {
		return nil, err
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

// Shutdown stops background tasks and closes the database. The store must
// not be used afterwards.
func (s *Store) Shutdown() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.stopWg.Wait()
		err = s.db.Close()
	})
	return err
}
