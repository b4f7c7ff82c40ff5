// Package hbnb provides the core entity types and the object store contract.
package hbnb

import (
	"context"
	"time"
)

// Entity is the base interface for all hbnb records.
// All entities must implement this interface to be stored and managed.
type Entity interface {
	// GetKind returns the entity kind (e.g., "State", "City", "Place").
	GetKind() string

	// GetID returns the identifier, unique within the kind.
	GetID() string

	// GetCreatedAt returns when the entity was created.
	GetCreatedAt() time.Time

	// GetUpdatedAt returns when the entity was last updated.
	GetUpdatedAt() time.Time

	// ToMap returns the flat field mapping of the entity, tagged with its
	// kind under ClassKey.
	ToMap() (map[string]any, error)
}

// ObjectStore is an in-process registry of live entities with bulk
// persistence to a single backing resource.
//
// Implementations in this module guard their state with a mutex so one
// store may be shared by concurrent request handlers.
type ObjectStore interface {
	// All returns the entities matching kind, keyed by "<Kind>.<id>".
	// An empty kind returns every entity. The returned map is a copy and
	// may be modified by the caller; the entities are shared.
	All(kind string) map[string]Entity

	// New inserts or overwrites the entity at its composite key.
	// A nil entity is ignored.
	New(entity Entity)

	// Save writes every entity to the backing resource, replacing its
	// previous content.
	Save(ctx context.Context) error

	// Reload reads the backing resource and inserts every decoded entity,
	// overwriting existing keys. A missing resource is not an error.
	Reload(ctx context.Context) error

	// Delete removes the entity's composite key if present.
	// A nil entity or an absent key is ignored.
	Delete(entity Entity)

	// Close re-synchronizes the in-memory state from the backing resource.
	// It does not flush: every unsaved change is discarded and the store
	// holds exactly what the backing resource holds (nothing, if it is
	// missing). On error the in-memory state is left untouched.
	Close(ctx context.Context) error

	// Get returns the entity stored under kind and id.
	// Returns ErrNotFound if the key is absent.
	Get(kind, id string) (Entity, error)

	// Count returns the number of entities matching kind.
	Count(kind string) int
}
