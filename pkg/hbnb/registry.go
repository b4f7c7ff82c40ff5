package hbnb

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Factory returns a new, empty entity of one kind.
type Factory func() Entity

// Registry maps kind tags to factories. It is the closed set of kinds a
// store can reconstruct from its backing resource; tags outside it are
// rejected with ErrUnknownKind.
type Registry struct {
	factories map[string]Factory
	// fields holds the declared field names of each kind.
	fields map[string]map[string]bool
}

// strictFields must decode into their declared type.
var strictFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		fields:    make(map[string]map[string]bool),
	}
}

// DefaultRegistry returns a registry holding every hbnb kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindBaseModel, func() Entity { return &BaseModel{} })
	r.Register(KindState, func() Entity { return &State{} })
	r.Register(KindCity, func() Entity { return &City{} })
	r.Register(KindUser, func() Entity { return &User{} })
	r.Register(KindPlace, func() Entity { return &Place{} })
	r.Register(KindReview, func() Entity { return &Review{} })
	r.Register(KindAmenity, func() Entity { return &Amenity{} })
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, factory Factory) {
	r.factories[kind] = factory

	declared := make(map[string]bool)
	if fields, err := factory().ToMap(); err == nil {
		for name := range fields {
			declared[name] = true
		}
	}
	delete(declared, ClassKey)
	r.fields[kind] = declared
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	_, ok := r.factories[kind]
	return ok
}

// Declares reports whether name is a declared field of kind.
func (r *Registry) Declares(kind, name string) bool {
	return r.fields[kind][name]
}

// Create returns a new entity of kind with a fresh id and timestamps.
func (r *Registry) Create(kind string) (Entity, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	e := factory()
	if b, ok := e.(interface{ base() *BaseModel }); ok {
		b.base().ensureBase()
	}
	return e, nil
}

// Decode reconstructs an entity from a serialized record, dispatching on
// the record's ClassKey tag. No field is lost: undeclared fields, and
// declared fields whose value does not fit the Go type, are kept in
// BaseModel.Extra. A numeric string is accepted for a numeric field.
func (r *Registry) Decode(data []byte) (Entity, error) {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var class string
	if raw, ok := record[ClassKey]; ok {
		if err := json.Unmarshal(raw, &class); err != nil {
			return nil, fmt.Errorf("failed to read kind tag: %w", err)
		}
	}

	factory, ok := r.factories[class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, class)
	}

	e := factory()
	declared := r.fields[class]
	extra := make(map[string]any)

	// Sorted so that errors are reported deterministically
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == ClassKey {
			continue
		}
		raw := record[name]

		if declared[name] {
			err := decodeField(e, name, raw)
			if err == nil {
				continue
			}
			if strictFields[name] {
				return nil, fmt.Errorf("failed to unmarshal %s.%s: %w", class, name, err)
			}
		}

		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s.%s: %w", class, name, err)
		}
		extra[name] = value
	}

	if b, ok := e.(interface{ base() *BaseModel }); ok {
		if len(extra) > 0 {
			b.base().Extra = extra
		}
		b.base().ensureBase()
	}
	return e, nil
}

// decodeField unmarshals one field into e. A JSON string holding a number
// is retried as that number.
func decodeField(e Entity, name string, raw json.RawMessage) error {
	err := unmarshalField(e, name, raw)
	if err == nil {
		return nil
	}

	var s string
	if json.Unmarshal(raw, &s) != nil {
		return err
	}
	if _, perr := strconv.ParseFloat(strings.TrimSpace(s), 64); perr != nil {
		return err
	}
	if unmarshalField(e, name, json.RawMessage(strings.TrimSpace(s))) == nil {
		return nil
	}
	return err
}

func unmarshalField(e Entity, name string, raw json.RawMessage) error {
	data, err := json.Marshal(map[string]json.RawMessage{name: raw})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, e)
}

// DecodeMap reconstructs an entity from a flat field mapping.
func (r *Registry) DecodeMap(fields map[string]any) (Entity, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	return r.Decode(data)
}
