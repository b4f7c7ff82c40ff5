package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hbnb/hbnb/pkg/hbnb"
)

// reserved attributes are managed by the store and cannot be set.
var reserved = map[string]bool{
	hbnb.ClassKey: true,
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
}

const passwordAttr = "password"

// attribute is a value given on the command line.
type attribute struct {
	raw string
	// quoted values are always text.
	quoted bool
}

// parseAssignment splits key=value. A double-quoted value is unquoted and
// its underscores become spaces, so `name="New_York"` sets "New York".
func parseAssignment(arg string) (string, attribute, error) {
	key, value, ok := strings.Cut(arg, "=")
	if !ok || key == "" {
		return "", attribute{}, fmt.Errorf("%w: expected key=value, got %q", hbnb.ErrInvalidInput, arg)
	}
	if unquoted, ok := unquote(value); ok {
		return key, attribute{raw: strings.ReplaceAll(unquoted, "_", " "), quoted: true}, nil
	}
	return key, attribute{raw: value}, nil
}

// unquote strips surrounding double quotes and unescapes inner ones.
func unquote(s string) (string, bool) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s, false
	}
	return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`), true
}

// coerce converts raw to the JSON type of the current attribute value.
func coerce(name string, current any, raw string) (any, error) {
	switch current.(type) {
	case string:
		return raw, nil
	case float64:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", hbnb.ErrInvalidInput, name)
		}
		return n, nil
	case []any, nil:
		if raw == "" {
			return []any{}, nil
		}
		var list []any
		for _, item := range strings.Split(raw, ",") {
			list = append(list, strings.TrimSpace(item))
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%w: %s cannot be set", hbnb.ErrInvalidInput, name)
	}
}

// infer types a value for an attribute the kind does not declare. Quoted
// values are strings, values containing a dot are floats, anything else
// must be an integer.
func infer(name string, a attribute) (any, error) {
	if a.quoted {
		return a.raw, nil
	}
	if strings.Contains(a.raw, ".") {
		f, err := strconv.ParseFloat(a.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be quoted, a float or an integer", hbnb.ErrInvalidInput, name)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(a.raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be quoted, a float or an integer", hbnb.ErrInvalidInput, name)
	}
	return n, nil
}

// applyAttributes returns a copy of e with attrs set. Attributes the kind
// declares are typed after their current value, others are inferred. A
// password attribute is stored hashed.
func applyAttributes(registry *hbnb.Registry, e hbnb.Entity, attrs map[string]attribute) (hbnb.Entity, error) {
	kind := e.GetKind()
	fields, err := e.ToMap()
	if err != nil {
		return nil, err
	}

	for name, a := range attrs {
		if reserved[name] {
			return nil, fmt.Errorf("%w: %s is read-only", hbnb.ErrInvalidInput, name)
		}

		var value any
		if current, ok := fields[name]; ok {
			value, err = coerce(name, current, a.raw)
		} else {
			value, err = infer(name, a)
		}
		if err != nil {
			return nil, err
		}
		fields[name] = value
	}

	updated, err := registry.DecodeMap(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", hbnb.ErrInvalidInput, err)
	}

	// A declared attribute that did not fit its type is kept aside by the
	// decoder; reject it here instead.
	if b, ok := updated.(interface{ GetExtra() map[string]any }); ok {
		extra := b.GetExtra()
		for name := range attrs {
			if _, ok := extra[name]; ok && registry.Declares(kind, name) {
				return nil, fmt.Errorf("%w: invalid value for %s.%s", hbnb.ErrInvalidInput, kind, name)
			}
		}
	}

	if a, ok := attrs[passwordAttr]; ok {
		if user, ok := updated.(*hbnb.User); ok {
			if err := user.SetPassword(a.raw); err != nil {
				return nil, err
			}
		}
	}
	return updated, nil
}
