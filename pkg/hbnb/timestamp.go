package hbnb

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the serialized form of entity timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// parseLayout accepts any number of fractional second digits, including none.
const parseLayout = "2006-01-02T15:04:05"

// Timestamp is a UTC time with microsecond precision that serializes
// without a zone.
type Timestamp struct {
	time.Time
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// NewTimestamp truncates t to microseconds in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

// String implements fmt.Stringer.
func (t Timestamp) String() string {
	return t.Time.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler. It accepts the microsecond
// layout and RFC 3339.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTimestamp parses s in TimestampLayout or RFC 3339.
func ParseTimestamp(s string) (Timestamp, error) {
	if s == "" {
		return Timestamp{}, nil
	}
	if parsed, err := time.Parse(parseLayout, s); err == nil {
		return NewTimestamp(parsed), nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: invalid timestamp %q", ErrInvalidInput, s)
	}
	return NewTimestamp(parsed), nil
}
