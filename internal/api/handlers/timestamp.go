package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp accepts RFC 3339 instants as well as the zone-less forms sent by
// HTML date and datetime-local inputs. Zone-less values are interpreted in
// the server's configured location by In. Used as a non-pointer field it
// also records an explicit JSON null, see Cleared.
type Timestamp struct {
	time.Time
	naive bool
	set   bool
	null  bool
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*t = Timestamp{set: true, null: true}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	s = strings.TrimSpace(s)

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*t = Timestamp{Time: parsed, set: true}
		return nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Timestamp{Time: parsed, naive: true, set: true}
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// Cleared reports whether the field was sent as null.
func (t *Timestamp) Cleared() bool {
	return t != nil && t.null
}

// In returns the instant t denotes, reading zone-less values as wall-clock
// time in loc. A nil, absent or null t yields nil.
func (t *Timestamp) In(loc *time.Location) *time.Time {
	if t == nil || !t.set || t.null {
		return nil
	}
	if !t.naive {
		v := t.Time
		return &v
	}
	y, m, d := t.Date()
	hour, minute, sec := t.Clock()
	v := time.Date(y, m, d, hour, minute, sec, t.Nanosecond(), loc)
	return &v
}
