package models

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is a point in time that tolerates the formats written by older
// clients: RFC 3339 with any offset, and offset-less ISO timestamps.
// A stored value that cannot be parsed is kept verbatim in raw, so the
// field stays present and is written back unchanged.
type Timestamp struct {
	time.Time
	raw string
}

func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// UnparsedTimestamp holds a stored value no known layout could read.
func UnparsedTimestamp(raw string) *Timestamp {
	return &Timestamp{raw: raw}
}

// Valid reports whether t carries a usable instant.
func (t *Timestamp) Valid() bool {
	return t != nil && !t.Time.IsZero()
}

// Raw returns the unparsed stored value, empty when the value was parsed.
func (t *Timestamp) Raw() string {
	if t == nil || !t.Time.IsZero() {
		return ""
	}
	return t.raw
}

// ParseTimestamp reads an RFC 3339 timestamp, or a naive ISO timestamp which
// is then interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() && t.raw != "" {
		return json.Marshal(t.raw)
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON reads offset-less values as UTC. It has no configured
// timezone, so stored documents are decoded through Normalize and
// DecodeRecord instead, which interpret them in the attendance timezone.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s, time.UTC)
	if err != nil {
		*t = Timestamp{raw: s}
		return nil
	}
	*t = Timestamp{Time: parsed}
	return nil
}

// EventRecord is one person's state for one calendar date. Hours is fixed
// at sign-out time and never derived on read.
type EventRecord struct {
	SignInTime  *Timestamp `json:"sign_in_time"`
	SignOutTime *Timestamp `json:"sign_out_time"`
	SignedIn    bool       `json:"signed_in"`
	Hours       float64    `json:"hours"`
}

func (r *EventRecord) Clone() *EventRecord {
	if r == nil {
		return nil
	}
	out := &EventRecord{SignedIn: r.SignedIn, Hours: r.Hours}
	if r.SignInTime != nil {
		ts := *r.SignInTime
		out.SignInTime = &ts
	}
	if r.SignOutTime != nil {
		ts := *r.SignOutTime
		out.SignOutTime = &ts
	}
	return out
}
