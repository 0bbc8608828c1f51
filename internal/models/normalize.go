package models

import (
	"bytes"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// Normalize decodes any attendance payload ever persisted by this system into
// the current Document schema. Accepted shapes:
//
//   - {"version": 2, "attendance": {...}, "card_names": {...}}
//   - {"2024-01-01": {"<uid>": {...}}}                       bare date map
//   - {"attendance": {"attendance": {...}, "card_names": {...}}} nested backup
//   - {"success": true, "attendance": {...}, "cardNames": {...}} fetch envelope
//
// Records written by the first reader backend ({"timestamp", "signed_in"})
// are read with the timestamp as sign-in time. Offset-less timestamps are
// interpreted in loc.
func Normalize(data []byte, loc *time.Location) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewDocument(), fmt.Errorf("malformed attendance document: %w", err)
	}
	return NormalizeValue(raw, loc), nil
}

func NormalizeValue(raw map[string]any, loc *time.Location) *Document {
	doc := NewDocument()
	if raw == nil {
		return doc
	}
	if loc == nil {
		loc = time.UTC
	}

	var days any = raw
	var names any

	if inner, ok := raw["attendance"].(map[string]any); ok {
		_, versioned := raw["version"]
		top := normalizeNames(firstOf(raw, "card_names", "cardNames"))
		days = inner
		if nested, ok := inner["attendance"].(map[string]any); ok && !versioned {
			days = nested
			if len(top) == 0 {
				top = normalizeNames(firstOf(inner, "card_names", "cardNames"))
			}
		}
		names = top
	}

	doc.Attendance = normalizeDays(days, loc)
	if nm, ok := names.(NameMap); ok {
		doc.CardNames = nm
	}
	return doc
}

func normalizeDays(v any, loc *time.Location) AttendanceMap {
	out := make(AttendanceMap)
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for date, dayValue := range m {
		if !IsValidDate(date) {
			continue
		}
		// a date with no usable day object still counts as a known date
		dayRaw, _ := dayValue.(map[string]any)
		day := make(DayMap, len(dayRaw))
		for uid, recValue := range dayRaw {
			if rec, ok := normalizeRecord(recValue, loc); ok {
				day[uid] = rec
			}
		}
		out[date] = day
	}
	return out
}

func normalizeRecord(v any, loc *time.Location) (*EventRecord, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	rec := &EventRecord{
		SignInTime:  normalizeTime(firstOf(m, "sign_in_time", "signInTime", "timestamp"), loc),
		SignOutTime: normalizeTime(firstOf(m, "sign_out_time", "signOutTime"), loc),
		SignedIn:    cast.ToBool(firstOf(m, "signed_in", "signedIn")),
		Hours:       cast.ToFloat64(m["hours"]),
	}
	if rec.Hours < 0 {
		rec.Hours = 0
	}
	return rec, true
}

func normalizeTime(v any, loc *time.Location) *Timestamp {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		parsed, err := ParseTimestamp(t, loc)
		if err != nil {
			return UnparsedTimestamp(t)
		}
		return NewTimestamp(parsed)
	case float64:
		// milliseconds since epoch, as produced by Date.getTime()
		return NewTimestamp(time.UnixMilli(int64(t)).In(loc))
	default:
		return nil
	}
}

func normalizeNames(v any) NameMap {
	out := make(NameMap)
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for uid, name := range m {
		s := cast.ToString(name)
		if s == "" {
			continue
		}
		out[uid] = s
	}
	return out
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// DecodeRecord reads one stored record with the same leniency as Normalize.
func DecodeRecord(data []byte, loc *time.Location) (*EventRecord, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	rec, ok := normalizeRecord(raw, loc)
	if !ok {
		return nil, fmt.Errorf("not an attendance record: %s", string(data))
	}
	return rec, nil
}
