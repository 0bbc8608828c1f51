package models

import (
	"sort"
	"time"
)

// CurrentVersion is the schema version written by every store.
const CurrentVersion = 2

const DateLayout = "2006-01-02"

// DayMap holds the records of one date keyed by card UID.
type DayMap map[string]*EventRecord

// AttendanceMap holds every recorded date. It only ever grows.
type AttendanceMap map[string]DayMap

// NameMap maps card UIDs to display names.
type NameMap map[string]string

type Document struct {
	Version    int           `json:"version"`
	Attendance AttendanceMap `json:"attendance"`
	CardNames  NameMap       `json:"card_names"`
}

func NewDocument() *Document {
	return &Document{
		Version:    CurrentVersion,
		Attendance: make(AttendanceMap),
		CardNames:  make(NameMap),
	}
}

func IsValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

func (d *Document) Record(date, uid string) (*EventRecord, bool) {
	day, ok := d.Attendance[date]
	if !ok {
		return nil, false
	}
	rec, ok := day[uid]
	return rec, ok && rec != nil
}

func (d *Document) PutRecord(date, uid string, rec *EventRecord) {
	day, ok := d.Attendance[date]
	if !ok || day == nil {
		day = make(DayMap)
		d.Attendance[date] = day
	}
	day[uid] = rec
}

// Merge copies every day, record and name of other into d. Records present
// in both are replaced by other's version; nothing is removed.
func (d *Document) Merge(other *Document) {
	if other == nil {
		return
	}
	for date, day := range other.Attendance {
		if _, ok := d.Attendance[date]; !ok {
			d.Attendance[date] = make(DayMap)
		}
		for uid, rec := range day {
			if rec == nil {
				continue
			}
			d.Attendance[date][uid] = rec.Clone()
		}
	}
	for uid, name := range other.CardNames {
		d.CardNames[uid] = name
	}
}

func (d *Document) Clone() *Document {
	out := NewDocument()
	out.Merge(d)
	return out
}

// Dates returns every date key, newest first.
func (a AttendanceMap) Dates() []string {
	dates := make([]string, 0, len(a))
	for date := range a {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// RecordCount counts the records across all dates.
func (a AttendanceMap) RecordCount() int {
	n := 0
	for _, day := range a {
		n += len(day)
	}
	return n
}
