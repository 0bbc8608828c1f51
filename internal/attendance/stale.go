package attendance

import (
	"sort"
	"time"

	"nfcattend/internal/models"
)

// StaleSessionLength is credited to sign-ins that were never closed.
const StaleSessionLength = 2 * time.Hour

// FindStale lists open sign-ins on dates strictly before today.
func FindStale(att models.AttendanceMap, today string) *models.StaleReport {
	report := &models.StaleReport{Today: today, Entries: make([]models.StaleEntry, 0)}
	for _, date := range sortedPast(att, today) {
		for _, uid := range sortedUIDs(att[date]) {
			rec := att[date][uid]
			if rec == nil || !rec.SignedIn {
				continue
			}
			report.Entries = append(report.Entries, models.StaleEntry{
				Date:       date,
				UID:        uid,
				SignInTime: rec.SignInTime,
			})
		}
	}
	return report
}

// CloseStale signs out every stale sign-in found in doc, crediting
// StaleSessionLength from its sign-in time. Records without a readable
// sign-in time are reported as skipped and left open. doc is modified in place; the
// returned map holds the changed records keyed by date then uid.
func CloseStale(doc *models.Document, today string) (*models.StaleReport, models.AttendanceMap) {
	report := FindStale(doc.Attendance, today)
	changed := make(models.AttendanceMap)

	for i := range report.Entries {
		entry := &report.Entries[i]
		rec := doc.Attendance[entry.Date][entry.UID]
		if !rec.SignInTime.Valid() {
			entry.Reason = "no sign-in time"
			if rec.SignInTime != nil {
				entry.Reason = "unreadable sign-in time " + rec.SignInTime.Raw()
			}
			report.Skipped++
			continue
		}

		closed := rec.Clone()
		closed.SignedIn = false
		closed.SignOutTime = models.NewTimestamp(rec.SignInTime.Add(StaleSessionLength))
		closed.Hours = StaleSessionLength.Hours()
		doc.PutRecord(entry.Date, entry.UID, closed)

		if changed[entry.Date] == nil {
			changed[entry.Date] = make(models.DayMap)
		}
		changed[entry.Date][entry.UID] = closed
		entry.Closed = true
		report.Closed++
	}
	return report, changed
}

func sortedPast(att models.AttendanceMap, today string) []string {
	dates := make([]string, 0, len(att))
	for date := range att {
		if date < today {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

func sortedUIDs(day models.DayMap) []string {
	uids := make([]string, 0, len(day))
	for uid := range day {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}
