package attendance

import (
	"sort"
	"strings"

	"nfcattend/internal/models"
)

// BuildDaySheet lists everyone known on date: the UIDs recorded that day plus
// every named card, ordered by display name.
func BuildDaySheet(att models.AttendanceMap, names models.NameMap, date string) *models.DaySheet {
	day := att[date]
	uids := make(map[string]struct{}, len(day)+len(names))
	for uid := range day {
		uids[uid] = struct{}{}
	}
	for uid := range names {
		uids[uid] = struct{}{}
	}

	sheet := &models.DaySheet{
		Date:    date,
		Entries: make([]models.DayEntry, 0, len(uids)),
	}
	for uid := range uids {
		entry := models.DayEntry{UID: uid, Name: uid}
		if name := names[uid]; name != "" {
			entry.Name = name
		}
		if rec := day[uid]; rec != nil {
			entry.SignedIn = rec.SignedIn
			entry.SignInTime = rec.SignInTime
			entry.SignOutTime = rec.SignOutTime
			entry.Hours = rec.Hours
		}
		if entry.SignedIn {
			sheet.SignedIn++
		}
		sheet.Entries = append(sheet.Entries, entry)
	}

	sort.Slice(sheet.Entries, func(i, j int) bool {
		a, b := strings.ToLower(sheet.Entries[i].Name), strings.ToLower(sheet.Entries[j].Name)
		if a == b {
			return sheet.Entries[i].UID < sheet.Entries[j].UID
		}
		return a < b
	})

	sheet.Total = len(sheet.Entries)
	sheet.NotSignedIn = sheet.Total - sheet.SignedIn
	return sheet
}
