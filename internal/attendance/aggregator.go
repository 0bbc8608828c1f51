// Package attendance holds the pure computations over an attendance
// document: profile aggregation, the sign-in state transition, day sheets
// and stale sign-in cleanup. Nothing here performs I/O.
package attendance

import "nfcattend/internal/models"

// Attended reports whether a record counts as a day present: the person has
// an open sign-in or a recorded sign-out.
func Attended(rec *models.EventRecord) bool {
	if rec == nil {
		return false
	}
	return rec.SignedIn || rec.SignOutTime != nil
}

// BuildProfile summarizes uid's attendance over every date of the map.
// Dates where uid has no record count as missed. Average hours are taken
// over attended days only.
func BuildProfile(att models.AttendanceMap, names models.NameMap, uid string) *models.Profile {
	profile := &models.Profile{
		UID:     uid,
		Name:    uid,
		History: make([]models.AttendanceDay, 0, len(att)),
	}
	if name, ok := names[uid]; ok && name != "" {
		profile.Name = name
	}

	for _, date := range att.Dates() {
		day := models.AttendanceDay{Date: date}
		if rec, ok := att[date][uid]; ok && rec != nil {
			day.SignInTime = rec.SignInTime
			day.SignOutTime = rec.SignOutTime
			day.Hours = rec.Hours
			day.SignedIn = rec.SignedIn
			day.Attended = Attended(rec)
		}
		if day.Attended {
			profile.DaysAttended++
			profile.TotalHours += day.Hours
		}
		profile.History = append(profile.History, day)
	}

	profile.TotalDays = len(profile.History)
	profile.DaysMissed = profile.TotalDays - profile.DaysAttended
	if profile.DaysAttended > 0 {
		profile.AverageHours = profile.TotalHours / float64(profile.DaysAttended)
	}
	if profile.TotalDays > 0 {
		profile.AttendanceRate = 100 * float64(profile.DaysAttended) / float64(profile.TotalDays)
	}
	return profile
}
