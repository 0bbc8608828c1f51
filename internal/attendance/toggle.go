package attendance

import (
	"time"

	"nfcattend/internal/models"
)

// HoursBetween returns the elapsed fractional hours from in to out, never
// negative.
func HoursBetween(in, out time.Time) float64 {
	return max(0, float64(out.Sub(in).Milliseconds())/3600000)
}

// SignIn returns a fresh signed-in record stamped at now.
func SignIn(now time.Time) *models.EventRecord {
	return &models.EventRecord{
		SignInTime: models.NewTimestamp(now),
		SignedIn:   true,
	}
}

// Toggle flips rec between signed-in and signed-out and returns the new
// record; rec itself is left untouched. A nil rec is a signed-out person.
// Signing out a record without a readable sign-in time keeps its previous
// hours.
func Toggle(rec *models.EventRecord, now time.Time) *models.EventRecord {
	if rec == nil || !rec.SignedIn {
		return SignIn(now)
	}

	next := rec.Clone()
	next.SignedIn = false
	next.SignOutTime = models.NewTimestamp(now)
	if next.SignInTime.Valid() {
		next.Hours = HoursBetween(next.SignInTime.Time, now)
	}
	return next
}
