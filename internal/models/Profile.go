package models

// AttendanceDay is one entry of a person's history. Dates without a record
// for the person appear with Attended false and zero values.
type AttendanceDay struct {
	Date        string     `json:"date"`
	SignInTime  *Timestamp `json:"signInTime"`
	SignOutTime *Timestamp `json:"signOutTime"`
	Hours       float64    `json:"hours"`
	SignedIn    bool       `json:"signedIn"`
	Attended    bool       `json:"attended"`
}

type Profile struct {
	UID            string          `json:"uid"`
	Name           string          `json:"name"`
	TotalHours     float64         `json:"totalHours"`
	DaysAttended   int             `json:"daysAttended"`
	DaysMissed     int             `json:"daysMissed"`
	TotalDays      int             `json:"totalDays"`
	AverageHours   float64         `json:"averageHours"`
	AttendanceRate float64         `json:"attendanceRate"`
	History        []AttendanceDay `json:"attendanceHistory"`
}

type DayEntry struct {
	UID         string     `json:"uid"`
	Name        string     `json:"name"`
	SignedIn    bool       `json:"signedIn"`
	SignInTime  *Timestamp `json:"signInTime"`
	SignOutTime *Timestamp `json:"signOutTime"`
	Hours       float64    `json:"hours"`
}

type DaySheet struct {
	Date        string     `json:"date"`
	Entries     []DayEntry `json:"entries"`
	Total       int        `json:"total"`
	SignedIn    int        `json:"signedIn"`
	NotSignedIn int        `json:"notSignedIn"`
}

type StaleEntry struct {
	Date       string     `json:"date"`
	UID        string     `json:"uid"`
	SignInTime *Timestamp `json:"signInTime"`
	Closed     bool       `json:"closed"`
	Reason     string     `json:"reason,omitempty"`
}

type StaleReport struct {
	Today   string       `json:"today"`
	Entries []StaleEntry `json:"entries"`
	Closed  int          `json:"closed"`
	Skipped int          `json:"skipped"`
}

const (
	CardDetected = "card_detected"
	CardRemoved  = "card_removed"
)

// CardUpdate is a reader event waiting to be picked up by the UI poller.
type CardUpdate struct {
	Status    string       `json:"status"`
	UID       string       `json:"uid,omitempty"`
	Name      string       `json:"name,omitempty"`
	Record    *EventRecord `json:"record,omitempty"`
	Timestamp float64      `json:"timestamp"`
}

// ReaderStatus is the last card state reported by the reader front-end.
type ReaderStatus struct {
	CardPresent bool       `json:"cardPresent"`
	CardUID     string     `json:"cardUid,omitempty"`
	CardName    string     `json:"cardName,omitempty"`
	LastEvent   *Timestamp `json:"lastEvent"`
}
