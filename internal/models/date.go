package models

import "time"

const DateLayout = "2006-01-02"

// Date returns the calendar day of t as midnight UTC.
//
// Calendar dates are always UTC midnights so that day arithmetic never lands
// in a DST gap. The user's zone only decides which day today is.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today is the calendar day of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return Date(now.In(loc))
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
