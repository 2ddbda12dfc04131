package util

import "time"

const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DayFormat      = "2006-01-02"
)

// AdmissionDay buckets a timestamp into the clinic's local calendar day.
// Queue numbering resets at local midnight, not UTC.
func AdmissionDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayFormat)
}

// FormatDateTime renders a timestamp for human-facing notification payloads.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeFormat)
}
