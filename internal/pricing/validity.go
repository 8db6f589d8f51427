package pricing

import "time"

// IsValid reports whether rec may be used on ref. Bounds are inclusive and
// compared as calendar dates; the time of day of either side is ignored.
func IsValid(rec PriceRecord, ref time.Time) bool {
	day := CalendarDate(ref)
	if rec.ValidFrom != nil && day.Before(CalendarDate(*rec.ValidFrom)) {
		return false
	}
	if rec.ValidUntil != nil && day.After(CalendarDate(*rec.ValidUntil)) {
		return false
	}
	return true
}

// CalendarDate truncates t to midnight UTC of its own calendar day, so values
// from different locations compare by the date they were written with.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
