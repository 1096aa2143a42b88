package shared

import "time"

// DateOnly truncates t to midnight UTC. Billing periods, reading dates and
// lease dates are calendar days, so every stored date goes through here.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOnlyPtr is DateOnly for optional dates
func DateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOnly(*t)
	return &d
}

// Today returns the current calendar day in UTC
func Today() time.Time {
	return DateOnly(time.Now().UTC())
}

// WithinPeriod reports whether day lies in [start, end] inclusive
func WithinPeriod(day, start, end time.Time) bool {
	day = DateOnly(day)
	return !day.Before(DateOnly(start)) && !day.After(DateOnly(end))
}
