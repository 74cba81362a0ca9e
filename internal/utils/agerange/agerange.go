package agerange

import "time"

// Range is an inclusive date-of-birth window. Nil bounds are open.
type Range struct {
	From *time.Time
	To   *time.Time
}

// Bounded reports whether at least one side is set.
func (r Range) Bounded() bool { return r.From != nil || r.To != nil }

// Contains reports whether dob lies inside the window. A nil dob is never
// contained in a bounded range.
func (r Range) Contains(dob *time.Time) bool {
	if dob == nil {
		return !r.Bounded()
	}
	if r.From != nil && dob.Before(*r.From) {
		return false
	}
	if r.To != nil && dob.After(*r.To) {
		return false
	}
	return true
}

// ToBirthDateRange converts an age range into a date-of-birth window
// evaluated on asOf's calendar day (UTC).
//
//   - minAge bounds the latest birth date: asOf - minAge years, end of day.
//   - maxAge bounds the earliest birth date: the day after asOf - (maxAge+1)
//     years, i.e. the oldest person still maxAge years old.
func ToBirthDateRange(minAge, maxAge *int, asOf time.Time) Range {
	today := day(asOf)
	var r Range

	if maxAge != nil {
		from := yearsBefore(today, *maxAge+1).AddDate(0, 0, 1)
		r.From = &from
	}
	if minAge != nil {
		to := yearsBefore(today, *minAge).Add(24*time.Hour - time.Nanosecond)
		r.To = &to
	}
	return r
}

// Age returns the calendar age on asOf. ok is false for a missing or zero dob.
func Age(dob *time.Time, asOf time.Time) (age int, ok bool) {
	if dob == nil || dob.IsZero() {
		return 0, false
	}
	b := dob.UTC()
	now := asOf.UTC()

	age = now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age, true
}

func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// yearsBefore subtracts n calendar years, clamping Feb 29 to Feb 28 instead
// of rolling over into March.
func yearsBefore(t time.Time, n int) time.Time {
	y := t.Year() - n
	d := t.Day()
	if last := daysIn(t.Month(), y); d > last {
		d = last
	}
	return time.Date(y, t.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
