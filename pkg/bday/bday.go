// Package bday implements Monday-Friday business-day arithmetic without a holiday calendar.
//
// Offsets follow pandas BusinessDay semantics: adding zero days rolls a weekend date
// forward to Monday, and a non-zero offset applied to a weekend date counts the roll
// as the first step.
package bday

import "time"

// Date normalises t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsBusinessDay reports whether t falls on Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// RollForward returns the first business day on or after t's date.
func RollForward(t time.Time) time.Time {
	d := Date(t)
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// RollBack returns the last business day on or before t's date.
func RollBack(t time.Time) time.Time {
	d := Date(t)
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// Add shifts t's date by n business days.
func Add(t time.Time, n int) time.Time {
	if n == 0 {
		return RollForward(t)
	}

	d := Date(t)
	if !IsBusinessDay(d) {
		if n > 0 {
			d = RollForward(d)
			n--
		} else {
			d = RollBack(d)
			n++
		}
	}

	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		d = d.AddDate(0, 0, step)
		if IsBusinessDay(d) {
			n -= step
		}
	}

	return d
}

// Range lists every business day between from and to, both inclusive.
func Range(from, to time.Time) []time.Time {
	start := RollForward(from)
	end := Date(to)
	if start.After(end) {
		return nil
	}

	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			days = append(days, d)
		}
	}

	return days
}
