package schedule

import "time"

// ReservationWeekdays are the two weekdays the club opens for booking.
var ReservationWeekdays = [2]time.Weekday{time.Tuesday, time.Thursday}

// Window is the pair of currently open reservation days, First < Second.
type Window struct {
	First  Date `json:"first"`
	Second Date `json:"second"`
}

// Contains reports whether d is one of the two open days.
func (w Window) Contains(d Date) bool {
	return d == w.First || d == w.Second
}

// Dates returns the open days in chronological order.
func (w Window) Dates() []Date {
	return []Date{w.First, w.Second}
}

// Navigation points from one open day to its neighbours. A nil side means
// the window ends there; there is no wraparound.
type Navigation struct {
	Prev *Date `json:"prev"`
	Next *Date `json:"next"`
}

// nextOccurrence returns the first date on or after from that falls on wd.
func nextOccurrence(from Date, wd time.Weekday) Date {
	delta := (int(wd) - int(from.Weekday()) + 7) % 7
	return from.AddDays(delta)
}

// AvailableDates computes the open window as of now. Each reservation
// weekday contributes its nearest occurrence on or after today, so today is
// included when it is itself a reservation day and a weekday already passed
// this week rolls over to next week.
func AvailableDates(now Date) Window {
	a := nextOccurrence(now, ReservationWeekdays[0])
	b := nextOccurrence(now, ReservationWeekdays[1])
	if b.Before(a) {
		a, b = b, a
	}
	return Window{First: a, Second: b}
}

// DefaultDate is today when today is open, otherwise the earliest open day.
func DefaultDate(now Date) Date {
	w := AvailableDates(now)
	if w.Contains(now) {
		return now
	}
	return w.First
}

// IsReservationDay reports whether d is currently open for booking.
func IsReservationDay(d, now Date) bool {
	return AvailableDates(now).Contains(d)
}

// Navigate returns the neighbours of current inside the open window.
// Both sides are nil when current is not open.
func Navigate(current, now Date) Navigation {
	w := AvailableDates(now)
	switch current {
	case w.First:
		next := w.Second
		return Navigation{Next: &next}
	case w.Second:
		prev := w.First
		return Navigation{Prev: &prev}
	default:
		return Navigation{}
	}
}
