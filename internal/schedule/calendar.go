package schedule

import (
	"fmt"
	"time"
)

// Calendar answers "what day is it" in the club's civil calendar.
type Calendar struct {
	now func() time.Time
	loc *time.Location
}

// NewCalendar builds a Calendar for the IANA zone name tz ("" or "Local"
// means the process local zone). A nil clock uses time.Now.
func NewCalendar(tz string, clock func() time.Time) (*Calendar, error) {
	loc := time.Local
	if tz != "" && tz != "Local" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", tz, err)
		}
		loc = l
	}
	if clock == nil {
		clock = time.Now
	}
	return &Calendar{now: clock, loc: loc}, nil
}

// FixedCalendar always reports the given date. Used by tests and tooling.
func FixedCalendar(d Date) *Calendar {
	return &Calendar{
		now: func() time.Time { return d.In(time.UTC).Add(12 * time.Hour) },
		loc: time.UTC,
	}
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Today is the civil date of the current instant in the club's zone.
func (c *Calendar) Today() Date {
	return DateOf(c.now().In(c.loc))
}

// Window is the open window as of Today.
func (c *Calendar) Window() Window {
	return AvailableDates(c.Today())
}
