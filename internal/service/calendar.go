package service

import "time"

// Calendar supplies the current instant and the location in which day and
// month boundaries are drawn.
type Calendar struct {
	Location *time.Location
	Clock    func() time.Time
}

func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{Location: loc, Clock: time.Now}
}

// Now returns the current time in the calendar's location.
func (c Calendar) Now() time.Time {
	clock := c.Clock
	if clock == nil {
		clock = time.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return clock().In(loc)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
