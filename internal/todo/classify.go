package todo

import "time"

// Status is the display category of a to-do item
type Status string

const (
	StatusNone     Status = "none"
	StatusOverdue  Status = "overdue"
	StatusDueToday Status = "due-today"
	StatusUpcoming Status = "upcoming"
)

// Color returns the text color the list view uses for the status
func (s Status) Color() string {
	switch s {
	case StatusOverdue:
		return "red"
	case StatusDueToday:
		return "yellow"
	case StatusUpcoming:
		return "green"
	default:
		return "black"
	}
}

// Classify maps an end date to a status relative to now.
//
// Dates are compared by calendar day. "Due today" only compares the day of
// the month, so the 5th of a later month also counts as due today when now
// is the 5th.
func Classify(endDate *time.Time, now time.Time) Status {
	if endDate == nil {
		return StatusNone
	}

	end := calendarDay(*endDate)
	today := calendarDay(now)

	if end.Before(today) {
		return StatusOverdue
	}
	if endDate.Day() == now.Day() {
		return StatusDueToday
	}
	return StatusUpcoming
}

// calendarDay drops the clock and zone of t, keeping its own year, month and day
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
