package model

import (
	"errors"
	"fmt"
)

var ErrInvalidReminder = errors.New("model: invalid reminder")

// DefaultReminderDaysBefore is the relative offset used when none is set.
const DefaultReminderDaysBefore = 1

// ReminderConfig holds either an absolute reminder (Date, optionally Time)
// or a relative one (DaysBefore the event date). The presence of Date picks
// the branch.
type ReminderConfig struct {
	Enabled    bool
	Date       Date
	Time       string
	DaysBefore *int
	// Malformed is set by loaders when a stored reminder field could not be
	// read. A malformed reminder is never due.
	Malformed bool
}

func (r ReminderConfig) IsAbsolute() bool {
	return !r.Date.IsZero()
}

func (r ReminderConfig) Offset() int {
	if r.DaysBefore == nil {
		return DefaultReminderDaysBefore
	}
	return *r.DaysBefore
}

func (r ReminderConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Malformed {
		return fmt.Errorf("%w: unreadable stored value", ErrInvalidReminder)
	}
	if !r.Date.IsZero() && !r.Date.Valid() {
		return fmt.Errorf("%w: date %q", ErrInvalidReminder, r.Date.String())
	}
	if r.Time != "" {
		if _, err := ParseClock(r.Time); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidReminder, err)
		}
	}
	if r.DaysBefore != nil && *r.DaysBefore < 0 {
		return fmt.Errorf("%w: negative offset %d", ErrInvalidReminder, *r.DaysBefore)
	}
	return nil
}
