package model

import (
	"errors"
	"fmt"
	"time"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidFrequency = errors.New("model: invalid recurrence frequency")
	ErrInvalidInterval  = errors.New("model: invalid recurrence interval")
	ErrInvalidWeekdays  = errors.New("model: invalid recurrence weekdays")
	ErrInvalidPattern   = errors.New("model: invalid recurrence pattern")
)

// RecurrencePattern describes how an event repeats from its anchor date.
//
// Monthly and yearly patterns never clamp: an anchor on the 31st skips months
// without a 31st, and an anchor on Feb 29 only matches leap years.
type RecurrencePattern struct {
	Frequency Frequency
	// Interval of 0 means "every period".
	Interval int
	// DaysOfWeek holds weekdays (Sunday = 0). Only weekly patterns use it;
	// other frequencies ignore it.
	DaysOfWeek []time.Weekday
	EndDate    Date
	// Malformed is set by loaders when a stored field, such as the end date,
	// could not be read. A malformed pattern never recurs.
	Malformed bool
}

func (p RecurrencePattern) EffectiveInterval() int {
	if p.Interval == 0 {
		return 1
	}
	return p.Interval
}

func (p RecurrencePattern) Validate() error {
	if !p.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, p.Frequency)
	}
	if p.Interval < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, p.Interval)
	}
	if p.Malformed {
		return fmt.Errorf("%w: unreadable stored value", ErrInvalidPattern)
	}
	if p.Frequency == FrequencyWeekly && p.DaysOfWeek != nil {
		if len(p.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: empty set", ErrInvalidWeekdays)
		}
		for _, d := range p.DaysOfWeek {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: %d", ErrInvalidWeekdays, int(d))
			}
		}
	}
	if !p.EndDate.IsZero() && !p.EndDate.Valid() {
		return fmt.Errorf("%w: end date %q", ErrInvalidDate, p.EndDate.String())
	}
	return nil
}

// Matches reports whether a series anchored on anchor occurs on target.
// A malformed pattern never matches.
func (p RecurrencePattern) Matches(anchor, target Date) bool {
	if !anchor.Valid() || !target.Valid() {
		return false
	}
	if p.Validate() != nil {
		return false
	}
	if target.Before(anchor) {
		return false
	}
	if !p.EndDate.IsZero() && target.After(p.EndDate) {
		return false
	}

	n := p.EffectiveInterval()
	elapsed := target.DaysSince(anchor)

	switch p.Frequency {
	case FrequencyDaily:
		return elapsed%n == 0
	case FrequencyWeekly:
		if p.DaysOfWeek == nil {
			return elapsed%(7*n) == 0
		}
		return p.hasWeekday(target.Weekday()) && (elapsed/7)%n == 0
	case FrequencyMonthly:
		if target.Day != anchor.Day {
			return false
		}
		months := (target.Year-anchor.Year)*12 + int(target.Month-anchor.Month)
		return months%n == 0
	case FrequencyYearly:
		if target.Month != anchor.Month || target.Day != anchor.Day {
			return false
		}
		return (target.Year-anchor.Year)%n == 0
	default:
		return false
	}
}

func (p RecurrencePattern) hasWeekday(w time.Weekday) bool {
	for _, d := range p.DaysOfWeek {
		if d == w {
			return true
		}
	}
	return false
}
