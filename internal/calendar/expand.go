package calendar

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/Kuzmenkoav1982/famcal/internal/model"
)

const maxExpandedDates = 5000

// ExpandDates lists the dates in [from, to] on which ev occurs, in ascending
// order, agreeing with OccursOn. Series are expanded with an RRULE whose week
// start is the anchor's weekday, so interval weeks are counted from the anchor
// exactly like IsRecurringOnDate does. The anchor itself is always included
// even when its weekday is outside the series' set.
func ExpandDates(ev model.Event, from, to model.Date) []model.Date {
	out := make([]model.Date, 0)
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return out
	}

	rule, ok := seriesRule(ev)
	if !ok {
		if ev.Date.Valid() && !ev.Date.Before(from) && !ev.Date.After(to) {
			out = append(out, ev.Date)
		}
		return out
	}

	if !ev.Date.Before(from) && !ev.Date.After(to) {
		out = append(out, ev.Date)
	}
	for _, t := range rule.Between(from.Midnight(), to.Midnight(), true) {
		d := model.DateOf(t)
		if d == ev.Date || !IsRecurringOnDate(ev, d) {
			continue
		}
		out = append(out, d)
		if len(out) >= maxExpandedDates {
			break
		}
	}
	return out
}

func seriesRule(ev model.Event) (*rrule.RRule, bool) {
	if !ev.IsRecurring || ev.Recurrence == nil || !ev.Date.Valid() {
		return nil, false
	}
	p := *ev.Recurrence
	if p.Validate() != nil {
		return nil, false
	}

	opt := rrule.ROption{
		Dtstart:  ev.Date.Midnight(),
		Interval: p.EffectiveInterval(),
		Wkst:     rruleWeekday(ev.Date.Weekday()),
	}
	switch p.Frequency {
	case model.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case model.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
		for _, d := range p.DaysOfWeek {
			opt.Byweekday = append(opt.Byweekday, rruleWeekday(d))
		}
	case model.FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
	case model.FrequencyYearly:
		opt.Freq = rrule.YEARLY
	default:
		return nil, false
	}
	if !p.EndDate.IsZero() {
		opt.Until = p.EndDate.Midnight()
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, false
	}
	return r, true
}

func rruleWeekday(w time.Weekday) rrule.Weekday {
	switch w {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
