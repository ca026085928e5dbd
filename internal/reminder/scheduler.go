// Package reminder decides which events have a reminder due right now and
// makes sure each one is announced at most once per calendar day.
package reminder

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "github.com/Kuzmenkoav1982/famcal/internal/log"
	"github.com/Kuzmenkoav1982/famcal/internal/model"
)

const DefaultDateLayout = "Mon, 2 Jan 2006"

// Intent asks the presentation layer to show one reminder.
type Intent struct {
	ID                 string
	EventID            string
	Title              string
	EventDate          model.Date
	EventDateFormatted string
	EventTime          string
	// Day is the calendar day the reminder fired on.
	Day     model.Date
	FiredAt time.Time
}

type Scheduler struct {
	store      MarkerStore
	prefix     string
	loc        *time.Location
	dateLayout string
	newID      func() string
}

type Option func(*Scheduler)

func WithPrefix(prefix string) Option {
	return func(s *Scheduler) {
		if p := strings.TrimSpace(prefix); p != "" {
			s.prefix = p
		}
	}
}

// WithLocation sets the zone used to decide which calendar day "now" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithDateLayout(layout string) Option {
	return func(s *Scheduler) {
		if layout != "" {
			s.dateLayout = layout
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewScheduler(store MarkerStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:      store,
		prefix:     DefaultMarkerPrefix,
		loc:        time.Local,
		dateLayout: DefaultDateLayout,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Prefix() string {
	return s.prefix
}

// Tick scans every event and returns the reminders due at now. Each returned
// intent has been recorded in the marker store, so later ticks on the same day
// skip it. Store failures are logged and never suppress an intent.
func (s *Scheduler) Tick(ctx context.Context, now time.Time, events []model.Event) []Intent {
	local := now.In(s.loc)
	today := model.DateOf(local)
	clock := model.ClockOf(local)

	out := make([]Intent, 0)
	for i := range events {
		ev := events[i]
		if !ev.Reminder.Enabled {
			continue
		}
		if strings.TrimSpace(ev.ID) == "" {
			applog.Debug("reminder skipped: event without id", "title", ev.Title)
			continue
		}

		key := MarkerKey(s.prefix, ev.ID, today)
		marked, err := s.store.Has(ctx, key)
		if err != nil {
			applog.Warn("marker lookup failed, assuming not notified", err, "key", key)
			marked = false
		}
		if marked {
			continue
		}
		if !IsDue(ev, today, clock) {
			continue
		}

		out = append(out, s.intentFor(ev, today, now))
		if err := s.store.Set(ctx, key); err != nil {
			applog.Warn("marker write failed, will retry next tick", err, "key", key)
		}
	}

	s.collect(ctx, today)
	return out
}

// Release forgets the marker for an intent that could not be delivered so the
// next tick announces it again.
func (s *Scheduler) Release(ctx context.Context, in Intent) error {
	return s.store.Delete(ctx, MarkerKey(s.prefix, in.EventID, in.Day))
}

// collect removes every marker not set today.
func (s *Scheduler) collect(ctx context.Context, today model.Date) {
	keys, err := s.store.ListKeys(ctx, s.prefix+"_")
	if err != nil {
		applog.Warn("marker listing failed, skipping cleanup", err, "prefix", s.prefix)
		return
	}
	removed := 0
	for _, key := range keys {
		if day, ok := MarkerDay(key); ok && day == today {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			applog.Warn("marker delete failed", err, "key", key)
			continue
		}
		removed++
	}
	if removed > 0 {
		applog.Debug("stale markers removed", "count", removed, "today", today.String())
	}
}

func (s *Scheduler) intentFor(ev model.Event, today model.Date, now time.Time) Intent {
	return Intent{
		ID:                 s.newID(),
		EventID:            ev.ID,
		Title:              ev.Title,
		EventDate:          ev.Date,
		EventDateFormatted: formatDate(ev.Date, s.dateLayout),
		EventTime:          ev.Time,
		Day:                today,
		FiredAt:            now,
	}
}

func formatDate(d model.Date, layout string) string {
	if !d.Valid() {
		return ""
	}
	return d.Format(layout)
}

// IsDue reports whether ev's reminder should fire on today at clock.
// Malformed configurations are never due. A time on a relative reminder does
// not gate the day, but an unreadable one still disqualifies it.
func IsDue(ev model.Event, today model.Date, clock model.ClockTime) bool {
	r := ev.Reminder
	if !r.Enabled || r.Malformed {
		return false
	}
	var at model.ClockTime
	if r.Time != "" {
		parsed, err := model.ParseClock(r.Time)
		if err != nil {
			return false
		}
		at = parsed
	}

	if r.IsAbsolute() {
		if r.Date != today {
			return false
		}
		if r.Time == "" {
			return true
		}
		return at.Minutes() <= clock.Minutes()
	}

	offset := r.Offset()
	if offset < 0 || !ev.Date.Valid() {
		return false
	}
	return ev.Date.AddDays(-offset) == today
}
