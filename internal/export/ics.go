// Package export writes materialized occurrences as an iCalendar feed.
// Series are flattened: every occurrence becomes its own VEVENT and no
// recurrence rule is emitted.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/Kuzmenkoav1982/famcal/internal/calendar"
	"github.com/Kuzmenkoav1982/famcal/internal/model"
)

const defaultProductID = "-//famcal//household calendar//EN"

type options struct {
	productID string
	name      string
	loc       *time.Location
	now       func() time.Time
}

type Option func(*options)

func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLocation sets the zone timed occurrences are anchored in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WriteICS serializes occurrences into w, ordered by date and then by the
// resolver's per-day order. Occurrences with an unparsable time are written
// as all-day entries.
func WriteICS(w io.Writer, byDate map[model.Date][]calendar.Occurrence, opts ...Option) error {
	if w == nil {
		return errors.New("export: nil writer")
	}
	o := options{productID: defaultProductID, loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	cal := ical.NewCalendar()
	cal.SetProductId(o.productID)
	cal.SetMethod(ical.MethodPublish)
	if o.name != "" {
		cal.SetXWRCalName(o.name)
	}
	stamp := o.now().UTC()

	dates := make([]model.Date, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, d := range dates {
		for _, occ := range byDate[d] {
			addOccurrence(cal, occ, stamp, o.loc)
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("serialize calendar: %w", err)
	}
	return nil
}

// WriteFile writes the feed to path, creating parent directories, and
// returns the number of occurrences written.
func WriteFile(path string, byDate map[model.Date][]calendar.Occurrence, opts ...Option) (int, error) {
	count := 0
	for _, items := range byDate {
		count += len(items)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create export dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	if err := WriteICS(f, byDate, opts...); err != nil {
		_ = f.Close()
		return 0, err
	}
	return count, f.Close()
}

func addOccurrence(cal *ical.Calendar, occ calendar.Occurrence, stamp time.Time, loc *time.Location) {
	ev := cal.AddEvent(UID(occ))
	ev.SetDtStampTime(stamp)
	ev.SetSummary(occ.Title)
	ev.SetProperty(ical.ComponentPropertyCategories, categoryOf(occ))
	if occ.Event != nil && occ.Event.Notes != "" {
		ev.SetDescription(occ.Event.Notes)
	}

	if clock, err := model.ParseClock(occ.Time); err == nil && occ.Time != "" {
		start := time.Date(occ.Date.Year, occ.Date.Month, occ.Date.Day, clock.Hour, clock.Minute, 0, 0, loc)
		ev.SetStartAt(start)
		return
	}
	ev.SetAllDayStartAt(occ.Date.Midnight())
	ev.SetAllDayEndAt(occ.Date.AddDays(1).Midnight())
}

// UID identifies one occurrence; a series yields one UID per date.
func UID(occ calendar.Occurrence) string {
	id := occ.ID
	if occ.Kind != calendar.KindEvent {
		id = string(occ.Kind) + "-" + id
	}
	return id + "@" + occ.Date.String()
}

func categoryOf(occ calendar.Occurrence) string {
	switch occ.Kind {
	case calendar.KindTask, calendar.KindGoal:
		return string(occ.Kind)
	}
	if occ.Category == "" {
		return string(model.CategoryOther)
	}
	return string(occ.Category)
}
