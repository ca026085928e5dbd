package reminder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Kuzmenkoav1982/famcal/internal/model"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.ParseInLocation("2006-01-02 15:04", value, time.UTC)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func newTestScheduler(store MarkerStore) *Scheduler {
	n := 0
	return NewScheduler(store, WithLocation(time.UTC), WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("intent-%d", n)
	}))
}

func relative(id, eventDate string, daysBefore *int) model.Event {
	return model.Event{
		ID:    id,
		Title: "Event " + id,
		Date:  model.MustParseDate(eventDate),
		Reminder: model.ReminderConfig{
			Enabled:    true,
			DaysBefore: daysBefore,
		},
	}
}

func intPtr(v int) *int { return &v }

func TestTickRelativeReminderFiresOncePerDay(t *testing.T) {
	store := NewMemoryStore()
	s := newTestScheduler(store)
	ctx := context.Background()
	events := []model.Event{relative("ev-1", "2024-06-06", nil)}

	first := s.Tick(ctx, at(t, "2024-06-05 08:00"), events)
	if len(first) != 1 {
		t.Fatalf("expected 1 intent on first tick, got %d", len(first))
	}
	if first[0].EventID != "ev-1" || first[0].Day.String() != "2024-06-05" || first[0].ID != "intent-1" {
		t.Fatalf("unexpected intent: %+v", first[0])
	}
	if first[0].EventDateFormatted != "Thu, 6 Jun 2024" {
		t.Fatalf("unexpected formatted date: %q", first[0].EventDateFormatted)
	}

	for _, clock := range []string{"08:01", "12:00", "23:59"} {
		if got := s.Tick(ctx, at(t, "2024-06-05 "+clock), events); len(got) != 0 {
			t.Fatalf("expected no intents at %s, got %d", clock, len(got))
		}
	}
}

func TestTickAbsoluteReminderWithTime(t *testing.T) {
	store := NewMemoryStore()
	s := newTestScheduler(store)
	ctx := context.Background()
	events := []model.Event{{
		ID:    "ev-abs",
		Title: "Pick up Misha",
		Date:  model.MustParseDate("2024-06-10"),
		Reminder: model.ReminderConfig{
			Enabled: true,
			Date:    model.MustParseDate("2024-06-05"),
			Time:    "09:00",
		},
	}}

	if got := s.Tick(ctx, at(t, "2024-06-05 08:59"), events); len(got) != 0 {
		t.Fatalf("expected nothing before reminder time, got %d", len(got))
	}
	if got := s.Tick(ctx, at(t, "2024-06-05 09:05"), events); len(got) != 1 {
		t.Fatalf("expected late tick to fire once, got %d", len(got))
	}
	if got := s.Tick(ctx, at(t, "2024-06-05 09:06"), events); len(got) != 0 {
		t.Fatalf("expected second tick to stay quiet, got %d", len(got))
	}
}

func TestTickAbsoluteDateOnly(t *testing.T) {
	s := newTestScheduler(NewMemoryStore())
	events := []model.Event{{
		ID:       "ev-date",
		Date:     model.MustParseDate("2024-12-31"),
		Reminder: model.ReminderConfig{Enabled: true, Date: model.MustParseDate("2024-12-20")},
	}}
	if got := s.Tick(context.Background(), at(t, "2024-12-20 00:00"), events); len(got) != 1 {
		t.Fatalf("expected date-only reminder to fire at midnight, got %d", len(got))
	}
	if got := s.Tick(context.Background(), at(t, "2024-12-21 10:00"), events); len(got) != 0 {
		t.Fatalf("expected no reminder the day after, got %d", len(got))
	}
}

func TestTickTimeWithoutDateStaysRelative(t *testing.T) {
	s := newTestScheduler(NewMemoryStore())
	ev := relative("ev-time", "2024-06-06", nil)
	ev.Reminder.Time = "09:00"

	if IsDue(ev, model.MustParseDate("2024-06-06"), model.ClockTime{Hour: 10}) {
		t.Fatal("time-only reminder must not fire on the event day")
	}
	got := s.Tick(context.Background(), at(t, "2024-06-05 07:00"), []model.Event{ev})
	if len(got) != 1 || got[0].EventID != "ev-time" {
		t.Fatalf("expected the relative reminder the day before, got %+v", got)
	}
}

func TestTickScansFutureEvents(t *testing.T) {
	s := newTestScheduler(NewMemoryStore())
	events := []model.Event{relative("far", "2024-06-15", intPtr(10))}
	if got := s.Tick(context.Background(), at(t, "2024-06-05 07:00"), events); len(got) != 1 {
		t.Fatalf("expected reminder ten days ahead, got %d", len(got))
	}
}

func TestTickSkipsMalformedAndDisabled(t *testing.T) {
	s := newTestScheduler(NewMemoryStore())
	today := "2024-06-05"
	events := []model.Event{
		{ID: "bad-time", Reminder: model.ReminderConfig{Enabled: true, Date: model.MustParseDate(today), Time: "nine"}},
		{ID: "time-only", Reminder: model.ReminderConfig{Enabled: true, Time: "09:00"}},
		{ID: "relative-bad-time", Date: model.MustParseDate("2024-06-06"), Reminder: model.ReminderConfig{Enabled: true, Time: "nine"}},
		{ID: "unreadable-date", Date: model.MustParseDate("2024-06-06"), Reminder: model.ReminderConfig{Enabled: true, Malformed: true}},
		{ID: "no-anchor", Reminder: model.ReminderConfig{Enabled: true}},
		{ID: "negative", Date: model.MustParseDate("2024-06-04"), Reminder: model.ReminderConfig{Enabled: true, DaysBefore: intPtr(-1)}},
		{ID: "disabled", Date: model.MustParseDate("2024-06-06")},
		{ID: "", Date: model.MustParseDate("2024-06-06"), Reminder: model.ReminderConfig{Enabled: true}},
		relative("good", "2024-06-06", nil),
	}
	got := s.Tick(context.Background(), at(t, today+" 12:00"), events)
	if len(got) != 1 || got[0].EventID != "good" {
		t.Fatalf("expected only the well-formed reminder, got %+v", got)
	}
}

func TestTickExpiresMarkersFromPreviousDays(t *testing.T) {
	store := NewMemoryStore()
	s := newTestScheduler(store)
	ctx := context.Background()
	events := []model.Event{relative("ev-1", "2024-06-06", nil)}

	s.Tick(ctx, at(t, "2024-06-05 08:00"), events)
	oldKey := MarkerKey(DefaultMarkerPrefix, "ev-1", model.MustParseDate("2024-06-05"))
	if ok, _ := store.Has(ctx, oldKey); !ok {
		t.Fatal("expected marker after firing")
	}

	_ = store.Set(ctx, "unrelated_key_2020-01-01")
	_ = store.Set(ctx, DefaultMarkerPrefix+"_garbage")

	s.Tick(ctx, at(t, "2024-06-06 00:01"), events)
	if ok, _ := store.Has(ctx, oldKey); ok {
		t.Fatal("expected yesterday's marker to be collected")
	}
	if ok, _ := store.Has(ctx, DefaultMarkerPrefix+"_garbage"); ok {
		t.Fatal("expected unparsable marker to be collected")
	}
	if ok, _ := store.Has(ctx, "unrelated_key_2020-01-01"); !ok {
		t.Fatal("keys outside the prefix must be left alone")
	}
}

func TestTickUsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	s := NewScheduler(NewMemoryStore(), WithLocation(loc))
	events := []model.Event{relative("ev", "2024-06-06", nil)}

	// 22:30 UTC on the 4th is already the 5th at UTC+3.
	got := s.Tick(context.Background(), at(t, "2024-06-04 22:30"), events)
	if len(got) != 1 || got[0].Day.String() != "2024-06-05" {
		t.Fatalf("expected reminder on local day, got %+v", got)
	}
}

type flakyStore struct {
	*MemoryStore
	failHas  bool
	failSet  bool
	failList bool
	sets     int
}

func (f *flakyStore) Has(ctx context.Context, key string) (bool, error) {
	if f.failHas {
		return false, errors.New("storage disabled")
	}
	return f.MemoryStore.Has(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string) error {
	f.sets++
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.MemoryStore.Set(ctx, key)
}

func (f *flakyStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	if f.failList {
		return nil, errors.New("storage disabled")
	}
	return f.MemoryStore.ListKeys(ctx, prefix)
}

func TestTickStoreUnavailableStillEmits(t *testing.T) {
	store := &flakyStore{MemoryStore: NewMemoryStore(), failHas: true, failSet: true, failList: true}
	s := newTestScheduler(store)
	ctx := context.Background()
	events := []model.Event{relative("ev-1", "2024-06-06", nil)}

	if got := s.Tick(ctx, at(t, "2024-06-05 08:00"), events); len(got) != 1 {
		t.Fatalf("expected intent despite store failure, got %d", len(got))
	}

	store.failHas, store.failSet, store.failList = false, false, false
	if got := s.Tick(ctx, at(t, "2024-06-05 08:01"), events); len(got) != 1 {
		t.Fatalf("expected retry once the store recovers, got %d", len(got))
	}
	if got := s.Tick(ctx, at(t, "2024-06-05 08:02"), events); len(got) != 0 {
		t.Fatalf("expected marker to hold after recovery, got %d", len(got))
	}
	if store.sets != 2 {
		t.Fatalf("expected two marker writes, got %d", store.sets)
	}
}

func TestReleaseAllowsRedelivery(t *testing.T) {
	store := NewMemoryStore()
	s := newTestScheduler(store)
	ctx := context.Background()
	events := []model.Event{relative("ev-1", "2024-06-06", nil)}

	got := s.Tick(ctx, at(t, "2024-06-05 08:00"), events)
	if len(got) != 1 {
		t.Fatalf("expected intent, got %d", len(got))
	}
	if err := s.Release(ctx, got[0]); err != nil {
		t.Fatalf("release: %v", err)
	}
	if again := s.Tick(ctx, at(t, "2024-06-05 08:01"), events); len(again) != 1 {
		t.Fatalf("expected redelivery after release, got %d", len(again))
	}
}

func TestMarkerKeyRoundTrip(t *testing.T) {
	day := model.MustParseDate("2024-06-05")
	key := MarkerKey("famcal_notified", "event_with_underscores", day)
	if key != "famcal_notified_event_with_underscores_2024-06-05" {
		t.Fatalf("unexpected key: %s", key)
	}
	got, ok := MarkerDay(key)
	if !ok || got != day {
		t.Fatalf("unexpected marker day: %v %v", got, ok)
	}
	if _, ok := MarkerDay("famcal_notified_x_"); ok {
		t.Fatal("expected trailing separator to be rejected")
	}
}
