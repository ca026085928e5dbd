package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kuzmenkoav1982/famcal/internal/calendar"
	"github.com/Kuzmenkoav1982/famcal/internal/config"
	"github.com/Kuzmenkoav1982/famcal/internal/export"
	applog "github.com/Kuzmenkoav1982/famcal/internal/log"
	"github.com/Kuzmenkoav1982/famcal/internal/model"
	"github.com/Kuzmenkoav1982/famcal/internal/notify"
	"github.com/Kuzmenkoav1982/famcal/internal/reminder"
	"github.com/Kuzmenkoav1982/famcal/internal/storage"
)

// app holds the wiring shared by the TUI, daemon, single-tick and export
// modes.
type app struct {
	cfg     config.Config
	repo    *storage.SQLiteRepository
	markers reminder.MarkerStore
	sink    reminder.Sink
	loc     *time.Location
	now     func() time.Time
	closers []func()
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, loc: loc, now: time.Now}

	repo, err := storage.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.repo = repo
	a.closers = append(a.closers, func() { _ = repo.Close() })

	if err := a.openMarkers(ctx); err != nil {
		a.Close()
		return nil, err
	}
	sink, err := buildSink(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sink = sink
	return a, nil
}

func (a *app) openMarkers(ctx context.Context) error {
	switch a.cfg.Markers.Backend {
	case config.MarkerBackendMemory:
		a.markers = reminder.NewMemoryStore()
	case config.MarkerBackendPostgres:
		pg, err := storage.ConnectPostgresMarkers(ctx, a.cfg.Markers.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect marker store: %w", err)
		}
		a.markers = pg
		a.closers = append(a.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = pg.Close(ctx)
		})
	default:
		a.markers = a.repo.Markers()
	}
	return nil
}

// buildSink always logs, and adds desktop and Telegram delivery when
// configured.
func buildSink(cfg config.Config) (reminder.Sink, error) {
	sinks := notify.MultiSink{notify.LogSink{}}
	if cfg.DesktopNotifications {
		sinks = append(sinks, notify.NewDesktopSink())
	}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegramSink(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("telegram sink: %w", err)
		}
		sinks = append(sinks, tg)
	}
	return sinks, nil
}

func (a *app) scheduler() *reminder.Scheduler {
	return reminder.NewScheduler(a.markers,
		reminder.WithPrefix(a.cfg.Markers.Prefix),
		reminder.WithLocation(a.loc),
		reminder.WithDateLayout(a.cfg.DateLayout),
	)
}

// NewRunner builds a runner over the repository; buffer > 0 also publishes
// intents on the runner channel.
func (a *app) NewRunner(buffer int) *reminder.Runner {
	opts := []reminder.RunnerOption{
		reminder.WithSpec(a.cfg.TickSpec),
		reminder.WithSink(a.sink),
		reminder.WithClock(a.now),
		reminder.WithCronLocation(a.loc),
	}
	if buffer > 0 {
		opts = append(opts, reminder.WithChannel(buffer))
	}
	return reminder.NewRunner(a.scheduler(), a.repo, opts...)
}

// ExportICS writes the occurrences in [from, to], seen by the default
// viewer, to path.
func (a *app) ExportICS(ctx context.Context, path string, from, to model.Date) (int, error) {
	events, err := a.repo.Events(ctx)
	if err != nil {
		return 0, err
	}
	tasks, err := a.repo.Tasks(ctx)
	if err != nil {
		return 0, err
	}
	goals, err := a.repo.Goals(ctx)
	if err != nil {
		return 0, err
	}

	filter := calendar.Filter{LegacyNameMatch: a.cfg.LegacyNameMatch}
	if v := a.cfg.DefaultViewer; v != "" && v != model.AssigneeEveryone {
		filter.Viewer = &calendar.Viewer{ID: v}
	}
	byDate := calendar.OccurrencesBetween(from, to, events, tasks, goals, filter)
	return export.WriteFile(path, byDate, export.WithLocation(a.loc), export.WithClock(a.now), export.WithName("famcal"))
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// exportWindow resolves the -from/-to flags. An empty from means the first
// of today's month; an empty to means the end of the from month.
func exportWindow(rawFrom, rawTo string, today model.Date) (model.Date, model.Date, error) {
	from := model.NewDate(today.Year, today.Month, 1)
	if rawFrom != "" {
		d, err := model.ParseDate(rawFrom)
		if err != nil {
			return model.Date{}, model.Date{}, fmt.Errorf("-from: %w", err)
		}
		from = d
	}
	to := model.NewDate(from.Year, from.Month, 1).AddMonths(1).AddDays(-1)
	if rawTo != "" {
		d, err := model.ParseDate(rawTo)
		if err != nil {
			return model.Date{}, model.Date{}, fmt.Errorf("-to: %w", err)
		}
		to = d
	}
	if to.Before(from) {
		return model.Date{}, model.Date{}, errors.New("-to is before -from")
	}
	applog.Debug("export window", "from", from.String(), "to", to.String())
	return from, to, nil
}
