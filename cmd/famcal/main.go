package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Kuzmenkoav1982/famcal/internal/config"
	applog "github.com/Kuzmenkoav1982/famcal/internal/log"
	"github.com/Kuzmenkoav1982/famcal/internal/model"
	"github.com/Kuzmenkoav1982/famcal/internal/update"
)

type flagConfig struct {
	configPath string
	daemon     bool
	once       bool
	exportPath string
	from       string
	to         string
}

func main() {
	flags := parseFlags()
	if err := run(flags); err != nil {
		fmt.Fprintf(os.Stderr, "famcal failed: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig
	flag.StringVar(&cfg.configPath, "config", "famcal.yaml", "Path to config file")
	flag.BoolVar(&cfg.daemon, "daemon", false, "Run the reminder runner without the TUI")
	flag.BoolVar(&cfg.once, "once", false, "Run a single reminder tick and exit")
	flag.StringVar(&cfg.exportPath, "export", "", "Write an .ics file and exit")
	flag.StringVar(&cfg.from, "from", "", "First day to export (YYYY-MM-DD, default: first of this month)")
	flag.StringVar(&cfg.to, "to", "", "Last day to export (YYYY-MM-DD, default: end of the from month)")
	flag.Parse()
	return cfg
}

func run(flags flagConfig) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	loaded, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	cfg := config.FromEnv(*loaded)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	tui := !flags.daemon && !flags.once && flags.exportPath == ""
	closeLog, err := setupLogging(cfg, tui)
	if err != nil {
		return err
	}
	defer closeLog()

	loc, _ := cfg.Location()
	applog.Info("famcal starting",
		"config_path", flags.configPath,
		"database", cfg.DatabasePath,
		"marker_backend", cfg.Markers.Backend,
		"tick", cfg.TickSpec,
		"timezone", loc.String(),
		"daemon", flags.daemon,
		"once", flags.once,
		"export", flags.exportPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case flags.exportPath != "":
		from, to, err := exportWindow(flags.from, flags.to, model.DateOf(a.now().In(a.loc)))
		if err != nil {
			return err
		}
		n, err := a.ExportICS(ctx, flags.exportPath, from, to)
		if err != nil {
			return err
		}
		applog.Info("calendar exported", "path", flags.exportPath, "from", from.String(), "to", to.String(), "occurrences", n)
		return nil
	case flags.once:
		runner := a.NewRunner(0)
		intents, err := runner.RunOnce(ctx, a.now())
		runner.Stop()
		if err != nil {
			return err
		}
		applog.Info("single tick finished", "intents", len(intents))
		return nil
	case flags.daemon:
		runner := a.NewRunner(0)
		if err := runner.Start(); err != nil {
			return err
		}
		<-ctx.Done()
		applog.Info("signal received, shutting down")
		runner.Stop()
		return nil
	}

	runner := a.NewRunner(cfg.ChannelBuffer)
	if err := runner.Start(); err != nil {
		return err
	}
	defer runner.Stop()

	program := tea.NewProgram(update.New(update.Options{
		Source:          a.repo,
		Reminders:       runner.C(),
		Location:        a.loc,
		Now:             a.now,
		DefaultViewer:   cfg.DefaultViewer,
		LegacyNameMatch: cfg.LegacyNameMatch,
	}), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// setupLogging applies the configured level and output. The TUI owns the
// terminal, so without a log file its logs are dropped.
func setupLogging(cfg config.Config, tui bool) (func(), error) {
	applog.SetLevel(applog.ParseLevel(cfg.LogLevel))
	if cfg.LogFile == "" {
		if tui {
			applog.SetOutput(io.Discard)
		}
		return func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	applog.SetOutput(f)
	return func() { _ = f.Close() }, nil
}
