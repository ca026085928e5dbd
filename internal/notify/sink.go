// Package notify presents reminder intents to people: in the log, on the
// desktop or in a Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	applog "github.com/Kuzmenkoav1982/famcal/internal/log"
	"github.com/Kuzmenkoav1982/famcal/internal/reminder"
)

// Message renders the user-facing title and body for an intent.
func Message(in reminder.Intent) (title, body string) {
	title = "Reminder: " + strings.TrimSpace(in.Title)
	if strings.TrimSpace(in.Title) == "" {
		title = "Reminder"
	}
	parts := make([]string, 0, 2)
	if in.EventDateFormatted != "" {
		parts = append(parts, in.EventDateFormatted)
	}
	if in.EventTime != "" {
		parts = append(parts, "at "+in.EventTime)
	}
	body = strings.Join(parts, " ")
	return title, body
}

// LogSink writes every intent to the application log.
type LogSink struct{}

func (LogSink) Notify(_ context.Context, in reminder.Intent) error {
	title, body := Message(in)
	applog.Info(title, "when", body, "event_id", in.EventID, "intent_id", in.ID)
	return nil
}

// MultiSink fans an intent out to several sinks. Every sink is attempted;
// the joined error reports each failure.
type MultiSink []reminder.Sink

func (m MultiSink) Notify(ctx context.Context, in reminder.Intent) error {
	var errs []error
	for i, s := range m {
		if s == nil {
			continue
		}
		if err := s.Notify(ctx, in); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
