// Package calendar materializes events, tasks and goals onto calendar dates.
//
// Every function in this package is pure: inputs are read, never mutated, and
// results depend only on the arguments, so callers may paint many grid cells
// concurrently without coordination.
package calendar

import (
	"strings"

	"github.com/Kuzmenkoav1982/famcal/internal/model"
)

type Kind string

const (
	KindEvent Kind = "event"
	KindTask  Kind = "task"
	KindGoal  Kind = "goal"
)

// Occurrence is one entry materialized onto a specific date. Exactly one of
// Event, Task or Goal is set, matching Kind.
type Occurrence struct {
	Kind      Kind
	Date      model.Date
	ID        string
	Title     string
	Time      string
	Category  model.Category
	Recurring bool

	Event *model.Event
	Task  *model.Task
	Goal  *model.Goal
}

// Viewer identifies who is looking at the calendar.
type Viewer struct {
	ID   string
	Name string
}

type Filter struct {
	// Category keeps only events with this tag. Empty means all.
	Category model.Category
	// Viewer hides events assigned to someone else. Nil means no filtering.
	Viewer *Viewer
	// LegacyNameMatch also accepts an assignee stored as the viewer's display
	// name. Compatibility shim for records written before ids were canonical.
	LegacyNameMatch bool
}

// IsRecurringOnDate reports whether a recurring event expands onto target.
// Non-recurring events, events without a pattern or anchor, and malformed
// patterns never match.
func IsRecurringOnDate(ev model.Event, target model.Date) bool {
	if !ev.IsRecurring || ev.Recurrence == nil {
		return false
	}
	return ev.Recurrence.Matches(ev.Date, target)
}

// OccursOn reports whether ev lands on date, directly or via recurrence.
func OccursOn(ev model.Event, date model.Date) bool {
	if !ev.Date.IsZero() && ev.Date == date {
		return true
	}
	return IsRecurringOnDate(ev, date)
}

// OccurrencesOn returns events (filtered), then tasks due, then goals due on
// date, each group in input order.
func OccurrencesOn(date model.Date, events []model.Event, tasks []model.Task, goals []model.Goal, filter Filter) []Occurrence {
	out := make([]Occurrence, 0)
	if date.IsZero() {
		return out
	}

	for i := range events {
		ev := events[i]
		if !OccursOn(ev, date) {
			continue
		}
		if !filter.keepsCategory(ev) || !filter.keepsViewer(ev) {
			continue
		}
		out = append(out, eventOccurrence(ev, date))
	}
	for i := range tasks {
		if tasks[i].DueDate.IsZero() || tasks[i].DueDate != date {
			continue
		}
		task := tasks[i]
		out = append(out, Occurrence{
			Kind:  KindTask,
			Date:  date,
			ID:    task.ID,
			Title: task.Title,
			Task:  &task,
		})
	}
	for i := range goals {
		if goals[i].Deadline.IsZero() || goals[i].Deadline != date {
			continue
		}
		goal := goals[i]
		out = append(out, Occurrence{
			Kind:  KindGoal,
			Date:  date,
			ID:    goal.ID,
			Title: goal.Title,
			Goal:  &goal,
		})
	}
	return out
}

// OccurrencesBetween resolves every date in [from, to] and returns only the
// dates with at least one occurrence.
func OccurrencesBetween(from, to model.Date, events []model.Event, tasks []model.Task, goals []model.Goal, filter Filter) map[model.Date][]Occurrence {
	out := make(map[model.Date][]Occurrence)
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return out
	}
	for d := from; !d.After(to); d = d.AddDays(1) {
		if items := OccurrencesOn(d, events, tasks, goals, filter); len(items) > 0 {
			out[d] = items
		}
	}
	return out
}

func eventOccurrence(ev model.Event, date model.Date) Occurrence {
	cp := ev
	if ev.Attendees != nil {
		cp.Attendees = append([]string(nil), ev.Attendees...)
	}
	if ev.Recurrence != nil {
		pattern := *ev.Recurrence
		cp.Recurrence = &pattern
	}
	return Occurrence{
		Kind:      KindEvent,
		Date:      date,
		ID:        ev.ID,
		Title:     ev.Title,
		Time:      ev.Time,
		Category:  ev.Category,
		Recurring: ev.IsRecurring && ev.Recurrence != nil,
		Event:     &cp,
	}
}

func (f Filter) keepsCategory(ev model.Event) bool {
	if f.Category == "" {
		return true
	}
	return ev.Category == f.Category
}

func (f Filter) keepsViewer(ev model.Event) bool {
	if f.Viewer == nil {
		return true
	}
	if !ev.HasAssignee() {
		return true
	}
	viewerID := strings.TrimSpace(f.Viewer.ID)
	if viewerID != "" {
		for _, a := range ev.Attendees {
			if a == viewerID {
				return true
			}
		}
		if strings.TrimSpace(ev.AssigneeID) == viewerID {
			return true
		}
	}
	if !f.LegacyNameMatch {
		return false
	}
	name := strings.TrimSpace(f.Viewer.Name)
	if name == "" {
		return false
	}
	// Older records put the display name into the id slot as well.
	return strings.EqualFold(strings.TrimSpace(ev.AssigneeName), name) ||
		strings.EqualFold(strings.TrimSpace(ev.AssigneeID), name)
}
