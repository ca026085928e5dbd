package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCategory   = errors.New("model: invalid event category")
	ErrInvalidVisibility = errors.New("model: invalid event visibility")
	ErrMissingRecurrence = errors.New("model: recurring event requires a recurrence pattern")
)

type Category string

const (
	CategoryFamily   Category = "family"
	CategoryWork     Category = "work"
	CategorySchool   Category = "school"
	CategoryHealth   Category = "health"
	CategoryBirthday Category = "birthday"
	CategoryHoliday  Category = "holiday"
	CategoryPersonal Category = "personal"
	CategoryOther    Category = "other"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryFamily,
		CategoryWork,
		CategorySchool,
		CategoryHealth,
		CategoryBirthday,
		CategoryHoliday,
		CategoryPersonal,
		CategoryOther,
	}
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryFamily, CategoryWork, CategorySchool, CategoryHealth,
		CategoryBirthday, CategoryHoliday, CategoryPersonal, CategoryOther:
		return true
	default:
		return false
	}
}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}
	return c, nil
}

type Visibility string

const (
	VisibilityShared  Visibility = "shared"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityShared, VisibilityPrivate:
		return true
	default:
		return false
	}
}

// AssigneeEveryone is the sentinel assignee meaning the whole household.
const AssigneeEveryone = "all"

type Event struct {
	ID         string
	Title      string
	Date       Date
	Time       string
	Category   Category
	Visibility Visibility
	AssigneeID string
	// AssigneeName is the display name some hosts store instead of an id.
	AssigneeName string
	Attendees    []string
	IsRecurring  bool
	Recurrence   *RecurrencePattern
	Reminder     ReminderConfig
	Notes        string
}

// HasAssignee reports whether the event is assigned to someone specific.
func (e Event) HasAssignee() bool {
	id := strings.TrimSpace(e.AssigneeID)
	if id != "" {
		return id != AssigneeEveryone
	}
	name := strings.TrimSpace(e.AssigneeName)
	return name != "" && name != AssigneeEveryone
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("model: event id is required")
	}
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("model: event title is required")
	}
	if !e.Date.Valid() {
		return fmt.Errorf("%w: event date %q", ErrInvalidDate, e.Date.String())
	}
	if e.Time != "" {
		if _, err := ParseClock(e.Time); err != nil {
			return err
		}
	}
	if !e.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, e.Category)
	}
	if !e.Visibility.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidVisibility, e.Visibility)
	}
	if e.IsRecurring {
		if e.Recurrence == nil {
			return ErrMissingRecurrence
		}
		if err := e.Recurrence.Validate(); err != nil {
			return err
		}
	}
	return e.Reminder.Validate()
}
