package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTaskStatus = errors.New("model: invalid task status")
	ErrInvalidPriority   = errors.New("model: invalid task priority")
	ErrInvalidGoalStatus = errors.New("model: invalid goal status")
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Task is a household to-do with a single due date.
type Task struct {
	ID         string
	Title      string
	DueDate    Date
	Status     TaskStatus
	Priority   Priority
	AssigneeID string
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTaskStatus, t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if !t.DueDate.IsZero() && !t.DueDate.Valid() {
		return fmt.Errorf("%w: due date %q", ErrInvalidDate, t.DueDate.String())
	}
	return nil
}

type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusAbandoned:
		return true
	default:
		return false
	}
}

// Goal is a longer-running family goal with a deadline.
type Goal struct {
	ID       string
	Title    string
	Deadline Date
	Status   GoalStatus
	Progress int
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return errors.New("model: goal id is required")
	}
	if strings.TrimSpace(g.Title) == "" {
		return errors.New("model: goal title is required")
	}
	if !g.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidGoalStatus, g.Status)
	}
	if g.Progress < 0 || g.Progress > 100 {
		return fmt.Errorf("model: goal progress out of range: %d", g.Progress)
	}
	if !g.Deadline.IsZero() && !g.Deadline.Valid() {
		return fmt.Errorf("%w: deadline %q", ErrInvalidDate, g.Deadline.String())
	}
	return nil
}
