package storage

import (
	"context"
	"errors"

	"github.com/Kuzmenkoav1982/famcal/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	CreateEvent(ctx context.Context, in model.Event) error
	GetEvent(ctx context.Context, id string) (model.Event, error)
	UpdateEvent(ctx context.Context, in model.Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, filter EventListFilter) ([]model.Event, error)

	CreateTask(ctx context.Context, in model.Task) error
	GetTask(ctx context.Context, id string) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)

	CreateGoal(ctx context.Context, in model.Goal) error
	GetGoal(ctx context.Context, id string) (model.Goal, error)
	UpdateGoal(ctx context.Context, in model.Goal) error
	DeleteGoal(ctx context.Context, id string) error
	ListGoals(ctx context.Context, filter GoalListFilter) ([]model.Goal, error)

	// Unfiltered snapshots for the resolver and the reminder runner.
	Events(ctx context.Context) ([]model.Event, error)
	Tasks(ctx context.Context) ([]model.Task, error)
	Goals(ctx context.Context) ([]model.Goal, error)
}
