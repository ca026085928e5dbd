package storage

import "github.com/Kuzmenkoav1982/famcal/internal/model"

type EventListFilter struct {
	Category model.Category
	// RecurringOnly limits the list to series.
	RecurringOnly bool
	// ReminderOnly limits the list to events with reminders enabled.
	ReminderOnly bool
	Limit        int
	Offset       int
}

type TaskListFilter struct {
	Status model.TaskStatus
	From   model.Date
	To     model.Date
	Limit  int
	Offset int
}

type GoalListFilter struct {
	Status model.GoalStatus
	Limit  int
	Offset int
}
