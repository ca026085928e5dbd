package update

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const loadTimeout = 5 * time.Second

func loadCmd(source DataSource) tea.Cmd {
	if source == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		snap, err := loadSnapshot(ctx, source)
		return DataLoadedMsg{Snapshot: snap, Err: err}
	}
}

func loadSnapshot(ctx context.Context, source DataSource) (Snapshot, error) {
	events, err := source.Events(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load events: %w", err)
	}
	tasks, err := source.Tasks(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load tasks: %w", err)
	}
	goals, err := source.Goals(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load goals: %w", err)
	}
	return Snapshot{Events: events, Tasks: tasks, Goals: goals}, nil
}
