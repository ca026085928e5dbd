package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/Kuzmenkoav1982/famcal/internal/calendar"
	"github.com/Kuzmenkoav1982/famcal/internal/model"
	"github.com/Kuzmenkoav1982/famcal/internal/reminder"
)

type View string

const (
	ViewMonth     View = "Month"
	ViewAgenda    View = "Agenda"
	ViewReminders View = "Reminders"
)

// maxFeed bounds the in-memory reminder feed.
const maxFeed = 20

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Month     string
	Agenda    string
	Reminders string
	Help      string
	Quit      string
}

// DataSource supplies the collections the calendar is resolved from.
type DataSource interface {
	Events(ctx context.Context) ([]model.Event, error)
	Tasks(ctx context.Context) ([]model.Task, error)
	Goals(ctx context.Context) ([]model.Goal, error)
}

type Snapshot struct {
	Events []model.Event
	Tasks  []model.Task
	Goals  []model.Goal
}

type FilterState struct {
	Category model.Category
	// ViewerID is empty for the whole household.
	ViewerID        string
	LegacyNameMatch bool
}

// Resolver returns the calendar.Filter for the current state.
func (f FilterState) Resolver(members map[string]string) calendar.Filter {
	out := calendar.Filter{Category: f.Category, LegacyNameMatch: f.LegacyNameMatch}
	if f.ViewerID != "" {
		out.Viewer = &calendar.Viewer{ID: f.ViewerID, Name: members[f.ViewerID]}
	}
	return out
}

type Options struct {
	Source    DataSource
	Reminders <-chan reminder.Intent
	Location  *time.Location
	Now       func() time.Time
	// DefaultViewer is a member id; "" or "all" shows everyone.
	DefaultViewer   string
	LegacyNameMatch bool
}

type Model struct {
	CurrentView View
	Today       model.Date
	Selected    model.Date
	Data        Snapshot
	Filter      FilterState
	Feed        []reminder.Intent
	HelpVisible bool
	Palette     CommandPaletteState
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	agendaCursor int
	source       DataSource
	reminders    <-chan reminder.Intent
	loc          *time.Location
	now          func() time.Time

	agendaTable  table.Model
	commandInput textinput.Model
	helpModel    help.Model
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type DataLoadedMsg struct {
	Snapshot Snapshot
	Err      error
}

type ReminderDueMsg struct {
	Intent reminder.Intent
}

func New(opts Options) Model {
	m := Model{
		CurrentView: ViewMonth,
		Keys: GlobalKeyMap{
			Month:     "1",
			Agenda:    "2",
			Reminders: "3",
			Help:      "?",
			Quit:      "q",
		},
		source:    opts.Source,
		reminders: opts.Reminders,
		loc:       opts.Location,
		now:       opts.Now,
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.now == nil {
		m.now = time.Now
	}
	if opts.DefaultViewer != model.AssigneeEveryone {
		m.Filter.ViewerID = opts.DefaultViewer
	}
	m.Filter.LegacyNameMatch = opts.LegacyNameMatch
	m.Today = model.DateOf(m.now().In(m.loc))
	m.Selected = m.Today
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Kind", Width: 6},
		{Title: "Title", Width: 24},
		{Title: "Category", Width: 10},
	}
	m.agendaTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(10))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.Placeholder = "goto 2024-06-01 | today | filter school | viewer all | export family.ics"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.helpModel = help.New()
}

func (m *Model) syncBubbleData() {
	items := m.agendaItems()
	rows := make([]table.Row, 0, len(items))
	for _, occ := range items {
		rows = append(rows, table.Row{displayTime(occ.Time), string(occ.Kind), occ.Title, string(occ.Category)})
	}
	m.agendaTable.SetRows(rows)
	if m.agendaCursor >= len(rows) {
		m.agendaCursor = len(rows) - 1
	}
	if m.agendaCursor < 0 {
		m.agendaCursor = 0
	}
	if len(rows) > 0 {
		m.agendaTable.SetCursor(m.agendaCursor)
	}
	if m.Palette.Active {
		m.commandInput.Focus()
	} else {
		m.commandInput.Blur()
	}
}

func displayTime(t string) string {
	if t == "" {
		return "all-day"
	}
	return t
}
