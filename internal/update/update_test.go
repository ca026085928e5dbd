package update

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Kuzmenkoav1982/famcal/internal/model"
	"github.com/Kuzmenkoav1982/famcal/internal/reminder"
)

type fakeSource struct {
	snap Snapshot
	err  error
}

func (f fakeSource) Events(context.Context) ([]model.Event, error) { return f.snap.Events, f.err }
func (f fakeSource) Tasks(context.Context) ([]model.Task, error)   { return f.snap.Tasks, nil }
func (f fakeSource) Goals(context.Context) ([]model.Goal, error)   { return f.snap.Goals, nil }

func fixedNow() time.Time {
	return time.Date(2024, time.June, 5, 10, 0, 0, 0, time.UTC)
}

func testSnapshot() Snapshot {
	return Snapshot{
		Events: []model.Event{
			{ID: "ev-dentist", Title: "Dentist", Date: model.MustParseDate("2024-06-05"), Time: "09:30", Category: model.CategoryHealth, AssigneeID: "anna", AssigneeName: "Anna"},
			{ID: "ev-practice", Title: "Football practice", Date: model.MustParseDate("2024-06-03"), Time: "17:00", Category: model.CategorySchool, AssigneeID: "max",
				IsRecurring: true, Recurrence: &model.RecurrencePattern{Frequency: model.FrequencyWeekly, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}}},
			{ID: "ev-dinner", Title: "Family dinner", Date: model.MustParseDate("2024-06-05"), Time: "19:00", Category: model.CategoryFamily, AssigneeID: model.AssigneeEveryone},
		},
		Tasks: []model.Task{
			{ID: "t-1", Title: "Buy milk", DueDate: model.MustParseDate("2024-06-05"), Status: model.TaskStatusTodo, Priority: model.PriorityLow},
		},
		Goals: []model.Goal{
			{ID: "g-1", Title: "Save for holiday", Deadline: model.MustParseDate("2024-06-30"), Status: model.GoalStatusActive, Progress: 40},
		},
	}
}

func newTestModel() Model {
	m := New(Options{Now: fixedNow, Location: time.UTC})
	m.Data = testSnapshot()
	m.syncBubbleData()
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func TestNewModelDefaults(t *testing.T) {
	m := New(Options{Now: fixedNow, Location: time.UTC, DefaultViewer: model.AssigneeEveryone})
	if m.CurrentView != ViewMonth {
		t.Fatalf("expected default view %q, got %q", ViewMonth, m.CurrentView)
	}
	if m.Today.String() != "2024-06-05" || m.Selected != m.Today {
		t.Fatalf("expected today selected, got today=%s selected=%s", m.Today, m.Selected)
	}
	if m.Filter.ViewerID != "" {
		t.Fatalf("expected household viewer, got %q", m.Filter.ViewerID)
	}
	if m.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", m.Keys.Quit)
	}

	m = New(Options{Now: fixedNow, DefaultViewer: "anna", LegacyNameMatch: true})
	if m.Filter.ViewerID != "anna" || !m.Filter.LegacyNameMatch {
		t.Fatalf("unexpected filter: %+v", m.Filter)
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m := press(t, newTestModel(), "2")
	if m.CurrentView != ViewAgenda {
		t.Fatalf("expected agenda view, got %q", m.CurrentView)
	}
	m = press(t, m, "3")
	if m.CurrentView != ViewReminders {
		t.Fatalf("expected reminders view, got %q", m.CurrentView)
	}
	m = press(t, m, "1")
	if m.CurrentView != ViewMonth {
		t.Fatalf("expected month view, got %q", m.CurrentView)
	}
}

func TestUpdateSwitchViewMsg(t *testing.T) {
	updated, _ := newTestModel().Update(SwitchViewMsg{View: ViewAgenda})
	next := updated.(Model)
	if next.CurrentView != ViewAgenda {
		t.Fatalf("expected agenda view, got %q", next.CurrentView)
	}
	updated, _ = next.Update(SwitchViewMsg{View: View("Unknown")})
	next = updated.(Model)
	if next.CurrentView != ViewAgenda {
		t.Fatalf("expected view unchanged for unknown view, got %q", next.CurrentView)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	updated, _ := newTestModel().Update(SetStatusMsg{Text: "ready"})
	next := updated.(Model)
	if next.Status.Text != "ready" || next.Status.IsError {
		t.Fatalf("unexpected status: %+v", next.Status)
	}

	updated, _ = next.Update(AppErrorMsg{Err: errors.New("boom")})
	next = updated.(Model)
	if next.LastError == nil || next.LastError.Error() != "boom" {
		t.Fatalf("expected last error boom, got: %v", next.LastError)
	}
	if !next.Status.IsError || next.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", next.Status)
	}

	updated, _ = next.Update(ClearStatusMsg{})
	next = updated.(Model)
	if next.Status.Text != "" || next.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", next.Status)
	}
}

func TestUpdateQuitKey(t *testing.T) {
	updated, cmd := newTestModel().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	next := updated.(Model)
	if !next.Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestLoadCmdDeliversSnapshot(t *testing.T) {
	snap := testSnapshot()
	msg := loadCmd(fakeSource{snap: snap})()
	loaded, ok := msg.(DataLoadedMsg)
	if !ok {
		t.Fatalf("expected DataLoadedMsg, got %T", msg)
	}
	if loaded.Err != nil {
		t.Fatalf("unexpected load error: %v", loaded.Err)
	}

	m := New(Options{Now: fixedNow, Location: time.UTC})
	updated, _ := m.Update(loaded)
	next := updated.(Model)
	if len(next.Data.Events) != 3 || len(next.Data.Tasks) != 1 || len(next.Data.Goals) != 1 {
		t.Fatalf("unexpected snapshot: %+v", next.Data)
	}
	if !strings.Contains(next.Status.Text, "loaded 3 event(s)") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
}

func TestLoadCmdError(t *testing.T) {
	msg := loadCmd(fakeSource{err: errors.New("db locked")})()
	updated, _ := newTestModel().Update(msg)
	next := updated.(Model)
	if !next.Status.IsError || !strings.Contains(next.Status.Text, "db locked") {
		t.Fatalf("expected load error in status, got %+v", next.Status)
	}
	if len(next.Data.Events) != 3 {
		t.Fatal("expected previous data to survive a failed reload")
	}
	if loadCmd(nil) != nil {
		t.Fatal("expected nil command without a source")
	}
}

func TestAgendaListsSelectedDay(t *testing.T) {
	m := newTestModel()
	items := m.agendaItems()
	// Wednesday 2024-06-05: dentist, practice, dinner, one task.
	if len(items) != 4 {
		t.Fatalf("expected 4 agenda items, got %d: %+v", len(items), items)
	}
	m = press(t, m, "2")
	out := m.View()
	for _, want := range []string{"Dentist", "Football practice", "Family dinner", "Buy milk"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in agenda view: %q", want, out)
		}
	}
}

func TestMonthNavigation(t *testing.T) {
	m := press(t, newTestModel(), "l")
	if m.Selected.String() != "2024-06-06" {
		t.Fatalf("expected next day, got %s", m.Selected)
	}
	m = press(t, m, "j")
	if m.Selected.String() != "2024-06-13" {
		t.Fatalf("expected next week, got %s", m.Selected)
	}
	m = press(t, m, "]")
	if m.Selected.String() != "2024-07-13" {
		t.Fatalf("expected next month, got %s", m.Selected)
	}
	m = press(t, m, "t")
	if m.Selected != m.Today {
		t.Fatalf("expected today, got %s", m.Selected)
	}
	m = press(t, m, "enter")
	if m.CurrentView != ViewAgenda {
		t.Fatalf("expected enter to open agenda, got %q", m.CurrentView)
	}
	m = press(t, m, "esc")
	if m.CurrentView != ViewMonth {
		t.Fatalf("expected esc to return to month, got %q", m.CurrentView)
	}
}

func TestShiftMonthClampsDay(t *testing.T) {
	cases := map[string]string{
		"2024-01-31": "2024-02-29",
		"2023-01-31": "2023-02-28",
		"2024-03-15": "2024-04-15",
		"2024-12-31": "2025-01-31",
	}
	for from, want := range cases {
		if got := shiftMonth(model.MustParseDate(from), 1).String(); got != want {
			t.Fatalf("shiftMonth(%s, 1) = %s, want %s", from, got, want)
		}
	}
}

func TestMonthGridMarksOccurrences(t *testing.T) {
	data := newTestModel().monthGridData()
	if len(data.Cells) != gridDays {
		t.Fatalf("expected %d cells, got %d", gridDays, len(data.Cells))
	}
	// June 2024 starts on a Saturday, so the grid opens on Monday May 27.
	first := data.Cells[0]
	if first.Day != 27 || first.InMonth {
		t.Fatalf("unexpected first cell: %+v", first)
	}
	var today, monday int
	for _, c := range data.Cells {
		if c.Today {
			today = c.Count
		}
		if c.InMonth && c.Day == 10 {
			monday = c.Count
		}
	}
	if today != 4 {
		t.Fatalf("expected 4 items today, got %d", today)
	}
	if monday != 1 {
		t.Fatalf("expected practice on Monday the 10th, got %d", monday)
	}
}

func TestAgendaCursorAndDetail(t *testing.T) {
	m := press(t, newTestModel(), "2", "j")
	occ, ok := m.currentOccurrence()
	if !ok {
		t.Fatal("expected a selected occurrence")
	}
	first := m.agendaItems()[0]
	if occ.ID == first.ID {
		t.Fatalf("expected cursor to move past %s", first.ID)
	}
	m = press(t, m, "j", "j", "j", "j")
	if m.agendaCursor != len(m.agendaItems())-1 {
		t.Fatalf("expected cursor clamped to last item, got %d", m.agendaCursor)
	}
	m = press(t, m, "l")
	if m.agendaCursor != 0 {
		t.Fatalf("expected cursor reset on day change, got %d", m.agendaCursor)
	}
}

func TestCategoryCycle(t *testing.T) {
	m := press(t, newTestModel(), "c")
	if m.Filter.Category != model.CategoryFamily {
		t.Fatalf("expected family filter, got %q", m.Filter.Category)
	}
	// Tasks and goals are not categorized and stay visible.
	items := m.agendaItems()
	if len(items) != 2 || items[0].ID != "ev-dinner" || items[1].ID != "t-1" {
		t.Fatalf("expected dinner and the task, got %+v", items)
	}
	for range model.Categories() {
		m = press(t, m, "c")
	}
	if m.Filter.Category != "" {
		t.Fatalf("expected filter cleared after full cycle, got %q", m.Filter.Category)
	}
}

func TestViewerCycle(t *testing.T) {
	m := press(t, newTestModel(), "v")
	if m.Filter.ViewerID != "anna" {
		t.Fatalf("expected anna first, got %q", m.Filter.ViewerID)
	}
	for _, occ := range m.agendaItems() {
		if occ.ID == "ev-practice" {
			t.Fatal("expected max's practice hidden from anna")
		}
	}
	m = press(t, m, "v", "v")
	if m.Filter.ViewerID != "" {
		t.Fatalf("expected household after cycling, got %q", m.Filter.ViewerID)
	}
}

func TestCommandPaletteGotoAndFilter(t *testing.T) {
	m := press(t, newTestModel(), "/")
	if !m.Palette.Active {
		t.Fatal("expected palette active")
	}
	m = press(t, m, "goto 2024-07-04", "enter")
	if m.Palette.Active {
		t.Fatal("expected palette closed after enter")
	}
	if m.Selected.String() != "2024-07-04" {
		t.Fatalf("expected goto date, got %s (status %+v)", m.Selected, m.Status)
	}

	m = press(t, m, "/", "filter school", "enter")
	if m.Filter.Category != model.CategorySchool {
		t.Fatalf("expected school filter, got %q (status %+v)", m.Filter.Category, m.Status)
	}
	m = press(t, m, "/", "viewer max", "enter")
	if m.Filter.ViewerID != "max" {
		t.Fatalf("expected viewer max, got %q", m.Filter.ViewerID)
	}
	m = press(t, m, "/", "today", "enter")
	if m.Selected != m.Today {
		t.Fatalf("expected today, got %s", m.Selected)
	}
}

func TestCommandPaletteErrors(t *testing.T) {
	m := press(t, newTestModel(), "/", "goto tomorrow", "enter")
	if !m.Status.IsError {
		t.Fatalf("expected error status, got %+v", m.Status)
	}
	m = press(t, m, "/", "q", "esc")
	if m.Palette.Active || m.Quitting {
		t.Fatalf("expected esc to close palette without quitting: %+v", m.Palette)
	}
}

func TestCommandPaletteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "june.ics")
	m := press(t, newTestModel(), "/", "export "+path+" 2024-06-01 2024-06-07", "enter")
	if m.Status.IsError {
		t.Fatalf("unexpected export error: %+v", m.Status)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "Dentist") {
		t.Fatalf("unexpected ics body: %q", body)
	}
	// Practice on Mon 3 and Wed 5, dentist, dinner, task; goal falls outside.
	if !strings.Contains(m.Status.Text, "exported 5 occurrence(s)") {
		t.Fatalf("unexpected status: %q", m.Status.Text)
	}
}

func TestReminderDueMsgFeedsAndRewaits(t *testing.T) {
	ch := make(chan reminder.Intent, 1)
	m := New(Options{Now: fixedNow, Location: time.UTC, Reminders: ch})
	in := reminder.Intent{
		ID:                 "r-1",
		EventID:            "ev-dentist",
		Title:              "Dentist",
		EventDate:          model.MustParseDate("2024-06-06"),
		EventDateFormatted: "06.06.2024",
		EventTime:          "09:30",
		Day:                model.MustParseDate("2024-06-05"),
		FiredAt:            fixedNow(),
	}
	updated, cmd := m.Update(ReminderDueMsg{Intent: in})
	next := updated.(Model)
	if len(next.Feed) != 1 {
		t.Fatalf("expected one feed entry, got %d", len(next.Feed))
	}
	if cmd == nil {
		t.Fatal("expected command to wait for the next reminder")
	}
	if !strings.Contains(next.Status.Text, "Reminder: Dentist") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}

	ch <- in
	if got, ok := cmd().(ReminderDueMsg); !ok || got.Intent.ID != "r-1" {
		t.Fatalf("expected queued reminder, got %#v", got)
	}
	close(ch)
	if msg := waitForReminderCmd(ch)(); msg != nil {
		t.Fatalf("expected nil message from closed channel, got %#v", msg)
	}

	next = press(t, next, "3")
	if out := next.View(); !strings.Contains(out, "Reminder: Dentist") || !strings.Contains(out, "last reminder") {
		t.Fatalf("expected reminder in feed view: %q", out)
	}
}

func TestReminderFeedIsBounded(t *testing.T) {
	m := newTestModel()
	for i := 0; i < maxFeed+5; i++ {
		m.pushReminder(reminder.Intent{ID: string(rune('a' + i)), Title: "x"})
	}
	if len(m.Feed) != maxFeed {
		t.Fatalf("expected feed capped at %d, got %d", maxFeed, len(m.Feed))
	}
}

func TestViewContainsCoreState(t *testing.T) {
	m := newTestModel()
	m.Status = StatusBar{Text: "all good"}
	out := m.View()
	for _, want := range []string{"view: Month", "selected: 2024-06-05", "status: all good", "June 2024"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output: %q", want, out)
		}
	}
}

func TestHelpToggle(t *testing.T) {
	m := press(t, newTestModel(), "?")
	if !m.HelpVisible {
		t.Fatal("expected help visible")
	}
	if out := m.View(); !strings.Contains(out, "previous/next month") {
		t.Fatalf("expected month bindings in help: %q", out)
	}
	m = press(t, m, "?")
	if m.HelpVisible {
		t.Fatal("expected help hidden")
	}
}
