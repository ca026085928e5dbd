package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type DayCellData struct {
	Day      int
	Count    int
	InMonth  bool
	Today    bool
	Selected bool
}

type MonthGridData struct {
	Title    string
	Weekdays []string
	// Cells holds whole weeks, row-major.
	Cells  []DayCellData
	Filter string
}

type AgendaItemData struct {
	Kind      string
	Time      string
	Title     string
	Category  string
	Recurring bool
}

type AgendaPanelData struct {
	Date      string
	TableView string
	Items     []AgendaItemData
	Cursor    int
}

type DetailData struct {
	Title        string
	Kind         string
	When         string
	Category     string
	Assignee     string
	Recurrence   string
	Reminder     string
	NotesPreview string
}

type ReminderFeedItemData struct {
	Title   string
	When    string
	FiredAt string
}

type HelpPanelData struct {
	CurrentView  string
	Bindings     []string
	HelpView     string
	MarkdownView string
}

var (
	cellWidth     = 7
	todayStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	outsideStyle  = lipgloss.NewStyle().Faint(true)
	weekdayStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

func RenderMonthGrid(data MonthGridData) string {
	var b strings.Builder
	b.WriteString(data.Title + "\n")
	if data.Filter != "" {
		b.WriteString("filter: " + data.Filter + "\n")
	}
	for _, wd := range data.Weekdays {
		b.WriteString(weekdayStyle.Render(padCell(wd)))
	}
	b.WriteString("\n")
	for i, cell := range data.Cells {
		b.WriteString(renderDayCell(cell))
		if (i+1)%7 == 0 {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDayCell(cell DayCellData) string {
	text := fmt.Sprintf("%2d", cell.Day)
	if cell.Count > 0 {
		text += fmt.Sprintf("(%d)", cell.Count)
	}
	text = padCell(text)
	switch {
	case cell.Selected:
		return selectedStyle.Render(text)
	case cell.Today:
		return todayStyle.Render(text)
	case !cell.InMonth:
		return outsideStyle.Render(text)
	default:
		return text
	}
}

func padCell(s string) string {
	if len(s) >= cellWidth {
		return s[:cellWidth]
	}
	return s + strings.Repeat(" ", cellWidth-len(s))
}

func RenderAgendaPanel(data AgendaPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("agenda: %s\n", data.Date))
	if len(data.Items) == 0 {
		b.WriteString("(nothing planned)")
		return b.String()
	}
	if data.TableView != "" {
		b.WriteString(data.TableView + "\n")
		return strings.TrimSpace(b.String())
	}
	for i, item := range data.Items {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s\n", cursor, agendaLine(item)))
	}
	return strings.TrimSpace(b.String())
}

func agendaLine(item AgendaItemData) string {
	when := item.Time
	if when == "" {
		when = "all-day"
	}
	line := fmt.Sprintf("[%s] %s %s", strings.ToUpper(item.Kind), when, item.Title)
	if item.Recurring {
		line += " (repeats)"
	}
	return line
}

func RenderDetail(data DetailData) string {
	if strings.TrimSpace(data.Title) == "" {
		return "details:\n(no selection)"
	}
	lines := []string{"details:", "title: " + data.Title, "kind: " + data.Kind, "when: " + data.When}
	for _, kv := range [][2]string{
		{"category", data.Category},
		{"assignee", data.Assignee},
		{"repeats", data.Recurrence},
		{"reminder", data.Reminder},
	} {
		if kv[1] != "" {
			lines = append(lines, kv[0]+": "+kv[1])
		}
	}
	if data.NotesPreview != "" {
		lines = append(lines, "", data.NotesPreview)
	}
	return strings.Join(lines, "\n")
}

func RenderReminderFeed(items []ReminderFeedItemData) string {
	if len(items) == 0 {
		return "reminders:\n(none yet today)"
	}
	var b strings.Builder
	b.WriteString("reminders:\n")
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		b.WriteString(fmt.Sprintf("%s  %s", item.FiredAt, item.Title))
		if item.When != "" {
			b.WriteString(" - " + item.When)
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return "command: " + inputView
}

func RenderHelpPanel(data HelpPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("help (%s):\n", strings.ToLower(data.CurrentView)))
	b.WriteString(strings.Join(data.Bindings, "\n"))
	if data.HelpView != "" {
		b.WriteString("\n" + data.HelpView)
	}
	if data.MarkdownView != "" {
		b.WriteString("\n\n" + data.MarkdownView)
	}
	return b.String()
}
