package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Kuzmenkoav1982/famcal/internal/views"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(loadCmd(m.source), waitForReminderCmd(m.reminders))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}

		switch typed.String() {
		case "/":
			return m.openPalette(), nil
		case m.Keys.Month:
			m.CurrentView = ViewMonth
			return m, nil
		case m.Keys.Agenda:
			m.CurrentView = ViewAgenda
			return m, nil
		case m.Keys.Reminders:
			m.CurrentView = ViewReminders
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case "t":
			m.selectDate(m.Today)
			return m, nil
		case "c":
			m.cycleCategory()
			return m, nil
		case "v":
			m.cycleViewer()
			return m, nil
		case "r":
			m.Status = StatusBar{Text: "reloading"}
			return m, loadCmd(m.source)
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}

		switch m.CurrentView {
		case ViewMonth:
			return m.handleMonthKey(typed), nil
		case ViewAgenda:
			return m.handleAgendaKey(typed), nil
		}
	case DataLoadedMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.Data = typed.Snapshot
		m.Status = StatusBar{Text: fmt.Sprintf("loaded %d event(s), %d task(s), %d goal(s)",
			len(m.Data.Events), len(m.Data.Tasks), len(m.Data.Goals))}
		return m, nil
	case ReminderDueMsg:
		m.pushReminder(typed.Intent)
		return m, waitForReminderCmd(m.reminders)
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	var left, right string
	switch m.CurrentView {
	case ViewMonth:
		left = m.renderMonthView()
		right = m.renderAgendaView()
	case ViewAgenda:
		left = m.renderAgendaView()
		right = m.renderDetailPane()
	case ViewReminders:
		left = m.renderReminderView()
		right = m.renderDetailPane()
	}
	right += m.renderHelpIfVisible()
	if p := m.renderCommandPalette(); p != "" {
		right = p + "\n" + right
	}

	header := fmt.Sprintf("famcal | view: %s | selected: %s", m.CurrentView, m.Selected.String())
	if f := m.filterLabel(); f != "" {
		header += " | " + f
	}
	return views.RenderApp(views.AppData{
		Header:       header,
		LeftPane:     left,
		RightPane:    right,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: m.lastReminderLine(),
		Footer: fmt.Sprintf("keys: %s month | %s agenda | %s reminders | / cmd | %s help | %s quit",
			m.Keys.Month, m.Keys.Agenda, m.Keys.Reminders, m.Keys.Help, m.Keys.Quit),
	})
}

func isKnownView(v View) bool {
	switch v {
	case ViewMonth, ViewAgenda, ViewReminders:
		return true
	default:
		return false
	}
}
