package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Kuzmenkoav1982/famcal/internal/notify"
	"github.com/Kuzmenkoav1982/famcal/internal/reminder"
	"github.com/Kuzmenkoav1982/famcal/internal/views"
)

func waitForReminderCmd(ch <-chan reminder.Intent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		in, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Intent: in}
	}
}

func (m *Model) pushReminder(in reminder.Intent) {
	m.Feed = append(m.Feed, in)
	if len(m.Feed) > maxFeed {
		m.Feed = m.Feed[len(m.Feed)-maxFeed:]
	}
	title, body := notify.Message(in)
	text := title
	if body != "" {
		text += " - " + body
	}
	m.Status = StatusBar{Text: text}
}

func (m Model) feedData() []views.ReminderFeedItemData {
	out := make([]views.ReminderFeedItemData, 0, len(m.Feed))
	for _, in := range m.Feed {
		title, body := notify.Message(in)
		out = append(out, views.ReminderFeedItemData{
			Title:   title,
			When:    body,
			FiredAt: in.FiredAt.In(m.loc).Format("15:04"),
		})
	}
	return out
}

func (m Model) renderReminderView() string {
	return views.RenderReminderFeed(m.feedData())
}

// lastReminderLine is the one-line banner shown under the panes.
func (m Model) lastReminderLine() string {
	if len(m.Feed) == 0 {
		return ""
	}
	title, body := notify.Message(m.Feed[len(m.Feed)-1])
	if body == "" {
		return "last reminder: " + title
	}
	return "last reminder: " + title + " - " + body
}
