package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/Kuzmenkoav1982/famcal/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

const paletteHelpMarkdown = `## Commands

| command | effect |
|---|---|
| ` + "`goto YYYY-MM-DD`" + ` | select a day |
| ` + "`today`" + ` | select today |
| ` + "`filter <category|all>`" + ` | keep one category |
| ` + "`viewer <member|all>`" + ` | view as a household member |
| ` + "`export <file> [from to]`" + ` | write an .ics file |
`

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return "\n" + m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
		MarkdownView: views.RenderMarkdown(paletteHelpMarkdown),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Month, Action: "month grid"},
		{Key: m.Keys.Agenda, Action: "day agenda"},
		{Key: m.Keys.Reminders, Action: "reminder feed"},
		{Key: "t", Action: "jump to today"},
		{Key: "c", Action: "cycle category filter"},
		{Key: "v", Action: "cycle viewer"},
		{Key: "r", Action: "reload data"},
		{Key: "/", Action: "command palette"},
		{Key: m.Keys.Help, Action: "toggle help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewMonth:
		return []KeyBinding{
			{Key: "h/l", Action: "previous/next day"},
			{Key: "k/j", Action: "previous/next week"},
			{Key: "[/]", Action: "previous/next month"},
			{Key: "enter", Action: "open day agenda"},
		}
	case ViewAgenda:
		return []KeyBinding{
			{Key: "h/l", Action: "previous/next day"},
			{Key: "j/k", Action: "move agenda cursor"},
			{Key: "esc", Action: "back to month"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range append(m.globalBindings(), m.viewBindings()...) {
		out = append(out, key.NewBinding(key.WithKeys(strings.Split(kb.Key, "/")...), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
