package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Kuzmenkoav1982/famcal/internal/commands"
	"github.com/Kuzmenkoav1982/famcal/internal/views"
)

func (m Model) openPalette() Model {
	m.Palette.Active = true
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Focus()
	m.Status = StatusBar{Text: "command palette active"}
	return m
}

func (m Model) closePalette() Model {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Goto: func(a commands.GotoArgs) (commands.Result, error) {
			m.selectDate(a.Date)
			return commands.Result{Message: fmt.Sprintf("jumped to %s", a.Date.String())}, nil
		},
		Today: func() (commands.Result, error) {
			m.selectDate(m.Today)
			return commands.Result{Message: "back to today"}, nil
		},
		Filter: func(a commands.FilterArgs) (commands.Result, error) {
			m.Filter.Category = a.Category
			m.agendaCursor = 0
			if a.Category == "" {
				return commands.Result{Message: "category filter cleared"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("category filter: %s", a.Category)}, nil
		},
		Viewer: func(a commands.ViewerArgs) (commands.Result, error) {
			m.Filter.ViewerID = a.MemberID
			m.agendaCursor = 0
			if a.MemberID == "" {
				return commands.Result{Message: "viewing the whole household"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("viewing as %s", a.MemberID)}, nil
		},
		Export: func(a commands.ExportArgs) (commands.Result, error) {
			n, err := m.exportWindow(a.Path, a.From, a.To)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("exported %d occurrence(s) to %s", n, a.Path)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.LastError = err
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, nil
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.commandInput.View())
}
