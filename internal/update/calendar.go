package update

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Kuzmenkoav1982/famcal/internal/calendar"
	"github.com/Kuzmenkoav1982/famcal/internal/model"
	"github.com/Kuzmenkoav1982/famcal/internal/views"
)

var weekdayHeader = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// gridDays is six full weeks, enough for any month.
const gridDays = 42

func (m Model) handleMonthKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "h", "left":
		m.selectDate(m.Selected.AddDays(-1))
	case "l", "right":
		m.selectDate(m.Selected.AddDays(1))
	case "k", "up":
		m.selectDate(m.Selected.AddDays(-7))
	case "j", "down":
		m.selectDate(m.Selected.AddDays(7))
	case "[":
		m.selectDate(shiftMonth(m.Selected, -1))
	case "]":
		m.selectDate(shiftMonth(m.Selected, 1))
	case "enter":
		m.CurrentView = ViewAgenda
	}
	return m
}

func (m Model) handleAgendaKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "h", "left":
		m.selectDate(m.Selected.AddDays(-1))
	case "l", "right":
		m.selectDate(m.Selected.AddDays(1))
	case "k", "up":
		if m.agendaCursor > 0 {
			m.agendaCursor--
		}
	case "j", "down":
		if m.agendaCursor < len(m.agendaItems())-1 {
			m.agendaCursor++
		}
	case "esc":
		m.CurrentView = ViewMonth
	}
	return m
}

func (m *Model) selectDate(d model.Date) {
	if !d.Valid() {
		return
	}
	if d != m.Selected {
		m.agendaCursor = 0
	}
	m.Selected = d
	m.Status = StatusBar{Text: fmt.Sprintf("selected %s", d.String())}
}

// shiftMonth moves by whole months and clamps the day to the target month.
func shiftMonth(d model.Date, delta int) model.Date {
	first := d.AddMonths(delta)
	last := first.AddMonths(1).AddDays(-1)
	if d.Day > last.Day {
		return last
	}
	return model.NewDate(first.Year, first.Month, d.Day)
}

// members maps assignee ids seen in the data to display names.
func (m Model) members() map[string]string {
	out := make(map[string]string)
	for _, ev := range m.Data.Events {
		if id := strings.TrimSpace(ev.AssigneeID); id != "" && id != model.AssigneeEveryone {
			if _, ok := out[id]; !ok || out[id] == "" {
				out[id] = ev.AssigneeName
			}
		}
		for _, a := range ev.Attendees {
			if _, ok := out[a]; !ok {
				out[a] = ""
			}
		}
	}
	return out
}

func (m Model) memberIDs() []string {
	members := m.members()
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m Model) resolverFilter() calendar.Filter {
	return m.Filter.Resolver(m.members())
}

func (m Model) agendaItems() []calendar.Occurrence {
	return calendar.OccurrencesOn(m.Selected, m.Data.Events, m.Data.Tasks, m.Data.Goals, m.resolverFilter())
}

func (m Model) currentOccurrence() (calendar.Occurrence, bool) {
	items := m.agendaItems()
	if m.agendaCursor < 0 || m.agendaCursor >= len(items) {
		return calendar.Occurrence{}, false
	}
	return items[m.agendaCursor], true
}

func gridStart(d model.Date) model.Date {
	first := model.NewDate(d.Year, d.Month, 1)
	// Monday-first weeks.
	offset := (int(first.Weekday()) + 6) % 7
	return first.AddDays(-offset)
}

func (m Model) monthGridData() views.MonthGridData {
	start := gridStart(m.Selected)
	end := start.AddDays(gridDays - 1)
	byDate := calendar.OccurrencesBetween(start, end, m.Data.Events, m.Data.Tasks, m.Data.Goals, m.resolverFilter())

	cells := make([]views.DayCellData, 0, gridDays)
	for i := 0; i < gridDays; i++ {
		d := start.AddDays(i)
		cells = append(cells, views.DayCellData{
			Day:      d.Day,
			Count:    len(byDate[d]),
			InMonth:  d.Month == m.Selected.Month,
			Today:    d == m.Today,
			Selected: d == m.Selected,
		})
	}
	return views.MonthGridData{
		Title:    m.Selected.Format("January 2006"),
		Weekdays: weekdayHeader,
		Cells:    cells,
		Filter:   m.filterLabel(),
	}
}

func (m Model) filterLabel() string {
	parts := make([]string, 0, 2)
	if m.Filter.Category != "" {
		parts = append(parts, "category="+string(m.Filter.Category))
	}
	if m.Filter.ViewerID != "" {
		parts = append(parts, "viewer="+m.Filter.ViewerID)
	}
	return strings.Join(parts, " ")
}

func (m *Model) cycleCategory() {
	all := model.Categories()
	next := all[0]
	if m.Filter.Category != "" {
		next = ""
		for i, c := range all {
			if c == m.Filter.Category && i+1 < len(all) {
				next = all[i+1]
			}
		}
	}
	m.Filter.Category = next
	m.agendaCursor = 0
	if next == "" {
		m.Status = StatusBar{Text: "category filter cleared"}
		return
	}
	m.Status = StatusBar{Text: fmt.Sprintf("category filter: %s", next)}
}

func (m *Model) cycleViewer() {
	ids := m.memberIDs()
	next := ""
	if m.Filter.ViewerID == "" {
		if len(ids) > 0 {
			next = ids[0]
		}
	} else {
		for i, id := range ids {
			if id == m.Filter.ViewerID && i+1 < len(ids) {
				next = ids[i+1]
			}
		}
	}
	m.Filter.ViewerID = next
	m.agendaCursor = 0
	if next == "" {
		m.Status = StatusBar{Text: "viewing the whole household"}
		return
	}
	m.Status = StatusBar{Text: fmt.Sprintf("viewing as %s", next)}
}

func (m Model) renderMonthView() string {
	return views.RenderMonthGrid(m.monthGridData())
}

func (m Model) renderAgendaView() string {
	items := m.agendaItems()
	data := views.AgendaPanelData{Date: m.Selected.Format("Mon, 2 Jan 2006"), Cursor: m.agendaCursor}
	for _, occ := range items {
		data.Items = append(data.Items, views.AgendaItemData{
			Kind:      string(occ.Kind),
			Time:      occ.Time,
			Title:     occ.Title,
			Category:  string(occ.Category),
			Recurring: occ.Recurring,
		})
	}
	if len(items) > 0 {
		data.TableView = m.agendaTable.View()
	}
	return views.RenderAgendaPanel(data)
}

func (m Model) renderDetailPane() string {
	occ, ok := m.currentOccurrence()
	if !ok {
		return views.RenderDetail(views.DetailData{})
	}
	data := views.DetailData{
		Title: occ.Title,
		Kind:  string(occ.Kind),
		When:  strings.TrimSpace(occ.Date.String() + " " + occ.Time),
	}
	switch {
	case occ.Event != nil:
		ev := occ.Event
		data.Category = string(ev.Category)
		data.Assignee = strings.TrimSpace(ev.AssigneeName + " " + bracket(ev.AssigneeID))
		data.Recurrence = m.describeSeries(*ev)
		data.Reminder = describeReminder(ev.Reminder)
		if strings.TrimSpace(ev.Notes) != "" {
			data.NotesPreview = views.RenderMarkdown(ev.Notes)
		}
	case occ.Task != nil:
		data.Category = fmt.Sprintf("%s, %s priority", occ.Task.Status, occ.Task.Priority)
		data.Assignee = occ.Task.AssigneeID
	case occ.Goal != nil:
		data.Category = fmt.Sprintf("%s, %d%%", occ.Goal.Status, occ.Goal.Progress)
	}
	return views.RenderDetail(data)
}

// describeSeries summarizes a pattern and lists the next few dates.
func (m Model) describeSeries(ev model.Event) string {
	if !ev.IsRecurring || ev.Recurrence == nil {
		return ""
	}
	p := ev.Recurrence
	desc := string(p.Frequency)
	if n := p.EffectiveInterval(); n > 1 {
		desc = fmt.Sprintf("%s every %d", p.Frequency, n)
	}
	if len(p.DaysOfWeek) > 0 {
		names := make([]string, 0, len(p.DaysOfWeek))
		for _, wd := range p.DaysOfWeek {
			if wd >= time.Sunday && wd <= time.Saturday {
				names = append(names, wd.String()[:3])
			}
		}
		desc += " on " + strings.Join(names, ",")
	}
	if !p.EndDate.IsZero() {
		desc += " until " + p.EndDate.String()
	}
	next := calendar.ExpandDates(ev, m.Selected.AddDays(1), m.Selected.AddDays(366))
	if len(next) > 3 {
		next = next[:3]
	}
	if len(next) > 0 {
		labels := make([]string, 0, len(next))
		for _, d := range next {
			labels = append(labels, d.String())
		}
		desc += "; next " + strings.Join(labels, ", ")
	}
	return desc
}

func describeReminder(r model.ReminderConfig) string {
	if !r.Enabled {
		return ""
	}
	if r.Malformed {
		return "unreadable"
	}
	if r.IsAbsolute() {
		return strings.TrimSpace(r.Date.String() + " " + r.Time)
	}
	return strings.TrimSpace(fmt.Sprintf("%d day(s) before %s", r.Offset(), r.Time))
}

func bracket(s string) string {
	if s == "" {
		return ""
	}
	return "(" + s + ")"
}
