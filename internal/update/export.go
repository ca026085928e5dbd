package update

import (
	"github.com/Kuzmenkoav1982/famcal/internal/calendar"
	"github.com/Kuzmenkoav1982/famcal/internal/export"
	"github.com/Kuzmenkoav1982/famcal/internal/model"
)

// exportWindow writes the filtered occurrences in [from, to] to path and
// returns how many were written. A zero window exports the selected month.
func (m Model) exportWindow(path string, from, to model.Date) (int, error) {
	if from.IsZero() || to.IsZero() {
		from = model.NewDate(m.Selected.Year, m.Selected.Month, 1)
		to = from.AddMonths(1).AddDays(-1)
	}
	byDate := calendar.OccurrencesBetween(from, to, m.Data.Events, m.Data.Tasks, m.Data.Goals, m.resolverFilter())
	return export.WriteFile(path, byDate, export.WithLocation(m.loc), export.WithClock(m.now), export.WithName("famcal"))
}
