// Package calendar lays roster assignments out on a month grid.
package calendar

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardroster/wardroster/internal/domain/roster"
	"github.com/wardroster/wardroster/internal/platform/dates"
)

// Cell is one slot of the grid. Leading padding cells have no date.
type Cell struct {
	Date        *time.Time           `json:"date,omitempty"`
	Day         int                  `json:"day,omitempty"`
	Assignments []*roster.Assignment `json:"assignments"`
}

func (c Cell) Empty() bool {
	return c.Date == nil
}

// Month is a Sunday-first grid. The first Leading cells are padding; then
// comes one cell per day. Trailing cells are not padded, so the last week may
// hold fewer than seven cells.
type Month struct {
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Leading int        `json:"leading"`
	Cells   []Cell     `json:"cells"`
}

// DaysIn returns the number of days of a month, leap years included.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// BuildMonth builds the grid for year/month and puts each assignment in the
// cell whose date equals the assignment date. Assignments outside the month
// are ignored and an assignment id is listed at most once. Every matching
// assignment is kept; shortening a busy day is up to the caller.
func BuildMonth(year int, month time.Month, assignments []*roster.Assignment) Month {
	first := dates.Of(year, month, 1)
	leading := int(first.Weekday())
	days := DaysIn(year, month)

	byDay := make(map[int][]*roster.Assignment)
	seen := make(map[uuid.UUID]bool, len(assignments))
	for _, a := range assignments {
		if a == nil || seen[a.ID] {
			continue
		}
		y, m, d := a.Date.Date()
		if y != year || m != month {
			continue
		}
		seen[a.ID] = true
		byDay[d] = append(byDay[d], a)
	}

	cells := make([]Cell, 0, leading+days)
	for i := 0; i < leading; i++ {
		cells = append(cells, Cell{Assignments: []*roster.Assignment{}})
	}
	for d := 1; d <= days; d++ {
		date := dates.Of(year, month, d)
		list := byDay[d]
		if list == nil {
			list = []*roster.Assignment{}
		}
		cells = append(cells, Cell{Date: &date, Day: d, Assignments: list})
	}
	return Month{Year: year, Month: month, Leading: leading, Cells: cells}
}

// Weeks splits the cells into rows of seven.
func (m Month) Weeks() [][]Cell {
	var weeks [][]Cell
	for i := 0; i < len(m.Cells); i += 7 {
		end := i + 7
		if end > len(m.Cells) {
			end = len(m.Cells)
		}
		weeks = append(weeks, m.Cells[i:end])
	}
	return weeks
}

// Day returns the cell of day d, or false when d is not in the month.
func (m Month) Day(d int) (Cell, bool) {
	i := m.Leading + d - 1
	if d < 1 || i >= len(m.Cells) {
		return Cell{}, false
	}
	return m.Cells[i], true
}

// First returns the first day of the month.
func (m Month) First() time.Time {
	return dates.Of(m.Year, m.Month, 1)
}

// NextMonth returns the first day of the month after t.
func NextMonth(t time.Time) time.Time {
	return dates.Of(t.Year(), t.Month(), 1).AddDate(0, 1, 0)
}

// PrevMonth returns the first day of the month before t.
func PrevMonth(t time.Time) time.Time {
	return dates.Of(t.Year(), t.Month(), 1).AddDate(0, -1, 0)
}
