// Package calendar generates the fixed 7x6 month grid the appointment
// picker renders. Every month is shown as six full weeks, with leading and
// trailing days spilled over from the adjacent months.
package calendar

import "time"

const (
	// Cols is the number of weekday columns in the grid.
	Cols = 7
	// Rows is the number of week rows; fixed at six so every month fits.
	Rows = 6
)

// Highlight is the single highlight a day cell renders, in precedence order
// selected > today > has-appointment > plain.
type Highlight string

const (
	HighlightNone        Highlight = "none"
	HighlightAppointment Highlight = "appointment"
	HighlightToday       Highlight = "today"
	HighlightSelected    Highlight = "selected"
)

// DayCell is one grid cell.
type DayCell struct {
	Date           time.Time // Resolved calendar date of the cell
	Day            int       // Day of month, in the cell's own month
	InMonth        bool      // False for adjacent-month spillover days
	Today          bool
	HasAppointment bool
	Selected       bool
	Highlight      Highlight
}

// Grid maps the month containing reference onto a 6x7 week-by-weekday
// matrix. appointmentDates marks cells whose calendar day (in loc) contains
// an appointment; selected may be nil. Month arithmetic goes through
// time.Date, which normalizes across the December/January boundary.
func Grid(reference, today time.Time, selected *time.Time, appointmentDates []time.Time, loc *time.Location) [Rows][Cols]DayCell {
	reference = reference.In(loc)
	firstOfMonth := time.Date(reference.Year(), reference.Month(), 1, 0, 0, 0, 0, loc)

	// Day zero of a month is the last day of the month before it.
	daysInCurrentMonth := time.Date(reference.Year(), reference.Month()+1, 0, 0, 0, 0, 0, loc).Day()
	daysInPreviousMonth := time.Date(reference.Year(), reference.Month(), 0, 0, 0, 0, 0, loc).Day()
	firstWeekdayIndex := int(firstOfMonth.Weekday())

	var grid [Rows][Cols]DayCell
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			relative := 1 + col + 7*row - firstWeekdayIndex

			var cell DayCell
			switch {
			case relative <= 0:
				cell.Day = daysInPreviousMonth + relative
				cell.Date = time.Date(reference.Year(), reference.Month()-1, cell.Day, 0, 0, 0, 0, loc)
			case relative > daysInCurrentMonth:
				cell.Day = relative - daysInCurrentMonth
				cell.Date = time.Date(reference.Year(), reference.Month()+1, cell.Day, 0, 0, 0, 0, loc)
			default:
				cell.Day = relative
				cell.Date = time.Date(reference.Year(), reference.Month(), cell.Day, 0, 0, 0, 0, loc)
				cell.InMonth = true
			}

			cell.Today = sameDay(cell.Date, today, loc)
			cell.Selected = selected != nil && sameDay(cell.Date, *selected, loc)
			for _, d := range appointmentDates {
				if sameDay(cell.Date, d, loc) {
					cell.HasAppointment = true
					break
				}
			}
			cell.Highlight = highlightFor(cell)

			grid[row][col] = cell
		}
	}
	return grid
}

func highlightFor(cell DayCell) Highlight {
	switch {
	case cell.Selected:
		return HighlightSelected
	case cell.Today:
		return HighlightToday
	case cell.HasAppointment:
		return HighlightAppointment
	default:
		return HighlightNone
	}
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
