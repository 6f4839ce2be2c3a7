package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// May 2025 starts on a Thursday and follows a 30-day April, which exercises
// both spillover directions.
func TestGrid_SpilloverDays(t *testing.T) {
	reference := date(2025, time.May, 15)
	grid := Grid(reference, date(2025, time.May, 15), nil, nil, time.UTC)

	tests := []struct {
		name      string
		row, col  int
		wantDay   int
		wantMonth time.Month
		wantYear  int
		inMonth   bool
	}{
		{
			name: "first cell is April 27",
			row:  0, col: 0,
			wantDay: 27, wantMonth: time.April, wantYear: 2025,
		},
		{
			name: "last leading spillover is April 30",
			row:  0, col: 3,
			wantDay: 30, wantMonth: time.April, wantYear: 2025,
		},
		{
			name: "first of month lands on Thursday column",
			row:  0, col: 4,
			wantDay: 1, wantMonth: time.May, wantYear: 2025,
			inMonth: true,
		},
		{
			name: "last of month",
			row:  4, col: 6,
			wantDay: 31, wantMonth: time.May, wantYear: 2025,
			inMonth: true,
		},
		{
			name: "first trailing spillover is June 1",
			row:  5, col: 0,
			wantDay: 1, wantMonth: time.June, wantYear: 2025,
		},
		{
			name: "last cell is June 7",
			row:  5, col: 6,
			wantDay: 7, wantMonth: time.June, wantYear: 2025,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := grid[tt.row][tt.col]
			if cell.Day != tt.wantDay {
				t.Errorf("cell (%d,%d) day = %v, want %v", tt.row, tt.col, cell.Day, tt.wantDay)
			}
			if cell.Date.Month() != tt.wantMonth || cell.Date.Year() != tt.wantYear {
				t.Errorf("cell (%d,%d) date = %v, want %v %d", tt.row, tt.col, cell.Date, tt.wantMonth, tt.wantYear)
			}
			if cell.InMonth != tt.inMonth {
				t.Errorf("cell (%d,%d) inMonth = %v, want %v", tt.row, tt.col, cell.InMonth, tt.inMonth)
			}
		})
	}
}

func TestGrid_EveryDayAppearsOnce(t *testing.T) {
	grid := Grid(date(2025, time.May, 1), date(2025, time.May, 1), nil, nil, time.UTC)

	seen := make(map[int]bool)
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			cell := grid[row][col]
			if !cell.InMonth {
				continue
			}
			if seen[cell.Day] {
				t.Errorf("day %d appears twice", cell.Day)
			}
			seen[cell.Day] = true
		}
	}

	for day := 1; day <= 31; day++ {
		if !seen[day] {
			t.Errorf("day %d missing from grid", day)
		}
	}
}

func TestGrid_YearRollover(t *testing.T) {
	tests := []struct {
		name      string
		reference time.Time
		row, col  int
		wantMonth time.Month
		wantYear  int
	}{
		{
			name:      "january pulls leading days from previous december",
			reference: date(2026, time.January, 10),
			row:       0, col: 0,
			// January 1 2026 is a Thursday; cells before it are December 2025.
			wantMonth: time.December,
			wantYear:  2025,
		},
		{
			name:      "december pushes trailing days into next january",
			reference: date(2025, time.December, 10),
			row:       5, col: 6,
			wantMonth: time.January,
			wantYear:  2026,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := Grid(tt.reference, tt.reference, nil, nil, time.UTC)
			cell := grid[tt.row][tt.col]
			if cell.Date.Month() != tt.wantMonth || cell.Date.Year() != tt.wantYear {
				t.Errorf("cell (%d,%d) date = %v, want %v %d", tt.row, tt.col, cell.Date, tt.wantMonth, tt.wantYear)
			}
			if cell.InMonth {
				t.Errorf("cell (%d,%d) inMonth = true, want spillover", tt.row, tt.col)
			}
		})
	}
}

func TestGrid_HighlightPrecedence(t *testing.T) {
	today := date(2025, time.May, 15)
	selected := date(2025, time.May, 20)
	appointments := []time.Time{
		date(2025, time.May, 15), // on today
		date(2025, time.May, 20), // on selected
		date(2025, time.May, 7),
	}

	grid := Grid(today, today, &selected, appointments, time.UTC)

	find := func(day int) DayCell {
		t.Helper()
		for row := 0; row < Rows; row++ {
			for col := 0; col < Cols; col++ {
				if cell := grid[row][col]; cell.InMonth && cell.Day == day {
					return cell
				}
			}
		}
		t.Fatalf("day %d not found in grid", day)
		return DayCell{}
	}

	tests := []struct {
		name string
		day  int
		want Highlight
	}{
		{
			name: "selected wins over appointment",
			day:  20,
			want: HighlightSelected,
		},
		{
			name: "today wins over appointment",
			day:  15,
			want: HighlightToday,
		},
		{
			name: "appointment alone",
			day:  7,
			want: HighlightAppointment,
		},
		{
			name: "plain day",
			day:  3,
			want: HighlightNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := find(tt.day).Highlight; got != tt.want {
				t.Errorf("day %d highlight = %v, want %v", tt.day, got, tt.want)
			}
		})
	}
}

func TestGrid_AppointmentDayMatchesInLocation(t *testing.T) {
	// 23:30 UTC on May 7 is already May 8 in a +02:00 location.
	loc := time.FixedZone("CEST", 2*60*60)
	appointment := time.Date(2025, time.May, 7, 23, 30, 0, 0, time.UTC)

	grid := Grid(date(2025, time.May, 1), date(2025, time.May, 1), nil, []time.Time{appointment}, loc)

	var marked []int
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			if cell := grid[row][col]; cell.InMonth && cell.HasAppointment {
				marked = append(marked, cell.Day)
			}
		}
	}

	if len(marked) != 1 || marked[0] != 8 {
		t.Errorf("marked days = %v, want [8]", marked)
	}
}
