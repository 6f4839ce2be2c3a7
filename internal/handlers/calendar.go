package handlers

import (
	"net/http"
	"time"

	"oncohelper/internal/calendar"
	"oncohelper/internal/tracker"
)

// CalendarHandler serves the fixed 7x6 month grid used to locate
// appointments by day.
type CalendarHandler struct {
	svc *tracker.Service
	loc *time.Location
	now func() time.Time
}

// NewCalendarHandler creates a new CalendarHandler. loc is the user's
// calendar timezone; day boundaries follow it.
func NewCalendarHandler(svc *tracker.Service, loc *time.Location) *CalendarHandler {
	return &CalendarHandler{svc: svc, loc: loc, now: time.Now}
}

// DayCellResponse is one grid cell.
type DayCellResponse struct {
	Date           string `json:"date"` // YYYY-MM-DD
	Day            int    `json:"day"`
	InMonth        bool   `json:"in_month"`
	Today          bool   `json:"today"`
	HasAppointment bool   `json:"has_appointment"`
	Selected       bool   `json:"selected"`
	Highlight      string `json:"highlight"`
}

// CalendarResponse is the month grid, six weeks of seven days.
type CalendarResponse struct {
	Month string              `json:"month"` // YYYY-MM
	Weeks [][]DayCellResponse `json:"weeks"`
}

// Month handles GET /api/calendar?month=YYYY-MM[&selected=YYYY-MM-DD].
// month defaults to the current month.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	today := h.now().In(h.loc)

	reference := today
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01", raw, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		reference = parsed
	}

	var selected *time.Time
	if raw := r.URL.Query().Get("selected"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "selected must be YYYY-MM-DD")
			return
		}
		selected = &parsed
	}

	grid, err := h.svc.CalendarMonth(r.Context(), reference, today, selected, h.loc)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := CalendarResponse{
		Month: reference.Format("2006-01"),
		Weeks: make([][]DayCellResponse, 0, calendar.Rows),
	}
	for _, week := range grid {
		cells := make([]DayCellResponse, 0, calendar.Cols)
		for _, cell := range week {
			cells = append(cells, DayCellResponse{
				Date:           cell.Date.Format("2006-01-02"),
				Day:            cell.Day,
				InMonth:        cell.InMonth,
				Today:          cell.Today,
				HasAppointment: cell.HasAppointment,
				Selected:       cell.Selected,
				Highlight:      string(cell.Highlight),
			})
		}
		resp.Weeks = append(resp.Weeks, cells)
	}
	writeJSON(w, http.StatusOK, resp)
}
