package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"oncohelper/internal/session"
	"oncohelper/internal/tracker"
)

// AppointmentHandler handles appointment CRUD requests.
type AppointmentHandler struct {
	svc      *tracker.Service
	sessions *session.Manager
	validate *validator.Validate
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(svc *tracker.Service, sessions *session.Manager, validate *validator.Validate) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, sessions: sessions, validate: validate}
}

// AppointmentRequest is the payload for creating or updating an appointment.
type AppointmentRequest struct {
	Doctor      string `json:"doctor" validate:"required,max=128"`
	Location    string `json:"location" validate:"required,max=128"`
	ScheduledAt string `json:"scheduled_at" validate:"required"` // RFC3339
}

// AnnotationResponse is one bookmark in an appointment response.
type AnnotationResponse struct {
	QuestionID *int64  `json:"question_id,omitempty"`
	Timestamp  float64 `json:"timestamp"`
}

// AppointmentResponse mirrors tracker.Appointment for the HTTP layer.
type AppointmentResponse struct {
	ID           int64                `json:"id"`
	Doctor       string               `json:"doctor"`
	Location     string               `json:"location"`
	ScheduledAt  string               `json:"scheduled_at"`
	HasRecording bool                 `json:"has_recording"`
	Annotations  []AnnotationResponse `json:"annotations"`
	QuestionIDs  []int64              `json:"question_ids"`
}

// List handles GET /api/appointments.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.svc.ListAppointments(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := make([]AppointmentResponse, 0, len(appointments))
	for _, apt := range appointments {
		resp = append(resp, toAppointmentResponse(apt))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/appointments.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, scheduledAt, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	apt, err := h.svc.CreateAppointment(r.Context(), req.Doctor, req.Location, scheduledAt)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(apt))
}

// Get handles GET /api/appointments/{id}.
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	apt, err := h.svc.GetAppointment(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(apt))
}

// Update handles PUT /api/appointments/{id}.
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, scheduledAt, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	apt, err := h.svc.UpdateAppointment(r.Context(), id, req.Doctor, req.Location, scheduledAt)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(apt))
}

// Delete handles DELETE /api/appointments/{id}. Deletion cascades over the
// appointment's annotations and question links, releases any live audio
// session, and removes the recording file.
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	h.sessions.Release(id)
	if err := h.svc.DeleteAppointment(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AppointmentHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (AppointmentRequest, time.Time, bool) {
	var req AppointmentRequest
	if !decodeJSON(w, r, &req) {
		return req, time.Time{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, time.Time{}, false
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "scheduled_at must be RFC3339")
		return req, time.Time{}, false
	}
	return req, scheduledAt, true
}

func toAppointmentResponse(apt tracker.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:           apt.ID,
		Doctor:       apt.Doctor,
		Location:     apt.Location,
		ScheduledAt:  apt.ScheduledAt.Format(time.RFC3339),
		HasRecording: apt.HasRecording,
		Annotations:  make([]AnnotationResponse, 0, len(apt.Annotations)),
		QuestionIDs:  apt.QuestionIDs,
	}
	if resp.QuestionIDs == nil {
		resp.QuestionIDs = []int64{}
	}
	for _, a := range apt.Annotations {
		resp.Annotations = append(resp.Annotations, AnnotationResponse{QuestionID: a.QuestionID, Timestamp: a.Timestamp})
	}
	return resp
}
