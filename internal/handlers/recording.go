package handlers

import (
	"net/http"

	"oncohelper/internal/session"
)

// RecordingHandler exposes the recording session state machine over HTTP.
// Each verb is one transition; illegal transitions come back as 409.
type RecordingHandler struct {
	sessions *session.Manager
}

// NewRecordingHandler creates a new RecordingHandler.
func NewRecordingHandler(sessions *session.Manager) *RecordingHandler {
	return &RecordingHandler{sessions: sessions}
}

// MarkRequest is the payload for bookmarking the current position.
type MarkRequest struct {
	QuestionID *int64 `json:"question_id"`
}

// RecordingStatusResponse reports a recording session's state.
type RecordingStatusResponse struct {
	SessionID     string  `json:"session_id"`
	AppointmentID int64   `json:"appointment_id"`
	State         string  `json:"state"`
	Position      float64 `json:"position"`
}

// Start handles POST /api/appointments/{id}/recording/start. With an
// existing recording on disk the session moves to confirm_rerecord and
// waits for confirm or cancel; otherwise capture begins.
func (h *RecordingHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s, err := h.sessions.StartRecording(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordingStatus(s))
}

// Status handles GET /api/appointments/{id}/recording.
func (h *RecordingHandler) Status(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, recordingStatus(s))
}

// Confirm handles POST /api/appointments/{id}/recording/confirm.
func (h *RecordingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Confirm(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordingStatus(s))
}

// Cancel handles POST /api/appointments/{id}/recording/cancel.
func (h *RecordingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Cancel(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordingStatus(s))
}

// Pause handles POST /api/appointments/{id}/recording/pause.
func (h *RecordingHandler) Pause(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Pause(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordingStatus(s))
}

// Resume handles POST /api/appointments/{id}/recording/resume.
func (h *RecordingHandler) Resume(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Resume(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordingStatus(s))
}

// Stop handles POST /api/appointments/{id}/recording/stop: it requests the
// end-of-recording confirmation rather than stopping outright.
func (h *RecordingHandler) Stop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.RequestStop(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordingStatus(s))
}

// Mark handles POST /api/appointments/{id}/recording/mark.
func (h *RecordingHandler) Mark(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req MarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := s.Mark(r.Context(), req.QuestionID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AnnotationResponse{QuestionID: a.QuestionID, Timestamp: a.Timestamp})
}

func (h *RecordingHandler) session(w http.ResponseWriter, r *http.Request) (*session.RecordingSession, bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return nil, false
	}
	s, err := h.sessions.Recording(id)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return s, true
}

func recordingStatus(s *session.RecordingSession) RecordingStatusResponse {
	return RecordingStatusResponse{
		SessionID:     s.ID,
		AppointmentID: s.AppointmentID(),
		State:         string(s.State()),
		Position:      s.Position(),
	}
}
