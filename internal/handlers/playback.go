package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"oncohelper/internal/session"
)

// PlaybackHandler exposes the playback session state machine over HTTP.
type PlaybackHandler struct {
	sessions *session.Manager
	validate *validator.Validate
}

// NewPlaybackHandler creates a new PlaybackHandler.
func NewPlaybackHandler(sessions *session.Manager, validate *validator.Validate) *PlaybackHandler {
	return &PlaybackHandler{sessions: sessions, validate: validate}
}

// SeekRequest is the payload for seek and jump.
type SeekRequest struct {
	Timestamp float64 `json:"timestamp" validate:"gte=0"`
}

// PlaybackStatusResponse reports a playback session's state.
type PlaybackStatusResponse struct {
	SessionID     string  `json:"session_id"`
	AppointmentID int64   `json:"appointment_id"`
	State         string  `json:"state"`
	Position      float64 `json:"position"`
	Duration      float64 `json:"duration"`
}

// Play handles POST /api/appointments/{id}/playback/play. It opens a
// playback session for the appointment's recording if none exists yet, then
// starts or resumes playing.
func (h *PlaybackHandler) Play(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := h.sessions.StartPlayback(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := p.Play(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playbackStatus(p))
}

// Status handles GET /api/appointments/{id}/playback.
func (h *PlaybackHandler) Status(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, playbackStatus(p))
}

// Pause handles POST /api/appointments/{id}/playback/pause.
func (h *PlaybackHandler) Pause(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := p.Pause(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playbackStatus(p))
}

// Seek handles POST /api/appointments/{id}/playback/seek.
func (h *PlaybackHandler) Seek(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeSeek(w, r)
	if !ok {
		return
	}
	if err := p.Seek(req.Timestamp); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playbackStatus(p))
}

// Jump handles POST /api/appointments/{id}/playback/jump: seek to a
// bookmarked timestamp and play from there.
func (h *PlaybackHandler) Jump(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeSeek(w, r)
	if !ok {
		return
	}
	if err := p.Jump(req.Timestamp); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playbackStatus(p))
}

// Mark handles POST /api/appointments/{id}/playback/mark.
func (h *PlaybackHandler) Mark(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}
	var req MarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := p.Mark(r.Context(), req.QuestionID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AnnotationResponse{QuestionID: a.QuestionID, Timestamp: a.Timestamp})
}

// Stop handles POST /api/appointments/{id}/playback/stop: close and release
// the playback session.
func (h *PlaybackHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.sessions.StopPlayback(id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaybackHandler) session(w http.ResponseWriter, r *http.Request) (*session.PlaybackSession, bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return nil, false
	}
	p, err := h.sessions.Playback(id)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return p, true
}

func (h *PlaybackHandler) decodeSeek(w http.ResponseWriter, r *http.Request) (SeekRequest, bool) {
	var req SeekRequest
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func playbackStatus(p *session.PlaybackSession) PlaybackStatusResponse {
	return PlaybackStatusResponse{
		SessionID:     p.ID,
		AppointmentID: p.AppointmentID(),
		State:         string(p.State()),
		Position:      p.Position(),
		Duration:      p.Duration(),
	}
}
