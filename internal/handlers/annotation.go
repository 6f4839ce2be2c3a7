package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"oncohelper/internal/tracker"
)

// AnnotationHandler handles direct bookmark add/remove requests, the same
// operations the recording and playback sessions perform internally.
type AnnotationHandler struct {
	svc      *tracker.Service
	validate *validator.Validate
}

// NewAnnotationHandler creates a new AnnotationHandler.
func NewAnnotationHandler(svc *tracker.Service, validate *validator.Validate) *AnnotationHandler {
	return &AnnotationHandler{svc: svc, validate: validate}
}

// AddAnnotationRequest is the payload for adding a bookmark.
type AddAnnotationRequest struct {
	QuestionID *int64  `json:"question_id"`
	Timestamp  float64 `json:"timestamp" validate:"gte=0"`
	Sorted     bool    `json:"sorted"`
}

// Add handles POST /api/appointments/{id}/annotations.
func (h *AnnotationHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req AddAnnotationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.svc.AddAnnotation(r.Context(), id, req.QuestionID, req.Timestamp, req.Sorted)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AnnotationResponse{QuestionID: a.QuestionID, Timestamp: a.Timestamp})
}

// Remove handles DELETE /api/appointments/{id}/annotations?timestamp=12.5.
// Removal is idempotent: deleting an absent timestamp succeeds.
func (h *AnnotationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	ts, err := strconv.ParseFloat(r.URL.Query().Get("timestamp"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "timestamp query parameter required")
		return
	}
	if err := h.svc.RemoveAnnotation(r.Context(), id, ts); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
