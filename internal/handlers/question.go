package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"oncohelper/internal/tracker"
)

// QuestionHandler handles question CRUD and link requests.
type QuestionHandler struct {
	svc      *tracker.Service
	validate *validator.Validate
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(svc *tracker.Service, validate *validator.Validate) *QuestionHandler {
	return &QuestionHandler{svc: svc, validate: validate}
}

// QuestionRequest is the payload for creating or updating a question.
// AppointmentIDs is honored on create only, linking the question to
// appointments already selected in the add flow.
type QuestionRequest struct {
	Question       string  `json:"question" validate:"required,max=512"`
	Description    string  `json:"description" validate:"max=4096"`
	Pinned         bool    `json:"pinned"`
	AppointmentIDs []int64 `json:"appointment_ids"`
}

// LinkRequest is the payload for linking a question to appointments.
type LinkRequest struct {
	AppointmentIDs []int64 `json:"appointment_ids" validate:"required,min=1"`
}

// AppointmentLinkResponse is one linked appointment with the bookmark
// timestamps relevant to the question.
type AppointmentLinkResponse struct {
	AppointmentID int64     `json:"appointment_id"`
	Timestamps    []float64 `json:"timestamps"`
}

// QuestionResponse mirrors tracker.Question for the HTTP layer.
type QuestionResponse struct {
	ID          int64                     `json:"id"`
	Question    string                    `json:"question"`
	Description string                    `json:"description,omitempty"`
	Pinned      bool                      `json:"pinned"`
	Links       []AppointmentLinkResponse `json:"links"`
}

// List handles GET /api/questions.
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	questions, err := h.svc.ListQuestions(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := make([]QuestionResponse, 0, len(questions))
	for _, q := range questions {
		resp = append(resp, toQuestionResponse(q))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/questions.
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q, err := h.svc.CreateQuestion(r.Context(), req.Question, req.Description, req.Pinned, req.AppointmentIDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuestionResponse(q))
}

// Get handles GET /api/questions/{id}.
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	q, err := h.svc.GetQuestion(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionResponse(q))
}

// Update handles PUT /api/questions/{id}.
func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req QuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q, err := h.svc.UpdateQuestion(r.Context(), id, req.Question, req.Description, req.Pinned)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionResponse(q))
}

// Delete handles DELETE /api/questions/{id}.
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteQuestion(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Link handles POST /api/questions/{id}/links.
func (h *QuestionHandler) Link(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req LinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.LinkQuestion(r.Context(), id, req.AppointmentIDs); err != nil {
		writeDomainError(w, r, err)
		return
	}
	q, err := h.svc.GetQuestion(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionResponse(q))
}

// Unlink handles DELETE /api/questions/{id}/links/{appointmentID}. It also
// drops every bookmark tagged with the question on that appointment.
func (h *QuestionHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	aptID, ok := idParam(w, r, "appointmentID")
	if !ok {
		return
	}
	if err := h.svc.UnlinkQuestion(r.Context(), id, aptID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toQuestionResponse(q tracker.Question) QuestionResponse {
	resp := QuestionResponse{
		ID:          q.ID,
		Question:    q.Question,
		Description: q.Description,
		Pinned:      q.Pinned,
		Links:       make([]AppointmentLinkResponse, 0, len(q.Links)),
	}
	for _, link := range q.Links {
		timestamps := link.Timestamps
		if timestamps == nil {
			timestamps = []float64{}
		}
		resp.Links = append(resp.Links, AppointmentLinkResponse{AppointmentID: link.AppointmentID, Timestamps: timestamps})
	}
	return resp
}
