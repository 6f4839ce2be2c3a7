// Package tracker is the domain layer over the storage repos: appointments
// and questions with their bookmark projections, and the annotation index
// operations that keep the two views of a bookmark consistent.
package tracker

import (
	"context"
	"log/slog"
	"time"

	"oncohelper/internal/calendar"
	"oncohelper/internal/storage"
)

// RecordingPresence answers whether an appointment has a recording on disk
// and deletes it when the appointment goes away.
type RecordingPresence interface {
	HasRecording(appointmentID int64) bool
	Remove(appointmentID int64) error
}

// Annotation is one bookmark on an appointment's recording.
type Annotation struct {
	QuestionID *int64  // nil for general bookmarks
	Timestamp  float64 // seconds from recording start
}

// Appointment is the appointment-side view: the record plus its derived
// recording flag, its annotations in display order, and the linked question
// ids in link order.
type Appointment struct {
	ID           int64
	Doctor       string
	Location     string
	ScheduledAt  time.Time
	HasRecording bool
	Annotations  []Annotation
	QuestionIDs  []int64
}

// AppointmentLink is the question-side view of one linked appointment: its
// id and the bookmark timestamps relevant to the question on that
// appointment's recording.
type AppointmentLink struct {
	AppointmentID int64
	Timestamps    []float64
}

// Question is a question to ask, with its appointment links.
type Question struct {
	ID          int64
	Question    string
	Description string
	Pinned      bool
	Links       []AppointmentLink
}

// Service implements the entity store and annotation index operations.
type Service struct {
	appointments storage.AppointmentStore
	questions    storage.QuestionStore
	annotations  storage.AnnotationStore
	recordings   RecordingPresence
	logger       *slog.Logger
}

// NewService creates the tracker service.
func NewService(appointments storage.AppointmentStore, questions storage.QuestionStore, annotations storage.AnnotationStore, recordings RecordingPresence) *Service {
	return &Service{
		appointments: appointments,
		questions:    questions,
		annotations:  annotations,
		recordings:   recordings,
		logger:       slog.Default(),
	}
}

// CreateAppointment adds an appointment; the new id is one greater than the
// current maximum.
func (s *Service) CreateAppointment(ctx context.Context, doctor, location string, scheduledAt time.Time) (Appointment, error) {
	rec, err := s.appointments.Create(ctx, doctor, location, scheduledAt)
	if err != nil {
		return Appointment{}, err
	}
	s.logger.InfoContext(ctx, "appointment created", "id", rec.ID, "doctor", doctor)
	return s.buildAppointment(ctx, rec)
}

// GetAppointment returns one appointment with its projections.
func (s *Service) GetAppointment(ctx context.Context, id int64) (Appointment, error) {
	rec, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	return s.buildAppointment(ctx, rec)
}

// ListAppointments returns all appointments ordered by scheduled instant.
func (s *Service) ListAppointments(ctx context.Context) ([]Appointment, error) {
	recs, err := s.appointments.List(ctx)
	if err != nil {
		return nil, err
	}
	appointments := make([]Appointment, 0, len(recs))
	for _, rec := range recs {
		apt, err := s.buildAppointment(ctx, rec)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, apt)
	}
	return appointments, nil
}

// UpdateAppointment edits doctor, location and scheduled instant. The
// collection order follows the new instant automatically since listing
// orders on read.
func (s *Service) UpdateAppointment(ctx context.Context, id int64, doctor, location string, scheduledAt time.Time) (Appointment, error) {
	rec := storage.AppointmentRecord{ID: id, Doctor: doctor, Location: location, ScheduledAt: scheduledAt}
	if err := s.appointments.Update(ctx, rec); err != nil {
		return Appointment{}, err
	}
	return s.GetAppointment(ctx, id)
}

// DeleteAppointment removes the appointment, cascading over every
// annotation and question link that references it, then deletes its
// recording file if one exists.
func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	if err := s.appointments.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.recordings.Remove(id); err != nil {
		// The database cascade already committed; log and keep going so
		// the API reports the record gone.
		s.logger.ErrorContext(ctx, "failed to delete recording file", "id", id, "error", err)
	}
	s.logger.InfoContext(ctx, "appointment deleted", "id", id)
	return nil
}

// CreateQuestion adds a question, optionally linked to appointments already
// selected in the add flow. Appointment ids are validated before the
// question is created so a bad id leaves nothing behind.
func (s *Service) CreateQuestion(ctx context.Context, question, description string, pinned bool, appointmentIDs []int64) (Question, error) {
	for _, aptID := range appointmentIDs {
		if _, err := s.appointments.GetByID(ctx, aptID); err != nil {
			return Question{}, err
		}
	}
	rec, err := s.questions.Create(ctx, question, description, pinned)
	if err != nil {
		return Question{}, err
	}
	if len(appointmentIDs) > 0 {
		if err := s.annotations.Link(ctx, rec.ID, appointmentIDs); err != nil {
			return Question{}, err
		}
	}
	s.logger.InfoContext(ctx, "question created", "id", rec.ID)
	return s.buildQuestion(ctx, rec)
}

// GetQuestion returns one question with its appointment links.
func (s *Service) GetQuestion(ctx context.Context, id int64) (Question, error) {
	rec, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return Question{}, err
	}
	return s.buildQuestion(ctx, rec)
}

// ListQuestions returns all questions, pinned first.
func (s *Service) ListQuestions(ctx context.Context) ([]Question, error) {
	recs, err := s.questions.List(ctx)
	if err != nil {
		return nil, err
	}
	questions := make([]Question, 0, len(recs))
	for _, rec := range recs {
		q, err := s.buildQuestion(ctx, rec)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// UpdateQuestion edits question text, description and pinned flag.
func (s *Service) UpdateQuestion(ctx context.Context, id int64, question, description string, pinned bool) (Question, error) {
	rec := storage.QuestionRecord{ID: id, Question: question, Description: description, Pinned: pinned}
	if err := s.questions.Update(ctx, rec); err != nil {
		return Question{}, err
	}
	return s.GetQuestion(ctx, id)
}

// DeleteQuestion removes the question, cascading over its links and tagged
// annotations.
func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "question deleted", "id", id)
	return nil
}

// AddAnnotation bookmarks a moment on an appointment's recording.
func (s *Service) AddAnnotation(ctx context.Context, appointmentID int64, questionID *int64, ts float64, sorted bool) (Annotation, error) {
	rec, err := s.annotations.Add(ctx, appointmentID, questionID, ts, sorted)
	if err != nil {
		return Annotation{}, err
	}
	return Annotation{QuestionID: rec.QuestionID, Timestamp: rec.Timestamp}, nil
}

// RemoveAnnotation deletes the bookmark with the exact timestamp;
// a miss is a no-op.
func (s *Service) RemoveAnnotation(ctx context.Context, appointmentID int64, ts float64) error {
	if _, err := s.appointments.GetByID(ctx, appointmentID); err != nil {
		return err
	}
	return s.annotations.Remove(ctx, appointmentID, ts)
}

// LinkQuestion links a question to appointments without creating any
// timestamps.
func (s *Service) LinkQuestion(ctx context.Context, questionID int64, appointmentIDs []int64) error {
	return s.annotations.Link(ctx, questionID, appointmentIDs)
}

// UnlinkQuestion removes the link and every annotation tagged with the
// question on that appointment.
func (s *Service) UnlinkQuestion(ctx context.Context, questionID, appointmentID int64) error {
	return s.annotations.Unlink(ctx, questionID, appointmentID)
}

// CalendarMonth builds the 7x6 day grid for the month containing reference,
// marking days that contain appointments.
func (s *Service) CalendarMonth(ctx context.Context, reference, today time.Time, selected *time.Time, loc *time.Location) ([calendar.Rows][calendar.Cols]calendar.DayCell, error) {
	recs, err := s.appointments.List(ctx)
	if err != nil {
		return [calendar.Rows][calendar.Cols]calendar.DayCell{}, err
	}
	dates := make([]time.Time, 0, len(recs))
	for _, rec := range recs {
		dates = append(dates, rec.ScheduledAt)
	}
	return calendar.Grid(reference, today, selected, dates, loc), nil
}

func (s *Service) buildAppointment(ctx context.Context, rec storage.AppointmentRecord) (Appointment, error) {
	annotations, err := s.annotations.ListByAppointment(ctx, rec.ID, true)
	if err != nil {
		return Appointment{}, err
	}
	questionIDs, err := s.annotations.LinkedQuestions(ctx, rec.ID)
	if err != nil {
		return Appointment{}, err
	}

	apt := Appointment{
		ID:           rec.ID,
		Doctor:       rec.Doctor,
		Location:     rec.Location,
		ScheduledAt:  rec.ScheduledAt,
		HasRecording: s.recordings.HasRecording(rec.ID),
		QuestionIDs:  questionIDs,
	}
	for _, a := range annotations {
		apt.Annotations = append(apt.Annotations, Annotation{QuestionID: a.QuestionID, Timestamp: a.Timestamp})
	}
	return apt, nil
}

func (s *Service) buildQuestion(ctx context.Context, rec storage.QuestionRecord) (Question, error) {
	aptIDs, err := s.annotations.LinkedAppointments(ctx, rec.ID)
	if err != nil {
		return Question{}, err
	}

	q := Question{
		ID:          rec.ID,
		Question:    rec.Question,
		Description: rec.Description,
		Pinned:      rec.Pinned,
	}
	for _, aptID := range aptIDs {
		timestamps, err := s.annotations.TimestampsFor(ctx, rec.ID, aptID)
		if err != nil {
			return Question{}, err
		}
		q.Links = append(q.Links, AppointmentLink{AppointmentID: aptID, Timestamps: timestamps})
	}
	return q, nil
}
