package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"oncohelper/internal/audio"
	"oncohelper/internal/recstore"
	"oncohelper/internal/storage"
)

// RecordingState is the state of a recording session.
type RecordingState string

const (
	RecIdle            RecordingState = "idle"
	RecRecording       RecordingState = "recording"
	RecPaused          RecordingState = "paused"
	RecConfirmEnd      RecordingState = "confirm_end"
	RecConfirmRerecord RecordingState = "confirm_rerecord"
	RecStopped         RecordingState = "stopped"
)

// RecordingSession drives one appointment's recording through
// Idle/Recording/Paused/ConfirmEnd/ConfirmRerecord/Stopped. Every mutation
// runs under one mutex, so device callbacks and API calls are applied
// single-writer.
type RecordingSession struct {
	ID            string
	appointmentID int64
	device        audio.Device
	files         *recstore.Store
	annotator     Annotator
	logger        *slog.Logger

	mu       sync.Mutex
	state    RecordingState
	resumeTo RecordingState // state restored when ConfirmEnd is cancelled
	rec      audio.Recorder
}

func newRecordingSession(appointmentID int64, device audio.Device, files *recstore.Store, annotator Annotator) *RecordingSession {
	return &RecordingSession{
		ID:            uuid.New().String(),
		appointmentID: appointmentID,
		device:        device,
		files:         files,
		annotator:     annotator,
		logger:        slog.Default().With("session", "recording", "appointment_id", appointmentID),
		state:         RecIdle,
	}
}

// AppointmentID returns the appointment this session records.
func (s *RecordingSession) AppointmentID() int64 {
	return s.appointmentID
}

// State returns the current machine state.
func (s *RecordingSession) State() RecordingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Position returns the seconds captured so far, zero before the recorder is
// opened.
func (s *RecordingSession) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return 0
	}
	return s.rec.Position()
}

// Start leaves Idle. With an existing recording on disk the only legal exit
// is ConfirmRerecord so the user can approve erasing it; otherwise capture
// begins immediately. A recorder that cannot be opened keeps the machine in
// Idle and surfaces ErrRecorderUnavailable.
func (s *RecordingSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != RecIdle {
		return transitionError("start", string(s.state))
	}
	if !s.device.CanRecord() {
		return audio.ErrRecorderUnavailable
	}
	if s.files.HasRecording(s.appointmentID) {
		s.state = RecConfirmRerecord
		return nil
	}
	return s.beginLocked(ctx)
}

// Confirm resolves a pending confirmation. From ConfirmRerecord it deletes
// the previous recording, resets the appointment's unassigned bookmarks and
// begins capturing; from ConfirmEnd it finalizes the audio file.
func (s *RecordingSession) Confirm(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case RecConfirmRerecord:
		if err := s.files.Remove(s.appointmentID); err != nil {
			return err
		}
		if err := s.annotator.ClearUnassigned(ctx, s.appointmentID); err != nil {
			return err
		}
		// A recorder failure from here leaves the machine in Idle, the
		// same as any other failed start.
		s.state = RecIdle
		return s.beginLocked(ctx)
	case RecConfirmEnd:
		if err := s.rec.Stop(); err != nil {
			return fmt.Errorf("failed to finalize recording: %w", err)
		}
		s.rec = nil
		s.state = RecStopped
		s.logger.InfoContext(ctx, "recording finalized")
		return nil
	default:
		return transitionError("confirm", string(s.state))
	}
}

// Cancel dismisses a pending confirmation. ConfirmRerecord falls back to
// Idle; ConfirmEnd restores whichever of Recording or Paused was active when
// the stop was requested.
func (s *RecordingSession) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case RecConfirmRerecord:
		s.state = RecIdle
	case RecConfirmEnd:
		s.state = s.resumeTo
	default:
		return transitionError("cancel", string(s.state))
	}
	return nil
}

// Pause suspends capture.
func (s *RecordingSession) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != RecRecording {
		return transitionError("pause", string(s.state))
	}
	if err := s.rec.Pause(); err != nil {
		return fmt.Errorf("failed to pause recorder: %w", err)
	}
	s.state = RecPaused
	return nil
}

// Resume continues a paused capture.
func (s *RecordingSession) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != RecPaused {
		return transitionError("resume", string(s.state))
	}
	if err := s.rec.Record(); err != nil {
		return fmt.Errorf("failed to resume recorder: %w", err)
	}
	s.state = RecRecording
	return nil
}

// RequestStop asks for the end-of-recording confirmation, remembering the
// state to restore if the user declines.
func (s *RecordingSession) RequestStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != RecRecording && s.state != RecPaused {
		return transitionError("request stop", string(s.state))
	}
	s.resumeTo = s.state
	s.state = RecConfirmEnd
	return nil
}

// Mark bookmarks the current capture position, optionally tagging a
// question. Recording-time marks are appended unsorted; ordering is
// reconciled when the annotations are read for display.
func (s *RecordingSession) Mark(ctx context.Context, questionID *int64) (storage.AnnotationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != RecRecording && s.state != RecPaused {
		return storage.AnnotationRecord{}, transitionError("mark", string(s.state))
	}
	ts := s.rec.Position()
	rec, err := s.annotator.Add(ctx, s.appointmentID, questionID, ts, false)
	if err != nil {
		return storage.AnnotationRecord{}, err
	}
	s.logger.DebugContext(ctx, "marked recording", "ts", ts)
	return rec, nil
}

// beginLocked opens the recorder and starts capturing. Callers hold s.mu and
// have already established the Idle state; on failure the state is left
// untouched.
func (s *RecordingSession) beginLocked(ctx context.Context) error {
	rec, err := s.device.OpenRecorder(s.files.Path(s.appointmentID))
	if err != nil {
		s.logger.WarnContext(ctx, "recorder unavailable", "error", err)
		return fmt.Errorf("failed to open recorder: %w", err)
	}
	if err := rec.Record(); err != nil {
		return fmt.Errorf("failed to start recorder: %w", err)
	}
	s.rec = rec
	s.state = RecRecording
	s.logger.InfoContext(ctx, "recording started")
	return nil
}

// active reports whether the session holds the appointment's audio resource.
func (s *RecordingSession) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != RecIdle && s.state != RecStopped
}
