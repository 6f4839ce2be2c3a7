// Package session holds the recording and playback state machines that
// produce and consume bookmark timestamps on appointment recordings, plus the
// manager that keeps the two mutually exclusive per appointment.
package session

import (
	"context"
	"errors"
	"fmt"

	"oncohelper/internal/storage"
)

var (
	// ErrResourceBusy is returned when a recording session and a playback
	// session would run against the same appointment at once.
	ErrResourceBusy = errors.New("conflicting recording or playback session")
	// ErrInvalidTransition marks a state machine operation that is not
	// legal from the current state. Callers respecting the machine never
	// see it.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Annotator is the slice of the annotation index the sessions mutate when a
// moment is bookmarked or a recording is redone.
type Annotator interface {
	Add(ctx context.Context, appointmentID int64, questionID *int64, ts float64, sorted bool) (storage.AnnotationRecord, error)
	ClearUnassigned(ctx context.Context, appointmentID int64) error
}

// AppointmentChecker resolves appointment ids before a session is started.
type AppointmentChecker interface {
	GetByID(ctx context.Context, id int64) (storage.AppointmentRecord, error)
}

func transitionError(op, state string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, state)
}
