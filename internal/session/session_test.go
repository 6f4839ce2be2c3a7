package session

import (
	"context"
	"os"
	"testing"

	"oncohelper/internal/recstore"
	"oncohelper/internal/storage"
)

// addedMark records one Annotator.Add call.
type addedMark struct {
	appointmentID int64
	questionID    *int64
	ts            float64
	sorted        bool
}

// fakeAnnotator captures annotation index calls made by the sessions.
type fakeAnnotator struct {
	added   []addedMark
	cleared []int64
	addErr  error
}

func (f *fakeAnnotator) Add(_ context.Context, appointmentID int64, questionID *int64, ts float64, sorted bool) (storage.AnnotationRecord, error) {
	if f.addErr != nil {
		return storage.AnnotationRecord{}, f.addErr
	}
	f.added = append(f.added, addedMark{appointmentID, questionID, ts, sorted})
	return storage.AnnotationRecord{
		ID:            int64(len(f.added)),
		AppointmentID: appointmentID,
		QuestionID:    questionID,
		Timestamp:     ts,
	}, nil
}

func (f *fakeAnnotator) ClearUnassigned(_ context.Context, appointmentID int64) error {
	f.cleared = append(f.cleared, appointmentID)
	return nil
}

// fakeAppointments resolves a fixed set of appointment ids.
type fakeAppointments struct {
	ids map[int64]bool
}

func (f *fakeAppointments) GetByID(_ context.Context, id int64) (storage.AppointmentRecord, error) {
	if !f.ids[id] {
		return storage.AppointmentRecord{}, storage.ErrNotFound
	}
	return storage.AppointmentRecord{ID: id}, nil
}

// testFiles creates a recording store in a temp directory.
func testFiles(t *testing.T) *recstore.Store {
	t.Helper()
	files, err := recstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("recstore.New() error = %v", err)
	}
	return files
}

// writeRecording drops a recording file for the appointment into the store.
func writeRecording(t *testing.T, files *recstore.Store, appointmentID int64) {
	t.Helper()
	if err := os.WriteFile(files.Path(appointmentID), []byte("audio"), 0o644); err != nil {
		t.Fatalf("failed to write recording file: %v", err)
	}
}
