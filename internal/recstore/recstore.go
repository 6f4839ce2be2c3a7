package recstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// recordingExt is the container format the capture device writes.
const recordingExt = ".m4a"

// Store resolves per-appointment recording files inside one application
// private directory. A recording for appointment N lives at
// recording-N.m4a; the presence of that file is the sole source of truth for
// whether the appointment has a recording. No separate flag is persisted, so
// the flag can never drift from the filesystem.
type Store struct {
	root string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recordings directory: %w", err)
	}
	return &Store{root: dir}, nil
}

// Path returns the deterministic file path for an appointment's recording.
func (s *Store) Path(appointmentID int64) string {
	return filepath.Join(s.root, fmt.Sprintf("recording-%d%s", appointmentID, recordingExt))
}

// HasRecording reports whether a recording file exists for the appointment.
func (s *Store) HasRecording(appointmentID int64) bool {
	info, err := os.Stat(s.Path(appointmentID))
	return err == nil && !info.IsDir()
}

// Remove deletes the appointment's recording file. Removing an absent
// recording is a no-op.
func (s *Store) Remove(appointmentID int64) error {
	err := os.Remove(s.Path(appointmentID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove recording: %w", err)
	}
	return nil
}
