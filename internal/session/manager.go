package session

import (
	"context"
	"fmt"
	"sync"

	"oncohelper/internal/audio"
	"oncohelper/internal/recstore"
	"oncohelper/internal/storage"
)

// Manager owns the live sessions, at most one recording and one playback
// session per appointment, and refuses to run both against the same
// appointment at once. Sessions for different appointments are independent.
type Manager struct {
	device       audio.Device
	files        *recstore.Store
	appointments AppointmentChecker
	annotator    Annotator

	mu         sync.Mutex
	recordings map[int64]*RecordingSession
	playbacks  map[int64]*PlaybackSession
}

// NewManager creates a session manager.
func NewManager(device audio.Device, files *recstore.Store, appointments AppointmentChecker, annotator Annotator) *Manager {
	return &Manager{
		device:       device,
		files:        files,
		appointments: appointments,
		annotator:    annotator,
		recordings:   make(map[int64]*RecordingSession),
		playbacks:    make(map[int64]*PlaybackSession),
	}
}

// StartRecording resolves the appointment, enforces mutual exclusion with
// playback, and fires the start transition on the appointment's recording
// session, creating one if needed. A session that already ran to Stopped is
// replaced so the appointment can be re-recorded.
func (m *Manager) StartRecording(ctx context.Context, appointmentID int64) (*RecordingSession, error) {
	if _, err := m.appointments.GetByID(ctx, appointmentID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if p, ok := m.playbacks[appointmentID]; ok && p.active() {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: playback in progress", ErrResourceBusy)
	}
	s, ok := m.recordings[appointmentID]
	if !ok || s.State() == RecStopped {
		s = newRecordingSession(appointmentID, m.device, m.files, m.annotator)
		m.recordings[appointmentID] = s
	}
	m.mu.Unlock()

	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Recording returns the appointment's recording session, or
// storage.ErrNotFound when none was started.
func (m *Manager) Recording(appointmentID int64) (*RecordingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.recordings[appointmentID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s, nil
}

// StartPlayback opens a playback session for the appointment's recording.
// It requires the recording to exist and no recording session to be active
// on the same appointment. An already open playback session is returned as
// is.
func (m *Manager) StartPlayback(ctx context.Context, appointmentID int64) (*PlaybackSession, error) {
	if _, err := m.appointments.GetByID(ctx, appointmentID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.recordings[appointmentID]; ok && r.active() {
		return nil, fmt.Errorf("%w: recording in progress", ErrResourceBusy)
	}
	if p, ok := m.playbacks[appointmentID]; ok {
		return p, nil
	}
	if !m.files.HasRecording(appointmentID) {
		return nil, fmt.Errorf("%w: appointment has no recording", audio.ErrPlayerInit)
	}
	player, err := m.device.OpenPlayer(m.files.Path(appointmentID))
	if err != nil {
		return nil, fmt.Errorf("failed to open player: %w", err)
	}
	p := newPlaybackSession(appointmentID, player, m.annotator)
	m.playbacks[appointmentID] = p
	return p, nil
}

// Playback returns the appointment's playback session, or
// storage.ErrNotFound when none is open.
func (m *Manager) Playback(appointmentID int64) (*PlaybackSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.playbacks[appointmentID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

// StopPlayback closes and drops the appointment's playback session, if any.
func (m *Manager) StopPlayback(appointmentID int64) error {
	m.mu.Lock()
	p, ok := m.playbacks[appointmentID]
	delete(m.playbacks, appointmentID)
	m.mu.Unlock()

	if !ok {
		return storage.ErrNotFound
	}
	return p.Close()
}

// Release drops every session for an appointment. Called when the
// appointment itself is deleted.
func (m *Manager) Release(appointmentID int64) {
	m.mu.Lock()
	p, ok := m.playbacks[appointmentID]
	delete(m.playbacks, appointmentID)
	delete(m.recordings, appointmentID)
	m.mu.Unlock()

	if ok {
		_ = p.Close()
	}
}
