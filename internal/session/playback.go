package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"oncohelper/internal/audio"
	"oncohelper/internal/storage"
)

// PlaybackState is the state of a playback session.
type PlaybackState string

const (
	PlayStopped PlaybackState = "stopped"
	PlayPlaying PlaybackState = "playing"
	PlayPaused  PlaybackState = "paused"
	PlaySeeking PlaybackState = "seeking"
)

// PlaybackSession drives playback of one appointment's recording through
// Stopped/Playing/Paused/Seeking. The player's asynchronous seek-complete
// and did-finish callbacks re-enter through the session mutex, keeping all
// mutations single-writer.
type PlaybackSession struct {
	ID            string
	appointmentID int64
	annotator     Annotator
	logger        *slog.Logger

	mu         sync.Mutex
	state      PlaybackState
	wasPlaying bool // captured when a seek begins, not re-derived at seek end
	player     audio.Player
}

func newPlaybackSession(appointmentID int64, player audio.Player, annotator Annotator) *PlaybackSession {
	s := &PlaybackSession{
		ID:            uuid.New().String(),
		appointmentID: appointmentID,
		annotator:     annotator,
		logger:        slog.Default().With("session", "playback", "appointment_id", appointmentID),
		state:         PlayStopped,
		player:        player,
	}
	player.SetFinishedFunc(s.onFinished)
	return s
}

// AppointmentID returns the appointment whose recording this session plays.
func (s *PlaybackSession) AppointmentID() int64 {
	return s.appointmentID
}

// State returns the current machine state.
func (s *PlaybackSession) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Position returns the current playhead in seconds.
func (s *PlaybackSession) Position() float64 {
	return s.player.Position()
}

// Duration returns the track length in seconds.
func (s *PlaybackSession) Duration() float64 {
	return s.player.Duration()
}

// Play starts or resumes playback.
func (s *PlaybackSession) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PlayStopped && s.state != PlayPaused {
		return transitionError("play", string(s.state))
	}
	if err := s.player.Play(); err != nil {
		return err
	}
	s.state = PlayPlaying
	return nil
}

// Pause suspends playback.
func (s *PlaybackSession) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PlayPlaying {
		return transitionError("pause", string(s.state))
	}
	if err := s.player.Pause(); err != nil {
		return err
	}
	s.state = PlayPaused
	return nil
}

// Seek moves the playhead. Playback is paused internally for the duration of
// the seek; whether it resumes afterwards depends on whether it was playing
// when the seek began, decided here and not re-derived when the seek
// completes.
func (s *PlaybackSession) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PlayPlaying && s.state != PlayPaused {
		return transitionError("seek", string(s.state))
	}
	s.wasPlaying = s.state == PlayPlaying
	if err := s.player.Pause(); err != nil {
		return err
	}
	s.state = PlaySeeking
	s.player.Seek(seconds, s.seekDone)
	return nil
}

// Jump seeks to a bookmarked timestamp and resumes playing once the seek
// completes, regardless of the state it started from.
func (s *PlaybackSession) Jump(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == PlaySeeking {
		return transitionError("jump", string(s.state))
	}
	s.wasPlaying = true
	if s.state == PlayPlaying {
		if err := s.player.Pause(); err != nil {
			return err
		}
	}
	s.state = PlaySeeking
	s.player.Seek(seconds, s.seekDone)
	return nil
}

// Mark bookmarks the current playback position, optionally tagging a
// question. Playback-time marks are inserted in timestamp order.
func (s *PlaybackSession) Mark(ctx context.Context, questionID *int64) (storage.AnnotationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == PlayStopped {
		return storage.AnnotationRecord{}, transitionError("mark", string(s.state))
	}
	ts := s.player.Position()
	rec, err := s.annotator.Add(ctx, s.appointmentID, questionID, ts, true)
	if err != nil {
		return storage.AnnotationRecord{}, err
	}
	s.logger.DebugContext(ctx, "marked playback", "ts", ts)
	return rec, nil
}

// Close releases the player.
func (s *PlaybackSession) Close() error {
	return s.player.Close()
}

// seekDone is the player's seek-complete callback. A finish event may have
// interleaved, so it only applies when the session is still Seeking.
func (s *PlaybackSession) seekDone() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PlaySeeking {
		return
	}
	if s.wasPlaying {
		if err := s.player.Play(); err != nil {
			s.logger.Warn("failed to resume after seek", "error", err)
			s.state = PlayPaused
			return
		}
		s.state = PlayPlaying
		return
	}
	s.state = PlayPaused
}

// onFinished handles the player's did-finish event: transition to Stopped
// and rewind. Delivered at most once per playback attempt by the device, and
// ignored when already Stopped so a duplicate is harmless.
func (s *PlaybackSession) onFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == PlayStopped {
		return
	}
	s.state = PlayStopped
	s.player.Seek(0, nil)
}

// active reports whether the session holds the appointment's audio resource.
func (s *PlaybackSession) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != PlayStopped
}
