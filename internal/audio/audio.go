// Package audio defines the capture and playback capabilities the session
// state machines drive. The hardware pipeline itself lives behind these
// interfaces; the service only ever records, pauses, stops, seeks and reads
// positions.
package audio

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_audio.go -package=mocks oncohelper/internal/audio Recorder,Player,Device

import "errors"

var (
	// ErrRecorderUnavailable is returned when the capture device cannot be
	// opened, typically because permission was denied.
	ErrRecorderUnavailable = errors.New("recorder unavailable")
	// ErrPlayerInit is returned when a player cannot be opened for an
	// existing recording.
	ErrPlayerInit = errors.New("player initialization failed")
)

// Recorder captures audio into a single file. Opening a Recorder for a path
// truncates any previous recording there; Stop finalizes the file.
type Recorder interface {
	// Record begins or resumes capturing.
	Record() error
	// Pause suspends capturing without finalizing the file.
	Pause() error
	// Stop finalizes and closes the audio file.
	Stop() error
	// Position returns the seconds captured so far.
	Position() float64
}

// Player plays back one recorded file. Position callbacks from the hardware
// arrive asynchronously; implementations must deliver the finished callback
// at most once per playback attempt.
type Player interface {
	// Play starts or resumes playback.
	Play() error
	// Pause suspends playback.
	Pause() error
	// Seek moves the playhead and invokes done once the seek completes.
	// done may be nil.
	Seek(seconds float64, done func())
	// Position returns the current playhead in seconds.
	Position() float64
	// Duration returns the track length in seconds.
	Duration() float64
	// SetFinishedFunc registers the end-of-track callback.
	SetFinishedFunc(fn func())
	// Close releases the player.
	Close() error
}

// Device opens recorders and players for recording files. The capture
// capability mirrors the platform audio session: it is acquired once at
// process start, and while denied every OpenRecorder call must fail with
// ErrRecorderUnavailable while playback stays usable.
type Device interface {
	// CanRecord reports whether the capture capability is granted.
	CanRecord() bool
	// OpenRecorder opens a recorder writing to path.
	OpenRecorder(path string) (Recorder, error)
	// OpenPlayer opens a player for an existing recording at path.
	OpenPlayer(path string) (Player, error)
}
