package audio

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// SimDevice is a wall-clock simulation of the capture hardware, used for
// development and end-to-end exercising of the session machines without a
// real microphone. Recorders accumulate elapsed time and write a small
// metadata file on Stop; players read it back and fire the finished callback
// when the simulated track runs out.
type SimDevice struct {
	canRecord bool
}

// NewSimDevice creates a simulated device. canRecord models whether the
// platform granted the capture capability at process start.
func NewSimDevice(canRecord bool) *SimDevice {
	return &SimDevice{canRecord: canRecord}
}

// CanRecord reports whether the capture capability is granted.
func (d *SimDevice) CanRecord() bool {
	return d.canRecord
}

// OpenRecorder opens a simulated recorder writing to path.
func (d *SimDevice) OpenRecorder(path string) (Recorder, error) {
	if !d.canRecord {
		return nil, ErrRecorderUnavailable
	}
	return &simRecorder{path: path}, nil
}

// OpenPlayer opens a simulated player for an existing recording at path.
func (d *SimDevice) OpenPlayer(path string) (Player, error) {
	meta, err := readSimMeta(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlayerInit, err)
	}
	return &simPlayer{duration: meta.DurationSeconds}, nil
}

// simMeta is the payload a simulated recorder leaves behind in place of an
// audio container.
type simMeta struct {
	DurationSeconds float64 `json:"duration_seconds"`
}

func readSimMeta(path string) (simMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return simMeta{}, err
	}
	var meta simMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return simMeta{}, err
	}
	return meta, nil
}

type simRecorder struct {
	mu          sync.Mutex
	path        string
	recording   bool
	startedAt   time.Time
	accumulated time.Duration
}

func (r *simRecorder) Record() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		r.recording = true
		r.startedAt = time.Now()
	}
	return nil
}

func (r *simRecorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		r.accumulated += time.Since(r.startedAt)
		r.recording = false
	}
	return nil
}

func (r *simRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		r.accumulated += time.Since(r.startedAt)
		r.recording = false
	}
	data, err := json.Marshal(simMeta{DurationSeconds: r.accumulated.Seconds()})
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to finalize recording: %w", err)
	}
	return nil
}

func (r *simRecorder) Position() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos := r.accumulated
	if r.recording {
		pos += time.Since(r.startedAt)
	}
	return pos.Seconds()
}

type simPlayer struct {
	mu         sync.Mutex
	duration   float64
	offset     float64
	playing    bool
	startedAt  time.Time
	timer      *time.Timer
	finishedFn func()
	finished   bool
}

func (p *simPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return nil
	}
	p.playing = true
	p.finished = false
	p.startedAt = time.Now()
	p.armTimer()
	return nil
}

func (p *simPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.haltLocked()
	return nil
}

// Seek completes asynchronously, as a real player's seek does; done runs on a
// separate goroutine once the playhead has moved.
func (p *simPlayer) Seek(seconds float64, done func()) {
	p.mu.Lock()
	p.offset = clamp(seconds, 0, p.duration)
	if p.playing {
		p.startedAt = time.Now()
		p.armTimer()
	}
	p.mu.Unlock()
	if done != nil {
		go done()
	}
}

func (p *simPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos := p.offset
	if p.playing {
		pos += time.Since(p.startedAt).Seconds()
	}
	return clamp(pos, 0, p.duration)
}

func (p *simPlayer) Duration() float64 {
	return p.duration
}

func (p *simPlayer) SetFinishedFunc(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishedFn = fn
}

func (p *simPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.haltLocked()
	return nil
}

// armTimer schedules the end-of-track callback for the remaining simulated
// play time. Callers hold p.mu.
func (p *simPlayer) armTimer() {
	if p.timer != nil {
		p.timer.Stop()
	}
	remaining := time.Duration((p.duration - p.offset) * float64(time.Second))
	p.timer = time.AfterFunc(remaining, p.onFinished)
}

func (p *simPlayer) haltLocked() {
	if p.playing {
		p.offset = clamp(p.offset+time.Since(p.startedAt).Seconds(), 0, p.duration)
		p.playing = false
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *simPlayer) onFinished() {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	p.playing = false
	p.offset = p.duration
	fn := p.finishedFn
	p.mu.Unlock()
	// Deliver outside the lock so the handler can call back into the player.
	if fn != nil {
		fn()
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
