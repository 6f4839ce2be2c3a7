package session

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"oncohelper/internal/audio"
	"oncohelper/internal/audio/mocks"
	"oncohelper/internal/recstore"
)

func TestRecordingSession_Start(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setup     func(t *testing.T, device *mocks.MockDevice, files *recordingFixture)
		wantErr   error
		wantState RecordingState
	}{
		{
			name: "begins capture with no prior recording",
			setup: func(t *testing.T, device *mocks.MockDevice, f *recordingFixture) {
				rec := mocks.NewMockRecorder(f.ctrl)
				device.EXPECT().CanRecord().Return(true)
				device.EXPECT().OpenRecorder(f.files.Path(f.aptID)).Return(rec, nil)
				rec.EXPECT().Record().Return(nil)
			},
			wantState: RecRecording,
		},
		{
			name: "existing recording demands confirmation first",
			setup: func(t *testing.T, device *mocks.MockDevice, f *recordingFixture) {
				device.EXPECT().CanRecord().Return(true)
				writeRecording(t, f.files, f.aptID)
			},
			wantState: RecConfirmRerecord,
		},
		{
			name: "capture capability missing keeps idle",
			setup: func(t *testing.T, device *mocks.MockDevice, f *recordingFixture) {
				device.EXPECT().CanRecord().Return(false)
			},
			wantErr:   audio.ErrRecorderUnavailable,
			wantState: RecIdle,
		},
		{
			name: "recorder open failure keeps idle",
			setup: func(t *testing.T, device *mocks.MockDevice, f *recordingFixture) {
				device.EXPECT().CanRecord().Return(true)
				device.EXPECT().OpenRecorder(gomock.Any()).Return(nil, audio.ErrRecorderUnavailable)
			},
			wantErr:   audio.ErrRecorderUnavailable,
			wantState: RecIdle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRecordingFixture(t)
			tt.setup(t, f.device, f)

			err := f.session.Start(ctx)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Start() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("Start() unexpected error: %v", err)
			}

			if got := f.session.State(); got != tt.wantState {
				t.Errorf("State() = %v, want %v", got, tt.wantState)
			}
		})
	}
}

func TestRecordingSession_Start_NotIdle(t *testing.T) {
	f := newRecordingFixture(t)
	f.startRecording(t)

	err := f.session.Start(context.Background())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Start() from recording error = %v, want ErrInvalidTransition", err)
	}
}

func TestRecordingSession_ConfirmRerecord(t *testing.T) {
	ctx := context.Background()
	f := newRecordingFixture(t)
	writeRecording(t, f.files, f.aptID)

	f.device.EXPECT().CanRecord().Return(true)
	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := f.session.State(); got != RecConfirmRerecord {
		t.Fatalf("State() = %v, want %v", got, RecConfirmRerecord)
	}

	rec := mocks.NewMockRecorder(f.ctrl)
	f.device.EXPECT().OpenRecorder(f.files.Path(f.aptID)).Return(rec, nil)
	rec.EXPECT().Record().Return(nil)

	if err := f.session.Confirm(ctx); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if got := f.session.State(); got != RecRecording {
		t.Errorf("State() after confirm = %v, want %v", got, RecRecording)
	}

	// The old file is gone and the unassigned bookmarks were reset.
	if f.files.HasRecording(f.aptID) {
		t.Error("Confirm() should delete the previous recording")
	}
	if len(f.annotator.cleared) != 1 || f.annotator.cleared[0] != f.aptID {
		t.Errorf("Confirm() cleared = %v, want [%d]", f.annotator.cleared, f.aptID)
	}
}

func TestRecordingSession_CancelRerecord(t *testing.T) {
	ctx := context.Background()
	f := newRecordingFixture(t)
	writeRecording(t, f.files, f.aptID)

	f.device.EXPECT().CanRecord().Return(true)
	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := f.session.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	if got := f.session.State(); got != RecIdle {
		t.Errorf("State() after cancel = %v, want %v", got, RecIdle)
	}
	if !f.files.HasRecording(f.aptID) {
		t.Error("Cancel() must not touch the existing recording")
	}
	if len(f.annotator.cleared) != 0 {
		t.Error("Cancel() must not clear bookmarks")
	}
}

func TestRecordingSession_StopConfirmation(t *testing.T) {
	tests := []struct {
		name       string
		pauseFirst bool
		resumeTo   RecordingState
	}{
		{
			name:     "declined stop resumes recording",
			resumeTo: RecRecording,
		},
		{
			name:       "declined stop resumes paused",
			pauseFirst: true,
			resumeTo:   RecPaused,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRecordingFixture(t)
			f.startRecording(t)

			if tt.pauseFirst {
				f.rec.EXPECT().Pause().Return(nil)
				if err := f.session.Pause(); err != nil {
					t.Fatalf("Pause() error = %v", err)
				}
			}

			if err := f.session.RequestStop(); err != nil {
				t.Fatalf("RequestStop() error = %v", err)
			}
			if got := f.session.State(); got != RecConfirmEnd {
				t.Fatalf("State() = %v, want %v", got, RecConfirmEnd)
			}

			if err := f.session.Cancel(); err != nil {
				t.Fatalf("Cancel() error = %v", err)
			}
			if got := f.session.State(); got != tt.resumeTo {
				t.Errorf("State() after cancel = %v, want %v", got, tt.resumeTo)
			}
		})
	}
}

func TestRecordingSession_ConfirmEnd(t *testing.T) {
	ctx := context.Background()
	f := newRecordingFixture(t)
	f.startRecording(t)

	if err := f.session.RequestStop(); err != nil {
		t.Fatalf("RequestStop() error = %v", err)
	}

	f.rec.EXPECT().Stop().Return(nil)
	if err := f.session.Confirm(ctx); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if got := f.session.State(); got != RecStopped {
		t.Errorf("State() = %v, want %v", got, RecStopped)
	}

	// A stopped session accepts no further transitions.
	if err := f.session.Pause(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Pause() after stop error = %v, want ErrInvalidTransition", err)
	}
}

func TestRecordingSession_PauseResume(t *testing.T) {
	f := newRecordingFixture(t)
	f.startRecording(t)

	f.rec.EXPECT().Pause().Return(nil)
	if err := f.session.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if got := f.session.State(); got != RecPaused {
		t.Errorf("State() = %v, want %v", got, RecPaused)
	}

	// Pausing twice is illegal.
	if err := f.session.Pause(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Pause() twice error = %v, want ErrInvalidTransition", err)
	}

	f.rec.EXPECT().Record().Return(nil)
	if err := f.session.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if got := f.session.State(); got != RecRecording {
		t.Errorf("State() = %v, want %v", got, RecRecording)
	}
}

func TestRecordingSession_Mark(t *testing.T) {
	ctx := context.Background()
	f := newRecordingFixture(t)
	f.startRecording(t)

	qID := int64(7)
	f.rec.EXPECT().Position().Return(42.5)

	rec, err := f.session.Mark(ctx, &qID)
	if err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	if rec.Timestamp != 42.5 {
		t.Errorf("Mark() timestamp = %v, want 42.5", rec.Timestamp)
	}

	if len(f.annotator.added) != 1 {
		t.Fatalf("Mark() recorded %d annotations, want 1", len(f.annotator.added))
	}
	mark := f.annotator.added[0]
	if mark.sorted {
		t.Error("Mark() during recording must append, not sort")
	}
	if mark.questionID == nil || *mark.questionID != qID {
		t.Errorf("Mark() questionID = %v, want %d", mark.questionID, qID)
	}
}

func TestRecordingSession_Mark_WhilePaused(t *testing.T) {
	f := newRecordingFixture(t)
	f.startRecording(t)

	f.rec.EXPECT().Pause().Return(nil)
	if err := f.session.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	f.rec.EXPECT().Position().Return(10.0)
	if _, err := f.session.Mark(context.Background(), nil); err != nil {
		t.Errorf("Mark() while paused error = %v", err)
	}
}

func TestRecordingSession_Mark_Idle(t *testing.T) {
	f := newRecordingFixture(t)

	_, err := f.session.Mark(context.Background(), nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Mark() while idle error = %v, want ErrInvalidTransition", err)
	}
}

// recordingFixture wires a recording session against a mock device and fake
// annotator.
type recordingFixture struct {
	ctrl      *gomock.Controller
	device    *mocks.MockDevice
	rec       *mocks.MockRecorder
	files     *recstore.Store
	annotator *fakeAnnotator
	session   *RecordingSession
	aptID     int64
}

func newRecordingFixture(t *testing.T) *recordingFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)
	files := testFiles(t)
	annotator := &fakeAnnotator{}
	aptID := int64(1)

	return &recordingFixture{
		ctrl:      ctrl,
		device:    device,
		files:     files,
		annotator: annotator,
		session:   newRecordingSession(aptID, device, files, annotator),
		aptID:     aptID,
	}
}

// startRecording drives the session into the Recording state.
func (f *recordingFixture) startRecording(t *testing.T) {
	t.Helper()

	f.rec = mocks.NewMockRecorder(f.ctrl)
	f.device.EXPECT().CanRecord().Return(true)
	f.device.EXPECT().OpenRecorder(gomock.Any()).Return(f.rec, nil)
	f.rec.EXPECT().Record().Return(nil)

	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}
