package storage

import "time"

// AppointmentRecord represents a medical appointment in the database.
// HasRecording is deliberately absent: recording presence is derived from the
// recording file store, never persisted alongside the record.
type AppointmentRecord struct {
	ID          int64
	Doctor      string    // Doctor's name
	Location    string    // Name of hospital or practice
	ScheduledAt time.Time // Scheduled instant, stored as RFC3339 UTC
}

// QuestionRecord represents a question to ask at appointments.
type QuestionRecord struct {
	ID          int64
	Question    string
	Description string // Optional free text, empty when unset
	Pinned      bool
}

// AnnotationRecord is one bookmark on an appointment's recording. QuestionID
// is nil for general bookmarks not assigned to any question. Position is the
// per-appointment insertion order; reads reconcile bulk-appended marks by
// ordering on Timestamp instead.
type AnnotationRecord struct {
	ID            int64
	AppointmentID int64
	QuestionID    *int64
	Timestamp     float64 // Seconds from recording start
	Position      int64
}

// QuestionLinkRecord marks that a question applies to an appointment. A link
// can exist with zero bookmark timestamps.
type QuestionLinkRecord struct {
	QuestionID    int64
	AppointmentID int64
}
