package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_annotation_store.go -package=mocks oncohelper/internal/storage AnnotationStore

import (
	"context"
	"database/sql"
	"fmt"
)

// AnnotationStore defines the interface for bookmark and link operations.
// Every mutation validates the referenced ids before touching any row and
// applies inside a single transaction, so a failure can never leave the
// appointment-side and question-side views disagreeing.
type AnnotationStore interface {
	// Add records a bookmark on an appointment's recording. With sorted set
	// the bookmark is placed before the first annotation with a greater
	// timestamp; otherwise it is appended. A question-tagged bookmark
	// creates the question link on first use. Unknown appointment or
	// question ids fail with ErrNotFound and no mutation.
	Add(ctx context.Context, appointmentID int64, questionID *int64, ts float64, sorted bool) (AnnotationRecord, error)
	// Remove deletes one annotation matching the exact timestamp. A miss is
	// a no-op, so removal is idempotent.
	Remove(ctx context.Context, appointmentID int64, ts float64) error
	// ListByAppointment returns an appointment's annotations, in insertion
	// order or reconciled into timestamp order.
	ListByAppointment(ctx context.Context, appointmentID int64, byTimestamp bool) ([]AnnotationRecord, error)
	// TimestampsFor returns the bookmark timestamps relevant to one
	// question on one appointment's recording, ascending.
	TimestampsFor(ctx context.Context, questionID, appointmentID int64) ([]float64, error)
	// Link creates missing question links for the given appointments. No
	// timestamps are created by linking alone.
	Link(ctx context.Context, questionID int64, appointmentIDs []int64) error
	// Unlink removes the question link and every annotation tagged with the
	// question on that appointment.
	Unlink(ctx context.Context, questionID, appointmentID int64) error
	// LinkedAppointments returns appointment ids linked to a question, in
	// link order.
	LinkedAppointments(ctx context.Context, questionID int64) ([]int64, error)
	// LinkedQuestions returns question ids linked to an appointment, in
	// link order.
	LinkedQuestions(ctx context.Context, appointmentID int64) ([]int64, error)
	// ClearUnassigned deletes the appointment's question-unassigned
	// annotations. Used when a recording is redone.
	ClearUnassigned(ctx context.Context, appointmentID int64) error
}

// AnnotationRepo provides methods for annotation and link operations.
// It implements the AnnotationStore interface.
type AnnotationRepo struct {
	db *sql.DB
}

// NewAnnotationRepo creates a new AnnotationRepo.
func NewAnnotationRepo(db *sql.DB) *AnnotationRepo {
	return &AnnotationRepo{db: db}
}

// Add records a bookmark on an appointment's recording.
func (r *AnnotationRepo) Add(ctx context.Context, appointmentID int64, questionID *int64, ts float64, sorted bool) (AnnotationRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return AnnotationRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Validate both ids before mutating either side.
	if err := rowExists(ctx, tx, "SELECT 1 FROM appointments WHERE id = ?", appointmentID); err != nil {
		return AnnotationRecord{}, err
	}
	if questionID != nil {
		if err := rowExists(ctx, tx, "SELECT 1 FROM questions WHERE id = ?", *questionID); err != nil {
			return AnnotationRecord{}, err
		}
		// First bookmark for this question on this appointment creates
		// the link.
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO question_links (question_id, appointment_id) VALUES (?, ?)",
			*questionID, appointmentID,
		); err != nil {
			return AnnotationRecord{}, fmt.Errorf("failed to ensure question link: %w", err)
		}
	}

	var position int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM annotations WHERE appointment_id = ?",
		appointmentID,
	).Scan(&position); err != nil {
		return AnnotationRecord{}, fmt.Errorf("failed to compute append position: %w", err)
	}

	if sorted {
		var first sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			"SELECT MIN(position) FROM annotations WHERE appointment_id = ? AND ts > ?",
			appointmentID, ts,
		).Scan(&first); err != nil {
			return AnnotationRecord{}, fmt.Errorf("failed to find sorted position: %w", err)
		}
		if first.Valid {
			position = first.Int64
			if _, err := tx.ExecContext(ctx,
				"UPDATE annotations SET position = position + 1 WHERE appointment_id = ? AND position >= ?",
				appointmentID, position,
			); err != nil {
				return AnnotationRecord{}, fmt.Errorf("failed to shift annotation positions: %w", err)
			}
		}
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO annotations (appointment_id, question_id, ts, position) VALUES (?, ?, ?, ?)",
		appointmentID, questionID, ts, position,
	)
	if err != nil {
		return AnnotationRecord{}, fmt.Errorf("failed to insert annotation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return AnnotationRecord{}, fmt.Errorf("failed to read annotation id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return AnnotationRecord{}, fmt.Errorf("failed to commit annotation insert: %w", err)
	}

	return AnnotationRecord{
		ID:            id,
		AppointmentID: appointmentID,
		QuestionID:    questionID,
		Timestamp:     ts,
		Position:      position,
	}, nil
}

// Remove deletes one annotation matching the exact timestamp. Because the
// bookmark and its question-side mirror are the same row, removal can never
// orphan a mirror. A second call with the same timestamp is a no-op.
func (r *AnnotationRepo) Remove(ctx context.Context, appointmentID int64, ts float64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM annotations WHERE id IN (
			SELECT id FROM annotations
			WHERE appointment_id = ? AND ts = ?
			ORDER BY position LIMIT 1
		)`,
		appointmentID, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to remove annotation: %w", err)
	}
	return nil
}

// ListByAppointment returns an appointment's annotations. byTimestamp
// reconciles append-only recording marks into ascending timestamp order for
// display; otherwise insertion order is preserved.
func (r *AnnotationRepo) ListByAppointment(ctx context.Context, appointmentID int64, byTimestamp bool) ([]AnnotationRecord, error) {
	order := "position"
	if byTimestamp {
		order = "ts, position"
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, appointment_id, question_id, ts, position FROM annotations WHERE appointment_id = ? ORDER BY "+order,
		appointmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var recs []AnnotationRecord
	for rows.Next() {
		var rec AnnotationRecord
		var questionID sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.AppointmentID, &questionID, &rec.Timestamp, &rec.Position); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		if questionID.Valid {
			qid := questionID.Int64
			rec.QuestionID = &qid
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate annotations: %w", err)
	}

	return recs, nil
}

// TimestampsFor returns the bookmark timestamps for one question on one
// appointment, ascending.
func (r *AnnotationRepo) TimestampsFor(ctx context.Context, questionID, appointmentID int64) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT ts FROM annotations WHERE question_id = ? AND appointment_id = ? ORDER BY ts",
		questionID, appointmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list question timestamps: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var timestamps []float64
	for rows.Next() {
		var ts float64
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan timestamp: %w", err)
		}
		timestamps = append(timestamps, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timestamps: %w", err)
	}

	return timestamps, nil
}

// Link creates missing question links for the given appointments.
func (r *AnnotationRepo) Link(ctx context.Context, questionID int64, appointmentIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := rowExists(ctx, tx, "SELECT 1 FROM questions WHERE id = ?", questionID); err != nil {
		return err
	}
	for _, appointmentID := range appointmentIDs {
		if err := rowExists(ctx, tx, "SELECT 1 FROM appointments WHERE id = ?", appointmentID); err != nil {
			return err
		}
	}

	for _, appointmentID := range appointmentIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO question_links (question_id, appointment_id) VALUES (?, ?)",
			questionID, appointmentID,
		); err != nil {
			return fmt.Errorf("failed to insert question link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit question links: %w", err)
	}

	return nil
}

// Unlink removes the question link and every annotation carrying the
// question tag on that appointment. This is the one operation that deletes a
// whole group of annotations at once.
func (r *AnnotationRepo) Unlink(ctx context.Context, questionID, appointmentID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := rowExists(ctx, tx, "SELECT 1 FROM questions WHERE id = ?", questionID); err != nil {
		return err
	}
	if err := rowExists(ctx, tx, "SELECT 1 FROM appointments WHERE id = ?", appointmentID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM annotations WHERE question_id = ? AND appointment_id = ?",
		questionID, appointmentID,
	); err != nil {
		return fmt.Errorf("failed to delete tagged annotations: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM question_links WHERE question_id = ? AND appointment_id = ?",
		questionID, appointmentID,
	); err != nil {
		return fmt.Errorf("failed to delete question link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit unlink: %w", err)
	}

	return nil
}

// LinkedAppointments returns appointment ids linked to a question, in the
// order the links were created.
func (r *AnnotationRepo) LinkedAppointments(ctx context.Context, questionID int64) ([]int64, error) {
	return r.linkedIDs(ctx,
		"SELECT appointment_id FROM question_links WHERE question_id = ? ORDER BY rowid",
		questionID)
}

// LinkedQuestions returns question ids linked to an appointment, in the
// order the links were created.
func (r *AnnotationRepo) LinkedQuestions(ctx context.Context, appointmentID int64) ([]int64, error) {
	return r.linkedIDs(ctx,
		"SELECT question_id FROM question_links WHERE appointment_id = ? ORDER BY rowid",
		appointmentID)
}

// ClearUnassigned deletes the appointment's general bookmarks, the ones not
// assigned to any question. Question-tagged bookmarks survive because their
// question link still references them.
func (r *AnnotationRepo) ClearUnassigned(ctx context.Context, appointmentID int64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM annotations WHERE appointment_id = ? AND question_id IS NULL",
		appointmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear unassigned annotations: %w", err)
	}
	return nil
}

func (r *AnnotationRepo) linkedIDs(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list question links: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate links: %w", err)
	}

	return ids, nil
}

// rowExists runs an existence query inside a transaction and maps a missing
// row to ErrNotFound.
func rowExists(ctx context.Context, tx *sql.Tx, query string, id int64) error {
	var one int
	err := tx.QueryRowContext(ctx, query, id).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check referenced id: %w", err)
	}
	return nil
}
