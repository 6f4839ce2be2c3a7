package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_appointment_store.go -package=mocks oncohelper/internal/storage AppointmentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// scheduledAtFormat is a fixed-width RFC3339 UTC form so the stored strings
// sort lexicographically in chronological order.
const scheduledAtFormat = "2006-01-02T15:04:05Z"

// AppointmentStore defines the interface for appointment storage operations.
type AppointmentStore interface {
	// Create inserts a new appointment, assigning id = max existing id + 1.
	Create(ctx context.Context, doctor, location string, scheduledAt time.Time) (AppointmentRecord, error)
	// GetByID gets an appointment by id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (AppointmentRecord, error)
	// List returns all appointments ordered by scheduled instant.
	List(ctx context.Context) ([]AppointmentRecord, error)
	// Update rewrites doctor, location and scheduled instant for an id.
	Update(ctx context.Context, rec AppointmentRecord) error
	// Delete removes the appointment and cascades over its annotations and
	// question links in one transaction.
	Delete(ctx context.Context, id int64) error
}

// AppointmentRepo provides methods for appointment operations.
// It implements the AppointmentStore interface.
type AppointmentRepo struct {
	db *sql.DB
}

// NewAppointmentRepo creates a new AppointmentRepo.
func NewAppointmentRepo(db *sql.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

// Create inserts a new appointment. The id is computed as one greater than
// the current maximum id rather than from a running counter, to stay
// compatible with imported data that may carry arbitrary ids.
func (r *AppointmentRepo) Create(ctx context.Context, doctor, location string, scheduledAt time.Time) (AppointmentRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return AppointmentRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var id int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(id), 0) + 1 FROM appointments",
	).Scan(&id); err != nil {
		return AppointmentRecord{}, fmt.Errorf("failed to compute next appointment id: %w", err)
	}

	scheduledAt = scheduledAt.UTC().Truncate(time.Second)
	_, err = tx.ExecContext(ctx,
		"INSERT INTO appointments (id, doctor, location, scheduled_at) VALUES (?, ?, ?, ?)",
		id, doctor, location, scheduledAt.Format(scheduledAtFormat),
	)
	if err != nil {
		return AppointmentRecord{}, fmt.Errorf("failed to insert appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return AppointmentRecord{}, fmt.Errorf("failed to commit appointment insert: %w", err)
	}

	return AppointmentRecord{ID: id, Doctor: doctor, Location: location, ScheduledAt: scheduledAt}, nil
}

// GetByID gets an appointment by id. Returns ErrNotFound if absent.
func (r *AppointmentRepo) GetByID(ctx context.Context, id int64) (AppointmentRecord, error) {
	var rec AppointmentRecord
	var scheduledAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, doctor, location, scheduled_at FROM appointments WHERE id = ?",
		id,
	).Scan(&rec.ID, &rec.Doctor, &rec.Location, &scheduledAtStr)

	if err == sql.ErrNoRows {
		return AppointmentRecord{}, ErrNotFound
	}
	if err != nil {
		return AppointmentRecord{}, fmt.Errorf("failed to query appointment: %w", err)
	}

	rec.ScheduledAt, err = parseScheduledAt(scheduledAtStr)
	if err != nil {
		return AppointmentRecord{}, err
	}

	return rec, nil
}

// List returns all appointments ordered by scheduled instant. Equal instants
// fall back to id order so the result is stable.
func (r *AppointmentRepo) List(ctx context.Context) ([]AppointmentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, doctor, location, scheduled_at FROM appointments ORDER BY scheduled_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var recs []AppointmentRecord
	for rows.Next() {
		var rec AppointmentRecord
		var scheduledAtStr string
		if err := rows.Scan(&rec.ID, &rec.Doctor, &rec.Location, &scheduledAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		rec.ScheduledAt, err = parseScheduledAt(scheduledAtStr)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return recs, nil
}

// Update rewrites doctor, location and scheduled instant. A changed instant
// needs no explicit re-sort since List orders on read.
func (r *AppointmentRepo) Update(ctx context.Context, rec AppointmentRecord) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE appointments SET doctor = ?, location = ?, scheduled_at = ? WHERE id = ?",
		rec.Doctor, rec.Location, rec.ScheduledAt.UTC().Truncate(time.Second).Format(scheduledAtFormat), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the appointment together with every annotation that
// references it and every question link pointing at it, in one transaction.
// The full set of deletions is known before any row is touched, so a failure
// never leaves one side of the relationship updated without the other.
func (r *AppointmentRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM appointments WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check appointment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM annotations WHERE appointment_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete appointment annotations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM question_links WHERE appointment_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete question links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM appointments WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit appointment delete: %w", err)
	}

	return nil
}

func parseScheduledAt(s string) (time.Time, error) {
	t, err := time.Parse(scheduledAtFormat, s)
	if err != nil {
		// Older rows may carry offsets; fall back to full RFC3339.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse scheduled_at timestamp: %w", err)
		}
	}
	return t.UTC(), nil
}
