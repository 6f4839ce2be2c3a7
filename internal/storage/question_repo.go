package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_question_store.go -package=mocks oncohelper/internal/storage QuestionStore

import (
	"context"
	"database/sql"
	"fmt"
)

// QuestionStore defines the interface for question storage operations.
type QuestionStore interface {
	// Create inserts a new question, assigning id = max existing id + 1.
	Create(ctx context.Context, question, description string, pinned bool) (QuestionRecord, error)
	// GetByID gets a question by id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (QuestionRecord, error)
	// List returns all questions, pinned questions first.
	List(ctx context.Context) ([]QuestionRecord, error)
	// Update rewrites question text, description and pinned flag for an id.
	Update(ctx context.Context, rec QuestionRecord) error
	// Delete removes the question and cascades over its links and tagged
	// annotations in one transaction.
	Delete(ctx context.Context, id int64) error
}

// QuestionRepo provides methods for question operations.
// It implements the QuestionStore interface.
type QuestionRepo struct {
	db *sql.DB
}

// NewQuestionRepo creates a new QuestionRepo.
func NewQuestionRepo(db *sql.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create inserts a new question with id = max existing id + 1.
func (r *QuestionRepo) Create(ctx context.Context, question, description string, pinned bool) (QuestionRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return QuestionRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var id int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(id), 0) + 1 FROM questions",
	).Scan(&id); err != nil {
		return QuestionRecord{}, fmt.Errorf("failed to compute next question id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO questions (id, question, description, pinned) VALUES (?, ?, ?, ?)",
		id, question, description, pinned,
	)
	if err != nil {
		return QuestionRecord{}, fmt.Errorf("failed to insert question: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return QuestionRecord{}, fmt.Errorf("failed to commit question insert: %w", err)
	}

	return QuestionRecord{ID: id, Question: question, Description: description, Pinned: pinned}, nil
}

// GetByID gets a question by id. Returns ErrNotFound if absent.
func (r *QuestionRepo) GetByID(ctx context.Context, id int64) (QuestionRecord, error) {
	var rec QuestionRecord

	err := r.db.QueryRowContext(ctx,
		"SELECT id, question, description, pinned FROM questions WHERE id = ?",
		id,
	).Scan(&rec.ID, &rec.Question, &rec.Description, &rec.Pinned)

	if err == sql.ErrNoRows {
		return QuestionRecord{}, ErrNotFound
	}
	if err != nil {
		return QuestionRecord{}, fmt.Errorf("failed to query question: %w", err)
	}

	return rec, nil
}

// List returns all questions, pinned first, then in id order.
func (r *QuestionRepo) List(ctx context.Context) ([]QuestionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, question, description, pinned FROM questions ORDER BY pinned DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var recs []QuestionRecord
	for rows.Next() {
		var rec QuestionRecord
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Description, &rec.Pinned); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}

	return recs, nil
}

// Update rewrites question text, description and pinned flag.
func (r *QuestionRepo) Update(ctx context.Context, rec QuestionRecord) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE questions SET question = ?, description = ?, pinned = ? WHERE id = ?",
		rec.Question, rec.Description, rec.Pinned, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
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

// Delete removes the question, its appointment links and every annotation
// tagged with it, in one transaction. Appointment-only annotations are
// untouched.
func (r *QuestionRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM questions WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check question: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM annotations WHERE question_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete question annotations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM question_links WHERE question_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete question links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit question delete: %w", err)
	}

	return nil
}
