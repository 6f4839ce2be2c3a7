package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
//
// Question links and bookmark timestamps live in single relationship tables
// (question_links, annotations); the per-appointment and per-question views
// are projections over them, so the two sides can never disagree.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS appointments (
			id INTEGER PRIMARY KEY,
			doctor TEXT NOT NULL,
			location TEXT NOT NULL,
			scheduled_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY,
			question TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			pinned INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS question_links (
			question_id INTEGER NOT NULL,
			appointment_id INTEGER NOT NULL,
			PRIMARY KEY (question_id, appointment_id),
			FOREIGN KEY (question_id) REFERENCES questions(id),
			FOREIGN KEY (appointment_id) REFERENCES appointments(id)
		);`,
		`CREATE TABLE IF NOT EXISTS annotations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			appointment_id INTEGER NOT NULL,
			question_id INTEGER,
			ts REAL NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY (appointment_id) REFERENCES appointments(id),
			FOREIGN KEY (question_id) REFERENCES questions(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_appointment
			ON annotations(appointment_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_question
			ON annotations(question_id, appointment_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
