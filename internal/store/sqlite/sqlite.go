package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/wirechat-client/internal/store"
)

// Store implements store.TranscriptStore on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the archive database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcripts (
		room_id     INTEGER NOT NULL,
		position    INTEGER NOT NULL,
		message_id  INTEGER NOT NULL,
		author_id   INTEGER NOT NULL,
		author_name TEXT NOT NULL,
		body        TEXT NOT NULL,
		updated_at  DATETIME NOT NULL,
		PRIMARY KEY (room_id, position)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTranscript replaces the room's archived transcript wholesale,
// mirroring the all-or-nothing snapshot semantics of the live timeline.
func (s *Store) SaveTranscript(ctx context.Context, roomID int64, messages []store.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transcripts WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}

	insert := `
		INSERT INTO transcripts (room_id, position, message_id, author_id, author_name, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i, m := range messages {
		if _, err := tx.ExecContext(ctx, insert,
			roomID, i, m.MessageID, m.AuthorID, m.AuthorName, m.Body, m.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadTranscript returns the archived transcript in display order. A room
// never archived yields an empty slice, not an error.
func (s *Store) LoadTranscript(ctx context.Context, roomID int64) ([]store.Message, error) {
	query := `
		SELECT message_id, author_id, author_name, body, updated_at
		FROM transcripts
		WHERE room_id = ?
		ORDER BY position
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var out []store.Message
	for rows.Next() {
		var m store.Message
		var updatedAt time.Time
		if err := rows.Scan(&m.MessageID, &m.AuthorID, &m.AuthorName, &m.Body, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		m.UpdatedAt = updatedAt
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript: %w", err)
	}
	return out, nil
}
