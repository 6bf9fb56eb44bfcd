package chatlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
)

// SQLiteStore implements ports.InteractionStore with an SQLite table.
// Each interaction is one row, so the history never needs repair.
type SQLiteStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "logs/chat_logs.db"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, path: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		user_text TEXT NOT NULL,
		bot_text TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_timestamp ON interactions(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts one interaction.
func (s *SQLiteStore) Append(ctx context.Context, entry entities.InteractionLogEntry) (*entities.LogCorruptionWarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, timestamp, user_text, bot_text) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), entry.Timestamp, entry.UserText, entry.BotText,
	)
	if err != nil {
		return nil, &entities.LogWriteError{Path: s.path, Err: err}
	}
	return nil, nil
}

// Entries returns every interaction in insertion order.
func (s *SQLiteStore) Entries(ctx context.Context) ([]entities.InteractionLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT timestamp, user_text, bot_text FROM interactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying interactions: %w", err)
	}
	defer rows.Close()

	var entries []entities.InteractionLogEntry
	for rows.Next() {
		var e entities.InteractionLogEntry
		if err := rows.Scan(&e.Timestamp, &e.UserText, &e.BotText); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored interactions.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM interactions").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
