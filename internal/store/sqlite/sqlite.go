package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/hieupm-149/Network-Programming-Final-Project/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	username   TEXT NOT NULL UNIQUE,
	secret     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store implements store.Credentials on SQLite, so registered accounts
// survive server restarts. Sessions and rooms stay in memory regardless.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and applies the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateUser inserts the pair; the UNIQUE constraint enforces one row per username.
func (s *Store) CreateUser(ctx context.Context, username, secret string) error {
	query := `INSERT INTO users (username, secret) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, query, username, secret); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return store.ErrDuplicateUser
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetSecret returns the stored secret for username.
func (s *Store) GetSecret(ctx context.Context, username string) (string, error) {
	query := `SELECT secret FROM users WHERE username = ?`

	var secret string
	err := s.db.QueryRowContext(ctx, query, username).Scan(&secret)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrUnknownUser
	}
	if err != nil {
		return "", fmt.Errorf("select secret: %w", err)
	}
	return secret, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
