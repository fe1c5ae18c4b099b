package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_session_store.go -package=mocks regulaqa/internal/storage SessionStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// SessionStore defines the interface for chat session storage operations.
type SessionStore interface {
	// Create creates a new session with a generated UUID.
	Create(ctx context.Context) (*Session, error)
	// GetByID gets a session by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*Session, error)
}

// SessionRepo provides methods for session operations.
// It implements the SessionStore interface.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session with a generated UUID.
func (r *SessionRepo) Create(ctx context.Context) (*Session, error) {
	id := uuid.New().String()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (id) VALUES (?)",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID gets a session by its ID. Returns ErrNotFound if not found.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*Session, error) {
	var session Session
	var createdAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, created_at FROM sessions WHERE id = ?",
		id,
	).Scan(&session.ID, &createdAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	session.CreatedAt, err = parseTimestamp(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}

	return &session, nil
}

// parseTimestamp parses a SQLite DATETIME string, which may come back in
// either the default format or RFC3339.
func parseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t, nil
}
