package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_message_store.go -package=mocks regulaqa/internal/storage MessageStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// MessageStore defines the interface for chat message storage operations.
type MessageStore interface {
	// Append inserts a message into a session with a generated UUID.
	Append(ctx context.Context, sessionID, role, content string) (*Message, error)
	// ListBySession returns all messages of a session in chronological order.
	ListBySession(ctx context.Context, sessionID string) ([]Message, error)
}

// MessageRepo provides methods for message operations.
// It implements the MessageStore interface.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a new MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append inserts a message into a session with a generated UUID.
func (r *MessageRepo) Append(ctx context.Context, sessionID, role, content string) (*Message, error) {
	msg := Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (id, session_id, role, content) VALUES (?, ?, ?, ?)",
		msg.ID, msg.SessionID, msg.Role, msg.Content,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	return &msg, nil
}

// ListBySession returns all messages of a session in chronological order.
func (r *MessageRepo) ListBySession(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY created_at, id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var createdAtStr string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.CreatedAt, err = parseTimestamp(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}

		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
