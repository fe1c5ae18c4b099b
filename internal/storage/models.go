package storage

import "time"

// Session represents a chat session in the database.
type Session struct {
	ID        string // UUID
	CreatedAt time.Time
}

// Message represents a single chat message within a session.
type Message struct {
	ID        string // UUID
	SessionID string // Foreign key to sessions.id
	Role      string // "user" or "assistant"
	Content   string
	CreatedAt time.Time
}
