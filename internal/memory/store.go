package memory

import (
	"time"
)

// Message roles
const (
	RoleHuman = "human"
	RoleAI    = "ai"
	RoleTool  = "tool"
)

// Store conversation memory storage interface
type Store interface {
	// Session management
	CreateSession() (string, error)
	GetSession(id string) (*Session, error)
	GetLatestSession() (*Session, error)
	UpdateSessionTime(id string) error
	ClearSession(sessionID string) error

	// Buffer memory (messages)
	SaveMessage(sessionID string, msg *Message) error
	GetMessages(sessionID string, limit int) ([]*Message, error)

	// Intermediate steps of an answer
	SaveSteps(sessionID string, messageID int64, steps []*Step) error
	GetSteps(messageID int64) ([]*Step, error)
	GetLastSteps(sessionID string) ([]*Step, error)

	// Close connection
	Close() error
}

// Session session structure
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message message structure
type Message struct {
	ID         int64
	SessionID  string
	Role       string // RoleHuman | RoleAI | RoleTool
	Content    string
	ToolCalls  string // JSON encoded tool calls of an AI message
	ToolCallID string // Tool call answered by a tool message
	CreatedAt  time.Time
}

// Step one tool invocation made while producing an answer
type Step struct {
	ID          string
	SessionID   string
	MessageID   int64 // AI message holding the final answer
	Tool        string
	Input       string
	Log         string // Model reasoning emitted with the call
	Observation string
	CreatedAt   time.Time
}
