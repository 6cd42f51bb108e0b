package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore SQLite conversation memory implementation
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite storage
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	// Initialize tables
	if err := store.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	return store, nil
}

// initTables initializes database tables
func (s *SQLiteStore) initTables() error {
	queries := []string{
		// Sessions table
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// Messages table (short-term memory)
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_calls TEXT,
			tool_call_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		// Intermediate steps table
		`CREATE TABLE IF NOT EXISTS steps (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			message_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			tool TEXT NOT NULL,
			input TEXT NOT NULL,
			log TEXT,
			observation TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(id),
			FOREIGN KEY (message_id) REFERENCES messages(id)
		)`,
		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_steps_message_id ON steps(message_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute SQL: %s, error: %w", query, err)
		}
	}

	// Try to add columns if they don't exist (simple migration)
	migrationQueries := []string{
		`ALTER TABLE messages ADD COLUMN tool_calls TEXT`,
		`ALTER TABLE messages ADD COLUMN tool_call_id TEXT`,
	}
	for _, query := range migrationQueries {
		// Ignore errors (e.g. duplicate column name)
		_, _ = s.db.Exec(query)
	}

	return nil
}

// CreateSession creates a new session
func (s *SQLiteStore) CreateSession() (string, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := s.db.Exec(
		"INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)",
		id, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return id, nil
}

// GetSession gets a session by ID
func (s *SQLiteStore) GetSession(id string) (*Session, error) {
	var session Session
	err := s.db.QueryRow(
		"SELECT id, created_at, updated_at FROM sessions WHERE id = ?",
		id,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// GetLatestSession gets the latest session
func (s *SQLiteStore) GetLatestSession() (*Session, error) {
	var session Session
	err := s.db.QueryRow(
		"SELECT id, created_at, updated_at FROM sessions ORDER BY updated_at DESC, rowid DESC LIMIT 1",
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}

	return &session, nil
}

// UpdateSessionTime updates the session timestamp
func (s *SQLiteStore) UpdateSessionTime(id string) error {
	_, err := s.db.Exec(
		"UPDATE sessions SET updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update session time: %w", err)
	}
	return nil
}

// SaveMessage saves a message
func (s *SQLiteStore) SaveMessage(sessionID string, msg *Message) error {
	result, err := s.db.Exec(
		"INSERT INTO messages (session_id, role, content, tool_calls, tool_call_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		sessionID, msg.Role, msg.Content, msg.ToolCalls, msg.ToolCallID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	// Get inserted ID
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read message id: %w", err)
	}
	msg.ID = id

	// Update session time
	_ = s.UpdateSessionTime(sessionID)

	return nil
}

// GetMessages gets messages for a session
func (s *SQLiteStore) GetMessages(sessionID string, limit int) ([]*Message, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, role, content, tool_calls, tool_call_id, created_at
		 FROM messages
		 WHERE session_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var toolCalls, toolCallID sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &toolCalls, &toolCallID, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if toolCalls.Valid {
			msg.ToolCalls = toolCalls.String
		}
		if toolCallID.Valid {
			msg.ToolCallID = toolCallID.String
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	// Reverse order so messages are in chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// SaveSteps saves the intermediate steps of an answer, keeping their order
func (s *SQLiteStore) SaveSteps(sessionID string, messageID int64, steps []*Step) error {
	if len(steps) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for i, step := range steps {
		if step.ID == "" {
			step.ID = uuid.New().String()
		}
		step.SessionID = sessionID
		step.MessageID = messageID
		step.CreatedAt = now

		_, err := tx.Exec(
			`INSERT INTO steps (id, session_id, message_id, position, tool, input, log, observation, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			step.ID, sessionID, messageID, i, step.Tool, step.Input, step.Log, step.Observation, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save step: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit steps: %w", err)
	}
	return nil
}

// GetSteps gets the steps of an AI message in execution order
func (s *SQLiteStore) GetSteps(messageID int64) ([]*Step, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, message_id, tool, input, log, observation, created_at
		 FROM steps
		 WHERE message_id = ?
		 ORDER BY position`,
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get steps: %w", err)
	}
	defer rows.Close()

	var steps []*Step
	for rows.Next() {
		var step Step
		var log, observation sql.NullString
		if err := rows.Scan(&step.ID, &step.SessionID, &step.MessageID, &step.Tool, &step.Input, &log, &observation, &step.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		step.Log = log.String
		step.Observation = observation.String
		steps = append(steps, &step)
	}

	return steps, rows.Err()
}

// GetLastSteps gets the steps of the latest AI message of a session
func (s *SQLiteStore) GetLastSteps(sessionID string) ([]*Step, error) {
	var messageID int64
	err := s.db.QueryRow(
		"SELECT id FROM messages WHERE session_id = ? AND role = ? ORDER BY id DESC LIMIT 1",
		sessionID, RoleAI,
	).Scan(&messageID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last answer: %w", err)
	}

	return s.GetSteps(messageID)
}

// ClearSession clears all messages and steps in a session
func (s *SQLiteStore) ClearSession(sessionID string) error {
	if _, err := s.db.Exec("DELETE FROM steps WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear session steps: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear session messages: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
