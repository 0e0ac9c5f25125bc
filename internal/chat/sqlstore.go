package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hvga/hvga-og/internal/db"
	"github.com/hvga/hvga-og/internal/llm"
)

// SQLStore keeps session history in SQLite so conversations survive restarts.
// The system prompt is not stored: Load returns the system message with empty
// content and the engine fills in the current prompt.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a Store backed by the given database.
func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database}
}

func (s *SQLStore) Load(ctx context.Context, sessionID string) ([]llm.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, tool_calls, tool_call_id
		FROM chat_messages WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var history []llm.Message
	for rows.Next() {
		var (
			m         llm.Message
			role      string
			toolCalls string
		)
		if err := rows.Scan(&role, &m.Content, &toolCalls, &m.ToolCallID); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = llm.Role(role)
		if err := json.Unmarshal([]byte(toolCalls), &m.ToolCalls); err != nil {
			return nil, fmt.Errorf("decoding tool calls: %w", err)
		}
		history = append(history, m)
	}
	return history, rows.Err()
}

// Save replaces the stored history of a session in one transaction.
func (s *SQLStore) Save(ctx context.Context, sessionID string, history []llm.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_sessions (id) VALUES (?)
		ON CONFLICT(id) DO UPDATE SET updated_at = datetime('now')`, sessionID); err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}

	for i, m := range history {
		calls := m.ToolCalls
		if calls == nil {
			calls = []llm.ToolCall{}
		}
		encoded, err := json.Marshal(calls)
		if err != nil {
			return fmt.Errorf("encoding tool calls: %w", err)
		}
		content := m.Content
		if m.Role == llm.RoleSystem {
			content = ""
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chat_messages (id, session_id, position, role, content, tool_calls, tool_call_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), sessionID, i, string(m.Role), content, string(encoded), m.ToolCallID,
		); err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session %s: %w", sessionID, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting messages of %s: %w", sessionID, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return nil
}

// Sweep deletes sessions not updated within the last ttlSeconds.
func (s *SQLStore) Sweep(ctx context.Context, ttlSeconds int) (int64, error) {
	cutoff := fmt.Sprintf("-%d seconds", ttlSeconds)
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM chat_messages WHERE session_id IN (
			SELECT id FROM chat_sessions WHERE updated_at < datetime('now', ?))`, cutoff); err != nil {
		return 0, fmt.Errorf("sweeping messages: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM chat_sessions WHERE updated_at < datetime('now', ?)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	return res.RowsAffected()
}
