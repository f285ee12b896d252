// Package sqlite persists conversations in a local SQLite database using the
// cgo-free modernc.org driver. The schema keeps conversations, their message
// history and every tool execution in separate tables so the invocation log
// survives independently of history rewrites.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/turnwise/turnwise/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	seq             INTEGER NOT NULL,
	role            TEXT NOT NULL CHECK(role IN ('user', 'assistant', 'system', 'tool')),
	text            TEXT,
	tool_calls      JSON,
	tool_call_id    TEXT
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);
CREATE TABLE IF NOT EXISTS tool_executions (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT REFERENCES conversations(id),
	tool_name       TEXT NOT NULL,
	call_id         TEXT,
	arguments       JSON,
	success         BOOLEAN,
	error           TEXT,
	elapsed_ms      REAL,
	created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Store is a durable conversation store backed by a single SQLite file.
// database/sql serializes access; Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and initializes the schema.
// Use ":memory:" for an ephemeral database in tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Load returns the stored history for the conversation in message order.
func (s *Store) Load(ctx context.Context, conversationID string) ([]core.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, text, tool_calls, tool_call_id FROM messages WHERE conversation_id = ? ORDER BY seq`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var history []core.Message
	for rows.Next() {
		var (
			role       string
			text       sql.NullString
			toolCalls  sql.NullString
			toolCallID sql.NullString
		)
		if err := rows.Scan(&role, &text, &toolCalls, &toolCallID); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		msg := core.Message{Role: core.Role(role), Text: text.String, ToolCallID: toolCallID.String}
		if toolCalls.Valid && toolCalls.String != "" {
			if err := json.Unmarshal([]byte(toolCalls.String), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("decode tool calls: %w", err)
			}
		}
		history = append(history, msg)
	}
	return history, rows.Err()
}

// Save replaces the conversation's history and appends the run's invocation
// records, all within one transaction.
func (s *Store) Save(ctx context.Context, conversationID string, history []core.Message, invocations []core.Invocation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id) VALUES (?) ON CONFLICT(id) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`,
		conversationID,
	); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	for seq, msg := range history {
		var toolCalls any
		if len(msg.ToolCalls) > 0 {
			encoded, err := json.Marshal(msg.ToolCalls)
			if err != nil {
				return fmt.Errorf("encode tool calls: %w", err)
			}
			toolCalls = string(encoded)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (conversation_id, seq, role, text, tool_calls, tool_call_id) VALUES (?, ?, ?, ?, ?, ?)`,
			conversationID, seq, string(msg.Role), msg.Text, toolCalls, msg.ToolCallID,
		); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	for _, inv := range invocations {
		var args any
		if len(inv.Arguments) > 0 {
			encoded, err := json.Marshal(inv.Arguments)
			if err != nil {
				return fmt.Errorf("encode arguments: %w", err)
			}
			args = string(encoded)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tool_executions (conversation_id, tool_name, call_id, arguments, success, error, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			conversationID, inv.Tool, inv.CallID, args, inv.Success, inv.Error,
			float64(inv.Elapsed)/float64(time.Millisecond),
		); err != nil {
			return fmt.Errorf("insert tool execution: %w", err)
		}
	}

	return tx.Commit()
}
