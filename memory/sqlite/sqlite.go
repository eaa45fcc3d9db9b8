// Package sqlite provides a durable core.Memory backed by SQLite via the
// cgo-free modernc.org/sqlite driver. One database file can hold any number
// of conversations; a Memory value scopes reads and writes to a single
// conversation id.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/promptmesh/promptmesh/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	function_id TEXT NOT NULL DEFAULT '',
	function_calls TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id);
`

// Open opens the SQLite database at path and applies the schema. Creates the
// file if missing. The returned handle can be shared by any number of Memory
// values and must be closed by the caller.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return db, nil
}

// Memory is a durable conversation log. It implements core.Memory for the
// conversation it was bound to with New. All failures are reported as
// *core.StorageError wrapping the driver error.
type Memory struct {
	db             *sql.DB
	conversationID string
}

// New binds a Memory to one conversation within db.
func New(db *sql.DB, conversationID string) *Memory {
	return &Memory{db: db, conversationID: conversationID}
}

// Append adds a message to the end of the conversation log.
func (m *Memory) Append(ctx context.Context, msg core.Message) error {
	row, err := encodeMessage(msg)
	if err != nil {
		return core.NewStorageError("append", err)
	}

	if _, err := m.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, function_id, function_calls) VALUES (?, ?, ?, ?, ?)`,
		m.conversationID, row.role, row.content, row.functionID, row.functionCalls,
	); err != nil {
		return core.NewStorageError("append", err)
	}

	return nil
}

// GetAll returns the full conversation log in insertion order.
func (m *Memory) GetAll(ctx context.Context) ([]core.Message, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT role, content, function_id, function_calls FROM messages WHERE conversation_id = ? ORDER BY id ASC`,
		m.conversationID,
	)
	if err != nil {
		return nil, core.NewStorageError("get_all", err)
	}
	defer rows.Close()

	var out []core.Message
	for rows.Next() {
		var (
			role          string
			content       string
			functionID    string
			functionCalls sql.NullString
		)
		if err := rows.Scan(&role, &content, &functionID, &functionCalls); err != nil {
			return nil, core.NewStorageError("get_all", err)
		}

		msg, err := decodeMessage(role, content, functionID, functionCalls)
		if err != nil {
			return nil, core.NewStorageError("get_all", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("get_all", err)
	}

	return out, nil
}

// SetAll replaces the conversation log within a single transaction.
func (m *Memory) SetAll(ctx context.Context, msgs []core.Message) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return core.NewStorageError("set_all", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, m.conversationID); err != nil {
		return core.NewStorageError("set_all", err)
	}

	for _, msg := range msgs {
		row, err := encodeMessage(msg)
		if err != nil {
			return core.NewStorageError("set_all", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (conversation_id, role, content, function_id, function_calls) VALUES (?, ?, ?, ?, ?)`,
			m.conversationID, row.role, row.content, row.functionID, row.functionCalls,
		); err != nil {
			return core.NewStorageError("set_all", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.NewStorageError("set_all", err)
	}

	return nil
}

// messageRow is the flattened column representation of a core.Message.
type messageRow struct {
	role          string
	content       string
	functionID    string
	functionCalls sql.NullString
}

func encodeMessage(msg core.Message) (messageRow, error) {
	row := messageRow{role: string(msg.Role())}

	switch v := msg.(type) {
	case core.SystemMessage:
		row.content = v.Content
	case core.UserMessage:
		row.content = v.Content
	case core.ModelMessage:
		row.content = v.Content
		if len(v.FunctionCalls) > 0 {
			data, err := json.Marshal(v.FunctionCalls)
			if err != nil {
				return row, fmt.Errorf("marshal function calls: %w", err)
			}
			row.functionCalls = sql.NullString{String: string(data), Valid: true}
		}
	case core.FunctionMessage:
		row.content = v.Content
		row.functionID = v.FunctionID
	default:
		return row, fmt.Errorf("unsupported message type %T", msg)
	}

	return row, nil
}

func decodeMessage(role, content, functionID string, functionCalls sql.NullString) (core.Message, error) {
	switch core.Role(role) {
	case core.RoleSystem:
		return core.NewSystemMessage(content), nil
	case core.RoleUser:
		return core.NewUserMessage(content), nil
	case core.RoleModel:
		var calls []core.FunctionCall
		if functionCalls.Valid {
			if err := json.Unmarshal([]byte(functionCalls.String), &calls); err != nil {
				return nil, fmt.Errorf("unmarshal function calls: %w", err)
			}
		}
		return core.ModelMessage{Content: content, FunctionCalls: calls}, nil
	case core.RoleFunction:
		return core.NewFunctionMessage(functionID, content), nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}
