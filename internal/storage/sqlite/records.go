package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/sandevgo/chorus/internal/core"
)

type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func (r *RecordsRepo) SaveMessage(ctx context.Context, rec core.MessageRecord) error {
	query := `INSERT INTO messages (persona, channel_id, channel_name, content, is_bot, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.Persona, rec.ChannelID, rec.ChannelName, rec.Content, rec.IsBot, timestamp(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages returns the last limit messages spoken by persona, oldest
// first.
func (r *RecordsRepo) ListMessages(ctx context.Context, persona string, limit int) ([]core.MessageRecord, error) {
	query := `SELECT id, persona, channel_id, channel_name, content, is_bot, created_at FROM messages WHERE persona = ? ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, persona, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []core.MessageRecord
	for rows.Next() {
		var m core.MessageRecord
		if err := rows.Scan(&m.ID, &m.Persona, &m.ChannelID, &m.ChannelName, &m.Content, &m.IsBot, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

func (r *RecordsRepo) SaveMemory(ctx context.Context, rec core.MemoryRecord) error {
	query := `INSERT INTO memories (persona, kind, content, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, rec.Persona, string(rec.Kind), rec.Content, timestamp(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert %s memory: %w", rec.Kind, err)
	}
	return nil
}

// ListMemories returns the newest limit memory records of persona, newest
// first.
func (r *RecordsRepo) ListMemories(ctx context.Context, persona string, limit int) ([]core.MemoryRecord, error) {
	query := `SELECT id, persona, kind, content, created_at FROM memories WHERE persona = ? ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, persona, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var out []core.MemoryRecord
	for rows.Next() {
		var m core.MemoryRecord
		var kind string
		if err := rows.Scan(&m.ID, &m.Persona, &kind, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		m.Kind = core.MemoryKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

func timestamp(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC()
}
