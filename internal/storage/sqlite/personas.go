package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/chorus/internal/core"
)

type PersonasRepo struct {
	db *sql.DB
}

func NewPersonasRepo(db *sql.DB) *PersonasRepo {
	return &PersonasRepo{db: db}
}

// UpsertPersona inserts the persona or overwrites the stored one with the
// same name. New personas are appended after the existing ones.
func (r *PersonasRepo) UpsertPersona(ctx context.Context, p core.Persona) error {
	query := `
		INSERT INTO personas (name, emoji, avatar, personality, home_channel, position, updated_at)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM personas), ?)
		ON CONFLICT(name) DO UPDATE SET
			emoji = excluded.emoji,
			avatar = excluded.avatar,
			personality = excluded.personality,
			home_channel = excluded.home_channel,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		p.Name, p.Emoji, p.Avatar, p.Personality, p.HomeChannel, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert persona %q: %w", p.Name, err)
	}
	return nil
}

// LoadAllPersonas returns personas in the order they were first stored.
func (r *PersonasRepo) LoadAllPersonas(ctx context.Context) ([]core.Persona, error) {
	query := `SELECT name, emoji, avatar, personality, home_channel FROM personas ORDER BY position, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query personas: %w", err)
	}
	defer rows.Close()

	var personas []core.Persona
	for rows.Next() {
		var p core.Persona
		if err := rows.Scan(&p.Name, &p.Emoji, &p.Avatar, &p.Personality, &p.HomeChannel); err != nil {
			return nil, fmt.Errorf("failed to scan persona: %w", err)
		}
		personas = append(personas, p)
	}
	return personas, rows.Err()
}
