package core

import (
	"context"
	"time"
)

type PersonaRepository interface {
	UpsertPersona(ctx context.Context, p Persona) error
	LoadAllPersonas(ctx context.Context) ([]Persona, error)
}

type RecordRepository interface {
	SaveMessage(ctx context.Context, rec MessageRecord) error
	SaveMemory(ctx context.Context, rec MemoryRecord) error
	ListMemories(ctx context.Context, persona string, limit int) ([]MemoryRecord, error)
}

type MemoryKind string

const (
	MemoryDream   MemoryKind = "dream"
	MemorySummary MemoryKind = "summary"
	MemoryGoal    MemoryKind = "goal"
)

// MessageRecord is a message spoken by a persona.
type MessageRecord struct {
	ID          int64     `json:"id"`
	Persona     string    `json:"persona"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	Content     string    `json:"content"`
	IsBot       bool      `json:"is_bot"`
	CreatedAt   time.Time `json:"created_at"`
}

// MemoryRecord is an output of the daily maintenance routine.
type MemoryRecord struct {
	ID        int64      `json:"id"`
	Persona   string     `json:"persona"`
	Kind      MemoryKind `json:"kind"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}
