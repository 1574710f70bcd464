// Package messages persists the record written for every inbound text.
package messages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Status of the reply attached to a message.
const (
	StatusReplied   = "replied"
	StatusEscalated = "escalated"
)

// DirectionInbound marks customer-originated messages.
const DirectionInbound = "inbound"

// EscalationThreshold is the confidence at or below which a reply is handed to a human.
const EscalationThreshold = 0.7

// ErrInvalidRecord is returned when required fields are missing.
var ErrInvalidRecord = errors.New("messages: tenant and channel required")

// Record is one inbound message and the reply sent for it.
type Record struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	ChannelID        string    `json:"channel_id"`
	Direction        string    `json:"direction"`
	CustomerContact  string    `json:"customer_contact,omitempty"`
	Text             string    `json:"message_text"`
	Reply            string    `json:"ai_response"`
	Confidence       float64   `json:"confidence_score"`
	Status           string    `json:"status"`
	EscalatedToHuman bool      `json:"escalated_to_human"`
	CreatedAt        time.Time `json:"created_at"`
}

// ApplyConfidence sets the reply and derives status from the escalation threshold.
func (r *Record) ApplyConfidence(reply string, confidence float64) {
	r.Reply = reply
	r.Confidence = confidence
	r.EscalatedToHuman = confidence <= EscalationThreshold
	r.Status = StatusReplied
	if r.EscalatedToHuman {
		r.Status = StatusEscalated
	}
}

// Querier is satisfied by pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store writes message records.
type Store struct {
	db Querier
}

// NewStore builds a Store on the pool.
func NewStore(db Querier) *Store {
	if db == nil {
		panic("messages: db required")
	}
	return &Store{db: db}
}

// Insert writes rec through q, or the pool when q is nil.
func (s *Store) Insert(ctx context.Context, q Querier, rec *Record) error {
	if q == nil {
		q = s.db
	}
	if rec == nil || rec.TenantID == "" || rec.ChannelID == "" {
		return ErrInvalidRecord
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Direction == "" {
		rec.Direction = DirectionInbound
	}
	if rec.Status == "" {
		rec.Status = StatusReplied
	}
	err := q.QueryRow(ctx, `
		INSERT INTO messages (id, tenant_id, channel_id, direction, customer_contact, message_text,
			ai_response, confidence_score, status, escalated_to_human)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, rec.ID, rec.TenantID, rec.ChannelID, rec.Direction, rec.CustomerContact, rec.Text,
		rec.Reply, rec.Confidence, rec.Status, rec.EscalatedToHuman,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("messages: insert: %w", err)
	}
	return nil
}
