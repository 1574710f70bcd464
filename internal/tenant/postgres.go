package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads tenants and channels from Postgres.
type PostgresStore struct {
	db queryRower
}

// NewPostgresStore wires a store around a pgx pool (or anything with QueryRow).
func NewPostgresStore(db queryRower) *PostgresStore {
	if db == nil {
		panic("tenant: db required")
	}
	return &PostgresStore{db: db}
}

const channelColumns = `id::text, tenant_id::text, type, identifier, active`

// ChannelByIdentifier finds an active channel by type and external identifier.
func (s *PostgresStore) ChannelByIdentifier(ctx context.Context, channelType, identifier string) (*Channel, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE type = $1 AND identifier = $2 AND active = true
	`, channelType, identifier)
	return scanChannel(row, "channel by identifier")
}

// ChannelByID finds a channel by its id.
func (s *PostgresStore) ChannelByID(ctx context.Context, id string) (*Channel, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE id = $1
	`, id)
	return scanChannel(row, "channel by id")
}

// Tenant loads a tenant by id.
func (s *PostgresStore) Tenant(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	err := s.db.QueryRow(ctx, `
		SELECT id::text, name, timezone, services, open_time, close_time,
		       ai_provider, ai_model, system_prompt, temperature, notification_email
		FROM tenants
		WHERE id = $1
	`, id).Scan(
		&t.ID, &t.Name, &t.Timezone, &t.Services, &t.OpenTime, &t.CloseTime,
		&t.AIProvider, &t.AIModel, &t.SystemPrompt, &t.Temperature, &t.NotificationEmail,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenant: get tenant: %w", err)
	}
	return &t, nil
}

func scanChannel(row pgx.Row, op string) (*Channel, error) {
	var ch Channel
	if err := row.Scan(&ch.ID, &ch.TenantID, &ch.Type, &ch.Identifier, &ch.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("tenant: %s: %w", op, err)
	}
	return &ch, nil
}
