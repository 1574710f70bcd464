package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the appointment persistence contract used by handlers.
type Repository interface {
	Create(ctx context.Context, q Querier, appt *Appointment) error
	Get(ctx context.Context, tenantID, id string) (*Appointment, error)
	List(ctx context.Context, tenantID string, filter ListFilter) ([]*Appointment, error)
	Update(ctx context.Context, appt *Appointment) error
	Summary(ctx context.Context, tenantID string, days int, today time.Time) (*Summary, error)
}

// PostgresRepository stores appointments in Postgres.
type PostgresRepository struct {
	db         Querier
	slotLength time.Duration
}

// NewPostgresRepository builds a repository. slotLength is the span each
// confirmed appointment reserves for the overlap constraint.
func NewPostgresRepository(db Querier, slotLength time.Duration) *PostgresRepository {
	if db == nil {
		panic("appointments: db required")
	}
	if slotLength <= 0 {
		slotLength = time.Hour
	}
	return &PostgresRepository{db: db, slotLength: slotLength}
}

const selectColumns = `
	id::text, tenant_id::text, channel_id::text, customer_name, customer_contact, service,
	requested_time, confirmed_time, status, notes, created_at, updated_at`

func (r *PostgresRepository) slotEnd(appt *Appointment) *time.Time {
	if appt.ConfirmedTime == nil {
		return nil
	}
	end := appt.ConfirmedTime.Add(r.slotLength)
	return &end
}

// Create inserts appt using q (a transaction or the pool when nil).
func (r *PostgresRepository) Create(ctx context.Context, q Querier, appt *Appointment) error {
	if q == nil {
		q = r.db
	}
	if appt == nil || appt.TenantID == "" {
		return ErrInvalidRequest
	}
	if err := appt.normalize(); err != nil {
		return err
	}
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	err := q.QueryRow(ctx, `
		INSERT INTO appointments (id, tenant_id, channel_id, customer_name, customer_contact, service,
			requested_time, confirmed_time, slot_end, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, appt.ID, appt.TenantID, appt.ChannelID, appt.CustomerName, appt.CustomerContact, appt.Service,
		appt.RequestedTime, appt.ConfirmedTime, r.slotEnd(appt), string(appt.Status), appt.Notes,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// Get fetches one appointment scoped to the tenant.
func (r *PostgresRepository) Get(ctx context.Context, tenantID, id string) (*Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+`
		FROM appointments
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return appt, nil
}

// List returns the tenant's appointments, newest first.
func (r *PostgresRepository) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Appointment, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if s := strings.TrimSpace(filter.Service); s != "" {
		add("service ILIKE $%d", "%"+s+"%")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(customer_name ILIKE $%d OR customer_contact ILIKE $%d)", len(args), len(args)))
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}

	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+`
		FROM appointments
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

// Update persists the mutable fields of appt.
func (r *PostgresRepository) Update(ctx context.Context, appt *Appointment) error {
	if err := appt.normalize(); err != nil {
		return err
	}
	err := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET customer_name = $3, customer_contact = $4, service = $5, requested_time = $6,
			confirmed_time = $7, slot_end = $8, status = $9, notes = $10, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING updated_at
	`, appt.ID, appt.TenantID, appt.CustomerName, appt.CustomerContact, appt.Service, appt.RequestedTime,
		appt.ConfirmedTime, r.slotEnd(appt), string(appt.Status), appt.Notes,
	).Scan(&appt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("appointments: update: %w", err)
	}
	return nil
}

// Summary counts appointments created during the trailing days ending today.
func (r *PostgresRepository) Summary(ctx context.Context, tenantID string, days int, today time.Time) (*Summary, error) {
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	rows, err := r.db.Query(ctx, `
		SELECT status, created_at::date AS day, count(*)
		FROM appointments
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY status, day
	`, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("appointments: summary: %w", err)
	}
	defer rows.Close()

	summary := &Summary{}
	perDay := map[string]int{}
	for rows.Next() {
		var (
			status string
			day    time.Time
			count  int64
		)
		if err := rows.Scan(&status, &day, &count); err != nil {
			return nil, fmt.Errorf("appointments: summary scan: %w", err)
		}
		n := int(count)
		summary.Total += n
		perDay[day.Format("2006-01-02")] += n
		switch Status(status) {
		case StatusPending:
			summary.Pending += n
		case StatusConfirmed:
			summary.Confirmed += n
		case StatusCompleted:
			summary.Completed += n
		case StatusCanceled:
			summary.Canceled += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: summary rows: %w", err)
	}
	summary.Trend = buildTrend(today, days, perDay)
	return summary, nil
}

// ActiveStarts returns slot starts of confirmed or pending appointments in
// [from, to]. Pending rows have no confirmed time and use the requested one.
func (r *PostgresRepository) ActiveStarts(ctx context.Context, tenantID string, from, to time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(confirmed_time, requested_time) AS slot
		FROM appointments
		WHERE tenant_id = $1
		  AND status IN ('confirmed', 'pending')
		  AND COALESCE(confirmed_time, requested_time) >= $2
		  AND COALESCE(confirmed_time, requested_time) <= $3
		ORDER BY slot
	`, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments: active starts: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("appointments: active starts scan: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		appt   Appointment
		status string
	)
	if err := row.Scan(
		&appt.ID,
		&appt.TenantID,
		&appt.ChannelID,
		&appt.CustomerName,
		&appt.CustomerContact,
		&appt.Service,
		&appt.RequestedTime,
		&appt.ConfirmedTime,
		&status,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	appt.Status = Status(status)
	return &appt, nil
}
