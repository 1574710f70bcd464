package booking

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/support-ai-platform/internal/appointments"
	"github.com/wolfman30/support-ai-platform/internal/events"
	"github.com/wolfman30/support-ai-platform/internal/messages"
)

// TxDB is satisfied by pgxpool.Pool.
type TxDB interface {
	messages.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AppointmentWriter inserts appointments through a caller-supplied querier.
type AppointmentWriter interface {
	Create(ctx context.Context, q appointments.Querier, appt *appointments.Appointment) error
}

// PostgresRecorder writes messages, and for bookings the appointment, the
// message and an appointment.confirmed.v1 outbox event in one transaction.
type PostgresRecorder struct {
	db           TxDB
	messages     *messages.Store
	appointments AppointmentWriter
	outbox       *events.OutboxStore
}

func NewPostgresRecorder(db TxDB, msgs *messages.Store, appts AppointmentWriter, outbox *events.OutboxStore) *PostgresRecorder {
	if db == nil || msgs == nil || appts == nil || outbox == nil {
		panic("booking: recorder dependencies required")
	}
	return &PostgresRecorder{db: db, messages: msgs, appointments: appts, outbox: outbox}
}

// RecordMessage implements Recorder.
func (p *PostgresRecorder) RecordMessage(ctx context.Context, msg *messages.Record) error {
	ctx, span := tracer.Start(ctx, "booking.record_message")
	defer span.End()
	return p.messages.Insert(ctx, nil, msg)
}

// RecordBooking implements Recorder. An exclusion-constraint violation on
// the appointment insert rolls back and yields ErrSlotTaken.
func (p *PostgresRecorder) RecordBooking(ctx context.Context, appt *appointments.Appointment, msg *messages.Record) error {
	ctx, span := tracer.Start(ctx, "booking.record_booking")
	defer span.End()

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := p.appointments.Create(ctx, tx, appt); err != nil {
		if appointments.IsConflict(err) {
			return ErrSlotTaken
		}
		span.RecordError(err)
		return err
	}
	if err := p.messages.Insert(ctx, tx, msg); err != nil {
		span.RecordError(err)
		return err
	}

	payload := events.AppointmentConfirmed{
		AppointmentID:   appt.ID,
		TenantID:        appt.TenantID,
		CustomerContact: appt.CustomerContact,
		Service:         appt.Service,
	}
	if appt.ChannelID != nil {
		payload.ChannelID = *appt.ChannelID
	}
	if appt.ConfirmedTime != nil {
		payload.ConfirmedTime = appt.ConfirmedTime.UTC()
	}
	if _, err := p.outbox.Insert(ctx, tx, appt.TenantID, events.TypeAppointmentConfirmed, payload); err != nil {
		span.RecordError(err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}
	return nil
}
