package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
)

type timeArg struct{ want time.Time }

func (a timeArg) Match(v any) bool {
	t, ok := v.(*time.Time)
	return ok && t != nil && t.Equal(a.want)
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestCreateConfirmedReservesSlot(t *testing.T) {
	mock := newMock(t)
	slot := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	created := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	channel := "ch-1"

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), "tenant-1", &channel, "", "+15550001111", "Facial",
			&slot, timeArg{slot}, timeArg{slot.Add(time.Hour)}, "confirmed", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

	repo := NewPostgresRepository(mock, time.Hour)
	appt := &Appointment{
		TenantID:        "tenant-1",
		ChannelID:       &channel,
		CustomerContact: "+15550001111",
		Service:         "Facial",
		RequestedTime:   &slot,
		Status:          StatusConfirmed,
	}
	if err := repo.Create(context.Background(), nil, appt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.ID == "" {
		t.Fatal("expected generated id")
	}
	if appt.ConfirmedTime == nil || !appt.ConfirmedTime.Equal(slot) {
		t.Fatalf("expected confirmed time to default to requested time, got %v", appt.ConfirmedTime)
	}
	if !appt.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at from db, got %s", appt.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateSurfacesOverlapConflict(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(anyArgs(11)...).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"})

	slot := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	repo := NewPostgresRepository(mock, time.Hour)
	err := repo.Create(context.Background(), mock, &Appointment{TenantID: "tenant-1", RequestedTime: &slot, Status: StatusConfirmed})
	if !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateRejectsInvalidAppointments(t *testing.T) {
	repo := NewPostgresRepository(newMock(t), time.Hour)
	if err := repo.Create(context.Background(), nil, &Appointment{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	err := repo.Create(context.Background(), nil, &Appointment{TenantID: "t", Status: StatusConfirmed})
	if !errors.Is(err, ErrMissingConfirmedTime) {
		t.Fatalf("expected ErrMissingConfirmedTime, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	mock := newMock(t)
	id := "6f1c1b8e-2b51-4d7e-9a53-2f3c0d7b9a11"
	mock.ExpectQuery("FROM appointments").WithArgs(id, "tenant-1").WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepository(mock, time.Hour)
	if _, err := repo.Get(context.Background(), "tenant-1", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Get(context.Background(), "tenant-1", "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func appointmentColumns() []string {
	return []string{"id", "tenant_id", "channel_id", "customer_name", "customer_contact", "service",
		"requested_time", "confirmed_time", "status", "notes", "created_at", "updated_at"}
}

func TestListAppliesFilters(t *testing.T) {
	mock := newMock(t)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	slot := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`status = \$2 AND service ILIKE \$3 AND \(customer_name ILIKE \$4 OR customer_contact ILIKE \$4\)`).
		WithArgs("tenant-1", "confirmed", "%fac%", "%555%").
		WillReturnRows(pgxmock.NewRows(appointmentColumns()).
			AddRow("a-1", "tenant-1", nil, "Ann", "+15550001111", "Facial", &slot, &slot, "confirmed", "", created, created))

	repo := NewPostgresRepository(mock, time.Hour)
	items, err := repo.List(context.Background(), "tenant-1", ListFilter{Status: StatusConfirmed, Service: "fac", Search: "555"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Status != StatusConfirmed || items[0].ChannelID != nil {
		t.Fatalf("unexpected items %+v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("UPDATE appointments").WithArgs(anyArgs(10)...).WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepository(mock, time.Hour)
	err := repo.Update(context.Background(), &Appointment{ID: "a-1", TenantID: "tenant-1", Status: StatusCanceled})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSummaryCountsAndFillsTrend(t *testing.T) {
	mock := newMock(t)
	today := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	mar2 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mar4 := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("GROUP BY status, day").
		WithArgs("tenant-1", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(pgxmock.NewRows([]string{"status", "day", "count"}).
			AddRow("confirmed", mar2, int64(2)).
			AddRow("pending", mar4, int64(1)).
			AddRow("canceled", mar4, int64(1)))

	repo := NewPostgresRepository(mock, time.Hour)
	summary, err := repo.Summary(context.Background(), "tenant-1", 3, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Total != 4 || summary.Confirmed != 2 || summary.Pending != 1 || summary.Canceled != 1 || summary.Completed != 0 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	want := []TrendPoint{{"2026-03-02", 2}, {"2026-03-03", 0}, {"2026-03-04", 2}}
	if len(summary.Trend) != len(want) {
		t.Fatalf("unexpected trend %+v", summary.Trend)
	}
	for i := range want {
		if summary.Trend[i] != want[i] {
			t.Fatalf("trend[%d] = %+v, want %+v", i, summary.Trend[i], want[i])
		}
	}
}

func TestActiveStarts(t *testing.T) {
	mock := newMock(t)
	from := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)
	slot := from.Add(time.Hour)

	mock.ExpectQuery("COALESCE\\(confirmed_time, requested_time\\)").
		WithArgs("tenant-1", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"slot"}).AddRow(slot))

	repo := NewPostgresRepository(mock, time.Hour)
	starts, err := repo.ActiveStarts(context.Background(), "tenant-1", from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(starts) != 1 || !starts[0].Equal(slot) {
		t.Fatalf("unexpected starts %v", starts)
	}
}

func TestIsConflict(t *testing.T) {
	if IsConflict(errors.New("plain")) {
		t.Fatal("plain errors are not conflicts")
	}
	if IsConflict(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violations are not overlap conflicts")
	}
	wrapped := errors.Join(errors.New("ctx"), &pgconn.PgError{Code: "23P01"})
	if !IsConflict(wrapped) {
		t.Fatal("expected wrapped exclusion violation to be a conflict")
	}
}
