package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func TestPostgresStoreChannelByIdentifier(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM channels").
		WithArgs(ChannelSMS, "+15550001111").
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "type", "identifier", "active"}).
			AddRow("ch-1", "tenant-1", ChannelSMS, "+15550001111", true))

	store := NewPostgresStore(mock)
	ch, err := store.ChannelByIdentifier(context.Background(), ChannelSMS, " +15550001111 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.ID != "ch-1" || ch.TenantID != "tenant-1" || !ch.Active {
		t.Fatalf("unexpected channel %+v", ch)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreChannelNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM channels").
		WithArgs(ChannelSMS, "+15550009999").
		WillReturnError(pgx.ErrNoRows)

	store := NewPostgresStore(mock)
	if _, err := store.ChannelByIdentifier(context.Background(), ChannelSMS, "+15550009999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.ChannelByIdentifier(context.Background(), ChannelSMS, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank identifier, got %v", err)
	}
}

func TestPostgresStoreTenant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	temp := float32(0.2)
	mock.ExpectQuery("FROM tenants").
		WithArgs("tenant-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "timezone", "services", "open_time", "close_time",
			"ai_provider", "ai_model", "system_prompt", "temperature", "notification_email",
		}).AddRow("tenant-1", "Glow Spa", "America/Chicago", []string{"Facial", "Massage"}, "09:00", "17:00",
			"openai", "", "Be kind", &temp, "owner@glow.example"))

	store := NewPostgresStore(mock)
	tn, err := store.Tenant(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tn.Name != "Glow Spa" || len(tn.Services) != 2 || tn.Services[0] != "Facial" {
		t.Fatalf("unexpected tenant %+v", tn)
	}
	if tn.Temperature == nil || *tn.Temperature != 0.2 {
		t.Fatalf("expected temperature 0.2, got %v", tn.Temperature)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreTenantWrapsErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM tenants").WithArgs("tenant-1").WillReturnError(errors.New("boom"))

	store := NewPostgresStore(mock)
	_, err = store.Tenant(context.Background(), "tenant-1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
