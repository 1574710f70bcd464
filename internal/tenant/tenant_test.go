package tenant

import (
	"testing"
	"time"
)

func TestParseHour(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"09:00", 9, true},
		{"17:30", 17, true},
		{" 8:15 ", 8, true},
		{"12", 12, true},
		{"", 0, false},
		{"nine", 0, false},
		{"25:00", 0, false},
		{"-1:00", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseHour(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseHour(%q) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestHoursFallsBackPerField(t *testing.T) {
	fallback := BusinessHours{Open: 9, Close: 17}

	var nilTenant *Tenant
	if got, ok := nilTenant.Hours(fallback); got != fallback || !ok {
		t.Fatalf("nil tenant: got %+v ok=%v", got, ok)
	}

	tn := &Tenant{OpenTime: "10:00", CloseTime: "garbage"}
	got, ok := tn.Hours(fallback)
	if got.Open != 10 || got.Close != 17 || !ok {
		t.Fatalf("expected 10-17, got %+v ok=%v", got, ok)
	}

	tn = &Tenant{}
	if got, _ := tn.Hours(fallback); got != fallback {
		t.Fatalf("empty tenant should use fallback, got %+v", got)
	}
}

func TestHoursRejectsEmptyRange(t *testing.T) {
	fallback := BusinessHours{Open: 9, Close: 17}
	cases := []*Tenant{
		{OpenTime: "22:00", CloseTime: "06:00"},
		{OpenTime: "12:00", CloseTime: "12:30"},
		{OpenTime: "18:00"},
	}
	for _, tn := range cases {
		got, ok := tn.Hours(fallback)
		if ok || got != fallback {
			t.Errorf("Hours(%q-%q) = %+v ok=%v, want fallback", tn.OpenTime, tn.CloseTime, got, ok)
		}
	}
}

func TestBusinessHoursContainsIsHalfOpen(t *testing.T) {
	h := BusinessHours{Open: 9, Close: 17}
	cases := map[int]bool{8: false, 9: true, 16: true, 17: false, 20: false}
	for hour, want := range cases {
		if got := h.Contains(hour); got != want {
			t.Errorf("Contains(%d) = %v want %v", hour, got, want)
		}
	}
}

func TestLocationDefaultsToUTC(t *testing.T) {
	if loc := (&Tenant{}).Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %s", loc)
	}
	if loc := (&Tenant{Timezone: "Not/AZone"}).Location(); loc != time.UTC {
		t.Fatalf("expected UTC for invalid zone, got %s", loc)
	}
	loc := (&Tenant{Timezone: "America/New_York"}).Location()
	if loc.String() != "America/New_York" {
		t.Fatalf("expected New York, got %s", loc)
	}
}
