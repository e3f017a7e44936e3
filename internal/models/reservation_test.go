package models

import (
	"testing"
	"time"
)

func TestStartRoundingApply(t *testing.T) {
	loc := time.FixedZone("club", 5*3600+30*60)
	base := time.Date(2024, 3, 12, 14, 47, 31, 0, loc)

	tests := []struct {
		name     string
		rounding StartRounding
		want     time.Time
	}{
		{"none keeps minutes", RoundingNone, time.Date(2024, 3, 12, 14, 47, 0, 0, loc)},
		{"hour floors", RoundingHour, time.Date(2024, 3, 12, 14, 0, 0, 0, loc)},
		{"half hour floors", RoundingHalfHour, time.Date(2024, 3, 12, 14, 30, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rounding.Apply(base)
			if !got.Equal(tt.want) {
				t.Fatalf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEnumsDefaults(t *testing.T) {
	method, err := ParsePaymentMethod("")
	if err != nil || method != PaymentCash {
		t.Fatalf("payment method default: %q, %v", method, err)
	}
	kind, err := ParseReservationType(" ")
	if err != nil || kind != TypeNormal {
		t.Fatalf("reservation type default: %q, %v", kind, err)
	}
	if _, err := ParsePaymentMethod("bitcoin"); err == nil {
		t.Fatal("expected error for unknown payment method")
	}
	if _, err := ParseReservationType("birthday"); err == nil {
		t.Fatal("expected error for unknown reservation type")
	}
	if _, err := ParseStartRounding("quarter"); err == nil {
		t.Fatal("expected error for unknown rounding")
	}
}

func TestCancelReason(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "free text", text: "  double booked  ", want: "double booked"},
		{name: "code only", code: "weather", want: "Weather"},
		{name: "code with text", code: "Maintenance", text: "net repair", want: "Maintenance: net repair"},
		{name: "other needs text", code: "other", wantErr: true},
		{name: "other with text", code: "other", text: "tournament", want: "Other: tournament"},
		{name: "empty", wantErr: true},
		{name: "unknown code", code: "holiday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CancelReason(tt.code, tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CancelReason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDayScheduleValidate(t *testing.T) {
	if err := (DaySchedule{Day: "Monday", Open: false, StartHour: 20, EndHour: 3}).Validate(); err != nil {
		t.Fatalf("closed day hours should be ignored: %v", err)
	}
	if err := (DaySchedule{Day: "Monday", Open: true, StartHour: 9, EndHour: 9}).Validate(); err == nil {
		t.Fatal("expected error when start equals end")
	}
	if err := (DaySchedule{Day: "Monday", Open: true, StartHour: 9, EndHour: 25}).Validate(); err == nil {
		t.Fatal("expected error for end hour past midnight")
	}
}

func TestClientNameKey(t *testing.T) {
	if got := ClientNameKey("  Ana   María LÓPEZ "); got != "ana maría lópez" {
		t.Fatalf("ClientNameKey() = %q", got)
	}
}
