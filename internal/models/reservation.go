// internal/models/reservation.go
package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// ReservationTimeLayout is the wall-clock layout reservations are stored in.
	ReservationTimeLayout = "2006-01-02 15:04"
	slotKeyLayout         = "2006-01-02 15"
)

type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusPending   ReservationStatus = "pending"
	StatusCancelled ReservationStatus = "cancelled"
	StatusBlocked   ReservationStatus = "blocked"
)

func ParseReservationStatus(raw string) (ReservationStatus, error) {
	switch status := ReservationStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case StatusConfirmed, StatusPending, StatusCancelled, StatusBlocked:
		return status, nil
	}
	return "", fmt.Errorf("unknown reservation status %q", raw)
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentOnline   PaymentMethod = "online"
	PaymentOther    PaymentMethod = "other"
)

// ParsePaymentMethod maps an empty value to cash.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch method := PaymentMethod(strings.ToLower(strings.TrimSpace(raw))); method {
	case "":
		return PaymentCash, nil
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOnline, PaymentOther:
		return method, nil
	}
	return "", fmt.Errorf("unknown payment method %q", raw)
}

type ReservationType string

const (
	TypeNormal     ReservationType = "normal"
	TypeClass      ReservationType = "class"
	TypeTournament ReservationType = "tournament"
	TypeLeague     ReservationType = "league"
	TypeEvent      ReservationType = "event"
	TypeOther      ReservationType = "other"
)

// ParseReservationType maps an empty value to normal.
func ParseReservationType(raw string) (ReservationType, error) {
	switch kind := ReservationType(strings.ToLower(strings.TrimSpace(raw))); kind {
	case "":
		return TypeNormal, nil
	case TypeNormal, TypeClass, TypeTournament, TypeLeague, TypeEvent, TypeOther:
		return kind, nil
	}
	return "", fmt.Errorf("unknown reservation type %q", raw)
}

// Predefined cancellation reason codes.
const (
	CancelReasonClient      = "client"
	CancelReasonWeather     = "weather"
	CancelReasonMaintenance = "maintenance"
	CancelReasonOther       = "other"
)

var cancelReasonLabels = map[string]string{
	CancelReasonClient:      "Cancelled by client",
	CancelReasonWeather:     "Weather",
	CancelReasonMaintenance: "Maintenance",
	CancelReasonOther:       "Other",
}

// CancelReason builds the stored reason text from an optional predefined
// code and optional free text. "other" requires text; with no code the text
// alone is used.
func CancelReason(code, text string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	text = strings.TrimSpace(text)

	if code == "" {
		if text == "" {
			return "", fmt.Errorf("cancellation reason is required")
		}
		return text, nil
	}

	label, ok := cancelReasonLabels[code]
	if !ok {
		return "", fmt.Errorf("unknown cancellation reason %q", code)
	}
	if code == CancelReasonOther && text == "" {
		return "", fmt.Errorf("cancellation reason text is required for other")
	}
	if text == "" {
		return label, nil
	}
	return label + ": " + text, nil
}

type Reservation struct {
	ID            int64             `json:"id"`
	CourtID       int64             `json:"courtId"`
	ClientID      *int64            `json:"clientId,omitempty"`
	ClientName    string            `json:"clientName"`
	Start         time.Time         `json:"start"`
	End           time.Time         `json:"end"`
	PriceCents    int64             `json:"priceCents"`
	Status        ReservationStatus `json:"status"`
	Paid          bool              `json:"paid"`
	CreatedBy     string            `json:"createdBy,omitempty"`
	PaymentMethod PaymentMethod     `json:"paymentMethod"`
	Type          ReservationType   `json:"type"`
	Notes         string            `json:"notes,omitempty"`
	CancelReason  string            `json:"cancelReason,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Active reports whether the reservation still occupies its slot.
func (r Reservation) Active() bool {
	return r.Status != StatusCancelled
}

// Billable reports whether the reservation counts toward bookings and revenue.
func (r Reservation) Billable() bool {
	return r.Status != StatusCancelled && r.Status != StatusBlocked
}

func (r Reservation) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// SlotKey identifies the (date, start hour) slot a reservation occupies.
func (r Reservation) SlotKey() string {
	return SlotKey(r.Start)
}

func SlotKey(start time.Time) string {
	return start.Format(slotKeyLayout)
}

// SameDate reports whether a and b share a calendar date in a's location.
func SameDate(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
