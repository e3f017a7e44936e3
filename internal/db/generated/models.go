package dbgen

import (
	"database/sql"
	"time"
)

type Client struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	NameKey         string         `json:"name_key"`
	Phone           sql.NullString `json:"phone"`
	Email           sql.NullString `json:"email"`
	TotalBookings   int64          `json:"total_bookings"`
	TotalSpentCents int64          `json:"total_spent_cents"`
	LastBookingAt   sql.NullString `json:"last_booking_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type Court struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Sports        string    `json:"sports"`
	Surface       string    `json:"surface"`
	Indoor        bool      `json:"indoor"`
	Lighting      bool      `json:"lighting"`
	StartRounding string    `json:"start_rounding"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Product struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	PriceCents int64     `json:"price_cents"`
	Stock      int64     `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Reservation struct {
	ID              int64          `json:"id"`
	CourtID         int64          `json:"court_id"`
	ClientID        sql.NullInt64  `json:"client_id"`
	ClientName      string         `json:"client_name"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time"`
	SlotKey         string         `json:"slot_key"`
	PriceCents      int64          `json:"price_cents"`
	Status          string         `json:"status"`
	Paid            bool           `json:"paid"`
	CreatedBy       string         `json:"created_by"`
	PaymentMethod   string         `json:"payment_method"`
	ReservationType string         `json:"reservation_type"`
	Notes           string         `json:"notes"`
	CancelReason    sql.NullString `json:"cancel_reason"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type Staff struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type WeeklySchedule struct {
	Day       string    `json:"day"`
	Position  int64     `json:"position"`
	IsOpen    bool      `json:"is_open"`
	StartHour int64     `json:"start_hour"`
	EndHour   int64     `json:"end_hour"`
	UpdatedAt time.Time `json:"updated_at"`
}
