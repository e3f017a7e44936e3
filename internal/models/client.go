package models

import (
	"fmt"
	"strings"
	"time"
)

type Client struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone,omitempty"`
	Email           string     `json:"email,omitempty"`
	TotalBookings   int64      `json:"totalBookings"`
	TotalSpentCents int64      `json:"totalSpentCents"`
	LastBookingAt   *time.Time `json:"lastBookingAt,omitempty"`
}

// ClientStats is the aggregate snapshot derived from a client's reservations.
type ClientStats struct {
	TotalBookings   int64
	TotalSpentCents int64
	LastBookingAt   *time.Time
}

// ClientNameKey folds a display name for case-insensitive matching.
func ClientNameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"priceCents"`
	Stock      int64  `json:"stock"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("product price must be 0 or greater")
	}
	if p.Stock < 0 {
		return fmt.Errorf("product stock must be 0 or greater")
	}
	return nil
}

type StaffRole string

const (
	RoleAdmin StaffRole = "admin"
	RoleStaff StaffRole = "staff"
)

type Staff struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         StaffRole `json:"role"`
}
