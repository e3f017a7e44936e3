// Package clients keeps the client roster linked to bookings: implicit
// creation by name, phone normalization and booking aggregates.
package clients

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/models"
)

const DefaultPhoneRegion = "AR"

var (
	ErrInvalidPhone = errors.New("invalid phone number")
	ErrNameRequired = errors.New("client name is required")
)

type Store interface {
	List(ctx context.Context) ([]models.Client, error)
	Get(ctx context.Context, id int64) (models.Client, error)
	FindByName(ctx context.Context, name string) (models.Client, error)
	Create(ctx context.Context, client models.Client) (models.Client, error)
	Update(ctx context.Context, client models.Client) (models.Client, error)
	UpdateStats(ctx context.Context, id int64, stats models.ClientStats) error
}

// ReservationSource supplies the full reservation log.
type ReservationSource interface {
	ListReservations(ctx context.Context) ([]models.Reservation, error)
}

type Directory struct {
	store        Store
	reservations ReservationSource
	region       string
}

// NewDirectory parses phones without a country prefix in region.
func NewDirectory(store Store, reservations ReservationSource, region string) *Directory {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultPhoneRegion
	}
	return &Directory{store: store, reservations: reservations, region: region}
}

// NormalizePhone returns raw in E.164 form.
func (d *Directory) NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	number, err := phonenumbers.Parse(raw, d.region)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(number) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

// EnsureClient returns the client whose name matches case-insensitively,
// creating it when missing. A phone or email given for an existing client
// fills in or replaces the stored value.
func (d *Directory) EnsureClient(ctx context.Context, name, phone, email string) (*models.Client, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, ErrNameRequired
	}
	phone = strings.TrimSpace(phone)
	email = strings.TrimSpace(email)

	existing, err := d.store.FindByName(ctx, name)
	switch {
	case errors.Is(err, models.ErrNotFound):
		created, createErr := d.store.Create(ctx, models.Client{Name: name, Phone: phone, Email: email})
		if createErr == nil {
			log.Ctx(ctx).Info().Int64("client_id", created.ID).Msg("Client created from booking")
			return &created, nil
		}
		if !errors.Is(createErr, models.ErrDuplicate) {
			return nil, createErr
		}
		// Lost a race with a concurrent booking for the same name.
		existing, err = d.store.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	changed := false
	if phone != "" && phone != existing.Phone {
		existing.Phone = phone
		changed = true
	}
	if email != "" && !strings.EqualFold(email, existing.Email) {
		existing.Email = email
		changed = true
	}
	if !changed {
		return &existing, nil
	}
	updated, err := d.store.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (d *Directory) Lookup(ctx context.Context, id int64) (*models.Client, error) {
	client, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// Create adds a client from the roster screen, normalizing the phone.
func (d *Directory) Create(ctx context.Context, client models.Client) (models.Client, error) {
	if err := d.prepare(&client); err != nil {
		return models.Client{}, err
	}
	return d.store.Create(ctx, client)
}

// Update replaces name and contact details. Aggregates are left to
// RefreshAggregates.
func (d *Directory) Update(ctx context.Context, client models.Client) (models.Client, error) {
	if err := d.prepare(&client); err != nil {
		return models.Client{}, err
	}
	return d.store.Update(ctx, client)
}

func (d *Directory) prepare(client *models.Client) error {
	client.Name = strings.Join(strings.Fields(client.Name), " ")
	if client.Name == "" {
		return ErrNameRequired
	}
	phone, err := d.NormalizePhone(client.Phone)
	if err != nil {
		return err
	}
	client.Phone = phone
	client.Email = strings.TrimSpace(client.Email)
	return nil
}

// Search matches query against name, phone and email. An empty query lists
// everyone.
func (d *Directory) Search(ctx context.Context, query string) ([]models.Client, error) {
	all, err := d.store.List(ctx)
	if err != nil {
		return nil, err
	}
	key := models.ClientNameKey(query)
	if key == "" {
		return all, nil
	}
	digits := onlyDigits(query)

	matches := make([]models.Client, 0, len(all))
	for _, client := range all {
		switch {
		case strings.Contains(models.ClientNameKey(client.Name), key):
		case strings.Contains(strings.ToLower(client.Email), key):
		case digits != "" && strings.Contains(onlyDigits(client.Phone), digits):
		default:
			continue
		}
		matches = append(matches, client)
	}
	return matches, nil
}

func onlyDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ComputeStats derives per-client aggregates from reservations. Cancelled and
// blocked reservations do not count.
func ComputeStats(reservations []models.Reservation) map[int64]models.ClientStats {
	stats := make(map[int64]models.ClientStats)
	for _, reservation := range reservations {
		if reservation.ClientID == nil || !reservation.Billable() {
			continue
		}
		current := stats[*reservation.ClientID]
		current.TotalBookings++
		current.TotalSpentCents += reservation.PriceCents
		if current.LastBookingAt == nil || reservation.Start.After(*current.LastBookingAt) {
			start := reservation.Start
			current.LastBookingAt = &start
		}
		stats[*reservation.ClientID] = current
	}
	return stats
}

// RefreshAggregates recomputes every client's snapshot from the reservation
// log. Clients without bookings are reset to zero.
func (d *Directory) RefreshAggregates(ctx context.Context) (int, error) {
	if d.reservations == nil {
		return 0, fmt.Errorf("no reservation source configured")
	}
	reservations, err := d.reservations.ListReservations(ctx)
	if err != nil {
		return 0, fmt.Errorf("load reservations: %w", err)
	}
	all, err := d.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load clients: %w", err)
	}

	stats := ComputeStats(reservations)
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	updated := 0
	for _, client := range all {
		next := stats[client.ID]
		if sameStats(client, next) {
			continue
		}
		if err := d.store.UpdateStats(ctx, client.ID, next); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

func sameStats(client models.Client, stats models.ClientStats) bool {
	if client.TotalBookings != stats.TotalBookings || client.TotalSpentCents != stats.TotalSpentCents {
		return false
	}
	if client.LastBookingAt == nil || stats.LastBookingAt == nil {
		return client.LastBookingAt == nil && stats.LastBookingAt == nil
	}
	return client.LastBookingAt.Equal(*stats.LastBookingAt)
}
