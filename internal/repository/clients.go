package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codr1/Courtside/internal/db"
	dbgen "github.com/codr1/Courtside/internal/db/generated"
	"github.com/codr1/Courtside/internal/models"
)

type Clients struct {
	q   *dbgen.Queries
	loc *time.Location
}

func (c *Clients) fromRow(row dbgen.Client) models.Client {
	client := models.Client{
		ID:              row.ID,
		Name:            row.Name,
		Phone:           row.Phone.String,
		Email:           row.Email.String,
		TotalBookings:   row.TotalBookings,
		TotalSpentCents: row.TotalSpentCents,
	}
	if row.LastBookingAt.Valid {
		if last, err := time.ParseInLocation(models.ReservationTimeLayout, row.LastBookingAt.String, c.loc); err == nil {
			client.LastBookingAt = &last
		}
	}
	return client
}

// mapClientError reports a taken name as models.ErrDuplicate.
func mapClientError(err error) error {
	if db.IsUniqueViolation(err) {
		return errors.Join(models.ErrDuplicate, err)
	}
	return db.MapError(err)
}

func (c *Clients) List(ctx context.Context) ([]models.Client, error) {
	rows, err := c.q.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	clients := make([]models.Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, c.fromRow(row))
	}
	return clients, nil
}

func (c *Clients) Get(ctx context.Context, id int64) (models.Client, error) {
	row, err := c.q.GetClient(ctx, id)
	if err != nil {
		return models.Client{}, db.MapError(err)
	}
	return c.fromRow(row), nil
}

// FindByName matches case-insensitively after collapsing whitespace.
func (c *Clients) FindByName(ctx context.Context, name string) (models.Client, error) {
	row, err := c.q.GetClientByNameKey(ctx, models.ClientNameKey(name))
	if err != nil {
		return models.Client{}, db.MapError(err)
	}
	return c.fromRow(row), nil
}

func (c *Clients) Create(ctx context.Context, client models.Client) (models.Client, error) {
	name := strings.Join(strings.Fields(client.Name), " ")
	if name == "" {
		return models.Client{}, fmt.Errorf("client name is required")
	}
	row, err := c.q.CreateClient(ctx, dbgen.CreateClientParams{
		Name:    name,
		NameKey: models.ClientNameKey(name),
		Phone:   nullString(client.Phone),
		Email:   nullString(client.Email),
	})
	if err != nil {
		return models.Client{}, mapClientError(err)
	}
	return c.fromRow(row), nil
}

func (c *Clients) Update(ctx context.Context, client models.Client) (models.Client, error) {
	name := strings.Join(strings.Fields(client.Name), " ")
	if name == "" {
		return models.Client{}, fmt.Errorf("client name is required")
	}
	row, err := c.q.UpdateClient(ctx, dbgen.UpdateClientParams{
		Name:    name,
		NameKey: models.ClientNameKey(name),
		Phone:   nullString(client.Phone),
		Email:   nullString(client.Email),
		ID:      client.ID,
	})
	if err != nil {
		return models.Client{}, mapClientError(err)
	}
	return c.fromRow(row), nil
}

// UpdateStats overwrites the aggregate snapshot for a client.
func (c *Clients) UpdateStats(ctx context.Context, id int64, stats models.ClientStats) error {
	var last sql.NullString
	if stats.LastBookingAt != nil {
		last = sql.NullString{String: stats.LastBookingAt.In(c.loc).Format(models.ReservationTimeLayout), Valid: true}
	}
	err := c.q.UpdateClientStats(ctx, dbgen.UpdateClientStatsParams{
		TotalBookings:   stats.TotalBookings,
		TotalSpentCents: stats.TotalSpentCents,
		LastBookingAt:   last,
		ID:              id,
	})
	if err != nil {
		return fmt.Errorf("update stats for client %d: %w", id, err)
	}
	return nil
}

func (c *Clients) Delete(ctx context.Context, id int64) error {
	return affected(c.q.DeleteClient(ctx, id))
}
