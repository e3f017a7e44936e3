package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/reservations"
)

const publishTimeout = 3 * time.Second

// JSONPublisher is implemented by *Publisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, messageID string, v any) error
}

// ReservationEvent is the message body consumers receive.
type ReservationEvent struct {
	ID          string             `json:"id"`
	Kind        string             `json:"kind"`
	OccurredAt  time.Time          `json:"occurredAt"`
	Reservation models.Reservation `json:"reservation"`
	Client      *models.Client     `json:"client,omitempty"`
}

func RoutingKey(kind reservations.EventKind) string {
	return "reservation." + string(kind)
}

// Notifier publishes every committed reservation change. Publish failures are
// logged and dropped.
type Notifier struct {
	publisher JSONPublisher
	newID     func() string
}

func NewNotifier(publisher JSONPublisher) *Notifier {
	return &Notifier{
		publisher: publisher,
		newID:     func() string { return uuid.NewString() },
	}
}

func (n *Notifier) Notify(ctx context.Context, event reservations.Event) {
	if n == nil || n.publisher == nil {
		return
	}

	message := ReservationEvent{
		ID:          n.newID(),
		Kind:        string(event.Kind),
		OccurredAt:  event.OccurredAt.UTC(),
		Reservation: event.Reservation,
		Client:      event.Client,
	}
	key := RoutingKey(event.Kind)

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := n.publisher.PublishJSON(publishCtx, key, message.ID, message); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("routing_key", key).
			Int64("reservation_id", event.Reservation.ID).
			Msg("Failed to publish reservation event")
		return
	}
	log.Ctx(ctx).Debug().
		Str("routing_key", key).
		Str("event_id", message.ID).
		Int64("reservation_id", event.Reservation.ID).
		Msg("Published reservation event")
}
