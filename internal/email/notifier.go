package email

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/reservations"
)

const sendTimeout = 10 * time.Second

type CourtLookup interface {
	GetCourt(ctx context.Context, id int64) (models.Court, error)
}

// Notifier emails the client about committed reservation changes when the
// client has an email address on file. Sends run in the background.
type Notifier struct {
	sender   EmailSender
	courts   CourtLookup
	clubName string
	loc      *time.Location
	timeout  time.Duration

	wg sync.WaitGroup
}

func NewNotifier(sender EmailSender, courts CourtLookup, clubName string, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.Local
	}
	return &Notifier{
		sender:   sender,
		courts:   courts,
		clubName: clubName,
		loc:      loc,
		timeout:  sendTimeout,
	}
}

func newEmailContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	// Detach cancellation so handler-scoped contexts don't abort async sends.
	parent = context.WithoutCancel(parent)
	return context.WithTimeout(parent, timeout)
}

func (n *Notifier) Notify(ctx context.Context, event reservations.Event) {
	if n == nil || n.sender == nil {
		return
	}
	if event.Client == nil || event.Reservation.Status == models.StatusBlocked {
		return
	}
	recipient := strings.TrimSpace(event.Client.Email)
	if recipient == "" {
		return
	}

	details := n.details(ctx, event)
	var message Message
	switch event.Kind {
	case reservations.EventCreated:
		message = BuildConfirmationEmail(details)
	case reservations.EventUpdated:
		message = BuildUpdateEmail(details)
	case reservations.EventCancelled:
		message = BuildCancellationEmail(details, event.Reservation.CancelReason)
	default:
		return
	}

	reservationID := event.Reservation.ID
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := newEmailContext(ctx, n.timeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, recipient, message); err != nil {
			log.Ctx(sendCtx).Error().
				Err(err).
				Int64("reservation_id", reservationID).
				Str("kind", string(event.Kind)).
				Msg("Failed to send reservation email")
		}
	}()
}

func (n *Notifier) details(ctx context.Context, event reservations.Event) ReservationDetails {
	reservation := event.Reservation
	date, timeRange := FormatDateTimeRange(reservation.Start.In(n.loc), reservation.End.In(n.loc))

	courtName := ""
	if n.courts != nil {
		court, err := n.courts.GetCourt(ctx, reservation.CourtID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("court_id", reservation.CourtID).Msg("Failed to load court for reservation email")
		} else {
			courtName = court.Name
		}
	}

	details := ReservationDetails{
		ClubName:   n.clubName,
		ClientName: reservation.ClientName,
		Court:      courtName,
		Date:       date,
		TimeRange:  timeRange,
		Notes:      reservation.Notes,
	}
	if reservation.PriceCents > 0 {
		details.Price = FormatPrice(reservation.PriceCents)
	}
	return details
}

// Wait blocks until in-flight sends finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
