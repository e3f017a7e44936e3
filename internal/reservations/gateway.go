// Package reservations validates and applies reservation mutations against
// the club's reservation set.
package reservations

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/models"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var allowedDurations = map[int]bool{60: true, 90: true, 120: true}

// Store persists reservations. Implementations return records with their
// generated fields filled in.
type Store interface {
	ListReservations(ctx context.Context) ([]models.Reservation, error)
	InsertReservation(ctx context.Context, reservation models.Reservation) (models.Reservation, error)
	UpdateReservation(ctx context.Context, reservation models.Reservation) (models.Reservation, error)
}

type CourtLookup interface {
	GetCourt(ctx context.Context, id int64) (models.Court, error)
}

// ClientDirectory links bookings to client records by name.
type ClientDirectory interface {
	NormalizePhone(raw string) (string, error)
	EnsureClient(ctx context.Context, name, phone, email string) (*models.Client, error)
	Lookup(ctx context.Context, id int64) (*models.Client, error)
}

type EventKind string

const (
	EventCreated   EventKind = "created"
	EventUpdated   EventKind = "updated"
	EventCancelled EventKind = "cancelled"
)

type Event struct {
	Kind        EventKind
	Reservation models.Reservation
	Client      *models.Client
	OccurredAt  time.Time
}

// Notifier is told about committed mutations. It must not block for long and
// has no way to fail the mutation.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Notifiers fans an event out to each notifier in order.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, event Event) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Notify(ctx, event)
		}
	}
}

// Input carries booking fields. On update, zero values and nil pointers keep
// the current value.
type Input struct {
	CourtID         int64
	Date            string
	StartTime       string
	DurationMinutes int
	ClientName      string
	ClientPhone     string
	ClientEmail     string
	PriceCents      *int64
	Paid            *bool
	PaymentMethod   string
	Type            string
	Notes           *string
	CreatedBy       string
}

// BlockInput takes a court slot out of service.
type BlockInput struct {
	CourtID         int64
	Date            string
	StartTime       string
	DurationMinutes int
	Notes           string
	CreatedBy       string
}

type Order string

const (
	OrderAscending  Order = "asc"
	OrderDescending Order = "desc"
)

type Filter struct {
	Date     *time.Time
	Statuses []models.ReservationStatus
	CourtID  int64
	Order    Order
}

type Option func(*Gateway)

func WithClients(directory ClientDirectory) Option {
	return func(g *Gateway) { g.clients = directory }
}

func WithNotifier(notifier Notifier) Option {
	return func(g *Gateway) { g.notifier = notifier }
}

// WithLocation sets the club timezone used to read dates and start times.
func WithLocation(loc *time.Location) Option {
	return func(g *Gateway) {
		if loc != nil {
			g.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// Gateway holds the loaded reservation set and is the only writer to it.
// Every mutation reaches the store before the in-memory set changes.
type Gateway struct {
	store    Store
	courts   CourtLookup
	clients  ClientDirectory
	notifier Notifier
	loc      *time.Location
	now      func() time.Time

	mu     sync.Mutex
	loaded bool
	items  []models.Reservation
}

func NewGateway(store Store, courts CourtLookup, opts ...Option) *Gateway {
	g := &Gateway{
		store:  store,
		courts: courts,
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Location is the club timezone reservations are read in.
func (g *Gateway) Location() *time.Location {
	return g.loc
}

// Load replaces the in-memory set with the store's contents.
func (g *Gateway) Load(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.load(ctx)
}

func (g *Gateway) load(ctx context.Context) error {
	items, err := g.store.ListReservations(ctx)
	if err != nil {
		return &PersistenceError{Op: "load reservations", Err: err}
	}
	sortReservations(items, OrderAscending)
	g.items = items
	g.loaded = true
	return nil
}

func (g *Gateway) ensureLoaded(ctx context.Context) error {
	if g.loaded {
		return nil
	}
	return g.load(ctx)
}

type parsedInput struct {
	date          *time.Time
	clock         *time.Time
	duration      time.Duration
	paymentMethod models.PaymentMethod
	kind          models.ReservationType
	phone         string
}

func (g *Gateway) parseInput(in Input, creating bool) (parsedInput, error) {
	var parsed parsedInput

	if creating && in.CourtID <= 0 {
		return parsed, invalid("court_id", "is required")
	}
	if in.CourtID < 0 {
		return parsed, invalid("court_id", "must be a positive integer")
	}

	if raw := strings.TrimSpace(in.Date); raw != "" {
		date, err := time.ParseInLocation(dateLayout, raw, g.loc)
		if err != nil {
			return parsed, invalid("date", "must be in YYYY-MM-DD format")
		}
		parsed.date = &date
	} else if creating {
		return parsed, invalid("date", "is required")
	}

	if raw := strings.TrimSpace(in.StartTime); raw != "" {
		clock, err := time.Parse(clockLayout, raw)
		if err != nil {
			return parsed, invalid("start_time", "must be in HH:MM format")
		}
		parsed.clock = &clock
	} else if creating {
		return parsed, invalid("start_time", "is required")
	}

	if in.DurationMinutes != 0 || creating {
		if in.DurationMinutes <= 0 {
			return parsed, invalid("duration", "must be positive")
		}
		if !allowedDurations[in.DurationMinutes] {
			return parsed, invalid("duration", "must be 60, 90 or 120 minutes")
		}
		parsed.duration = time.Duration(in.DurationMinutes) * time.Minute
	}

	if creating && strings.TrimSpace(in.ClientName) == "" {
		return parsed, invalid("client_name", "is required")
	}

	if in.PriceCents != nil && *in.PriceCents < 0 {
		return parsed, invalid("price", "must be 0 or greater")
	}

	if strings.TrimSpace(in.PaymentMethod) != "" || creating {
		method, err := models.ParsePaymentMethod(in.PaymentMethod)
		if err != nil {
			return parsed, invalid("payment_method", "is not a known payment method")
		}
		parsed.paymentMethod = method
	}

	if strings.TrimSpace(in.Type) != "" || creating {
		kind, err := models.ParseReservationType(in.Type)
		if err != nil {
			return parsed, invalid("type", "is not a known reservation type")
		}
		parsed.kind = kind
	}

	if phone := strings.TrimSpace(in.ClientPhone); phone != "" && g.clients != nil {
		normalized, err := g.clients.NormalizePhone(phone)
		if err != nil {
			return parsed, invalid("client_phone", "is not a valid phone number")
		}
		parsed.phone = normalized
	}

	return parsed, nil
}

func (g *Gateway) combine(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, g.loc)
}

func (g *Gateway) court(ctx context.Context, id int64) (models.Court, error) {
	court, err := g.courts.GetCourt(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Court{}, invalid("court_id", "does not match a court")
		}
		return models.Court{}, &PersistenceError{Op: "load court", Err: err}
	}
	return court, nil
}

// conflict returns the active reservation holding courtID's slot at start,
// ignoring excludeID.
func (g *Gateway) conflict(courtID int64, start time.Time, excludeID int64) (models.Reservation, bool) {
	key := models.SlotKey(start.In(g.loc))
	for _, existing := range g.items {
		if existing.ID == excludeID || existing.CourtID != courtID || !existing.Active() {
			continue
		}
		if models.SlotKey(existing.Start.In(g.loc)) == key {
			return existing, true
		}
	}
	return models.Reservation{}, false
}

func (g *Gateway) indexOf(id int64) int {
	for i, existing := range g.items {
		if existing.ID == id {
			return i
		}
	}
	return -1
}

func (g *Gateway) resolveClient(ctx context.Context, name, phone, email string) (*models.Client, error) {
	if g.clients == nil || strings.TrimSpace(name) == "" {
		return nil, nil
	}
	client, err := g.clients.EnsureClient(ctx, name, phone, strings.TrimSpace(email))
	if err != nil {
		return nil, &PersistenceError{Op: "save client", Err: err}
	}
	return client, nil
}

// linkClient attaches the roster entry to a stored reservation. It runs after
// the reservation write so a rejected booking never adds a client. A failure
// here leaves the booking unlinked and is only logged.
func (g *Gateway) linkClient(ctx context.Context, record models.Reservation, phone, email string) (models.Reservation, *models.Client) {
	client, err := g.resolveClient(ctx, record.ClientName, phone, email)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("reservation_id", record.ID).Msg("Failed to link client to reservation")
		return record, nil
	}
	if client == nil || (record.ClientID != nil && *record.ClientID == client.ID) {
		return record, client
	}

	linked := record
	clientID := client.ID
	linked.ClientID = &clientID
	stored, err := g.store.UpdateReservation(ctx, linked)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Int64("reservation_id", record.ID).
			Int64("client_id", client.ID).
			Msg("Failed to link client to reservation")
		return record, client
	}
	return stored, client
}

// storeError maps a failed write. A slot rejected by the store means another
// writer got there first, so the set is reloaded to show that booking.
// Callers hold g.mu.
func (g *Gateway) storeError(ctx context.Context, op string, courtID int64, start time.Time, excludeID int64, err error) error {
	if !errors.Is(err, models.ErrSlotTaken) {
		return &PersistenceError{Op: op, Err: err}
	}
	conflict := &ConflictError{CourtID: courtID, Start: start}
	if loadErr := g.load(ctx); loadErr != nil {
		log.Ctx(ctx).Error().Err(loadErr).Msg("Failed to reload reservations after store conflict")
		return conflict
	}
	if existing, ok := g.conflict(courtID, start, excludeID); ok {
		conflict.ExistingID = existing.ID
	}
	return conflict
}

// Create books a slot. The result is confirmed and unpaid.
func (g *Gateway) Create(ctx context.Context, in Input) (models.Reservation, error) {
	parsed, err := g.parseInput(in, true)
	if err != nil {
		return models.Reservation{}, err
	}

	created, client, err := g.create(ctx, in, parsed)
	if err != nil {
		return models.Reservation{}, err
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", created.ID).
		Int64("court_id", created.CourtID).
		Str("start", created.Start.Format(models.ReservationTimeLayout)).
		Msg("Reservation created")
	g.notify(ctx, EventCreated, created, client)
	return created, nil
}

func (g *Gateway) create(ctx context.Context, in Input, parsed parsedInput) (models.Reservation, *models.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ensureLoaded(ctx); err != nil {
		return models.Reservation{}, nil, err
	}

	court, err := g.court(ctx, in.CourtID)
	if err != nil {
		return models.Reservation{}, nil, err
	}
	start := court.StartRounding.Apply(g.combine(*parsed.date, *parsed.clock))
	if existing, ok := g.conflict(court.ID, start, 0); ok {
		return models.Reservation{}, nil, &ConflictError{CourtID: court.ID, Start: start, ExistingID: existing.ID}
	}

	record := models.Reservation{
		CourtID:       court.ID,
		ClientName:    strings.TrimSpace(in.ClientName),
		Start:         start,
		End:           start.Add(parsed.duration),
		Status:        models.StatusConfirmed,
		Paid:          false,
		CreatedBy:     strings.TrimSpace(in.CreatedBy),
		PaymentMethod: parsed.paymentMethod,
		Type:          parsed.kind,
	}
	if in.PriceCents != nil {
		record.PriceCents = *in.PriceCents
	}
	if in.Notes != nil {
		record.Notes = strings.TrimSpace(*in.Notes)
	}

	created, err := g.store.InsertReservation(ctx, record)
	if err != nil {
		return models.Reservation{}, nil, g.storeError(ctx, "insert reservation", court.ID, start, 0, err)
	}
	created, client := g.linkClient(ctx, created, parsed.phone, in.ClientEmail)

	g.items = append(g.items, created)
	sortReservations(g.items, OrderAscending)
	return created, client, nil
}

// Block takes a slot out of service. Blocked slots carry no client or price.
func (g *Gateway) Block(ctx context.Context, in BlockInput) (models.Reservation, error) {
	parsed, err := g.parseInput(Input{
		CourtID:         in.CourtID,
		Date:            in.Date,
		StartTime:       in.StartTime,
		DurationMinutes: in.DurationMinutes,
		ClientName:      "blocked",
	}, true)
	if err != nil {
		return models.Reservation{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ensureLoaded(ctx); err != nil {
		return models.Reservation{}, err
	}
	court, err := g.court(ctx, in.CourtID)
	if err != nil {
		return models.Reservation{}, err
	}
	start := court.StartRounding.Apply(g.combine(*parsed.date, *parsed.clock))
	if existing, ok := g.conflict(court.ID, start, 0); ok {
		return models.Reservation{}, &ConflictError{CourtID: court.ID, Start: start, ExistingID: existing.ID}
	}

	record := models.Reservation{
		CourtID:       court.ID,
		Start:         start,
		End:           start.Add(parsed.duration),
		Status:        models.StatusBlocked,
		CreatedBy:     strings.TrimSpace(in.CreatedBy),
		PaymentMethod: models.PaymentCash,
		Type:          models.TypeOther,
		Notes:         strings.TrimSpace(in.Notes),
	}
	created, err := g.store.InsertReservation(ctx, record)
	if err != nil {
		return models.Reservation{}, g.storeError(ctx, "insert block", court.ID, start, 0, err)
	}

	g.items = append(g.items, created)
	sortReservations(g.items, OrderAscending)
	log.Ctx(ctx).Info().
		Int64("reservation_id", created.ID).
		Int64("court_id", created.CourtID).
		Msg("Court slot blocked")
	return created, nil
}

// Update changes the mutable fields of a reservation that is not cancelled.
// The status never changes here; end is recomputed from the duration.
func (g *Gateway) Update(ctx context.Context, id int64, in Input) (models.Reservation, error) {
	parsed, err := g.parseInput(in, false)
	if err != nil {
		return models.Reservation{}, err
	}

	updated, client, err := g.update(ctx, id, in, parsed)
	if err != nil {
		return models.Reservation{}, err
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", updated.ID).
		Int64("court_id", updated.CourtID).
		Msg("Reservation updated")
	g.notify(ctx, EventUpdated, updated, client)
	return updated, nil
}

func (g *Gateway) update(ctx context.Context, id int64, in Input, parsed parsedInput) (models.Reservation, *models.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ensureLoaded(ctx); err != nil {
		return models.Reservation{}, nil, err
	}

	idx := g.indexOf(id)
	if idx < 0 {
		return models.Reservation{}, nil, ErrNotFound
	}
	current := g.items[idx]
	if current.Status == models.StatusCancelled {
		return models.Reservation{}, nil, &InvalidStateError{ID: id, Status: current.Status, Op: "update"}
	}

	next := current

	courtID := current.CourtID
	if in.CourtID != 0 {
		courtID = in.CourtID
	}
	timingChanged := courtID != current.CourtID || parsed.date != nil || parsed.clock != nil || parsed.duration != 0
	if timingChanged {
		court, err := g.court(ctx, courtID)
		if err != nil {
			return models.Reservation{}, nil, err
		}
		currentStart := current.Start.In(g.loc)
		date, clock := currentStart, currentStart
		if parsed.date != nil {
			date = *parsed.date
		}
		if parsed.clock != nil {
			clock = *parsed.clock
		}
		duration := current.Duration()
		if parsed.duration != 0 {
			duration = parsed.duration
		}

		start := court.StartRounding.Apply(g.combine(date, clock))
		if existing, ok := g.conflict(court.ID, start, id); ok {
			return models.Reservation{}, nil, &ConflictError{CourtID: court.ID, Start: start, ExistingID: existing.ID}
		}
		next.CourtID = court.ID
		next.Start = start
		next.End = start.Add(duration)
	}

	name := strings.TrimSpace(in.ClientName)
	if name != "" && current.Status != models.StatusBlocked {
		next.ClientName = name
	}
	relink := next.Status != models.StatusBlocked &&
		(name != "" || parsed.phone != "" || strings.TrimSpace(in.ClientEmail) != "")

	if in.PriceCents != nil && next.Status != models.StatusBlocked {
		next.PriceCents = *in.PriceCents
	}
	if in.Paid != nil {
		next.Paid = *in.Paid
	}
	if parsed.paymentMethod != "" {
		next.PaymentMethod = parsed.paymentMethod
	}
	if parsed.kind != "" {
		next.Type = parsed.kind
	}
	if in.Notes != nil {
		next.Notes = strings.TrimSpace(*in.Notes)
	}

	updated, err := g.store.UpdateReservation(ctx, next)
	if err != nil {
		return models.Reservation{}, nil, g.storeError(ctx, "update reservation", next.CourtID, next.Start, id, err)
	}
	var client *models.Client
	if relink {
		updated, client = g.linkClient(ctx, updated, parsed.phone, in.ClientEmail)
	}

	g.items[idx] = updated
	sortReservations(g.items, OrderAscending)
	return updated, client, nil
}

// Cancel moves a reservation to cancelled with the given reason. Cancelling is
// terminal; a second call fails and leaves the stored reason alone.
func (g *Gateway) Cancel(ctx context.Context, id int64, reason string) (models.Reservation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Reservation{}, invalid("reason", "is required")
	}

	cancelled, err := g.cancel(ctx, id, reason)
	if err != nil {
		return models.Reservation{}, err
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", cancelled.ID).
		Str("reason", cancelled.CancelReason).
		Msg("Reservation cancelled")

	var client *models.Client
	if cancelled.ClientID != nil && g.clients != nil {
		found, err := g.clients.Lookup(ctx, *cancelled.ClientID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("client_id", *cancelled.ClientID).Msg("Failed to load client for cancellation notice")
		} else {
			client = found
		}
	}
	g.notify(ctx, EventCancelled, cancelled, client)
	return cancelled, nil
}

func (g *Gateway) cancel(ctx context.Context, id int64, reason string) (models.Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ensureLoaded(ctx); err != nil {
		return models.Reservation{}, err
	}

	idx := g.indexOf(id)
	if idx < 0 {
		return models.Reservation{}, ErrNotFound
	}
	current := g.items[idx]
	if current.Status == models.StatusCancelled {
		return models.Reservation{}, &InvalidStateError{ID: id, Status: current.Status, Op: "cancel"}
	}

	next := current
	next.Status = models.StatusCancelled
	next.CancelReason = reason

	updated, err := g.store.UpdateReservation(ctx, next)
	if err != nil {
		return models.Reservation{}, &PersistenceError{Op: "cancel reservation", Err: err}
	}
	g.items[idx] = updated
	return updated, nil
}

// Get returns a copy of the reservation with id.
func (g *Gateway) Get(ctx context.Context, id int64) (models.Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ensureLoaded(ctx); err != nil {
		return models.Reservation{}, err
	}
	idx := g.indexOf(id)
	if idx < 0 {
		return models.Reservation{}, ErrNotFound
	}
	return g.items[idx], nil
}

// List returns reservations matching filter, ascending by start for calendar
// use or descending for history. Ties break on id.
func (g *Gateway) List(ctx context.Context, filter Filter) ([]models.Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	var statuses map[models.ReservationStatus]bool
	if len(filter.Statuses) > 0 {
		statuses = make(map[models.ReservationStatus]bool, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses[status] = true
		}
	}

	var day time.Time
	if filter.Date != nil {
		d := filter.Date.In(g.loc)
		day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, g.loc)
	}

	result := make([]models.Reservation, 0, len(g.items))
	for _, reservation := range g.items {
		if filter.CourtID != 0 && reservation.CourtID != filter.CourtID {
			continue
		}
		if statuses != nil && !statuses[reservation.Status] {
			continue
		}
		if filter.Date != nil && !models.SameDate(day, reservation.Start) {
			continue
		}
		result = append(result, reservation)
	}

	order := filter.Order
	if order == "" {
		order = OrderAscending
	}
	sortReservations(result, order)
	return result, nil
}

func (g *Gateway) notify(ctx context.Context, kind EventKind, reservation models.Reservation, client *models.Client) {
	if g.notifier == nil {
		return
	}
	g.notifier.Notify(ctx, Event{
		Kind:        kind,
		Reservation: reservation,
		Client:      client,
		OccurredAt:  g.now(),
	})
}

func sortReservations(items []models.Reservation, order Order) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Start.Equal(b.Start) {
			if order == OrderDescending {
				return a.Start.After(b.Start)
			}
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})
}
