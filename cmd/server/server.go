// cmd/server/server.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api"
	apiauth "github.com/codr1/Courtside/internal/api/auth"
	apicalendar "github.com/codr1/Courtside/internal/api/calendar"
	apiclients "github.com/codr1/Courtside/internal/api/clients"
	"github.com/codr1/Courtside/internal/api/courts"
	"github.com/codr1/Courtside/internal/api/dashboard"
	"github.com/codr1/Courtside/internal/api/operatinghours"
	"github.com/codr1/Courtside/internal/api/products"
	apireservations "github.com/codr1/Courtside/internal/api/reservations"
	apistaff "github.com/codr1/Courtside/internal/api/staff"
	authn "github.com/codr1/Courtside/internal/auth"
	"github.com/codr1/Courtside/internal/calendar"
	"github.com/codr1/Courtside/internal/clients"
	"github.com/codr1/Courtside/internal/cognito"
	"github.com/codr1/Courtside/internal/config"
	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/email"
	"github.com/codr1/Courtside/internal/events"
	"github.com/codr1/Courtside/internal/ratelimit"
	"github.com/codr1/Courtside/internal/repository"
	"github.com/codr1/Courtside/internal/reservations"
	"github.com/codr1/Courtside/internal/schedule"
	"github.com/codr1/Courtside/internal/scheduler"
)

const (
	startupTimeout    = 30 * time.Second
	redisCounterScope = "courtside:ratelimit:"
)

// app owns everything main starts and must stop.
type app struct {
	server    *http.Server
	scheduler *scheduler.Service
	emails    *email.Notifier
	closers   []func()
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	if a.scheduler != nil {
		if err := a.scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
	}
	if a.emails != nil {
		a.emails.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	a := &app{}
	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return fail(fmt.Errorf("open database: %w", err))
	}
	a.closers = append(a.closers, func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	})

	loc := cfg.Location()
	locale := cfg.Locale()
	repos := repository.New(database, loc, locale)
	directory := clients.NewDirectory(repos.Clients, repos.Reservations, cfg.Clients.PhoneRegion)

	notifiers := reservations.Notifiers{}
	if cfg.Email.Enabled {
		ses, err := email.NewSESClient(ctx, cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			return fail(fmt.Errorf("create SES client: %w", err))
		}
		a.emails = email.NewNotifier(ses, repos.Courts, cfg.Club.Name, loc)
		notifiers = append(notifiers, a.emails)
		log.Info().Str("sender", cfg.Email.Sender).Msg("Booking emails enabled")
	}
	if cfg.Events.Enabled {
		publisher, err := events.NewPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			// Events are best effort; bookings keep working without the broker.
			log.Error().Err(err).Msg("Failed to connect event publisher, reservation events disabled")
		} else {
			notifiers = append(notifiers, events.NewNotifier(publisher))
			a.closers = append(a.closers, func() {
				if err := publisher.Close(); err != nil {
					log.Error().Err(err).Msg("Failed to close event publisher")
				}
			})
			log.Info().Str("exchange", cfg.Events.Exchange).Msg("Reservation events enabled")
		}
	}

	gateway := reservations.NewGateway(repos.Reservations, repos.Courts,
		reservations.WithClients(directory),
		reservations.WithNotifier(notifiers),
		reservations.WithLocation(loc),
	)
	if err := gateway.Load(ctx); err != nil {
		return fail(fmt.Errorf("load reservations: %w", err))
	}

	if err := scheduler.Init(); err != nil {
		return fail(fmt.Errorf("init scheduler: %w", err))
	}
	svc, err := scheduler.ServiceInstance()
	if err != nil {
		return fail(err)
	}
	a.scheduler = svc
	if err := scheduler.RegisterClientAggregateJob(svc, directory, cfg.Clients.AggregateCron); err != nil {
		return fail(fmt.Errorf("schedule client aggregates: %w", err))
	}

	provider, err := newAuthProvider(ctx, cfg, repos)
	if err != nil {
		return fail(err)
	}
	if closer, ok := provider.(interface{ Close() }); ok {
		a.closers = append(a.closers, closer.Close)
	}
	provider.OnSessionChange(func(change authn.Change) {
		log.Info().
			Str("user_id", change.User.ID).
			Str("change", string(change.Kind)).
			Msg("Staff session changed")
	})

	counter, closeCounter := newAttemptCounter(ctx, cfg)
	a.closers = append(a.closers, closeCounter)
	limiter := ratelimit.New(&ratelimit.Config{
		MaxAttemptsPerEmail: cfg.Auth.MaxAttemptsPerEmail,
		Lockout:             cfg.Auth.Lockout,
		MaxAttemptsPerIP:    cfg.Auth.MaxAttemptsPerIP,
		IPWindow:            cfg.Auth.IPWindow,
	}, counter)

	resolver := schedule.NewResolver(locale)
	builder := calendar.NewBuilder(resolver, calendar.SystemClock, cfg.Calendar.StartHour, cfg.Calendar.EndHour)

	apiauth.InitHandlers(provider, limiter, apiauth.Options{
		SecureCookies: !cfg.IsDevelopment(),
		TrustProxy:    !cfg.IsDevelopment(),
	})
	apireservations.InitHandlers(gateway)
	apicalendar.InitHandlers(apicalendar.Deps{
		Builder:      builder,
		Live:         calendar.NewLiveFeed(builder, svc, cfg.Calendar.LiveRefresh),
		Courts:       repos.Courts,
		Schedule:     repos.Schedule,
		Reservations: gateway,
	})
	operatinghours.InitHandlers(repos.Schedule, locale)
	courts.InitHandlers(repos.Courts)
	apiclients.InitHandlers(directory)
	apistaff.InitHandlers(repos.Staff)
	products.InitHandlers(repos.Products)
	dashboard.InitHandlers(dashboard.Deps{
		Courts:       repos.Courts,
		Schedule:     repos.Schedule,
		Reservations: repos.Reservations,
		Resolver:     resolver,
		Location:     loc,
	})

	svc.Start()
	a.server = newServer(cfg, provider)
	return a, nil
}

func newAuthProvider(ctx context.Context, cfg *config.Config, repos *repository.Repositories) (authn.Provider, error) {
	switch cfg.Auth.Provider {
	case config.AuthProviderCognito:
		client, err := cognito.NewClient(ctx, cfg.Auth.Cognito.PoolID, cfg.Auth.Cognito.ClientID)
		if err != nil {
			return nil, fmt.Errorf("create cognito client: %w", err)
		}
		log.Info().Str("pool_id", cfg.Auth.Cognito.PoolID).Msg("Using Cognito staff sign-in")
		return authn.NewCognitoProvider(client), nil
	default:
		provider, err := authn.NewLocalProvider(repos.Staff, cfg.App.SecretKey, authn.WithSessionTTL(cfg.Auth.SessionTTL))
		if err != nil {
			return nil, fmt.Errorf("create local auth provider: %w", err)
		}
		return provider, nil
	}
}

// newAttemptCounter prefers Redis so lockouts hold across instances and
// falls back to process memory when Redis is not configured or unreachable.
func newAttemptCounter(ctx context.Context, cfg *config.Config) (ratelimit.Counter, func()) {
	if cfg.Redis.Addr != "" {
		client, err := ratelimit.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err == nil {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Sign-in attempts tracked in Redis")
			return ratelimit.NewRedisCounter(client, redisCounterScope), func() {
				if err := client.Close(); err != nil {
					log.Error().Err(err).Msg("Failed to close Redis client")
				}
			}
		}
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, tracking sign-in attempts in memory")
	}
	counter := ratelimit.NewMemoryCounter(nil)
	return counter, counter.Close
}

func newServer(cfg *config.Config, provider authn.Provider) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	// Register routes
	registerRoutes(router, cfg, api.WithStaffAuth(provider))

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config, requireStaff api.Middleware) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/auth/sign-in", apiauth.HandleSignIn)

	// Everything else under /api/v1 needs a staff session.
	staff := http.NewServeMux()
	mux.Handle("/api/v1/", requireStaff(staff))

	staff.HandleFunc("POST /api/v1/auth/sign-out", apiauth.HandleSignOut)
	staff.HandleFunc("GET /api/v1/auth/session", apiauth.HandleSession)
	staff.HandleFunc("PUT /api/v1/auth/password", apiauth.HandleUpdatePassword)

	staff.HandleFunc("GET /api/v1/calendar", apicalendar.HandleCalendar)
	if cfg.Features.LiveUpdates {
		staff.HandleFunc("GET /api/v1/calendar/live", apicalendar.HandleCalendarLive)
	}

	staff.HandleFunc("GET /api/v1/reservations", apireservations.HandleReservationList)
	staff.HandleFunc("POST /api/v1/reservations", apireservations.HandleReservationCreate)
	staff.HandleFunc("POST /api/v1/reservations/blocks", apireservations.HandleBlockCreate)
	staff.HandleFunc("GET /api/v1/reservations/{id}", apireservations.HandleReservationGet)
	staff.HandleFunc("PUT /api/v1/reservations/{id}", apireservations.HandleReservationUpdate)
	staff.HandleFunc("POST /api/v1/reservations/{id}/cancel", apireservations.HandleReservationCancel)

	staff.HandleFunc("GET /api/v1/schedule", operatinghours.HandleScheduleGet)
	staff.HandleFunc("PUT /api/v1/schedule/{day}", operatinghours.HandleScheduleUpdate)
	staff.HandleFunc("DELETE /api/v1/schedule/{day}", operatinghours.HandleScheduleDelete)

	staff.HandleFunc("GET /api/v1/courts", courts.HandleCourtList)
	staff.HandleFunc("POST /api/v1/courts", courts.HandleCourtCreate)
	staff.HandleFunc("PUT /api/v1/courts/{id}", courts.HandleCourtUpdate)
	staff.HandleFunc("DELETE /api/v1/courts/{id}", courts.HandleCourtDelete)

	staff.HandleFunc("GET /api/v1/clients", apiclients.HandleClientList)
	staff.HandleFunc("POST /api/v1/clients", apiclients.HandleClientCreate)
	staff.HandleFunc("PUT /api/v1/clients/{id}", apiclients.HandleClientUpdate)

	staff.HandleFunc("GET /api/v1/products", products.HandleProductList)
	staff.HandleFunc("POST /api/v1/products", products.HandleProductCreate)
	staff.HandleFunc("PUT /api/v1/products/{id}", products.HandleProductUpdate)
	staff.HandleFunc("DELETE /api/v1/products/{id}", products.HandleProductDelete)

	staff.HandleFunc("GET /api/v1/analytics", dashboard.HandleAnalytics)

	// Cognito manages its own user pool.
	if cfg.Auth.Provider == config.AuthProviderLocal {
		staff.HandleFunc("GET /api/v1/staff", apistaff.HandleStaffList)
		staff.HandleFunc("POST /api/v1/staff", apistaff.HandleStaffCreate)
		staff.HandleFunc("DELETE /api/v1/staff/{id}", apistaff.HandleStaffDelete)
	}
}
