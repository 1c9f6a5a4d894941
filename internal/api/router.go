package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meetflow/meetflow/internal/auth"
	"github.com/meetflow/meetflow/internal/calendar"
	"github.com/meetflow/meetflow/internal/scheduling"
)

type RouterConfig struct {
	Resolver   *scheduling.Resolver
	Bookings   *scheduling.BookingService
	Rules      *scheduling.RuleService
	EventTypes *scheduling.EventTypeService
	Auth       *auth.Service
	Google     *calendar.GoogleGateway
	PgPool     *pgxpool.Pool
	Redis      *redis.Client
	Env        string
	Version    string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Auth
	r.Post("/auth/register", registerHandler(cfg.Auth))
	r.Post("/auth/login", loginHandler(cfg.Auth))

	// Public booking pages: no auth by design
	r.Get("/public/{username}/{slug}/slots", getSlotsHandler(cfg.Resolver))
	r.Post("/public/{username}/{slug}/bookings", createPublicBookingHandler(cfg.Bookings))

	// Google redirects the browser here after consent
	r.Get("/oauth/google/callback", googleCallbackHandler(cfg.Google))

	// Owner endpoints
	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Auth))

		r.Get("/availability", listRulesHandler(cfg.Rules))
		r.Post("/availability", createRuleHandler(cfg.Rules))
		r.Put("/availability", replaceRulesHandler(cfg.Rules))
		r.Delete("/availability/{id}", deleteRuleHandler(cfg.Rules))

		r.Get("/event-types", listEventTypesHandler(cfg.EventTypes))
		r.Post("/event-types", createEventTypeHandler(cfg.EventTypes))
		r.Get("/event-types/{id}", getEventTypeHandler(cfg.EventTypes))
		r.Patch("/event-types/{id}", updateEventTypeHandler(cfg.EventTypes))
		r.Delete("/event-types/{id}", deleteEventTypeHandler(cfg.EventTypes))

		r.Get("/bookings", listBookingsHandler(cfg.Bookings))
		r.Get("/bookings/{id}", getBookingHandler(cfg.Bookings))
		r.Delete("/bookings/{id}", cancelBookingHandler(cfg.Bookings))

		r.Get("/integrations/google/auth-url", googleAuthURLHandler(cfg.Google))
		r.Get("/integrations/google/status", googleStatusHandler(cfg.Google))
		r.Get("/integrations/google/busy", googleBusyHandler(cfg.Google))
		r.Delete("/integrations/google", googleDisconnectHandler(cfg.Google))
	})

	return r
}
