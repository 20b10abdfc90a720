package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/config"
	"github.com/dukerupert/hearth/internal/handler"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/middleware"
	"github.com/dukerupert/hearth/internal/store"
	ws "github.com/dukerupert/hearth/internal/websocket"
)

const (
	validateLimit  = 10
	validateWindow = time.Minute
)

var _ household.Notifier = (*ws.Hub)(nil)

type Server struct {
	db            *sql.DB
	cfg           *config.Config
	hub           *ws.Hub
	svc           *household.Service
	verifier      *auth.Verifier
	userStore     *store.UserStore
	verificationH *handler.VerificationHandler
	householdH    *handler.HouseholdHandler
	listH         *handler.ListHandler
	healthH       *handler.HealthHandler
	rateLimiter   *middleware.RateLimiter
	metrics       *metrics.PrometheusRecorder
	logger        *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, recorder *metrics.PrometheusRecorder, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger)
	svc := household.NewService(db, hub, recorder, logger)
	httpLogger := logger.With("component", "http")
	dev := cfg.IsDevelopment()

	return &Server{
		db:            db,
		cfg:           cfg,
		hub:           hub,
		svc:           svc,
		verifier:      auth.NewVerifier(cfg.IdentityKey, cfg.IdentityIssuer),
		userStore:     store.NewUserStore(db),
		verificationH: handler.NewVerificationHandler(svc, httpLogger, dev),
		householdH:    handler.NewHouseholdHandler(svc, httpLogger, dev),
		listH:         handler.NewListHandler(svc, httpLogger, dev),
		healthH:       handler.NewHealthHandler(db, httpLogger),
		rateLimiter:   middleware.NewRateLimiter(),
		metrics:       recorder,
		logger:        logger,
	}
}

// Service returns the household service for scheduled cleanup.
func (s *Server) Service() *household.Service {
	return s.svc
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the live update hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(s.logger))
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))
	r.Use(middleware.Metrics(s.metrics))
	r.Use(middleware.CORS(s.cfg.CORSOrigin))

	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.healthH.Check)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity(s.verifier, s.userStore, s.logger.With("component", "auth")))

			r.Post("/verification/generate", s.verificationH.Generate)
			r.With(middleware.RateLimit(s.rateLimiter, middleware.ByUser, validateLimit, validateWindow)).
				Post("/verification/validate", s.verificationH.Validate)

			r.Get("/households", s.householdH.List)
			r.Post("/households", s.householdH.Create)
			r.Get("/households/{id}", s.householdH.Get)
			r.Patch("/households/{id}/secret", s.householdH.UpdateSecret)
			r.Delete("/households/{id}/members/me", s.householdH.Leave)

			r.Get("/lists/{listId}/items", s.listH.ListItems)
			r.Post("/lists/{listId}/items", s.listH.CreateItem)
			r.Patch("/list-items/{itemId}", s.listH.SetCompleted)
			r.Put("/lists/items/{itemId}", s.listH.UpdateItem)
			r.Delete("/lists/items/{itemId}", s.listH.DeleteItem)

			r.Get("/ws", ws.HandleWebSocket(s.hub, s.svc, originPatterns(s.cfg.CORSOrigin), s.logger))
		})
	})

	return r
}

// originPatterns turns the configured frontend origin into the host pattern
// the WebSocket accept check expects.
func originPatterns(origin string) []string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
