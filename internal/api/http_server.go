package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"courtbook/internal/config"
	"courtbook/internal/domain"
	"courtbook/internal/export"
	"courtbook/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTPServer serves the reservation API to the web front end.
type HTTPServer struct {
	cfg      config.APIConfig
	bookings *service.BookingService
	exporter *export.Exporter
	auth     domain.AuthProvider
	db       Pinger
	validate *validator.Validate
	limiter  *rateLimiter
	logger   *zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(
	cfg config.APIConfig,
	bookings *service.BookingService,
	exporter *export.Exporter,
	authProvider domain.AuthProvider,
	db Pinger,
	logger *zerolog.Logger,
) *HTTPServer {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "http").Logger()
	}

	srv := &HTTPServer{
		cfg:      cfg,
		bookings: bookings,
		exporter: exporter,
		auth:     authProvider,
		db:       db,
		validate: validator.New(),
		limiter:  newRateLimiter(cfg.RateLimit),
		logger:   &l,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	return srv
}

func (s *HTTPServer) routes() http.Handler {
	router := chi.NewRouter()

	router.Use(s.accessLog)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           s.cfg.CORS.MaxAge,
	}))
	router.Use(s.limiter.Middleware)

	router.Get("/healthz", s.handleHealthz)
	router.Get("/dates", s.handleDates)

	router.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/verify-token", s.handleVerifyToken)
		r.Get("/reservations/{date}", s.handleListReservations)
		r.Get("/availability/{date}", s.handleAvailability)
		r.Post("/reservation", s.handleCreateReservation)
		r.Get("/reservation/{id}", s.handleGetReservation)
		r.Delete("/reservation/{id}", s.handleCancelReservation)
		r.Get("/admin/reservations/export", s.handleExport)
	})

	return router
}

// Handler exposes the router for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
