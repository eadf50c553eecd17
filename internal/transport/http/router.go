// Package http exposes the REST surface: registration, login,
// practitioner discovery and schedules, appointment lifecycle and the
// public stats block.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medagenda/backend/internal/service/accounts"
	"medagenda/backend/internal/service/auth"
	"medagenda/backend/internal/service/booking"
	"medagenda/backend/internal/service/practitioners"
	"medagenda/backend/internal/service/stats"
	"medagenda/backend/internal/store"
	"medagenda/backend/internal/token"
)

type Server struct {
	logger *slog.Logger
	tokens *token.Manager

	accounts      store.AccountRepository
	accountsSvc   *accounts.Service
	authSvc       *auth.Service
	bookingSvc    *booking.Service
	practitioners *practitioners.Service
	statsSvc      *stats.Service
}

type ServerConfig struct {
	Logger *slog.Logger
	Tokens *token.Manager

	Accounts        store.AccountRepository
	AccountsService *accounts.Service
	AuthService     *auth.Service
	BookingService  *booking.Service
	PractitionerSvc *practitioners.Service
	StatsService    *stats.Service
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		logger:        cfg.Logger,
		tokens:        cfg.Tokens,
		accounts:      cfg.Accounts,
		accountsSvc:   cfg.AccountsService,
		authSvc:       cfg.AuthService,
		bookingSvc:    cfg.BookingService,
		practitioners: cfg.PractitionerSvc,
		statsSvc:      cfg.StatsService,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Get("/health", s.handleHealth)
	r.Get("/api/stats", s.handleStats)

	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/patients", s.handleRegisterPatient)
	r.Post("/api/practitioners", s.handleRegisterPractitioner)

	r.Get("/api/practitioners", s.handleSearchPractitioners)
	r.Get("/api/practitioners/{id}", s.handleGetPractitioner)
	r.Get("/api/practitioners/{id}/availability", s.handleAvailability)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(requireKind(auth.KindPractitioner))
			r.Get("/api/practitioners/me/schedule", s.handleGetWorkGrid)
			r.Put("/api/practitioners/me/schedule", s.handleReplaceWorkGrid)
			r.Patch("/api/practitioners/me", s.handleUpdateProfile)
			r.Put("/api/practitioners/me/photo", s.handleSetPhoto)
			r.Delete("/api/practitioners/me/photo", s.handleRemovePhoto)
			r.Get("/api/practitioners/me/patients", s.handleActivePatients)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireKind(auth.KindPatient))
			r.Post("/api/appointments", s.handleBookAppointment)
			r.Get("/api/appointments", s.handleMyAppointments)
			r.Post("/api/appointments/{id}/rating", s.handleRateAppointment)
		})

		r.Post("/api/appointments/{id}/finalize", s.handleFinalizeAppointment)
		r.Post("/api/appointments/{id}/cancel", s.handleCancelAppointment)
	})

	return r
}
