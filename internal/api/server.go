// Package api wires the HTTP surface: routing, middleware and handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"offerwall.api/internal/config"
	"offerwall.api/internal/earn"
	"offerwall.api/internal/offers"
	"offerwall.api/internal/store"
)

type Server struct {
	store   *store.Store
	earn    *earn.Processor
	feed    *offers.Client
	cfg     config.Config
	log     zerolog.Logger
	limiter *ipLimiter
}

func NewServer(st *store.Store, proc *earn.Processor, feed *offers.Client, cfg config.Config, log zerolog.Logger) *Server {
	return &Server{
		store:   st,
		earn:    proc,
		feed:    feed,
		cfg:     cfg,
		log:     log,
		limiter: newIPLimiter(cfg.RateLimitPerMinute),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.collectMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(s.rateLimit)

	r.Get("/", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/make-admin", s.handleMakeAdmin)
	})

	r.With(s.requireAuth).Get("/me", s.handleMe)

	// The catalog alias keeps ad-block filters away from /offers.
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/offers", s.handleOffers)
		r.Get("/api/catalog", s.handleOffers)
	})

	r.Get("/rewards", s.handleListRewards)

	r.Route("/referrals", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/stats", s.handleReferralStats)
		r.Get("/latest", s.handleLatestReferred)
		r.Post("/signup-bonus", s.handleSignupBonus)
	})

	r.Route("/withdrawals", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/", s.handleCreateWithdrawal)
		r.Get("/", s.handleListOwnWithdrawals)
	})

	r.Get("/postbacks/network", s.handleNetworkPostback)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAuth, s.requireAdmin)

		r.Get("/users", s.handleAdminListUsers)
		r.Patch("/users/{id}", s.handleAdminOverrideUser)
		r.Post("/users/{id}/points", s.handleAdminAdjustPoints)
		r.Post("/users/{id}/zero", s.handleAdminZeroPoints)
		r.Post("/users/{id}/ban", s.handleAdminBan)
		r.Post("/users/{id}/unban", s.handleAdminUnban)

		r.Get("/withdrawals", s.handleAdminListWithdrawals)
		r.Patch("/withdrawals/{id}", s.handleAdminModerateWithdrawal)

		r.Get("/transactions", s.handleAdminListTransactions)

		r.Get("/rewards", s.handleAdminListRewards)
		r.Post("/rewards", s.handleAdminCreateReward)
		r.Patch("/rewards/{id}", s.handleAdminUpdateReward)
		r.Delete("/rewards/{id}", s.handleAdminDeleteReward)

		r.Get("/settings", s.handleAdminGetSettings)
		r.Patch("/settings", s.handleAdminUpdateSettings)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
