// Package router assembles the HTTP API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/craftrealm/realm-api/internal/account"
	"github.com/craftrealm/realm-api/internal/apierr"
	"github.com/craftrealm/realm-api/internal/auth"
	"github.com/craftrealm/realm-api/internal/faction"
	"github.com/craftrealm/realm-api/internal/metrics"
	"github.com/craftrealm/realm-api/internal/middleware"
	"github.com/craftrealm/realm-api/internal/shop"
)

// Deps are the services and settings the router wires together.
type Deps struct {
	Auth        *auth.Service
	Account     *account.Service
	Shop        *shop.Service
	Faction     *faction.Service
	RateLimiter *middleware.RateLimiter
	Origins     []string
	Log         logrus.FieldLogger
}

// New builds the chi router with every route and middleware.
func New(d Deps) http.Handler {
	authHandler := auth.NewHandler(d.Auth)
	accountHandler := account.NewHandler(d.Account)
	shopHandler := shop.NewHandler(d.Shop)
	factionHandler := faction.NewHandler(d.Faction)
	requireAuth := middleware.RequireAuth(d.Auth)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.Origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.NotFound(apierr.NotFound)
	r.MethodNotAllowed(apierr.MethodNotAllowed)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.RateLimiter != nil {
				r.Use(d.RateLimiter.Handler)
			}
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.With(requireAuth).Get("/me", accountHandler.Me)
		r.With(requireAuth).Put("/me", accountHandler.UpdateMe)

		r.Get("/shop", shopHandler.List)
		r.With(requireAuth).Post("/shop/buy/{id}", shopHandler.Buy)
		r.With(requireAuth).Get("/shop/inventory", shopHandler.Inventory)

		r.Get("/factions", factionHandler.List)
		r.With(requireAuth).Post("/faction", factionHandler.Create)
		r.With(requireAuth).Post("/faction/join/{id}", factionHandler.Join)
		r.With(requireAuth).Delete("/faction/{id}", factionHandler.Dissolve)
	})

	return r
}
