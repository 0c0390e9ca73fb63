package server

import (
	"net/http"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/handlers"
	"github.com/avantlehq/core-avantle-ai/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Partners *handlers.PartnerHandler
	Tenants  *handlers.TenantHandler
	Plans    *handlers.PlanHandler
	Domains  *handlers.DomainHandler
	Usage    *handlers.UsageHandler
	Admin    *handlers.AdminHandler
	System   *handlers.SystemHandler
}

// Options configures the router's outer middleware
type Options struct {
	CORS           cors.Options
	MetricsHandler http.Handler               // nil disables /metrics
	Requests       middleware.RequestObserver // nil disables request metrics
}

// NewRouter mounts every route behind the authorization middleware
func NewRouter(engine *authz.Engine, h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	if opts.Requests != nil {
		r.Use(middleware.Metrics(opts.Requests))
	}
	r.Use(chimiddleware.Compress(5))
	r.Use(cors.Handler(opts.CORS))
	r.Use(middleware.Authorize(engine))

	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}
	r.Get("/docs", handlers.NewDocsHandler(r, engine).Index)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Auth.Login)
		r.Post("/token", h.Auth.Token)
		r.Get("/me", h.Auth.Me)
		r.Post("/refresh", h.Auth.Refresh)
	})

	r.Route("/partners", func(r chi.Router) {
		r.Get("/", h.Partners.List)
		r.Post("/", h.Partners.Create)
		r.Get("/{id}", h.Partners.Get)
		r.Put("/{id}", h.Partners.Update)
		r.Patch("/{id}/status", h.Partners.UpdateStatus)
		r.Delete("/{id}", h.Partners.Delete)
	})

	r.Route("/tenants", func(r chi.Router) {
		r.Get("/", h.Tenants.List)
		r.Post("/", h.Tenants.Create)
		r.Get("/{id}", h.Tenants.Get)
		r.Put("/{id}", h.Tenants.Update)
		r.Delete("/{id}", h.Tenants.Delete)
		r.Patch("/{id}/status", h.Tenants.UpdateStatus)
		r.Put("/{id}/plan", h.Tenants.AssignPlan)
		r.Get("/{id}/members", h.Tenants.ListMembers)
		r.Post("/{id}/members", h.Tenants.AddMember)
		r.Delete("/{id}/members/{userID}", h.Tenants.RemoveMember)
		r.Post("/{id}/clients", h.Tenants.CreateClient)
	})

	r.Route("/plans", func(r chi.Router) {
		r.Get("/", h.Plans.List)
		r.Post("/", h.Plans.Create)
		r.Get("/{id}", h.Plans.Get)
		r.Put("/{id}", h.Plans.Update)
	})

	r.Route("/domains", func(r chi.Router) {
		r.Get("/", h.Domains.List)
		r.Post("/", h.Domains.Create)
		r.Get("/resolve/{hostname}", h.Domains.Resolve)
		r.Get("/{id}", h.Domains.Get)
		r.Delete("/{id}", h.Domains.Delete)
		r.Post("/{id}/verify", h.Domains.Verify)
	})

	r.Route("/usage/tenants/{id}", func(r chi.Router) {
		r.Get("/", h.Usage.Summary)
		r.Get("/records", h.Usage.Records)
		r.Post("/records", h.Usage.Record)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/dashboard", h.Admin.Dashboard)
		r.Get("/audit", h.Admin.Audit)
		r.Get("/users", h.Admin.ListUsers)
		r.Post("/users", h.Admin.CreateUser)
		r.Post("/cache/flush", h.Admin.FlushCache)
	})

	r.Route("/system", func(r chi.Router) {
		r.Get("/info", h.System.Info)
		r.Get("/rules", h.System.Rules)
	})

	return r
}

// CheckCoverage logs a warning for every mounted route that the classifier
// lets through without a permission and that is on neither allowlist. It
// returns the offending routes.
func CheckCoverage(routes chi.Routes, engine *authz.Engine) ([]handlers.RouteDoc, error) {
	docs, err := handlers.RouteIndex(routes, engine)
	if err != nil {
		return nil, err
	}
	var unclassified []handlers.RouteDoc
	for _, d := range docs {
		if d.Access == handlers.AccessUnclassified {
			log.Warn().Str("method", d.Method).Str("path", d.Path).Msg("Route is public by default; classify it or add it to the public allowlist")
			unclassified = append(unclassified, d)
		}
	}
	return unclassified, nil
}
