package server

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/cache"
	"github.com/avantlehq/core-avantle-ai/internal/handlers"
	"github.com/avantlehq/core-avantle-ai/internal/metrics"
	"github.com/avantlehq/core-avantle-ai/internal/middleware"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
	"github.com/avantlehq/core-avantle-ai/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

// Config carries everything New needs besides the database and cache
type Config struct {
	Version       string
	Token         authz.TokenConfig
	LookupTimeout time.Duration
	Domains       services.DomainConfig
	CORS          cors.Options

	// DNS defaults to net.DefaultResolver.
	DNS services.TXTResolver
	// Metrics and MetricsHandler are optional.
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
}

// App is the wired control plane
type App struct {
	Router   chi.Router
	Engine   *authz.Engine
	Issuer   *authz.TokenIssuer
	Resolver *authz.TenantAccessResolver
}

// New wires repositories, the authorization core, services and handlers
func New(db *gorm.DB, c cache.Cache, cfg Config) (*App, error) {
	issuer, err := authz.NewTokenIssuer(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	partners := repository.NewPartnerRepository(db)
	tenants := repository.NewTenantRepository(db)
	memberships := repository.NewMembershipRepository(db)
	users := repository.NewUserRepository(db)
	clients := repository.NewAPIClientRepository(db)
	plans := repository.NewPlanRepository(db)
	domains := repository.NewDomainRepository(db)
	usage := repository.NewUsageRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	resolverOpts := []authz.ResolverOption{authz.WithLookupTimeout(cfg.LookupTimeout)}
	engineOpts := []authz.EngineOption{}
	var (
		cacheObs services.CacheObserver
		reqObs   middleware.RequestObserver
	)
	if cfg.Metrics != nil {
		resolverOpts = append(resolverOpts, authz.WithLookupObserver(cfg.Metrics))
		engineOpts = append(engineOpts, authz.WithDecisionObserver(cfg.Metrics))
		cacheObs = cfg.Metrics
		reqObs = cfg.Metrics
	}
	resolver := authz.NewTenantAccessResolver(memberships, resolverOpts...)
	rules := authz.DefaultAccessRules()
	engine := authz.NewEngine(rules, issuer, resolver, engineOpts...)

	dns := cfg.DNS
	if dns == nil {
		dns = net.DefaultResolver
	}

	audit := services.NewAuditService(auditRepo)
	auth := services.NewAuthService(users, clients, memberships, tenants, issuer, audit)
	partnerSvc := services.NewPartnerService(partners, resolver, audit)
	tenantSvc := services.NewTenantService(services.TenantRepositories{
		Tenants:     tenants,
		Partners:    partners,
		Plans:       plans,
		Users:       users,
		Memberships: memberships,
		Clients:     clients,
	}, resolver, audit)
	planSvc := services.NewPlanService(plans, audit)
	domainSvc := services.NewDomainService(domains, tenants, plans, resolver, dns, c, cfg.Domains, cacheObs, audit)
	usageSvc := services.NewUsageService(usage, tenants, plans, audit)
	dashboardSvc := services.NewDashboardService(tenants, domains, usageSvc, resolver)
	userSvc := services.NewUserService(users, audit)
	systemSvc := services.NewSystemService(cfg.Version, rules)

	h := Handlers{
		Health:   handlers.NewHealthHandler(db, c),
		Auth:     handlers.NewAuthHandler(auth),
		Partners: handlers.NewPartnerHandler(partnerSvc),
		Tenants:  handlers.NewTenantHandler(tenantSvc),
		Plans:    handlers.NewPlanHandler(planSvc),
		Domains:  handlers.NewDomainHandler(domainSvc),
		Usage:    handlers.NewUsageHandler(usageSvc),
		Admin:    handlers.NewAdminHandler(dashboardSvc, audit, userSvc, domainSvc),
		System:   handlers.NewSystemHandler(systemSvc),
	}
	router := NewRouter(engine, h, Options{
		CORS:           cfg.CORS,
		MetricsHandler: cfg.MetricsHandler,
		Requests:       reqObs,
	})

	return &App{Router: router, Engine: engine, Issuer: issuer, Resolver: resolver}, nil
}
