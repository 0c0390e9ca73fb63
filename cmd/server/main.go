package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/cache"
	"github.com/avantlehq/core-avantle-ai/internal/config"
	"github.com/avantlehq/core-avantle-ai/internal/database"
	"github.com/avantlehq/core-avantle-ai/internal/metrics"
	"github.com/avantlehq/core-avantle-ai/internal/server"
	"github.com/avantlehq/core-avantle-ai/internal/services"
	"github.com/avantlehq/core-avantle-ai/pkg/logger"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Version is set at build time
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", Version).Msg("Starting control plane")

	db, err := database.Connect(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		LogLevel: cfg.Database.LogLevel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	cacheImpl, closeCache := newCache(cfg)
	defer closeCache()

	appCfg := server.Config{
		Version: Version,
		Token: authz.TokenConfig{
			Secret:             []byte(cfg.Auth.JWTSecret),
			Issuer:             cfg.Auth.Issuer,
			Audience:           cfg.Auth.Audience,
			TTL:                cfg.Auth.TokenTTL,
			PlatformAdminEmail: cfg.Auth.PlatformAdminEmail,
		},
		LookupTimeout: cfg.Auth.LookupTimeout,
		Domains: services.DomainConfig{
			VerificationPrefix: cfg.Domains.VerificationPrefix,
			ResolveCacheTTL:    cfg.Domains.ResolveCacheTTL,
		},
		CORS: cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   cfg.CORS.AllowedMethods,
			AllowedHeaders:   cfg.CORS.AllowedHeaders,
			ExposedHeaders:   []string{"Content-Length", "Content-Type", "WWW-Authenticate"},
			AllowCredentials: false,
			MaxAge:           300,
		},
	}
	if cfg.Metrics.Enabled {
		m, err := metrics.New(prometheus.DefaultRegisterer)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to register metrics")
		}
		appCfg.Metrics = m
		appCfg.MetricsHandler = promhttp.Handler()
	}

	app, err := server.New(db, cacheImpl, appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize control plane")
	}
	if cfg.Auth.PlatformAdminEmail == "" {
		log.Warn().Msg("PLATFORM_ADMIN_EMAIL is not set; no principal can administer the platform")
	}
	if _, err := server.CheckCoverage(app.Router, app.Engine); err != nil {
		log.Warn().Err(err).Msg("Failed to check route coverage")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server stopped")
}

func newCache(cfg *config.Config) (cache.Cache, func()) {
	if cfg.Cache.Enabled && cfg.Cache.Type == "redis" {
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		rc, err := cache.NewRedisCache(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Info().Str("addr", addr).Msg("Redis cache initialized")
		return rc, func() { _ = rc.Close() }
	}

	mc := cache.NewMemoryCache()
	if cfg.Cache.Enabled {
		log.Info().Msg("Memory cache initialized")
	} else {
		log.Info().Msg("Cache disabled, using memory cache as fallback")
	}
	return mc, func() { _ = mc.Close() }
}
