// Package main is the entry point for the Listora API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"listora/internal/cache"
	"listora/internal/config"
	"listora/internal/database"
	"listora/internal/entitlement"
	"listora/internal/handlers"
	"listora/internal/jobs"
	"listora/internal/mediaurl"
	"listora/internal/middleware"
	"listora/internal/presentation"
	"listora/internal/router"
	"listora/internal/session"
	"listora/internal/storage"
	"listora/internal/store"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load a local .env file when present; real environments set the
	// variables directly.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	// Load configuration from environment variables and the optional
	// rules file.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"restricted_categories", cfg.RestrictedCategories,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN(), cfg.DBMaxConns)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions, unlock markers, presentation cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyAddr(), cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	listingStore := store.NewListingStore(db)
	categoryStore := store.NewCategoryStore(db)
	templateStore := store.NewTemplateStore(db)
	grantStore := store.NewGrantStore(db)
	attachmentStore := store.NewAttachmentStore(db)

	// Connect to S3-compatible object storage (optional — the API works
	// without it, with attachment uploads disabled).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3BucketPublic, cfg.S3BucketPrivate, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"public_bucket", cfg.S3BucketPublic,
			"private_bucket", cfg.S3BucketPrivate,
		)
	} else {
		slog.Warn("s3 storage not configured — attachment uploads disabled")
	}

	// Presentation pipeline: CDN-optimizing resolver with an in-process
	// memo, backed by a shared Valkey cache.
	optimizer := mediaurl.NewOptimizer(cfg.S3PublicURL, cfg.CardImageWidth)
	resolver := presentation.New(optimizer)
	presCache := cache.NewPresentationCache(valkeyClient, cache.DefaultPresentationTTL)

	// Entitlements: the restricted set from the rules file, extended by
	// any categories flagged restricted in the database.
	restricted := cfg.RestrictedCategories
	if dbRestricted, err := categoryStore.RestrictedSlugs(); err != nil {
		slog.Warn("failed to load restricted categories from database", "error", err)
	} else {
		restricted = mergeRestricted(restricted, dbRestricted)
	}
	unlockStore := entitlement.NewValkeyUnlockStore(valkeyClient, session.DefaultTTL)
	evaluator := entitlement.New(unlockStore, restricted)

	// Create handler groups with their dependencies.
	adminHandlers := handlers.NewAdmin(userStore, listingStore, categoryStore,
		templateStore, grantStore, attachmentStore, resolver, presCache, storageClient)
	authHandlers := handlers.NewAuth(sessionStore, userStore, grantStore, unlockStore)
	publicHandlers := handlers.NewPublic(listingStore, categoryStore, templateStore,
		grantStore, attachmentStore, resolver, presCache, evaluator, unlockStore, storageClient)

	// Background sweep downgrading lapsed premium listings.
	expiryJob := jobs.NewPremiumExpiry(listingStore, resolver, presCache)
	if err := expiryJob.Start(jobs.DefaultExpirySchedule); err != nil {
		slog.Error("failed to start premium expiry job", "error", err)
		os.Exit(1)
	}
	defer expiryJob.Stop()

	// Login throttle sized from configuration.
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	defer loginLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, adminHandlers, authHandlers, publicHandlers, loginLimiter, secureCookies)

	// Create the HTTP server with sensible timeouts. WriteTimeout covers
	// attachment uploads to S3.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// mergeRestricted unions the configured and database-flagged restricted
// category slugs.
func mergeRestricted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(a, b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
