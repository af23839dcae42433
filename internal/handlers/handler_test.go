// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"listora/internal/cache"
	"listora/internal/database"
	"listora/internal/entitlement"
	"listora/internal/mediaurl"
	"listora/internal/middleware"
	"listora/internal/models"
	"listora/internal/presentation"
	"listora/internal/session"
	"listora/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "listora")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "listora")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session, cache, and unlock keys.
		for _, pattern := range []string{"session:*", "presentation:*", "unlocks:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB              *sql.DB
	Valkey          *redis.Client
	Sessions        *session.Store
	UserStore       *store.UserStore
	ListingStore    *store.ListingStore
	CategoryStore   *store.CategoryStore
	TemplateStore   *store.TemplateStore
	GrantStore      *store.GrantStore
	AttachmentStore *store.AttachmentStore
	Resolver        *presentation.Resolver
	PresCache       *cache.PresentationCache
	Unlocks         *entitlement.ValkeyUnlockStore
	Evaluator       *entitlement.Evaluator
	Admin           *Admin
	Auth            *Auth
	Public          *Public
}

// newTestEnv creates a complete test environment with all handler
// dependencies. S3 storage is left unconfigured.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk, false)
	userStore := store.NewUserStore(db)
	listingStore := store.NewListingStore(db)
	categoryStore := store.NewCategoryStore(db)
	templateStore := store.NewTemplateStore(db)
	grantStore := store.NewGrantStore(db)
	attachmentStore := store.NewAttachmentStore(db)

	resolver := presentation.New(mediaurl.NewOptimizer("", 0))
	presCache := cache.NewPresentationCache(vk, 1*time.Minute)
	unlocks := entitlement.NewValkeyUnlockStore(vk, 1*time.Hour)
	evaluator := entitlement.New(unlocks, []string{"jobs", "tenders"})

	admin := NewAdmin(userStore, listingStore, categoryStore, templateStore,
		grantStore, attachmentStore, resolver, presCache, nil)
	auth := NewAuth(sessions, userStore, grantStore, unlocks)
	public := NewPublic(listingStore, categoryStore, templateStore, grantStore,
		attachmentStore, resolver, presCache, evaluator, unlocks, nil)

	return &testEnv{
		DB:              db,
		Valkey:          vk,
		Sessions:        sessions,
		UserStore:       userStore,
		ListingStore:    listingStore,
		CategoryStore:   categoryStore,
		TemplateStore:   templateStore,
		GrantStore:      grantStore,
		AttachmentStore: attachmentStore,
		Resolver:        resolver,
		PresCache:       presCache,
		Unlocks:         unlocks,
		Evaluator:       evaluator,
		Admin:           admin,
		Auth:            auth,
		Public:          public,
	}
}

// ensureCategory inserts a category if it does not exist yet.
func ensureCategory(t *testing.T, db *sql.DB, slug string, restricted bool) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO categories (slug, name, restricted, sort_order)
		VALUES ($1, INITCAP($1), $2, 99)
		ON CONFLICT (slug) DO NOTHING`, slug, restricted)
	if err != nil {
		t.Fatalf("ensure category %s: %v", slug, err)
	}
}

// createTestUser creates a user with a unique email and removes it after
// the test.
func createTestUser(t *testing.T, env *testEnv, role models.Role) *models.User {
	t.Helper()
	email := fmt.Sprintf("%s@handler-test.local", uuid.NewString()[:8])
	user, err := env.UserStore.Create(email, "secret123", "Handler Test", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { env.UserStore.Delete(user.ID) })
	return user
}

// createTestListing inserts a listing and removes it after the test.
func createTestListing(t *testing.T, env *testEnv, l *models.Listing) *models.Listing {
	t.Helper()
	created, err := env.ListingStore.Create(l)
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	t.Cleanup(func() { env.ListingStore.Delete(created.ID) })
	return created
}

// cleanListings removes listings whose slug starts with the given prefix.
func cleanListings(t *testing.T, db *sql.DB, prefix string) {
	t.Helper()
	db.Exec("DELETE FROM listings WHERE slug LIKE $1", prefix+"%")
}

// cleanTemplates removes templates by name.
func cleanTemplates(t *testing.T, db *sql.DB, names ...string) {
	t.Helper()
	for _, n := range names {
		db.Exec("DELETE FROM category_templates WHERE name = $1", n)
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for a user.
func testSession(user *models.User) *session.Data {
	return &session.Data{
		ViewerID:    user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both a chi URL param and a session.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// jsonBody builds a request body reader from a JSON literal.
func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}
