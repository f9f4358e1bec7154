package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/tabsettle-api/internal/infrastructure/repository"
	"github.com/sangkips/tabsettle-api/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestExtractTenantFromHost(t *testing.T) {
	tests := []struct {
		host    string
		want    string
		wantErr bool
	}{
		{host: "bistro.tabsettle.app", want: "bistro"},
		{host: "bistro.tabsettle.app:8080", want: "bistro"},
		{host: "tabsettle.app", wantErr: true},
		{host: "localhost:8080", wantErr: true},
		{host: "127.0.0.1:8080", wantErr: true},
		{host: "10.0.0.12", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ExtractTenantFromHost(tt.host)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractTenantFromHost(%q) error = %v, wantErr %v", tt.host, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractTenantFromHost(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func withTenant(tenantID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

func TestRateLimiterIsPerTenant(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewTenantRateLimiter(ctx, RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	busy, quiet := uuid.New(), uuid.New()

	serve := func(tenantID uuid.UUID) int {
		router := gin.New()
		router.Use(withTenant(tenantID), rl.Middleware())
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := serve(busy); code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, code)
		}
	}
	if code := serve(busy); code != http.StatusTooManyRequests {
		t.Fatalf("over burst = %d, want 429", code)
	}
	if code := serve(quiet); code != http.StatusOK {
		t.Fatalf("other tenant = %d, want 200", code)
	}

	stats := rl.Stats()
	if stats.ActiveTenants != 2 || stats.BurstSize != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.CleanupInterval != DefaultRateLimiterConfig().CleanupInterval {
		t.Fatalf("cleanup interval default not applied: %+v", stats)
	}
}

func TestRateLimiterSweepsIdleTenants(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := NewTenantRateLimiter(ctx, RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, EntryTTL: time.Minute})
	rl.now = func() time.Time { return now }

	idle, active := uuid.New(), uuid.New()
	if ok, _ := rl.Allow(idle); !ok {
		t.Fatal("first request refused")
	}
	now = now.Add(50 * time.Second)
	rl.Allow(active)
	now = now.Add(20 * time.Second)

	if removed := rl.sweep(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if got := rl.Stats().ActiveTenants; got != 1 {
		t.Fatalf("active tenants = %d, want 1", got)
	}

	// The swept tenant starts over with a full bucket
	if ok, remaining := rl.Allow(idle); !ok || remaining != 0 {
		t.Fatalf("allow after sweep = %v, %d", ok, remaining)
	}
}

func TestRequireRole(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_roles", strings.Split(c.GetHeader("X-Roles"), ","))
		c.Next()
	})
	router.GET("/", RequireRole("owner", "manager"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for roles, want := range map[string]int{
		"manager":         http.StatusOK,
		"cashier,owner":   http.StatusOK,
		"cashier":         http.StatusForbidden,
		"kitchen,cashier": http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Roles", roles)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("roles %q = %d, want %d", roles, w.Code, want)
		}
	}
}

func TestWebSocketAuthAcceptsQueryToken(t *testing.T) {
	jwtManager := utils.NewJWTManager("secret", "test")
	userID := uuid.New()
	token, err := jwtManager.GenerateAccessToken(userID, uuid.New(), []string{"kitchen"}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	handler := func(c *gin.Context) {
		id, _ := c.Get("user_id")
		if id != userID {
			t.Errorf("user_id = %v, want %s", id, userID)
		}
		c.Status(http.StatusOK)
	}

	ws := gin.New()
	ws.GET("/", WebSocketAuthMiddleware(jwtManager), handler)
	w := httptest.NewRecorder()
	ws.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?token="+token, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("websocket auth = %d, want 200", w.Code)
	}

	plain := gin.New()
	plain.GET("/", AuthMiddleware(jwtManager), handler)
	w = httptest.NewRecorder()
	plain.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?token="+token, nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bearer auth with query token = %d, want 401", w.Code)
	}
}

func newIdempotencyRepo(t *testing.T) repository.IdempotencyRepository {
	t.Helper()
	db, err := database.NewInMemoryDB("test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return infraRepo.NewIdempotencyRepository(db)
}

func idempotentRouter(userID uuid.UUID, config IdempotencyConfig, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	router.POST("/things", Idempotency(config), handler)
	return router
}

func postThing(router http.Handler, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysAndRejectsMismatch(t *testing.T) {
	repo := newIdempotencyRepo(t)
	userID, tenantID := uuid.New(), uuid.New()
	calls := 0

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("tenant_id", tenantID)
		c.Next()
	})
	router.POST("/things", Idempotency(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})
	router.POST("/other", Idempotency(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{})
	})

	send := func(path, body, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send("/things", `{"a":1}`, "k1")
	second := send("/things", `{"a":1}`, "k1")
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("replay = %d %s", second.Code, second.Body.String())
	}
	if second.Header().Get(IdempotencyReplayedHeader) != "true" {
		t.Fatal("replay header missing")
	}

	if w := send("/things", `{"a":2}`, "k1"); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("different body = %d, want 422", w.Code)
	}
	if w := send("/other", `{"a":1}`, "k1"); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("different endpoint = %d, want 422", w.Code)
	}

	send("/things", `{"a":1}`, "")
	if calls != 2 {
		t.Fatalf("request without key was not executed")
	}
}

func TestIdempotencyKeyInFlightIsRejected(t *testing.T) {
	repo := newIdempotencyRepo(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	router := idempotentRouter(uuid.New(), IdempotencyConfig{Repo: repo}, func(c *gin.Context) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		c.JSON(http.StatusCreated, gin.H{"paid": true})
	})

	firstDone := make(chan *httptest.ResponseRecorder)
	go func() { firstDone <- postThing(router, `{"amount":400}`, "pay-1") }()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first request never reached the handler")
	}

	dup := postThing(router, `{"amount":400}`, "pay-1")
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate while in flight = %d %s, want 409", dup.Code, dup.Body.String())
	}
	if dup.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing on in-flight duplicate")
	}

	close(release)
	var first *httptest.ResponseRecorder
	select {
	case first = <-firstDone:
	case <-time.After(5 * time.Second):
		t.Fatal("first request did not finish")
	}
	if first.Code != http.StatusCreated {
		t.Fatalf("first = %d, want 201", first.Code)
	}

	replay := postThing(router, `{"amount":400}`, "pay-1")
	if replay.Code != http.StatusCreated || replay.Header().Get(IdempotencyReplayedHeader) != "true" {
		t.Fatalf("after completion = %d replayed=%q", replay.Code, replay.Header().Get(IdempotencyReplayedHeader))
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("handler ran %d times, want 1", n)
	}
}

func TestIdempotencyReleasesKeyOnRetryableFailure(t *testing.T) {
	repo := newIdempotencyRepo(t)
	calls := 0

	router := idempotentRouter(uuid.New(), IdempotencyConfig{Repo: repo}, func(c *gin.Context) {
		calls++
		if calls == 1 {
			c.JSON(http.StatusServiceUnavailable, gin.H{})
			return
		}
		c.JSON(http.StatusCreated, gin.H{})
	})

	if w := postThing(router, `{}`, "retry-me"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("first = %d", w.Code)
	}
	w := postThing(router, `{}`, "retry-me")
	if w.Code != http.StatusCreated || w.Header().Get(IdempotencyReplayedHeader) != "" {
		t.Fatalf("retry = %d replayed=%q, want a fresh 201", w.Code, w.Header().Get(IdempotencyReplayedHeader))
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestIdempotencyReleasesKeyWhenHandlerPanics(t *testing.T) {
	repo := newIdempotencyRepo(t)
	calls := 0

	router := idempotentRouter(uuid.New(), IdempotencyConfig{Repo: repo}, func(c *gin.Context) {
		calls++
		if calls == 1 {
			panic("printer jammed")
		}
		c.JSON(http.StatusCreated, gin.H{})
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("handler panic was swallowed")
			}
		}()
		postThing(router, `{}`, "panics")
	}()

	if w := postThing(router, `{}`, "panics"); w.Code != http.StatusCreated {
		t.Fatalf("after panic = %d %s, want 201", w.Code, w.Body.String())
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestIdempotencyKeysExpire(t *testing.T) {
	repo := newIdempotencyRepo(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	calls := 0

	router := idempotentRouter(uuid.New(), IdempotencyConfig{Repo: repo, Now: func() time.Time { return now }}, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{})
	})

	postThing(router, `{}`, "expiring")
	postThing(router, `{}`, "expiring")
	if calls != 1 {
		t.Fatalf("calls = %d before expiry, want 1", calls)
	}

	// An expired key is taken over without waiting for the sweeper
	now = now.Add(IdempotencyKeyTTL + time.Minute)
	if w := postThing(router, `{}`, "expiring"); w.Header().Get(IdempotencyReplayedHeader) != "" {
		t.Fatal("expired response was replayed")
	}
	if calls != 2 {
		t.Fatalf("calls = %d after expiry, want 2", calls)
	}
	if w := postThing(router, `{}`, "expiring"); w.Header().Get(IdempotencyReplayedHeader) != "true" {
		t.Fatal("renewed key was not replayed")
	}
	if calls != 2 {
		t.Fatalf("calls = %d after renewal, want 2", calls)
	}

	removed, err := repo.DeleteExpired(context.Background(), now.Add(IdempotencyKeyTTL+time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
}
