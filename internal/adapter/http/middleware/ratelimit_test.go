package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"balance-transfer-api/internal/adapter/http/middleware"
	redisStore "balance-transfer-api/internal/adapter/storage/redis"
	"balance-transfer-api/internal/core/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRateLimitRouter(store ports.RateLimitStore, preset func(*gin.Context)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	rule := middleware.RateLimitRule{Limit: 3, Window: time.Minute}
	handlers := []gin.HandlerFunc{}
	if preset != nil {
		handlers = append(handlers, preset)
	}
	handlers = append(handlers, middleware.RateLimiter(store, "test", rule, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/test", handlers...)
	return r
}

func newStore(t *testing.T) (*redisStore.RateLimitStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisStore.NewRateLimitStore(client), mr
}

func hit(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	return w
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	store, _ := newStore(t)
	router := setupRateLimitRouter(store, nil)

	for i := 0; i < 3; i++ {
		w := hit(router)
		assert.Equal(t, 200, w.Code, "request %d should succeed", i+1)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	store, _ := newStore(t)
	router := setupRateLimitRouter(store, nil)

	for i := 0; i < 3; i++ {
		require.Equal(t, 200, hit(router).Code)
	}

	w := hit(router)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_001")
}

func TestRateLimiter_KeysByUsername(t *testing.T) {
	store, mr := newStore(t)
	asAlice := setupRateLimitRouter(store, func(c *gin.Context) { c.Set(middleware.CtxUsername, "alice") })
	asBob := setupRateLimitRouter(store, func(c *gin.Context) { c.Set(middleware.CtxUsername, "bob") })

	for i := 0; i < 3; i++ {
		require.Equal(t, 200, hit(asAlice).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(asAlice).Code)
	assert.Equal(t, 200, hit(asBob).Code, "bob is counted separately")

	var aliceKey bool
	for _, k := range mr.Keys() {
		if strings.Contains(k, "user:alice:test") {
			aliceKey = true
		}
	}
	assert.True(t, aliceKey)
}

func TestRateLimiter_DegradedWhenStoreDown(t *testing.T) {
	store, mr := newStore(t)
	router := setupRateLimitRouter(store, nil)
	mr.Close()

	for i := 0; i < 5; i++ {
		assert.Equal(t, 200, hit(router).Code)
	}
}

func TestDefaultRateLimitRules(t *testing.T) {
	rules := middleware.DefaultRateLimitRules()

	assert.Equal(t, middleware.RateLimitRule{Limit: 5, Window: time.Hour}, rules["auth_register"])
	assert.Equal(t, middleware.RateLimitRule{Limit: 10, Window: time.Minute}, rules["auth_login"])
	assert.Equal(t, middleware.RateLimitRule{Limit: 30, Window: time.Minute}, rules["auth_refresh"])
	assert.Equal(t, middleware.RateLimitRule{Limit: 30, Window: time.Minute}, rules["transfer"])
	assert.Equal(t, middleware.RateLimitRule{Limit: 60, Window: time.Minute}, rules["balance"])
}
