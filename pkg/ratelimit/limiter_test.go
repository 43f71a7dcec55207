package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/richxcame/scam-sniffer/pkg/config"
	"github.com/richxcame/scam-sniffer/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

// slotKey reproduces the window key Allow builds for the fixed clock
func slotKey(prefix, key string, window time.Duration) string {
	return fmt.Sprintf("%s:%s:%d", prefix, key, fixedClock().Unix()/int64(window.Seconds()))
}

func testConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		WindowSeconds:  60,
		DefaultLimit:   100,
		DefaultBurst:   10,
		AnonymousLimit: 30,
		AnonymousBurst: 5,
		RedisPrefix:    "rl",
	}
}

func TestNewLimiter(t *testing.T) {
	client, _ := redismock.NewClientMock()
	cfg := testConfig()

	limiter := NewLimiter(client, cfg)

	assert.NotNil(t, limiter)
	assert.NotNil(t, limiter.client)
	assert.NotNil(t, limiter.script)
	assert.NotNil(t, limiter.now)
	assert.Equal(t, cfg.Enabled, limiter.cfg.Enabled)
	assert.Equal(t, cfg.DefaultLimit, limiter.cfg.DefaultLimit)
	assert.Equal(t, cfg.RedisPrefix, limiter.cfg.RedisPrefix)
}

func TestNewLimiter_NowReturnsCurrentTime(t *testing.T) {
	client, _ := redismock.NewClientMock()
	limiter := NewLimiter(client, testConfig())

	before := time.Now()
	got := limiter.now()
	after := time.Now()

	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}

func TestWithNow(t *testing.T) {
	client, _ := redismock.NewClientMock()
	limiter := NewLimiter(client, testConfig())

	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	limiter.WithNow(func() time.Time { return fixed })

	assert.Equal(t, fixed, limiter.now())
}

func TestRuleFor_AuthenticatedDefaults(t *testing.T) {
	client, _ := redismock.NewClientMock()
	cfg := testConfig()
	limiter := NewLimiter(client, cfg)

	rule := limiter.RuleFor("/api/v1/analyze/text", IdentityAuthenticated)

	assert.Equal(t, cfg.DefaultLimit, rule.Limit)
	assert.Equal(t, cfg.DefaultBurst, rule.Burst)
	assert.Equal(t, cfg.Window(), rule.Window)
}

func TestRuleFor_AnonymousDefaults(t *testing.T) {
	client, _ := redismock.NewClientMock()
	cfg := testConfig()
	limiter := NewLimiter(client, cfg)

	rule := limiter.RuleFor("/api/v1/analyze/text", IdentityAnonymous)

	assert.Equal(t, cfg.AnonymousLimit, rule.Limit)
	assert.Equal(t, cfg.AnonymousBurst, rule.Burst)
	assert.Equal(t, cfg.Window(), rule.Window)
}

func TestAllow_UnderLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewLimiter(client, testConfig()).WithNow(fixedClock)
	rule := limiter.RuleFor("/api/v1/analyze/text", IdentityAuthenticated)

	key := slotKey("rl", "user:u-1", rule.Window)
	mock.ExpectEvalSha(limiter.script.Hash(), []string{key}, int64(60000)).SetVal(int64(1))

	allowed, err := limiter.Allow(context.Background(), "user:u-1", rule)

	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllow_BurstAbsorbsOverage(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewLimiter(client, testConfig()).WithNow(fixedClock)
	rule := limiter.RuleFor("/api/v1/analyze/text", IdentityAuthenticated)

	// limit 100 + burst 10: the 110th request in the window still passes
	key := slotKey("rl", "user:u-1", rule.Window)
	mock.ExpectEvalSha(limiter.script.Hash(), []string{key}, int64(60000)).SetVal(int64(110))

	allowed, err := limiter.Allow(context.Background(), "user:u-1", rule)

	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllow_OverLimitPlusBurst(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewLimiter(client, testConfig()).WithNow(fixedClock)
	rule := limiter.RuleFor("/api/v1/analyze/text", IdentityAuthenticated)

	key := slotKey("rl", "user:u-1", rule.Window)
	mock.ExpectEvalSha(limiter.script.Hash(), []string{key}, int64(60000)).SetVal(int64(111))

	allowed, err := limiter.Allow(context.Background(), "user:u-1", rule)

	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllow_RedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewLimiter(client, testConfig()).WithNow(fixedClock)
	rule := limiter.RuleFor("/api/v1/analyze/text", IdentityAuthenticated)

	key := slotKey("rl", "user:u-1", rule.Window)
	mock.ExpectEvalSha(limiter.script.Hash(), []string{key}, int64(60000)).SetErr(errors.New("connection refused"))

	allowed, err := limiter.Allow(context.Background(), "user:u-1", rule)

	require.Error(t, err)
	assert.False(t, allowed)
	assert.Contains(t, err.Error(), "rate limit script failed")
}

func limiterRouter(limiter *Limiter, pre ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(pre...)
	router.Use(limiter.Middleware())
	router.GET("/api/v1/analyze/text", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestMiddleware_AllowsAnonymousUnderLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewLimiter(client, testConfig()).WithNow(fixedClock)

	// httptest requests originate from 192.0.2.1
	key := slotKey("rl", "ip:192.0.2.1", limiter.cfg.Window())
	mock.ExpectEvalSha(limiter.script.Hash(), []string{key}, int64(60000)).SetVal(int64(1))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/text", nil)
	limiterRouter(limiter).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddleware_KeysByUserWhenAuthenticated(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewLimiter(client, testConfig()).WithNow(fixedClock)

	key := slotKey("rl", "user:u-42", limiter.cfg.Window())
	mock.ExpectEvalSha(limiter.script.Hash(), []string{key}, int64(60000)).SetVal(int64(1))

	asUser := func(c *gin.Context) {
		c.Set(middleware.ContextUserID, "u-42")
		c.Next()
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/text", nil)
	limiterRouter(limiter, asUser).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddleware_DeniesWithTooManyRequests(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewLimiter(client, testConfig()).WithNow(fixedClock)

	// anonymous limit 30 + burst 5 exhausted
	key := slotKey("rl", "ip:192.0.2.1", limiter.cfg.Window())
	mock.ExpectEvalSha(limiter.script.Hash(), []string{key}, int64(60000)).SetVal(int64(36))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/text", nil)
	limiterRouter(limiter).ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestMiddleware_FailsOpenOnRedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewLimiter(client, testConfig()).WithNow(fixedClock)

	key := slotKey("rl", "ip:192.0.2.1", limiter.cfg.Window())
	mock.ExpectEvalSha(limiter.script.Hash(), []string{key}, int64(60000)).SetErr(errors.New("connection refused"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/text", nil)
	limiterRouter(limiter).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_DisabledPassesThrough(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cfg := testConfig()
	cfg.Enabled = false
	limiter := NewLimiter(client, cfg).WithNow(fixedClock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/text", nil)
	limiterRouter(limiter).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
