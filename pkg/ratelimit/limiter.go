package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/richxcame/scam-sniffer/pkg/common"
	"github.com/richxcame/scam-sniffer/pkg/config"
	"github.com/richxcame/scam-sniffer/pkg/logger"
	"github.com/richxcame/scam-sniffer/pkg/middleware"
	"go.uber.org/zap"
)

// Identity classes for rate limiting
const (
	IdentityAuthenticated = "authenticated"
	IdentityAnonymous     = "anonymous"
)

// fixedWindowScript increments the counter for the current window and
// sets the expiry atomically. Returns the count after increment.
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`

// Rule is the effective limit applied to one request
type Rule struct {
	Limit  int
	Burst  int
	Window time.Duration
}

// Limiter enforces per-identity request limits backed by Redis
type Limiter struct {
	client redis.Cmdable
	cfg    config.RateLimitConfig
	script *redis.Script
	now    func() time.Time
}

// NewLimiter creates a limiter with the given configuration
func NewLimiter(client redis.Cmdable, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		script: redis.NewScript(fixedWindowScript),
		now:    time.Now,
	}
}

// WithNow overrides the clock, for tests
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// RuleFor returns the limit applied to a path for a given identity class
func (l *Limiter) RuleFor(path, identity string) Rule {
	if identity == IdentityAnonymous {
		return Rule{Limit: l.cfg.AnonymousLimit, Burst: l.cfg.AnonymousBurst, Window: l.cfg.Window()}
	}
	return Rule{Limit: l.cfg.DefaultLimit, Burst: l.cfg.DefaultBurst, Window: l.cfg.Window()}
}

// Allow reports whether one more request fits the identity's window
func (l *Limiter) Allow(ctx context.Context, key string, rule Rule) (bool, error) {
	windowKey := fmt.Sprintf("%s:%s:%d", l.cfg.RedisPrefix, key, l.now().Unix()/int64(rule.Window.Seconds()))

	count, err := l.script.Run(ctx, l.client, []string{windowKey}, rule.Window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit script failed: %w", err)
	}

	return count <= rule.Limit+rule.Burst, nil
}

// Middleware applies the limiter to requests. The identity key is the
// authenticated user ID when available, otherwise the client IP.
// Limiter errors fail open: a broken Redis must not take the API down.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.cfg.Enabled {
			c.Next()
			return
		}

		identity := IdentityAnonymous
		key := "ip:" + c.ClientIP()
		if userID, ok := c.Get(middleware.ContextUserID); ok {
			identity = IdentityAuthenticated
			key = fmt.Sprintf("user:%v", userID)
		}

		rule := l.RuleFor(c.FullPath(), identity)

		allowed, err := l.Allow(c.Request.Context(), key, rule)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			common.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	}
}
