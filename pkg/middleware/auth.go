package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/richxcame/scam-sniffer/pkg/common"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID   = "user_id"
	ContextEmail    = "email"
	ContextRole     = "role"
	ContextTokenID  = "token_id"
	ContextTokenExp = "token_exp"
)

// TokenDenylist checks whether a token has been revoked (logout)
type TokenDenylist interface {
	IsTokenDenylisted(ctx context.Context, jti string) (bool, error)
}

// Claims is the JWT payload issued at login
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and loads identity into the
// request context. Websocket clients may pass the token as a query
// parameter since browsers cannot set headers on upgrade requests.
func AuthMiddleware(secret string, denylist TokenDenylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		claims, err := parseToken(tokenString, secret)
		if err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		if denylist != nil && claims.ID != "" {
			revoked, err := denylist.IsTokenDenylisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				common.ErrorResponse(c, http.StatusUnauthorized, "token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// OptionalAuth loads identity when a valid token is present but lets
// anonymous requests through
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString != "" {
			if claims, err := parseToken(tokenString, secret); err == nil {
				c.Set(ContextUserID, claims.Subject)
				c.Set(ContextEmail, claims.Email)
				c.Set(ContextRole, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireAdmin gates a route to admin users. Must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get(ContextRole); role != "admin" {
			common.ErrorResponse(c, http.StatusForbidden, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetTokenRemainingTTL returns how long the current token is still valid
func GetTokenRemainingTTL(c *gin.Context) time.Duration {
	if exp, ok := c.Get(ContextTokenExp); ok {
		if expTime, ok := exp.(time.Time); ok {
			return time.Until(expTime)
		}
	}
	return 0
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

func parseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
