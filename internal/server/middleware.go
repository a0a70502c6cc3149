package server

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDContextKey = "auth.user_id"

// AuthRequired validates a Bearer token and stores the caller's user id
// on the request context. The subject claim carries the user id.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := s.userIDFromBearer(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

func (s *Server) userIDFromBearer(c *gin.Context) (snowflake.ID, bool) {
	if s.cfg.AuthJWTSecret == "" {
		return 0, false
	}

	header := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return 0, false
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AuthJWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, false
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return 0, false
	}

	parsed, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}

	return snowflake.ID(parsed), true
}

// VerifyRateLimit throttles unauthenticated token lookups per client
// address. A limiter failure fails open: redis being down should not
// take invitation redemption down with it.
func (s *Server) VerifyRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.probeLimiter.Enabled() {
			c.Next()
			return
		}

		allowed, err := s.probeLimiter.AllowVerify(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.Next()
			return
		}
		if !allowed {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func callerUserID(c *gin.Context) (snowflake.ID, bool) {
	value, exists := c.Get(userIDContextKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(snowflake.ID)
	return userID, ok && userID != 0
}
