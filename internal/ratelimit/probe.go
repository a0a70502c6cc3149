// Package ratelimit throttles unauthenticated invitation token lookups.
// Tokens are high-entropy so brute force is hopeless, but an open
// endpoint still should not hand a prober unlimited tries.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/homelet/tenantlink/internal/config"
)

const keyVerifyIP = "invite:verify:ip:%s"

type ProbeLimiter struct {
	enabled bool

	bucket *TokenBucket

	verifyRate  float64
	verifyBurst int
}

func NewProbeLimiter(cfg config.Config) (*ProbeLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.VerifyRate <= 0 || limitCfg.VerifyBurst <= 0 {
		return nil, errors.New("verify rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &ProbeLimiter{
		enabled:     true,
		bucket:      NewTokenBucket(client),
		verifyRate:  limitCfg.VerifyRate,
		verifyBurst: limitCfg.VerifyBurst,
	}, nil
}

func (l *ProbeLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowVerify rates one token lookup attempt for a client address.
func (l *ProbeLimiter) AllowVerify(ctx context.Context, clientIP string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyVerifyIP, strings.TrimSpace(clientIP)), l.verifyRate, l.verifyBurst)
}
