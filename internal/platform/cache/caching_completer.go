// Package cache provides caching implementations for usecase interfaces.
package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"compliance_backend/internal/feature/compliance/usecase"
)

// CachingCompleter decorates a Completer with Redis caching of responses.
// Identical prompts sent to the same model are answered from the cache
// until the entry expires.
type CachingCompleter struct {
	inner     usecase.Completer
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	model     string
}

var _ usecase.Completer = (*CachingCompleter)(nil)

// NewCachingCompleter decorates inner with Redis caching.
// If ttl is 0, it defaults to 1 hour. If namespace is empty, it uses "llm".
func NewCachingCompleter(rdb *redis.Client, ttl time.Duration, inner usecase.Completer, namespace, model string) *CachingCompleter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if namespace == "" {
		namespace = "llm"
	}
	return &CachingCompleter{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		model:     model,
	}
}

// Complete returns a cached response for prompt or asks the inner Completer.
func (c *CachingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Complete(ctx, prompt)
	}

	key := c.cacheKey(prompt)

	// 1) Check cache
	text, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && text != "":
		return text, nil
	case err != nil && !errors.Is(err, redis.Nil):
		slog.Warn("llm cache read failed", "key", key, "error", err)
	}

	// 2) Fallback to the model
	text, err = c.inner.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	// 3) Store in cache (best effort)
	if err := c.rdb.Set(ctx, key, text, c.ttl).Err(); err != nil {
		slog.Warn("llm cache write failed", "key", key, "error", err)
	}
	return text, nil
}

// cacheKey hashes the prompt so keys stay short regardless of prompt size.
func (c *CachingCompleter) cacheKey(prompt string) string {
	sum := blake2b.Sum256([]byte(prompt))
	return c.namespace + ":" + safe(c.model) + ":" + hex.EncodeToString(sum[:])
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	if s == "" {
		return "default"
	}
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
