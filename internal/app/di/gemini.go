// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"

	"compliance_backend/internal/app/config"
	"compliance_backend/internal/feature/compliance/adapters/gemini"
	"compliance_backend/internal/feature/compliance/usecase"
	"compliance_backend/internal/platform/cache"
	infrahttp "compliance_backend/internal/platform/http"
	"compliance_backend/internal/shared/ratelimiter"
)

// NewGeminiClient creates a Gemini client on the shared HTTP client settings.
func NewGeminiClient(ctx context.Context, cfg config.Config) (*genai.Client, error) {
	httpClient := infrahttp.NewHTTPClient(cfg.LLMTimeout)
	return gemini.NewClient(ctx, cfg.GeminiAPIKey, httpClient)
}

// NewLLMRateLimiter returns the limiter shared by every Gemini call.
func NewLLMRateLimiter(cfg config.Config) *ratelimiter.RateLimiter {
	return ratelimiter.NewRateLimiter(cfg.LLMRatePerMinute, time.Minute)
}

// NewCompleter creates the Completer used by the analysis and report tools.
// If Redis is available, responses are cached; otherwise the Gemini
// completer is returned as is.
func NewCompleter(client *genai.Client, cfg config.Config, rl ratelimiter.RateLimiterInterface, rdb *redis.Client) usecase.Completer {
	completer := gemini.NewCompleter(client, cfg.GeminiModel, cfg.LLMTimeout, rl)
	if rdb == nil {
		return completer
	}
	return cache.NewCachingCompleter(rdb, cfg.LLMCacheTTL, completer, "llm", completer.Model())
}

// NewPlanner creates the function-calling planner, or nil when planning is
// disabled and every intent goes straight to its direct tool call.
func NewPlanner(client *genai.Client, cfg config.Config, rl ratelimiter.RateLimiterInterface) usecase.Planner {
	if !cfg.PlannerEnabled {
		slog.Info("planner disabled; intents use direct tool calls")
		return nil
	}
	return gemini.NewPlanner(client, cfg.GeminiModel, cfg.PlannerMaxSteps, cfg.LLMTimeout, rl)
}
