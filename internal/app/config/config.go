// Package config loads the server configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"compliance_backend/internal/feature/compliance/adapters/gemini"
	"compliance_backend/internal/feature/compliance/adapters/parser"
	"compliance_backend/internal/feature/compliance/transport/handler"
	"compliance_backend/internal/feature/compliance/usecase"
	"compliance_backend/internal/platform/db"
	"compliance_backend/internal/platform/redis"
)

// Config holds every setting of the compliance server.
type Config struct {
	Port           string
	UploadFolder   string
	MaxUploadBytes int64

	GeminiAPIKey       string
	GeminiModel        string
	LLMTimeout         time.Duration
	LLMRatePerMinute   int
	LLMCacheTTL        time.Duration
	PlannerEnabled     bool
	PlannerMaxSteps    int
	AnalysisChunkLimit int

	ResetClearsDescription bool

	ChunkSize        int
	ChunkOverlap     int
	VisionOCREnabled bool

	DB    db.Config
	Redis redis.Config
}

// LoadConfig reads the configuration. Unset keys fall back to defaults;
// malformed values are reported together in the returned error.
func LoadConfig() (Config, error) {
	var errs []error
	e := &envReader{errs: &errs}

	cfg := Config{
		Port:           e.str("PORT", "8080"),
		UploadFolder:   e.str("UPLOAD_FOLDER", "uploads"),
		MaxUploadBytes: int64(e.integer("MAX_CONTENT_LENGTH", int(handler.DefaultMaxUploadBytes))),

		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        e.str("GEMINI_MODEL", gemini.DefaultModel),
		LLMTimeout:         e.duration("LLM_TIMEOUT", 60*time.Second),
		LLMRatePerMinute:   e.integer("LLM_RATE_LIMIT_PER_MINUTE", 10),
		LLMCacheTTL:        e.duration("LLM_CACHE_TTL", time.Hour),
		PlannerEnabled:     e.boolean("PLANNER_ENABLED", true),
		PlannerMaxSteps:    e.integer("PLANNER_MAX_STEPS", gemini.DefaultMaxSteps),
		AnalysisChunkLimit: e.integer("ANALYSIS_CHUNK_LIMIT", usecase.DefaultAnalysisChunkLimit),

		ResetClearsDescription: e.boolean("RESET_CLEARS_DESCRIPTION", false),

		ChunkSize:        e.integer("CHUNK_SIZE", parser.DefaultChunkSize),
		ChunkOverlap:     e.integer("CHUNK_OVERLAP", parser.DefaultChunkOverlap),
		VisionOCREnabled: e.boolean("VISION_OCR_ENABLED", false),

		DB:    db.LoadConfigFromEnv(),
		Redis: redis.LoadConfig(),
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize))
	}
	if cfg.AnalysisChunkLimit <= 0 {
		errs = append(errs, fmt.Errorf("ANALYSIS_CHUNK_LIMIT must be positive, got %d", cfg.AnalysisChunkLimit))
	}
	return cfg, errors.Join(errs...)
}

type envReader struct {
	errs *[]error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (e *envReader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

// duration accepts Go duration strings ("90s") or plain seconds ("90").
func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
