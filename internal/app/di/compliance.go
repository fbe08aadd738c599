package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"compliance_backend/internal/app/config"
	"compliance_backend/internal/feature/compliance/adapters/parser"
	"compliance_backend/internal/feature/compliance/adapters/regulation"
	"compliance_backend/internal/feature/compliance/adapters/uploads"
	"compliance_backend/internal/feature/compliance/adapters/vision"
	"compliance_backend/internal/feature/compliance/transport/handler"
	"compliance_backend/internal/feature/compliance/usecase"
	"compliance_backend/internal/platform/metrics"
)

// Compliance bundles the wired compliance feature.
type Compliance struct {
	Usecase *usecase.ComplianceUsecase
	Handler *handler.ComplianceHandler

	closers []func() error
}

// Close releases clients opened while wiring.
func (c *Compliance) Close() {
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			slog.Warn("failed to close client", "error", err)
		}
	}
}

// NewCompliance wires the compliance feature: regulation catalogue, Gemini
// completer and planner, document parser, upload store and dispatch metrics.
// rdb may be nil.
func NewCompliance(ctx context.Context, cfg config.Config, db *gorm.DB, rdb *redis.Client, reg prometheus.Registerer) (*Compliance, error) {
	if err := regulation.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate regulations: %w", err)
	}
	regs := regulation.NewRepository(db)

	client, err := NewGeminiClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rl := NewLLMRateLimiter(cfg)
	completer := NewCompleter(client, cfg, rl, rdb)
	planner := NewPlanner(client, cfg, rl)

	store, err := uploads.NewStore(cfg.UploadFolder)
	if err != nil {
		return nil, err
	}

	c := &Compliance{}
	docParser := parser.NewParser(parser.Config{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}, newOCR(ctx, cfg, c))

	uc := usecase.NewComplianceUsecase(
		usecase.NewSessionRegistry(),
		usecase.NewToolset(completer, regs, cfg.AnalysisChunkLimit),
		usecase.NewDispatcher(planner, metrics.NewDispatchMetrics(reg)),
		docParser,
		regs,
		usecase.Options{
			ResetClearsDescription: cfg.ResetClearsDescription,
			Uploads:                store,
		},
	)

	c.Usecase = uc
	c.Handler = handler.NewComplianceHandler(uc, store, uploads.Allowed, cfg.MaxUploadBytes)
	return c, nil
}

// newOCR returns the Vision OCR client, or nil when OCR is disabled or the
// client cannot be created. Without it images are rejected and scanned PDFs
// yield no text.
func newOCR(ctx context.Context, cfg config.Config, c *Compliance) parser.TextExtractor {
	if !cfg.VisionOCREnabled {
		return nil
	}
	ocr, err := vision.NewOCR(ctx)
	if err != nil {
		slog.Warn("Vision OCR unavailable. Image uploads will be rejected and scanned PDFs skipped.", "error", err)
		return nil
	}
	c.closers = append(c.closers, ocr.Close)
	return ocr
}
