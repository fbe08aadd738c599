// Package parser extracts text from uploaded compliance documents and splits
// it into chunks for the session corpus.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/sync/errgroup"

	"compliance_backend/internal/feature/compliance/domain/entity"
	"compliance_backend/internal/feature/compliance/usecase"
)

// ErrUnsupportedFormat is returned for file types the parser cannot read.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ErrOCRUnavailable is returned for images when no OCR backend is configured.
var ErrOCRUnavailable = errors.New("OCR is not configured")

// TextExtractor reads text out of scanned PDFs and images.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Config holds chunking and concurrency settings.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Concurrency  int
}

// Parser turns files into document chunks. Files are read in parallel; the
// output keeps the order of the input paths.
type Parser struct {
	cfg      Config
	ocr      TextExtractor
	splitter textsplitter.TextSplitter
}

var _ usecase.DocumentParser = (*Parser)(nil)

const mimeTypePDF = "application/pdf"

var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// NewParser creates a Parser. ocr may be nil, in which case images are rejected
// and PDFs are read from their text layer only.
func NewParser(cfg Config, ocr TextExtractor) *Parser {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Parser{cfg: cfg, ocr: ocr, splitter: newSplitter(cfg.ChunkSize, cfg.ChunkOverlap)}
}

// Parse reads every path and returns the chunks of all files. Any unreadable
// file fails the whole batch; files without text contribute no chunks.
func (p *Parser) Parse(ctx context.Context, paths []string) ([]entity.DocumentChunk, error) {
	perFile := make([][]entity.DocumentChunk, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			chunks, err := p.parseFile(ctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			perFile[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []entity.DocumentChunk
	for _, chunks := range perFile {
		out = append(out, chunks...)
	}
	return out, nil
}

func (p *Parser) parseFile(ctx context.Context, path string) ([]entity.DocumentChunk, error) {
	text, err := p.extract(ctx, path)
	if err != nil {
		return nil, err
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	parts, err := splitWith(p.splitter, text)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		slog.Warn("no text extracted from document", "file", filepath.Base(path))
		return nil, nil
	}

	chunks := make([]entity.DocumentChunk, len(parts))
	for i, part := range parts {
		chunks[i] = entity.DocumentChunk{
			Content: part,
			SourceMetadata: map[string]string{
				"source":      filepath.Base(path),
				"file_type":   ext,
				"chunk_index": strconv.Itoa(i),
			},
		}
	}
	return chunks, nil
}

func (p *Parser) extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		return string(data), nil
	case ".docx":
		return extractDocx(data)
	case ".pdf":
		return p.extractPDF(ctx, path, data)
	}

	mimeType, ok := mimeTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if p.ocr == nil {
		return "", fmt.Errorf("%w: cannot read %s files", ErrOCRUnavailable, ext)
	}
	return p.ocr.ExtractText(ctx, data, mimeType)
}

// extractPDF prefers the embedded text layer and falls back to OCR for
// scanned documents.
func (p *Parser) extractPDF(ctx context.Context, path string, data []byte) (string, error) {
	name := filepath.Base(path)
	text, pages, err := extractPDFText(data)
	if err == nil && text != "" {
		return text, nil
	}
	if p.ocr == nil {
		if err != nil {
			return "", err
		}
		slog.Warn("pdf has no text layer and OCR is disabled", "file", name, "pages", pages)
		return "", nil
	}
	if err != nil {
		slog.Warn("pdf text extraction failed, using OCR", "file", name, "error", err)
	} else {
		slog.Info("pdf has no text layer, using OCR", "file", name, "pages", pages)
	}
	return p.ocr.ExtractText(ctx, data, mimeTypePDF)
}
