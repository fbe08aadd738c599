// Package handler はcomplianceフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"compliance_backend/internal/feature/compliance/domain/entity"
	"compliance_backend/internal/feature/compliance/transport/http/dto"
	"compliance_backend/internal/feature/compliance/usecase"
)

const (
	// SessionHeader selects the session an operation applies to.
	SessionHeader = "X-Session-ID"

	// DefaultMaxUploadBytes is the request size cap of /upload.
	DefaultMaxUploadBytes int64 = 50 << 20

	msgNoFiles        = "No files provided"
	msgUploadFailed   = "Failed to store uploaded files"
	msgCatalogueError = "Failed to load the regulation catalogue"
)

// ComplianceUsecase はコンプライアンス評価ワークフローのユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ComplianceUsecase interface {
	Initialized() bool
	StageUploads(ctx context.Context, sessionID string, paths []string) entity.OperationResult
	SetupIngestion(ctx context.Context, sessionID, description string) entity.OperationResult
	ProcessFiles(ctx context.Context, sessionID string) entity.OperationResult
	Analyze(ctx context.Context, sessionID, regulation string) entity.OperationResult
	GenerateReport(ctx context.Context, sessionID string) entity.OperationResult
	Status(ctx context.Context, sessionID string) entity.Status
	Reset(ctx context.Context, sessionID string) entity.OperationResult
	TestAgent(ctx context.Context) entity.OperationResult
	AvailableRegulations(ctx context.Context) ([]entity.Regulation, error)
}

// UploadStore persists uploaded files and returns their paths.
type UploadStore interface {
	Save(name string, r io.Reader) (string, error)
}

// ComplianceHandler はコンプライアンス評価のHTTPリクエストを処理します。
type ComplianceHandler struct {
	uc             ComplianceUsecase
	store          UploadStore
	allowed        func(name string) bool
	maxUploadBytes int64
}

// NewComplianceHandler creates a ComplianceHandler. allowed filters upload file
// names; a non-positive maxUploadBytes uses DefaultMaxUploadBytes.
func NewComplianceHandler(uc ComplianceUsecase, store UploadStore, allowed func(string) bool, maxUploadBytes int64) *ComplianceHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if allowed == nil {
		allowed = func(string) bool { return true }
	}
	return &ComplianceHandler{uc: uc, store: store, allowed: allowed, maxUploadBytes: maxUploadBytes}
}

// tooLargeMessage reports the upload cap in MB when it is a whole number of
// megabytes and in bytes otherwise.
func tooLargeMessage(maxBytes int64) string {
	if maxBytes%(1<<20) == 0 {
		return fmt.Sprintf("File too large. Maximum size is %dMB.", maxBytes>>20)
	}
	return fmt.Sprintf("File too large. Maximum size is %d bytes.", maxBytes)
}

func sessionID(c *gin.Context) string {
	if id := c.GetHeader(SessionHeader); id != "" {
		return id
	}
	return usecase.DefaultSessionID
}

// NewSession allocates a session identifier for the X-Session-ID header.
//
// エンドポイント: POST /sessions
func (h *ComplianceHandler) NewSession(c *gin.Context) {
	c.JSON(http.StatusCreated, dto.SessionResponse{Success: true, SessionID: uuid.NewString()})
}

// Upload stores multipart "files" and stages them for processing. Files with
// unsupported extensions are skipped.
//
// エンドポイント: POST /upload
// Content-Type: multipart/form-data
// フィールド: files（複数可、合計はMAX_CONTENT_LENGTHまで）
func (h *ComplianceHandler) Upload(c *gin.Context) {
	if c.Request.ContentLength > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: tooLargeMessage(h.maxUploadBytes)})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: tooLargeMessage(h.maxUploadBytes)})
			return
		}
		slog.Warn("multipart form rejected", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgNoFiles})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgNoFiles})
		return
	}

	paths := make([]string, 0, len(files))
	for _, fh := range files {
		if fh.Filename == "" {
			continue
		}
		if !h.allowed(fh.Filename) {
			slog.Warn("upload skipped: file type not allowed", "file", fh.Filename)
			continue
		}
		path, err := h.save(fh)
		if err != nil {
			slog.Error("failed to store upload", "file", fh.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: msgUploadFailed})
			return
		}
		paths = append(paths, path)
	}

	h.respond(c, h.uc.StageUploads(c.Request.Context(), sessionID(c), paths))
}

func (h *ComplianceHandler) save(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close upload", "file", fh.Filename, "error", err)
		}
	}()
	return h.store.Save(fh.Filename, f)
}

// SetupIngestion records the company description for the session.
//
// エンドポイント: POST /setup_ingestion
// Content-Type: application/json
func (h *ComplianceHandler) SetupIngestion(c *gin.Context) {
	var req dto.SetupIngestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("setup ingestion request rejected", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Company description is required"})
		return
	}
	h.respond(c, h.uc.SetupIngestion(c.Request.Context(), sessionID(c), req.CompanyDescription))
}

// ProcessFiles parses the staged uploads.
//
// エンドポイント: POST /process_files
func (h *ComplianceHandler) ProcessFiles(c *gin.Context) {
	h.respond(c, h.uc.ProcessFiles(c.Request.Context(), sessionID(c)))
}

// Analyze runs a gap analysis for the :regulation path parameter.
//
// エンドポイント: POST /analyze/:regulation
func (h *ComplianceHandler) Analyze(c *gin.Context) {
	h.respond(c, h.uc.Analyze(c.Request.Context(), sessionID(c), c.Param("regulation")))
}

// AnalyzeGDPR is the backward-compatible GDPR shortcut.
//
// エンドポイント: POST /analyze_gdpr
func (h *ComplianceHandler) AnalyzeGDPR(c *gin.Context) {
	h.respond(c, h.uc.Analyze(c.Request.Context(), sessionID(c), string(entity.RegulationGDPR)))
}

// GenerateReport synthesizes the compliance report.
//
// エンドポイント: POST /generate_report
func (h *ComplianceHandler) GenerateReport(c *gin.Context) {
	h.respond(c, h.uc.GenerateReport(c.Request.Context(), sessionID(c)))
}

// Status reports the session's progress.
//
// エンドポイント: GET /status
func (h *ComplianceHandler) Status(c *gin.Context) {
	st := h.uc.Status(c.Request.Context(), sessionID(c))
	if !st.Initialized {
		c.JSON(http.StatusOK, dto.StatusResponse{
			Success:             true,
			Message:             "Agent not initialized",
			RegulationsAnalyzed: []string{},
		})
		return
	}

	regs := make([]string, len(st.RegulationsAnalyzed))
	for i, r := range st.RegulationsAnalyzed {
		regs[i] = string(r)
	}
	c.JSON(http.StatusOK, dto.StatusResponse{
		Success:             true,
		AgentInitialized:    true,
		CompanyDescription:  st.CompanyDescription,
		FilesProcessed:      st.FilesProcessed,
		DocumentChunks:      st.DocumentChunks,
		RegulationsAnalyzed: regs,
		ReadyForReport:      st.ReadyForReport,
		Stage:               st.Stage.String(),
	})
}

// Reset clears the session's documents, findings and staged uploads.
//
// エンドポイント: POST /reset
func (h *ComplianceHandler) Reset(c *gin.Context) {
	h.respond(c, h.uc.Reset(c.Request.Context(), sessionID(c)))
}

// TestAgent smoke-tests the ingestion tool.
//
// エンドポイント: GET /test_agent
func (h *ComplianceHandler) TestAgent(c *gin.Context) {
	h.respond(c, h.uc.TestAgent(c.Request.Context()))
}

// AvailableRegulations lists the supported regulations.
//
// エンドポイント: GET /available_regulations
func (h *ComplianceHandler) AvailableRegulations(c *gin.Context) {
	regs, err := h.uc.AvailableRegulations(c.Request.Context())
	if err != nil {
		slog.Error("failed to list regulations", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: msgCatalogueError})
		return
	}
	out := make([]dto.RegulationResponse, 0, len(regs))
	for _, r := range regs {
		out = append(out, dto.RegulationResponse{
			Code:        string(r.Code),
			Name:        r.Name,
			Description: r.Description,
		})
	}
	c.JSON(http.StatusOK, dto.RegulationsResponse{Success: true, Regulations: out})
}

// respond writes an OperationResult with the status code of its error kind.
func (h *ComplianceHandler) respond(c *gin.Context, res entity.OperationResult) {
	if !res.Success {
		status := statusFor(res.Kind)
		if status >= http.StatusInternalServerError {
			slog.Error("operation failed", "path", c.FullPath(), "error", res.Error)
		} else {
			slog.Warn("operation rejected", "path", c.FullPath(), "error", res.Error)
		}
		c.JSON(status, dto.ErrorResponse{Error: res.Error})
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{
		Success:    true,
		Message:    res.Message,
		Regulation: string(res.Regulation),
		Report:     res.Report,
		Chunks:     res.Chunks,
		Files:      res.Files,
		TestResult: res.Detail,
		Path:       string(res.Path),
	})
}

func statusFor(kind entity.ErrorKind) int {
	switch kind {
	case entity.KindInput:
		return http.StatusBadRequest
	case entity.KindState:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
