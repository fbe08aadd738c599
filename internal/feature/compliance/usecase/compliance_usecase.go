package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"compliance_backend/internal/feature/compliance/domain"
	"compliance_backend/internal/feature/compliance/domain/entity"
)

const (
	msgDescriptionRequired = "Company description is required"
	msgNotInitialized      = "Session not initialized. Please set up ingestion first."
	msgNoFilesUploaded     = "No files uploaded. Please upload files first."
	msgNoTextExtracted     = "No text could be extracted from the uploaded files."
	msgResetDone           = "Compliance session reset successfully"
	msgAgentWorking        = "Agent is working properly"

	testAgentDescription = "Test company - A technology company"
)

// Options tunes the session lifecycle.
type Options struct {
	// ResetClearsDescription makes Reset also forget the company description.
	// By default the description survives a reset.
	ResetClearsDescription bool

	// Uploads, when set, deletes staged files after processing and on reset.
	Uploads UploadRemover
}

// ComplianceUsecase is the entry point of the compliance workflow. Every method
// returns an OperationResult; internal errors never leave it unconverted.
type ComplianceUsecase struct {
	sessions   *SessionRegistry
	tools      *Toolset
	dispatcher *Dispatcher
	parser     DocumentParser
	catalog    RegulationCatalog
	opts       Options
}

// NewComplianceUsecase wires the registry, tool set, dispatcher and collaborators.
func NewComplianceUsecase(sessions *SessionRegistry, tools *Toolset, dispatcher *Dispatcher,
	parser DocumentParser, catalog RegulationCatalog, opts Options) *ComplianceUsecase {
	return &ComplianceUsecase{
		sessions:   sessions,
		tools:      tools,
		dispatcher: dispatcher,
		parser:     parser,
		catalog:    catalog,
		opts:       opts,
	}
}

// Initialized reports whether any session has been set up in this process.
func (u *ComplianceUsecase) Initialized() bool {
	return u.sessions.Len() > 0
}

// StageUploads records validated upload paths for a session. Files echoes the
// stored base names.
func (u *ComplianceUsecase) StageUploads(_ context.Context, sessionID string, paths []string) entity.OperationResult {
	u.sessions.StageUploads(sessionID, paths...)
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return entity.OperationResult{
		Success: true,
		Files:   names,
		Message: fmt.Sprintf("Successfully uploaded %d files", len(paths)),
	}
}

// SetupIngestion creates the session on first use and dispatches the ingestion intent.
func (u *ComplianceUsecase) SetupIngestion(ctx context.Context, sessionID, description string) entity.OperationResult {
	description = strings.TrimSpace(description)
	if description == "" {
		return inputError(msgDescriptionRequired)
	}

	intent := Intent{
		Operation: "setup ingestion",
		Prompt:    "Set up document ingestion for " + description,
		Fallback: ToolCall{
			Name: ToolIngestCompanyDocuments,
			Args: map[string]any{"company_description": description},
		},
		DefaultOutput: "Document ingestion setup complete",
	}

	var out Outcome
	u.sessions.With(sessionID, true, func(s *entity.Session) {
		out = u.dispatcher.Dispatch(ctx, u.tools.Bind(s), intent)
	})
	res := fromOutcome(out, intent.Operation)
	res.Message = out.Output
	return res
}

// ProcessFiles parses the staged uploads and loads their chunks into the corpus.
func (u *ComplianceUsecase) ProcessFiles(ctx context.Context, sessionID string) entity.OperationResult {
	if !u.sessions.Exists(sessionID) {
		return stateError(msgNotInitialized)
	}
	paths := u.sessions.PendingUploads(sessionID)
	if len(paths) == 0 {
		return inputError(msgNoFilesUploaded)
	}

	var res entity.OperationResult
	found := u.sessions.With(sessionID, false, func(s *entity.Session) {
		if err := s.CheckTransition(entity.StageProcessed); err != nil {
			res = resultFromStateErr(err)
			return
		}

		chunks, err := u.parser.Parse(ctx, paths)
		if err != nil {
			slog.Error("document parsing failed", "session", s.ID, "files", len(paths), "error", err)
			res = failure(describeError(fmt.Errorf("%w: %w", domain.ErrCollaborator, err), "file processing"))
			return
		}
		if err := s.Corpus.LoadChunks(chunks); err != nil {
			if errors.Is(err, domain.ErrEmptyInput) {
				res = inputError(msgNoTextExtracted)
				return
			}
			res = failure(describeError(err, "file processing"))
			return
		}
		if err := s.Advance(entity.StageProcessed); err != nil {
			res = resultFromStateErr(err)
			return
		}

		u.discardPaths(sessionID, paths)
		total := s.Corpus.ChunkCount()
		slog.Info("documents loaded", "session", s.ID, "files", len(paths), "chunks", total)
		res = entity.OperationResult{
			Success: true,
			Chunks:  total,
			Message: fmt.Sprintf("Successfully processed %d document chunks", total),
		}
	})
	if !found {
		return stateError(msgNotInitialized)
	}
	return res
}

// Analyze validates the regulation code and dispatches the gap analysis intent.
// Unknown codes are rejected before any tool runs.
func (u *ComplianceUsecase) Analyze(ctx context.Context, sessionID, regulation string) entity.OperationResult {
	code, err := entity.ParseRegulationCode(regulation)
	if err != nil {
		return inputError("Invalid regulation type. Must be one of: " + entity.SupportedRegulationList())
	}

	intent := Intent{
		Operation: fmt.Sprintf("%s analysis", code),
		Prompt:    fmt.Sprintf("Analyze against %s", code),
		Fallback: ToolCall{
			Name: ToolComplianceGapAnalysis,
			Args: map[string]any{"regulation_type": string(code)},
		},
		DefaultOutput: fmt.Sprintf("%s analysis completed", code),
	}

	var out Outcome
	if !u.sessions.With(sessionID, false, func(s *entity.Session) {
		out = u.dispatcher.Dispatch(ctx, u.tools.Bind(s), intent)
	}) {
		return stateError(msgNotInitialized)
	}

	res := fromOutcome(out, intent.Operation)
	res.Message = out.Output
	if res.Success {
		res.Regulation = code
	}
	return res
}

// GenerateReport dispatches the report intent.
func (u *ComplianceUsecase) GenerateReport(ctx context.Context, sessionID string) entity.OperationResult {
	intent := Intent{
		Operation:     "report generation",
		Prompt:        "Generate comprehensive compliance report",
		Fallback:      ToolCall{Name: ToolGenerateComplianceReport, Args: map[string]any{}},
		DefaultOutput: "Report generation completed",
	}

	var out Outcome
	if !u.sessions.With(sessionID, false, func(s *entity.Session) {
		out = u.dispatcher.Dispatch(ctx, u.tools.Bind(s), intent)
	}) {
		return stateError(msgNotInitialized)
	}

	res := fromOutcome(out, intent.Operation)
	res.Report = out.Output
	return res
}

// Status returns a snapshot of the session. Unknown sessions report Initialized=false.
func (u *ComplianceUsecase) Status(_ context.Context, sessionID string) entity.Status {
	var st entity.Status
	u.sessions.With(sessionID, false, func(s *entity.Session) {
		st = s.Snapshot()
	})
	return st
}

// Reset clears corpus, findings, the processed flag and staged uploads.
func (u *ComplianceUsecase) Reset(_ context.Context, sessionID string) entity.OperationResult {
	u.sessions.With(sessionID, false, func(s *entity.Session) {
		s.Reset(u.opts.ResetClearsDescription)
	})
	u.discardUploads(sessionID)
	return entity.OperationResult{Success: true, Message: msgResetDone}
}

// discardUploads forgets every staged path of a session and removes the files.
func (u *ComplianceUsecase) discardUploads(sessionID string) {
	paths := u.sessions.PendingUploads(sessionID)
	u.sessions.ClearUploads(sessionID)
	u.removeFiles(sessionID, paths)
}

// discardPaths forgets only the given staged paths. Uploads staged after
// paths was read stay pending.
func (u *ComplianceUsecase) discardPaths(sessionID string, paths []string) {
	u.sessions.RemoveUploads(sessionID, paths...)
	u.removeFiles(sessionID, paths)
}

func (u *ComplianceUsecase) removeFiles(sessionID string, paths []string) {
	if u.opts.Uploads == nil || len(paths) == 0 {
		return
	}
	if err := u.opts.Uploads.Remove(paths...); err != nil {
		slog.Warn("failed to remove staged uploads", "session", sessionID, "error", err)
	}
}

// TestAgent runs the ingestion tool directly against a scratch session, leaving
// live sessions untouched.
func (u *ComplianceUsecase) TestAgent(ctx context.Context) entity.OperationResult {
	if !u.Initialized() {
		return stateError("Agent not initialized")
	}
	scratch := entity.NewSession("test-agent")
	out, err := u.tools.Bind(scratch).Execute(ctx, ToolIngestCompanyDocuments,
		map[string]any{"company_description": testAgentDescription})
	if err != nil {
		return failure(describeError(err, "agent test"))
	}
	return entity.OperationResult{Success: true, Message: msgAgentWorking, Detail: out.Output}
}

// AvailableRegulations lists the supported regulations with catalogue metadata.
func (u *ComplianceUsecase) AvailableRegulations(ctx context.Context) ([]entity.Regulation, error) {
	all, err := u.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list regulations: %w", err)
	}
	byCode := make(map[entity.RegulationCode]entity.Regulation, len(all))
	for _, r := range all {
		byCode[r.Code] = r
	}
	out := make([]entity.Regulation, 0, len(entity.SupportedRegulations))
	for _, code := range entity.SupportedRegulations {
		if r, ok := byCode[code]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, entity.Regulation{Code: code, Name: string(code)})
	}
	return out, nil
}

func fromOutcome(out Outcome, operation string) entity.OperationResult {
	if out.Path == entity.PathFailed {
		res := failure(describeError(out.Err, operation))
		res.Path = out.Path
		return res
	}
	return entity.OperationResult{Success: true, Path: out.Path}
}

func resultFromStateErr(err error) entity.OperationResult {
	var unavailable *entity.StateUnavailableError
	if errors.As(err, &unavailable) {
		return stateError(unavailable.Guidance)
	}
	return failure(describeError(err, "session update"))
}

func inputError(msg string) entity.OperationResult {
	return entity.OperationResult{Error: msg, Kind: entity.KindInput}
}

func stateError(msg string) entity.OperationResult {
	return entity.OperationResult{Error: msg, Kind: entity.KindState}
}

func failure(msg string) entity.OperationResult {
	return entity.OperationResult{Error: msg, Kind: entity.KindFailure}
}
