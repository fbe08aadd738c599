package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"compliance_backend/internal/feature/compliance/domain"
	"compliance_backend/internal/feature/compliance/domain/entity"
)

// Tool names exposed to the planner and to direct invocation.
const (
	ToolIngestCompanyDocuments   = "ingest_company_documents"
	ToolProcessUploadedFiles     = "process_uploaded_files"
	ToolComplianceGapAnalysis    = "compliance_gap_analysis"
	ToolGenerateComplianceReport = "generate_compliance_report"
)

const (
	// DefaultAnalysisChunkLimit is how many corpus chunks, in insertion order,
	// one gap analysis forwards to the language model.
	DefaultAnalysisChunkLimit = 15

	reportSeparatorWidth = 60
	notSpecified         = "Not specified"
	guidanceNoProcessed  = "No documents processed yet. Please upload and process files first."
)

// ToolParam describes one argument of a tool.
type ToolParam struct {
	Name        string
	Type        string // "string" or "integer"
	Description string
	Required    bool
}

// ToolSpec is the planner-facing description of a tool.
type ToolSpec struct {
	Name         string
	Description  string
	Params       []ToolParam
	ReturnDirect bool // the tool's output ends the invocation chain
}

// ToolResult is the text produced by one tool call.
type ToolResult struct {
	Output       string
	ReturnDirect bool
	Guidance     bool // a prerequisite was missing; Output tells the caller what to do
}

// ToolExecutor runs tools against one session.
type ToolExecutor interface {
	Specs() []ToolSpec
	Execute(ctx context.Context, name string, args map[string]any) (ToolResult, error)
}

var toolSpecs = []ToolSpec{
	{
		Name:        ToolIngestCompanyDocuments,
		Description: "Prepare the session to receive the company's compliance documents. Clears any previously loaded documents.",
		Params: []ToolParam{
			{Name: "company_description", Type: "string", Description: "Description of the company and its business", Required: true},
			{Name: "file_count", Type: "integer", Description: "Number of files uploaded (optional, for verification)"},
		},
	},
	{
		Name:        ToolProcessUploadedFiles,
		Description: "Confirm that uploaded files have been processed and report how many document chunks are loaded.",
	},
	{
		Name:        ToolComplianceGapAnalysis,
		Description: "Analyze the loaded company documents against a specific regulation and store the findings.",
		Params: []ToolParam{
			{Name: "regulation_type", Type: "string", Description: "Type of regulation (GDPR, NIST, HIPAA, ISO27001)", Required: true},
		},
	},
	{
		Name:         ToolGenerateComplianceReport,
		Description:  "Generate the comprehensive compliance assessment report from all stored analyses.",
		ReturnDirect: true,
	},
}

// Toolset implements the four compliance tools. Each tool reads and mutates
// the session it is given; analysis and report generation call the language model once.
type Toolset struct {
	llm         Completer
	regulations RegulationProvider
	chunkLimit  int
	now         func() time.Time
}

// NewToolset creates a Toolset. A non-positive chunkLimit uses DefaultAnalysisChunkLimit.
func NewToolset(llm Completer, regulations RegulationProvider, chunkLimit int) *Toolset {
	if chunkLimit <= 0 {
		chunkLimit = DefaultAnalysisChunkLimit
	}
	return &Toolset{llm: llm, regulations: regulations, chunkLimit: chunkLimit, now: time.Now}
}

// ChunkLimit returns the analysis chunk cap in effect.
func (t *Toolset) ChunkLimit() int {
	return t.chunkLimit
}

// Bind returns an executor whose tools operate on s.
func (t *Toolset) Bind(s *entity.Session) ToolExecutor {
	return &boundTools{toolset: t, session: s}
}

// IngestCompanyDocuments stores the company description and starts a fresh corpus.
// An empty description is accepted here; the operation boundary rejects it.
func (t *Toolset) IngestCompanyDocuments(_ context.Context, s *entity.Session, description string, fileCount int) (ToolResult, error) {
	s.Corpus.SetProfile(description)
	s.Corpus.MarkFilesReady()
	if err := s.Advance(entity.StageIngested); err != nil {
		return ToolResult{}, err
	}

	expect := ""
	if fileCount > 0 {
		expect = fmt.Sprintf("Expecting %d uploaded file(s).\n", fileCount)
	}
	return ToolResult{Output: fmt.Sprintf(ingestionReadyTemplate, description, expect)}, nil
}

// ProcessUploadedFiles confirms that processed chunks are loaded and records their count.
func (t *Toolset) ProcessUploadedFiles(_ context.Context, s *entity.Session) (ToolResult, error) {
	if !s.Corpus.FilesProcessed() {
		return ToolResult{Output: entity.GuidanceNotProcessed, Guidance: true}, nil
	}
	if s.Corpus.ChunkCount() == 0 {
		return ToolResult{Output: guidanceNoProcessed, Guidance: true}, nil
	}
	total := s.Corpus.RecordChunkCount()
	return ToolResult{
		Output: fmt.Sprintf("Successfully processed %d document chunks from uploaded files. Ready for compliance analysis.", total),
	}, nil
}

// ComplianceGapAnalysis analyzes the first ChunkLimit corpus chunks against
// regulationType and upserts the finding under the uppercased code.
func (t *Toolset) ComplianceGapAnalysis(ctx context.Context, s *entity.Session, regulationType string) (ToolResult, error) {
	if guidance, ok := guidanceFor(s.CheckTransition(entity.StageAnalyzed)); ok {
		return guidance, nil
	}

	code := entity.NormalizeRegulationCode(regulationType)
	requirements, err := t.regulations.Requirements(ctx, code)
	if err != nil {
		return ToolResult{}, fmt.Errorf("%w: requirements for %s: %w", domain.ErrCollaborator, code, err)
	}

	chunks := s.Corpus.Prefix(t.chunkLimit)
	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}

	description := s.Corpus.Profile().Description
	if description == "" {
		description = "Not provided"
	}
	prompt := fmt.Sprintf(gapAnalysisPromptTemplate, code, requirements, strings.Join(contents, "\n"), description)

	analysis, err := t.llm.Complete(ctx, prompt)
	if err != nil {
		return ToolResult{}, fmt.Errorf("%w: %s gap analysis: %w", domain.ErrCollaborator, code, err)
	}

	s.Findings.Record(code, analysis)
	if err := s.Advance(entity.StageAnalyzed); err != nil {
		return ToolResult{}, err
	}
	return ToolResult{
		Output: fmt.Sprintf("Completed %s gap analysis using %d company document chunks. Results stored for report generation.", code, len(chunks)),
	}, nil
}

// GenerateComplianceReport synthesizes all findings into one report. Its result
// is terminal for the invocation chain.
func (t *Toolset) GenerateComplianceReport(ctx context.Context, s *entity.Session) (ToolResult, error) {
	if guidance, ok := guidanceFor(s.CheckTransition(entity.StageReported)); ok {
		return guidance, nil
	}

	codes := s.Findings.Codes()
	findings := s.Findings.All()
	var summary strings.Builder
	for _, code := range codes {
		fmt.Fprintf(&summary, "\n\n=== %s ANALYSIS ===\n%s", code, findings[code].RawAnalysisText)
	}

	profile := s.Corpus.Profile()
	chunkCount := notSpecified
	if profile.DocumentChunkCount > 0 {
		chunkCount = strconv.Itoa(profile.DocumentChunkCount)
	}
	company := profile.Description
	if company == "" {
		company = "Company under assessment"
	}

	report, err := t.llm.Complete(ctx, fmt.Sprintf(reportPromptTemplate, company, chunkCount, summary.String()))
	if err != nil {
		return ToolResult{}, fmt.Errorf("%w: report synthesis: %w", domain.ErrCollaborator, err)
	}

	generatedFor := profile.Description
	if generatedFor == "" {
		generatedFor = "Unknown Company"
	}
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = string(c)
	}
	header := fmt.Sprintf(reportHeaderTemplate,
		generatedFor,
		strings.Join(names, ", "),
		chunkCount,
		t.now().Format("2006-01-02"),
		strings.Repeat("=", reportSeparatorWidth),
	)

	if err := s.Advance(entity.StageReported); err != nil {
		return ToolResult{}, err
	}
	return ToolResult{Output: header + report, ReturnDirect: true}, nil
}

// guidanceFor converts a state-unavailable transition error into guidance output.
func guidanceFor(err error) (ToolResult, bool) {
	var unavailable *entity.StateUnavailableError
	if errors.As(err, &unavailable) {
		return ToolResult{Output: unavailable.Guidance, Guidance: true}, true
	}
	return ToolResult{}, false
}

// boundTools is a ToolExecutor over one session.
type boundTools struct {
	toolset *Toolset
	session *entity.Session
}

var _ ToolExecutor = (*boundTools)(nil)

func (b *boundTools) Specs() []ToolSpec {
	out := make([]ToolSpec, len(toolSpecs))
	copy(out, toolSpecs)
	return out
}

// Execute dispatches a tool by name. Arguments follow the JSON conventions of
// planner output: numbers may arrive as float64 or numeric strings.
func (b *boundTools) Execute(ctx context.Context, name string, args map[string]any) (ToolResult, error) {
	switch name {
	case ToolIngestCompanyDocuments:
		fileCount, err := intArg(args, "file_count")
		if err != nil {
			return ToolResult{}, err
		}
		return b.toolset.IngestCompanyDocuments(ctx, b.session, stringArg(args, "company_description"), fileCount)
	case ToolProcessUploadedFiles:
		return b.toolset.ProcessUploadedFiles(ctx, b.session)
	case ToolComplianceGapAnalysis:
		return b.toolset.ComplianceGapAnalysis(ctx, b.session, stringArg(args, "regulation_type"))
	case ToolGenerateComplianceReport:
		return b.toolset.GenerateComplianceReport(ctx, b.session)
	default:
		return ToolResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownTool, name)
	}
}

func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func intArg(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		if n == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInputValidation, key)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInputValidation, key)
	}
}
