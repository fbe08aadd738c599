package entity

import (
	"fmt"

	"compliance_backend/internal/feature/compliance/domain"
)

// Stage is the position of a session in the assessment workflow.
type Stage int

const (
	StageEmpty Stage = iota
	StageIngested
	StageProcessed
	StageAnalyzed
	StageReported
)

func (s Stage) String() string {
	switch s {
	case StageEmpty:
		return "empty"
	case StageIngested:
		return "ingested"
	case StageProcessed:
		return "processed"
	case StageAnalyzed:
		return "analyzed"
	case StageReported:
		return "reported"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StateUnavailableError is returned for a workflow transition whose prerequisite
// state does not exist yet. Guidance is the text shown to the caller.
type StateUnavailableError struct {
	From     Stage
	To       Stage
	Guidance string
}

func (e *StateUnavailableError) Error() string {
	return fmt.Sprintf("cannot move session from %s to %s: %s", e.From, e.To, e.Guidance)
}

// Is lets errors.Is match domain.ErrStateUnavailable.
func (e *StateUnavailableError) Is(target error) bool {
	return target == domain.ErrStateUnavailable
}

// Guidance texts for transitions that are not yet possible.
const (
	GuidanceNotIngested  = "No company documents loaded. Please set up ingestion with a company description first."
	GuidanceNotProcessed = "Files not yet processed. Please upload your documents and process them first."
	GuidanceNoDocuments  = "No company documents loaded. Please upload and process files first using ingest_company_documents and process_uploaded_files."
	GuidanceNoFindings   = "No compliance analysis data available. Please run gap analysis for at least one regulation first."
)

// Session is the mutable state of one company's compliance workflow.
// It is not safe for concurrent use; callers serialize access per session.
type Session struct {
	ID       string
	Corpus   CorpusStore
	Findings FindingsStore

	stage Stage
}

// NewSession returns an empty session.
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Stage returns the current workflow stage.
func (s *Session) Stage() Stage {
	return s.stage
}

// CheckTransition reports whether the session may move to next.
//
//	Ingested  <- any stage (ingestion starts a fresh corpus)
//	Processed <- Ingested or later
//	Analyzed  <- a non-empty corpus that has been processed
//	Reported  <- at least one finding
func (s *Session) CheckTransition(next Stage) error {
	switch next {
	case StageEmpty, StageIngested:
		return nil
	case StageProcessed:
		if s.stage < StageIngested {
			return &StateUnavailableError{From: s.stage, To: next, Guidance: GuidanceNotIngested}
		}
	case StageAnalyzed:
		if !s.Corpus.FilesProcessed() || s.Corpus.ChunkCount() == 0 {
			return &StateUnavailableError{From: s.stage, To: next, Guidance: GuidanceNoDocuments}
		}
	case StageReported:
		if s.Findings.IsEmpty() {
			return &StateUnavailableError{From: s.stage, To: next, Guidance: GuidanceNoFindings}
		}
	default:
		return fmt.Errorf("unknown stage %d", int(next))
	}
	return nil
}

// Advance moves the session to next when CheckTransition allows it. Only
// StageIngested and StageEmpty move a session backwards; reprocessing an
// analyzed session keeps it analyzed.
func (s *Session) Advance(next Stage) error {
	if err := s.CheckTransition(next); err != nil {
		return err
	}
	if next > s.stage || next <= StageIngested {
		s.stage = next
	}
	return nil
}

// Reset clears corpus, findings and the processed flag.
// The session object itself survives so a new ingestion can reuse it.
func (s *Session) Reset(clearDescription bool) {
	s.Corpus.Clear(clearDescription)
	s.Findings.Clear()
	if clearDescription || s.stage == StageEmpty {
		s.stage = StageEmpty
		return
	}
	s.stage = StageIngested
}

// Snapshot builds the status view of the session.
func (s *Session) Snapshot() Status {
	profile := s.Corpus.Profile()
	desc := profile.Description
	if desc == "" {
		desc = DescriptionNotSet
	}
	return Status{
		Initialized:         true,
		CompanyDescription:  desc,
		FilesProcessed:      s.Corpus.FilesProcessed(),
		DocumentChunks:      s.Corpus.ChunkCount(),
		RegulationsAnalyzed: s.Findings.Codes(),
		ReadyForReport:      !s.Findings.IsEmpty(),
		Stage:               s.stage,
	}
}

// DescriptionNotSet is reported when no company description is known.
const DescriptionNotSet = "Not set"

// Status is a read-only snapshot of a session.
type Status struct {
	Initialized         bool
	CompanyDescription  string
	FilesProcessed      bool
	DocumentChunks      int
	RegulationsAnalyzed []RegulationCode
	ReadyForReport      bool
	Stage               Stage
}
