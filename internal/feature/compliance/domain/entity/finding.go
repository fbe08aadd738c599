package entity

import "sort"

// ComplianceFinding is the raw LLM gap analysis for one regulation.
// RawAnalysisText is loosely formatted as SECTION|STATUS|DESCRIPTION|RISK_LEVEL lines.
type ComplianceFinding struct {
	RegulationCode  RegulationCode
	RawAnalysisText string
}

// FindingsStore keeps one finding per regulation code.
type FindingsStore struct {
	findings map[RegulationCode]ComplianceFinding
}

// Record upserts the finding for code; a previous finding is overwritten.
func (s *FindingsStore) Record(code RegulationCode, analysisText string) {
	if s.findings == nil {
		s.findings = make(map[RegulationCode]ComplianceFinding)
	}
	s.findings[code] = ComplianceFinding{RegulationCode: code, RawAnalysisText: analysisText}
}

// All returns a copy of the current findings.
func (s *FindingsStore) All() map[RegulationCode]ComplianceFinding {
	out := make(map[RegulationCode]ComplianceFinding, len(s.findings))
	for k, v := range s.findings {
		out[k] = v
	}
	return out
}

// Codes returns the analyzed regulation codes in lexical order.
func (s *FindingsStore) Codes() []RegulationCode {
	codes := make([]RegulationCode, 0, len(s.findings))
	for c := range s.findings {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// IsEmpty reports whether no regulation has been analyzed.
func (s *FindingsStore) IsEmpty() bool {
	return len(s.findings) == 0
}

// Clear removes every finding.
func (s *FindingsStore) Clear() {
	s.findings = nil
}
