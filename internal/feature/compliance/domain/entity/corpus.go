package entity

import "compliance_backend/internal/feature/compliance/domain"

// DocumentChunk is one piece of parsed document text.
type DocumentChunk struct {
	Content        string
	SourceMetadata map[string]string // source file, chunk index, page (opaque to the core)
}

// CompanyProfile describes the company under assessment.
type CompanyProfile struct {
	Description        string
	FilesReady         bool
	DocumentChunkCount int // 0 until processing records it
}

// CorpusStore holds the company profile and the ingested chunks of one session.
// The chunk list is insertion-ordered and unbounded.
type CorpusStore struct {
	profile        CompanyProfile
	chunks         []DocumentChunk
	filesProcessed bool
}

// SetProfile replaces the profile and starts a fresh corpus.
func (s *CorpusStore) SetProfile(description string) {
	s.profile = CompanyProfile{Description: description}
	s.chunks = nil
	s.filesProcessed = false
}

// LoadChunks appends externally parsed chunks and marks the files as processed.
// The corpus is only touched once the whole batch is accepted.
func (s *CorpusStore) LoadChunks(chunks []DocumentChunk) error {
	if len(chunks) == 0 {
		return domain.ErrEmptyInput
	}
	loaded := make([]DocumentChunk, len(chunks))
	copy(loaded, chunks)
	s.chunks = append(s.chunks, loaded...)
	s.filesProcessed = true
	s.profile.DocumentChunkCount = len(s.chunks)
	return nil
}

// ChunkCount returns the current corpus size.
func (s *CorpusStore) ChunkCount() int {
	return len(s.chunks)
}

// Prefix returns at most limit chunks in insertion order.
func (s *CorpusStore) Prefix(limit int) []DocumentChunk {
	if limit <= 0 || limit > len(s.chunks) {
		limit = len(s.chunks)
	}
	return s.chunks[:limit]
}

// Profile returns a copy of the company profile.
func (s *CorpusStore) Profile() CompanyProfile {
	return s.profile
}

// MarkFilesReady flags the profile as ready to receive uploads.
func (s *CorpusStore) MarkFilesReady() {
	s.profile.FilesReady = true
}

// RecordChunkCount stores the current corpus size on the profile.
func (s *CorpusStore) RecordChunkCount() int {
	s.profile.DocumentChunkCount = len(s.chunks)
	return s.profile.DocumentChunkCount
}

// FilesProcessed reports whether LoadChunks has completed since the last reset.
func (s *CorpusStore) FilesProcessed() bool {
	return s.filesProcessed
}

// Clear drops the corpus and the processed flag. The description is kept
// unless clearDescription is set.
func (s *CorpusStore) Clear(clearDescription bool) {
	s.chunks = nil
	s.filesProcessed = false
	s.profile.DocumentChunkCount = 0
	if clearDescription {
		s.profile = CompanyProfile{}
	}
}
