package usecase

import (
	"sync"

	"compliance_backend/internal/feature/compliance/domain/entity"
)

// DefaultSessionID is used when a caller does not supply a session identifier.
const DefaultSessionID = "default"

// SessionRegistry holds the live sessions of the process, keyed by caller-supplied
// identifier. Every session has its own lock; operations on one session are
// serialized while different sessions proceed independently.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	uploads  map[string][]string
}

type sessionEntry struct {
	mu      sync.Mutex
	session *entity.Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*sessionEntry),
		uploads:  make(map[string][]string),
	}
}

func normalizeID(id string) string {
	if id == "" {
		return DefaultSessionID
	}
	return id
}

func (r *SessionRegistry) entry(id string, create bool) *sessionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok && create {
		e = &sessionEntry{session: entity.NewSession(id)}
		r.sessions[id] = e
	}
	return e
}

// With runs fn on the session under its lock. When create is set the session
// is created on first use; otherwise With reports false for unknown ids.
func (r *SessionRegistry) With(id string, create bool, fn func(*entity.Session)) bool {
	e := r.entry(normalizeID(id), create)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.session)
	return true
}

// Exists reports whether the session has been initialized.
func (r *SessionRegistry) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[normalizeID(id)]
	return ok
}

// Len returns the number of initialized sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StageUploads records uploaded file paths for id. Uploads may precede the
// session's initialization.
func (r *SessionRegistry) StageUploads(id string, paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id = normalizeID(id)
	r.uploads[id] = append(r.uploads[id], paths...)
}

// ClearUploads forgets the staged paths for id.
func (r *SessionRegistry) ClearUploads(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.uploads, normalizeID(id))
}

// RemoveUploads forgets the given staged paths for id and keeps the rest.
func (r *SessionRegistry) RemoveUploads(id string, paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id = normalizeID(id)
	drop := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		drop[p] = struct{}{}
	}
	var kept []string
	for _, p := range r.uploads[id] {
		if _, ok := drop[p]; !ok {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		delete(r.uploads, id)
		return
	}
	r.uploads[id] = kept
}

// PendingUploads returns a copy of the staged paths for id.
func (r *SessionRegistry) PendingUploads(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := r.uploads[normalizeID(id)]
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}
