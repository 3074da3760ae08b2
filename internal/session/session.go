// Package session implements the Session and SessionPool described in
// spec.md §3 and §4.7: cached per-actor state derived from an authorization
// credential, with expiry and inactivity eviction.
package session

import (
	"context"
	"sync"
	"time"
)

// Field is one named piece of per-actor state a Session holds (an auth
// handle, a DAO handle, ...). Each field knows how to check and refresh its
// own expiry (§3, §4.7).
type Field interface {
	IsExpired() bool
	Refresh(ctx context.Context) error
	Destroy()
	UpdatedAt() time.Time
}

// Session is keyed by a stable identifier (typically the auth subject or
// session-id claim) and holds a set of named Fields (§3).
type Session struct {
	ID string

	mu       sync.RWMutex
	fields   map[string]Field
	lastUsed time.Time
}

func newSession(id string, fields map[string]Field) *Session {
	return &Session{ID: id, fields: fields, lastUsed: time.Now()}
}

// Field returns a named field and whether it was present.
func (s *Session) Field(name string) (Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[name]
	return f, ok
}

// touch bumps the last-used timestamp (called by Pool.Upsert on hit).
func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *Session) lastUsedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

// isExpired reports whether any field, after one refresh attempt, still
// reports itself expired (§4.7).
func (s *Session) isExpired(ctx context.Context) bool {
	s.mu.RLock()
	fields := make([]Field, 0, len(s.fields))
	for _, f := range s.fields {
		fields = append(fields, f)
	}
	s.mu.RUnlock()

	for _, f := range fields {
		if !f.IsExpired() {
			continue
		}
		if err := f.Refresh(ctx); err != nil {
			return true
		}
		if f.IsExpired() {
			return true
		}
	}
	return false
}

func (s *Session) isInactive(threshold time.Duration) bool {
	if threshold <= 0 {
		return false
	}
	return time.Since(s.lastUsedAt()) > threshold
}

func (s *Session) destroy() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.fields {
		f.Destroy()
	}
}
