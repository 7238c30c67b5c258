// internal/draft/session.go
//
// Draft session entry.
//
// Context
// -------
// A Session is one browser's form in progress: the profile Store plus the
// ErrorMap published by its latest submit attempt.  The cache keeps a
// pointer to Session inside `entry`, along with a `lastSeen` UnixNano
// timestamp used by the evictor for idle and LRU eviction.
//
// Notes
// -----
//   - Errors are swapped wholesale through an atomic pointer, never edited.
//   - Submit attempts on one session run one at a time (Attempt).
//   - Discarding a Session drops the draft; nothing is written anywhere.
package draft

import (
	"sync"
	"sync/atomic"

	"github.com/yanizio/profileform/internal/profile"
)

type entry struct {
	session  *Session
	lastSeen int64 // UnixNano
}

// Session groups the per-browser draft state.
type Session struct {
	ID    string
	Store *profile.Store

	submit sync.Mutex
	errs   atomic.Pointer[profile.ErrorMap]
}

func newSession(id string) *Session {
	return &Session{ID: id, Store: profile.NewStore()}
}

// Errors returns the ErrorMap of the latest submit, or an empty map.
func (s *Session) Errors() profile.ErrorMap {
	if m := s.errs.Load(); m != nil {
		return *m
	}
	return profile.ErrorMap{}
}

// PublishErrors replaces the session's ErrorMap.
func (s *Session) PublishErrors(m profile.ErrorMap) {
	c := m.Clone()
	s.errs.Store(&c)
}

// Attempt runs one submit attempt.  Attempts on the same session are
// serialized.  When fn returns a non-nil map it becomes the session's
// ErrorMap; a nil map (fn failed before validating) leaves the old one.
func (s *Session) Attempt(fn func(*profile.Store) (profile.ErrorMap, error)) error {
	s.submit.Lock()
	defer s.submit.Unlock()

	m, err := fn(s.Store)
	if m != nil {
		s.PublishErrors(m)
	}
	return err
}

// Reset empties the draft and clears the ErrorMap.
func (s *Session) Reset() {
	s.submit.Lock()
	defer s.submit.Unlock()
	s.Store.Reset()
	s.PublishErrors(nil)
}
