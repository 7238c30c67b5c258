// internal/profile/store.go
//
// Form state store.
//
// Context
//   Store holds the current Draft behind an atomic pointer.  Writers are
//   serialized by a mutex, build a new Draft from the current one, and
//   publish it with a single pointer swap.  Readers never lock and always
//   see a complete snapshot.
//
//------------------------------------------------------------------------------

package profile

import (
	"sync"
	"sync/atomic"
)

// Store is safe for concurrent use.  The zero value is an empty store.
type Store struct {
	mu  sync.Mutex
	cur atomic.Pointer[Draft]
}

// NewStore returns a store seeded with the empty draft.
func NewStore() *Store { return &Store{} }

// Snapshot returns the current draft.
func (s *Store) Snapshot() Draft {
	if d := s.cur.Load(); d != nil {
		return *d
	}
	return Draft{}
}

// SetField overwrites a top-level scalar field by name.
func (s *Store) SetField(name, value string) (Draft, error) {
	f, err := ParseField(name)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.update(func(d Draft) (Draft, error) { return d.SetField(f, value) })
}

// SetAddressField overwrites one nested address field by name.
func (s *Store) SetAddressField(name, value string) (Draft, error) {
	f, err := ParseField(name)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.update(func(d Draft) (Draft, error) { return d.SetAddressField(f, value) })
}

// ToggleInterest adds or removes one interest.
func (s *Store) ToggleInterest(name string, selected bool) Draft {
	d, _ := s.update(func(d Draft) (Draft, error) { return d.ToggleInterest(name, selected), nil })
	return d
}

// Set routes a scalar or address field to the matching operation.  It is
// what form posts use, since they carry both kinds under flat names.
func (s *Store) Set(name, value string) (Draft, error) {
	f, err := ParseField(name)
	if err != nil {
		return s.Snapshot(), err
	}
	if f.Kind() == KindAddress {
		return s.SetAddressField(name, value)
	}
	return s.SetField(name, value)
}

// Apply runs fn on the current draft and publishes its result as one
// update.  When fn fails nothing is published and the current draft is
// returned with the error.
func (s *Store) Apply(fn func(Draft) (Draft, error)) (Draft, error) {
	return s.update(fn)
}

// Reset replaces the draft with the empty form.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cur.Store(&Draft{})
	s.mu.Unlock()
}

func (s *Store) update(fn func(Draft) (Draft, error)) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.Snapshot())
	if err != nil {
		return s.Snapshot(), err
	}
	s.cur.Store(&next)
	return next, nil
}
