package engine

import (
	"sort"
	"sync"
	"time"
)

// Store holds the live state of every running session. The registry map has
// its own short-lived lock; each session carries an exclusive mutation lock
// so that sessions stay independent units of concurrency.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*sessionEntry),
	}
}

// Create registers a new session under its code. The build callback runs
// outside any session lock; codes are expected to be uppercased by the caller.
func (s *Store) Create(code string, build func() *Session) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[code]; ok {
		return nil, ErrDuplicateCode
	}
	session := build()
	s.sessions[code] = &sessionEntry{session: session}
	return session, nil
}

// Mutate runs fn with the session's mutation lock held. Everything inside fn
// operates on the one authoritative copy; no two callers can commit from the
// same pre-mutation state. fn must not perform I/O.
func (s *Store) Mutate(code string, fn func(session *Session) error) error {
	entry, ok := s.lookup(code)
	if !ok {
		return ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := fn(entry.session); err != nil {
		return err
	}
	entry.session.UpdatedAt = time.Now().UTC()
	return nil
}

// View runs fn under the same session lock as Mutate so that readers never
// observe a half-applied mutation. fn must copy out what it needs.
func (s *Store) View(code string, fn func(session *Session)) error {
	entry, ok := s.lookup(code)
	if !ok {
		return ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	fn(entry.session)
	return nil
}

// Remove unregisters a session and returns its final state.
func (s *Store) Remove(code string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[code]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.sessions, code)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session, nil
}

// Restore registers an existing session, typically one loaded back from the
// database after a restart.
func (s *Store) Restore(session *Session) error {
	if session == nil {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Code]; ok {
		return ErrDuplicateCode
	}
	s.sessions[session.Code] = &sessionEntry{session: session}
	return nil
}

type SessionSummary struct {
	Code    string
	Status  string
	Mode    string
	Players int
}

func (s *Store) ListSummaries() []SessionSummary {
	s.mu.Lock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, entry := range s.sessions {
		entries = append(entries, entry)
	}
	s.mu.Unlock()

	list := make([]SessionSummary, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		list = append(list, SessionSummary{
			Code:    entry.session.Code,
			Status:  entry.session.Status,
			Mode:    entry.session.Mode,
			Players: len(entry.session.Players),
		})
		entry.mu.Unlock()
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Code < list[j].Code
	})
	return list
}

func (s *Store) lookup(code string) (*sessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[code]
	return entry, ok
}
