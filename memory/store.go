package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrInvalidSessionID rejects ids that are empty or not a single path element.
var ErrInvalidSessionID = errors.New("invalid session id")

// Store persists session messages. Appending to an unknown session creates it;
// reading one returns no messages.
type Store interface {
	Create(ctx context.Context, sessionID string) error
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	Messages(ctx context.Context, sessionID string) ([]Message, error)
	Close() error
}

// Open selects a backend: "memory", "file" (dsn is a directory), "sqlite3"
// or "postgres" (dsn is the database source).
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemStore(), nil
	case "file":
		return NewFileStore(dsn)
	case "sqlite3", "postgres":
		return OpenSQLStore(driver, dsn)
	default:
		return nil, fmt.Errorf("unknown session driver %q", driver)
	}
}

func validSessionID(id string) error {
	if id == "" || len(id) > 128 || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

// MemStore keeps sessions in process memory.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

func NewMemStore() *MemStore {
	return &MemStore{sessions: make(map[string][]Message)}
}

func (s *MemStore) Create(_ context.Context, id string) error {
	if err := validSessionID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		s.sessions[id] = nil
	}
	return nil
}

func (s *MemStore) Append(_ context.Context, id string, msgs ...Message) error {
	if err := validSessionID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = append(s.sessions[id], msgs...)
	return nil
}

func (s *MemStore) Messages(_ context.Context, id string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sessions[id]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemStore) Close() error { return nil }
