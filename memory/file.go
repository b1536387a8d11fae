package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/petasbytes/course-rag/internal/safety"
)

// FileStore keeps one JSON conversation file per session under a root directory.
type FileStore struct {
	root string
	mu   sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = ".agent/sessions"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	root, err := safety.InitRoot(dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if err := validSessionID(id); err != nil {
		return "", err
	}
	return safety.ValidateWritePath(s.root, id+".json")
}

func (s *FileStore) Create(ctx context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(p); err == nil {
		return nil
	}
	return SaveConversation(p, []Message{})
}

func (s *FileStore) Append(ctx context.Context, id string, msgs ...Message) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := LoadConversation(p)
	if err != nil {
		return fmt.Errorf("load session %s: %w", id, err)
	}
	if err := SaveConversation(p, append(existing, msgs...)); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) Messages(ctx context.Context, id string) ([]Message, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return LoadConversation(p)
}

func (s *FileStore) Close() error { return nil }
