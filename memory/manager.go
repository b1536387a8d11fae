package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxHistory is the number of exchanges kept in the model's view.
const DefaultMaxHistory = 2

// Window trims the messages kept for the model's view, oldest first.
type Window func([]Message) []Message

// Option configures a Manager.
type Option func(*Manager)

// WithWindow applies w after the exchange limit.
func WithWindow(w Window) Option {
	return func(m *Manager) { m.window = w }
}

// Manager creates sessions and renders their recent history.
type Manager struct {
	store      Store
	maxHistory int
	window     Window
}

func NewManager(store Store, maxHistory int, opts ...Option) *Manager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	m := &Manager{store: store, maxHistory: maxHistory}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateSession registers a new session under a random id.
func (m *Manager) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := m.store.Create(ctx, id); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// AddExchange appends one user question and the assistant's answer.
func (m *Manager) AddExchange(ctx context.Context, sessionID, user, assistant string) error {
	return m.store.Append(ctx, sessionID,
		Message{Role: RoleUser, Text: user},
		Message{Role: RoleAssistant, Text: assistant},
	)
}

// History renders the last maxHistory exchanges as "User: ...\nAssistant: ..."
// lines. Unknown or empty sessions yield "".
func (m *Manager) History(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}
	msgs, err := m.store.Messages(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	if keep := m.maxHistory * 2; len(msgs) > keep {
		msgs = msgs[len(msgs)-keep:]
	}
	if m.window != nil {
		msgs = m.window(msgs)
	}
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", roleLabel(msg.Role), msg.Text))
	}
	return strings.Join(lines, "\n"), nil
}

func roleLabel(role string) string {
	switch role {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	}
	if role == "" {
		return "Unknown"
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
