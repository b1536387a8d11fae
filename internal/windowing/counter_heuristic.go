package windowing

import (
	"unicode/utf8"

	"github.com/petasbytes/course-rag/memory"
)

// TokenCounter estimates input cost for messages or groups.
type TokenCounter interface {
	CountMessage(m memory.Message) int
	CountGroup(g Group, all []memory.Message) int
}

// HeuristicCounter is the default deterministic estimator: the rune count of
// the rendered "Role: text" line plus a fixed per-message overhead.
type HeuristicCounter struct{}

// Fixed per-message overhead; changing it changes every window boundary.
const messageOverhead = 4

func (HeuristicCounter) CountMessage(m memory.Message) int {
	// "User: " / "Assistant: " prefix plus the newline joining lines
	return utf8.RuneCountInString(m.Role) + 2 + utf8.RuneCountInString(m.Text) + 1 + messageOverhead
}

func (h HeuristicCounter) CountGroup(g Group, all []memory.Message) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountMessage(all[i])
	}
	return total
}
