package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/course-rag/memory"
)

func TestManager_CreateSessionIsUnique(t *testing.T) {
	m := memory.NewManager(memory.NewMemStore(), 2)
	a, err := m.CreateSession(context.Background())
	require.NoError(t, err)
	b, err := m.CreateSession(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestManager_HistoryKeepsLastExchanges(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager(memory.NewMemStore(), 2)
	id, err := m.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, m.AddExchange(ctx, id, "q1", "a1"))
	require.NoError(t, m.AddExchange(ctx, id, "q2", "a2"))
	require.NoError(t, m.AddExchange(ctx, id, "q3", "a3"))

	h, err := m.History(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "User: q2\nAssistant: a2\nUser: q3\nAssistant: a3", h)
}

func TestManager_HistoryEmpty(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager(memory.NewMemStore(), 1)

	h, err := m.History(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, h)

	h, err = m.History(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, h)
}
