package rag_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/course-rag/internal/rag"
	"github.com/petasbytes/course-rag/internal/runner"
	"github.com/petasbytes/course-rag/internal/store"
	"github.com/petasbytes/course-rag/memory"
)

const mcpCourse = `Course Title: MCP: Build Rich-Context AI Apps
Course Link: https://example.com/mcp
Course Instructor: Elie Schoppik

Lesson 1: Why MCP
Lesson Link: https://example.com/mcp/1
The Model Context Protocol standardizes how applications provide context to language models. Servers expose tools and resources.

Lesson 2: MCP Architecture
Clients connect to servers over a transport. Each server advertises its tools to the client.
`

// replyFunc builds the model's reply from the request it receives.
type replyFunc func(n int, req *runner.Request) (*runner.Response, error)

type fakeModel struct {
	mu       sync.Mutex
	reply    replyFunc
	requests []*runner.Request
}

func (m *fakeModel) Create(ctx context.Context, req *runner.Request) (*runner.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return m.reply(len(m.requests), req)
}

func answer(s string) *runner.Response {
	return &runner.Response{StopReason: runner.StopEndTurn, Content: []runner.ContentBlock{runner.TextBlock{Text: s}}}
}

func newSystem(t *testing.T, model runner.ModelClient) *rag.System {
	t.Helper()
	st, err := store.Open(":memory:", 5)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp.txt"), []byte(mcpCourse), 0o644))

	sys := rag.New(st, model, memory.NewManager(memory.NewMemStore(), 2), rag.Config{ChunkSize: 200, ChunkOverlap: 20})
	res, err := sys.AddCourseFolder(context.Background(), dir, false)
	require.NoError(t, err)
	require.Equal(t, 1, res.Courses)
	return sys
}

func TestQuery_SearchThenAnswerCollectsSources(t *testing.T) {
	model := &fakeModel{reply: func(n int, req *runner.Request) (*runner.Response, error) {
		if n == 1 {
			return &runner.Response{StopReason: runner.StopToolUse, Content: []runner.ContentBlock{
				runner.ToolUseBlock{ID: "t1", Name: "search_course_content", Input: map[string]any{
					"query": "tools servers", "course_name": "MCP",
				}},
			}}, nil
		}
		return answer("Servers expose tools."), nil
	}}
	sys := newSystem(t, model)

	got, sources, err := sys.Query(context.Background(), "What do MCP servers expose?", "")
	require.NoError(t, err)
	assert.Equal(t, "Servers expose tools.", got)
	require.NotEmpty(t, sources)
	assert.Contains(t, sources[0].Text, "MCP: Build Rich-Context AI Apps")

	require.Len(t, model.requests, 2)
	first := model.requests[0]
	assert.Len(t, first.Tools, 2)
	assert.True(t, strings.HasPrefix(first.Transcript[0].Text, "Answer this question about course materials: What do MCP servers expose?"))
	assert.Contains(t, first.System, rag.SystemPrompt)
}

func TestQuery_SourcesAreScopedToOneQuery(t *testing.T) {
	model := &fakeModel{reply: func(n int, req *runner.Request) (*runner.Response, error) {
		if n == 1 {
			return &runner.Response{StopReason: runner.StopToolUse, Content: []runner.ContentBlock{
				runner.ToolUseBlock{ID: "t1", Name: "get_course_outline", Input: map[string]any{"course_name": "mcp"}},
			}}, nil
		}
		return answer("plain"), nil
	}}
	sys := newSystem(t, model)

	_, sources, err := sys.Query(context.Background(), "Outline of MCP?", "")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "https://example.com/mcp", sources[0].Link)

	_, sources, err = sys.Query(context.Background(), "Hello?", "")
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestQuery_RecordsHistoryPerSession(t *testing.T) {
	model := &fakeModel{reply: func(n int, req *runner.Request) (*runner.Response, error) {
		return answer("answer " + string(rune('0'+n))), nil
	}}
	sys := newSystem(t, model)
	ctx := context.Background()

	id, err := sys.Sessions().CreateSession(ctx)
	require.NoError(t, err)

	_, _, err = sys.Query(ctx, "first question", id)
	require.NoError(t, err)
	_, _, err = sys.Query(ctx, "second question", id)
	require.NoError(t, err)

	seed := model.requests[1].Transcript[0].Text
	assert.Contains(t, seed, "User: first question\nAssistant: answer 1")
	assert.Contains(t, seed, "second question")

	h, err := sys.Sessions().History(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "User: first question\nAssistant: answer 1\nUser: second question\nAssistant: answer 2", h)
}

func TestQuery_FirstCallFailurePropagates(t *testing.T) {
	model := &fakeModel{reply: func(int, *runner.Request) (*runner.Response, error) {
		return nil, &runner.ModelUnavailableError{Provider: "fake", StatusCode: 529, Err: errors.New("overloaded")}
	}}
	sys := newSystem(t, model)
	ctx := context.Background()
	id, err := sys.Sessions().CreateSession(ctx)
	require.NoError(t, err)

	_, _, err = sys.Query(ctx, "anything", id)
	var mu *runner.ModelUnavailableError
	require.True(t, errors.As(err, &mu))

	h, err := sys.Sessions().History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, h, "failed queries are not recorded")
}

func TestQuery_EmptyQuery(t *testing.T) {
	sys := newSystem(t, &fakeModel{reply: func(int, *runner.Request) (*runner.Response, error) {
		t.Fatal("model must not be called")
		return nil, nil
	}})
	_, _, err := sys.Query(context.Background(), "   ", "")
	assert.ErrorIs(t, err, rag.ErrEmptyQuery)
}

func TestCourseAnalytics(t *testing.T) {
	sys := newSystem(t, &fakeModel{})
	a, err := sys.CourseAnalytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, a.TotalCourses)
	assert.Equal(t, []string{"MCP: Build Rich-Context AI Apps"}, a.CourseTitles)
}

func TestAddCourseFolder_SkipsExisting(t *testing.T) {
	sys := newSystem(t, &fakeModel{})
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp.txt"), []byte(mcpCourse), 0o644))

	res, err := sys.AddCourseFolder(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Courses)
}
