package runner_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/petasbytes/course-rag/internal/runner"
	"github.com/petasbytes/course-rag/tools"
)

// step is one scripted model reply: a response or an error.
type step struct {
	resp *runner.Response
	err  error
}

// scriptedClient replays steps in order and records every request.
type scriptedClient struct {
	mu       sync.Mutex
	steps    []step
	requests []*runner.Request
	// fallback answers calls past the end of steps; nil means error.
	fallback func(n int) step
}

func (c *scriptedClient) Create(ctx context.Context, req *runner.Request) (*runner.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	n := len(c.requests)
	var s step
	switch {
	case n <= len(c.steps):
		s = c.steps[n-1]
	case c.fallback != nil:
		s = c.fallback(n)
	default:
		return nil, fmt.Errorf("unexpected model call #%d", n)
	}
	return s.resp, s.err
}

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func text(s string) step {
	return step{resp: &runner.Response{StopReason: runner.StopEndTurn, Content: []runner.ContentBlock{runner.TextBlock{Text: s}}}}
}

func toolUse(id, name string, input map[string]any) step {
	return step{resp: &runner.Response{
		StopReason: runner.StopToolUse,
		Content:    []runner.ContentBlock{runner.ToolUseBlock{ID: id, Name: name, Input: input}},
	}}
}

func failure(status int) step {
	return step{err: &runner.ModelUnavailableError{Provider: "fake", StatusCode: status, Err: errors.New("boom")}}
}

type call struct {
	name string
	args map[string]any
}

// funcExecutor records calls and delegates to fn.
type funcExecutor struct {
	mu    sync.Mutex
	calls []call
	fn    func(ctx context.Context, name string, args map[string]any) (string, error)
}

func (e *funcExecutor) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, call{name: name, args: args})
	e.mu.Unlock()
	if e.fn == nil {
		return "result for " + name, nil
	}
	return e.fn(ctx, name, args)
}

func (e *funcExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

var courseTools = []tools.Schema{
	{Name: "search_course_content", Description: "search", Input: tools.InputSchema{Properties: map[string]any{"query": map[string]any{"type": "string"}}, Required: []string{"query"}}},
	{Name: "get_course_outline", Description: "outline", Input: tools.InputSchema{Properties: map[string]any{"course_name": map[string]any{"type": "string"}}, Required: []string{"course_name"}}},
}

const basePrompt = "You are an assistant for course materials."

func contextCanceled() error { return context.Canceled }
