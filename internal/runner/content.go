package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/petasbytes/course-rag/tools"
)

// ContentBlock is one element of a model response: TextBlock or ToolUseBlock.
type ContentBlock interface {
	isContentBlock()
}

type TextBlock struct {
	Text string
}

// ToolUseBlock is a model request to invoke a tool.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input map[string]any
}

func (TextBlock) isContentBlock()    {}
func (ToolUseBlock) isContentBlock() {}

type StopReason string

const (
	StopToolUse StopReason = "tool_use"
	StopEndTurn StopReason = "end_turn"
)

// Response is one model reply.
type Response struct {
	StopReason StopReason
	Content    []ContentBlock
}

// Text concatenates the response's text blocks in order.
func (r *Response) Text() string {
	var b strings.Builder
	for _, c := range r.Content {
		if t, ok := c.(TextBlock); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// ToolUses returns the response's tool requests in order.
func (r *Response) ToolUses() []ToolUseBlock {
	var out []ToolUseBlock
	for _, c := range r.Content {
		if u, ok := c.(ToolUseBlock); ok {
			out = append(out, u)
		}
	}
	return out
}

type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// ToolResult answers one ToolUseBlock. Failed calls carry an error payload in
// Output and IsError set.
type ToolResult struct {
	CallID  string
	Name    string
	Output  string
	IsError bool
}

// Turn is one transcript entry. User turns use Text, assistant turns use
// Blocks and tool-result turns use Results.
type Turn struct {
	Role    Role
	Text    string
	Blocks  []ContentBlock
	Results []ToolResult
}

type Transcript []Turn

// HasToolBlocks reports whether any turn carries tool calls or results.
func (t Transcript) HasToolBlocks() bool {
	for _, turn := range t {
		if len(turn.Results) > 0 {
			return true
		}
		for _, b := range turn.Blocks {
			if _, ok := b.(ToolUseBlock); ok {
				return true
			}
		}
	}
	return false
}

// Flatten renders tool calls and results as plain text: assistant tool_use
// blocks become text and tool-result turns become user turns. Providers use
// it for requests that offer no tools.
func (t Transcript) Flatten() Transcript {
	out := make(Transcript, 0, len(t))
	for _, turn := range t {
		switch turn.Role {
		case RoleAssistant:
			blocks := make([]ContentBlock, 0, len(turn.Blocks))
			for _, b := range turn.Blocks {
				switch v := b.(type) {
				case TextBlock:
					if v.Text != "" {
						blocks = append(blocks, v)
					}
				case ToolUseBlock:
					blocks = append(blocks, TextBlock{Text: fmt.Sprintf("[called %s with %s]", v.Name, compactJSON(v.Input))})
				}
			}
			out = append(out, Turn{Role: RoleAssistant, Blocks: blocks})
		case RoleToolResult:
			var b strings.Builder
			b.WriteString("Tool results:")
			for _, r := range turn.Results {
				status := "ok"
				if r.IsError {
					status = "error"
				}
				fmt.Fprintf(&b, "\n[%s %s]\n%s", r.Name, status, r.Output)
			}
			out = append(out, Turn{Role: RoleUser, Text: b.String()})
		default:
			out = append(out, turn)
		}
	}
	return out
}

// Request is everything a ModelClient needs for one call. Tools is empty when
// tools are not offered.
type Request struct {
	System     string
	Transcript Transcript
	Tools      []tools.Schema
}

// ModelClient performs one model call. Transport and quota failures should be
// *ModelUnavailableError.
type ModelClient interface {
	Create(ctx context.Context, req *Request) (*Response, error)
}

// ToolExecutor runs a named tool. *tools.Registry implements it.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}
