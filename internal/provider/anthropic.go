package provider

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/course-rag/internal/runner"
	"github.com/petasbytes/course-rag/tools"
)

const DefaultAnthropicModel = anthropic.ModelClaude3_7SonnetLatest

// Anthropic adapts the Messages API to runner.ModelClient.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropic builds a client; without an explicit option.WithAPIKey the SDK
// reads ANTHROPIC_API_KEY from the environment.
func NewAnthropic(model string, maxTokens int, opts ...option.RequestOption) *Anthropic {
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultAnthropicModel
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     m,
		maxTokens: int64(orDefault(maxTokens, DefaultMaxTokens)),
	}
}

func (a *Anthropic) Create(ctx context.Context, req *runner.Request) (*runner.Response, error) {
	transcript := req.Transcript
	// The API rejects tool blocks in requests that define no tools.
	if len(req.Tools) == 0 && transcript.HasToolBlocks() {
		transcript = transcript.Flatten()
	}

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages:  anthropicMessages(transcript),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = anthropicTools(req.Tools)
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, anthropicError(err)
	}
	return anthropicResponse(msg), nil
}

func anthropicTools(schemas []tools.Schema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        s.Name,
			Description: anthropic.String(s.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: s.Input.Properties,
				Required:   s.Input.Required,
			},
		}})
	}
	return out
}

func anthropicMessages(t runner.Transcript) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(t))
	for _, turn := range t {
		switch turn.Role {
		case runner.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(nonEmpty(turn.Text))))
		case runner.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(turn.Blocks))
			for _, b := range turn.Blocks {
				switch v := b.(type) {
				case runner.TextBlock:
					if v.Text != "" {
						blocks = append(blocks, anthropic.NewTextBlock(v.Text))
					}
				case runner.ToolUseBlock:
					input := v.Input
					if input == nil {
						input = map[string]any{}
					}
					blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    v.ID,
						Name:  v.Name,
						Input: input,
					}})
				}
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(nonEmpty("")))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case runner.RoleToolResult:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(turn.Results))
			for _, r := range turn.Results {
				blocks = append(blocks, anthropic.NewToolResultBlock(r.CallID, r.Output, r.IsError))
			}
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func anthropicResponse(msg *anthropic.Message) *runner.Response {
	resp := &runner.Response{StopReason: runner.StopReason(msg.StopReason)}
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content = append(resp.Content, runner.TextBlock{Text: v.Text})
		case anthropic.ToolUseBlock:
			input := decodeToolInput("anthropic", v.Name, v.Input)
			resp.Content = append(resp.Content, runner.ToolUseBlock{ID: v.ID, Name: v.Name, Input: input})
		}
	}
	return resp
}

func anthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &runner.ModelUnavailableError{Provider: "anthropic", StatusCode: apiErr.StatusCode, Err: err}
	}
	return &runner.ModelUnavailableError{Provider: "anthropic", Err: err}
}
