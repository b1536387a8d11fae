package provider

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/petasbytes/course-rag/internal/runner"
	"github.com/petasbytes/course-rag/tools"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI adapts Chat Completions to runner.ModelClient.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int64
}

func NewOpenAI(model string, maxTokens int, opts ...option.RequestOption) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: int64(orDefault(maxTokens, DefaultMaxTokens)),
	}
}

func (o *OpenAI) Create(ctx context.Context, req *runner.Request) (*runner.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(o.model),
		Messages:  openAIMessages(req.System, req.Transcript),
		MaxTokens: openai.Int(o.maxTokens),
	}
	if len(req.Tools) > 0 {
		params.Tools = openAITools(req.Tools)
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, openAIError(err)
	}
	return openAIResponse(completion), nil
}

func openAITools(schemas []tools.Schema) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, openai.ChatCompletionToolParam{Function: shared.FunctionDefinitionParam{
			Name:        s.Name,
			Description: openai.String(s.Description),
			Parameters:  shared.FunctionParameters(s.Parameters()),
		}})
	}
	return out
}

func openAIMessages(system string, t runner.Transcript) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(t)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, turn := range t {
		switch turn.Role {
		case runner.RoleUser:
			out = append(out, openai.UserMessage(turn.Text))
		case runner.RoleAssistant:
			var text string
			var calls []openai.ChatCompletionMessageToolCallParam
			for _, b := range turn.Blocks {
				switch v := b.(type) {
				case runner.TextBlock:
					text += v.Text
				case runner.ToolUseBlock:
					calls = append(calls, openai.ChatCompletionMessageToolCallParam{
						ID: v.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      v.Name,
							Arguments: argumentsJSON(v.Input),
						},
					})
				}
			}
			if len(calls) == 0 {
				out = append(out, openai.AssistantMessage(text))
				continue
			}
			msg := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
			if text != "" {
				msg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(text)}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &msg})
		case runner.RoleToolResult:
			for _, r := range turn.Results {
				out = append(out, openai.ToolMessage(r.Output, r.CallID))
			}
		}
	}
	return out
}

func openAIResponse(c *openai.ChatCompletion) *runner.Response {
	resp := &runner.Response{StopReason: runner.StopEndTurn}
	if len(c.Choices) == 0 {
		return resp
	}
	choice := c.Choices[0]
	if choice.Message.Content != "" {
		resp.Content = append(resp.Content, runner.TextBlock{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		args := decodeToolInput("openai", tc.Function.Name, []byte(tc.Function.Arguments))
		resp.Content = append(resp.Content, runner.ToolUseBlock{ID: tc.ID, Name: tc.Function.Name, Input: args})
	}
	switch {
	case choice.FinishReason == "tool_calls" || len(choice.Message.ToolCalls) > 0:
		resp.StopReason = runner.StopToolUse
	case choice.FinishReason == "length":
		resp.StopReason = "max_tokens"
	}
	return resp
}

func openAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &runner.ModelUnavailableError{Provider: "openai", StatusCode: apiErr.StatusCode, Err: err}
	}
	return &runner.ModelUnavailableError{Provider: "openai", Err: err}
}
