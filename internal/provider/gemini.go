package provider

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/petasbytes/course-rag/internal/runner"
	"github.com/petasbytes/course-rag/tools"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini adapts the Gemini API to runner.ModelClient.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func NewGemini(ctx context.Context, apiKey, model string, maxTokens int) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model, maxTokens: int32(orDefault(maxTokens, DefaultMaxTokens))}, nil
}

func (g *Gemini) Create(ctx context.Context, req *runner.Request) (*runner.Response, error) {
	transcript := req.Transcript
	if len(req.Tools) == 0 && transcript.HasToolBlocks() {
		transcript = transcript.Flatten()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, geminiContents(transcript), geminiConfig(req.System, req.Tools, g.maxTokens))
	if err != nil {
		return nil, geminiError(err)
	}
	return geminiResponse(resp), nil
}

func geminiConfig(system string, schemas []tools.Schema, maxTokens int32) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: maxTokens}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(schemas) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(schemas))
		for _, s := range schemas {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 s.Name,
				Description:          s.Description,
				ParametersJsonSchema: s.Parameters(),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		cfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto},
		}
	}
	return cfg
}

func geminiContents(t runner.Transcript) []*genai.Content {
	out := make([]*genai.Content, 0, len(t))
	for _, turn := range t {
		switch turn.Role {
		case runner.RoleUser:
			out = append(out, genai.NewContentFromText(nonEmpty(turn.Text), genai.RoleUser))
		case runner.RoleAssistant:
			parts := make([]*genai.Part, 0, len(turn.Blocks))
			for _, b := range turn.Blocks {
				switch v := b.(type) {
				case runner.TextBlock:
					if v.Text != "" {
						parts = append(parts, genai.NewPartFromText(v.Text))
					}
				case runner.ToolUseBlock:
					part := genai.NewPartFromFunctionCall(v.Name, v.Input)
					part.FunctionCall.ID = v.ID
					parts = append(parts, part)
				}
			}
			if len(parts) == 0 {
				parts = append(parts, genai.NewPartFromText(nonEmpty("")))
			}
			out = append(out, genai.NewContentFromParts(parts, genai.RoleModel))
		case runner.RoleToolResult:
			parts := make([]*genai.Part, 0, len(turn.Results))
			for _, r := range turn.Results {
				payload := map[string]any{"output": r.Output}
				if r.IsError {
					payload = map[string]any{"error": r.Output}
				}
				part := genai.NewPartFromFunctionResponse(r.Name, payload)
				part.FunctionResponse.ID = r.CallID
				parts = append(parts, part)
			}
			out = append(out, genai.NewContentFromParts(parts, genai.RoleUser))
		}
	}
	return out
}

func geminiResponse(resp *genai.GenerateContentResponse) *runner.Response {
	out := &runner.Response{StopReason: runner.StopEndTurn}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}
	cand := resp.Candidates[0]
	for i, p := range cand.Content.Parts {
		switch {
		case p == nil:
		case p.FunctionCall != nil:
			id := p.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", i)
			}
			args := p.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			out.Content = append(out.Content, runner.ToolUseBlock{ID: id, Name: p.FunctionCall.Name, Input: args})
			out.StopReason = runner.StopToolUse
		case p.Text != "" && !p.Thought:
			out.Content = append(out.Content, runner.TextBlock{Text: p.Text})
		}
	}
	if out.StopReason != runner.StopToolUse && cand.FinishReason == genai.FinishReasonMaxTokens {
		out.StopReason = "max_tokens"
	}
	return out
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &runner.ModelUnavailableError{Provider: "gemini", StatusCode: apiErr.Code, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &runner.ModelUnavailableError{Provider: "gemini", StatusCode: apiErrPtr.Code, Err: err}
	}
	return &runner.ModelUnavailableError{Provider: "gemini", Err: err}
}
