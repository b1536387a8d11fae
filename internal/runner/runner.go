package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/petasbytes/course-rag/internal/metrics"
	"github.com/petasbytes/course-rag/internal/telemetry"
	"github.com/petasbytes/course-rag/tools"
)

type Runner struct {
	Client ModelClient
	Logger zerolog.Logger
}

func New(client ModelClient) *Runner {
	return &Runner{Client: client, Logger: zerolog.Nop()}
}

// Input is one run's parameters. RoundBudget 0 means DefaultRoundBudget.
type Input struct {
	Query        string
	History      string
	Tools        []tools.Schema
	Executor     ToolExecutor
	SystemPrompt string
	RoundBudget  int
}

// Outcome is the result of a successful run.
type Outcome struct {
	Answer      string
	ModelCalls  int
	ToolResults []ToolResult
	// Forced is set when the answer came from the forced final call.
	Forced     bool
	Transcript Transcript
}

// Run drives one query to an answer. Errors are returned only when the first
// model call fails, the forced final call fails, or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, in Input) (*Outcome, error) {
	budget := in.RoundBudget
	if budget == 0 {
		budget = DefaultRoundBudget
	}
	if budget < 0 {
		return nil, fmt.Errorf("runner: round budget must not be negative, got %d", budget)
	}
	if r.Client == nil {
		return nil, errors.New("runner: nil model client")
	}
	if len(in.Tools) > 0 && in.Executor == nil {
		return nil, errors.New("runner: tools offered without an executor")
	}

	runID, ok := telemetry.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = telemetry.WithRunID(ctx, runID)
	}
	log := r.Logger.With().Str("run_id", runID).Logger()

	telemetry.Emit("run_started", map[string]any{
		"run_id":       runID,
		"round_budget": budget,
		"tools":        len(in.Tools),
	})
	telemetry.EmitQueryFeatures(ctx, in.Query, in.History)

	out := &Outcome{Transcript: Transcript{{Role: RoleUser, Text: seedText(in.Query, in.History)}}}

	if len(in.Tools) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, r.finish(ctx, out, fmt.Errorf("run cancelled: %w", err))
		}
		resp, err := r.call(ctx, &Request{System: in.SystemPrompt, Transcript: out.Transcript}, FinalRound(budget))
		out.ModelCalls++
		if err != nil {
			return nil, r.finish(ctx, out, err)
		}
		return r.conclude(ctx, out, resp)
	}

	round := FirstRound(budget)
	for {
		if err := ctx.Err(); err != nil {
			return nil, r.finish(ctx, out, fmt.Errorf("run cancelled: %w", err))
		}

		req := &Request{System: BuildSystemPrompt(in.SystemPrompt, round), Transcript: out.Transcript}
		if round.ToolsAvailable() {
			req.Tools = in.Tools
		}
		resp, err := r.call(ctx, req, round)
		out.ModelCalls++
		if err != nil {
			if ctx.Err() != nil {
				return nil, r.finish(ctx, out, fmt.Errorf("run cancelled: %w", ctx.Err()))
			}
			if round.Final() || round.Index == 1 {
				return nil, r.finish(ctx, out, err)
			}
			log.Warn().Err(err).Str("round", round.String()).Msg("model call failed mid-sequence, forcing final answer")
			metrics.RecordForcedFinal("model_error")
			out.Forced = true
			round = FinalRound(budget)
			continue
		}

		uses := resp.ToolUses()
		if round.Final() || resp.StopReason != StopToolUse || len(uses) == 0 {
			return r.conclude(ctx, out, resp)
		}

		out.Transcript = append(out.Transcript, Turn{Role: RoleAssistant, Blocks: resp.Content})
		results, err := r.dispatch(ctx, in.Executor, uses)
		if err != nil {
			return nil, r.finish(ctx, out, fmt.Errorf("run cancelled: %w", err))
		}
		out.ToolResults = append(out.ToolResults, results...)
		out.Transcript = append(out.Transcript, Turn{Role: RoleToolResult, Results: results})

		if round.Index < budget {
			round = round.Next()
			continue
		}
		log.Debug().Int("budget", budget).Msg("round budget exhausted, forcing final answer")
		metrics.RecordForcedFinal("budget")
		out.Forced = true
		round = FinalRound(budget)
	}
}

func (r *Runner) conclude(ctx context.Context, out *Outcome, resp *Response) (*Outcome, error) {
	out.Answer = resp.Text()
	out.Transcript = append(out.Transcript, Turn{Role: RoleAssistant, Blocks: resp.Content})
	return out, r.finish(ctx, out, nil)
}

// finish records the end of a run and passes err through.
func (r *Runner) finish(ctx context.Context, out *Outcome, err error) error {
	runID, _ := telemetry.RunIDFromContext(ctx)
	fields := map[string]any{
		"run_id":      runID,
		"model_calls": out.ModelCalls,
		"tool_calls":  len(out.ToolResults),
		"forced":      out.Forced,
		"error":       nil,
	}
	if err != nil {
		fields["error"] = errorKind(err)
	} else {
		fields["answer_size"] = len(out.Answer)
	}
	telemetry.Emit("run_finished", fields)
	metrics.RecordRun(err == nil, out.ModelCalls)
	return err
}

func (r *Runner) call(ctx context.Context, req *Request, round Round) (*Response, error) {
	start := time.Now()
	resp, err := r.Client.Create(ctx, req)
	if err == nil && resp == nil {
		err = errors.New("model client returned no response")
	}
	if err != nil {
		err = fmt.Errorf("model call (round %s): %w", round, err)
	}

	metrics.RecordModelCall(round.Final(), err == nil)
	runID, _ := telemetry.RunIDFromContext(ctx)
	fields := map[string]any{
		"run_id":           runID,
		"round":            round.String(),
		"tools_offered":    len(req.Tools),
		"transcript_turns": len(req.Transcript),
		"duration_ms":      time.Since(start).Milliseconds(),
		"error":            nil,
	}
	if err != nil {
		fields["error"] = errorKind(err)
	} else {
		fields["stop_reason"] = string(resp.StopReason)
	}
	telemetry.Emit("model_call", fields)
	return resp, err
}

// dispatch runs every call concurrently and returns results in request order.
// It reports an error only when ctx was cancelled.
func (r *Runner) dispatch(ctx context.Context, exec ToolExecutor, calls []ToolUseBlock) ([]ToolResult, error) {
	results := make([]ToolResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call ToolUseBlock) {
			defer wg.Done()
			results[i] = r.execTool(ctx, exec, call)
		}(i, call)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) execTool(ctx context.Context, exec ToolExecutor, call ToolUseBlock) (res ToolResult) {
	res = ToolResult{CallID: call.ID, Name: call.Name}
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			res.Output = fmt.Sprintf("Tool %q failed: panic: %v", call.Name, p)
			res.IsError = true
			r.Logger.Error().Str("tool", call.Name).Interface("panic", p).Msg("tool handler panicked")
		}

		d := time.Since(start)
		metrics.RecordToolCall(call.Name, !res.IsError, d)
		runID, _ := telemetry.RunIDFromContext(ctx)
		fields := map[string]any{
			"run_id":      runID,
			"tool_name":   call.Name,
			"duration_ms": d.Milliseconds(),
			"input_size":  len(compactJSON(call.Input)),
			"output_size": 0,
			"error":       nil,
		}
		if res.IsError {
			// Generic marker only; the detailed message goes to the model, not the log.
			fields["error"] = "tool error"
		} else {
			fields["output_size"] = len(res.Output)
		}
		telemetry.Emit("tool_exec", fields)
	}()

	if err := ctx.Err(); err != nil {
		res.Output = fmt.Sprintf("Tool %q not run: %v", call.Name, err)
		res.IsError = true
		return res
	}

	output, err := exec.Execute(ctx, call.Name, call.Input)
	if err != nil {
		res.Output = fmt.Sprintf("Tool %q failed: %v", call.Name, err)
		res.IsError = true
		return res
	}
	res.Output = output
	return res
}

func seedText(query, history string) string {
	if history == "" {
		return query
	}
	return "Previous conversation:\n" + history + "\n\n" + query
}

func errorKind(err error) string {
	var mu *ModelUnavailableError
	var te *tools.ToolExecutionError
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	case errors.As(err, &mu):
		return "model_unavailable"
	case errors.As(err, &te):
		return te.Code
	default:
		return "error"
	}
}

func compactJSON(v map[string]any) string {
	if v == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
