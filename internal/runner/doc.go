// Package runner is the sequential tool-calling orchestration engine.
//
// A run seeds a transcript with the caller's query and then alternates model
// calls and tool dispatch, one round at a time, under a fixed round budget.
// Tools are offered in rounds 1..budget. When the budget is spent, or a model
// call fails after round 1, the engine makes one forced final call with a
// synthesis prompt and no tools.
//
// Invariants:
//   - at most budget+1 model calls per run
//   - every tool_use in an assistant turn is answered by a result in the
//     immediately following tool-result turn, in request order
//   - tool failures become error-flagged results; they never abort the run
//
// Flow:
//
//	user(query) -> assistant(tool_use...) -> tool_result(...) -> ... -> assistant(text)
package runner
