package tools

import "encoding/json"

const (
	CodeToolNotFound = "ERR_TOOL_NOT_FOUND"
	CodeInvalidInput = "ERR_INVALID_INPUT"
	CodeToolFailed   = "ERR_TOOL_FAILED"
)

// ToolExecutionError reports why a tool produced no output.
type ToolExecutionError struct {
	Code    string `json:"code"`
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error returns a compact, single-line JSON string.
func (e *ToolExecutionError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }
