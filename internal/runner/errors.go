package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ModelUnavailableError is a model call that failed in transport or was
// refused by the provider.
type ModelUnavailableError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ModelUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: model unavailable (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: model unavailable: %v", e.Provider, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// Retryable reports whether a retry could succeed: rate limits, overload,
// server errors and transport failures without a status.
func (e *ModelUnavailableError) Retryable() bool {
	if errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}
