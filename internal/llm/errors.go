package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit is a 429 from the provider. RetryAfter is zero when the
// provider gave no hint.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means the model answered, but not with a JSON object
// matching the request schema. Content holds what came back.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers network failures, 5xx responses and any
// provider error that has no more specific mapping.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means generation stopped at the token limit, so the
// verdict object is most likely cut short.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return fmt.Sprintf("LLM response truncated after %d bytes: max tokens exceeded", len(e.Content))
}

// ErrContentBlocked means the provider refused to answer, usually because a
// learner's response tripped a safety filter.
type ErrContentBlocked struct {
	Reason string
}

func (e *ErrContentBlocked) Error() string {
	if e.Reason == "" {
		return "LLM response blocked"
	}
	return "LLM response blocked: " + e.Reason
}

// ErrRequestRejected is a 4xx other than 429: a bad key, an unknown model
// or a request the API will never accept as sent.
type ErrRequestRejected struct {
	StatusCode int
	Err        error
}

func (e *ErrRequestRejected) Error() string {
	return fmt.Sprintf("LLM request rejected (HTTP %d): %v", e.StatusCode, e.Err)
}

func (e *ErrRequestRejected) Unwrap() error { return e.Err }

// Retryable reports whether err is worth another attempt. Rate limits and
// outages are; everything the model itself decided is not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// An open breaker will not close within the backoff window.
	if errors.Is(err, ErrBreakerOpen) {
		return false
	}

	var (
		maxTok  *ErrMaxTokensExceeded
		invalid *ErrInvalidResponse
		blocked *ErrContentBlocked
		reject  *ErrRequestRejected
	)
	switch {
	case errors.As(err, &maxTok), errors.As(err, &invalid),
		errors.As(err, &blocked), errors.As(err, &reject):
		return false
	}
	return true
}

// ErrorKind names the failure class of err for the request log.
func ErrorKind(err error) string {
	var (
		rl      *ErrRateLimit
		maxTok  *ErrMaxTokensExceeded
		invalid *ErrInvalidResponse
		blocked *ErrContentBlocked
		reject  *ErrRequestRejected
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBreakerOpen):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &rl):
		return "rate_limit"
	case errors.As(err, &maxTok):
		return "max_tokens"
	case errors.As(err, &invalid):
		return "invalid"
	case errors.As(err, &blocked):
		return "blocked"
	case errors.As(err, &reject):
		return "rejected"
	}
	return "unavailable"
}
