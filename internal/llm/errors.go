package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UpstreamError is returned when the language model call fails or exceeds its timeout
type UpstreamError struct {
	Message string
	Timeout bool
	Cause   error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether err is an UpstreamError caused by the call deadline.
func IsTimeout(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.Timeout
}

func newUpstreamError(err error, timeout time.Duration) *UpstreamError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{
			Message: fmt.Sprintf("language model call timed out after %s", timeout),
			Timeout: true,
			Cause:   err,
		}
	}
	return &UpstreamError{Message: "language model call failed", Cause: err}
}
