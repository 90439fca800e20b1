package extraction

import "fmt"

// ExtractionError is returned when the requirements cannot be extracted from a message.
// Cause is an *llm.UpstreamError, a schema failure, or a decode failure.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("requirements extraction failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("requirements extraction failed: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
