package questions

import "fmt"

// GenerationError is returned when the follow-up queue cannot be generated.
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("question generation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("question generation failed: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
