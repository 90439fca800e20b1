package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/executive-intake/internal/conversation"
	"github.com/jonathan/executive-intake/internal/extraction"
	"github.com/jonathan/executive-intake/internal/llm"
	"github.com/jonathan/executive-intake/internal/questions"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *conversation.NotFoundError
		closed     *conversation.ConversationClosedError
		conflict   *conversation.ConflictError
		transition *conversation.InvalidTransitionError
		invalidMsg *conversation.InvalidMessageError
		stepFailed *conversation.StepFailedError
		extractErr *extraction.ExtractionError
		genErr     *questions.GenerationError
		upstream   *llm.UpstreamError
		validation *ErrValidation
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &closed), errors.As(err, &conflict), errors.As(err, &transition):
		return http.StatusConflict
	case errors.As(err, &invalidMsg), errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &stepFailed), errors.As(err, &extractErr), errors.As(err, &genErr), errors.As(err, &upstream):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// extractValidationErrors converts validator errors into an ErrValidation for the first field.
func extractValidationErrors(err error) *ErrValidation {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "request", Message: "invalid request"}
}
