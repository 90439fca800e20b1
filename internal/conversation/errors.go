package conversation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/executive-intake/internal/types"
)

// NotFoundError indicates an unknown conversation id
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("conversation not found: %s", e.ID)
}

// ConversationClosedError indicates a message sent to a completed or abandoned conversation
type ConversationClosedError struct {
	ID     uuid.UUID
	Phase  types.Phase
	Status types.Status
}

func (e *ConversationClosedError) Error() string {
	return fmt.Sprintf("conversation %s is closed (phase %s, status %s)", e.ID, e.Phase, e.Status)
}

// ConflictError indicates the stored version changed since it was read.
// The caller should re-read the conversation and retry the whole request.
type ConflictError struct {
	ID              uuid.UUID
	ExpectedVersion int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conversation %s was modified concurrently (expected version %d)", e.ID, e.ExpectedVersion)
}

// InvalidTransitionError indicates a status change the lifecycle does not allow
type InvalidTransitionError struct {
	ID   uuid.UUID
	From types.Status
	To   types.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("conversation %s cannot move from %s to %s", e.ID, e.From, e.To)
}

// InvalidMessageError indicates an inbound message with no content
type InvalidMessageError struct {
	Message string
}

func (e *InvalidMessageError) Error() string {
	return fmt.Sprintf("invalid message: %s", e.Message)
}

// StepFailedError wraps a collaborator failure that moved the conversation to PhaseError.
// The underlying ExtractionError or GenerationError is reachable with errors.As.
type StepFailedError struct {
	ID    uuid.UUID
	Step  types.Step
	Cause error
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("conversation %s: %s step failed: %v", e.ID, e.Step, e.Cause)
}

func (e *StepFailedError) Unwrap() error {
	return e.Cause
}
