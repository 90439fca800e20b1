package conversation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/executive-intake/internal/types"
	"go.uber.org/multierr"
)

const (
	msgNextQuestion = "Thank you for that information. Here's my next question:"
	msgNotFound     = "I couldn't find that conversation. Start a new one by sending a message without a conversation id."
	msgClosed       = "This conversation is already closed and can't accept new messages. You can still view its summary."
	msgConflict     = "This conversation was updated by another request. Please reload it and try again."
	msgInvalid      = "Please include a message so I can continue."
	msgUnexpected   = "Something went wrong while processing your message. Please try again."

	msgExtractionFailed = "I couldn't analyze your requirements just now. Please try again; your original message has been saved and will be reused."
	msgGenerationFailed = "I captured your requirements but couldn't prepare follow-up questions. Please try again."
)

func startedMessage(reqs *types.JobRequirements) string {
	var sb strings.Builder
	sb.WriteString("Thanks, I've captured the key requirements")
	if reqs != nil && reqs.RoleTitle != "" {
		sb.WriteString(" for the ")
		sb.WriteString(reqs.RoleTitle)
		sb.WriteString(" search")
		if reqs.CompanyName != "" {
			sb.WriteString(" at ")
			sb.WriteString(reqs.CompanyName)
		}
	}
	sb.WriteString(". Let me ask you some questions to better understand your needs.")
	return sb.String()
}

func completedMessage(answered int) string {
	if answered == 0 {
		return "Thank you! Your message covered everything I needed, so there are no follow-up questions. " +
			"Your background search has begun, and we will notify you when we have identified potential candidates " +
			"that match your specific needs."
	}
	return fmt.Sprintf("Thank you for providing all that valuable information! "+
		"I now have a comprehensive understanding of your requirements after answering %d questions. "+
		"Your background search has begun, and we will notify you when we have identified potential candidates "+
		"that match your specific needs.", answered)
}

// StatusMessage is the human-readable acknowledgement for a status change.
func StatusMessage(status types.Status) string {
	switch status {
	case types.StatusPaused:
		return "Conversation paused. Send a message whenever you're ready to continue."
	case types.StatusActive:
		return "Conversation resumed."
	case types.StatusAbandoned:
		return "Conversation closed. Start a new one any time."
	default:
		return ""
	}
}

// failureMessage is the human-readable text returned alongside err.
func failureMessage(err error) string {
	var (
		notFound *NotFoundError
		closed   *ConversationClosedError
		conflict *ConflictError
		invalid  *InvalidMessageError
		step     *StepFailedError
	)
	if len(multierr.Errors(err)) > 1 {
		// The failed step could not be recorded, so there is nothing saved to retry.
		return msgUnexpected
	}
	switch {
	case errors.As(err, &notFound):
		return msgNotFound
	case errors.As(err, &closed):
		return msgClosed
	case errors.As(err, &conflict):
		return msgConflict
	case errors.As(err, &invalid):
		return msgInvalid
	case errors.As(err, &step):
		if step.Step == types.StepGeneration {
			return msgGenerationFailed
		}
		return msgExtractionFailed
	default:
		return msgUnexpected
	}
}
