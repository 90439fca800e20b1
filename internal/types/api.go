package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Progress is computed fresh from a conversation on every read
type Progress struct {
	CurrentQuestion    int     `json:"current_question"`
	TotalQuestions     int     `json:"total_questions"`
	ProgressPercentage float64 `json:"progress_percentage"`
	IsComplete         bool    `json:"is_complete"`
}

// MessageRequest is the inbound body for starting or continuing a conversation.
type MessageRequest struct {
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	Message        string     `json:"message" validate:"required,min=1,max=20000"`
}

// StatusChangeRequest asks for an explicit lifecycle transition.
type StatusChangeRequest struct {
	Status  Status `json:"status" validate:"required,oneof=ACTIVE PAUSED ABANDONED"`
	Version int64  `json:"version" validate:"min=0"`
}

// Validate validates the MessageRequest using the validator.
func (r *MessageRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the StatusChangeRequest using the validator.
func (r *StatusChangeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ConversationResponse is returned for every processed message, including failures.
type ConversationResponse struct {
	ConversationID  uuid.UUID `json:"conversation_id"`
	Phase           Phase     `json:"phase"`
	Status          Status    `json:"status"`
	ResponseContent string    `json:"response_content"`
	Progress        Progress  `json:"progress"`
	NextQuestion    *string   `json:"next_question,omitempty"`
	IsComplete      bool      `json:"is_complete"`
	Version         int64     `json:"version"`
	Timestamp       time.Time `json:"timestamp"`
}

// AnsweredQuestion pairs an answer with the question it replies to
type AnsweredQuestion struct {
	QuestionID string           `json:"question_id"`
	Question   string           `json:"question"`
	Category   QuestionCategory `json:"category"`
	Answer     string           `json:"answer"`
	AnsweredAt time.Time        `json:"answered_at"`
}

// Summary is the read model of a completed or in-progress conversation
type Summary struct {
	ConversationID uuid.UUID          `json:"conversation_id"`
	Requirements   *JobRequirements   `json:"requirements,omitempty"`
	Answers        []AnsweredQuestion `json:"answers"`
	Phase          Phase              `json:"phase"`
	Status         Status             `json:"status"`
	Progress       Progress           `json:"progress"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
}

// StatusChangeResponse acknowledges an explicit lifecycle transition.
type StatusChangeResponse struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Phase          Phase     `json:"phase"`
	Status         Status    `json:"status"`
	Version        int64     `json:"version"`
	Message        string    `json:"message"`
}
