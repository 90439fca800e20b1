package types

import (
	"time"

	"github.com/google/uuid"
)

// Phase tracks dialogue progress of a conversation
type Phase string

// Conversation phases
const (
	PhaseInitial     Phase = "INITIAL"
	PhaseQuestioning Phase = "QUESTIONING"
	PhaseCompleted   Phase = "COMPLETED"
	PhaseError       Phase = "ERROR"
)

// Status tracks lifecycle/liveness of a conversation, independent of Phase
type Status string

// Conversation statuses
const (
	StatusActive    Status = "ACTIVE"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusAbandoned Status = "ABANDONED"
)

// Step names the collaborator call that failed while in PhaseError
type Step string

// Retryable steps
const (
	StepExtraction Step = "extraction"
	StepGeneration Step = "generation"
)

// Answer records the reply to one question
type Answer struct {
	QuestionID string    `json:"question_id"`
	Text       string    `json:"text"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Conversation is the aggregate root persisted by a conversation store
type Conversation struct {
	ID            uuid.UUID        `json:"id"`
	Phase         Phase            `json:"phase"`
	Status        Status           `json:"status"`
	Requirements  *JobRequirements `json:"requirements,omitempty"`
	QuestionQueue []Question       `json:"question_queue"`
	CurrentIndex  int              `json:"current_index"`
	Answers       []Answer         `json:"answers"`
	Version       int64            `json:"version"`

	// Retry bookkeeping for PhaseError
	InitialMessage     string           `json:"initial_message,omitempty"`
	FailedStep         Step             `json:"failed_step,omitempty"`
	StagedRequirements *JobRequirements `json:"staged_requirements,omitempty"`
	LastError          string           `json:"last_error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewConversation returns a fresh conversation in PhaseInitial, StatusActive, version 0.
func NewConversation(now time.Time) *Conversation {
	return &Conversation{
		ID:            uuid.New(),
		Phase:         PhaseInitial,
		Status:        StatusActive,
		QuestionQueue: []Question{},
		Answers:       []Answer{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CurrentQuestion returns the next unanswered question, or nil when none is pending.
func (c *Conversation) CurrentQuestion() *Question {
	if c.CurrentIndex < 0 || c.CurrentIndex >= len(c.QuestionQueue) {
		return nil
	}
	return &c.QuestionQueue[c.CurrentIndex]
}

// AnswerFor returns the answer recorded for a question id.
func (c *Conversation) AnswerFor(questionID string) (Answer, bool) {
	for _, a := range c.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

// IsClosed reports whether the conversation accepts no further messages.
func (c *Conversation) IsClosed() bool {
	return c.Phase == PhaseCompleted || c.Status == StatusCompleted || c.Status == StatusAbandoned
}

// Clone returns a deep copy so callers never share slices with a store.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Requirements = c.Requirements.Clone()
	out.StagedRequirements = c.StagedRequirements.Clone()
	out.QuestionQueue = append([]Question{}, c.QuestionQueue...)
	out.Answers = append([]Answer{}, c.Answers...)
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
