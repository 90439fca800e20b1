package db

import (
	"time"

	"github.com/google/uuid"
)

// conversationRow mirrors one row of the conversations table, with JSONB columns kept raw
type conversationRow struct {
	ID                 uuid.UUID
	Phase              string
	Status             string
	Version            int64
	CurrentIndex       int
	Requirements       []byte
	StagedRequirements []byte
	QuestionQueue      []byte
	Answers            []byte
	InitialMessage     string
	FailedStep         string
	LastError          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CompletedAt        *time.Time
}

// ConversationSummary is a lightweight view of a conversation for listing
type ConversationSummary struct {
	ID             uuid.UUID `json:"id"`
	Phase          string    `json:"phase"`
	Status         string    `json:"status"`
	Version        int64     `json:"version"`
	CurrentIndex   int       `json:"current_index"`
	TotalQuestions int       `json:"total_questions"`
	RoleTitle      string    `json:"role_title"`
	CompanyName    string    `json:"company_name"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ConversationFilters holds optional filters for listing conversations
type ConversationFilters struct {
	Status string
	Phase  string
	Limit  int
}
