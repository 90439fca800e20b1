package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/executive-intake/internal/conversation"
	"github.com/jonathan/executive-intake/internal/types"
)

// -----------------------------------------------------------------------------
// Conversation Store Methods
// -----------------------------------------------------------------------------

const conversationColumns = `id, phase, status, version, current_index, requirements, staged_requirements,
	question_queue, answers, initial_message, failed_step, last_error, created_at, updated_at, completed_at`

var _ conversation.Store = (*DB)(nil)

// Load retrieves a conversation by id, returning *conversation.NotFoundError if it does not exist.
func (db *DB) Load(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	var row conversationRow
	err := db.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`,
		id,
	).Scan(row.dest()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &conversation.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return row.toConversation()
}

// Create inserts a new conversation. An existing row with the same id is left untouched and
// reported as *conversation.ConflictError.
func (db *DB) Create(ctx context.Context, conv *types.Conversation) (uuid.UUID, error) {
	row, err := newConversationRow(conv)
	if err != nil {
		return uuid.Nil, err
	}

	result, err := db.pool.Exec(ctx,
		`INSERT INTO conversations (`+conversationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (id) DO NOTHING`,
		row.args()...,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return uuid.Nil, &conversation.ConflictError{ID: conv.ID, ExpectedVersion: conv.Version}
	}
	return conv.ID, nil
}

// Save overwrites the conversation if the stored version still equals expectedVersion.
func (db *DB) Save(ctx context.Context, conv *types.Conversation, expectedVersion int64) error {
	row, err := newConversationRow(conv)
	if err != nil {
		return err
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE conversations
		 SET phase = $3, status = $4, version = $5, current_index = $6, requirements = $7,
		     staged_requirements = $8, question_queue = $9, answers = $10, initial_message = $11,
		     failed_step = $12, last_error = $13, updated_at = $14, completed_at = $15
		 WHERE id = $1 AND version = $2`,
		row.ID, expectedVersion, row.Phase, row.Status, row.Version, row.CurrentIndex,
		row.Requirements, row.StagedRequirements, row.QuestionQueue, row.Answers,
		row.InitialMessage, row.FailedStep, row.LastError, row.UpdatedAt, row.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	if result.RowsAffected() == 1 {
		return nil
	}

	// Nothing matched: either the id is unknown or another writer got there first.
	var exists bool
	if err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`, conv.ID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check conversation: %w", err)
	}
	if !exists {
		return &conversation.NotFoundError{ID: conv.ID}
	}
	return &conversation.ConflictError{ID: conv.ID, ExpectedVersion: expectedVersion}
}

// ListConversations retrieves recent conversations, optionally filtered by status
func (db *DB) ListConversations(ctx context.Context, filters ConversationFilters) ([]ConversationSummary, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT id, phase, status, version, current_index, jsonb_array_length(question_queue),
		COALESCE(requirements->>'role_title', ''), COALESCE(requirements->>'company_name', ''), updated_at
		FROM conversations WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}
	if filters.Phase != "" {
		query += fmt.Sprintf(" AND phase = $%d", argNum)
		args = append(args, filters.Phase)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	summaries := []ConversationSummary{}
	for rows.Next() {
		var s ConversationSummary
		if err := rows.Scan(&s.ID, &s.Phase, &s.Status, &s.Version, &s.CurrentIndex, &s.TotalQuestions,
			&s.RoleTitle, &s.CompanyName, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return summaries, nil
}

func newConversationRow(conv *types.Conversation) (*conversationRow, error) {
	row := &conversationRow{
		ID:             conv.ID,
		Phase:          string(conv.Phase),
		Status:         string(conv.Status),
		Version:        conv.Version,
		CurrentIndex:   conv.CurrentIndex,
		InitialMessage: conv.InitialMessage,
		FailedStep:     string(conv.FailedStep),
		LastError:      conv.LastError,
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
		CompletedAt:    conv.CompletedAt,
	}

	var err error
	if conv.Requirements != nil {
		if row.Requirements, err = json.Marshal(conv.Requirements); err != nil {
			return nil, fmt.Errorf("failed to marshal requirements: %w", err)
		}
	}
	if conv.StagedRequirements != nil {
		if row.StagedRequirements, err = json.Marshal(conv.StagedRequirements); err != nil {
			return nil, fmt.Errorf("failed to marshal staged requirements: %w", err)
		}
	}
	queue := conv.QuestionQueue
	if queue == nil {
		queue = []types.Question{}
	}
	if row.QuestionQueue, err = json.Marshal(queue); err != nil {
		return nil, fmt.Errorf("failed to marshal question queue: %w", err)
	}
	answers := conv.Answers
	if answers == nil {
		answers = []types.Answer{}
	}
	if row.Answers, err = json.Marshal(answers); err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}
	return row, nil
}

func (r *conversationRow) dest() []any {
	return []any{
		&r.ID, &r.Phase, &r.Status, &r.Version, &r.CurrentIndex, &r.Requirements, &r.StagedRequirements,
		&r.QuestionQueue, &r.Answers, &r.InitialMessage, &r.FailedStep, &r.LastError,
		&r.CreatedAt, &r.UpdatedAt, &r.CompletedAt,
	}
}

func (r *conversationRow) args() []any {
	return []any{
		r.ID, r.Phase, r.Status, r.Version, r.CurrentIndex, r.Requirements, r.StagedRequirements,
		r.QuestionQueue, r.Answers, r.InitialMessage, r.FailedStep, r.LastError,
		r.CreatedAt, r.UpdatedAt, r.CompletedAt,
	}
}

func (r *conversationRow) toConversation() (*types.Conversation, error) {
	conv := &types.Conversation{
		ID:             r.ID,
		Phase:          types.Phase(r.Phase),
		Status:         types.Status(r.Status),
		Version:        r.Version,
		CurrentIndex:   r.CurrentIndex,
		QuestionQueue:  []types.Question{},
		Answers:        []types.Answer{},
		InitialMessage: r.InitialMessage,
		FailedStep:     types.Step(r.FailedStep),
		LastError:      r.LastError,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if r.CompletedAt != nil {
		t := r.CompletedAt.UTC()
		conv.CompletedAt = &t
	}

	if len(r.Requirements) > 0 {
		conv.Requirements = &types.JobRequirements{}
		if err := json.Unmarshal(r.Requirements, conv.Requirements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal requirements: %w", err)
		}
	}
	if len(r.StagedRequirements) > 0 {
		conv.StagedRequirements = &types.JobRequirements{}
		if err := json.Unmarshal(r.StagedRequirements, conv.StagedRequirements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal staged requirements: %w", err)
		}
	}
	if len(r.QuestionQueue) > 0 {
		if err := json.Unmarshal(r.QuestionQueue, &conv.QuestionQueue); err != nil {
			return nil, fmt.Errorf("failed to unmarshal question queue: %w", err)
		}
	}
	if len(r.Answers) > 0 {
		if err := json.Unmarshal(r.Answers, &conv.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
	}
	return conv, nil
}
