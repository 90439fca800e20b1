// Package conversation implements the intake dialogue state machine on top of a Store.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/executive-intake/internal/logging"
	"github.com/jonathan/executive-intake/internal/types"
	"go.uber.org/multierr"
)

// Extractor turns the first message into requirements.
type Extractor interface {
	Extract(ctx context.Context, message string) (*types.JobRequirements, error)
}

// QuestionGenerator builds the follow-up queue from requirements.
type QuestionGenerator interface {
	Generate(ctx context.Context, reqs *types.JobRequirements) ([]types.Question, error)
}

// Orchestrator drives phase and status transitions. It holds no per-conversation state;
// every request loads the conversation, applies one transition, and writes it back once.
type Orchestrator struct {
	store     Store
	extractor Extractor
	generator QuestionGenerator
	log       *logging.Logger
	now       func() time.Time
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger used for transition and failure events.
func WithLogger(log *logging.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(store Store, extractor Extractor, generator QuestionGenerator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		extractor: extractor,
		generator: generator,
		log:       logging.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle applies message to the conversation named by id, or to a new conversation when id is nil.
//
// The returned conversation is the state after the call, and is non-nil whenever the
// conversation exists, also on error. Collaborator failures return *StepFailedError with the
// conversation in PhaseError at its previous version; retrying with any message repeats the
// failed step against the stored input.
func (o *Orchestrator) Handle(ctx context.Context, id *uuid.UUID, message string) (*types.Conversation, error) {
	if id == nil {
		if strings.TrimSpace(message) == "" {
			return nil, &InvalidMessageError{Message: "message is empty"}
		}
		conv := types.NewConversation(o.now())
		conv.InitialMessage = message
		return o.runSetup(ctx, conv, true, types.StepExtraction)
	}

	conv, err := o.store.Load(ctx, *id)
	if err != nil {
		return nil, err
	}
	if conv.IsClosed() {
		return conv, &ConversationClosedError{ID: conv.ID, Phase: conv.Phase, Status: conv.Status}
	}

	switch conv.Phase {
	case types.PhaseInitial:
		if strings.TrimSpace(message) == "" {
			return conv, &InvalidMessageError{Message: "message is empty"}
		}
		conv.InitialMessage = message
		return o.runSetup(ctx, conv, false, types.StepExtraction)
	case types.PhaseError:
		step := conv.FailedStep
		if step == types.StepGeneration && conv.StagedRequirements == nil {
			step = types.StepExtraction
		}
		if step == "" {
			step = types.StepExtraction
		}
		return o.runSetup(ctx, conv, false, step)
	case types.PhaseQuestioning:
		if strings.TrimSpace(message) == "" {
			return conv, &InvalidMessageError{Message: "answer is empty"}
		}
		return o.recordAnswer(ctx, conv, message)
	default:
		return conv, &ConversationClosedError{ID: conv.ID, Phase: conv.Phase, Status: conv.Status}
	}
}

// runSetup performs extraction (unless starting at generation) and generation, then writes
// the conversation in QUESTIONING or COMPLETED. Nothing is applied unless both succeed.
func (o *Orchestrator) runSetup(ctx context.Context, conv *types.Conversation, isNew bool, from types.Step) (*types.Conversation, error) {
	reqs := conv.StagedRequirements
	if from == types.StepExtraction {
		extracted, err := o.extractor.Extract(ctx, conv.InitialMessage)
		if err != nil {
			return o.markFailed(ctx, conv, isNew, types.StepExtraction, nil, err)
		}
		reqs = extracted
	}

	queue, err := o.generator.Generate(ctx, reqs)
	if err != nil {
		return o.markFailed(ctx, conv, isNew, types.StepGeneration, reqs, err)
	}

	next := conv.Clone()
	now := o.now()
	next.Requirements = reqs.Clone()
	next.StagedRequirements = nil
	next.FailedStep = ""
	next.LastError = ""
	next.QuestionQueue = append([]types.Question{}, queue...)
	next.CurrentIndex = 0
	next.Status = types.StatusActive
	if len(next.QuestionQueue) == 0 {
		o.complete(next, now)
	} else {
		next.Phase = types.PhaseQuestioning
	}
	return o.commit(ctx, conv, next, isNew, now)
}

func (o *Orchestrator) recordAnswer(ctx context.Context, conv *types.Conversation, message string) (*types.Conversation, error) {
	next := conv.Clone()
	now := o.now()

	q := next.CurrentQuestion()
	if q != nil {
		next.Answers = append(next.Answers, types.Answer{QuestionID: q.ID, Text: message, AnsweredAt: now})
		next.CurrentIndex++
	}
	next.Status = types.StatusActive
	if next.CurrentIndex >= len(next.QuestionQueue) {
		o.complete(next, now)
	}
	return o.commit(ctx, conv, next, false, now)
}

func (o *Orchestrator) complete(conv *types.Conversation, now time.Time) {
	conv.Phase = types.PhaseCompleted
	conv.Status = types.StatusCompleted
	conv.CurrentIndex = len(conv.QuestionQueue)
	conv.CompletedAt = &now
}

// commit writes next as version prev.Version+1, conditional on prev.Version still being stored.
func (o *Orchestrator) commit(ctx context.Context, prev, next *types.Conversation, isNew bool, now time.Time) (*types.Conversation, error) {
	expected := prev.Version
	next.Version = expected + 1
	next.UpdatedAt = now

	// The write either fully applies or is discarded, even if the caller goes away.
	writeCtx := context.WithoutCancel(ctx)
	var err error
	if isNew {
		_, err = o.store.Create(writeCtx, next)
	} else {
		err = o.store.Save(writeCtx, next, expected)
	}
	if err != nil {
		o.log.Warn("conversation write rejected",
			"conversation_id", next.ID, "expected_version", expected, "error", err)
		if isNew {
			return nil, err
		}
		return prev, err
	}

	o.log.Info("conversation transition",
		"conversation_id", next.ID,
		"from_phase", prev.Phase, "to_phase", next.Phase,
		"status", next.Status, "version", next.Version)
	return next, nil
}

// markFailed records PhaseError without advancing the version and returns *StepFailedError.
// Requirements and the question queue are left untouched; a generation failure keeps the
// extraction result aside in StagedRequirements so the retry does not repeat extraction.
// A new conversation that cannot be created is not returned at all.
func (o *Orchestrator) markFailed(ctx context.Context, conv *types.Conversation, isNew bool, step types.Step, staged *types.JobRequirements, cause error) (*types.Conversation, error) {
	failed := conv.Clone()
	failed.Phase = types.PhaseError
	failed.FailedStep = step
	failed.StagedRequirements = staged.Clone()
	failed.LastError = cause.Error()
	failed.UpdatedAt = o.now()

	o.log.Error("conversation step failed",
		"conversation_id", conv.ID, "step", step, "version", conv.Version, "error", cause)

	stepErr := &StepFailedError{ID: conv.ID, Step: step, Cause: cause}
	writeCtx := context.WithoutCancel(ctx)
	if isNew {
		if _, err := o.store.Create(writeCtx, failed); err != nil {
			// Nothing was stored, so the id must not reach the caller.
			o.log.Warn("failed to create conversation in error phase", "conversation_id", conv.ID, "error", err)
			return nil, multierr.Append(stepErr, err)
		}
		return failed, stepErr
	}
	if err := o.store.Save(writeCtx, failed, conv.Version); err != nil {
		// A concurrent request already moved the conversation on; its state wins.
		o.log.Warn("failed to record error phase", "conversation_id", conv.ID, "error", err)
	}
	return failed, stepErr
}

// Get returns the stored conversation.
func (o *Orchestrator) Get(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	return o.store.Load(ctx, id)
}

// GetProgress returns the progress of a stored conversation.
func (o *Orchestrator) GetProgress(ctx context.Context, id uuid.UUID) (types.Progress, error) {
	conv, err := o.store.Load(ctx, id)
	if err != nil {
		return types.Progress{}, err
	}
	return ComputeProgress(conv), nil
}

// GetSummary returns requirements and answers, each answer paired with its question.
func (o *Orchestrator) GetSummary(ctx context.Context, id uuid.UUID) (*types.Summary, error) {
	conv, err := o.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	answers := make([]types.AnsweredQuestion, 0, len(conv.Answers))
	for _, q := range conv.QuestionQueue {
		a, ok := conv.AnswerFor(q.ID)
		if !ok {
			continue
		}
		answers = append(answers, types.AnsweredQuestion{
			QuestionID: q.ID,
			Question:   q.Text,
			Category:   q.Category,
			Answer:     a.Text,
			AnsweredAt: a.AnsweredAt,
		})
	}

	return &types.Summary{
		ConversationID: conv.ID,
		Requirements:   conv.Requirements.Clone(),
		Answers:        answers,
		Phase:          conv.Phase,
		Status:         conv.Status,
		Progress:       ComputeProgress(conv),
		CompletedAt:    conv.CompletedAt,
	}, nil
}

// StartOrContinue is the transport-facing form of Handle. The response is always well formed;
// on failure it carries PhaseError and a human-readable message alongside the returned error.
func (o *Orchestrator) StartOrContinue(ctx context.Context, id *uuid.UUID, message string) (*types.ConversationResponse, error) {
	conv, err := o.Handle(ctx, id, message)
	if err != nil {
		return o.failureResponse(id, conv, err), err
	}
	return o.successResponse(conv), nil
}

func (o *Orchestrator) successResponse(conv *types.Conversation) *types.ConversationResponse {
	resp := &types.ConversationResponse{
		ConversationID: conv.ID,
		Phase:          conv.Phase,
		Status:         conv.Status,
		Progress:       ComputeProgress(conv),
		IsComplete:     conv.Phase == types.PhaseCompleted,
		Version:        conv.Version,
		Timestamp:      o.now(),
	}

	switch {
	case conv.Phase == types.PhaseCompleted:
		resp.ResponseContent = completedMessage(len(conv.Answers))
	case conv.CurrentIndex == 0:
		resp.ResponseContent = startedMessage(conv.Requirements)
	default:
		resp.ResponseContent = msgNextQuestion
	}

	if conv.Phase == types.PhaseQuestioning {
		if q := conv.CurrentQuestion(); q != nil {
			text := q.Text
			resp.NextQuestion = &text
		}
	}
	return resp
}

func (o *Orchestrator) failureResponse(id *uuid.UUID, conv *types.Conversation, err error) *types.ConversationResponse {
	resp := &types.ConversationResponse{
		Phase:           types.PhaseError,
		Status:          types.StatusActive,
		ResponseContent: failureMessage(err),
		Timestamp:       o.now(),
	}
	if id != nil {
		resp.ConversationID = *id
	}
	if conv != nil {
		resp.ConversationID = conv.ID
		resp.Status = conv.Status
		resp.Progress = ComputeProgress(conv)
		resp.Version = conv.Version
	}

	var step *StepFailedError
	if !errors.As(err, &step) {
		o.log.Debug("message rejected", "conversation_id", resp.ConversationID, "error", err)
	}
	return resp
}
