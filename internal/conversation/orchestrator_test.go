package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/executive-intake/internal/extraction"
	"github.com/jonathan/executive-intake/internal/llm"
	"github.com/jonathan/executive-intake/internal/questions"
	"github.com/jonathan/executive-intake/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowAIMessage = "I need a VP of Sales for FlowAI, Series A fintech, $2M→$10M ARR in 18 months"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeExtractor struct {
	calls    int
	messages []string
	results  []error
	reqs     *types.JobRequirements
}

// Extract fails with results[i] on call i when non-nil, and succeeds otherwise.
func (f *fakeExtractor) Extract(_ context.Context, message string) (*types.JobRequirements, error) {
	i := f.calls
	f.calls++
	f.messages = append(f.messages, message)
	if i < len(f.results) && f.results[i] != nil {
		return nil, f.results[i]
	}
	return f.reqs.Clone(), nil
}

type fakeGenerator struct {
	calls   int
	results []error
	queue   []types.Question
	got     []*types.JobRequirements
}

func (f *fakeGenerator) Generate(_ context.Context, reqs *types.JobRequirements) ([]types.Question, error) {
	i := f.calls
	f.calls++
	f.got = append(f.got, reqs)
	if i < len(f.results) && f.results[i] != nil {
		return nil, f.results[i]
	}
	return append([]types.Question{}, f.queue...), nil
}

func flowAIRequirements() *types.JobRequirements {
	return &types.JobRequirements{
		RoleTitle:                "VP of Sales",
		CompanyName:              "FlowAI",
		CompanyStage:             "Series A fintech",
		QuantitativeTargets:      []string{"$2M to $10M ARR in 18 months"},
		StatedSubjectiveCriteria: []string{},
	}
}

func newTestOrchestrator(store Store, ext Extractor, gen QuestionGenerator) *Orchestrator {
	return NewOrchestrator(store, ext, gen, WithClock(func() time.Time { return fixedNow }))
}

func seed(t *testing.T, store *MemoryStore, conv *types.Conversation) {
	t.Helper()
	_, err := store.Create(context.Background(), conv)
	require.NoError(t, err)
}

// assertInvariant checks the phase/index relationship after a successful transition.
func assertInvariant(t *testing.T, conv *types.Conversation) {
	t.Helper()
	n := len(conv.QuestionQueue)
	switch conv.Phase {
	case types.PhaseCompleted:
		assert.Equal(t, n, conv.CurrentIndex)
	case types.PhaseQuestioning:
		assert.True(t, conv.CurrentIndex >= 0 && conv.CurrentIndex < n)
	}
}

func TestHandle_NewConversation_StartsQuestioning(t *testing.T) {
	store := NewMemoryStore()
	ext := &fakeExtractor{reqs: flowAIRequirements()}
	gen := &fakeGenerator{queue: queueOf(3)}
	o := newTestOrchestrator(store, ext, gen)

	conv, err := o.Handle(context.Background(), nil, flowAIMessage)
	require.NoError(t, err)

	assert.Equal(t, types.PhaseQuestioning, conv.Phase)
	assert.Equal(t, types.StatusActive, conv.Status)
	assert.Equal(t, int64(1), conv.Version)
	assert.Equal(t, 0, conv.CurrentIndex)
	assert.Equal(t, flowAIRequirements(), conv.Requirements)
	assert.Nil(t, conv.StagedRequirements)
	assert.Equal(t, []string{flowAIMessage}, ext.messages)
	assertInvariant(t, conv)

	stored, err := store.Load(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv, stored)
}

func TestHandle_FlowAIEndToEnd(t *testing.T) {
	// Real extractor and generator behind a scripted language model.
	port := llm.PortFunc(func(_ context.Context, prompt string, _ time.Duration) (string, error) {
		if strings.Contains(prompt, "executive search consultant") {
			return `[
				{"text": "What leadership style fits your founding team?", "category": "cultural_fit"},
				{"text": "What is your current ARR?", "category": "other"},
				{"text": "How important is prior fintech experience?", "category": "experience"}
			]`, nil
		}
		return `{"role_title": "VP of Sales", "company_name": "FlowAI", "company_stage": "Series A fintech",
			"quantitative_targets": ["$2M→$10M ARR in 18 months"], "stated_subjective_criteria": []}`, nil
	})
	o := newTestOrchestrator(NewMemoryStore(),
		extraction.New(port, time.Second),
		questions.New(port, questions.Options{MinQuestions: 0, Timeout: time.Second}))

	resp, err := o.StartOrContinue(context.Background(), nil, flowAIMessage)
	require.NoError(t, err)

	assert.Equal(t, types.PhaseQuestioning, resp.Phase)
	require.NotNil(t, resp.NextQuestion)
	assert.Equal(t, "What leadership style fits your founding team?", *resp.NextQuestion)
	assert.Equal(t, 2, resp.Progress.TotalQuestions)

	conv, err := o.Get(context.Background(), resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "VP of Sales", conv.Requirements.RoleTitle)
	assert.Equal(t, "FlowAI", conv.Requirements.CompanyName)
	assert.Equal(t, []string{"$2M to $10M ARR in 18 months"}, conv.Requirements.QuantitativeTargets)
	assert.NotEmpty(t, conv.QuestionQueue)
}

func TestHandle_LastAnswerCompletes(t *testing.T) {
	store := NewMemoryStore()
	conv := types.NewConversation(fixedNow)
	conv.Phase = types.PhaseQuestioning
	conv.Requirements = flowAIRequirements()
	conv.QuestionQueue = queueOf(3)
	conv.CurrentIndex = 2
	conv.Answers = []types.Answer{{QuestionID: "q1", Text: "a"}, {QuestionID: "q2", Text: "b"}}
	conv.Version = 3
	seed(t, store, conv)

	o := newTestOrchestrator(store, &fakeExtractor{}, &fakeGenerator{})
	resp, err := o.StartOrContinue(context.Background(), &conv.ID, "Someone who has sold to banks")
	require.NoError(t, err)

	assert.Equal(t, types.PhaseCompleted, resp.Phase)
	assert.Equal(t, types.StatusCompleted, resp.Status)
	assert.True(t, resp.IsComplete)
	assert.Equal(t, float64(100), resp.Progress.ProgressPercentage)
	assert.Nil(t, resp.NextQuestion)
	assert.Equal(t, int64(4), resp.Version)
	assert.Contains(t, resp.ResponseContent, "after answering 3 questions")

	stored, err := store.Load(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Answers, 3)
	assert.Equal(t, "q3", stored.Answers[2].QuestionID)
	assert.Equal(t, fixedNow, *stored.CompletedAt)
	assertInvariant(t, stored)
}

func TestGetProgress_FreshConversation(t *testing.T) {
	store := NewMemoryStore()
	conv := types.NewConversation(fixedNow)
	seed(t, store, conv)

	o := newTestOrchestrator(store, &fakeExtractor{}, &fakeGenerator{})
	progress, err := o.GetProgress(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Progress{CurrentQuestion: 0, TotalQuestions: 0, ProgressPercentage: 0, IsComplete: false}, progress)

	_, err = o.GetProgress(context.Background(), uuid.New())
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestHandle_ClosedConversation(t *testing.T) {
	tests := []struct {
		name   string
		phase  types.Phase
		status types.Status
	}{
		{"completed", types.PhaseCompleted, types.StatusCompleted},
		{"abandoned", types.PhaseQuestioning, types.StatusAbandoned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			conv := types.NewConversation(fixedNow)
			conv.Phase = tt.phase
			conv.Status = tt.status
			conv.QuestionQueue = queueOf(2)
			if tt.phase == types.PhaseCompleted {
				conv.CurrentIndex = 2
			}
			conv.Version = 7
			seed(t, store, conv)

			o := newTestOrchestrator(store, &fakeExtractor{}, &fakeGenerator{})
			resp, err := o.StartOrContinue(context.Background(), &conv.ID, "one more thing")

			var closed *ConversationClosedError
			require.True(t, errors.As(err, &closed))
			assert.Equal(t, types.PhaseError, resp.Phase)
			assert.Equal(t, msgClosed, resp.ResponseContent)
			assert.Equal(t, conv.ID, resp.ConversationID)

			stored, err := store.Load(context.Background(), conv.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(7), stored.Version)
			assert.Equal(t, tt.phase, stored.Phase)
		})
	}
}

func TestHandle_ExtractionTimeoutThenRetry(t *testing.T) {
	store := NewMemoryStore()
	timeout := &extraction.ExtractionError{
		Message: "language model call failed",
		Cause:   &llm.UpstreamError{Message: "timed out", Timeout: true, Cause: context.DeadlineExceeded},
	}
	ext := &fakeExtractor{reqs: flowAIRequirements(), results: []error{timeout}}
	gen := &fakeGenerator{queue: queueOf(3)}
	o := newTestOrchestrator(store, ext, gen)

	resp, err := o.StartOrContinue(context.Background(), nil, flowAIMessage)
	require.Error(t, err)

	var stepErr *StepFailedError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, types.StepExtraction, stepErr.Step)
	var extractionErr *extraction.ExtractionError
	assert.True(t, errors.As(err, &extractionErr))
	assert.True(t, llm.IsTimeout(err))

	assert.Equal(t, types.PhaseError, resp.Phase)
	assert.Equal(t, msgExtractionFailed, resp.ResponseContent)
	assert.NotEqual(t, uuid.Nil, resp.ConversationID)
	assert.Equal(t, int64(0), resp.Version)

	failed, err := store.Load(context.Background(), resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseError, failed.Phase)
	assert.Nil(t, failed.Requirements)
	assert.Empty(t, failed.QuestionQueue)
	assert.Equal(t, int64(0), failed.Version)
	assert.Equal(t, types.StepExtraction, failed.FailedStep)
	assert.Equal(t, 0, gen.calls)

	// The retry reuses the stored message, whatever the client sends.
	retried, err := o.StartOrContinue(context.Background(), &resp.ConversationID, flowAIMessage)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseQuestioning, retried.Phase)
	assert.Equal(t, int64(1), retried.Version)
	assert.Equal(t, []string{flowAIMessage, flowAIMessage}, ext.messages)

	conv, err := store.Load(context.Background(), resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, flowAIRequirements(), conv.Requirements)
	assert.Len(t, conv.QuestionQueue, 3)
	assert.Empty(t, conv.Answers)
	assert.Empty(t, conv.FailedStep)
	assert.Empty(t, conv.LastError)
	assert.Equal(t, 1, store.Len())
}

func TestHandle_GenerationFailureKeepsExtraction(t *testing.T) {
	store := NewMemoryStore()
	ext := &fakeExtractor{reqs: flowAIRequirements()}
	gen := &fakeGenerator{
		queue:   queueOf(2),
		results: []error{&questions.GenerationError{Message: "bad output"}},
	}
	o := newTestOrchestrator(store, ext, gen)

	failed, err := o.Handle(context.Background(), nil, flowAIMessage)
	var genErr *questions.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, types.PhaseError, failed.Phase)
	assert.Equal(t, types.StepGeneration, failed.FailedStep)
	assert.Nil(t, failed.Requirements, "requirements are not applied until generation succeeds")
	assert.Equal(t, flowAIRequirements(), failed.StagedRequirements)

	resp, _ := o.StartOrContinue(context.Background(), &failed.ID, "retry")
	assert.Equal(t, types.PhaseQuestioning, resp.Phase)
	assert.Equal(t, 1, ext.calls, "extraction is not repeated")
	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, flowAIRequirements(), gen.got[1])
}

func TestHandle_EmptyQueueCompletesImmediately(t *testing.T) {
	o := newTestOrchestrator(NewMemoryStore(), &fakeExtractor{reqs: flowAIRequirements()}, &fakeGenerator{})

	resp, err := o.StartOrContinue(context.Background(), nil, flowAIMessage)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseCompleted, resp.Phase)
	assert.Equal(t, types.StatusCompleted, resp.Status)
	assert.True(t, resp.IsComplete)
	assert.Nil(t, resp.NextQuestion)
	assert.Equal(t, int64(1), resp.Version)
	assert.Equal(t, types.Progress{IsComplete: true}, resp.Progress)
	assert.Contains(t, resp.ResponseContent, "no follow-up questions")
}

// staleStore serves a fixed snapshot on Load, simulating a request that read before another wrote.
type staleStore struct {
	*MemoryStore
	snapshot *types.Conversation
}

func (s *staleStore) Load(_ context.Context, _ uuid.UUID) (*types.Conversation, error) {
	return s.snapshot.Clone(), nil
}

func TestHandle_ReplayWithSameVersionConflicts(t *testing.T) {
	mem := NewMemoryStore()
	conv := types.NewConversation(fixedNow)
	conv.Phase = types.PhaseQuestioning
	conv.QuestionQueue = queueOf(3)
	conv.Version = 1
	seed(t, mem, conv)

	o := newTestOrchestrator(&staleStore{MemoryStore: mem, snapshot: conv}, &fakeExtractor{}, &fakeGenerator{})

	first, err := o.Handle(context.Background(), &conv.ID, "answer one")
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Version)

	second, err := o.Handle(context.Background(), &conv.ID, "answer one")
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, int64(1), second.Version)

	stored, err := mem.Load(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Answers, 1, "the second call is never applied")
	assert.Equal(t, int64(2), stored.Version)
}

func TestHandle_VersionAndIndexMonotonic(t *testing.T) {
	store := NewMemoryStore()
	o := newTestOrchestrator(store, &fakeExtractor{reqs: flowAIRequirements()}, &fakeGenerator{queue: queueOf(4)})

	conv, err := o.Handle(context.Background(), nil, flowAIMessage)
	require.NoError(t, err)
	assertInvariant(t, conv)

	for i := 0; i < 4; i++ {
		prevVersion, prevIndex := conv.Version, conv.CurrentIndex
		conv, err = o.Handle(context.Background(), &conv.ID, "answer")
		require.NoError(t, err)
		assert.Equal(t, prevVersion+1, conv.Version)
		assert.GreaterOrEqual(t, conv.CurrentIndex, prevIndex)
		assertInvariant(t, conv)
	}
	assert.Equal(t, types.PhaseCompleted, conv.Phase)
	assert.Equal(t, int64(5), conv.Version)

	_, err = o.Handle(context.Background(), &conv.ID, "extra")
	var closed *ConversationClosedError
	assert.True(t, errors.As(err, &closed))
}

func TestStartOrContinue_ResponseShape(t *testing.T) {
	o := newTestOrchestrator(NewMemoryStore(), &fakeExtractor{reqs: flowAIRequirements()}, &fakeGenerator{queue: queueOf(2)})

	started, err := o.StartOrContinue(context.Background(), nil, flowAIMessage)
	require.NoError(t, err)
	assert.Equal(t, "Thanks, I've captured the key requirements for the VP of Sales search at FlowAI. "+
		"Let me ask you some questions to better understand your needs.", started.ResponseContent)
	require.NotNil(t, started.NextQuestion)
	assert.Equal(t, "Question 1?", *started.NextQuestion)
	assert.Equal(t, fixedNow, started.Timestamp)

	next, err := o.StartOrContinue(context.Background(), &started.ConversationID, "An operator")
	require.NoError(t, err)
	assert.Equal(t, msgNextQuestion, next.ResponseContent)
	require.NotNil(t, next.NextQuestion)
	assert.Equal(t, "Question 2?", *next.NextQuestion)
	assert.Equal(t, float64(50), next.Progress.ProgressPercentage)
}

func TestStartOrContinue_Failures(t *testing.T) {
	o := newTestOrchestrator(NewMemoryStore(), &fakeExtractor{reqs: flowAIRequirements()}, &fakeGenerator{})
	missing := uuid.New()

	resp, err := o.StartOrContinue(context.Background(), &missing, "hello")
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, missing, resp.ConversationID)
	assert.Equal(t, types.PhaseError, resp.Phase)
	assert.Equal(t, msgNotFound, resp.ResponseContent)

	resp, err = o.StartOrContinue(context.Background(), nil, "   ")
	var invalid *InvalidMessageError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, types.PhaseError, resp.Phase)
	assert.Equal(t, msgInvalid, resp.ResponseContent)
}

func TestHandle_PausedConversationResumesOnMessage(t *testing.T) {
	store := NewMemoryStore()
	conv := types.NewConversation(fixedNow)
	conv.Phase = types.PhaseQuestioning
	conv.Status = types.StatusPaused
	conv.QuestionQueue = queueOf(2)
	conv.Version = 4
	seed(t, store, conv)

	o := newTestOrchestrator(store, &fakeExtractor{}, &fakeGenerator{})
	updated, err := o.Handle(context.Background(), &conv.ID, "back again")
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, updated.Status)
	assert.Equal(t, 1, updated.CurrentIndex)
	assert.Equal(t, int64(5), updated.Version)
}

func TestHandle_StoredInitialPhase(t *testing.T) {
	store := NewMemoryStore()
	conv := types.NewConversation(fixedNow)
	seed(t, store, conv)

	ext := &fakeExtractor{reqs: flowAIRequirements()}
	o := newTestOrchestrator(store, ext, &fakeGenerator{queue: queueOf(1)})
	updated, err := o.Handle(context.Background(), &conv.ID, flowAIMessage)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseQuestioning, updated.Phase)
	assert.Equal(t, int64(1), updated.Version)
	assert.Equal(t, flowAIMessage, updated.InitialMessage)
}

func TestGetSummary(t *testing.T) {
	store := NewMemoryStore()
	conv := types.NewConversation(fixedNow)
	conv.Phase = types.PhaseQuestioning
	conv.Requirements = flowAIRequirements()
	conv.QuestionQueue = []types.Question{
		{ID: "q1", Text: "What leadership style fits?", Category: types.CategoryCulturalFit},
		{ID: "q2", Text: "Any deal breakers?", Category: types.CategoryDealBreaker},
	}
	conv.CurrentIndex = 1
	conv.Answers = []types.Answer{
		{QuestionID: "q9", Text: "No longer queued", AnsweredAt: fixedNow},
		{QuestionID: "q1", Text: "Servant leadership", AnsweredAt: fixedNow},
	}
	conv.Version = 2
	seed(t, store, conv)

	o := newTestOrchestrator(store, &fakeExtractor{}, &fakeGenerator{})
	summary, err := o.GetSummary(context.Background(), conv.ID)
	require.NoError(t, err)

	assert.Equal(t, conv.ID, summary.ConversationID)
	assert.Equal(t, flowAIRequirements(), summary.Requirements)
	assert.Equal(t, types.PhaseQuestioning, summary.Phase)
	assert.Equal(t, types.StatusActive, summary.Status)
	require.Len(t, summary.Answers, 1)
	assert.Equal(t, types.AnsweredQuestion{
		QuestionID: "q1",
		Question:   "What leadership style fits?",
		Category:   types.CategoryCulturalFit,
		Answer:     "Servant leadership",
		AnsweredAt: fixedNow,
	}, summary.Answers[0])
	assert.Equal(t, float64(50), summary.Progress.ProgressPercentage)

	_, err = o.GetSummary(context.Background(), uuid.New())
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

// createFailingStore rejects every Create while Load and Save pass through.
type createFailingStore struct {
	*MemoryStore
	err error
}

func (s *createFailingStore) Create(context.Context, *types.Conversation) (uuid.UUID, error) {
	return uuid.Nil, s.err
}

func TestHandle_NewConversationFailureNotStored(t *testing.T) {
	storeErr := errors.New("connection refused")
	tests := []struct {
		name string
		ext  *fakeExtractor
		gen  *fakeGenerator
		step types.Step
	}{
		{
			name: "extraction fails",
			ext: &fakeExtractor{results: []error{
				&llm.UpstreamError{Message: "timeout"}, &llm.UpstreamError{Message: "timeout"},
			}},
			gen:  &fakeGenerator{},
			step: types.StepExtraction,
		},
		{
			name: "generation fails",
			ext:  &fakeExtractor{reqs: flowAIRequirements()},
			gen: &fakeGenerator{results: []error{
				&questions.GenerationError{Message: "bad output"}, &questions.GenerationError{Message: "bad output"},
			}},
			step: types.StepGeneration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &createFailingStore{MemoryStore: NewMemoryStore(), err: storeErr}
			o := newTestOrchestrator(store, tt.ext, tt.gen)

			conv, err := o.Handle(context.Background(), nil, flowAIMessage)
			require.Error(t, err)
			assert.Nil(t, conv)
			assert.ErrorIs(t, err, storeErr)
			var stepErr *StepFailedError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, tt.step, stepErr.Step)

			resp, err := o.StartOrContinue(context.Background(), nil, flowAIMessage)
			require.Error(t, err)
			assert.Equal(t, uuid.Nil, resp.ConversationID)
			assert.Equal(t, types.PhaseError, resp.Phase)
			assert.Equal(t, msgUnexpected, resp.ResponseContent)
		})
	}
}
