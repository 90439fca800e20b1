package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/executive-intake/internal/conversation"
	"github.com/jonathan/executive-intake/internal/extraction"
	"github.com/jonathan/executive-intake/internal/health"
	"github.com/jonathan/executive-intake/internal/server/ratelimit"
	"github.com/jonathan/executive-intake/internal/types"
)

type stubExtractor struct {
	err error
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (*types.JobRequirements, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.JobRequirements{
		RoleTitle:                "VP of Sales",
		CompanyName:              "FlowAI",
		QuantitativeTargets:      []string{"$2M to $10M ARR in 18 months"},
		StatedSubjectiveCriteria: []string{},
	}, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, _ *types.JobRequirements) ([]types.Question, error) {
	return []types.Question{
		{ID: "q1", Text: "What leadership style fits your team?", Category: types.CategoryCulturalFit},
		{ID: "q2", Text: "Any deal breakers?", Category: types.CategoryDealBreaker},
	}, nil
}

type pinger func(ctx context.Context) error

func (p pinger) Ping(ctx context.Context) error { return p(ctx) }

type testServer struct {
	*Server
	store *conversation.MemoryStore
}

func newTestServer(t *testing.T, ext *stubExtractor, checks ...health.Checker) *testServer {
	t.Helper()
	store := conversation.NewMemoryStore()
	orch := conversation.NewOrchestrator(store, ext, stubGenerator{})
	s := New(Config{
		Port:        0,
		CORSOrigins: []string{"https://app.example.com"},
		RateLimit:   &ratelimit.Config{Enabled: false},
	}, Deps{Conversations: orch, Health: health.NewService(checks...)})
	t.Cleanup(s.rateLimiter.Stop)
	return &testServer{Server: s, store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubExtractor{})

	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestReadyEndpoint(t *testing.T) {
	up := health.NewPingChecker("postgres", pinger(func(context.Context) error { return nil }), time.Second)
	down := health.NewPingChecker("redis", pinger(func(context.Context) error { return errors.New("refused") }), time.Second)

	ts := newTestServer(t, &stubExtractor{}, up)
	w := ts.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ready"`)

	ts = newTestServer(t, &stubExtractor{}, up, down)
	w = ts.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"not_ready"`)
	assert.Contains(t, w.Body.String(), `"refused"`)
}

func TestMessageFlow(t *testing.T) {
	ts := newTestServer(t, &stubExtractor{})

	w := ts.do(t, http.MethodPost, "/conversations/messages", map[string]string{
		"message": "I need a VP of Sales for FlowAI, Series A fintech, $2M→$10M ARR in 18 months",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	started := decode[types.ConversationResponse](t, w)
	assert.Equal(t, types.PhaseQuestioning, started.Phase)
	require.NotNil(t, started.NextQuestion)
	assert.Equal(t, "What leadership style fits your team?", *started.NextQuestion)
	assert.Equal(t, int64(1), started.Version)

	for i, answer := range []string{"Collaborative", "No job hoppers"} {
		w = ts.do(t, http.MethodPost, "/conversations/messages", map[string]any{
			"conversation_id": started.ConversationID,
			"message":         answer,
		})
		require.Equal(t, http.StatusOK, w.Code, "answer %d: %s", i+1, w.Body.String())
	}
	done := decode[types.ConversationResponse](t, w)
	assert.True(t, done.IsComplete)
	assert.Equal(t, float64(100), done.Progress.ProgressPercentage)
	assert.Nil(t, done.NextQuestion)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/conversations/%s/summary", started.ConversationID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[types.Summary](t, w)
	require.Len(t, summary.Answers, 2)
	assert.Equal(t, "Any deal breakers?", summary.Answers[1].Question)
	assert.Equal(t, "No job hoppers", summary.Answers[1].Answer)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/conversations/%s/progress", started.ConversationID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.Progress{CurrentQuestion: 2, TotalQuestions: 2, ProgressPercentage: 100, IsComplete: true},
		decode[types.Progress](t, w))

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/conversations/%s", started.ConversationID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	conv := decode[types.Conversation](t, w)
	assert.Equal(t, int64(3), conv.Version)

	// Closed conversations reject further messages with a well-formed body
	w = ts.do(t, http.MethodPost, "/conversations/messages", map[string]any{
		"conversation_id": started.ConversationID,
		"message":         "One more thing",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	failed := decode[messageError](t, w)
	assert.NotEmpty(t, failed.Error)
	require.NotNil(t, failed.Response)
	assert.Equal(t, types.PhaseError, failed.Response.Phase)
	assert.Equal(t, started.ConversationID, failed.Response.ConversationID)
}

func TestMessageErrors(t *testing.T) {
	ts := newTestServer(t, &stubExtractor{})

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"malformed JSON", `{"message":`, http.StatusBadRequest},
		{"missing message", map[string]string{}, http.StatusBadRequest},
		{"blank message", map[string]string{"message": "   "}, http.StatusBadRequest},
		{"unknown conversation", map[string]any{"conversation_id": uuid.New(), "message": "hi"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/conversations/messages", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
	assert.Equal(t, 0, ts.store.Len())
}

func TestMessageUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, &stubExtractor{err: &extraction.ExtractionError{Message: "timed out"}})

	w := ts.do(t, http.MethodPost, "/conversations/messages", map[string]string{"message": "I need a CFO"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	failed := decode[messageError](t, w)
	require.NotNil(t, failed.Response)
	assert.Equal(t, types.PhaseError, failed.Response.Phase)
	assert.NotEqual(t, uuid.Nil, failed.Response.ConversationID)
	assert.Equal(t, 1, ts.store.Len())
}

func TestReadEndpoints_Errors(t *testing.T) {
	ts := newTestServer(t, &stubExtractor{})

	for _, suffix := range []string{"", "/progress", "/summary"} {
		w := ts.do(t, http.MethodGet, "/conversations/not-a-uuid"+suffix, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = ts.do(t, http.MethodGet, "/conversations/"+uuid.NewString()+suffix, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
}

func TestStatusChange(t *testing.T) {
	ts := newTestServer(t, &stubExtractor{})

	w := ts.do(t, http.MethodPost, "/conversations/messages", map[string]string{"message": "I need a VP of Sales"})
	require.Equal(t, http.StatusOK, w.Code)
	started := decode[types.ConversationResponse](t, w)
	path := fmt.Sprintf("/conversations/%s/status", started.ConversationID)

	w = ts.do(t, http.MethodPost, path, map[string]any{"status": "PAUSED", "version": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paused := decode[types.StatusChangeResponse](t, w)
	assert.Equal(t, types.StatusPaused, paused.Status)
	assert.Equal(t, int64(2), paused.Version)
	assert.Equal(t, conversation.StatusMessage(types.StatusPaused), paused.Message)

	// Stale version
	w = ts.do(t, http.MethodPost, path, map[string]any{"status": "ACTIVE", "version": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	// COMPLETED cannot be requested
	w = ts.do(t, http.MethodPost, path, map[string]any{"status": "COMPLETED", "version": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, path, map[string]any{"status": "ABANDONED", "version": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, path, map[string]any{"status": "ACTIVE", "version": 3})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, &stubExtractor{})

	req := httptest.NewRequest(http.MethodOptions, "/conversations/messages", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	orch := conversation.NewOrchestrator(conversation.NewMemoryStore(), &stubExtractor{}, stubGenerator{})
	s := New(Config{RateLimit: &ratelimit.Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{{Path: "/conversations/messages", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1}},
	}}, Deps{Conversations: orch})
	defer s.rateLimiter.Stop()
	ts := &testServer{Server: s}

	w := ts.do(t, http.MethodPost, "/conversations/messages", map[string]string{"message": "I need a CTO"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = ts.do(t, http.MethodPost, "/conversations/messages", map[string]string{"message": "I need a CTO"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}
