package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/executive-intake/internal/conversation"
	"github.com/jonathan/executive-intake/internal/db"
	"github.com/jonathan/executive-intake/internal/types"
)

type stubExtractor struct {
	failures int
	calls    int
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (*types.JobRequirements, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.New("model unavailable")
	}
	return &types.JobRequirements{RoleTitle: "CTO", CompanyName: "FlowAI", CompanyStage: "Series B"}, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, _ *types.JobRequirements) ([]types.Question, error) {
	return []types.Question{
		{ID: "q1", Text: "What leadership style works best for your team?", Category: types.CategoryCulturalFit},
		{ID: "q2", Text: "Which prior scaling experience is essential?", Category: types.CategoryExperience},
	}, nil
}

func newChatOrchestrator(ext conversation.Extractor) (*conversation.Orchestrator, *conversation.MemoryStore) {
	store := conversation.NewMemoryStore()
	return conversation.NewOrchestrator(store, ext, stubGenerator{}), store
}

func TestChatLoop_CompletesIntake(t *testing.T) {
	orch, store := newChatOrchestrator(&stubExtractor{})
	in := strings.NewReader("We need a CTO for FlowAI, Series B.\n\nHands-on and collaborative.\nScaled a team past 50.\nthis line is never read\n")
	var out bytes.Buffer

	err := chatLoop(context.Background(), orch, in, &out, nil)
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "Describe the role")
	assert.Contains(t, output, "for the CTO search at FlowAI")
	assert.Contains(t, output, "What leadership style works best for your team?")
	assert.Contains(t, output, "Which prior scaling experience is essential?")
	assert.Contains(t, output, "INTAKE SUMMARY")
	assert.Contains(t, output, "Hands-on and collaborative.")
	assert.Equal(t, 1, store.Len())
}

func TestChatLoop_RetriesFailedExtraction(t *testing.T) {
	ext := &stubExtractor{failures: 1}
	orch, _ := newChatOrchestrator(ext)
	in := strings.NewReader("We need a CTO for FlowAI.\nplease retry\n")
	var out bytes.Buffer

	err := chatLoop(context.Background(), orch, in, &out, nil)
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "couldn't analyze your requirements")
	assert.Contains(t, output, "What leadership style works best for your team?")
	assert.Equal(t, 2, ext.calls)
}

func TestChatLoop_UnknownConversation(t *testing.T) {
	orch, _ := newChatOrchestrator(&stubExtractor{})
	id := uuid.New()
	var out bytes.Buffer

	err := chatLoop(context.Background(), orch, strings.NewReader("hello\n"), &out, &id)

	var notFound *conversation.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.NotContains(t, out.String(), "Describe the role")
	assert.Contains(t, out.String(), "couldn't find that conversation")
}

func TestChatLoop_EOFBeforeInput(t *testing.T) {
	orch, store := newChatOrchestrator(&stubExtractor{})
	var out bytes.Buffer

	err := chatLoop(context.Background(), orch, strings.NewReader(""), &out, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestMigrateCommand_Args(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr bool
	}{
		{args: nil},
		{args: []string{"up"}},
		{args: []string{"down"}},
		{args: []string{"status"}},
		{args: []string{"redo"}, wantErr: true},
		{args: []string{"up", "down"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, "_"), func(t *testing.T) {
			err := migrateCmd.Args(migrateCmd, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrintConversationList(t *testing.T) {
	var out bytes.Buffer
	listCmd.SetOut(&out)
	t.Cleanup(func() { listCmd.SetOut(nil) })

	require.NoError(t, printConversationList(listCmd, nil))
	assert.Contains(t, out.String(), "No conversations found.")

	out.Reset()
	id := uuid.New()
	require.NoError(t, printConversationList(listCmd, []db.ConversationSummary{{
		ID: id, Phase: "QUESTIONING", Status: "ACTIVE", CurrentIndex: 1, TotalQuestions: 4,
		RoleTitle: "CTO", CompanyName: "FlowAI",
	}}))
	assert.Contains(t, out.String(), id.String())
	assert.Contains(t, out.String(), "1/4")
	assert.Contains(t, out.String(), "CTO @ FlowAI")
}

func TestPrintMigrations(t *testing.T) {
	var out bytes.Buffer
	migrateCmd.SetOut(&out)
	t.Cleanup(func() { migrateCmd.SetOut(nil) })

	require.NoError(t, printMigrations(migrateCmd, db.MigrateUp, nil))
	assert.Contains(t, out.String(), "migrate up: nothing to do")

	out.Reset()
	require.NoError(t, printMigrations(migrateCmd, db.MigrateStatus, []db.MigrationReport{
		{Version: 1, Path: "00001_create_conversations.sql", Applied: true, Detail: "applied 2025-01-01 00:00:00"},
	}))
	assert.Contains(t, out.String(), "00001_create_conversations.sql")
	assert.Contains(t, out.String(), "applied 2025-01-01")
}
