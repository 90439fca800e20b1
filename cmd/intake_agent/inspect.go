package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/executive-intake/internal/conversation"
	"github.com/jonathan/executive-intake/internal/observability"
)

var inspectConversationID string

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show how far a conversation has progressed",
	RunE:  runProgress,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the requirements and answers collected by a conversation",
	RunE:  runSummary,
}

func init() {
	for _, c := range []*cobra.Command{progressCmd, summaryCmd} {
		c.Flags().StringVar(&inspectConversationID, "conversation-id", "", "Conversation ID (required)")
		_ = c.MarkFlagRequired("conversation-id")
		rootCmd.AddCommand(c)
	}
}

func runProgress(cmd *cobra.Command, _ []string) error {
	id, a, err := openForRead(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	conv, err := a.orchestrator.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	p := observability.NewPrinter(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "Conversation %s: %s (%s), version %d\n", conv.ID, conv.Phase, conv.Status, conv.Version)
	p.PrintQuestions(conv)
	p.PrintProgress(conversation.ComputeProgress(conv))
	return nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	id, a, err := openForRead(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	summary, err := a.orchestrator.GetSummary(cmd.Context(), id)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSummary(summary)
	return nil
}

func openForRead(cmd *cobra.Command) (uuid.UUID, *app, error) {
	id, err := uuid.Parse(inspectConversationID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid --conversation-id: %w", err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if err := requirePersistentStore(cfg); err != nil {
		return uuid.Nil, nil, err
	}

	a, err := buildApp(cmd.Context(), cfg, false)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return id, a, nil
}
