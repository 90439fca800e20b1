package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/executive-intake/internal/conversation"
	"github.com/jonathan/executive-intake/internal/observability"
	"github.com/jonathan/executive-intake/internal/types"
)

var chatConversationID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an intake conversation in the terminal",
	Long: "Read messages from stdin, one per line, and print each reply with the next question. " +
		"Starts a new conversation unless --conversation-id is given, and stops when the intake is complete.",
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatConversationID, "conversation-id", "", "Continue an existing conversation")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	var id *uuid.UUID
	if chatConversationID != "" {
		parsed, err := uuid.Parse(chatConversationID)
		if err != nil {
			return fmt.Errorf("invalid --conversation-id: %w", err)
		}
		id = &parsed
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if id != nil {
		if err := requirePersistentStore(cfg); err != nil {
			return err
		}
	}

	a, err := buildApp(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return chatLoop(cmd.Context(), a.orchestrator, cmd.InOrStdin(), cmd.OutOrStdout(), id)
}

// chatService is the part of the orchestrator the chat loop drives.
type chatService interface {
	StartOrContinue(ctx context.Context, id *uuid.UUID, message string) (*types.ConversationResponse, error)
	GetSummary(ctx context.Context, id uuid.UUID) (*types.Summary, error)
}

// chatLoop sends each non-empty input line and prints the reply. Failed steps are reported and
// the loop keeps reading, so the next line retries them.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func chatLoop(ctx context.Context, svc chatService, in io.Reader, out io.Writer, id *uuid.UUID) error {
	printer := observability.NewPrinter(out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if id == nil {
		fmt.Fprintln(out, "Describe the role you are hiring for (company, stage, targets, what you look for):")
	}

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		resp, err := svc.StartOrContinue(ctx, id, line)
		if resp != nil && resp.ConversationID != uuid.Nil {
			current := resp.ConversationID
			id = &current
		}
		printer.PrintTurn(resp)

		if err != nil {
			var closed *conversation.ConversationClosedError
			var notFound *conversation.NotFoundError
			if errors.As(err, &closed) || errors.As(err, &notFound) {
				return err
			}
			if resp == nil {
				return err
			}
			continue
		}

		if resp.IsComplete {
			summary, err := svc.GetSummary(ctx, resp.ConversationID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			printer.PrintSummary(summary)
			return nil
		}
	}
}
