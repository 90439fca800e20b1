// Package observability provides formatted terminal output for the intake CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/executive-intake/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		// Truncate long lines
		runes := []rune(line)
		if len(runes) > boxWidth-4 {
			line = string(runes[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRequirements outputs the extracted job requirements.
func (p *Printer) PrintRequirements(reqs *types.JobRequirements) {
	if reqs == nil {
		return
	}
	p.printBox("EXTRACTED REQUIREMENTS", requirementsBody(reqs))
}

func requirementsBody(reqs *types.JobRequirements) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Role:     %s\n", orDash(reqs.RoleTitle)))
	sb.WriteString(fmt.Sprintf("Company:  %s\n", orDash(reqs.CompanyName)))
	sb.WriteString(fmt.Sprintf("Stage:    %s\n", orDash(reqs.CompanyStage)))

	writeList(&sb, "Targets", reqs.QuantitativeTargets)
	writeList(&sb, "Stated criteria", reqs.StatedSubjectiveCriteria)
	return sb.String()
}

// PrintQuestions outputs the question queue, marking the current question.
func (p *Printer) PrintQuestions(conv *types.Conversation) {
	if conv == nil || len(conv.QuestionQueue) == 0 {
		return
	}

	var sb strings.Builder
	for i, q := range conv.QuestionQueue {
		marker := " "
		switch {
		case i < conv.CurrentIndex:
			marker = "✓"
		case i == conv.CurrentIndex && conv.Phase == types.PhaseQuestioning:
			marker = "→"
		}
		sb.WriteString(fmt.Sprintf("%s %d. [%s] %s\n", marker, i+1, q.Category, q.Text))
	}
	p.printBox(fmt.Sprintf("QUESTIONS (%d)", len(conv.QuestionQueue)), sb.String())
}

// PrintProgress outputs a progress bar for a conversation.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(progress types.Progress) {
	const barWidth = 30
	filled := int(progress.ProgressPercentage / 100 * barWidth)
	filled = max(0, min(barWidth, filled))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	fmt.Fprintf(p.out, "Progress: [%s] %3.0f%% (%d/%d questions)",
		bar, progress.ProgressPercentage, progress.CurrentQuestion, progress.TotalQuestions)
	if progress.IsComplete {
		fmt.Fprint(p.out, " ✓ complete")
	}
	fmt.Fprintln(p.out)
}

// PrintSummary outputs requirements followed by every answered question.
func (p *Printer) PrintSummary(summary *types.Summary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Conversation: %s\n", summary.ConversationID))
	sb.WriteString(fmt.Sprintf("Phase:        %s (%s)\n", summary.Phase, summary.Status))
	if summary.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("Completed:    %s\n", summary.CompletedAt.Format("2006-01-02 15:04")))
	}
	p.printBox("INTAKE SUMMARY", sb.String())

	if summary.Requirements != nil {
		p.PrintRequirements(summary.Requirements)
	}

	if len(summary.Answers) == 0 {
		p.printBox("ANSWERS", "No questions answered yet.")
	} else {
		var answers strings.Builder
		for i, a := range summary.Answers {
			if i > 0 {
				answers.WriteString("\n")
			}
			answers.WriteString(fmt.Sprintf("Q%d: %s\n", i+1, a.Question))
			answers.WriteString(fmt.Sprintf("    %s\n", a.Answer))
		}
		p.printBox(fmt.Sprintf("ANSWERS (%d)", len(summary.Answers)), answers.String())
	}

	p.PrintProgress(summary.Progress)
}

// PrintTurn outputs the assistant side of one exchange.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintTurn(resp *types.ConversationResponse) {
	if resp == nil {
		return
	}
	fmt.Fprintf(p.out, "\n%s\n", resp.ResponseContent)
	if resp.NextQuestion != nil {
		fmt.Fprintf(p.out, "\n  %s\n", *resp.NextQuestion)
	}
	if resp.Progress.TotalQuestions > 0 && !resp.IsComplete {
		fmt.Fprintf(p.out, "  (question %d of %d)\n", resp.Progress.CurrentQuestion+1, resp.Progress.TotalQuestions)
	}
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(label + ":\n")
	count := min(len(items), maxItemsToShow)
	for _, item := range items[:count] {
		sb.WriteString(fmt.Sprintf("  • %s\n", item))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
