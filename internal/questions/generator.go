// Package questions generates the fixed follow-up question queue for a conversation.
package questions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/executive-intake/internal/llm"
	"github.com/jonathan/executive-intake/internal/logging"
	"github.com/jonathan/executive-intake/internal/prompts"
	"github.com/jonathan/executive-intake/internal/schemas"
	"github.com/jonathan/executive-intake/internal/types"
	schemafiles "github.com/jonathan/executive-intake/schemas"
)

// MaxQuestions is the hard upper bound on the queue length.
const MaxQuestions = 5

// DefaultMinQuestions is the queue length below which role templates are appended.
const DefaultMinQuestions = 3

// Options configures a Generator.
type Options struct {
	// MinQuestions triggers template top-up when fewer questions survive filtering.
	// Zero disables top-up.
	MinQuestions int
	Timeout      time.Duration
	Logger       *logging.Logger
	// Research writes the company brief. Nil skips the brief.
	Research llm.Port
}

// Generator asks the language model for candidate questions and filters them into a queue.
type Generator struct {
	port     llm.Port
	research llm.Port
	min      int
	timeout  time.Duration
	log      *logging.Logger
}

// New creates a Generator.
func New(port llm.Port, opts Options) *Generator {
	g := &Generator{
		port:     port,
		research: opts.Research,
		min:      opts.MinQuestions,
		timeout:  opts.Timeout,
		log:      opts.Logger,
	}
	if g.min < 0 {
		g.min = 0
	}
	if g.min > MaxQuestions {
		g.min = MaxQuestions
	}
	if g.timeout <= 0 {
		g.timeout = llm.DefaultTimeout
	}
	if g.log == nil {
		g.log = logging.NewNop()
	}
	return g
}

type candidate struct {
	Text      string `json:"text"`
	Category  string `json:"category"`
	Rationale string `json:"rationale"`
}

// Generate returns between 0 and MaxQuestions questions in presentation order, with ids q1..qn.
// The question port is called exactly once, after the optional company research call.
func (g *Generator) Generate(ctx context.Context, reqs *types.JobRequirements) ([]types.Question, error) {
	if reqs == nil {
		return nil, &GenerationError{Message: "requirements are required"}
	}

	prompt, err := buildPrompt(reqs, g.Research(ctx, reqs))
	if err != nil {
		return nil, &GenerationError{Message: "failed to build prompt", Cause: err}
	}

	raw, err := g.port.Generate(ctx, prompt, g.timeout)
	if err != nil {
		return nil, &GenerationError{Message: "language model call failed", Cause: err}
	}

	var candidates []candidate
	if err := schemas.DecodeStrict(schemafiles.QuestionCandidates, llm.CleanJSONBlock(raw), &candidates); err != nil {
		return nil, &GenerationError{Message: "model output does not match the question list shape", Cause: err}
	}

	filter := newQueueFilter(reqs.StatedSubjectiveCriteria)
	queue := make([]types.Question, 0, MaxQuestions)
	for _, c := range candidates {
		q := types.Question{
			Text:      strings.TrimSpace(c.Text),
			Category:  types.ParseQuestionCategory(c.Category),
			Rationale: strings.TrimSpace(c.Rationale),
		}
		if reason := filter.accept(q); reason != "" {
			g.log.Debug("dropped question candidate", "reason", reason, "question", q.Text)
			continue
		}
		queue = append(queue, q)
	}

	if len(queue) < g.min {
		for _, q := range Templates(reqs) {
			if len(queue) >= g.min {
				break
			}
			if filter.accept(q) != "" {
				continue
			}
			queue = append(queue, q)
		}
	}

	return finalize(queue), nil
}

// finalize truncates to MaxQuestions keeping order and assigns sequential ids.
func finalize(queue []types.Question) []types.Question {
	if len(queue) > MaxQuestions {
		queue = queue[:MaxQuestions]
	}
	for i := range queue {
		queue[i].ID = "q" + strconv.Itoa(i+1)
	}
	return queue
}

func buildPrompt(reqs *types.JobRequirements, research CompanyResearch) (string, error) {
	brief := research.Brief
	if brief == "" {
		brief = notAvailable
	}
	return prompts.Render("intake.json", "generate-questions", map[string]string{
		"CompanyBrief":        brief,
		"StageInsights":       joinOr(research.StageInsights, notAvailable),
		"IPOInsights":         joinOr(research.IPOInsights, "Not applicable"),
		"RoleTitle":           orNone(reqs.RoleTitle),
		"CompanyName":         orNone(reqs.CompanyName),
		"CompanyStage":        orNone(reqs.CompanyStage),
		"QuantitativeTargets": orNone(strings.Join(reqs.QuantitativeTargets, "; ")),
		"StatedCriteria":      orNone(strings.Join(reqs.StatedSubjectiveCriteria, "; ")),
		"MaxQuestions":        fmt.Sprint(MaxQuestions),
	})
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not stated"
	}
	return s
}
