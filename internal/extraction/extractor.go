// Package extraction turns the first intake message into a structured JobRequirements record.
package extraction

import (
	"context"
	"strings"
	"time"

	"github.com/jonathan/executive-intake/internal/llm"
	"github.com/jonathan/executive-intake/internal/prompts"
	"github.com/jonathan/executive-intake/internal/schemas"
	"github.com/jonathan/executive-intake/internal/types"
	schemafiles "github.com/jonathan/executive-intake/schemas"
)

// Extractor calls the language model once per message and never retries.
type Extractor struct {
	port    llm.Port
	timeout time.Duration
}

// New creates an Extractor. A non-positive timeout falls back to llm.DefaultTimeout.
func New(port llm.Port, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = llm.DefaultTimeout
	}
	return &Extractor{port: port, timeout: timeout}
}

// Extract returns the requirements stated in message. Fields the message does not state are
// left empty, and a company name or target that cannot be found in message is dropped.
func (e *Extractor) Extract(ctx context.Context, message string) (*types.JobRequirements, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &ExtractionError{Message: "message is empty"}
	}

	prompt, err := buildPrompt(message)
	if err != nil {
		return nil, &ExtractionError{Message: "failed to build prompt", Cause: err}
	}

	raw, err := e.port.Generate(ctx, prompt, e.timeout)
	if err != nil {
		return nil, &ExtractionError{Message: "language model call failed", Cause: err}
	}

	var reqs types.JobRequirements
	if err := schemas.DecodeStrict(schemafiles.JobRequirements, llm.CleanJSONBlock(raw), &reqs); err != nil {
		return nil, &ExtractionError{Message: "model output does not match the requirements shape", Cause: err}
	}

	normalize(&reqs)
	ground(&reqs, message)
	return &reqs, nil
}

func buildPrompt(message string) (string, error) {
	rules, err := prompts.Get("intake.json", "extract-requirements-rules")
	if err != nil {
		return "", err
	}
	return llm.BuildExtractionPrompt(llm.IntakeRequirementsSchema(), message) + "\n" + rules, nil
}
