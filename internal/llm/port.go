package llm

import (
	"context"
	"time"
)

// Port is the text generation capability consumed by extraction and question generation.
// Implementations must honor the timeout and report every failure as *UpstreamError.
type Port interface {
	Generate(ctx context.Context, prompt string, timeout time.Duration) (string, error)
}

// TimedPort adapts a Client to Port, bounding each call with its own deadline.
type TimedPort struct {
	client Client
	tier   ModelTier
	json   bool
}

// NewTimedPort returns a Port that asks client for JSON output at the given tier.
func NewTimedPort(client Client, tier ModelTier) *TimedPort {
	return &TimedPort{client: client, tier: tier, json: true}
}

// NewTextPort returns a Port that asks client for free-form text at the given tier.
func NewTextPort(client Client, tier ModelTier) *TimedPort {
	return &TimedPort{client: client, tier: tier}
}

// Generate implements Port.
func (p *TimedPort) Generate(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		text string
		err  error
	)
	if p.json {
		text, err = p.client.GenerateJSON(callCtx, prompt, p.tier)
	} else {
		text, err = p.client.GenerateContent(callCtx, prompt, p.tier)
	}

	// A client may return after the deadline without surfacing ctx.Err itself.
	if err == nil && callCtx.Err() != nil {
		err = callCtx.Err()
	}
	if err != nil {
		return "", newUpstreamError(err, timeout)
	}
	return text, nil
}

// PortFunc lets a plain function act as a Port.
type PortFunc func(ctx context.Context, prompt string, timeout time.Duration) (string, error)

// Generate implements Port.
func (f PortFunc) Generate(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	return f(ctx, prompt, timeout)
}
