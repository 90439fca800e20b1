// Package health aggregates dependency checks for the readiness endpoint.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a single dependency check
const DefaultCheckTimeout = time.Second

// Checker represents a dependency health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Pinger is anything with a connectivity check, such as a database pool or Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Result is the outcome of one check
type Result struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Service runs every registered checker.
type Service struct {
	checkers []Checker
}

// NewService aggregates dependency checkers.
func NewService(checkers ...Checker) *Service {
	return &Service{checkers: checkers}
}

// Ready runs all checks concurrently and returns their results in registration order,
// together with the combined error of every failed check.
func (s *Service) Ready(ctx context.Context) ([]Result, error) {
	results := make([]Result, len(s.checkers))
	var (
		mu  sync.Mutex
		err error
	)

	var g errgroup.Group
	for i, ch := range s.checkers {
		g.Go(func() error {
			results[i] = Result{Name: ch.Name(), OK: true}
			if checkErr := ch.Check(ctx); checkErr != nil {
				results[i].OK = false
				results[i].Error = checkErr.Error()
				mu.Lock()
				err = multierr.Append(err, fmt.Errorf("%s: %w", ch.Name(), checkErr))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, err
}

// PingChecker adapts a Pinger to Checker with a per-check timeout.
type PingChecker struct {
	name    string
	target  Pinger
	timeout time.Duration
}

// NewPingChecker creates a PingChecker. A non-positive timeout uses DefaultCheckTimeout.
func NewPingChecker(name string, target Pinger, timeout time.Duration) *PingChecker {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &PingChecker{name: name, target: target, timeout: timeout}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.target.Ping(ctx)
}
