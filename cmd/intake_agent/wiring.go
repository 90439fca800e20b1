package main

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/jonathan/executive-intake/internal/config"
	"github.com/jonathan/executive-intake/internal/conversation"
	"github.com/jonathan/executive-intake/internal/db"
	"github.com/jonathan/executive-intake/internal/extraction"
	"github.com/jonathan/executive-intake/internal/health"
	"github.com/jonathan/executive-intake/internal/llm"
	"github.com/jonathan/executive-intake/internal/logging"
	"github.com/jonathan/executive-intake/internal/questions"
	"github.com/jonathan/executive-intake/internal/redisstore"
)

// loadConfig layers the config file over the environment over config.Defaults().
func loadConfig(path string) (config.Config, error) {
	env, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	merged := env.MergeWithDefaults(config.Defaults())

	if path != "" {
		file, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, err
		}
		merged = file.MergeWithDefaults(merged)
	}

	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

// app holds everything a command needs, plus the cleanup for it.
type app struct {
	cfg          config.Config
	log          *logging.Logger
	orchestrator *conversation.Orchestrator
	checkers     []health.Checker
	closers      []func() error
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.log.Sync()
	return err
}

// buildApp wires the store, the language model port, and the orchestrator. With withLLM false
// the orchestrator can only read conversations, which is all progress and summary need.
func buildApp(ctx context.Context, cfg config.Config, withLLM bool) (*app, error) {
	log, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	store, err := a.openStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var (
		extractor conversation.Extractor
		generator conversation.QuestionGenerator
	)
	if withLLM {
		extractor, generator, err = a.openLLM(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.orchestrator = conversation.NewOrchestrator(store, extractor, generator, conversation.WithLogger(log))
	return a, nil
}

func (a *app) openStore(ctx context.Context) (conversation.Store, error) {
	switch a.cfg.StoreBackend {
	case config.BackendPostgres:
		database, err := db.Connect(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { database.Close(); return nil })
		a.checkers = append(a.checkers, health.NewPingChecker("postgres", database, health.DefaultCheckTimeout))
		a.log.Info("using postgres conversation store")
		return database, nil
	case config.BackendRedis:
		store, err := redisstore.Connect(ctx, a.cfg.RedisURL, redisstore.WithLogger(a.log))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		a.checkers = append(a.checkers, health.NewPingChecker("redis", store, health.DefaultCheckTimeout))
		a.log.Info("using redis conversation store")
		return store, nil
	default:
		a.log.Info("using in-memory conversation store")
		return conversation.NewMemoryStore(), nil
	}
}

func (a *app) openLLM(ctx context.Context) (*extraction.Extractor, *questions.Generator, error) {
	if a.cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("API key is required (set GEMINI_API_KEY environment variable or api_key in the config file)")
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), a.cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	timeout := a.cfg.Timeout()
	minQuestions := a.cfg.MinQuestionCount()
	if minQuestions < 0 {
		minQuestions = questions.DefaultMinQuestions
	}

	extractor := extraction.New(llm.NewTimedPort(client, llm.TierStandard), timeout)
	generator := questions.New(llm.NewTimedPort(client, llm.TierAdvanced), questions.Options{
		MinQuestions: minQuestions,
		Timeout:      timeout,
		Logger:       a.log.With("service", "QuestionGenerator"),
		Research:     llm.NewTextPort(client, llm.TierLite),
	})
	return extractor, generator, nil
}

// requirePersistentStore rejects the in-memory backend for commands that read conversations
// created by another process.
func requirePersistentStore(cfg config.Config) error {
	if cfg.StoreBackend == config.BackendMemory || cfg.StoreBackend == "" {
		return fmt.Errorf("this command needs a persistent store: set STORE_BACKEND to postgres or redis")
	}
	return nil
}
