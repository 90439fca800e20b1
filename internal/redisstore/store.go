// Package redisstore keeps intake conversations in Redis as JSON documents, one key per
// conversation, with optimistic version checks done under WATCH.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jonathan/executive-intake/internal/conversation"
	"github.com/jonathan/executive-intake/internal/logging"
	"github.com/jonathan/executive-intake/internal/schemas"
	"github.com/jonathan/executive-intake/internal/types"
	schemafiles "github.com/jonathan/executive-intake/schemas"
)

// DefaultKeyPrefix namespaces conversation keys
const DefaultKeyPrefix = "intake:conversation:"

// maxWatchRetries bounds how often Save restarts when the watched key changes between
// WATCH and EXEC without the version having moved (e.g. a TTL refresh).
const maxWatchRetries = 3

var _ conversation.Store = (*Store)(nil)

// Store implements conversation.Store on a Redis client.
type Store struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	log    *logging.Logger
}

// Option configures a Store
type Option func(*Store)

// WithTTL expires conversations ttl after their last write. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New wraps an existing client.
func New(rdb goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{rdb: rdb, prefix: DefaultKeyPrefix, log: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("service", "RedisConversationStore")
	return s
}

// Connect parses a redis:// URL, pings the server, and returns a Store.
func Connect(ctx context.Context, redisURL string, opts ...Option) (*Store, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if options.DialTimeout == 0 {
		options.DialTimeout = 5 * time.Second
	}

	rdb := goredis.NewClient(options)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, opts...), nil
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) key(id uuid.UUID) string {
	return s.prefix + id.String()
}

// Load returns the stored conversation or *conversation.NotFoundError.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, &conversation.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return decode(raw)
}

// Create stores conv under a new key. SETNX keeps an existing document untouched.
func (s *Store) Create(ctx context.Context, conv *types.Conversation) (uuid.UUID, error) {
	raw, err := encode(conv)
	if err != nil {
		return uuid.Nil, err
	}

	ok, err := s.rdb.SetNX(ctx, s.key(conv.ID), raw, s.ttl).Result()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	if !ok {
		return uuid.Nil, &conversation.ConflictError{ID: conv.ID, ExpectedVersion: conv.Version}
	}
	return conv.ID, nil
}

// Save replaces the document if its stored version equals expectedVersion. The read, compare,
// and write run inside WATCH/MULTI, so a concurrent writer aborts the transaction.
func (s *Store) Save(ctx context.Context, conv *types.Conversation, expectedVersion int64) error {
	raw, err := encode(conv)
	if err != nil {
		return err
	}
	key := s.key(conv.ID)

	txf := func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return &conversation.NotFoundError{ID: conv.ID}
			}
			return fmt.Errorf("failed to read conversation: %w", err)
		}

		var stored struct {
			Version int64 `json:"version"`
		}
		if err := json.Unmarshal([]byte(current), &stored); err != nil {
			return fmt.Errorf("failed to decode stored conversation: %w", err)
		}
		if stored.Version != expectedVersion {
			return &conversation.ConflictError{ID: conv.ID, ExpectedVersion: expectedVersion}
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err = s.rdb.Watch(ctx, txf, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			break
		}
		s.log.Debug("conversation key changed during save, retrying",
			"conversation_id", conv.ID, "attempt", attempt+1)
	}
	if errors.Is(err, goredis.TxFailedErr) {
		return &conversation.ConflictError{ID: conv.ID, ExpectedVersion: expectedVersion}
	}
	if err != nil {
		var conflict *conversation.ConflictError
		var notFound *conversation.NotFoundError
		if errors.As(err, &conflict) || errors.As(err, &notFound) {
			return err
		}
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func encode(conv *types.Conversation) (string, error) {
	raw, err := json.Marshal(conv)
	if err != nil {
		return "", fmt.Errorf("failed to marshal conversation: %w", err)
	}
	return string(raw), nil
}

// decode checks a stored document against the conversation schema before unmarshaling it.
func decode(raw string) (*types.Conversation, error) {
	if err := schemas.ValidateNamed(schemafiles.Conversation, raw); err != nil {
		return nil, fmt.Errorf("stored conversation is invalid: %w", err)
	}
	conv := &types.Conversation{}
	if err := json.Unmarshal([]byte(raw), conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	if conv.QuestionQueue == nil {
		conv.QuestionQueue = []types.Question{}
	}
	if conv.Answers == nil {
		conv.Answers = []types.Answer{}
	}
	return conv, nil
}
