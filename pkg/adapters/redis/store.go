package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/sflsweep/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the adapter writes.
const DefaultPrefix = "sflsweep:"

// Store implements ports.ProgressStore using Redis.
// Progress is kept as one JSON string per sweep, and sweep names are tracked
// in a sorted set scored by their expiry so List can prune lazily.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for progress records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share the connection.
func (s *Store) Client() *backend.Client { return s.client }

func (s *Store) key(sweep string) string {
	return s.prefix + "progress:" + sweep
}

func (s *Store) indexKey() string {
	return s.prefix + "progress:index"
}

// Save persists the progress to Redis.
func (s *Store) Save(ctx context.Context, sweep string, progress domain.Progress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(sweep), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: sweep,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the progress from Redis.
func (s *Store) Load(ctx context.Context, sweep string) (domain.Progress, error) {
	val, err := s.client.Get(ctx, s.key(sweep)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Progress{}, domain.ErrProgressNotFound
		}
		return domain.Progress{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var progress domain.Progress
	if err := json.Unmarshal([]byte(val), &progress); err != nil {
		return domain.Progress{}, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	return progress, nil
}

// Delete removes the progress record.
func (s *Store) Delete(ctx context.Context, sweep string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sweep))
	pipe.ZRem(ctx, s.indexKey(), sweep)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns sweeps with live progress records, pruning expired entries
// from the index first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired progress: %w", err)
	}

	sweeps, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return sweeps, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
