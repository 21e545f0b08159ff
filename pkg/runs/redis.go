package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	runKeyPrefix = "netforge:runs:"

	// DefaultTTL bounds how long finished run records stay pollable.
	DefaultTTL = 24 * time.Hour

	connectTimeout = 5 * time.Second
)

// RedisRegistry stores run records in Redis so multiple API instances see
// the same run state. Records expire after the configured TTL.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry connects to Redis at the given address. An empty addr
// falls back to localhost.
func NewRedisRegistry(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisRegistry, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRegistry{client: client, ttl: ttl}, nil
}

func (r *RedisRegistry) Put(ctx context.Context, run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.ExecutionID, err)
	}

	if err := r.client.Set(ctx, runKeyPrefix+run.ExecutionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store run %s: %w", run.ExecutionID, err)
	}

	return nil
}

func (r *RedisRegistry) Get(ctx context.Context, executionID string) (*Run, error) {
	data, err := r.client.Get(ctx, runKeyPrefix+executionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRunNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", executionID, err)
	}

	run := new(Run)
	if err := json.Unmarshal(data, run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", executionID, err)
	}

	return run, nil
}

func (r *RedisRegistry) List(ctx context.Context) ([]*Run, error) {
	all := make([]*Run, 0)

	iter := r.client.Scan(ctx, 0, runKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and get
		}

		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", iter.Val(), err)
		}

		run := new(Run)
		if err := json.Unmarshal(data, run); err != nil {
			return nil, fmt.Errorf("failed to decode run %s: %w", iter.Val(), err)
		}

		all = append(all, run)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan runs: %w", err)
	}

	return all, nil
}

func (r *RedisRegistry) Delete(ctx context.Context, executionID string) error {
	removed, err := r.client.Del(ctx, runKeyPrefix+executionID).Result()
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", executionID, err)
	}

	if removed == 0 {
		return ErrRunNotFound
	}

	return nil
}

func (r *RedisRegistry) Close(_ context.Context) error {
	return r.client.Close()
}
