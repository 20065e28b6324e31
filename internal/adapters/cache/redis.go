package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/swish/internal/domain/training"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Redis stores capacity entries as JSON strings.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ training.CapacityCache = (*Redis)(nil)

// NewRedis connects to addr and verifies the connection with a ping.
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	opts, err := redisOptions(addr)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func redisOptions(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}

// Get returns the entry for key, reporting a miss on redis.Nil.
func (r *Redis) Get(ctx context.Context, key string) (training.CachedCapacity, bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return training.CachedCapacity{}, false, nil
	}
	if err != nil {
		return training.CachedCapacity{}, false, fmt.Errorf("redis get: %w", err)
	}
	var v training.CachedCapacity
	if err := json.Unmarshal(raw, &v); err != nil {
		return training.CachedCapacity{}, false, fmt.Errorf("decode cached capacity: %w", err)
	}
	return v, true, nil
}

// Set stores v under key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, v training.CachedCapacity) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cached capacity: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
