package redishost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/calcmcp/calc-server-go/sessions"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

// Config for the Redis-backed session store. Defaults can be loaded via
// envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all keys. ENV: SESSIONS_KEY_PREFIX
	KeyPrefix string `env:"SESSIONS_KEY_PREFIX,default=calc:sessions:"`
	// TTL is the idle session lifetime. ENV: SESSIONS_TTL
	TTL time.Duration `env:"SESSIONS_TTL,default=30m"`
}

type Host struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func New(cfg Config) (*Host, error) {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "calc:sessions:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Host{client: cl, keyPrefix: prefix, ttl: ttl}, nil
}

// NewFromEnv builds a Host using envdecode to populate Config.
func NewFromEnv() (*Host, error) {
	var cfg Config
	// Use envdecode; defaults are provided via struct tags.
	_ = envdecode.Decode(&cfg)
	return New(cfg)
}

// Close closes the Redis client.
func (h *Host) Close() error { return h.client.Close() }

func (h *Host) key(id string) string { return h.keyPrefix + id }

func (h *Host) Put(ctx context.Context, rec sessions.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	if err := h.client.Set(ctx, h.key(rec.ID), b, h.ttl).Err(); err != nil {
		return fmt.Errorf("store session record: %w", err)
	}
	return nil
}

func (h *Host) Get(ctx context.Context, id string) (sessions.Record, error) {
	b, err := h.client.Get(ctx, h.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sessions.Record{}, sessions.ErrNotFound
		}
		return sessions.Record{}, fmt.Errorf("load session record: %w", err)
	}
	var rec sessions.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return sessions.Record{}, fmt.Errorf("decode session record: %w", err)
	}
	// Sliding expiry: touching a live session extends it.
	_ = h.client.Expire(ctx, h.key(id), h.ttl).Err()
	return rec, nil
}

func (h *Host) Delete(ctx context.Context, id string) error {
	if err := h.client.Del(ctx, h.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// Interface compliance
var _ sessions.Store = (*Host)(nil)
