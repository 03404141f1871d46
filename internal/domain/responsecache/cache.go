// Package responsecache stores rendered response audio keyed by everything
// that affects the bytes. Entries never expire.
package responsecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/util/optional"
)

// Cache is safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (optional.Value[[]byte], error)
	Set(ctx context.Context, key string, audio []byte) error
	Close() error
}

// Key hashes the voice, output format, equalizer and a hash of the text.
func Key(voice, format, equalizer, text string) string {
	textSum := sha256.Sum256([]byte(text))
	h := sha256.New()
	for _, part := range []string{voice, format, equalizer, hex.EncodeToString(textSum[:])} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

type Config struct {
	Driver   string
	Addr     string
	Password string
	DB       int
	Prefix   string
	// DialTimeout bounds the startup ping.
	DialTimeout time.Duration
}

// New builds the configured driver.
func New(cfg Config) (Cache, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return NewRedis(cfg)
	default:
		return nil, errors.New(errors.KindConfig, "responsecache.New", fmt.Sprintf("unsupported cache driver %q", cfg.Driver))
	}
}

// Memory is an in-process map.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string) (optional.Value[[]byte], error) {
	if err := ctx.Err(); err != nil {
		return optional.None[[]byte](), err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	if !ok {
		return optional.None[[]byte](), nil
	}
	return optional.Some(append([]byte(nil), v...)), nil
}

func (m *Memory) Set(ctx context.Context, key string, audio []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), audio...)
	return nil
}

// Len reports the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }

// Redis stores raw audio bytes under <prefix>:<key>.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(cfg Config) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New(errors.KindConfig, "responsecache.redis", "redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.KindStorage, "responsecache.redis.ping", "redis ping failed", err)
	}

	prefix := strings.TrimSuffix(cfg.Prefix, ":")
	if prefix == "" {
		prefix = "sleepvoice:speech"
	}
	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (optional.Value[[]byte], error) {
	data, err := r.client.Get(ctx, r.prefix+":"+key).Bytes()
	if err == redis.Nil {
		return optional.None[[]byte](), nil
	}
	if err != nil {
		return optional.None[[]byte](), errors.Wrap(errors.KindStorage, "responsecache.redis.get", key, err)
	}
	return optional.Some(data), nil
}

func (r *Redis) Set(ctx context.Context, key string, audio []byte) error {
	if err := r.client.Set(ctx, r.prefix+":"+key, audio, 0).Err(); err != nil {
		return errors.Wrap(errors.KindStorage, "responsecache.redis.set", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
