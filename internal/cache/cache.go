package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Skotchmaster/texnomart/internal/logging"
	"github.com/Skotchmaster/texnomart/internal/metrics"
)

// Store is a TTL key/value store holding serialized payloads.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Memory struct {
	c *gocache.Cache
}

func NewMemory(defaultTTL, cleanup time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, cleanup)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.c.Set(key, val, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Len counts unexpired entries.
func (m *Memory) Len() int { return len(m.c.Items()) }

// GetOrLoad returns the cached JSON payload under key, or calls load, encodes the
// result and stores it for ttl. Concurrent misses may load twice; the last write wins.
func GetOrLoad[T any](ctx context.Context, s Store, key Key, ttl time.Duration, load func(context.Context) (T, error)) ([]byte, error) {
	l := logging.FromContext(ctx).With("cache_key", key.String())

	raw, ok, err := s.Get(ctx, key.String())
	if err != nil {
		return nil, err
	}
	metrics.RecordCacheLookup(key.Namespace, ok)
	if ok {
		l.Debug("cache_hit")
		return raw, nil
	}

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	raw, err = json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := s.Set(ctx, key.String(), raw, ttl); err != nil {
		return nil, err
	}
	l.Debug("cache_store", "bytes", len(raw))
	return raw, nil
}
