package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers refresh token ids that may no longer be used.
// Revoke reports whether this call was the one that revoked tokenID.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevoker keeps revoked ids as expiring keys.
type RedisRevoker struct {
	client *redis.Client
	prefix string
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client, prefix: "attendance:revoked:"}
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	return r.client.SetNX(ctx, r.prefix+tokenID, 1, ttl).Result()
}

func (r *RedisRevoker) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevoker is a single-process Revoker.
type MemoryRevoker struct {
	mu      sync.Mutex
	until   map[string]time.Time
	nowFunc func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{until: make(map[string]time.Time), nowFunc: time.Now}
}

func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.nowFunc()
	for id, exp := range m.until {
		if !exp.After(now) {
			delete(m.until, id)
		}
	}
	if _, ok := m.until[tokenID]; ok {
		return false, nil
	}
	if ttl > 0 {
		m.until[tokenID] = now.Add(ttl)
	}
	return true, nil
}

func (m *MemoryRevoker) Revoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.until[tokenID]
	return ok && exp.After(m.nowFunc()), nil
}
