package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Revocations remembers bearer tokens that were logged out before they expired.
type Revocations interface {
	Revoke(ctx context.Context, token string, until time.Time) error
	IsRevoked(ctx context.Context, token string) bool
}

// revocationKey never stores the raw token.
func revocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "jwt:revoked:" + hex.EncodeToString(sum[:])
}

// RedisRevocations keeps revoked tokens as keys that expire with the token.
type RedisRevocations struct {
	rc *redis.Client
}

func NewRedisRevocations(rc *redis.Client) *RedisRevocations {
	return &RedisRevocations{rc: rc}
}

func (r *RedisRevocations) Revoke(ctx context.Context, token string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.rc.Set(ctx, revocationKey(token), "1", ttl).Err()
}

// IsRevoked fails open on Redis errors so an outage does not lock every user out.
func (r *RedisRevocations) IsRevoked(ctx context.Context, token string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	n, err := r.rc.Exists(ctx, revocationKey(token)).Result()
	if err != nil {
		Logger.Warn("revocation lookup failed", zap.Error(err))
		return false
	}
	return n > 0
}

// MemoryRevocations is the single-process fallback when Redis is off.
type MemoryRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{entries: map[string]time.Time{}, now: time.Now}
}

func (m *MemoryRevocations) Revoke(_ context.Context, token string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !until.After(m.now()) {
		return nil
	}
	m.entries[revocationKey(token)] = until
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := revocationKey(token)
	until, ok := m.entries[key]
	if !ok {
		return false
	}
	if m.now().After(until) {
		delete(m.entries, key)
		return false
	}
	return true
}
