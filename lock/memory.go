/*
memory.go - In-process Locker

PURPOSE:
  Lock implementation backed by a plain map. Used by tests and by
  single-node deployments that run without Redis.
*/
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultPoll = 25 * time.Millisecond

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// Memory is an in-process Locker. Safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	held map[string]memoryEntry
	poll time.Duration
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]memoryEntry), poll: defaultPoll}
}

func (m *Memory) Acquire(ctx context.Context, key string, ttl time.Duration) (Handle, error) {
	for {
		if h, ok := m.tryAcquire(key, ttl); ok {
			return h, nil
		}
		select {
		case <-ctx.Done():
			return Handle{}, ErrNotAcquired
		case <-time.After(m.poll):
		}
	}
}

func (m *Memory) tryAcquire(key string, ttl time.Duration) (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if e, ok := m.held[key]; ok && e.expiresAt.After(now) {
		return Handle{}, false
	}
	token := uuid.NewString()
	m.held[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}
	return Handle{Key: key, Token: token}, true
}

func (m *Memory) Release(_ context.Context, h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Only the current holder may release; an expired-and-retaken key
	// belongs to someone else.
	if e, ok := m.held[h.Key]; ok && e.token == h.Token {
		delete(m.held, h.Key)
	}
	return nil
}
