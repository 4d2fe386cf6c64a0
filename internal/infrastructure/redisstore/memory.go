package redisstore

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	value   string
	expires time.Time
}

// MemoryStore IdempotencyStore de un solo proceso, para desarrollo y tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memEntry
	now  func() time.Time
}

// NewMemoryStore construye el store vacío.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]memEntry{}, now: time.Now}
}

func (m *MemoryStore) get(k string) (string, bool) {
	e, ok := m.data[k]
	if !ok {
		return "", false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, k)
		return "", false
	}
	return e.value, true
}

func (m *MemoryStore) set(k, v string, ttl time.Duration) {
	e := memEntry{value: v}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[k] = e
}

func (m *MemoryStore) Reserve(_ context.Context, k, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.get(k); ok {
		return false, nil
	}
	m.set(k, pendingPrefix+owner, ttl)
	return true, nil
}

func (m *MemoryStore) Complete(_ context.Context, k string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(k, valueDelivered, ttl)
	return nil
}

func (m *MemoryStore) Release(_ context.Context, k, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.get(k); ok && v == pendingPrefix+owner {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryStore) Delivered(_ context.Context, k string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.get(k)
	return ok && v == valueDelivered, nil
}

// MemoryLocker Locker de un solo proceso.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMemoryLocker construye el locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: map[string]bool{}}
}

func (l *MemoryLocker) TryRun(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	name = strings.TrimSpace(name)
	l.mu.Lock()
	if l.held[name] {
		l.mu.Unlock()
		return false, nil
	}
	l.held[name] = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
	}()

	runCtx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()
	return true, fn(runCtx)
}
