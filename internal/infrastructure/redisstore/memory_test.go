package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CicloDeReserva(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.Reserve(ctx, "k", "w1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = s.Reserve(ctx, "k", "w2", time.Minute)
	assert.False(t, ok, "reservada por w1")

	// solo el dueño libera
	require.NoError(t, s.Release(ctx, "k", "w2"))
	ok, _ = s.Reserve(ctx, "k", "w2", time.Minute)
	assert.False(t, ok)
	require.NoError(t, s.Release(ctx, "k", "w1"))
	ok, _ = s.Reserve(ctx, "k", "w2", time.Minute)
	assert.True(t, ok)

	require.NoError(t, s.Complete(ctx, "k", time.Hour))
	delivered, err := s.Delivered(ctx, "k")
	require.NoError(t, err)
	assert.True(t, delivered)
	ok, _ = s.Reserve(ctx, "k", "w3", time.Minute)
	assert.False(t, ok)
}

func TestMemoryStore_ReservaVence(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ok, _ := s.Reserve(ctx, "k", "w1", time.Minute)
	require.True(t, ok)
	now = now.Add(2 * time.Minute)
	ok, _ = s.Reserve(ctx, "k", "w2", time.Minute)
	assert.True(t, ok, "la reserva de un worker caído expira")
}

func TestMemoryLocker_Exclusivo(t *testing.T) {
	l := NewMemoryLocker()
	ran, err := l.TryRun(context.Background(), "expire", time.Second, func(ctx context.Context) error {
		inner, err := l.TryRun(ctx, "expire", time.Second, func(context.Context) error { return nil })
		assert.NoError(t, err)
		assert.False(t, inner)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = l.TryRun(context.Background(), "expire", time.Second, func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.True(t, ran, "liberado al terminar")
}
