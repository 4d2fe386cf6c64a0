package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Cotizador-api/internal/application/notification"
)

var _ notification.IdempotencyStore = (*IdempotencyStore)(nil)

const (
	valueDelivered = "delivered"
	pendingPrefix  = "pending:"
)

// releaseScript borra la reserva solo si sigue siendo del mismo worker.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore claves de entrega en Redis: "pending:<worker>" mientras se entrega,
// "delivered" después.
type IdempotencyStore struct {
	rdb *redis.Client
}

// NewIdempotencyStore construye el store.
func NewIdempotencyStore(rdb *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb}
}

// Reserve SETNX con TTL; false si otro worker la tiene o ya se entregó.
func (s *IdempotencyStore) Reserve(ctx context.Context, k, owner string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key("idem", k), pendingPrefix+owner, ttl).Result()
}

// Complete marca la clave como entregada.
func (s *IdempotencyStore) Complete(ctx context.Context, k string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key("idem", k), valueDelivered, ttl).Err()
}

// Release libera la reserva de owner tras una entrega fallida.
func (s *IdempotencyStore) Release(ctx context.Context, k, owner string) error {
	return releaseScript.Run(ctx, s.rdb, []string{key("idem", k)}, pendingPrefix+owner).Err()
}

// Delivered informa si la clave ya se entregó.
func (s *IdempotencyStore) Delivered(ctx context.Context, k string) (bool, error) {
	v, err := s.rdb.Get(ctx, key("idem", k)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == valueDelivered, nil
}
