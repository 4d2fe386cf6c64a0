// Package redisstore guarda en Redis las claves de idempotencia de entregas y los
// locks de tareas programadas. Sin REDIS_ADDR se usan las variantes en memoria.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Cotizador-api/pkg/config"
)

// keyPrefix espacio de nombres de todas las claves de la aplicación.
const keyPrefix = "cotizador"

// NewClient abre el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 20,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

func key(kind, k string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, k)
}
