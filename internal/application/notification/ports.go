package notification

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// ErrPermanent marca fallos que no mejoran con reintentos (destinatario inválido,
// plantilla inexistente). El dispatcher deja esos mensajes en dead de inmediato.
var ErrPermanent = errors.New("fallo permanente de entrega")

// Sender entrega un mensaje por un canal.
type Sender interface {
	Channel() entity.Channel
	Send(ctx context.Context, m Message, c Content) error
}

// IdempotencyStore registra qué claves ya fueron entregadas.
//
// Reserve toma la clave por ttl para owner y devuelve false si ya está tomada
// (entregada o en curso). Complete la deja como entregada por ttl; Release la libera
// si la entrega falló.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Complete(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key, owner string) error
	Delivered(ctx context.Context, key string) (bool, error)
}
