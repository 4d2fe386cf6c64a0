package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// PreferenceRepository preferencias de canal por dueño (empresa o usuario).
// Get devuelve nil, nil si el dueño nunca guardó preferencias.
type PreferenceRepository interface {
	Get(ctx context.Context, ownerID string) (*entity.NotificationPreferences, error)
	Upsert(ctx context.Context, prefs *entity.NotificationPreferences) error
}

// NotificationRepository bandeja in-app.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByUser(ctx context.Context, companyID, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	// MarkRead devuelve domain.ErrNotFound si la notificación no es del usuario.
	MarkRead(ctx context.Context, companyID, userID, id string, at time.Time) error
}

// OutboxRepository cola transaccional de efectos secundarios.
type OutboxRepository interface {
	// Enqueue inserta mensajes; una IdempotencyKey repetida se ignora.
	Enqueue(ctx context.Context, msgs []*entity.OutboxMessage) error
	// Claim toma hasta limit mensajes listos (pending/failed vencidos o processing con lock viejo)
	// con FOR UPDATE SKIP LOCKED, los marca processing e incrementa Attempts.
	Claim(ctx context.Context, workerID string, limit int, now, staleBefore time.Time) ([]*entity.OutboxMessage, error)
	MarkSent(ctx context.Context, id string, now time.Time) error
	// MarkFailed agenda un reintento en next, o deja el mensaje dead si next es nil.
	MarkFailed(ctx context.Context, id string, errMsg string, next *time.Time, now time.Time) error
}
