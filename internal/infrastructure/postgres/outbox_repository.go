package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo cola transaccional de notificaciones (outbox_messages).
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Enqueue inserta los mensajes en estado pending. Debe usarse con la misma tx que el cambio de estado.
func (r *OutboxRepo) Enqueue(ctx context.Context, msgs []*entity.OutboxMessage) error {
	query := `
		INSERT INTO outbox_messages (id, company_id, quotation_id, idempotency_key, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $7)
		ON CONFLICT (idempotency_key) DO NOTHING`
	for _, m := range msgs {
		if _, err := r.q.Exec(ctx, query,
			m.ID, m.CompanyID, m.QuotationID, m.IdempotencyKey, []byte(m.Payload), entity.OutboxStatusPending, m.CreatedAt,
		); err != nil {
			return fmt.Errorf("enqueue outbox message: %w", err)
		}
	}
	return nil
}

// Claim reclama un lote en una sola sentencia. Los processing con lock anterior a
// staleBefore se consideran abandonados por un dispatcher caído.
func (r *OutboxRepo) Claim(ctx context.Context, workerID string, limit int, now, staleBefore time.Time) ([]*entity.OutboxMessage, error) {
	query := `
		UPDATE outbox_messages o
		   SET status = 'processing', locked_at = $2, locked_by = $3, attempts = o.attempts + 1,
		       next_attempt_at = NULL, updated_at = $2
		 WHERE o.id IN (
			SELECT id FROM outbox_messages
			 WHERE (status IN ('pending', 'failed') AND (next_attempt_at IS NULL OR next_attempt_at <= $2))
			    OR (status = 'processing' AND locked_at IS NOT NULL AND locked_at <= $4)
			 ORDER BY created_at
			 LIMIT $1
			 FOR UPDATE SKIP LOCKED
		 )
		RETURNING o.id, o.company_id, o.quotation_id, o.idempotency_key, o.payload, o.status, o.attempts,
		          o.locked_at, o.locked_by, o.created_at, o.updated_at`
	rows, err := r.q.Query(ctx, query, limit, now, workerID, staleBefore)
	if err != nil {
		return nil, fmt.Errorf("claim outbox: %w", err)
	}
	defer rows.Close()
	var list []*entity.OutboxMessage
	for rows.Next() {
		var m entity.OutboxMessage
		var payload []byte
		var lockedBy *string
		if err := rows.Scan(
			&m.ID, &m.CompanyID, &m.QuotationID, &m.IdempotencyKey, &payload, &m.Status, &m.Attempts,
			&m.LockedAt, &lockedBy, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		m.Payload = payload
		m.LockedBy = derefString(lockedBy)
		list = append(list, &m)
	}
	return list, rows.Err()
}

// MarkSent cierra el mensaje como entregado.
func (r *OutboxRepo) MarkSent(ctx context.Context, id string, now time.Time) error {
	query := `
		UPDATE outbox_messages
		   SET status = 'sent', locked_at = NULL, locked_by = NULL, next_attempt_at = NULL, last_error = NULL, updated_at = $2
		 WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, id, now); err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}

// MarkFailed agenda reintento en next o pasa a dead si next es nil.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id string, errMsg string, next *time.Time, now time.Time) error {
	status := entity.OutboxStatusFailed
	if next == nil {
		status = entity.OutboxStatusDead
	}
	query := `
		UPDATE outbox_messages
		   SET status = $2, last_error = $3, next_attempt_at = $4, locked_at = NULL, locked_by = NULL, updated_at = $5
		 WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, id, status, errMsg, next, now); err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}
