package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var (
	_ repository.PreferenceRepository   = (*PreferenceRepo)(nil)
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
)

// PreferenceRepo preferencias de canal (notification_preferences, una fila por dueño y canal).
type PreferenceRepo struct {
	q Querier
}

// NewPreferenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPreferenceRepository(q Querier) *PreferenceRepo {
	return &PreferenceRepo{q: q}
}

// Get arma las preferencias del dueño. Canales sin fila quedan desactivados.
func (r *PreferenceRepo) Get(ctx context.Context, ownerID string) (*entity.NotificationPreferences, error) {
	rows, err := r.q.Query(ctx,
		`SELECT channel, enabled, updated_at FROM notification_preferences WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get notification preferences: %w", err)
	}
	defer rows.Close()
	prefs := &entity.NotificationPreferences{OwnerID: ownerID, Channels: make(map[entity.Channel]bool, len(entity.Channels))}
	found := false
	for rows.Next() {
		var (
			channel string
			enabled bool
			updated time.Time
		)
		if err := rows.Scan(&channel, &enabled, &updated); err != nil {
			return nil, fmt.Errorf("scan notification preference: %w", err)
		}
		c, err := entity.ParseChannel(channel)
		if err != nil {
			// fila con un canal retirado: se ignora
			continue
		}
		found = true
		prefs.Channels[c] = enabled
		if updated.After(prefs.UpdatedAt) {
			prefs.UpdatedAt = updated
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read notification preferences: %w", err)
	}
	if !found {
		return nil, nil
	}
	return prefs, nil
}

// Upsert guarda todas las claves del enum.
func (r *PreferenceRepo) Upsert(ctx context.Context, prefs *entity.NotificationPreferences) error {
	query := `
		INSERT INTO notification_preferences (owner_id, channel, enabled, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, channel) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at`
	for _, c := range entity.Channels {
		if _, err := r.q.Exec(ctx, query, prefs.OwnerID, string(c), prefs.Channels[c], prefs.UpdatedAt); err != nil {
			return fmt.Errorf("upsert notification preference %s: %w", c, err)
		}
	}
	return nil
}

// NotificationRepo bandeja in-app (notifications).
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// Create inserta una notificación.
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (id, company_id, user_id, quotation_id, event, title, body, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.CompanyID, n.UserID, nullString(n.QuotationID), n.Event, n.Title, n.Body, n.ReadAt, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByUser lista la bandeja del usuario, más recientes primero.
func (r *NotificationRepo) ListByUser(ctx context.Context, companyID, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, company_id, user_id, quotation_id, event, title, body, read_at, created_at
		FROM notifications
		WHERE company_id = $1 AND user_id = $2 AND (NOT $3 OR read_at IS NULL)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, companyID, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var list []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var quotationID *string
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.UserID, &quotationID, &n.Event, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.QuotationID = derefString(quotationID)
		list = append(list, &n)
	}
	return list, rows.Err()
}

// MarkRead marca como leída. Idempotente: una ya leída conserva su fecha.
func (r *NotificationRepo) MarkRead(ctx context.Context, companyID, userID, id string, at time.Time) error {
	query := `
		UPDATE notifications SET read_at = COALESCE(read_at, $4)
		WHERE company_id = $1 AND user_id = $2 AND id = $3`
	tag, err := r.q.Exec(ctx, query, companyID, userID, id, at)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
