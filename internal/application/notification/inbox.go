package notification

import (
	"context"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// Inbox bandeja in-app del usuario autenticado.
type Inbox struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

// NewInbox construye la bandeja.
func NewInbox(repo repository.NotificationRepository) *Inbox {
	return &Inbox{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// List notificaciones del usuario, opcionalmente solo no leídas.
func (in *Inbox) List(ctx context.Context, companyID, userID string, unreadOnly bool, page dto.PageRequest) (*dto.NotificationListResponse, error) {
	page.DefaultPage()
	list, err := in.repo.ListByUser(ctx, companyID, userID, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		items = append(items, toNotificationResponse(n))
	}
	return &dto.NotificationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// MarkRead marca una notificación del usuario como leída.
func (in *Inbox) MarkRead(ctx context.Context, companyID, userID, id string) error {
	return in.repo.MarkRead(ctx, companyID, userID, id, in.now())
}

func toNotificationResponse(n *entity.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:          n.ID,
		QuotationID: n.QuotationID,
		Event:       n.Event,
		Title:       n.Title,
		Body:        n.Body,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}
