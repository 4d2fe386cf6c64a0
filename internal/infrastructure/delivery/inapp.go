package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Cotizador-api/internal/application/notification"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// InAppSender escribe en la bandeja del usuario dueño de la cotización.
type InAppSender struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

// NewInAppSender construye el sender.
func NewInAppSender(repo repository.NotificationRepository) *InAppSender {
	return &InAppSender{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *InAppSender) Channel() entity.Channel { return entity.ChannelInApp }

func (s *InAppSender) Send(ctx context.Context, m notification.Message, c notification.Content) error {
	// los clientes no tienen cuenta
	if m.RecipientKind != string(quotation.RecipientOwner) || m.RecipientID == "" {
		return fmt.Errorf("%w: in_app solo para usuarios (destinatario %s)", notification.ErrPermanent, m.RecipientKind)
	}
	n := &entity.Notification{
		ID:          uuid.New().String(),
		CompanyID:   m.CompanyID,
		UserID:      m.RecipientID,
		QuotationID: m.QuotationID,
		Event:       m.Event,
		Title:       c.Subject,
		Body:        c.Body,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("in_app: %w", err)
	}
	return nil
}
