// Package notification traduce los efectos del motor de cotizaciones en mensajes
// del outbox y los entrega por canal con reintentos e idempotencia.
package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
)

// Message payload de un mensaje del outbox: todo lo que necesita un sender sin volver a la DB.
type Message struct {
	IdempotencyKey string         `json:"idempotency_key"`
	Event          string         `json:"event"`
	Channel        entity.Channel `json:"channel"`
	RecipientKind  string         `json:"recipient_kind"`
	RecipientID    string         `json:"recipient_id"`
	RecipientName  string         `json:"recipient_name"`
	Address        string         `json:"address"`

	CompanyID    string          `json:"company_id"`
	CompanyName  string          `json:"company_name"`
	QuotationID  string          `json:"quotation_id"`
	Number       string          `json:"number"`
	CustomerName string          `json:"customer_name"`
	OwnerID      string          `json:"owner_id"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	Currency     string          `json:"currency"`
	Scale        int32           `json:"scale"`
	ValidUntil   time.Time       `json:"valid_until"`
	PublicToken  string          `json:"public_token,omitempty"`
	Reason       string          `json:"reason,omitempty"`
}

// Snapshot nombres que acompañan al mensaje (no viven en el agregado).
type Snapshot struct {
	CompanyName  string
	CustomerName string
	Scale        int32
}

// BuildOutbox convierte cada efecto del resultado en un mensaje pendiente.
func BuildOutbox(q *entity.Quotation, res quotation.TransitionResult, snap Snapshot, now time.Time) ([]*entity.OutboxMessage, error) {
	out := make([]*entity.OutboxMessage, 0, len(res.SideEffects))
	for _, se := range res.SideEffects {
		if se.Kind != quotation.SideEffectNotify {
			continue
		}
		m := Message{
			IdempotencyKey: se.IdempotencyKey,
			Event:          se.Event,
			Channel:        se.Channel,
			RecipientKind:  string(se.Recipient.Kind),
			RecipientID:    se.Recipient.ID,
			RecipientName:  se.Recipient.Name,
			Address:        se.Recipient.Address,
			CompanyID:      q.CompanyID,
			CompanyName:    snap.CompanyName,
			QuotationID:    q.ID,
			Number:         q.Number,
			CustomerName:   snap.CustomerName,
			OwnerID:        q.OwnerID,
			GrandTotal:     q.GrandTotal,
			Currency:       q.Currency,
			Scale:          snap.Scale,
			ValidUntil:     q.ValidUntil,
			Reason:         res.Reason,
		}
		if se.Recipient.Kind == quotation.RecipientClient {
			m.PublicToken = q.PublicToken
		}
		payload, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("outbox: serializar mensaje: %w", err)
		}
		out = append(out, &entity.OutboxMessage{
			ID:             uuid.New().String(),
			CompanyID:      q.CompanyID,
			QuotationID:    q.ID,
			IdempotencyKey: se.IdempotencyKey,
			Payload:        payload,
			Status:         entity.OutboxStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return out, nil
}

// DecodeMessage lee el payload de un mensaje del outbox.
func DecodeMessage(m *entity.OutboxMessage) (Message, error) {
	var msg Message
	if err := json.Unmarshal(m.Payload, &msg); err != nil {
		return Message{}, fmt.Errorf("outbox %s: payload inválido: %w", m.ID, err)
	}
	return msg, nil
}
