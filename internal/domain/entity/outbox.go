package entity

import (
	"encoding/json"
	"time"
)

// Estados de publicación de un mensaje del outbox.
const (
	OutboxStatusPending    = "pending"
	OutboxStatusProcessing = "processing"
	OutboxStatusSent       = "sent"
	OutboxStatusFailed     = "failed"
	OutboxStatusDead       = "dead"
)

// OutboxMessage efecto secundario pendiente de entrega, escrito en la misma
// transacción que el cambio de estado de la cotización.
type OutboxMessage struct {
	ID             string
	CompanyID      string
	QuotationID    string
	IdempotencyKey string
	Payload        json.RawMessage
	Status         string
	Attempts       int
	NextAttemptAt  *time.Time
	LockedAt       *time.Time
	LockedBy       string
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
