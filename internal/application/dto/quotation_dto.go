package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemRequest línea de cotización. Si ProductID viene, los campos vacíos se
// completan desde el catálogo.
type LineItemRequest struct {
	ProductID       string           `json:"product_id,omitempty" validate:"omitempty,uuid"`
	Description     string           `json:"description" validate:"max=500"`
	Quantity        int64            `json:"quantity" validate:"required,gt=0"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	TaxRatePercent  *decimal.Decimal `json:"tax_rate_percent"`
}

// CreateQuotationRequest body para POST /api/quotations.
type CreateQuotationRequest struct {
	CustomerID string            `json:"customer_id" validate:"required,uuid"`
	ValidUntil *time.Time        `json:"valid_until"` // nil = hoy + días de vigencia de la empresa
	Notes      string            `json:"notes" validate:"max=2000"`
	Items      []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateQuotationRequest body para PUT /api/quotations/:id (solo borradores).
// Version es la que leyó el cliente; si cambió se responde 409.
type UpdateQuotationRequest struct {
	Version    int64             `json:"version" validate:"required,min=1"`
	CustomerID *string           `json:"customer_id" validate:"omitempty,uuid"`
	ValidUntil *time.Time        `json:"valid_until"`
	Notes      *string           `json:"notes" validate:"omitempty,max=2000"`
	Items      []LineItemRequest `json:"items" validate:"omitempty,dive"`
}

// ReasonRequest body para reject/cancel.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// LineItemResponse línea con su desglose calculado.
type LineItemResponse struct {
	ID              string           `json:"id"`
	ProductID       string           `json:"product_id,omitempty"`
	Description     string           `json:"description"`
	Quantity        int64            `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	TaxRatePercent  *decimal.Decimal `json:"tax_rate_percent,omitempty"`
	LineTotal       decimal.Decimal  `json:"line_total"`
	DiscountAmount  decimal.Decimal  `json:"discount_amount"`
	TaxAmount       decimal.Decimal  `json:"tax_amount"`
	Total           decimal.Decimal  `json:"total"`
}

// QuotationResponse cotización en respuestas.
type QuotationResponse struct {
	ID              string             `json:"id"`
	Number          string             `json:"number"`
	CustomerID      string             `json:"customer_id"`
	OwnerID         string             `json:"owner_id"`
	Status          string             `json:"status"`
	AllowedActions  []string           `json:"allowed_actions"`
	Currency        string             `json:"currency"`
	ValidUntil      time.Time          `json:"valid_until"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	TaxAmount       decimal.Decimal    `json:"tax_amount"`
	GrandTotal      decimal.Decimal    `json:"grand_total"`
	Notes           string             `json:"notes,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	PublicToken     string             `json:"public_token,omitempty"`
	RevisionOf      string             `json:"revision_of,omitempty"`
	Version         int64              `json:"version"`
	SentAt          *time.Time         `json:"sent_at,omitempty"`
	ViewedAt        *time.Time         `json:"viewed_at,omitempty"`
	DecidedAt       *time.Time         `json:"decided_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Items           []LineItemResponse `json:"items,omitempty"`
}

// QuotationListResponse lista paginada (sin ítems).
type QuotationListResponse struct {
	Items []QuotationResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// TransitionResponse resultado de una acción de estado.
type TransitionResponse struct {
	Quotation      QuotationResponse `json:"quotation"`
	From           string            `json:"from"`
	To             string            `json:"to"`
	QueuedMessages int               `json:"queued_messages"`
}

// ExpireSweepResponse resultado de un barrido de vencimientos.
type ExpireSweepResponse struct {
	Checked int      `json:"checked"`
	Expired int      `json:"expired"`
	Failed  []string `json:"failed,omitempty"`
}
