package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuotationStatus estado del ciclo de vida de una cotización.
type QuotationStatus string

// Estados de la cotización. accepted, rejected, expired y cancelled son terminales.
const (
	QuotationStatusDraft     QuotationStatus = "draft"
	QuotationStatusSent      QuotationStatus = "sent"
	QuotationStatusViewed    QuotationStatus = "viewed"
	QuotationStatusAccepted  QuotationStatus = "accepted"
	QuotationStatusRejected  QuotationStatus = "rejected"
	QuotationStatusExpired   QuotationStatus = "expired"
	QuotationStatusCancelled QuotationStatus = "cancelled"
)

// QuotationStatuses todos los estados conocidos, en orden de ciclo de vida.
var QuotationStatuses = []QuotationStatus{
	QuotationStatusDraft,
	QuotationStatusSent,
	QuotationStatusViewed,
	QuotationStatusAccepted,
	QuotationStatusRejected,
	QuotationStatusExpired,
	QuotationStatusCancelled,
}

// IsTerminal indica si el estado no admite más transiciones.
func (s QuotationStatus) IsTerminal() bool {
	switch s {
	case QuotationStatusAccepted, QuotationStatusRejected, QuotationStatusExpired, QuotationStatusCancelled:
		return true
	}
	return false
}

// Valid indica si s es uno de los estados conocidos.
func (s QuotationStatus) Valid() bool {
	for _, known := range QuotationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// LineItem representa una línea de la cotización.
// DiscountPercent y TaxRatePercent son opcionales (nil = no informado).
type LineItem struct {
	ID              string
	QuotationID     string
	ProductID       string // opcional: referencia al catálogo
	Description     string
	Quantity        int64
	UnitPrice       decimal.Decimal
	DiscountPercent *decimal.Decimal
	TaxRatePercent  *decimal.Decimal
	Position        int
}

// Quotation es el agregado de cotización: ítems, cliente, estado y totales calculados.
// Siempre: GrandTotal == Subtotal - DiscountAmount + TaxAmount.
type Quotation struct {
	ID                    string
	CompanyID             string
	Number                string
	CustomerID            string
	OwnerID               string
	Items                 []LineItem
	Status                QuotationStatus
	Currency              string
	ValidUntil            time.Time
	Subtotal              decimal.Decimal
	DiscountAmount        decimal.Decimal
	TaxAmount             decimal.Decimal
	GrandTotal            decimal.Decimal
	// PriceScale y DefaultTaxRatePercent son la política con la que se calcularon los
	// totales. Fuera de borrador ya no cambian aunque la empresa modifique su configuración.
	PriceScale            int32
	DefaultTaxRatePercent *decimal.Decimal
	Notes                 string
	RejectionReason       string
	PublicToken           string
	RevisionOf            string
	Version               int64
	SentAt                *time.Time
	ViewedAt              *time.Time
	DecidedAt             *time.Time // accepted, rejected, expired o cancelled
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsDraft indica si los ítems aún son editables.
func (q *Quotation) IsDraft() bool {
	return q.Status == QuotationStatusDraft
}

// CloneItems copia los ítems sin IDs, para crear una revisión.
func (q *Quotation) CloneItems() []LineItem {
	out := make([]LineItem, len(q.Items))
	for i, it := range q.Items {
		it.ID = ""
		it.QuotationID = ""
		out[i] = it
	}
	return out
}
