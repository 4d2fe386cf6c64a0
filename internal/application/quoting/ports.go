package quoting

import (
	"context"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con repos atados a ella: el update con
// control de versión y los mensajes del outbox se confirman juntos o no se confirman.
type TxRunner interface {
	RunQuotation(ctx context.Context, fn func(
		quoteRepo repository.QuotationRepository,
		outboxRepo repository.OutboxRepository,
	) error) error
}

// NotifyConfigProvider arma la configuración de notificación de una cotización.
// Lo implementa *notification.PreferenceService.
type NotifyConfigProvider interface {
	ConfigFor(ctx context.Context, q *entity.Quotation, customer *entity.Customer) (quotation.NotifyConfig, error)
}

// Document datos completos para renderizar una cotización.
type Document struct {
	Quotation *entity.Quotation
	Totals    quotation.Totals
	Company   *entity.Company
	Settings  *entity.CompanySettings // con la política de precios de la cotización
	Branding  *entity.CompanyBranding
	Customer  *entity.Customer
}

// PDFRenderer genera la representación gráfica de la cotización.
type PDFRenderer interface {
	RenderQuotation(doc Document) ([]byte, error)
}

// UBLExporter genera el XML UBL 2.1 (Quotation) y su digest canónico.
type UBLExporter interface {
	ExportQuotation(doc Document) (xml []byte, digest string, err error)
}
