package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// StatusSummaryResult conteo y monto por estado.
// Lo produce la DB; el use case lo convierte en DTO.
type StatusSummaryResult struct {
	Status entity.QuotationStatus
	Count  int
	Amount decimal.Decimal // suma de grand_total
}

// TopCustomerResult clientes con mayor monto aceptado.
type TopCustomerResult struct {
	CustomerID     string
	CustomerName   string
	AcceptedCount  int
	AcceptedAmount decimal.Decimal
}

// AnalyticsRepository consultas de lectura para el dashboard de cotizaciones.
// Las implementaciones son read-only (no modifican datos).
type AnalyticsRepository interface {
	// GetStatusSummary agrupa por estado las cotizaciones creadas en el rango.
	GetStatusSummary(ctx context.Context, companyID string, startDate, endDate time.Time) ([]StatusSummaryResult, error)

	// GetTopCustomers los `limit` clientes con mayor monto aceptado en el rango.
	GetTopCustomers(ctx context.Context, companyID string, startDate, endDate time.Time, limit int) ([]TopCustomerResult, error)
}
