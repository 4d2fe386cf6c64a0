package dto

import "github.com/shopspring/decimal"

// QuotationDashboardDTO respuesta de GET /api/dashboard/quotations.
type QuotationDashboardDTO struct {
	From     string           `json:"from"` // YYYY-MM-DD
	To       string           `json:"to"`
	ByStatus []StatusCountDTO `json:"by_status"`

	// Total de cotizaciones creadas en el período
	TotalCount  int             `json:"total_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`

	// AcceptanceRate aceptadas / (aceptadas + rechazadas + vencidas) * 100; 0 si no hay decididas
	AcceptanceRate decimal.Decimal `json:"acceptance_rate"`

	TopCustomers []TopCustomerDTO `json:"top_customers"`
}

// StatusCountDTO conteo y monto por estado (incluye estados en cero).
type StatusCountDTO struct {
	Status string          `json:"status"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// TopCustomerDTO cliente con mayor monto aceptado.
type TopCustomerDTO struct {
	CustomerID     string          `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	AcceptedCount  int             `json:"accepted_count"`
	AcceptedAmount decimal.Decimal `json:"accepted_amount"`
}
