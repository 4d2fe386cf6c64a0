package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para el dashboard de cotizaciones.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

// GetStatusSummary cuenta cotizaciones y suma grand_total por estado.
// Los estados sin cotizaciones no aparecen; el use case completa con ceros.
func (r *AnalyticsRepo) GetStatusSummary(
	ctx context.Context,
	companyID string,
	startDate, endDate time.Time,
) ([]repository.StatusSummaryResult, error) {
	const query = `
	SELECT status, COUNT(*) AS quotation_count, COALESCE(SUM(grand_total), 0) AS amount
	FROM quotations
	WHERE company_id = $1
	  AND created_at BETWEEN $2 AND $3
	GROUP BY status`

	rows, err := r.pool.Query(ctx, query, companyID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("analytics status summary: %w", err)
	}
	defer rows.Close()

	var out []repository.StatusSummaryResult
	for rows.Next() {
		var res repository.StatusSummaryResult
		var status string
		if err := rows.Scan(&status, &res.Count, &res.Amount); err != nil {
			return nil, fmt.Errorf("analytics status summary scan: %w", err)
		}
		res.Status = entity.QuotationStatus(status)
		out = append(out, res)
	}
	return out, rows.Err()
}

// GetTopCustomers clientes con mayor monto aceptado en el período.
func (r *AnalyticsRepo) GetTopCustomers(
	ctx context.Context,
	companyID string,
	startDate, endDate time.Time,
	limit int,
) ([]repository.TopCustomerResult, error) {
	const query = `
	SELECT c.id, c.name, COUNT(q.id) AS accepted_count, SUM(q.grand_total) AS accepted_amount
	FROM quotations q
	JOIN customers  c ON c.id = q.customer_id
	WHERE q.company_id = $1
	  AND q.status = 'accepted'
	  AND q.decided_at BETWEEN $2 AND $3
	GROUP BY c.id, c.name
	ORDER BY accepted_amount DESC
	LIMIT $4`

	rows, err := r.pool.Query(ctx, query, companyID, startDate, endDate, limit)
	if err != nil {
		return nil, fmt.Errorf("analytics top customers: %w", err)
	}
	defer rows.Close()

	var out []repository.TopCustomerResult
	for rows.Next() {
		var res repository.TopCustomerResult
		if err := rows.Scan(&res.CustomerID, &res.CustomerName, &res.AcceptedCount, &res.AcceptedAmount); err != nil {
			return nil, fmt.Errorf("analytics top customers scan: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
