// Package analytics contiene los casos de uso del tablero de cotizaciones.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

const (
	dashboardTopCustomers = 5
	maxRangeDays          = 366
)

// DashboardUseCase resume las cotizaciones de un período. Solo lee; delega las
// consultas en AnalyticsRepository.
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	now           func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(analyticsRepo repository.AnalyticsRepository) *DashboardUseCase {
	return &DashboardUseCase{analyticsRepo: analyticsRepo, now: time.Now}
}

// GetQuotationSummary conteos por estado, tasa de aceptación y mejores clientes.
// from/to vacíos = mes en curso. Las dos consultas corren en paralelo.
func (uc *DashboardUseCase) GetQuotationSummary(ctx context.Context, companyID string, from, to *time.Time) (*dto.QuotationDashboardDTO, error) {
	start, end, err := uc.period(from, to)
	if err != nil {
		return nil, err
	}

	type summaryResult struct {
		rows []repository.StatusSummaryResult
		err  error
	}
	type topResult struct {
		rows []repository.TopCustomerResult
		err  error
	}
	summaryCh := make(chan summaryResult, 1)
	topCh := make(chan topResult, 1)

	go func() {
		rows, err := uc.analyticsRepo.GetStatusSummary(ctx, companyID, start, end)
		summaryCh <- summaryResult{rows, err}
	}()
	go func() {
		rows, err := uc.analyticsRepo.GetTopCustomers(ctx, companyID, start, end, dashboardTopCustomers)
		topCh <- topResult{rows, err}
	}()

	summary := <-summaryCh
	top := <-topCh
	if summary.err != nil {
		return nil, fmt.Errorf("dashboard: resumen por estado: %w", summary.err)
	}
	if top.err != nil {
		return nil, fmt.Errorf("dashboard: mejores clientes: %w", top.err)
	}

	byStatus := make(map[entity.QuotationStatus]repository.StatusSummaryResult, len(summary.rows))
	for _, r := range summary.rows {
		byStatus[r.Status] = r
	}
	out := &dto.QuotationDashboardDTO{
		From:         start.Format("2006-01-02"),
		To:           end.Format("2006-01-02"),
		ByStatus:     make([]dto.StatusCountDTO, 0, len(entity.QuotationStatuses)),
		TotalAmount:  decimal.Zero,
		TopCustomers: make([]dto.TopCustomerDTO, 0, len(top.rows)),
	}
	for _, s := range entity.QuotationStatuses {
		r := byStatus[s]
		out.ByStatus = append(out.ByStatus, dto.StatusCountDTO{Status: string(s), Count: r.Count, Amount: r.Amount.Round(2)})
		out.TotalCount += r.Count
		out.TotalAmount = out.TotalAmount.Add(r.Amount)
	}
	out.TotalAmount = out.TotalAmount.Round(2)
	out.AcceptanceRate = acceptanceRate(byStatus)

	for _, c := range top.rows {
		out.TopCustomers = append(out.TopCustomers, dto.TopCustomerDTO{
			CustomerID:     c.CustomerID,
			CustomerName:   c.CustomerName,
			AcceptedCount:  c.AcceptedCount,
			AcceptedAmount: c.AcceptedAmount.Round(2),
		})
	}
	return out, nil
}

// acceptanceRate aceptadas / decididas por el cliente o el tiempo. Las anuladas no cuentan.
func acceptanceRate(by map[entity.QuotationStatus]repository.StatusSummaryResult) decimal.Decimal {
	accepted := by[entity.QuotationStatusAccepted].Count
	decided := accepted + by[entity.QuotationStatusRejected].Count + by[entity.QuotationStatusExpired].Count
	if decided == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(accepted)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(decided))).
		Round(2)
}

// period normaliza el rango: from a las 00:00 y to hasta el final del día.
func (uc *DashboardUseCase) period(from, to *time.Time) (time.Time, time.Time, error) {
	now := uc.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := now
	if from != nil {
		start = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	}
	if to != nil {
		end = *to
	}
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location()).Add(24*time.Hour - time.Nanosecond)
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from debe ser anterior a to", domain.ErrInvalidInput)
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: el rango máximo es de %d días", domain.ErrInvalidInput, maxRangeDays)
	}
	return start, end, nil
}
