package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

type stubAnalytics struct {
	summary []repository.StatusSummaryResult
	top     []repository.TopCustomerResult
	err     error
	start   time.Time
	end     time.Time
}

func (s *stubAnalytics) GetStatusSummary(_ context.Context, _ string, start, end time.Time) ([]repository.StatusSummaryResult, error) {
	s.start, s.end = start, end
	return s.summary, s.err
}

func (s *stubAnalytics) GetTopCustomers(context.Context, string, time.Time, time.Time, int) ([]repository.TopCustomerResult, error) {
	return s.top, nil
}

func TestGetQuotationSummary(t *testing.T) {
	repo := &stubAnalytics{
		summary: []repository.StatusSummaryResult{
			{Status: entity.QuotationStatusAccepted, Count: 3, Amount: decimal.RequireFromString("300")},
			{Status: entity.QuotationStatusRejected, Count: 1, Amount: decimal.RequireFromString("50")},
			{Status: entity.QuotationStatusCancelled, Count: 4, Amount: decimal.RequireFromString("10")},
		},
		top: []repository.TopCustomerResult{
			{CustomerID: "cust-1", CustomerName: "ACME", AcceptedCount: 3, AcceptedAmount: decimal.RequireFromString("300")},
		},
	}
	uc := NewDashboardUseCase(repo)
	uc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

	out, err := uc.GetQuotationSummary(context.Background(), "c-1", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-01", out.From)
	assert.Equal(t, "2026-03-15", out.To)
	assert.Len(t, out.ByStatus, len(entity.QuotationStatuses), "incluye estados en cero")
	assert.Equal(t, 8, out.TotalCount)
	assert.True(t, out.TotalAmount.Equal(decimal.RequireFromString("360")))
	// 3 aceptadas de 4 decididas; las anuladas no cuentan
	assert.True(t, out.AcceptanceRate.Equal(decimal.RequireFromString("75")), "tasa %s", out.AcceptanceRate)
	require.Len(t, out.TopCustomers, 1)
	assert.Equal(t, "ACME", out.TopCustomers[0].CustomerName)
}

func TestGetQuotationSummary_RangoInvalido(t *testing.T) {
	uc := NewDashboardUseCase(&stubAnalytics{})
	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := uc.GetQuotationSummary(context.Background(), "c-1", &from, &to)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetQuotationSummary_ErrorDelRepositorio(t *testing.T) {
	uc := NewDashboardUseCase(&stubAnalytics{err: errors.New("db caída")})
	_, err := uc.GetQuotationSummary(context.Background(), "c-1", nil, nil)
	assert.Error(t, err)
}
