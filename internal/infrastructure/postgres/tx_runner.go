package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Cotizador-api/internal/application/quoting"
	"github.com/jhoicas/Cotizador-api/internal/application/usecase"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var (
	_ quoting.TxRunner        = (*TxRunner)(nil)
	_ usecase.CompanyTxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunQuotation transacción con el repo de cotizaciones y el outbox: el cambio de estado
// y sus notificaciones se confirman juntos.
func (r *TxRunner) RunQuotation(ctx context.Context, fn func(
	quoteRepo repository.QuotationRepository,
	outboxRepo repository.OutboxRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewQuotationRepository(tx), NewOutboxRepository(tx))
	})
}

// RunCompany transacción para dar de alta un tenant completo.
func (r *TxRunner) RunCompany(ctx context.Context, fn func(
	companies repository.CompanyRepository,
	settings repository.CompanySettingsRepository,
	prefs repository.PreferenceRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewCompanyRepository(tx), NewSettingsRepository(tx), NewPreferenceRepository(tx))
	})
}

// inTx inicia la transacción, ejecuta fn y hace Commit o Rollback.
func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
