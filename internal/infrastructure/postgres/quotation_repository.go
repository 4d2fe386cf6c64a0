package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var _ repository.QuotationRepository = (*QuotationRepo)(nil)

// QuotationRepo persistencia del agregado Quotation (quotations + quotation_items).
type QuotationRepo struct {
	q Querier
}

// NewQuotationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewQuotationRepository(q Querier) *QuotationRepo {
	return &QuotationRepo{q: q}
}

const quotationColumns = `id, company_id, number, customer_id, owner_id, status, currency, valid_until,
	subtotal, discount_amount, tax_amount, grand_total, price_scale, default_tax_rate_percent, notes, rejection_reason, public_token, revision_of,
	version, sent_at, viewed_at, decided_at, created_at, updated_at`

func scanQuotation(row rowScanner, extra ...any) (*entity.Quotation, error) {
	var q entity.Quotation
	var status string
	var notes, reason, revisionOf *string
	dest := []any{
		&q.ID, &q.CompanyID, &q.Number, &q.CustomerID, &q.OwnerID, &status, &q.Currency, &q.ValidUntil,
		&q.Subtotal, &q.DiscountAmount, &q.TaxAmount, &q.GrandTotal, &q.PriceScale, &q.DefaultTaxRatePercent, &notes, &reason, &q.PublicToken, &revisionOf,
		&q.Version, &q.SentAt, &q.ViewedAt, &q.DecidedAt, &q.CreatedAt, &q.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	q.Status = entity.QuotationStatus(status)
	q.Notes = derefString(notes)
	q.RejectionReason = derefString(reason)
	q.RevisionOf = derefString(revisionOf)
	return &q, nil
}

// Create inserta la cabecera y los ítems. Llamar dentro de una transacción.
func (r *QuotationRepo) Create(ctx context.Context, q *entity.Quotation) error {
	query := `INSERT INTO quotations (` + quotationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err := r.q.Exec(ctx, query,
		q.ID, q.CompanyID, q.Number, q.CustomerID, q.OwnerID, string(q.Status), q.Currency, q.ValidUntil,
		q.Subtotal, q.DiscountAmount, q.TaxAmount, q.GrandTotal, q.PriceScale, q.DefaultTaxRatePercent,
		nullString(q.Notes), nullString(q.RejectionReason), q.PublicToken, nullString(q.RevisionOf), q.Version, q.SentAt, q.ViewedAt, q.DecidedAt, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("insert quotation: %w", err)
	}
	return r.insertItems(ctx, q)
}

func (r *QuotationRepo) insertItems(ctx context.Context, q *entity.Quotation) error {
	query := `
		INSERT INTO quotation_items (id, quotation_id, product_id, description, quantity, unit_price,
			discount_percent, tax_rate_percent, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i := range q.Items {
		it := &q.Items[i]
		it.QuotationID = q.ID
		it.Position = i + 1
		_, err := r.q.Exec(ctx, query,
			it.ID, it.QuotationID, nullString(it.ProductID), it.Description, it.Quantity, it.UnitPrice,
			it.DiscountPercent, it.TaxRatePercent, it.Position,
		)
		if err != nil {
			return fmt.Errorf("insert quotation item %d: %w", it.Position, err)
		}
	}
	return nil
}

// GetByID obtiene la cotización con sus ítems.
func (r *QuotationRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations WHERE company_id = $1 AND id = $2`
	return r.getWithItems(ctx, query, companyID, id)
}

// GetByPublicToken obtiene la cotización por el token del enlace público.
func (r *QuotationRepo) GetByPublicToken(ctx context.Context, token string) (*entity.Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations WHERE public_token = $1`
	return r.getWithItems(ctx, query, token)
}

func (r *QuotationRepo) getWithItems(ctx context.Context, query string, args ...any) (*entity.Quotation, error) {
	q, err := scanQuotation(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	items, err := r.loadItems(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

func (r *QuotationRepo) loadItems(ctx context.Context, quotationID string) ([]entity.LineItem, error) {
	query := `
		SELECT id, quotation_id, product_id, description, quantity, unit_price, discount_percent, tax_rate_percent, position
		FROM quotation_items WHERE quotation_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, quotationID)
	if err != nil {
		return nil, fmt.Errorf("list quotation items: %w", err)
	}
	defer rows.Close()
	var items []entity.LineItem
	for rows.Next() {
		var it entity.LineItem
		var productID *string
		if err := rows.Scan(
			&it.ID, &it.QuotationID, &productID, &it.Description, &it.Quantity, &it.UnitPrice,
			&it.DiscountPercent, &it.TaxRatePercent, &it.Position,
		); err != nil {
			return nil, fmt.Errorf("scan quotation item: %w", err)
		}
		it.ProductID = derefString(productID)
		items = append(items, it)
	}
	return items, rows.Err()
}

// List lista cabeceras (sin ítems) y el total para paginar.
func (r *QuotationRepo) List(ctx context.Context, companyID string, f repository.QuotationFilter) ([]*entity.Quotation, int, error) {
	query := `
		SELECT ` + quotationColumns + `, COUNT(*) OVER() AS total
		FROM quotations
		WHERE company_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR customer_id::text = $3)
		  AND ($4 = '' OR owner_id::text = $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`
	rows, err := r.q.Query(ctx, query, companyID, string(f.Status), f.CustomerID, f.OwnerID, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list quotations: %w", err)
	}
	defer rows.Close()
	var (
		list  []*entity.Quotation
		total int
	)
	for rows.Next() {
		q, err := scanQuotation(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan quotation: %w", err)
		}
		list = append(list, q)
	}
	return list, total, rows.Err()
}

// Update escribe el agregado solo si la versión en DB sigue siendo q.Version.
// Si otro escritor ganó devuelve domain.ErrVersionConflict; si no, incrementa q.Version.
func (r *QuotationRepo) Update(ctx context.Context, q *entity.Quotation) error {
	query := `
		UPDATE quotations SET
			customer_id = $4, status = $5, currency = $6, valid_until = $7,
			subtotal = $8, discount_amount = $9, tax_amount = $10, grand_total = $11,
			price_scale = $12, default_tax_rate_percent = $13,
			notes = $14, rejection_reason = $15, sent_at = $16, viewed_at = $17, decided_at = $18,
			updated_at = $19, version = version + 1
		WHERE company_id = $1 AND id = $2 AND version = $3`
	tag, err := r.q.Exec(ctx, query,
		q.CompanyID, q.ID, q.Version,
		q.CustomerID, string(q.Status), q.Currency, q.ValidUntil,
		q.Subtotal, q.DiscountAmount, q.TaxAmount, q.GrandTotal,
		q.PriceScale, q.DefaultTaxRatePercent,
		nullString(q.Notes), nullString(q.RejectionReason), q.SentAt, q.ViewedAt, q.DecidedAt,
		q.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("update quotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	q.Version++
	return nil
}

// ReplaceItems borra e inserta los ítems de nuevo.
func (r *QuotationRepo) ReplaceItems(ctx context.Context, q *entity.Quotation) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM quotation_items WHERE quotation_id = $1`, q.ID); err != nil {
		return fmt.Errorf("delete quotation items: %w", err)
	}
	return r.insertItems(ctx, q)
}

// NextNumber incrementa el consecutivo (company, año) de forma atómica.
func (r *QuotationRepo) NextNumber(ctx context.Context, companyID string, year int) (int64, error) {
	query := `
		INSERT INTO quotation_sequences (company_id, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, year) DO UPDATE SET last_value = quotation_sequences.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, companyID, year).Scan(&n); err != nil {
		return 0, fmt.Errorf("next quotation number: %w", err)
	}
	return n, nil
}

// ListOverdue cotizaciones enviadas o vistas cuya vigencia ya pasó, omitiendo exclude.
func (r *QuotationRepo) ListOverdue(ctx context.Context, now time.Time, limit int, exclude []string) ([]*entity.Quotation, error) {
	if exclude == nil {
		exclude = []string{} // NULL haría falsa la condición para todas las filas
	}
	query := `
		SELECT ` + quotationColumns + `
		FROM quotations
		WHERE status IN ('sent', 'viewed') AND valid_until < $1
		  AND NOT (id::text = ANY($3::text[]))
		ORDER BY valid_until, id
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, now, limit, exclude)
	if err != nil {
		return nil, fmt.Errorf("list overdue quotations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quotation: %w", err)
		}
		list = append(list, q)
	}
	return list, rows.Err()
}
