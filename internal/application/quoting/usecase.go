// Package quoting orquesta el motor de cotizaciones con la persistencia y el outbox.
package quoting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

// Config parámetros de negocio por defecto.
type Config struct {
	MaxRetries          int // intentos ante conflicto de versión en transiciones
	DefaultValidityDays int
	DefaultCurrency     string
	DefaultNumberPrefix string
}

// QuotationUseCase casos de uso de cotizaciones.
type QuotationUseCase struct {
	tx        TxRunner
	quotes    repository.QuotationRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	companies repository.CompanyRepository
	settings  repository.CompanySettingsRepository
	notify    NotifyConfigProvider
	pdf       PDFRenderer
	ubl       UBLExporter
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// NewQuotationUseCase construye el caso de uso inyectando todas sus dependencias.
func NewQuotationUseCase(
	tx TxRunner,
	quotes repository.QuotationRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	companies repository.CompanyRepository,
	settings repository.CompanySettingsRepository,
	notify NotifyConfigProvider,
	pdf PDFRenderer,
	ubl UBLExporter,
	cfg Config,
	log *logger.Logger,
) *QuotationUseCase {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.DefaultValidityDays <= 0 {
		cfg.DefaultValidityDays = 30
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	if cfg.DefaultNumberPrefix == "" {
		cfg.DefaultNumberPrefix = "COT"
	}
	return &QuotationUseCase{
		tx:        tx,
		quotes:    quotes,
		customers: customers,
		products:  products,
		companies: companies,
		settings:  settings,
		notify:    notify,
		pdf:       pdf,
		ubl:       ubl,
		cfg:       cfg,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FormatNumber consecutivo visible: PREFIJO-AÑO-000001.
func FormatNumber(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, n)
}

// Create crea una cotización en borrador con totales calculados y número asignado.
func (uc *QuotationUseCase) Create(ctx context.Context, companyID, ownerID string, in dto.CreateQuotationRequest) (*dto.QuotationResponse, error) {
	customer, err := uc.customers.GetByID(ctx, companyID, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: el cliente no existe en la empresa", domain.ErrInvalidInput)
	}
	settings, err := uc.loadSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	items, err := uc.buildItems(ctx, companyID, in.Items)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	validUntil := now.AddDate(0, 0, settings.DefaultValidityDays)
	if in.ValidUntil != nil {
		validUntil = in.ValidUntil.UTC()
	}
	if !validUntil.After(now) {
		return nil, fmt.Errorf("%w: valid_until debe ser una fecha futura", domain.ErrInvalidInput)
	}

	q := &entity.Quotation{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		CustomerID:  customer.ID,
		OwnerID:     ownerID,
		Items:       items,
		Status:      entity.QuotationStatusDraft,
		Currency:    settings.Currency,
		ValidUntil:  validUntil,
		Notes:       strings.TrimSpace(in.Notes),
		PublicToken: newPublicToken(),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	totals, err := quotation.Recompute(q, quotation.PolicyFromSettings(settings))
	if err != nil {
		return nil, err
	}
	if err := uc.insert(ctx, q, settings.NumberPrefix); err != nil {
		return nil, err
	}
	return toQuotationResponse(q, &totals), nil
}

func (uc *QuotationUseCase) insert(ctx context.Context, q *entity.Quotation, prefix string) error {
	return uc.tx.RunQuotation(ctx, func(quoteRepo repository.QuotationRepository, _ repository.OutboxRepository) error {
		year := q.CreatedAt.Year()
		n, err := quoteRepo.NextNumber(ctx, q.CompanyID, year)
		if err != nil {
			return err
		}
		q.Number = FormatNumber(prefix, year, n)
		return quoteRepo.Create(ctx, q)
	})
}

// UpdateDraft modifica un borrador. in.Version debe coincidir con la versión guardada.
func (uc *QuotationUseCase) UpdateDraft(ctx context.Context, companyID, id string, in dto.UpdateQuotationRequest) (*dto.QuotationResponse, error) {
	q, err := uc.mustGet(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !q.IsDraft() {
		return nil, domain.ErrQuotationLocked
	}
	if in.Version != q.Version {
		return nil, domain.ErrVersionConflict
	}
	settings, err := uc.loadSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if in.CustomerID != nil && *in.CustomerID != q.CustomerID {
		customer, err := uc.customers.GetByID(ctx, companyID, *in.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, fmt.Errorf("%w: el cliente no existe en la empresa", domain.ErrInvalidInput)
		}
		q.CustomerID = customer.ID
	}
	if in.ValidUntil != nil {
		q.ValidUntil = in.ValidUntil.UTC()
	}
	if in.Notes != nil {
		q.Notes = strings.TrimSpace(*in.Notes)
	}
	replaceItems := in.Items != nil
	if replaceItems {
		items, err := uc.buildItems(ctx, companyID, in.Items)
		if err != nil {
			return nil, err
		}
		q.Items = items
	}
	// los totales se recalculan siempre: la política de la empresa pudo cambiar
	totals, err := quotation.Recompute(q, quotation.PolicyFromSettings(settings))
	if err != nil {
		return nil, err
	}
	q.UpdatedAt = uc.now()

	err = uc.tx.RunQuotation(ctx, func(quoteRepo repository.QuotationRepository, _ repository.OutboxRepository) error {
		if err := quoteRepo.Update(ctx, q); err != nil {
			return err
		}
		if replaceItems {
			return quoteRepo.ReplaceItems(ctx, q)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toQuotationResponse(q, &totals), nil
}

// Get obtiene una cotización con el desglose por línea.
func (uc *QuotationUseCase) Get(ctx context.Context, companyID, id string) (*dto.QuotationResponse, error) {
	q, err := uc.mustGet(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return uc.respond(q), nil
}

// List lista cotizaciones de la empresa.
func (uc *QuotationUseCase) List(ctx context.Context, companyID string, status, customerID string, page dto.PageRequest) (*dto.QuotationListResponse, error) {
	page.DefaultPage()
	st := entity.QuotationStatus(status)
	if st != "" && !st.Valid() {
		return nil, fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, status)
	}
	list, total, err := uc.quotes.List(ctx, companyID, repository.QuotationFilter{
		Status:     st,
		CustomerID: customerID,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.QuotationResponse, 0, len(list))
	for _, q := range list {
		items = append(items, *toQuotationResponse(q, nil))
	}
	return &dto.QuotationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// Revise crea un borrador nuevo con los ítems de una cotización ya emitida.
func (uc *QuotationUseCase) Revise(ctx context.Context, companyID, ownerID, id string) (*dto.QuotationResponse, error) {
	orig, err := uc.mustGet(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if orig.IsDraft() {
		return nil, fmt.Errorf("%w: un borrador se edita, no se revisa", domain.ErrConflict)
	}
	settings, err := uc.loadSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	items := orig.CloneItems()
	for i := range items {
		items[i].ID = uuid.New().String()
	}
	q := &entity.Quotation{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		CustomerID:  orig.CustomerID,
		OwnerID:     ownerID,
		Items:       items,
		Status:      entity.QuotationStatusDraft,
		Currency:    orig.Currency,
		ValidUntil:  now.AddDate(0, 0, settings.DefaultValidityDays),
		Notes:       orig.Notes,
		PublicToken: newPublicToken(),
		RevisionOf:  orig.ID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	totals, err := quotation.Recompute(q, quotation.PolicyFromSettings(settings))
	if err != nil {
		return nil, err
	}
	if err := uc.insert(ctx, q, settings.NumberPrefix); err != nil {
		return nil, err
	}
	return toQuotationResponse(q, &totals), nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (uc *QuotationUseCase) mustGet(ctx context.Context, companyID, id string) (*entity.Quotation, error) {
	q, err := uc.quotes.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, domain.ErrNotFound
	}
	return q, nil
}

// loadSettings configuración de la empresa o los valores por defecto si no tiene.
func (uc *QuotationUseCase) loadSettings(ctx context.Context, companyID string) (*entity.CompanySettings, error) {
	s, err := uc.settings.GetSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &entity.CompanySettings{CompanyID: companyID, MinorUnits: 2}
	}
	if s.Currency == "" {
		s.Currency = uc.cfg.DefaultCurrency
	}
	if s.DefaultValidityDays <= 0 {
		s.DefaultValidityDays = uc.cfg.DefaultValidityDays
	}
	if s.NumberPrefix == "" {
		s.NumberPrefix = uc.cfg.DefaultNumberPrefix
	}
	return s, nil
}

// buildItems convierte la entrada en líneas, completando desde el catálogo lo que no venga.
func (uc *QuotationUseCase) buildItems(ctx context.Context, companyID string, reqs []dto.LineItemRequest) ([]entity.LineItem, error) {
	if len(reqs) == 0 {
		return nil, &quotation.LineItemError{Index: -1, Field: "items", Reason: "la lista de líneas está vacía"}
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if r.ProductID != "" {
			ids = append(ids, r.ProductID)
		}
	}
	products := map[string]*entity.Product{}
	if len(ids) > 0 {
		found, err := uc.products.GetByIDs(ctx, companyID, ids)
		if err != nil {
			return nil, err
		}
		products = found
	}

	items := make([]entity.LineItem, 0, len(reqs))
	for i, r := range reqs {
		it := entity.LineItem{
			ID:              uuid.New().String(),
			ProductID:       r.ProductID,
			Description:     strings.TrimSpace(r.Description),
			Quantity:        r.Quantity,
			DiscountPercent: r.DiscountPercent,
			TaxRatePercent:  r.TaxRatePercent,
			Position:        i + 1,
		}
		if r.ProductID != "" {
			p := products[r.ProductID]
			if p == nil {
				return nil, &quotation.LineItemError{Index: i, Field: "product_id", Reason: "no existe en el catálogo"}
			}
			if it.Description == "" {
				it.Description = p.Name
			}
			it.UnitPrice = p.UnitPrice
			if it.TaxRatePercent == nil {
				it.TaxRatePercent = p.TaxRatePercent
			}
		}
		if r.UnitPrice != nil {
			it.UnitPrice = *r.UnitPrice
		} else if r.ProductID == "" {
			return nil, &quotation.LineItemError{Index: i, Field: "unit_price", Reason: "es obligatorio sin producto"}
		}
		items = append(items, it)
	}
	return items, nil
}

// respond arma la respuesta con el desglose calculado bajo la política guardada en la
// cotización, la misma que produjo sus totales.
func (uc *QuotationUseCase) respond(q *entity.Quotation) *dto.QuotationResponse {
	var totals *quotation.Totals
	if t, err := quotation.ComputeTotals(q.Items, quotation.PolicyOf(q)); err == nil {
		totals = &t
	}
	return toQuotationResponse(q, totals)
}

func newPublicToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
