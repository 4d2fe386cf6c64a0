package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/application/quoting"
	"github.com/jhoicas/Cotizador-api/internal/application/usecase"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
	pkgjwt "github.com/jhoicas/Cotizador-api/pkg/jwt"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

const (
	apiSecret   = "secreto-de-pruebas"
	apiIssuer   = "cotizador-test"
	apiCompany  = "9c1d2e3f-0000-4000-8000-000000000001"
	apiUser     = "9c1d2e3f-0000-4000-8000-000000000002"
	apiCustomer = "9c1d2e3f-0000-4000-8000-000000000003"
)

// ── repositorios en memoria ──────────────────────────────────────────────────

type apiQuotes struct {
	mu   sync.Mutex
	rows map[string]*entity.Quotation
	seq  int64
}

func copyQuotation(q *entity.Quotation) *entity.Quotation {
	c := *q
	c.Items = append([]entity.LineItem(nil), q.Items...)
	return &c
}

func (m *apiQuotes) Create(_ context.Context, q *entity.Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[q.ID] = copyQuotation(q)
	return nil
}

func (m *apiQuotes) GetByID(_ context.Context, companyID, id string) (*entity.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.rows[id]; ok && q.CompanyID == companyID {
		return copyQuotation(q), nil
	}
	return nil, nil
}

func (m *apiQuotes) GetByPublicToken(_ context.Context, token string) (*entity.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.rows {
		if q.PublicToken == token {
			return copyQuotation(q), nil
		}
	}
	return nil, nil
}

func (m *apiQuotes) List(context.Context, string, repository.QuotationFilter) ([]*entity.Quotation, int, error) {
	return nil, 0, nil
}

func (m *apiQuotes) Update(_ context.Context, q *entity.Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[q.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != q.Version {
		return domain.ErrVersionConflict
	}
	q.Version++
	m.rows[q.ID] = copyQuotation(q)
	return nil
}

func (m *apiQuotes) ReplaceItems(_ context.Context, q *entity.Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[q.ID].Items = append([]entity.LineItem(nil), q.Items...)
	return nil
}

func (m *apiQuotes) NextNumber(context.Context, string, int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *apiQuotes) ListOverdue(context.Context, time.Time, int, []string) ([]*entity.Quotation, error) {
	return nil, nil
}

type apiOutbox struct{}

func (apiOutbox) Enqueue(context.Context, []*entity.OutboxMessage) error { return nil }
func (apiOutbox) Claim(context.Context, string, int, time.Time, time.Time) ([]*entity.OutboxMessage, error) {
	return nil, nil
}
func (apiOutbox) MarkSent(context.Context, string, time.Time) error { return nil }
func (apiOutbox) MarkFailed(context.Context, string, string, *time.Time, time.Time) error {
	return nil
}

type apiTx struct{ quotes *apiQuotes }

func (t apiTx) RunQuotation(_ context.Context, fn func(repository.QuotationRepository, repository.OutboxRepository) error) error {
	return fn(t.quotes, apiOutbox{})
}

type apiCustomers struct{}

func (apiCustomers) Create(context.Context, *entity.Customer) error { return nil }
func (apiCustomers) GetByID(_ context.Context, companyID, id string) (*entity.Customer, error) {
	if companyID == apiCompany && id == apiCustomer {
		return &entity.Customer{ID: apiCustomer, CompanyID: apiCompany, Name: "ACME", Email: "compras@acme.test"}, nil
	}
	return nil, nil
}
func (apiCustomers) GetByCompanyAndTaxID(context.Context, string, string) (*entity.Customer, error) {
	return nil, nil
}
func (apiCustomers) ListByCompany(context.Context, string, string, int, int) ([]*entity.Customer, error) {
	return nil, nil
}
func (apiCustomers) Update(context.Context, *entity.Customer) error { return nil }

type apiProducts struct{}

func (apiProducts) Create(context.Context, *entity.Product) error { return nil }
func (apiProducts) GetByID(context.Context, string, string) (*entity.Product, error) {
	return nil, nil
}
func (apiProducts) GetBySKU(context.Context, string, string) (*entity.Product, error) {
	return nil, nil
}
func (apiProducts) GetByIDs(context.Context, string, []string) (map[string]*entity.Product, error) {
	return map[string]*entity.Product{}, nil
}
func (apiProducts) ListByCompany(context.Context, string, int, int) ([]*entity.Product, error) {
	return nil, nil
}
func (apiProducts) Update(context.Context, *entity.Product) error { return nil }

type apiCompanies struct{}

func (apiCompanies) Create(context.Context, *entity.Company) error { return nil }
func (apiCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	return &entity.Company{ID: id, Name: "Cotizador SAS"}, nil
}
func (apiCompanies) GetByNIT(context.Context, string) (*entity.Company, error) { return nil, nil }
func (apiCompanies) Update(context.Context, *entity.Company) error           { return nil }
func (apiCompanies) List(context.Context, int, int) ([]*entity.Company, error) {
	return nil, nil
}
func (apiCompanies) HasActiveModule(context.Context, string, string) (bool, error) {
	return true, nil
}
func (apiCompanies) CreateModule(context.Context, *entity.CompanyModule) error { return nil }

type apiSettings struct {
	mu  sync.Mutex
	cur *entity.CompanySettings
}

func (s *apiSettings) GetSettings(context.Context, string) (*entity.CompanySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil, nil
	}
	c := *s.cur
	return &c, nil
}
func (s *apiSettings) UpsertSettings(_ context.Context, in *entity.CompanySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *in
	s.cur = &c
	return nil
}
func (s *apiSettings) GetBranding(context.Context, string) (*entity.CompanyBranding, error) {
	return nil, nil
}
func (s *apiSettings) UpsertBranding(context.Context, *entity.CompanyBranding) error { return nil }

// silentNotify sin canales: las transiciones no encolan mensajes.
type silentNotify struct{}

func (silentNotify) ConfigFor(context.Context, *entity.Quotation, *entity.Customer) (quotation.NotifyConfig, error) {
	return quotation.NotifyConfig{}, nil
}

// ── app ──────────────────────────────────────────────────────────────────────

type quotationAPI struct {
	app      *fiber.App
	settings *apiSettings
	token    string
}

func newQuotationAPI(t *testing.T) *quotationAPI {
	t.Helper()
	quotes := &apiQuotes{rows: map[string]*entity.Quotation{}}
	settings := &apiSettings{}
	uc := quoting.NewQuotationUseCase(
		apiTx{quotes: quotes}, quotes, apiCustomers{}, apiProducts{}, apiCompanies{}, settings,
		silentNotify{}, nil, nil, quoting.Config{}, logger.Nop(),
	)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Router(app, RouterDeps{
		QuotationUC:   uc,
		ModuleService: usecase.NewModuleService(apiCompanies{}),
		JWTSecret:     apiSecret,
		JWTIssuer:     apiIssuer,
	})
	tok, err := pkgjwt.Generate(apiSecret, apiUser, apiCompany, RoleVendedor, apiIssuer, 60)
	require.NoError(t, err)
	return &quotationAPI{app: app, settings: settings, token: "Bearer " + tok}
}

func (a *quotationAPI) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.HasPrefix(path, "/api/quotations") {
		req.Header.Set("Authorization", a.token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (a *quotationAPI) create(t *testing.T) dto.QuotationResponse {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/quotations",
		`{"customer_id":"`+apiCustomer+`","items":[{"description":"Soporte","quantity":1,"unit_price":"100"}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	defer resp.Body.Close()
	var q dto.QuotationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&q))
	return q
}

func expectError(t *testing.T, resp *http.Response, status int, code string) dto.ErrorResponse {
	t.Helper()
	assert.Equal(t, status, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, code, body.Code, body.Message)
	return body
}

func TestQuotationRoutes_ErroresDelMotor(t *testing.T) {
	api := newQuotationAPI(t)
	q := api.create(t)
	base := "/api/quotations/" + q.ID

	expectError(t, api.do(t, http.MethodPost, base+"/accept", ""), http.StatusConflict, "ILLEGAL_TRANSITION")
	expectError(t, api.do(t, http.MethodPut, base, `{"version":7,"notes":"x"}`), http.StatusConflict, "VERSION_CONFLICT")

	// la empresa cambia su política: el borrador queda con totales viejos
	require.NoError(t, api.settings.UpsertSettings(context.Background(), &entity.CompanySettings{
		CompanyID: apiCompany, Currency: "USD", MinorUnits: 2, DefaultTaxRatePercent: decimalPtr("19"),
	}))
	body := expectError(t, api.do(t, http.MethodPost, base+"/send", ""), http.StatusUnprocessableEntity, "VALIDATION_FAILED")
	require.NotEmpty(t, body.Details)
	assert.Equal(t, "STALE_TOTALS", body.Details[0].Code)

	resp := api.do(t, http.MethodPut, base, `{"version":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = api.do(t, http.MethodPost, base+"/send", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	expectError(t, api.do(t, http.MethodPut, base, `{"version":3}`), http.StatusConflict, "QUOTATION_LOCKED")
	expectError(t, api.do(t, http.MethodPost, base+"/expire", ""), http.StatusConflict, "NOT_YET_EXPIRED")

	// el cliente abre el enlace: viewed
	resp = api.do(t, http.MethodGet, "/api/public/quotations/"+q.PublicToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	expectError(t, api.do(t, http.MethodPost, base+"/reject", `{"reason":"  "}`), http.StatusBadRequest, "MISSING_REASON")
	resp = api.do(t, http.MethodPost, base+"/reject", `{"reason":"Presupuesto insuficiente"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	expectError(t, api.do(t, http.MethodPost, base+"/cancel", ""), http.StatusConflict, "TERMINAL_STATE")
	expectError(t, api.do(t, http.MethodPost, "/api/quotations/9c1d2e3f-0000-4000-8000-00000000ffff/send", ""), http.StatusNotFound, "NOT_FOUND")
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
