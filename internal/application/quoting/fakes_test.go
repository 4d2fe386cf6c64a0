package quoting

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// memQuotes repositorio en memoria con compare-and-swap sobre Version.
type memQuotes struct {
	mu      sync.Mutex
	rows    map[string]*entity.Quotation
	seq     map[string]int64
	updates int
	// beforeUpdate se ejecuta (sin lock) antes de cada Update; simula otro escritor.
	beforeUpdate func()
	// failUpdate hace fallar el Update de esas cotizaciones.
	failUpdate map[string]error
}

func newMemQuotes() *memQuotes {
	return &memQuotes{rows: map[string]*entity.Quotation{}, seq: map[string]int64{}}
}

func cloneQuotation(q *entity.Quotation) *entity.Quotation {
	c := *q
	c.Items = append([]entity.LineItem(nil), q.Items...)
	return &c
}

func (m *memQuotes) Create(_ context.Context, q *entity.Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range q.Items {
		q.Items[i].QuotationID = q.ID
	}
	m.rows[q.ID] = cloneQuotation(q)
	return nil
}

func (m *memQuotes) GetByID(_ context.Context, companyID, id string) (*entity.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rows[id]
	if !ok || q.CompanyID != companyID {
		return nil, nil
	}
	return cloneQuotation(q), nil
}

func (m *memQuotes) GetByPublicToken(_ context.Context, token string) (*entity.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.rows {
		if q.PublicToken == token {
			return cloneQuotation(q), nil
		}
	}
	return nil, nil
}

func (m *memQuotes) List(_ context.Context, companyID string, f repository.QuotationFilter) ([]*entity.Quotation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Quotation
	for _, q := range m.rows {
		if q.CompanyID == companyID && (f.Status == "" || q.Status == f.Status) {
			out = append(out, cloneQuotation(q))
		}
	}
	return out, len(out), nil
}

func (m *memQuotes) Update(_ context.Context, q *entity.Quotation) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failUpdate[q.ID]; err != nil {
		return err
	}
	cur, ok := m.rows[q.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != q.Version {
		return domain.ErrVersionConflict
	}
	q.Version++
	m.rows[q.ID] = cloneQuotation(q)
	m.updates++
	return nil
}

func (m *memQuotes) ReplaceItems(_ context.Context, q *entity.Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[q.ID].Items = append([]entity.LineItem(nil), q.Items...)
	return nil
}

func (m *memQuotes) NextNumber(_ context.Context, companyID string, _ int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq[companyID]++
	return m.seq[companyID], nil
}

func (m *memQuotes) ListOverdue(_ context.Context, now time.Time, limit int, exclude []string) ([]*entity.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Quotation
	for _, q := range m.rows {
		if slices.Contains(exclude, q.ID) {
			continue
		}
		if (q.Status == entity.QuotationStatusSent || q.Status == entity.QuotationStatusViewed) && q.ValidUntil.Before(now) {
			out = append(out, cloneQuotation(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ValidUntil.Equal(out[j].ValidUntil) {
			return out[i].ValidUntil.Before(out[j].ValidUntil)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// bump simula una escritura concurrente que solo incrementa la versión.
func (m *memQuotes) bump(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id].Version++
}

type memOutbox struct {
	mu   sync.Mutex
	msgs []*entity.OutboxMessage
	keys map[string]bool
}

func (o *memOutbox) Enqueue(_ context.Context, msgs []*entity.OutboxMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.keys == nil {
		o.keys = map[string]bool{}
	}
	for _, m := range msgs {
		if o.keys[m.IdempotencyKey] {
			continue
		}
		o.keys[m.IdempotencyKey] = true
		o.msgs = append(o.msgs, m)
	}
	return nil
}

func (o *memOutbox) Claim(context.Context, string, int, time.Time, time.Time) ([]*entity.OutboxMessage, error) {
	return nil, nil
}
func (o *memOutbox) MarkSent(context.Context, string, time.Time) error { return nil }
func (o *memOutbox) MarkFailed(context.Context, string, string, *time.Time, time.Time) error {
	return nil
}

func (o *memOutbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs)
}

type memTx struct {
	quotes *memQuotes
	outbox *memOutbox
}

func (t memTx) RunQuotation(_ context.Context, fn func(repository.QuotationRepository, repository.OutboxRepository) error) error {
	return fn(t.quotes, t.outbox)
}

type memCustomers struct{ rows map[string]*entity.Customer }

func (c memCustomers) Create(context.Context, *entity.Customer) error { return nil }
func (c memCustomers) GetByID(_ context.Context, companyID, id string) (*entity.Customer, error) {
	if cu, ok := c.rows[id]; ok && cu.CompanyID == companyID {
		return cu, nil
	}
	return nil, nil
}
func (c memCustomers) GetByCompanyAndTaxID(context.Context, string, string) (*entity.Customer, error) {
	return nil, nil
}
func (c memCustomers) ListByCompany(context.Context, string, string, int, int) ([]*entity.Customer, error) {
	return nil, nil
}
func (c memCustomers) Update(context.Context, *entity.Customer) error { return nil }

type memProducts struct{ rows map[string]*entity.Product }

func (p memProducts) Create(context.Context, *entity.Product) error { return nil }
func (p memProducts) GetByID(_ context.Context, _, id string) (*entity.Product, error) {
	return p.rows[id], nil
}
func (p memProducts) GetBySKU(context.Context, string, string) (*entity.Product, error) {
	return nil, nil
}
func (p memProducts) GetByIDs(_ context.Context, companyID string, ids []string) (map[string]*entity.Product, error) {
	out := map[string]*entity.Product{}
	for _, id := range ids {
		if pr, ok := p.rows[id]; ok && pr.CompanyID == companyID {
			out[id] = pr
		}
	}
	return out, nil
}
func (p memProducts) ListByCompany(context.Context, string, int, int) ([]*entity.Product, error) {
	return nil, nil
}
func (p memProducts) Update(context.Context, *entity.Product) error { return nil }

type memCompanies struct{ rows map[string]*entity.Company }

func (c memCompanies) Create(context.Context, *entity.Company) error { return nil }
func (c memCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	return c.rows[id], nil
}
func (c memCompanies) GetByNIT(context.Context, string) (*entity.Company, error) { return nil, nil }
func (c memCompanies) Update(context.Context, *entity.Company) error           { return nil }
func (c memCompanies) List(context.Context, int, int) ([]*entity.Company, error) {
	return nil, nil
}
func (c memCompanies) HasActiveModule(context.Context, string, string) (bool, error) {
	return true, nil
}
func (c memCompanies) CreateModule(context.Context, *entity.CompanyModule) error { return nil }

type memSettings struct {
	mu       sync.Mutex
	settings map[string]*entity.CompanySettings
}

func (s *memSettings) GetSettings(_ context.Context, companyID string) (*entity.CompanySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.settings[companyID]; ok {
		c := *cur
		return &c, nil
	}
	return nil, nil
}
func (s *memSettings) UpsertSettings(_ context.Context, in *entity.CompanySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *in
	s.settings[in.CompanyID] = &c
	return nil
}
func (s *memSettings) GetBranding(context.Context, string) (*entity.CompanyBranding, error) {
	return nil, nil
}
func (s *memSettings) UpsertBranding(context.Context, *entity.CompanyBranding) error { return nil }

// staticNotify canales fijos: email al cliente, email e in_app al vendedor.
type staticNotify struct{}

func (staticNotify) ConfigFor(_ context.Context, q *entity.Quotation, customer *entity.Customer) (quotation.NotifyConfig, error) {
	cfg := quotation.NotifyConfig{
		ClientChannels: []entity.Channel{entity.ChannelEmail},
		OwnerChannels:  []entity.Channel{entity.ChannelEmail, entity.ChannelInApp},
		Owner:          quotation.Contact{ID: q.OwnerID, Name: "Ana", Email: "ana@cotizador.test"},
	}
	if customer != nil {
		cfg.Client = quotation.Contact{ID: customer.ID, Name: customer.Name, Email: customer.Email}
	}
	return cfg, nil
}

type stubPDF struct {
	calls int
	last  Document
}

func (s *stubPDF) RenderQuotation(doc Document) ([]byte, error) {
	s.calls++
	s.last = doc
	return []byte("%PDF-" + doc.Quotation.Number), nil
}

type stubUBL struct{}

func (stubUBL) ExportQuotation(doc Document) ([]byte, string, error) {
	return []byte("<Quotation/>"), "digest-" + doc.Quotation.Number, nil
}
