package quoting

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

const (
	companyID     = "0b6f8f5e-1f4e-4c59-9a0e-000000000001"
	customerID    = "0b6f8f5e-1f4e-4c59-9a0e-000000000002"
	ownerID       = "0b6f8f5e-1f4e-4c59-9a0e-000000000003"
	productID     = "0b6f8f5e-1f4e-4c59-9a0e-000000000004"
	// cliente sin email: con las preferencias por defecto no tiene canal
	unreachableID = "0b6f8f5e-1f4e-4c59-9a0e-000000000005"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fixture struct {
	uc       *QuotationUseCase
	quotes   *memQuotes
	outbox   *memOutbox
	settings *memSettings
	pdf      *stubPDF
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		quotes:   newMemQuotes(),
		outbox:   &memOutbox{},
		settings: &memSettings{settings: map[string]*entity.CompanySettings{}},
		pdf:      &stubPDF{},
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	customers := memCustomers{rows: map[string]*entity.Customer{
		customerID:    {ID: customerID, CompanyID: companyID, Name: "ACME", Email: "compras@acme.test"},
		unreachableID: {ID: unreachableID, CompanyID: companyID, Name: "Sin Correo Ltda"},
	}}
	products := memProducts{rows: map[string]*entity.Product{
		productID: {ID: productID, CompanyID: companyID, Name: "Licencia anual", UnitPrice: dec("50"), TaxRatePercent: decp("19"), Active: true},
	}}
	companies := memCompanies{rows: map[string]*entity.Company{
		companyID: {ID: companyID, Name: "Cotizador SAS"},
	}}
	f.uc = NewQuotationUseCase(
		memTx{quotes: f.quotes, outbox: f.outbox},
		f.quotes, customers, products, companies, f.settings,
		staticNotify{}, f.pdf, stubUBL{},
		Config{},
		logger.Nop(),
	)
	f.uc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) create(t *testing.T, items ...dto.LineItemRequest) *dto.QuotationResponse {
	t.Helper()
	if len(items) == 0 {
		items = []dto.LineItemRequest{{Description: "Consultoría", Quantity: 1, UnitPrice: decp("100"), DiscountPercent: decp("10"), TaxRatePercent: decp("20")}}
	}
	resp, err := f.uc.Create(context.Background(), companyID, ownerID, dto.CreateQuotationRequest{CustomerID: customerID, Items: items})
	require.NoError(t, err)
	return resp
}

func TestCreate_CalculaTotalesYNumera(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t)

	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, "COT-2026-000001", resp.Number)
	assert.Equal(t, int64(1), resp.Version)
	assert.Equal(t, "USD", resp.Currency)
	assert.True(t, resp.GrandTotal.Equal(dec("108")), "total %s", resp.GrandTotal)
	assert.Equal(t, f.now.AddDate(0, 0, 30), resp.ValidUntil)
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].DiscountAmount.Equal(dec("10")))
	assert.Contains(t, resp.AllowedActions, "send")
	assert.Contains(t, resp.AllowedActions, "edit")
	assert.NotEmpty(t, resp.PublicToken)

	second := f.create(t)
	assert.Equal(t, "COT-2026-000002", second.Number)
}

func TestCreate_CompletaDesdeCatalogo(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, dto.LineItemRequest{ProductID: productID, Quantity: 2})

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Licencia anual", resp.Items[0].Description)
	assert.True(t, resp.Subtotal.Equal(dec("100")))
	assert.True(t, resp.TaxAmount.Equal(dec("19")))
	assert.True(t, resp.GrandTotal.Equal(dec("119")))
}

func TestCreate_Errores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, companyID, ownerID, dto.CreateQuotationRequest{
		CustomerID: "0b6f8f5e-1f4e-4c59-9a0e-0000000000ff",
		Items:      []dto.LineItemRequest{{Description: "x", Quantity: 1, UnitPrice: decp("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Create(ctx, companyID, ownerID, dto.CreateQuotationRequest{
		CustomerID: customerID,
		Items:      []dto.LineItemRequest{{Description: "sin precio", Quantity: 1}},
	})
	assert.ErrorIs(t, err, quotation.ErrInvalidLineItem)

	past := f.now.Add(-time.Hour)
	_, err = f.uc.Create(ctx, companyID, ownerID, dto.CreateQuotationRequest{
		CustomerID: customerID,
		ValidUntil: &past,
		Items:      []dto.LineItemRequest{{Description: "x", Quantity: 1, UnitPrice: decp("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateDraft_ControlDeVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.create(t)

	notes := "con instalación"
	_, err := f.uc.UpdateDraft(ctx, companyID, q.ID, dto.UpdateQuotationRequest{Version: 7, Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	updated, err := f.uc.UpdateDraft(ctx, companyID, q.ID, dto.UpdateQuotationRequest{
		Version: q.Version,
		Notes:   &notes,
		Items:   []dto.LineItemRequest{{Description: "Consultoría", Quantity: 2, UnitPrice: decp("100")}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.True(t, updated.GrandTotal.Equal(dec("200")))
	assert.Equal(t, notes, updated.Notes)

	_, err = f.uc.Send(ctx, companyID, q.ID)
	require.NoError(t, err)
	_, err = f.uc.UpdateDraft(ctx, companyID, q.ID, dto.UpdateQuotationRequest{Version: 3, Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrQuotationLocked)
}

func TestSend_EncolaNotificacionAlCliente(t *testing.T) {
	f := newFixture(t)
	q := f.create(t)

	res, err := f.uc.Send(context.Background(), companyID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", res.From)
	assert.Equal(t, "sent", res.To)
	assert.Equal(t, 1, res.QueuedMessages)
	assert.Equal(t, int64(2), res.Quotation.Version)
	assert.NotNil(t, res.Quotation.SentAt)
	assert.Equal(t, 1, f.outbox.count())
	assert.Equal(t, "quotation:"+q.ID+":sent:email:client", f.outbox.msgs[0].IdempotencyKey)
}

// TestSend_TotalesDesactualizadosPorCambioDePolitica la política cambió después de guardar el borrador.
func TestSend_SinCanalHaciaElClienteAvisaEnElLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var buf bytes.Buffer
	f.uc.log = logger.Wrap(zerolog.New(&buf))

	q, err := f.uc.Create(ctx, companyID, ownerID, dto.CreateQuotationRequest{
		CustomerID: unreachableID,
		Items:      []dto.LineItemRequest{{Description: "Soporte", Quantity: 1, UnitPrice: decp("100")}},
	})
	require.NoError(t, err)

	res, err := f.uc.Send(ctx, companyID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "sent", res.Quotation.Status)
	assert.Zero(t, res.QueuedMessages)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), q.ID)
}

func TestSend_TotalesDesactualizadosPorCambioDePolitica(t *testing.T) {
	f := newFixture(t)
	q := f.create(t, dto.LineItemRequest{Description: "Soporte", Quantity: 1, UnitPrice: decp("100")})
	require.NoError(t, f.settings.UpsertSettings(context.Background(), &entity.CompanySettings{
		CompanyID: companyID, Currency: "USD", MinorUnits: 2, DefaultTaxRatePercent: decp("19"),
	}))

	_, err := f.uc.Send(context.Background(), companyID, q.ID)
	require.Error(t, err)
	var ve *quotation.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.Has(quotation.ErrStaleTotals))
	assert.Zero(t, f.outbox.count())

	// guardar el borrador recalcula y desbloquea el envío
	_, err = f.uc.UpdateDraft(context.Background(), companyID, q.ID, dto.UpdateQuotationRequest{Version: q.Version})
	require.NoError(t, err)
	res, err := f.uc.Send(context.Background(), companyID, q.ID)
	require.NoError(t, err)
	assert.True(t, res.Quotation.GrandTotal.Equal(dec("119")))
}

func TestEmitida_ConservaLaPoliticaDePrecios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.settings.UpsertSettings(ctx, &entity.CompanySettings{
		CompanyID: companyID, Currency: "USD", MinorUnits: 2, DefaultTaxRatePercent: decp("19"),
	}))
	q := f.create(t, dto.LineItemRequest{Description: "Soporte", Quantity: 1, UnitPrice: decp("100")})
	_, err := f.uc.Send(ctx, companyID, q.ID)
	require.NoError(t, err)

	// la empresa cambia su política después de emitir
	require.NoError(t, f.settings.UpsertSettings(ctx, &entity.CompanySettings{
		CompanyID: companyID, Currency: "USD", MinorUnits: 0,
	}))

	got, err := f.uc.Get(ctx, companyID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "sent", got.Status)
	assert.True(t, got.TaxAmount.Equal(dec("19")))
	assert.True(t, got.GrandTotal.Equal(dec("119")))
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].TaxAmount.Equal(got.TaxAmount), "impuesto de la línea %s", got.Items[0].TaxAmount)
	assert.True(t, got.Items[0].Total.Equal(got.GrandTotal), "total de la línea %s", got.Items[0].Total)

	_, _, err = f.uc.RenderPDF(ctx, companyID, q.ID)
	require.NoError(t, err)
	doc := f.pdf.last
	assert.True(t, doc.Totals.TaxAmount.Equal(dec("19")))
	assert.True(t, doc.Totals.GrandTotal.Equal(dec("119")))
	require.Len(t, doc.Totals.Lines, 1)
	assert.True(t, doc.Totals.Lines[0].TaxRate.Equal(dec("19")))
	assert.Equal(t, int32(2), doc.Settings.MinorUnits)

	view, err := f.uc.ViewPublic(ctx, got.PublicToken)
	require.NoError(t, err)
	assert.Equal(t, "viewed", view.Status)
	require.Len(t, view.Items, 1)
	assert.True(t, view.Items[0].TaxAmount.Equal(dec("19")))

	// un borrador nuevo sí toma la política vigente
	draft := f.create(t, dto.LineItemRequest{Description: "Soporte", Quantity: 1, UnitPrice: decp("100.40")})
	assert.True(t, draft.GrandTotal.Equal(dec("100")), "total %s", draft.GrandTotal)
}

func TestSend_ReintentaAnteConflictoDeVersion(t *testing.T) {
	f := newFixture(t)
	q := f.create(t)

	var once sync.Once
	f.quotes.beforeUpdate = func() { once.Do(func() { f.quotes.bump(q.ID) }) }

	res, err := f.uc.Send(context.Background(), companyID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "sent", res.To)
	assert.Equal(t, 1, f.quotes.updates)
	assert.Equal(t, 1, f.outbox.count())
}

func TestSend_ConcurrenteUnSoloGanador(t *testing.T) {
	f := newFixture(t)
	q := f.create(t)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		illegal int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Send(context.Background(), companyID, q.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, quotation.ErrIllegalTransition):
				illegal++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, illegal)
	assert.Equal(t, 1, f.outbox.count())
	assert.Equal(t, 1, f.quotes.updates)
}

func TestViewPublic_PrimeraAperturaMarcaVista(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.create(t)

	_, err := f.uc.ViewPublic(ctx, q.PublicToken)
	assert.ErrorIs(t, err, domain.ErrNotFound, "un borrador no es público")

	_, err = f.uc.Send(ctx, companyID, q.ID)
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	view, err := f.uc.ViewPublic(ctx, q.PublicToken)
	require.NoError(t, err)
	assert.Equal(t, "viewed", view.Status)
	assert.Empty(t, view.OwnerID)
	assert.Empty(t, view.PublicToken)
	assert.Equal(t, []string{"accept", "reject"}, view.AllowedActions)
	assert.Equal(t, 3, f.outbox.count(), "email al cliente + email e in_app al vendedor")

	again, err := f.uc.ViewPublic(ctx, q.PublicToken)
	require.NoError(t, err)
	assert.Equal(t, "viewed", again.Status)
	assert.Equal(t, 3, f.outbox.count())
}

func TestAcceptPublic_EsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.create(t)
	_, err := f.uc.Send(ctx, companyID, q.ID)
	require.NoError(t, err)

	_, err = f.uc.AcceptPublic(ctx, q.PublicToken)
	assert.ErrorIs(t, err, quotation.ErrIllegalTransition, "solo se acepta lo que el cliente vio")

	_, err = f.uc.ViewPublic(ctx, q.PublicToken)
	require.NoError(t, err)
	accepted, err := f.uc.AcceptPublic(ctx, q.PublicToken)
	require.NoError(t, err)
	assert.Equal(t, "accepted", accepted.Status)
	assert.NotNil(t, accepted.DecidedAt)

	_, err = f.uc.Cancel(ctx, companyID, q.ID, "")
	assert.ErrorIs(t, err, quotation.ErrTerminalState)
}

func TestReject_RequiereMotivo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.create(t)
	_, err := f.uc.Send(ctx, companyID, q.ID)
	require.NoError(t, err)
	_, err = f.uc.ViewPublic(ctx, q.PublicToken)
	require.NoError(t, err)

	_, err = f.uc.RejectPublic(ctx, q.PublicToken, " ")
	assert.ErrorIs(t, err, quotation.ErrMissingReason)

	res, err := f.uc.Reject(ctx, companyID, q.ID, "Presupuesto insuficiente")
	require.NoError(t, err)
	assert.Equal(t, "Presupuesto insuficiente", res.Quotation.RejectionReason)
}

func TestExpireOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sent := f.create(t)
	_, err := f.uc.Send(ctx, companyID, sent.ID)
	require.NoError(t, err)
	draft := f.create(t)

	_, err = f.uc.Expire(ctx, companyID, sent.ID)
	assert.ErrorIs(t, err, quotation.ErrNotYetExpired)

	f.now = f.now.AddDate(0, 0, 31)
	res, err := f.uc.ExpireOverdue(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, 1, res.Expired)
	assert.Empty(t, res.Failed)

	got, err := f.uc.Get(ctx, companyID, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, "expired", got.Status)
	assert.Equal(t, []string{"revise"}, got.AllowedActions)

	stillDraft, err := f.uc.Get(ctx, companyID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", stillDraft.Status)
	assert.Equal(t, 1, f.outbox.count(), "la expiración no notifica")
}

func TestExpireOverdue_LasFallidasNoBloqueanAlResto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		q := f.create(t)
		_, err := f.uc.Send(ctx, companyID, q.ID)
		require.NoError(t, err)
		ids = append(ids, q.ID)
		f.now = f.now.Add(time.Minute) // vigencias distintas: las primeras vencen antes
	}
	f.quotes.failUpdate = map[string]error{
		ids[0]: errors.New("disco lleno"),
		ids[1]: errors.New("disco lleno"),
	}

	f.now = f.now.AddDate(0, 0, 31)
	res, err := f.uc.ExpireOverdue(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Checked)
	assert.Equal(t, 3, res.Expired)
	assert.ElementsMatch(t, []string{ids[0], ids[1]}, res.Failed)

	for _, id := range ids[2:] {
		got, err := f.uc.Get(ctx, companyID, id)
		require.NoError(t, err)
		assert.Equal(t, "expired", got.Status)
	}
}

func TestRevise_CreaBorradorNuevo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.create(t)

	_, err := f.uc.Revise(ctx, companyID, ownerID, q.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.uc.Send(ctx, companyID, q.ID)
	require.NoError(t, err)
	rev, err := f.uc.Revise(ctx, companyID, ownerID, q.ID)
	require.NoError(t, err)

	assert.Equal(t, "draft", rev.Status)
	assert.Equal(t, q.ID, rev.RevisionOf)
	assert.Equal(t, "COT-2026-000002", rev.Number)
	assert.True(t, rev.GrandTotal.Equal(q.GrandTotal))
	require.Len(t, rev.Items, 1)
	assert.NotEqual(t, q.Items[0].ID, rev.Items[0].ID)
}

func TestDocumentos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.create(t)

	pdf, name, err := f.uc.RenderPDF(ctx, companyID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "COT-2026-000001.pdf", name)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, 1, f.pdf.calls)

	_, _, _, err = f.uc.ExportUBL(ctx, companyID, q.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.uc.Send(ctx, companyID, q.ID)
	require.NoError(t, err)
	xml, name, digest, err := f.uc.ExportUBL(ctx, companyID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "COT-2026-000001.xml", name)
	assert.Equal(t, "digest-COT-2026-000001", digest)
	assert.NotEmpty(t, xml)

	_, _, err = f.uc.RenderPDF(ctx, companyID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_FiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t)
	f.create(t)
	_, err := f.uc.Send(ctx, companyID, a.ID)
	require.NoError(t, err)

	list, err := f.uc.List(ctx, companyID, "sent", "", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, a.ID, list.Items[0].ID)
	assert.Equal(t, 20, list.Page.Limit)

	_, err = f.uc.List(ctx, companyID, "archivada", "", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
