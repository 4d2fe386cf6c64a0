package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cotizador-api/internal/application/quoting"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
	"github.com/jhoicas/Cotizador-api/pkg/money"
)

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, props.Color{Red: 255, Green: 128, Blue: 0}, parseHexColor("#FF8000"))
	assert.Equal(t, props.Color{Red: 0, Green: 70, Blue: 127}, parseHexColor("00467f"))
	assert.Equal(t, defaultPrimary, parseHexColor("rojo"))
	assert.Equal(t, defaultPrimary, parseHexColor(""))
}

func TestRenderQuotation(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tax := decimal.NewFromInt(19)
	q := &entity.Quotation{
		ID:          "q-1",
		Number:      "COT-2026-000001",
		Status:      entity.QuotationStatusSent,
		Currency:    "COP",
		ValidUntil:  created.AddDate(0, 0, 30),
		PublicToken: "abc123",
		Notes:       "Entrega en 5 días hábiles",
		Items: []entity.LineItem{
			{Description: "Licencia anual", Quantity: 2, UnitPrice: decimal.NewFromInt(50), TaxRatePercent: &tax},
		},
		CreatedAt: created,
	}
	totals, err := quotation.Recompute(q, quotation.DefaultPolicy())
	require.NoError(t, err)

	g := NewQuotationPDF(money.NewFormatter("es-CO"), "https://cotizador.test/q/")
	out, err := g.RenderQuotation(quoting.Document{
		Quotation: q,
		Totals:    totals,
		Company:   &entity.Company{Name: "Acme SAS", NIT: "900123456"},
		Branding:  &entity.CompanyBranding{PrimaryColor: "#336699", FooterText: "Gracias por su confianza"},
		Customer:  &entity.Customer{Name: "Cliente Uno", TaxID: "123"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = g.RenderQuotation(quoting.Document{Quotation: q})
	assert.Error(t, err)
}

func TestPublicLink(t *testing.T) {
	g := NewQuotationPDF(money.NewFormatter("es"), "https://cotizador.test/q/")
	q := &entity.Quotation{Status: entity.QuotationStatusDraft, PublicToken: "tok"}
	s := sheet{g: g, doc: quoting.Document{Quotation: q}}
	assert.Empty(t, s.publicLink(), "un borrador no tiene enlace")

	q.Status = entity.QuotationStatusSent
	assert.Equal(t, "https://cotizador.test/q/tok", s.publicLink())
}
