package ubl

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cotizador-api/internal/application/quoting"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
)

func sentDocument(t *testing.T) quoting.Document {
	t.Helper()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sent := created.Add(time.Hour)
	ten, twenty := decimal.NewFromInt(10), decimal.NewFromInt(20)
	q := &entity.Quotation{
		ID:         "4f7d1c1e-0000-4000-8000-000000000001",
		Number:     "COT-2026-000001",
		Status:     entity.QuotationStatusSent,
		Currency:   "USD",
		ValidUntil: created.AddDate(0, 0, 30),
		Items: []entity.LineItem{
			{Description: "Consultoría", ProductID: "p-1", Quantity: 1, UnitPrice: decimal.NewFromInt(100), DiscountPercent: &ten, TaxRatePercent: &twenty},
			{Description: "Soporte & mantenimiento", Quantity: 3, UnitPrice: decimal.RequireFromString("19.99")},
		},
		SentAt:    &sent,
		CreatedAt: created,
	}
	totals, err := quotation.Recompute(q, quotation.DefaultPolicy())
	require.NoError(t, err)
	return quoting.Document{
		Quotation: q,
		Totals:    totals,
		Company:   &entity.Company{Name: "Acme SAS", NIT: "800.197.268-4", Email: "ventas@acme.test"},
		Customer:  &entity.Customer{Name: "Cliente Uno", TaxID: "123456789"},
	}
}

func TestExportQuotation(t *testing.T) {
	out, digest, err := NewQuotationExporter().ExportQuotation(sentDocument(t))
	require.NoError(t, err)
	assert.NotEmpty(t, digest)

	x := etree.NewDocument()
	require.NoError(t, x.ReadFromBytes(out))
	root := x.Root()
	require.NotNil(t, root)
	assert.Equal(t, "Quotation", root.Tag)
	assert.Equal(t, "COT-2026-000001", root.FindElement("cbc:ID").Text())
	assert.Equal(t, "2026-03-01", root.FindElement("cbc:IssueDate").Text())
	assert.Equal(t, "2026-03-31", root.FindElement("cac:ValidityPeriod/cbc:EndDate").Text())
	assert.Len(t, root.FindElements("cac:QuotationLine"), 2)

	payable := root.FindElement("cac:QuotedMonetaryTotal/cbc:PayableAmount")
	require.NotNil(t, payable)
	assert.Equal(t, "167.97", payable.Text())
	assert.Equal(t, "USD", payable.SelectAttrValue("currencyID", ""))

	allowance := root.FindElement("cac:QuotationLine/cac:LineItem/cac:AllowanceCharge/cbc:Amount")
	require.NotNil(t, allowance)
	assert.Equal(t, "10.00", allowance.Text())

	nit := root.FindElement("cac:SellerSupplierParty/cac:Party/cac:PartyTaxScheme/cbc:CompanyID")
	require.NotNil(t, nit)
	assert.Equal(t, "800197268", nit.Text())
	assert.Equal(t, "4", nit.SelectAttrValue("schemeID", ""))
	assert.Equal(t, "31", nit.SelectAttrValue("schemeName", ""))
}

func TestExportQuotation_DigestDeterminista(t *testing.T) {
	doc := sentDocument(t)
	_, a, err := NewQuotationExporter().ExportQuotation(doc)
	require.NoError(t, err)
	_, b, err := NewQuotationExporter().ExportQuotation(doc)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	doc.Quotation.Number = "COT-2026-000002"
	_, c, err := NewQuotationExporter().ExportQuotation(doc)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDigest_IgnoraFormato(t *testing.T) {
	a, err := Digest([]byte(`<a  x="1"><b/></a>`))
	require.NoError(t, err)
	b, err := Digest([]byte(`<a x="1" ><b></b></a>`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExportQuotation_DocumentoIncompleto(t *testing.T) {
	doc := sentDocument(t)
	doc.Customer = nil
	_, _, err := NewQuotationExporter().ExportQuotation(doc)
	assert.Error(t, err)

	doc = sentDocument(t)
	doc.Totals = quotation.Totals{}
	_, _, err = NewQuotationExporter().ExportQuotation(doc)
	assert.Error(t, err)
}
