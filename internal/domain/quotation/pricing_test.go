package quotation_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pct(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func item(qty int64, price string, discount, tax *decimal.Decimal) entity.LineItem {
	return entity.LineItem{
		Description:     "Servicio",
		Quantity:        qty,
		UnitPrice:       dec(price),
		DiscountPercent: discount,
		TaxRatePercent:  tax,
	}
}

// TestComputeTotals_DescuentoAntesDeImpuesto caso frontera: 100 con 10% de descuento y 20% de impuesto.
func TestComputeTotals_DescuentoAntesDeImpuesto(t *testing.T) {
	totals, err := quotation.ComputeTotals(
		[]entity.LineItem{item(1, "100.00", pct("10"), pct("20"))},
		quotation.DefaultPolicy(),
	)
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Equal(dec("100.00")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.DiscountAmount.Equal(dec("10.00")), "descuento %s", totals.DiscountAmount)
	assert.True(t, totals.TaxAmount.Equal(dec("18.00")), "impuesto %s", totals.TaxAmount)
	assert.True(t, totals.GrandTotal.Equal(dec("108.00")), "total %s", totals.GrandTotal)
	require.Len(t, totals.Lines, 1)
	assert.True(t, totals.Lines[0].AfterDiscount.Equal(dec("90.00")))
}

func TestComputeTotals_Determinista(t *testing.T) {
	items := []entity.LineItem{
		item(3, "19.99", pct("5"), pct("19")),
		item(7, "0.335", nil, pct("8")),
		item(1, "1250", pct("12.5"), nil),
	}
	a, err := quotation.ComputeTotals(items, quotation.DefaultPolicy())
	require.NoError(t, err)
	b, err := quotation.ComputeTotals(items, quotation.DefaultPolicy())
	require.NoError(t, err)

	assert.True(t, a.Subtotal.Equal(b.Subtotal))
	assert.True(t, a.DiscountAmount.Equal(b.DiscountAmount))
	assert.True(t, a.TaxAmount.Equal(b.TaxAmount))
	assert.True(t, a.GrandTotal.Equal(b.GrandTotal))
}

func TestComputeTotals_TotalCuadra(t *testing.T) {
	cases := [][]entity.LineItem{
		{item(1, "0", nil, nil)},
		{item(2, "10.005", pct("33.33"), pct("19"))},
		{item(11, "3.333", pct("1"), pct("7.5")), item(4, "99.99", pct("100"), pct("19"))},
	}
	for _, items := range cases {
		totals, err := quotation.ComputeTotals(items, quotation.DefaultPolicy())
		require.NoError(t, err)
		expected := totals.Subtotal.Sub(totals.DiscountAmount).Add(totals.TaxAmount)
		assert.True(t, totals.GrandTotal.Sub(expected).Abs().LessThanOrEqual(dec("0.01")))
	}
}

// TestComputeTotals_RedondeoPorLinea cada línea se redondea antes de sumar.
func TestComputeTotals_RedondeoPorLinea(t *testing.T) {
	// 7 * 0.335 = 2.345 -> 2.35 (half-up); dos líneas suman 4.70, no round(4.69)
	items := []entity.LineItem{item(7, "0.335", nil, nil), item(7, "0.335", nil, nil)}
	totals, err := quotation.ComputeTotals(items, quotation.DefaultPolicy())
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(dec("4.70")), "subtotal %s", totals.Subtotal)
}

func TestComputeTotals_ImpuestoPorDefectoDeLaEmpresa(t *testing.T) {
	policy := quotation.Policy{Scale: 2, DefaultTaxRatePercent: pct("19")}
	items := []entity.LineItem{
		item(1, "100", nil, nil),       // usa 19%
		item(1, "100", nil, pct("0")), // la tasa propia gana
	}
	totals, err := quotation.ComputeTotals(items, policy)
	require.NoError(t, err)
	assert.True(t, totals.TaxAmount.Equal(dec("19")), "impuesto %s", totals.TaxAmount)
	assert.True(t, totals.Lines[1].TaxRate.IsZero())
}

func TestComputeTotals_EscalaDeMoneda(t *testing.T) {
	policy := quotation.Policy{Scale: 0}
	totals, err := quotation.ComputeTotals([]entity.LineItem{item(3, "333.5", nil, pct("10"))}, policy)
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(dec("1001")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.TaxAmount.Equal(dec("100")), "impuesto %s", totals.TaxAmount)
}

func TestComputeTotals_LineasInvalidas(t *testing.T) {
	cases := []struct {
		name  string
		items []entity.LineItem
		field string
	}{
		{"sin líneas", nil, "items"},
		{"cantidad cero", []entity.LineItem{item(0, "10", nil, nil)}, "quantity"},
		{"precio negativo", []entity.LineItem{item(1, "-1", nil, nil)}, "unit_price"},
		{"descuento > 100", []entity.LineItem{item(1, "10", pct("101"), nil)}, "discount_percent"},
		{"impuesto negativo", []entity.LineItem{item(1, "10", nil, pct("-5"))}, "tax_rate_percent"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := quotation.ComputeTotals(tc.items, quotation.DefaultPolicy())
			require.Error(t, err)
			assert.ErrorIs(t, err, quotation.ErrInvalidLineItem)

			var lie *quotation.LineItemError
			require.True(t, errors.As(err, &lie))
			assert.Equal(t, tc.field, lie.Field)
		})
	}
}
