// Package quotation contiene el motor de cotizaciones: cálculo de totales,
// validación y máquina de estados. No hace I/O: recibe y devuelve datos.
package quotation

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

const defaultScale int32 = 2

var hundred = decimal.NewFromInt(100)

// Policy reglas de redondeo e impuesto de la empresa.
type Policy struct {
	// Scale decimales de la moneda (unidades menores).
	Scale int32
	// DefaultTaxRatePercent impuesto plano para líneas sin tasa propia. nil = 0%.
	DefaultTaxRatePercent *decimal.Decimal
}

// DefaultPolicy dos decimales, sin impuesto por defecto.
func DefaultPolicy() Policy {
	return Policy{Scale: defaultScale}
}

// PolicyFromSettings construye la política desde la configuración de la empresa.
func PolicyFromSettings(s *entity.CompanySettings) Policy {
	if s == nil {
		return DefaultPolicy()
	}
	p := Policy{Scale: s.MinorUnits, DefaultTaxRatePercent: s.DefaultTaxRatePercent}
	if p.Scale < 0 {
		p.Scale = defaultScale
	}
	return p
}

// PolicyOf política guardada en la cotización al calcular sus totales. Es la que se usa
// para leer el desglose por línea de una cotización ya calculada.
func PolicyOf(q *entity.Quotation) Policy {
	p := Policy{Scale: q.PriceScale, DefaultTaxRatePercent: q.DefaultTaxRatePercent}
	if p.Scale < 0 {
		p.Scale = defaultScale
	}
	return p
}

func (p Policy) stamp(q *entity.Quotation) {
	q.PriceScale = p.Scale
	q.DefaultTaxRatePercent = p.DefaultTaxRatePercent
}

// Tolerance una unidad menor de la moneda (0.01 con dos decimales).
func (p Policy) Tolerance() decimal.Decimal {
	return decimal.New(1, -p.Scale)
}

func (p Policy) round(d decimal.Decimal) decimal.Decimal {
	// Round es half away from zero; con montos no negativos equivale a half-up.
	return d.Round(p.Scale)
}

func (p Policy) taxRate(it entity.LineItem) decimal.Decimal {
	if it.TaxRatePercent != nil {
		return *it.TaxRatePercent
	}
	if p.DefaultTaxRatePercent != nil {
		return *p.DefaultTaxRatePercent
	}
	return decimal.Zero
}

// LineTotals desglose de una línea.
type LineTotals struct {
	LineTotal     decimal.Decimal // cantidad * precio
	Discount      decimal.Decimal
	AfterDiscount decimal.Decimal
	TaxRate       decimal.Decimal // tasa aplicada, ya resuelta contra la política
	Tax           decimal.Decimal
	Total         decimal.Decimal // AfterDiscount + Tax
}

// Totals resultado de ComputeTotals. Lines sigue el orden de los ítems.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	GrandTotal     decimal.Decimal
	Lines          []LineTotals
}

// ComputeTotals calcula subtotal, descuento, impuesto y total.
// Cada monto por línea se redondea antes de sumar; el descuento se aplica antes del impuesto.
func ComputeTotals(items []entity.LineItem, p Policy) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, &LineItemError{Index: -1, Field: "items", Reason: "la lista de líneas está vacía"}
	}
	t := Totals{
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		Lines:          make([]LineTotals, 0, len(items)),
	}
	for i, it := range items {
		if err := checkLineItem(i, it); err != nil {
			return Totals{}, err
		}
		lt := p.computeLine(it)
		t.Subtotal = t.Subtotal.Add(lt.LineTotal)
		t.DiscountAmount = t.DiscountAmount.Add(lt.Discount)
		t.TaxAmount = t.TaxAmount.Add(lt.Tax)
		t.Lines = append(t.Lines, lt)
	}
	t.GrandTotal = t.Subtotal.Sub(t.DiscountAmount).Add(t.TaxAmount)
	return t, nil
}

func (p Policy) computeLine(it entity.LineItem) LineTotals {
	lineTotal := p.round(decimal.NewFromInt(it.Quantity).Mul(it.UnitPrice))
	discount := decimal.Zero
	if it.DiscountPercent != nil {
		discount = p.round(lineTotal.Mul(*it.DiscountPercent).Div(hundred))
	}
	after := lineTotal.Sub(discount)
	rate := p.taxRate(it)
	tax := p.round(after.Mul(rate).Div(hundred))
	return LineTotals{
		LineTotal:     lineTotal,
		Discount:      discount,
		AfterDiscount: after,
		TaxRate:       rate,
		Tax:           tax,
		Total:         after.Add(tax),
	}
}

func checkLineItem(i int, it entity.LineItem) *LineItemError {
	if it.Quantity <= 0 {
		return &LineItemError{Index: i, Field: "quantity", Reason: "debe ser mayor que 0"}
	}
	if it.UnitPrice.IsNegative() {
		return &LineItemError{Index: i, Field: "unit_price", Reason: "no puede ser negativo"}
	}
	if !percentInRange(it.DiscountPercent) {
		return &LineItemError{Index: i, Field: "discount_percent", Reason: "debe estar entre 0 y 100"}
	}
	if !percentInRange(it.TaxRatePercent) {
		return &LineItemError{Index: i, Field: "tax_rate_percent", Reason: "debe estar entre 0 y 100"}
	}
	return nil
}

func percentInRange(v *decimal.Decimal) bool {
	if v == nil {
		return true
	}
	return !v.IsNegative() && v.LessThanOrEqual(hundred)
}
