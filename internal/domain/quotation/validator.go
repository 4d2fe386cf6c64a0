package quotation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// ValidationResult resultado de Validate con todas las violaciones encontradas.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// Validate revisa cliente, líneas, vigencia y coherencia de los totales guardados.
// Nunca corrige los totales: una diferencia se reporta como ErrStaleTotals.
func Validate(q *entity.Quotation, p Policy) ValidationResult {
	var errs []FieldError

	if strings.TrimSpace(q.CustomerID) == "" {
		errs = append(errs, FieldError{Field: "customer_id", Kind: ErrMissingClient})
	}

	itemsOK := len(q.Items) > 0
	if !itemsOK {
		errs = append(errs, FieldError{Field: "items", Kind: ErrNoLineItems})
	}
	for i, it := range q.Items {
		lineErrs := validateLine(i, it)
		if len(lineErrs) > 0 {
			itemsOK = false
			errs = append(errs, lineErrs...)
		}
	}

	if !q.ValidUntil.After(q.CreatedAt) {
		errs = append(errs, FieldError{Field: "valid_until", Kind: ErrInvalidValidity})
	}

	if itemsOK {
		if t, err := ComputeTotals(q.Items, p); err == nil {
			errs = append(errs, staleTotals(q, t, p.Tolerance())...)
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func validateLine(i int, it entity.LineItem) []FieldError {
	var errs []FieldError
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
	if strings.TrimSpace(it.Description) == "" {
		errs = append(errs, FieldError{Field: field("description"), Kind: ErrInvalidLineItem, Message: "la descripción es obligatoria"})
	}
	if it.Quantity <= 0 {
		errs = append(errs, FieldError{Field: field("quantity"), Kind: ErrInvalidLineItem, Message: "debe ser mayor que 0"})
	}
	if it.UnitPrice.IsNegative() {
		errs = append(errs, FieldError{Field: field("unit_price"), Kind: ErrInvalidLineItem, Message: "no puede ser negativo"})
	}
	if !percentInRange(it.DiscountPercent) {
		errs = append(errs, FieldError{Field: field("discount_percent"), Kind: ErrInvalidLineItem, Message: "debe estar entre 0 y 100"})
	}
	if !percentInRange(it.TaxRatePercent) {
		errs = append(errs, FieldError{Field: field("tax_rate_percent"), Kind: ErrInvalidLineItem, Message: "debe estar entre 0 y 100"})
	}
	return errs
}

func staleTotals(q *entity.Quotation, t Totals, tol decimal.Decimal) []FieldError {
	var errs []FieldError
	check := func(field string, stored, computed decimal.Decimal) {
		if stored.Sub(computed).Abs().GreaterThan(tol) {
			errs = append(errs, FieldError{
				Field:   field,
				Kind:    ErrStaleTotals,
				Message: fmt.Sprintf("guardado %s, calculado %s", stored.String(), computed.String()),
			})
		}
	}
	check("subtotal", q.Subtotal, t.Subtotal)
	check("discount_amount", q.DiscountAmount, t.DiscountAmount)
	check("tax_amount", q.TaxAmount, t.TaxAmount)
	check("grand_total", q.GrandTotal, t.GrandTotal)
	return errs
}

// ApplyTotals copia los totales calculados al agregado.
func ApplyTotals(q *entity.Quotation, t Totals) {
	q.Subtotal = t.Subtotal
	q.DiscountAmount = t.DiscountAmount
	q.TaxAmount = t.TaxAmount
	q.GrandTotal = t.GrandTotal
}

// Recompute recalcula y asigna los totales del agregado junto con la política usada.
// Solo tiene sentido en borrador.
func Recompute(q *entity.Quotation, p Policy) (Totals, error) {
	t, err := ComputeTotals(q.Items, p)
	if err != nil {
		return Totals{}, err
	}
	ApplyTotals(q, t)
	p.stamp(q)
	return t, nil
}
