// Package money formatea montos para documentos y mensajes.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter imprime montos con los separadores del idioma configurado.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter crea un formatter para el idioma BCP 47 dado (ej. "es-CO"). Idioma inválido -> español.
func NewFormatter(lang string) *Formatter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Spanish
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

// Format monto redondeado half-up a scale decimales, con el símbolo de la moneda si es ISO 4217.
func (f *Formatter) Format(amount decimal.Decimal, currencyCode string, scale int32) string {
	n := f.Number(amount, scale)
	unit, err := currency.ParseISO(strings.ToUpper(currencyCode))
	if err != nil {
		if currencyCode == "" {
			return n
		}
		return currencyCode + " " + n
	}
	return f.printer.Sprint(currency.Symbol(unit)) + " " + n
}

// Number solo el número, sin moneda.
func (f *Formatter) Number(amount decimal.Decimal, scale int32) string {
	rounded := amount.Round(scale)
	return f.printer.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(int(scale))))
}

// Percent ej. "19 %" o "12,5 %" según idioma.
func (f *Formatter) Percent(p decimal.Decimal) string {
	return f.printer.Sprint(number.Decimal(p.InexactFloat64(), number.MaxFractionDigits(2))) + " %"
}
