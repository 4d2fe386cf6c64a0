package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un ítem del catálogo de la empresa. Sirve para precargar
// descripción, precio e impuesto de las líneas de una cotización.
type Product struct {
	ID             string
	CompanyID      string
	SKU            string // código único por empresa
	Name           string
	Description    string
	UnitPrice      decimal.Decimal
	TaxRatePercent *decimal.Decimal // nil = usa el impuesto por defecto de la empresa
	UnitMeasure    string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
