package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto del catálogo.
type CreateProductRequest struct {
	SKU            string           `json:"sku" validate:"required,min=1,max=100"`
	Name           string           `json:"name" validate:"required,min=1,max=200"`
	Description    string           `json:"description"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent"`
	UnitMeasure    string           `json:"unit_measure" validate:"required"`
}

// UpdateProductRequest entrada para actualizar un producto.
type UpdateProductRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description    *string          `json:"description"`
	UnitPrice      *decimal.Decimal `json:"unit_price"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent"`
	UnitMeasure    *string          `json:"unit_measure"`
	Active         *bool            `json:"active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID             string           `json:"id"`
	CompanyID      string           `json:"company_id"`
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent,omitempty"`
	UnitMeasure    string           `json:"unit_measure"`
	Active         bool             `json:"active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
