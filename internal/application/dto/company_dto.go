package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCompanyRequest entrada para crear una empresa con su configuración inicial.
type CreateCompanyRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	NIT     string `json:"nit" validate:"required,min=1,max=20"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`

	Currency     string `json:"currency" validate:"omitempty,len=3"`
	MinorUnits   int32  `json:"minor_units" validate:"omitempty,min=0,max=4"`
	NumberPrefix string `json:"number_prefix" validate:"omitempty,max=10"`
}

// CompanyResponse salida de una empresa (sin datos sensibles).
type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NIT       string    `json:"nit"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyBundleResponse empresa recién creada con todos sus registros asociados.
type CompanyBundleResponse struct {
	Company       CompanyResponse  `json:"company"`
	Settings      SettingsResponse `json:"settings"`
	Branding      BrandingResponse `json:"branding"`
	Notifications map[string]bool  `json:"notifications"`
	Modules       []string         `json:"modules"`
}

// SettingsResponse configuración comercial.
type SettingsResponse struct {
	Currency              string           `json:"currency"`
	MinorUnits            int32            `json:"minor_units"`
	DefaultTaxRatePercent *decimal.Decimal `json:"default_tax_rate_percent,omitempty"`
	DefaultValidityDays   int              `json:"default_validity_days"`
	NumberPrefix          string           `json:"number_prefix"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// UpdateSettingsRequest campos opcionales; ClearDefaultTax quita el impuesto plano.
type UpdateSettingsRequest struct {
	Currency              *string          `json:"currency" validate:"omitempty,len=3"`
	MinorUnits            *int32           `json:"minor_units" validate:"omitempty,min=0,max=4"`
	DefaultTaxRatePercent *decimal.Decimal `json:"default_tax_rate_percent"`
	ClearDefaultTax       bool             `json:"clear_default_tax"`
	DefaultValidityDays   *int             `json:"default_validity_days" validate:"omitempty,min=1,max=365"`
	NumberPrefix          *string          `json:"number_prefix" validate:"omitempty,min=1,max=10"`
}

// BrandingResponse marca de los documentos.
type BrandingResponse struct {
	PrimaryColor string    `json:"primary_color"`
	LogoURL      string    `json:"logo_url,omitempty"`
	FooterText   string    `json:"footer_text,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpdateBrandingRequest campos opcionales.
type UpdateBrandingRequest struct {
	PrimaryColor *string `json:"primary_color" validate:"omitempty,hexcolor"`
	LogoURL      *string `json:"logo_url" validate:"omitempty,url"`
	FooterText   *string `json:"footer_text" validate:"omitempty,max=500"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
