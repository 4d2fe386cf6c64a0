package entity

import "time"

// Customer representa un cliente de la empresa, destinatario de las cotizaciones.
type Customer struct {
	ID          string
	CompanyID   string
	Name        string
	TaxID       string // NIT, RUT, VAT, etc.
	Email       string
	Phone       string
	ContactName string
	Address     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
