package dto

import "time"

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	TaxID       string `json:"tax_id" validate:"required,min=1,max=30"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string `json:"phone,omitempty"`
	ContactName string `json:"contact_name,omitempty"`
	Address     string `json:"address,omitempty"`
}

// UpdateCustomerRequest campos opcionales.
type UpdateCustomerRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	TaxID       *string `json:"tax_id" validate:"omitempty,min=1,max=30"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	ContactName *string `json:"contact_name"`
	Address     *string `json:"address"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Name        string    `json:"name"`
	TaxID       string    `json:"tax_id"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	ContactName string    `json:"contact_name,omitempty"`
	Address     string    `json:"address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CustomerListResponse lista paginada de clientes.
type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
