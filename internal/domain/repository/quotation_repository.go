package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// QuotationFilter filtros de listado.
type QuotationFilter struct {
	Status     entity.QuotationStatus // vacío = todos
	CustomerID string
	OwnerID    string
	Limit      int
	Offset     int
}

// QuotationRepository define el puerto de persistencia del agregado Quotation.
//
// Update es un compare-and-swap sobre Version: escribe solo si la fila conserva
// q.Version, la incrementa y devuelve domain.ErrVersionConflict si otro escritor ganó.
type QuotationRepository interface {
	// Create inserta cabecera e ítems. q.Version debe venir en 1.
	Create(ctx context.Context, q *entity.Quotation) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Quotation, error)
	GetByPublicToken(ctx context.Context, token string) (*entity.Quotation, error)
	List(ctx context.Context, companyID string, f QuotationFilter) ([]*entity.Quotation, int, error)
	Update(ctx context.Context, q *entity.Quotation) error
	// ReplaceItems reescribe los ítems; solo se usa mientras la cotización es borrador.
	ReplaceItems(ctx context.Context, q *entity.Quotation) error
	// NextNumber reserva el siguiente consecutivo de la empresa para el año dado.
	NextNumber(ctx context.Context, companyID string, year int) (int64, error)
	// ListOverdue cotizaciones sent/viewed con ValidUntil < now, de todas las empresas,
	// sin las de exclude. Las más antiguas primero.
	ListOverdue(ctx context.Context, now time.Time, limit int, exclude []string) ([]*entity.Quotation, error)
}
