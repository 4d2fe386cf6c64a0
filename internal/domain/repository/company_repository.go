package repository

import (
	"context"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByNIT(ctx context.Context, nit string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
	List(ctx context.Context, limit, offset int) ([]*entity.Company, error)

	// HasActiveModule informa si el módulo está activo y sin vencer.
	HasActiveModule(ctx context.Context, companyID, moduleName string) (bool, error)
	CreateModule(ctx context.Context, m *entity.CompanyModule) error
}

// CompanySettingsRepository configuración comercial y marca de la empresa.
// Get* devuelven nil, nil si no existe la fila.
type CompanySettingsRepository interface {
	GetSettings(ctx context.Context, companyID string) (*entity.CompanySettings, error)
	UpsertSettings(ctx context.Context, s *entity.CompanySettings) error
	GetBranding(ctx context.Context, companyID string) (*entity.CompanyBranding, error)
	UpsertBranding(ctx context.Context, b *entity.CompanyBranding) error
}
