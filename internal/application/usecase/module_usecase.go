package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// ModuleService verifica qué módulos SaaS tiene activos una empresa
// (cotizaciones, notificaciones, analítica).
type ModuleService struct {
	companyRepo repository.CompanyRepository
}

// NewModuleService construye el servicio de módulos.
func NewModuleService(companyRepo repository.CompanyRepository) *ModuleService {
	return &ModuleService{companyRepo: companyRepo}
}

// HasActiveModule informa si la empresa tiene el módulo activo y sin vencer.
// Devuelve false sin error si no lo tiene contratado; error solo ante fallos de infraestructura.
func (s *ModuleService) HasActiveModule(ctx context.Context, companyID, moduleName string) (bool, error) {
	if companyID == "" || moduleName == "" {
		return false, fmt.Errorf("module: companyID y moduleName son obligatorios")
	}
	return s.companyRepo.HasActiveModule(ctx, companyID, moduleName)
}

// Require devuelve domain.ErrForbidden si el módulo no está activo.
func (s *ModuleService) Require(ctx context.Context, companyID, moduleName string) error {
	ok, err := s.HasActiveModule(ctx, companyID, moduleName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: módulo %s inactivo", domain.ErrForbidden, moduleName)
	}
	return nil
}
