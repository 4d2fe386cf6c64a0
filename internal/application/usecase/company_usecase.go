package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
	"github.com/jhoicas/Cotizador-api/pkg/taxid"
)

// CompanyTxRunner ejecuta fn en una transacción con los repos del tenant atados a ella.
type CompanyTxRunner interface {
	RunCompany(ctx context.Context, fn func(
		companies repository.CompanyRepository,
		settings repository.CompanySettingsRepository,
		prefs repository.PreferenceRepository,
	) error) error
}

// CompanyUseCase aplica reglas de negocio para empresas y su configuración comercial.
type CompanyUseCase struct {
	repo     repository.CompanyRepository
	settings repository.CompanySettingsRepository
	tx       CompanyTxRunner
	defaults entity.BundleDefaults
	now      func() time.Time
}

// NewCompanyUseCase construye el caso de uso. defaults completa lo que no venga en la creación.
func NewCompanyUseCase(repo repository.CompanyRepository, settings repository.CompanySettingsRepository, tx CompanyTxRunner, defaults entity.BundleDefaults) *CompanyUseCase {
	return &CompanyUseCase{
		repo:     repo,
		settings: settings,
		tx:       tx,
		defaults: defaults,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create crea la empresa con configuración, marca, preferencias y módulos base en una sola
// transacción. Devuelve domain.ErrDuplicate si el NIT ya existe.
func (uc *CompanyUseCase) Create(ctx context.Context, in dto.CreateCompanyRequest) (*dto.CompanyBundleResponse, error) {
	if _, _, _, err := taxid.SplitNIT(in.NIT); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	existing, err := uc.repo.GetByNIT(ctx, in.NIT)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	def := uc.defaults
	if in.Currency != "" {
		def.Currency = strings.ToUpper(in.Currency)
	}
	if in.MinorUnits > 0 {
		def.MinorUnits = in.MinorUnits
	}
	if in.NumberPrefix != "" {
		def.NumberPrefix = in.NumberPrefix
	}
	b := entity.NewCompanyBundle(in.Name, in.NIT, in.Address, in.Phone, in.Email, def, uc.now())

	err = uc.tx.RunCompany(ctx, func(companies repository.CompanyRepository, settings repository.CompanySettingsRepository, prefs repository.PreferenceRepository) error {
		if err := companies.Create(ctx, b.Company); err != nil {
			return err
		}
		if err := settings.UpsertSettings(ctx, b.Settings); err != nil {
			return err
		}
		if err := settings.UpsertBranding(ctx, b.Branding); err != nil {
			return err
		}
		if err := prefs.Upsert(ctx, &b.Preferences); err != nil {
			return err
		}
		for i := range b.ActiveModules {
			if err := companies.CreateModule(ctx, &b.ActiveModules[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	modules := make([]string, 0, len(b.ActiveModules))
	for _, m := range b.ActiveModules {
		modules = append(modules, m.ModuleName)
	}
	return &dto.CompanyBundleResponse{
		Company:       *toCompanyResponse(b.Company),
		Settings:      *toSettingsResponse(b.Settings),
		Branding:      *toBrandingResponse(b.Branding),
		Notifications: b.Preferences.ToMap(),
		Modules:       modules,
	}, nil
}

// GetByID obtiene una empresa por ID.
func (uc *CompanyUseCase) GetByID(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return toCompanyResponse(company), nil
}

// List lista empresas con paginación.
func (uc *CompanyUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.CompanyListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *toCompanyResponse(c))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// GetSettings configuración comercial; si la empresa no tiene fila devuelve los valores por defecto.
func (uc *CompanyUseCase) GetSettings(ctx context.Context, companyID string) (*dto.SettingsResponse, error) {
	s, err := uc.loadSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(s), nil
}

// UpdateSettings modifica la política de precios. Los borradores existentes quedan con
// totales desactualizados hasta que se vuelvan a guardar.
func (uc *CompanyUseCase) UpdateSettings(ctx context.Context, companyID string, in dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	s, err := uc.loadSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if in.Currency != nil {
		s.Currency = strings.ToUpper(*in.Currency)
	}
	if in.MinorUnits != nil {
		s.MinorUnits = *in.MinorUnits
	}
	if in.DefaultValidityDays != nil {
		s.DefaultValidityDays = *in.DefaultValidityDays
	}
	if in.NumberPrefix != nil {
		s.NumberPrefix = strings.TrimSpace(*in.NumberPrefix)
	}
	switch {
	case in.ClearDefaultTax:
		s.DefaultTaxRatePercent = nil
	case in.DefaultTaxRatePercent != nil:
		if err := checkPricing(hundred, in.DefaultTaxRatePercent); err != nil {
			return nil, err
		}
		s.DefaultTaxRatePercent = in.DefaultTaxRatePercent
	}
	s.UpdatedAt = uc.now()
	if err := uc.settings.UpsertSettings(ctx, s); err != nil {
		return nil, err
	}
	return toSettingsResponse(s), nil
}

// GetBranding marca de los documentos.
func (uc *CompanyUseCase) GetBranding(ctx context.Context, companyID string) (*dto.BrandingResponse, error) {
	b, err := uc.loadBranding(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return toBrandingResponse(b), nil
}

// UpdateBranding modifica color, logo y pie de página.
func (uc *CompanyUseCase) UpdateBranding(ctx context.Context, companyID string, in dto.UpdateBrandingRequest) (*dto.BrandingResponse, error) {
	b, err := uc.loadBranding(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if in.PrimaryColor != nil {
		b.PrimaryColor = *in.PrimaryColor
	}
	if in.LogoURL != nil {
		b.LogoURL = *in.LogoURL
	}
	if in.FooterText != nil {
		b.FooterText = *in.FooterText
	}
	b.UpdatedAt = uc.now()
	if err := uc.settings.UpsertBranding(ctx, b); err != nil {
		return nil, err
	}
	return toBrandingResponse(b), nil
}

func (uc *CompanyUseCase) loadSettings(ctx context.Context, companyID string) (*entity.CompanySettings, error) {
	s, err := uc.settings.GetSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s, nil
	}
	company, err := uc.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	b := entity.NewCompanyBundle(company.Name, company.NIT, "", "", "", uc.defaults, uc.now())
	b.Settings.CompanyID = companyID
	return b.Settings, nil
}

func (uc *CompanyUseCase) loadBranding(ctx context.Context, companyID string) (*entity.CompanyBranding, error) {
	b, err := uc.settings.GetBranding(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if b != nil {
		return b, nil
	}
	company, err := uc.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	bundle := entity.NewCompanyBundle(company.Name, company.NIT, "", "", "", uc.defaults, uc.now())
	bundle.Branding.CompanyID = companyID
	return bundle.Branding, nil
}

func toCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		NIT:       c.NIT,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toSettingsResponse(s *entity.CompanySettings) *dto.SettingsResponse {
	return &dto.SettingsResponse{
		Currency:              s.Currency,
		MinorUnits:            s.MinorUnits,
		DefaultTaxRatePercent: s.DefaultTaxRatePercent,
		DefaultValidityDays:   s.DefaultValidityDays,
		NumberPrefix:          s.NumberPrefix,
		UpdatedAt:             s.UpdatedAt,
	}
}

func toBrandingResponse(b *entity.CompanyBranding) *dto.BrandingResponse {
	return &dto.BrandingResponse{
		PrimaryColor: b.PrimaryColor,
		LogoURL:      b.LogoURL,
		FooterText:   b.FooterText,
		UpdatedAt:    b.UpdatedAt,
	}
}
