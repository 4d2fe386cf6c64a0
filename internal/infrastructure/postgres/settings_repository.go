package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

var _ repository.CompanySettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo configuración y marca de la empresa (company_settings, company_branding).
type SettingsRepo struct {
	q Querier
}

// NewSettingsRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSettingsRepository(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

// GetSettings obtiene la configuración comercial.
func (r *SettingsRepo) GetSettings(ctx context.Context, companyID string) (*entity.CompanySettings, error) {
	query := `
		SELECT company_id, currency, minor_units, default_tax_rate_percent, default_validity_days, number_prefix, updated_at
		FROM company_settings WHERE company_id = $1`
	var s entity.CompanySettings
	err := r.q.QueryRow(ctx, query, companyID).Scan(
		&s.CompanyID, &s.Currency, &s.MinorUnits, &s.DefaultTaxRatePercent,
		&s.DefaultValidityDays, &s.NumberPrefix, &s.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company settings: %w", err)
	}
	return &s, nil
}

// UpsertSettings crea o reemplaza la configuración.
func (r *SettingsRepo) UpsertSettings(ctx context.Context, s *entity.CompanySettings) error {
	query := `
		INSERT INTO company_settings (company_id, currency, minor_units, default_tax_rate_percent, default_validity_days, number_prefix, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_id) DO UPDATE SET
			currency = EXCLUDED.currency,
			minor_units = EXCLUDED.minor_units,
			default_tax_rate_percent = EXCLUDED.default_tax_rate_percent,
			default_validity_days = EXCLUDED.default_validity_days,
			number_prefix = EXCLUDED.number_prefix,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		s.CompanyID, s.Currency, s.MinorUnits, s.DefaultTaxRatePercent,
		s.DefaultValidityDays, s.NumberPrefix, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert company settings: %w", err)
	}
	return nil
}

// GetBranding obtiene la marca de la empresa.
func (r *SettingsRepo) GetBranding(ctx context.Context, companyID string) (*entity.CompanyBranding, error) {
	query := `
		SELECT company_id, primary_color, logo_url, footer_text, updated_at
		FROM company_branding WHERE company_id = $1`
	var b entity.CompanyBranding
	var logo, footer *string
	err := r.q.QueryRow(ctx, query, companyID).Scan(&b.CompanyID, &b.PrimaryColor, &logo, &footer, &b.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company branding: %w", err)
	}
	b.LogoURL = derefString(logo)
	b.FooterText = derefString(footer)
	return &b, nil
}

// UpsertBranding crea o reemplaza la marca.
func (r *SettingsRepo) UpsertBranding(ctx context.Context, b *entity.CompanyBranding) error {
	query := `
		INSERT INTO company_branding (company_id, primary_color, logo_url, footer_text, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id) DO UPDATE SET
			primary_color = EXCLUDED.primary_color,
			logo_url = EXCLUDED.logo_url,
			footer_text = EXCLUDED.footer_text,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, b.CompanyID, b.PrimaryColor, nullString(b.LogoURL), nullString(b.FooterText), b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert company branding: %w", err)
	}
	return nil
}
