package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Company representa una organización/tenant del sistema (multi-tenant).
type Company struct {
	ID        string
	Name      string
	NIT       string // identificación tributaria
	Address   string
	Phone     string
	Email     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Módulos SaaS disponibles (deben coincidir con el CHECK de la tabla company_modules).
const (
	ModuleQuotations    = "quotations"
	ModuleNotifications = "notifications"
	ModuleAnalytics     = "analytics"
)

// CompanyModule representa la activación de un módulo SaaS en una empresa.
type CompanyModule struct {
	ID          string
	CompanyID   string
	ModuleName  string // ver constantes Module*
	IsActive    bool
	ActivatedAt time.Time
	ExpiresAt   *time.Time // nil = sin vencimiento
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CompanySettings parámetros comerciales de la empresa para sus cotizaciones.
type CompanySettings struct {
	CompanyID             string
	Currency              string // ISO 4217
	MinorUnits            int32  // decimales de la moneda (2 para USD/EUR/COP)
	DefaultTaxRatePercent *decimal.Decimal
	DefaultValidityDays   int
	NumberPrefix          string
	UpdatedAt             time.Time
}

// CompanyBranding apariencia de los documentos emitidos (PDF, correos).
type CompanyBranding struct {
	CompanyID    string
	PrimaryColor string // hex, ej. #00467F
	LogoURL      string
	FooterText   string
	UpdatedAt    time.Time
}

// CompanyBundle conjunto completo de registros de un tenant nuevo.
// Se persiste completo en una sola transacción.
type CompanyBundle struct {
	Company       *Company
	Settings      *CompanySettings
	Branding      *CompanyBranding
	Preferences   NotificationPreferences
	ActiveModules []CompanyModule
}

// BundleDefaults valores iniciales de configuración para un tenant.
type BundleDefaults struct {
	Currency            string
	MinorUnits          int32
	DefaultValidityDays int
	NumberPrefix        string
}

// NewCompanyBundle construye la empresa con su configuración, marca, preferencias de
// notificación y módulos base. Nunca persiste nada: el caller guarda todo en una transacción.
func NewCompanyBundle(name, nit, address, phone, email string, def BundleDefaults, now time.Time) CompanyBundle {
	id := uuid.New().String()
	if def.Currency == "" {
		def.Currency = "USD"
	}
	if def.MinorUnits <= 0 {
		def.MinorUnits = 2
	}
	if def.DefaultValidityDays <= 0 {
		def.DefaultValidityDays = 30
	}
	if def.NumberPrefix == "" {
		def.NumberPrefix = "COT"
	}
	company := &Company{
		ID:        id,
		Name:      name,
		NIT:       nit,
		Address:   address,
		Phone:     phone,
		Email:     email,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	prefs := DefaultNotificationPreferences(id)
	prefs.UpdatedAt = now
	modules := make([]CompanyModule, 0, 2)
	for _, m := range []string{ModuleQuotations, ModuleNotifications} {
		modules = append(modules, CompanyModule{
			ID:          uuid.New().String(),
			CompanyID:   id,
			ModuleName:  m,
			IsActive:    true,
			ActivatedAt: now,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return CompanyBundle{
		Company: company,
		Settings: &CompanySettings{
			CompanyID:           id,
			Currency:            def.Currency,
			MinorUnits:          def.MinorUnits,
			DefaultValidityDays: def.DefaultValidityDays,
			NumberPrefix:        def.NumberPrefix,
			UpdatedAt:           now,
		},
		Branding: &CompanyBranding{
			CompanyID:    id,
			PrimaryColor: "#00467F",
			FooterText:   name,
			UpdatedAt:    now,
		},
		Preferences:   prefs,
		ActiveModules: modules,
	}
}
