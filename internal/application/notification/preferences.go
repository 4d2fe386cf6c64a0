package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// PreferenceService lee y modifica preferencias de canal. Un dueño sin fila usa los valores por defecto.
type PreferenceService struct {
	prefs repository.PreferenceRepository
	users repository.UserRepository
	now   func() time.Time
}

// NewPreferenceService construye el servicio.
func NewPreferenceService(prefs repository.PreferenceRepository, users repository.UserRepository) *PreferenceService {
	return &PreferenceService{prefs: prefs, users: users, now: func() time.Time { return time.Now().UTC() }}
}

// Load preferencias efectivas del dueño (empresa o usuario).
func (s *PreferenceService) Load(ctx context.Context, ownerID string) (entity.NotificationPreferences, error) {
	p, err := s.prefs.Get(ctx, ownerID)
	if err != nil {
		return entity.NotificationPreferences{}, err
	}
	if p == nil {
		return entity.DefaultNotificationPreferences(ownerID), nil
	}
	// canales agregados después de guardar quedan con su valor por defecto
	def := entity.DefaultNotificationPreferences(ownerID)
	for _, c := range entity.Channels {
		if _, ok := p.Channels[c]; !ok {
			p.Channels[c] = def.Channels[c]
		}
	}
	return *p, nil
}

// Get preferencias en formato de respuesta.
func (s *PreferenceService) Get(ctx context.Context, ownerID string) (*dto.PreferencesResponse, error) {
	p, err := s.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toPreferencesResponse(p), nil
}

// Update aplica los cambios. Una clave desconocida devuelve domain.ErrUnknownChannel y no guarda nada.
func (s *PreferenceService) Update(ctx context.Context, ownerID string, in dto.UpdatePreferencesRequest) (*dto.PreferencesResponse, error) {
	if len(in.Channels) == 0 {
		return nil, fmt.Errorf("%w: channels vacío", domain.ErrInvalidInput)
	}
	p, err := s.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyToggles(in.Channels); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()
	if err := s.prefs.Upsert(ctx, &p); err != nil {
		return nil, err
	}
	return toPreferencesResponse(p), nil
}

// ConfigFor arma la configuración de notificación del motor para una cotización:
// canales del cliente según la empresa (sin in-app: el cliente no tiene bandeja)
// y canales del dueño según sus propias preferencias.
func (s *PreferenceService) ConfigFor(ctx context.Context, q *entity.Quotation, customer *entity.Customer) (quotation.NotifyConfig, error) {
	companyPrefs, err := s.Load(ctx, q.CompanyID)
	if err != nil {
		return quotation.NotifyConfig{}, fmt.Errorf("preferencias de la empresa: %w", err)
	}
	ownerPrefs, err := s.Load(ctx, q.OwnerID)
	if err != nil {
		return quotation.NotifyConfig{}, fmt.Errorf("preferencias del dueño: %w", err)
	}

	cfg := quotation.NotifyConfig{}
	for _, c := range companyPrefs.EnabledChannels() {
		if c != entity.ChannelInApp {
			cfg.ClientChannels = append(cfg.ClientChannels, c)
		}
	}
	cfg.OwnerChannels = ownerPrefs.EnabledChannels()

	if customer != nil {
		cfg.Client = quotation.Contact{ID: customer.ID, Name: customer.Name, Email: customer.Email}
	}
	owner, err := s.users.GetByID(ctx, q.OwnerID)
	if err != nil {
		return quotation.NotifyConfig{}, fmt.Errorf("dueño de la cotización: %w", err)
	}
	if owner != nil {
		cfg.Owner = quotation.Contact{ID: owner.ID, Name: owner.Name, Email: owner.Email}
	} else {
		cfg.Owner = quotation.Contact{ID: q.OwnerID}
	}
	return cfg, nil
}

func toPreferencesResponse(p entity.NotificationPreferences) *dto.PreferencesResponse {
	return &dto.PreferencesResponse{
		OwnerID:   p.OwnerID,
		Channels:  p.ToMap(),
		UpdatedAt: p.UpdatedAt,
	}
}
