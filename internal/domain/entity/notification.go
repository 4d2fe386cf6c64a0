package entity

import (
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain"
)

// Channel canal de entrega de notificaciones. Conjunto cerrado.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelInApp Channel = "in_app"
	ChannelPush  Channel = "push"
)

// Channels todos los canales soportados.
var Channels = []Channel{ChannelEmail, ChannelInApp, ChannelPush}

// ParseChannel valida una clave de canal.
func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownChannel, s)
}

// Eventos que generan notificaciones.
const (
	EventQuotationSent      = "quotation_sent"
	EventQuotationViewed    = "quotation_viewed"
	EventQuotationAccepted  = "quotation_accepted"
	EventQuotationRejected  = "quotation_rejected"
	EventQuotationCancelled = "quotation_cancelled"
)

// NotificationPreferences activación de canales para un dueño (empresa o usuario).
type NotificationPreferences struct {
	OwnerID   string
	Channels  map[Channel]bool
	UpdatedAt time.Time
}

// DefaultNotificationPreferences email e in-app activos, push desactivado.
func DefaultNotificationPreferences(ownerID string) NotificationPreferences {
	return NotificationPreferences{
		OwnerID: ownerID,
		Channels: map[Channel]bool{
			ChannelEmail: true,
			ChannelInApp: true,
			ChannelPush:  false,
		},
	}
}

// Enabled indica si el canal está activo. Canales sin valor explícito se consideran inactivos.
func (p NotificationPreferences) Enabled(c Channel) bool {
	return p.Channels[c]
}

// EnabledChannels canales activos en orden estable.
func (p NotificationPreferences) EnabledChannels() []Channel {
	out := make([]Channel, 0, len(p.Channels))
	for _, c := range Channels {
		if p.Channels[c] {
			out = append(out, c)
		}
	}
	return out
}

// ApplyToggles aplica cambios llegados como map[string]bool. Rechaza claves desconocidas
// sin aplicar ningún cambio.
func (p *NotificationPreferences) ApplyToggles(toggles map[string]bool) error {
	parsed := make(map[Channel]bool, len(toggles))
	keys := make([]string, 0, len(toggles))
	for k := range toggles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c, err := ParseChannel(k)
		if err != nil {
			return err
		}
		parsed[c] = toggles[k]
	}
	if p.Channels == nil {
		p.Channels = make(map[Channel]bool, len(Channels))
	}
	for c, on := range parsed {
		p.Channels[c] = on
	}
	return nil
}

// ToMap representación para JSON con todas las claves del enum.
func (p NotificationPreferences) ToMap() map[string]bool {
	out := make(map[string]bool, len(Channels))
	for _, c := range Channels {
		out[string(c)] = p.Channels[c]
	}
	return out
}

// Notification mensaje de la bandeja in-app de un usuario.
type Notification struct {
	ID          string
	CompanyID   string
	UserID      string
	QuotationID string
	Event       string
	Title       string
	Body        string
	ReadAt      *time.Time
	CreatedAt   time.Time
}
