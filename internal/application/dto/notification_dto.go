package dto

import "time"

// PreferencesResponse canales activos del dueño.
type PreferencesResponse struct {
	OwnerID   string          `json:"owner_id"`
	Channels  map[string]bool `json:"channels"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// UpdatePreferencesRequest claves de canal -> activo. Claves desconocidas se rechazan.
type UpdatePreferencesRequest struct {
	Channels map[string]bool `json:"channels" validate:"required"`
}

// NotificationResponse mensaje de la bandeja in-app.
type NotificationResponse struct {
	ID          string     `json:"id"`
	QuotationID string     `json:"quotation_id,omitempty"`
	Event       string     `json:"event"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NotificationListResponse bandeja paginada.
type NotificationListResponse struct {
	Items []NotificationResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}
