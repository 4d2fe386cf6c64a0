package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/application/notification"
)

// NotificationHandler preferencias de canal y bandeja in-app.
type NotificationHandler struct {
	prefs *notification.PreferenceService
	inbox *notification.Inbox
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(prefs *notification.PreferenceService, inbox *notification.Inbox) *NotificationHandler {
	return &NotificationHandler{prefs: prefs, inbox: inbox}
}

// GetMyPreferences GET /api/notifications/preferences
func (h *NotificationHandler) GetMyPreferences(c *fiber.Ctx) error {
	return h.getPreferences(c, GetUserID(c))
}

// UpdateMyPreferences PUT /api/notifications/preferences
//
// Body: {"channels": {"email": true, "push": false}}. Una clave fuera de
// email/in_app/push responde 400 unknown_channel y no cambia nada.
func (h *NotificationHandler) UpdateMyPreferences(c *fiber.Ctx) error {
	return h.updatePreferences(c, GetUserID(c))
}

// GetCompanyPreferences GET /api/notifications/preferences/company
// Canales con los que se notifica a los clientes de la empresa.
func (h *NotificationHandler) GetCompanyPreferences(c *fiber.Ctx) error {
	return h.getPreferences(c, GetCompanyID(c))
}

// UpdateCompanyPreferences PUT /api/notifications/preferences/company (admin)
func (h *NotificationHandler) UpdateCompanyPreferences(c *fiber.Ctx) error {
	return h.updatePreferences(c, GetCompanyID(c))
}

func (h *NotificationHandler) getPreferences(c *fiber.Ctx, ownerID string) error {
	if ownerID == "" {
		return unauthorized(c)
	}
	out, err := h.prefs.Get(c.UserContext(), ownerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *NotificationHandler) updatePreferences(c *fiber.Ctx, ownerID string) error {
	if ownerID == "" {
		return unauthorized(c)
	}
	var in dto.UpdatePreferencesRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.prefs.Update(c.UserContext(), ownerID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List GET /api/notifications?unread=true&limit=20&offset=0
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	out, err := h.inbox.List(c.UserContext(), GetCompanyID(c), GetUserID(c), c.QueryBool("unread", false), pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// MarkRead POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.inbox.MarkRead(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
