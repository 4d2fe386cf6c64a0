package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/Cotizador-api/internal/application/analytics"
	"github.com/jhoicas/Cotizador-api/internal/domain"
)

// DashboardHandler maneja los endpoints del módulo de Dashboard.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetQuotationSummary conteos y montos por estado y tasa de aceptación.
// GET /api/dashboard/quotations?from=2026-03-01&to=2026-03-31
//
// Sin parámetros se usa el mes en curso; el rango máximo es de un año.
func (h *DashboardHandler) GetQuotationSummary(c *fiber.Ctx) error {
	from, err := dateQuery(c, "from")
	if err != nil {
		return respondError(c, err)
	}
	to, err := dateQuery(c, "to")
	if err != nil {
		return respondError(c, err)
	}
	if to != nil {
		// to incluye el día completo
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}
	out, err := h.uc.GetQuotationSummary(c.UserContext(), GetCompanyID(c), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func dateQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s debe tener formato YYYY-MM-DD", domain.ErrInvalidInput, key)
	}
	return &t, nil
}
