package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/application/quoting"
)

// PublicHandler enlace público que recibe el cliente; el token es la credencial.
type PublicHandler struct {
	uc *quoting.QuotationUseCase
}

// NewPublicHandler construye el handler.
func NewPublicHandler(uc *quoting.QuotationUseCase) *PublicHandler {
	return &PublicHandler{uc: uc}
}

// View godoc
// @Summary      Ver cotización desde el enlace público
// @Description  La primera apertura de una cotización enviada la marca como vista y avisa al vendedor.
// @Tags         public
// @Produce      json
// @Param        token  path  string  true  "token del enlace"
// @Success      200    {object}  dto.QuotationResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Failure      429    {object}  dto.ErrorResponse
// @Router       /api/public/quotations/{token} [get]
func (h *PublicHandler) View(c *fiber.Ctx) error {
	out, err := h.uc.ViewPublic(c.UserContext(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Accept POST /api/public/quotations/:token/accept
func (h *PublicHandler) Accept(c *fiber.Ctx) error {
	out, err := h.uc.AcceptPublic(c.UserContext(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Reject godoc
// @Summary      Rechazar cotización desde el enlace público
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        token  path  string             true  "token del enlace"
// @Param        body   body  dto.ReasonRequest  true  "motivo obligatorio"
// @Success      200    {object}  dto.QuotationResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Failure      409    {object}  dto.ErrorResponse
// @Router       /api/public/quotations/{token}/reject [post]
func (h *PublicHandler) Reject(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.RejectPublic(c.UserContext(), c.Params("token"), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
