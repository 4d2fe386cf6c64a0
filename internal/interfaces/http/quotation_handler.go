package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/application/quoting"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// QuotationHandler cotizaciones de la empresa autenticada.
type QuotationHandler struct {
	uc *quoting.QuotationUseCase
}

// NewQuotationHandler construye el handler.
func NewQuotationHandler(uc *quoting.QuotationUseCase) *QuotationHandler {
	return &QuotationHandler{uc: uc}
}

// Create godoc
// @Summary      Crear cotización en borrador
// @Description  Calcula totales con la política de la empresa y asigna el número consecutivo.
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateQuotationRequest  true  "cliente, líneas, vigencia"
// @Success      201   {object}  dto.QuotationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/quotations [post]
func (h *QuotationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateQuotationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List GET /api/quotations?status=sent&customer_id=&limit=20&offset=0
func (h *QuotationHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), c.Query("status"), c.Query("customer_id"), pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/quotations/:id
func (h *QuotationHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar borrador
// @Description  Solo en draft. version debe coincidir con la última leída (409 si no).
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "id"
// @Param        body  body  dto.UpdateQuotationRequest  true  "cambios"
// @Success      200   {object}  dto.QuotationResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/quotations/{id} [put]
func (h *QuotationHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateQuotationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.UpdateDraft(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Transition POST /api/quotations/:id/{send,accept,reject,cancel,expire}
//
// reject exige {"reason": "..."}; cancel lo acepta opcional.
func (h *QuotationHandler) Transition(target entity.QuotationStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, companyID, id := c.UserContext(), GetCompanyID(c), c.Params("id")

		var in dto.ReasonRequest
		if len(c.Body()) > 0 {
			if ok, err := parseBody(c, &in); !ok {
				return err
			}
		}

		var (
			out *dto.TransitionResponse
			err error
		)
		switch target {
		case entity.QuotationStatusSent:
			out, err = h.uc.Send(ctx, companyID, id)
		case entity.QuotationStatusAccepted:
			out, err = h.uc.Accept(ctx, companyID, id)
		case entity.QuotationStatusRejected:
			out, err = h.uc.Reject(ctx, companyID, id, in.Reason)
		case entity.QuotationStatusCancelled:
			out, err = h.uc.Cancel(ctx, companyID, id, in.Reason)
		case entity.QuotationStatusExpired:
			out, err = h.uc.Expire(ctx, companyID, id)
		default:
			return fiber.ErrNotFound
		}
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	}
}

// Revise POST /api/quotations/:id/revise: nuevo borrador con las líneas de una cotización emitida.
func (h *QuotationHandler) Revise(c *fiber.Ctx) error {
	out, err := h.uc.Revise(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// PDF GET /api/quotations/:id/pdf
func (h *QuotationHandler) PDF(c *fiber.Ctx) error {
	b, filename, err := h.uc.RenderPDF(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(b)
}

// UBL GET /api/quotations/:id/ubl. El digest canónico va en X-Document-Digest.
func (h *QuotationHandler) UBL(c *fiber.Ctx) error {
	b, filename, digest, err := h.uc.ExportUBL(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Set("X-Document-Digest", "sha-256="+digest)
	return c.Send(b)
}
