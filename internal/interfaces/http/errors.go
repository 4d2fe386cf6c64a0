package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
)

// errorStatus traduce un error de dominio o del motor a status HTTP y código estable.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, quotation.ErrValidationFailed),
		errors.Is(err, quotation.ErrInvalidLineItem),
		errors.Is(err, quotation.ErrStaleTotals):
		return fiber.StatusUnprocessableEntity, quotation.Code(err)
	case errors.Is(err, quotation.ErrMissingReason):
		return fiber.StatusBadRequest, quotation.Code(err)
	case errors.Is(err, quotation.ErrIllegalTransition),
		errors.Is(err, quotation.ErrTerminalState),
		errors.Is(err, quotation.ErrNotYetExpired):
		return fiber.StatusConflict, quotation.Code(err)
	case errors.Is(err, domain.ErrVersionConflict):
		return fiber.StatusConflict, "VERSION_CONFLICT"
	case errors.Is(err, domain.ErrQuotationLocked):
		return fiber.StatusConflict, "QUOTATION_LOCKED"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUnknownChannel):
		return fiber.StatusBadRequest, "UNKNOWN_CHANNEL"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrEmailAlreadyExists):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// respondError escribe el ErrorResponse. Las violaciones del validador y la línea
// culpable del cálculo viajan en details.
func respondError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	body := dto.ErrorResponse{Code: code, Message: err.Error()}

	var ve *quotation.ValidationError
	var lie *quotation.LineItemError
	switch {
	case errors.As(err, &ve):
		body.Message = quotation.ErrValidationFailed.Error()
		for _, fe := range ve.Errors {
			msg := fe.Message
			if msg == "" {
				msg = fe.Kind.Error()
			}
			body.Details = append(body.Details, dto.FieldIssue{Field: fe.Field, Code: quotation.Code(fe.Kind), Message: msg})
		}
	case errors.As(err, &lie):
		field := "items"
		if lie.Index >= 0 {
			field = itemField(lie.Index, lie.Field)
		}
		body.Details = []dto.FieldIssue{{Field: field, Code: code, Message: lie.Reason}}
	}

	if status == fiber.StatusInternalServerError {
		requestLog(c).Error().Err(err).Msg("error interno")
		body.Message = "error interno"
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler manejador global de fiber: errores no atendidos por los handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
	}
	return respondError(c, err)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
