package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// los details usan el nombre JSON del campo
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// parseBody decodifica el JSON y aplica las reglas validate del DTO.
// Si devuelve false la respuesta de error ya fue escrita.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: "la solicitud tiene campos inválidos",
			Details: validationIssues(err),
		})
	}
	return true, nil
}

func validationIssues(err error) []dto.FieldIssue {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []dto.FieldIssue{{Field: "", Code: "INVALID", Message: err.Error()}}
	}
	out := make([]dto.FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		// quita el nombre del struct raíz: CreateQuotationRequest.items[0].quantity -> items[0].quantity
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		msg := fe.Tag()
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		out = append(out, dto.FieldIssue{Field: field, Code: strings.ToUpper(fe.Tag()), Message: msg})
	}
	return out
}

// pageQuery lee limit/offset con valores por defecto.
func pageQuery(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}

func itemField(index int, field string) string {
	return fmt.Sprintf("items[%d].%s", index, field)
}
