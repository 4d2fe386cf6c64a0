package quotation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// Taxonomía de errores del motor de cotizaciones.
var (
	ErrInvalidLineItem   = errors.New("línea de cotización inválida")
	ErrStaleTotals       = errors.New("los totales guardados no coinciden con el cálculo")
	ErrIllegalTransition = errors.New("transición de estado no permitida")
	ErrValidationFailed  = errors.New("la cotización no pasó la validación")
	ErrNotYetExpired     = errors.New("la cotización aún está vigente")
	ErrMissingReason     = errors.New("se requiere un motivo")
	ErrTerminalState     = errors.New("la cotización está en un estado final")

	// Violaciones de campos que solo reporta el validador.
	ErrMissingClient   = errors.New("la cotización no tiene cliente")
	ErrNoLineItems     = errors.New("la cotización no tiene líneas")
	ErrInvalidValidity = errors.New("la fecha de vigencia debe ser posterior a la creación")
)

// LineItemError identifica la línea y el campo que hicieron fallar el cálculo.
// Index es -1 cuando el problema es la lista completa (vacía).
type LineItemError struct {
	Index  int
	Field  string
	Reason string
}

func (e *LineItemError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidLineItem, e.Reason)
	}
	return fmt.Sprintf("%s: items[%d].%s %s", ErrInvalidLineItem, e.Index, e.Field, e.Reason)
}

func (e *LineItemError) Unwrap() error { return ErrInvalidLineItem }

// TransitionError rechazo de una transición. Kind es uno de ErrIllegalTransition,
// ErrTerminalState, ErrNotYetExpired o ErrMissingReason.
type TransitionError struct {
	From entity.QuotationStatus
	To   entity.QuotationStatus
	Kind error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s (%s -> %s)", e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return e.Kind }

// FieldError una violación detectada por Validate.
type FieldError struct {
	Field   string
	Kind    error
	Message string
}

func (e FieldError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e FieldError) Unwrap() error { return e.Kind }

// ValidationError draft→sent rechazado: lleva la lista completa de violaciones.
type ValidationError struct {
	From   entity.QuotationStatus
	To     entity.QuotationStatus
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// Has indica si alguna violación es del tipo kind.
func (e *ValidationError) Has(kind error) bool {
	for _, fe := range e.Errors {
		if errors.Is(fe.Kind, kind) {
			return true
		}
	}
	return false
}

// Code código estable (mayúsculas, como el resto de la API) para exponer el error a clientes de la API.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidLineItem):
		return "INVALID_LINE_ITEM"
	case errors.Is(err, ErrStaleTotals):
		return "STALE_TOTALS"
	case errors.Is(err, ErrIllegalTransition):
		return "ILLEGAL_TRANSITION"
	case errors.Is(err, ErrValidationFailed):
		return "VALIDATION_FAILED"
	case errors.Is(err, ErrNotYetExpired):
		return "NOT_YET_EXPIRED"
	case errors.Is(err, ErrMissingReason):
		return "MISSING_REASON"
	case errors.Is(err, ErrTerminalState):
		return "TERMINAL_STATE"
	case errors.Is(err, ErrMissingClient):
		return "MISSING_CLIENT"
	case errors.Is(err, ErrNoLineItems):
		return "NO_LINE_ITEMS"
	case errors.Is(err, ErrInvalidValidity):
		return "INVALID_VALIDITY"
	}
	return "UNKNOWN"
}
