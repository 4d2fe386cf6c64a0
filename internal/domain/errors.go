package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// ErrVersionConflict indica que otro escritor modificó el registro entre la lectura y la escritura
	// (la columna version ya no coincide). El caller debe recargar y volver a validar.
	ErrVersionConflict = errors.New("el registro fue modificado por otra operación")
	// ErrQuotationLocked: los ítems de una cotización solo se editan en estado draft.
	ErrQuotationLocked = errors.New("la cotización ya no está en borrador")
	// ErrUnknownChannel: clave de canal de notificación no reconocida.
	ErrUnknownChannel = errors.New("canal de notificación desconocido")
)
