package domain

import (
	"context"
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrUserNotFound     = errors.New("usuario no encontrado o inactivo")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrDuplicate        = errors.New("recurso duplicado")
	ErrUnauthorized     = errors.New("no autorizado")
	ErrForbidden        = errors.New("acceso denegado")
	ErrUnknownAssetType = errors.New("tipo de activo desconocido")

	// Ciclo de vida del activo.
	ErrInvalidTransition  = errors.New("transición de estado no permitida")
	ErrAssetArchived      = errors.New("el activo está archivado")
	ErrMissingAssignee    = errors.New("el estado destino requiere un usuario asignado")
	ErrAssigneeNotCleared = errors.New("el estado destino no admite usuario asignado")
	ErrAssetInUse         = errors.New("el activo está asignado; debe devolverse primero")

	// Asignación.
	ErrAlreadyAssigned   = errors.New("el activo ya fue asignado a otro usuario")
	ErrAssetNotAvailable = errors.New("el activo no está disponible para asignar")
	ErrNotAssigned       = errors.New("el activo no está asignado")
)

// TransitionError detalla una transición rechazada por la tabla de estados.
// errors.Is(err, ErrInvalidTransition) es verdadero.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition.Error(), e.From, e.To)
}

// Is permite comparar con ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Códigos estables para respuestas HTTP y reportes por lote.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeValidation         = "VALIDATION"
	CodeDuplicate          = "DUPLICATE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeUnknownAssetType   = "UNKNOWN_ASSET_TYPE"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeAssetArchived      = "ASSET_ARCHIVED"
	CodeMissingAssignee    = "MISSING_ASSIGNEE"
	CodeAssigneeNotCleared = "ASSIGNEE_NOT_CLEARED"
	CodeAssetInUse         = "ASSET_IN_USE"
	CodeAlreadyAssigned    = "ALREADY_ASSIGNED"
	CodeAssetNotAvailable  = "ASSET_NOT_AVAILABLE"
	CodeNotAssigned        = "NOT_ASSIGNED"
	CodeCancelled          = "CANCELLED"
	CodeInternal           = "INTERNAL"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrNotFound, CodeNotFound},
	{ErrUserNotFound, CodeUserNotFound},
	{ErrInvalidInput, CodeValidation},
	{ErrDuplicate, CodeDuplicate},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrForbidden, CodeForbidden},
	{ErrUnknownAssetType, CodeUnknownAssetType},
	{ErrInvalidTransition, CodeInvalidTransition},
	{ErrAssetArchived, CodeAssetArchived},
	{ErrMissingAssignee, CodeMissingAssignee},
	{ErrAssigneeNotCleared, CodeAssigneeNotCleared},
	{ErrAssetInUse, CodeAssetInUse},
	{ErrAlreadyAssigned, CodeAlreadyAssigned},
	{ErrAssetNotAvailable, CodeAssetNotAvailable},
	{ErrNotAssigned, CodeNotAssigned},
}

// Code traduce un error de dominio a su código estable. Errores no reconocidos
// (fallas de infraestructura) devuelven CodeInternal.
func Code(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancelled
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
