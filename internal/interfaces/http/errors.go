package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/domain"
)

// statusByCode estado HTTP por código de dominio. Lo no listado es 500.
var statusByCode = map[string]int{
	domain.CodeValidation:         fiber.StatusBadRequest,
	domain.CodeUnknownAssetType:   fiber.StatusBadRequest,
	domain.CodeNotFound:           fiber.StatusNotFound,
	domain.CodeUserNotFound:       fiber.StatusNotFound,
	domain.CodeUnauthorized:       fiber.StatusUnauthorized,
	domain.CodeForbidden:          fiber.StatusForbidden,
	domain.CodeDuplicate:          fiber.StatusConflict,
	domain.CodeInvalidTransition:  fiber.StatusConflict,
	domain.CodeAssetArchived:      fiber.StatusConflict,
	domain.CodeMissingAssignee:    fiber.StatusConflict,
	domain.CodeAssigneeNotCleared: fiber.StatusConflict,
	domain.CodeAssetInUse:         fiber.StatusConflict,
	domain.CodeAlreadyAssigned:    fiber.StatusConflict,
	domain.CodeAssetNotAvailable:  fiber.StatusConflict,
	domain.CodeNotAssigned:        fiber.StatusConflict,
}

// writeError responde {code, message} con el estado correspondiente al error de dominio.
func writeError(c *fiber.Ctx, err error) error {
	code := domain.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
