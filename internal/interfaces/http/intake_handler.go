package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/application/intake"
	"github.com/jhoicas/Activos-api/internal/infrastructure/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxUploadBytes tope del archivo de importación.
const maxUploadBytes = 10 << 20

// IntakeHandler importación masiva de activos (protegido).
type IntakeHandler struct {
	uc *intake.UseCase
}

// NewIntakeHandler construye el handler.
func NewIntakeHandler(uc *intake.UseCase) *IntakeHandler {
	return &IntakeHandler{uc: uc}
}

// Intake godoc
// @Summary      Importar activos (JSON)
// @Description  Crea un activo HOLDING por fila válida. Las filas inválidas se reportan sin abortar el lote.
// @Tags         intake
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IntakeRequest  true  "Filas"
// @Success      200   {object}  dto.IntakeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/assets/intake [post]
func (h *IntakeHandler) Intake(c *fiber.Ctx) error {
	var in dto.IntakeRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	for i := range in.Rows {
		if in.Rows[i].Row == 0 {
			in.Rows[i].Row = i + 1
		}
	}
	return h.run(c, in.Rows)
}

// Upload godoc
// @Summary      Importar activos (xlsx)
// @Tags         intake
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Planilla xlsx"
// @Success      200   {object}  dto.IntakeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/assets/intake/upload [post]
func (h *IntakeHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "MISSING_FILE", "campo file requerido")
	}
	if fh.Size > maxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{Code: "FILE_TOO_LARGE", Message: "archivo supera 10 MB"})
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "INVALID_FILE", err.Error())
	}
	defer f.Close()

	rows, err := spreadsheet.Parse(f)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrNoHeader) {
			return badRequest(c, "MISSING_HEADER", err.Error())
		}
		return badRequest(c, "INVALID_FILE", err.Error())
	}
	return h.run(c, rows)
}

// Template godoc
// @Summary      Plantilla de importación
// @Tags         intake
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}  file
// @Router       /api/assets/intake/template [get]
func (h *IntakeHandler) Template(c *fiber.Ctx) error {
	b, err := spreadsheet.ImportTemplate()
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="plantilla_activos.xlsx"`)
	return c.Send(b)
}

func (h *IntakeHandler) run(c *fiber.Ctx, rows []intake.RowRecord) error {
	if len(rows) == 0 {
		return badRequest(c, "VALIDATION", "no hay filas para importar")
	}
	report, err := h.uc.Intake(c.UserContext(), GetUserID(c), rows)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewIntakeResponse(report))
}
