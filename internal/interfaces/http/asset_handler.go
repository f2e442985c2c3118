package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/application/lifecycle"
	"github.com/jhoicas/Activos-api/internal/application/tagging"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// AssetHandler maneja las peticiones HTTP del ciclo de vida de activos (protegido).
type AssetHandler struct {
	uc      *lifecycle.UseCase
	tagging *tagging.UseCase
}

// NewAssetHandler construye el handler.
func NewAssetHandler(uc *lifecycle.UseCase, tg *tagging.UseCase) *AssetHandler {
	return &AssetHandler{uc: uc, tagging: tg}
}

// assetIDParam copia el :id de la ruta. Fiber reutiliza el buffer del Ctx al terminar la petición
// y el ID puede quedar retenido (candado por activo, eventos publicados).
func assetIDParam(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

// List godoc
// @Summary      Listar activos
// @Tags         assets
// @Security     Bearer
// @Produce      json
// @Param        state             query  string  false  "Estados separados por coma (AVAILABLE,ISSUED)"
// @Param        type              query  string  false  "Tipo de activo"
// @Param        location_id       query  string  false  "Sede"
// @Param        assigned_user_id  query  string  false  "Usuario asignado"
// @Param        include_archived  query  bool    false  "Incluir archivados"
// @Param        limit             query  int     false  "Límite (default 20, máx 100)"
// @Param        offset            query  int     false  "Offset"
// @Success      200  {object}  dto.AssetListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/assets [get]
func (h *AssetHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	_ = c.QueryParser(&page)
	page.DefaultPage()

	filter := entity.AssetFilter{
		LocationID:      c.Query("location_id"),
		AssignedUserID:  c.Query("assigned_user_id"),
		IncludeArchived: c.QueryBool("include_archived", false),
		Limit:           page.Limit,
		Offset:          page.Offset,
	}
	if raw := c.Query("state"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, ok := entity.ParseAssetState(part)
			if !ok {
				return badRequest(c, "VALIDATION", "estado desconocido: "+strings.TrimSpace(part))
			}
			filter.States = append(filter.States, st)
		}
	}
	if raw := c.Query("type"); raw != "" {
		t, ok := entity.ParseAssetType(raw)
		if !ok {
			return badRequest(c, "UNKNOWN_ASSET_TYPE", "tipo de activo desconocido: "+raw)
		}
		filter.Type = &t
	}

	list, err := h.uc.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AssetListResponse{
		Items: dto.NewAssetResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// ListAvailable godoc
// @Summary      Activos disponibles para asignar
// @Tags         assets
// @Security     Bearer
// @Produce      json
// @Param        type  query  string  false  "Tipo de activo"
// @Success      200  {array}   dto.AssetResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/assets/available [get]
func (h *AssetHandler) ListAvailable(c *fiber.Ctx) error {
	var typ *entity.AssetType
	if raw := c.Query("type"); raw != "" {
		t, ok := entity.ParseAssetType(raw)
		if !ok {
			return badRequest(c, "UNKNOWN_ASSET_TYPE", "tipo de activo desconocido: "+raw)
		}
		typ = &t
	}
	list, err := h.uc.ListAvailable(c.UserContext(), typ)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewAssetResponses(list))
}

// GetByID godoc
// @Summary      Obtener activo por ID
// @Tags         assets
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del activo"
// @Success      200  {object}  dto.AssetResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/assets/{id} [get]
func (h *AssetHandler) GetByID(c *fiber.Ctx) error {
	a, err := h.uc.Get(c.UserContext(), assetIDParam(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewAssetResponse(a))
}

// History godoc
// @Summary      Historial de eventos del activo
// @Tags         assets
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del activo"
// @Param        limit   query  int     false  "Límite (default 20, máx 100)"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  dto.AssignmentEventListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/assets/{id}/events [get]
func (h *AssetHandler) History(c *fiber.Ctx) error {
	var page dto.PageRequest
	_ = c.QueryParser(&page)
	page.DefaultPage()

	events, err := h.uc.History(c.UserContext(), assetIDParam(c), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AssignmentEventListResponse{
		Items: dto.NewAssignmentEventResponses(events),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Create godoc
// @Summary      Registrar activo
// @Tags         assets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAssetRequest  true  "Datos del activo"
// @Success      201   {object}  dto.AssetResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/assets [post]
func (h *AssetHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAssetRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if strings.TrimSpace(in.Type) == "" {
		return badRequest(c, "VALIDATION", "type es requerido")
	}
	a, err := h.uc.Create(c.UserContext(), lifecycle.CreateAssetInput{
		AssetNumber:   in.AssetNumber,
		Type:          in.Type,
		SerialNumber:  in.SerialNumber,
		Description:   in.Description,
		PurchasePrice: in.PurchasePrice,
		LocationID:    in.LocationID,
		Actor:         GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAssetResponse(a))
}

// Transition godoc
// @Summary      Cambiar estado del activo
// @Tags         assets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del activo"
// @Param        body  body  dto.TransitionRequest  true  "Estado destino"
// @Success      200   {object}  dto.AssetResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/assets/{id}/transition [post]
func (h *AssetHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	target, ok := entity.ParseAssetState(in.TargetState)
	if !ok {
		return badRequest(c, "VALIDATION", "target_state desconocido")
	}
	a, err := h.uc.TransitionState(c.UserContext(), lifecycle.TransitionInput{
		AssetID:    assetIDParam(c),
		Target:     target,
		AssigneeID: in.AssigneeID,
		Actor:      GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewAssetResponse(a))
}

// Assign godoc
// @Summary      Asignar activo a un usuario
// @Tags         assets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID del activo"
// @Param        body  body  dto.AssignRequest  true  "Usuario"
// @Success      200   {object}  dto.AssetResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/assets/{id}/assign [post]
func (h *AssetHandler) Assign(c *fiber.Ctx) error {
	var in dto.AssignRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.UserID == "" {
		return badRequest(c, "VALIDATION", "user_id es requerido")
	}
	a, err := h.uc.Assign(c.UserContext(), assetIDParam(c), in.UserID, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewAssetResponse(a))
}

// Unassign godoc
// @Summary      Devolver activo
// @Tags         assets
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del activo"
// @Success      200  {object}  dto.AssetResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/assets/{id}/unassign [post]
func (h *AssetHandler) Unassign(c *fiber.Ctx) error {
	a, err := h.uc.Unassign(c.UserContext(), assetIDParam(c), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewAssetResponse(a))
}

// Archive godoc
// @Summary      Archivar activo
// @Tags         assets
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del activo"
// @Success      200  {object}  dto.AssetResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/assets/{id}/archive [post]
func (h *AssetHandler) Archive(c *fiber.Ctx) error {
	a, err := h.uc.Archive(c.UserContext(), assetIDParam(c), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewAssetResponse(a))
}

// BulkAssign godoc
// @Summary      Asignación masiva
// @Description  Asigna cada activo de forma independiente. Devuelve éxitos, fallas por activo y los disponibles actualizados.
// @Tags         assets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkAssignRequest  true  "Activos y usuario"
// @Success      200   {object}  dto.BulkAssignResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/assets/bulk-assign [post]
func (h *AssetHandler) BulkAssign(c *fiber.Ctx) error {
	var in dto.BulkAssignRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.UserID == "" {
		return badRequest(c, "VALIDATION", "user_id es requerido")
	}
	input := lifecycle.BulkAssignInput{
		AssetIDs: in.AssetIDs,
		UserID:   in.UserID,
		Actor:    GetUserID(c),
	}
	if in.Type != "" {
		t, ok := entity.ParseAssetType(in.Type)
		if !ok {
			return badRequest(c, "UNKNOWN_ASSET_TYPE", "tipo de activo desconocido: "+in.Type)
		}
		input.Type = &t
	}
	res, err := h.uc.BulkAssign(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewBulkAssignResponse(res))
}

// TagSheet godoc
// @Summary      Hoja de etiquetas QR (PDF)
// @Description  Sin ids genera las etiquetas de los activos en HOLDING.
// @Tags         assets
// @Security     Bearer
// @Produce      application/pdf
// @Param        ids  query  string  false  "IDs separados por coma"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/assets/tag-sheet [get]
func (h *AssetHandler) TagSheet(c *fiber.Ctx) error {
	var ids []string
	for _, id := range strings.Split(c.Query("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	pdf, err := h.tagging.TagSheet(c.UserContext(), tagging.TagSheetInput{AssetIDs: ids})
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="etiquetas.pdf"`)
	return c.Send(pdf)
}
