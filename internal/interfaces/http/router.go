package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Activos-api/internal/application/intake"
	"github.com/jhoicas/Activos-api/internal/application/lifecycle"
	"github.com/jhoicas/Activos-api/internal/application/tagging"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Lifecycle *lifecycle.UseCase
	Intake    *intake.UseCase
	Tagging   *tagging.UseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token); las mutaciones solo para ADMIN.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	admin := RequireRole(entity.RoleAdmin)

	assets := protected.Group("/assets")
	assetHandler := NewAssetHandler(deps.Lifecycle, deps.Tagging)
	intakeHandler := NewIntakeHandler(deps.Intake)

	// Rutas estáticas antes de /:id
	assets.Get("/available", assetHandler.ListAvailable)
	assets.Get("/tag-sheet", assetHandler.TagSheet)
	assets.Get("/intake/template", intakeHandler.Template)
	assets.Post("/intake", admin, intakeHandler.Intake)
	assets.Post("/intake/upload", admin, intakeHandler.Upload)
	assets.Post("/bulk-assign", admin, assetHandler.BulkAssign)

	assets.Get("/", assetHandler.List)
	assets.Post("/", admin, assetHandler.Create)
	assets.Get("/:id", assetHandler.GetByID)
	assets.Get("/:id/events", assetHandler.History)
	assets.Post("/:id/transition", admin, assetHandler.Transition)
	assets.Post("/:id/assign", admin, assetHandler.Assign)
	assets.Post("/:id/unassign", admin, assetHandler.Unassign)
	assets.Post("/:id/archive", admin, assetHandler.Archive)
}
