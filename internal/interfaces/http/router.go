package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/colmado-api/internal/application/catalog"
	"github.com/jhoicas/colmado-api/internal/application/delivery"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
	"github.com/jhoicas/colmado-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Products   *catalog.ProductBuilder
	Deliveries *delivery.DeliveryBuilder
	JWTSecret  string
	AppName    string
	Log        *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("http")
	validate := validator.New(validator.WithRequiredStructEnabled())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	// Todas las rutas de /api requieren Bearer Token de Supabase
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Products del colmado del token: lectura para cualquier miembro, escritura solo el dueño
	products := api.Group("/products", RequireColmadoClaim())
	productHandler := NewProductHandler(deps.Products, validate, log)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", RequireRole(entity.RoleOwner), productHandler.Create)
	products.Put("/:id", RequireRole(entity.RoleOwner), productHandler.Update)
	products.Delete("/:id", RequireRole(entity.RoleOwner), productHandler.Delete)

	// Deliveries del colmado del token (solo el dueño). Los guards van por ruta
	// porque leen :colmadoId.
	deliveries := api.Group("/colmados/:colmadoId/deliveries")
	deliveryHandler := NewDeliveryHandler(deps.Deliveries, validate, log)
	owner := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{RequireRole(entity.RoleOwner), RequireColmado("colmadoId"), h}
	}
	deliveries.Post("/", owner(deliveryHandler.Create)...)
	deliveries.Get("/", owner(deliveryHandler.List)...)
	deliveries.Patch("/:userId", owner(deliveryHandler.Update)...)
	deliveries.Post("/:userId/enable", owner(deliveryHandler.Enable)...)
	deliveries.Post("/:userId/disable", owner(deliveryHandler.Disable)...)
	deliveries.Delete("/:userId", owner(deliveryHandler.Remove)...)
}
