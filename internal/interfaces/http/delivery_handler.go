package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/colmado-api/internal/application/delivery"
	"github.com/jhoicas/colmado-api/internal/application/dto"
	"github.com/jhoicas/colmado-api/pkg/logger"
)

// DeliveryHandler maneja los repartidores de un colmado (solo el dueño).
type DeliveryHandler struct {
	b        *delivery.DeliveryBuilder
	validate *validator.Validate
	log      *logger.Logger
}

// NewDeliveryHandler construye el handler.
func NewDeliveryHandler(b *delivery.DeliveryBuilder, validate *validator.Validate, log *logger.Logger) *DeliveryHandler {
	return &DeliveryHandler{b: b, validate: validate, log: log}
}

// Create godoc
// @Summary      Crear repartidor y asociarlo al colmado
// @Tags         deliveries
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        colmadoId  path      string  true   "ID del colmado"
// @Param        email      formData  string  true   "Email"
// @Param        password   formData  string  true   "Contraseña (mínimo 6)"
// @Param        nombre     formData  string  true   "Nombre"
// @Param        avatar     formData  file    false  "Avatar"
// @Success      201  {object}  dto.DeliveryResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/colmados/{colmadoId}/deliveries [post]
func (h *DeliveryHandler) Create(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "INVALID_BODY", "se espera multipart/form-data")
	}
	in := dto.CreateDeliveryRequest{
		Email:     formValue(form, "email"),
		Password:  formValue(form, "password"),
		Nombre:    formValue(form, "nombre"),
		ColmadoID: c.Params("colmadoId"),
	}
	if files := form.File["avatar"]; len(files) > 0 {
		img, err := readImage(files[0])
		if err != nil {
			return badRequest(c, "INVALID_IMAGE", err.Error())
		}
		in.Avatar = &img
	}
	if err := h.validate.Struct(in); err != nil {
		return validationError(c, err)
	}

	out, err := h.b.CreateDelivery(c.UserContext(), GetAccessToken(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar repartidores del colmado
// @Tags         deliveries
// @Security     Bearer
// @Produce      json
// @Param        colmadoId  path  string  true  "ID del colmado"
// @Success      200  {object}  dto.DeliveryListResponse
// @Router       /api/colmados/{colmadoId}/deliveries [get]
func (h *DeliveryHandler) List(c *fiber.Ctx) error {
	out, err := h.b.ListDeliveries(c.UserContext(), c.Params("colmadoId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Cambiar nombre y/o avatar del repartidor
// @Tags         deliveries
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        colmadoId  path      string  true   "ID del colmado"
// @Param        userId     path      string  true   "ID del repartidor"
// @Param        nombre     formData  string  false  "Nombre"
// @Param        avatar     formData  file    false  "Avatar"
// @Success      200  {object}  dto.DeliveryResponse
// @Router       /api/colmados/{colmadoId}/deliveries/{userId} [patch]
func (h *DeliveryHandler) Update(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "INVALID_BODY", "se espera multipart/form-data")
	}
	var in dto.UpdateDeliveryRequest
	if v, ok := form.Value["nombre"]; ok && len(v) > 0 {
		nombre := formValue(form, "nombre")
		in.Nombre = &nombre
	}
	if files := form.File["avatar"]; len(files) > 0 {
		img, err := readImage(files[0])
		if err != nil {
			return badRequest(c, "INVALID_IMAGE", err.Error())
		}
		in.Avatar = &img
	}
	if err := h.validate.Struct(in); err != nil {
		return validationError(c, err)
	}

	out, err := h.b.UpdateDelivery(c.UserContext(), c.Params("userId"), c.Params("colmadoId"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Enable godoc
// @Summary      Reactivar repartidor
// @Tags         deliveries
// @Security     Bearer
// @Success      200  {object}  dto.DeliveryResponse
// @Router       /api/colmados/{colmadoId}/deliveries/{userId}/enable [post]
func (h *DeliveryHandler) Enable(c *fiber.Ctx) error {
	out, err := h.b.EnableDelivery(c.UserContext(), c.Params("userId"), c.Params("colmadoId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Disable godoc
// @Summary      Desactivar repartidor
// @Tags         deliveries
// @Security     Bearer
// @Success      200  {object}  dto.DeliveryResponse
// @Router       /api/colmados/{colmadoId}/deliveries/{userId}/disable [post]
func (h *DeliveryHandler) Disable(c *fiber.Ctx) error {
	out, err := h.b.DisableDelivery(c.UserContext(), c.Params("userId"), c.Params("colmadoId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Remove godoc
// @Summary      Quitar repartidor del colmado (la cuenta se conserva)
// @Tags         deliveries
// @Security     Bearer
// @Success      204
// @Router       /api/colmados/{colmadoId}/deliveries/{userId} [delete]
func (h *DeliveryHandler) Remove(c *fiber.Ctx) error {
	if err := h.b.RemoveDeliveryFromColmado(c.UserContext(), c.Params("userId"), c.Params("colmadoId")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
