package http

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/colmado-api/internal/application/catalog"
	"github.com/jhoicas/colmado-api/internal/application/dto"
	"github.com/jhoicas/colmado-api/pkg/logger"
)

// ProductHandler maneja las peticiones HTTP de productos (protegido).
type ProductHandler struct {
	b        *catalog.ProductBuilder
	validate *validator.Validate
	log      *logger.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(b *catalog.ProductBuilder, validate *validator.Validate, log *logger.Logger) *ProductHandler {
	return &ProductHandler{b: b, validate: validate, log: log}
}

// Create godoc
// @Summary      Crear producto con imágenes y categorías
// @Tags         products
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        name          formData  string  true   "Nombre"
// @Param        price         formData  string  true   "Precio"
// @Param        stock         formData  int     true   "Stock"
// @Param        category_ids  formData  string  true   "Categorías (repetido o separado por comas)"
// @Param        images        formData  file    true   "De 1 a 5 imágenes; la primera es la principal"
// @Success      201  {object}  dto.ProductResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "INVALID_BODY", "se espera multipart/form-data")
	}
	price, stock, msg := parsePriceStock(formValue(form, "price"), formValue(form, "stock"))
	if msg != "" {
		return badRequest(c, "VALIDATION", msg)
	}
	images, err := readImages(form, "images")
	if err != nil {
		return badRequest(c, "INVALID_IMAGE", err.Error())
	}

	in := dto.CreateProductRequest{
		ColmadoID:   GetColmadoID(c),
		Name:        formValue(form, "name"),
		Description: formValue(form, "description"),
		Price:       price,
		Stock:       stock,
		CategoryIDs: formList(form, "category_ids"),
		Images:      images,
	}
	if err := h.validate.Struct(in); err != nil {
		return validationError(c, err)
	}

	out, err := h.b.CreateProduct(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.b.GetProduct(c.UserContext(), GetColmadoID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Reemplazar producto (campos, imágenes y categorías)
// @Tags         products
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id               path      string  true   "ID del producto"
// @Param        kept_image_urls  formData  string  false  "URLs que se conservan, en orden"
// @Param        images           formData  file    false  "Imágenes nuevas, van después de las conservadas"
// @Success      200  {object}  dto.ProductResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "INVALID_BODY", "se espera multipart/form-data")
	}
	price, stock, msg := parsePriceStock(formValue(form, "price"), formValue(form, "stock"))
	if msg != "" {
		return badRequest(c, "VALIDATION", msg)
	}
	images, err := readImages(form, "images")
	if err != nil {
		return badRequest(c, "INVALID_IMAGE", err.Error())
	}
	in := dto.UpdateProductRequest{
		Name:          formValue(form, "name"),
		Description:   formValue(form, "description"),
		Price:         price,
		Stock:         stock,
		KeptImageURLs: formList(form, "kept_image_urls"),
		CategoryIDs:   formList(form, "category_ids"),
		NewImages:     images,
	}
	if v := formValue(form, "is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "VALIDATION", "is_active debe ser true o false")
		}
		in.IsActive = &active
	}
	if err := h.validate.Struct(in); err != nil {
		return validationError(c, err)
	}

	out, err := h.b.UpdateProduct(c.UserContext(), GetColmadoID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto
// @Tags         products
// @Security     Bearer
// @Param        id   path  string  true  "ID del producto"
// @Success      204
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.b.DeleteProduct(c.UserContext(), GetColmadoID(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// parsePriceStock convierte los campos numéricos del formulario; los rangos los valida el builder.
// Devuelve un mensaje no vacío si el formato es inválido.
func parsePriceStock(rawPrice, rawStock string) (decimal.Decimal, int, string) {
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return decimal.Zero, 0, "precio inválido"
	}
	stock := 0
	if rawStock != "" {
		if stock, err = strconv.Atoi(rawStock); err != nil {
			return decimal.Zero, 0, "stock inválido"
		}
	}
	return price, stock, ""
}
