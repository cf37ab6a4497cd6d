package http

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/colmado-api/internal/application/dto"
	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/pkg/logger"
)

// statusFor mapea la clase de error a estado HTTP y código. El orden importa: una falla
// dependiente puede envolver un duplicado o una clave foránea como causa.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrCategoryAssignmentFailed):
		return fiber.StatusUnprocessableEntity, "CATEGORY_ASSIGNMENT_FAILED"
	case errors.Is(err, domain.ErrImageUploadFailed):
		return fiber.StatusUnprocessableEntity, "IMAGE_UPLOAD_FAILED"
	case errors.Is(err, domain.ErrImageAssignmentFailed):
		return fiber.StatusUnprocessableEntity, "IMAGE_ASSIGNMENT_FAILED"
	case errors.Is(err, domain.ErrAssociationFailed):
		return fiber.StatusUnprocessableEntity, "ASSOCIATION_FAILED"
	case errors.Is(err, domain.ErrUpdateIncomplete):
		return fiber.StatusInternalServerError, "UPDATE_INCOMPLETE"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrForeignKey):
		return fiber.StatusUnprocessableEntity, "INVALID_REFERENCE"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusServiceUnavailable, "BACKEND_UNAVAILABLE"
	case errors.Is(err, context.Canceled):
		return fiber.StatusRequestTimeout, "CANCELLED"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// writeError responde con el mensaje apto para el usuario; el error crudo solo va al log.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, code := statusFor(err)
	ev := log.Warn()
	if status >= fiber.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", status).Msg("request fallido")
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: domain.UserMessage(err)})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// validationError traduce el primer error del validador a una respuesta 400.
func validationError(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return badRequest(c, "VALIDATION", "campo inválido: "+verrs[0].Field()+" ("+verrs[0].Tag()+")")
	}
	return badRequest(c, "VALIDATION", "datos inválidos")
}
