package domain

import (
	"context"
	"errors"
	"fmt"
)

// Clases de error de los flujos de armado de entidades (sin dependencias externas).
var (
	// ErrValidation rechazo previo a cualquier escritura remota.
	ErrValidation = errors.New("entrada inválida")
	// ErrPartialUpload subida de imagen/avatar fallida; no fatal, degrada el resultado.
	ErrPartialUpload = errors.New("subida parcial")
	// ErrDependentInsert escritura hija fallida; fatal, dispara compensación.
	ErrDependentInsert = errors.New("no se pudo completar el registro dependiente")
	// ErrNotYetVisible la vista compuesta aún no refleja la escritura; nunca llega al usuario.
	ErrNotYetVisible = errors.New("todavía no visible")
	ErrTransport     = errors.New("error de conexión con el servidor")
	ErrDuplicate     = errors.New("recurso duplicado")
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrForeignKey    = errors.New("referencia inexistente")
	ErrUnauthorized  = errors.New("no autorizado")
)

// Errores de validación.
var (
	ErrImageCountInvalid    = fmt.Errorf("%w: el producto debe tener entre 1 y 5 imágenes", ErrValidation)
	ErrCategoryCountMissing = fmt.Errorf("%w: el producto debe tener al menos una categoría", ErrValidation)
	ErrInvalidPrice         = fmt.Errorf("%w: el precio debe ser mayor que cero", ErrValidation)
	ErrInvalidStock         = fmt.Errorf("%w: el stock no puede ser negativo", ErrValidation)
	ErrNameRequired         = fmt.Errorf("%w: el nombre es obligatorio", ErrValidation)
)

// Fallas de inserciones dependientes.
var (
	ErrCategoryAssignmentFailed = fmt.Errorf("%w: asignación de categorías", ErrDependentInsert)
	ErrImageAssignmentFailed    = fmt.Errorf("%w: registro de imágenes", ErrDependentInsert)
	ErrImageUploadFailed        = fmt.Errorf("%w: ninguna imagen pudo subirse", ErrDependentInsert)
	ErrAssociationFailed        = fmt.Errorf("%w: asociación con el colmado", ErrDependentInsert)
)

// ErrUpdateIncomplete la actualización quedó a medias (sin compensación posible).
var ErrUpdateIncomplete = errors.New("la actualización quedó incompleta")

// Wrap une una clase de error con su causa conservando ambas para errors.Is.
func Wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// UserMessage colapsa cualquier error al mensaje que ve el llamador final.
// Los errores crudos del backend nunca se devuelven tal cual.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return validationMessage(err)
	case errors.Is(err, ErrCategoryAssignmentFailed):
		return "no se pudieron asignar las categorías; el producto no fue creado"
	case errors.Is(err, ErrImageUploadFailed):
		return "no se pudo subir ninguna imagen; el producto no fue creado"
	case errors.Is(err, ErrImageAssignmentFailed):
		return "no se pudieron registrar las imágenes; el producto no fue creado"
	case errors.Is(err, ErrAssociationFailed):
		return "el usuario fue creado pero no se pudo asociar al colmado; intente asignarlo de nuevo"
	case errors.Is(err, ErrUpdateIncomplete):
		return "la actualización quedó incompleta; revise imágenes y categorías"
	case errors.Is(err, ErrDuplicate):
		return "ya existe un registro con esos datos"
	case errors.Is(err, ErrNotFound):
		return "recurso no encontrado"
	case errors.Is(err, ErrForeignKey):
		return "una de las referencias indicadas no existe"
	case errors.Is(err, ErrUnauthorized):
		return "no autorizado"
	case errors.Is(err, ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return "no hay conexión con el servidor; verifique su conexión e intente de nuevo"
	case errors.Is(err, context.Canceled):
		return "la operación fue cancelada"
	default:
		return "ocurrió un error inesperado"
	}
}

func validationMessage(err error) string {
	for _, v := range []error{ErrImageCountInvalid, ErrCategoryCountMissing, ErrInvalidPrice, ErrInvalidStock, ErrNameRequired} {
		if errors.Is(err, v) {
			return v.Error()
		}
	}
	return ErrValidation.Error()
}
