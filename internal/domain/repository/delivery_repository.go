package repository

import (
	"context"

	"github.com/jhoicas/colmado-api/internal/domain/entity"
)

// ProfilePatch campos modificables de un perfil; nil = sin cambio.
type ProfilePatch struct {
	Nombre    *string
	Activo    *bool
	AvatarURL *string
}

// Empty indica si el patch no modifica nada.
func (p ProfilePatch) Empty() bool {
	return p.Nombre == nil && p.Activo == nil && p.AvatarURL == nil
}

// ProfileRepository puerto de la tabla de perfiles. El alta la hace el servicio de identidad.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
	GetByEmail(ctx context.Context, email string) (*entity.Profile, error)
	// Update aplica el patch. ErrNotFound si el perfil no existe.
	Update(ctx context.Context, id string, patch ProfilePatch) error
}

// ColmadoAssociationRepository puerto de la tabla usuario-colmado.
type ColmadoAssociationRepository interface {
	// Get devuelve (nil, nil) si el usuario no está asociado al colmado.
	Get(ctx context.Context, userID, colmadoID string) (*entity.ColmadoAssociation, error)
	Insert(ctx context.Context, assoc entity.ColmadoAssociation) error
	Delete(ctx context.Context, userID, colmadoID string) error
}

// DeliveryViewRepository lectura de la vista compuesta perfil ⋈ asociación.
type DeliveryViewRepository interface {
	// Get devuelve (nil, nil) si la vista todavía no refleja al usuario.
	Get(ctx context.Context, userID, colmadoID string) (*entity.DeliveryUser, error)
	ListByColmado(ctx context.Context, colmadoID string) ([]*entity.DeliveryUser, error)
}
