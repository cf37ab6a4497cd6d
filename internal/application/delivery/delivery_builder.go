// Package delivery da de alta y administra repartidores de un colmado: identidad y perfil
// (servicio externo), avatar opcional y asociación con el colmado.
package delivery

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/colmado-api/internal/application/consistency"
	"github.com/jhoicas/colmado-api/internal/application/dto"
	"github.com/jhoicas/colmado-api/internal/application/ports"
	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/catalog"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
	"github.com/jhoicas/colmado-api/internal/domain/repository"
	"github.com/jhoicas/colmado-api/pkg/logger"
)

// DeliveryBuilderConfig parámetros del flujo.
type DeliveryBuilderConfig struct {
	AvatarBucket string
	Poller       consistency.Poller
}

// DeliveryBuilder orquesta el ciclo de vida de los repartidores.
type DeliveryBuilder struct {
	identity ports.IdentityProvisioner
	profiles repository.ProfileRepository
	assocs   repository.ColmadoAssociationRepository
	view     repository.DeliveryViewRepository
	blobs    ports.BlobStore
	log      *logger.Logger
	cfg      DeliveryBuilderConfig
}

func NewDeliveryBuilder(
	identity ports.IdentityProvisioner,
	profiles repository.ProfileRepository,
	assocs repository.ColmadoAssociationRepository,
	view repository.DeliveryViewRepository,
	blobs ports.BlobStore,
	log *logger.Logger,
	cfg DeliveryBuilderConfig,
) *DeliveryBuilder {
	if log == nil {
		log = logger.Nop()
	}
	return &DeliveryBuilder{
		identity: identity,
		profiles: profiles,
		assocs:   assocs,
		view:     view,
		blobs:    blobs,
		log:      log.Named("delivery_builder"),
		cfg:      cfg,
	}
}

// CreateDelivery crea la cuenta del repartidor y la asocia al colmado.
//
// La identidad y el perfil los crea el servicio externo en una sola llamada. Si la
// asociación falla la cuenta queda creada (no se revierte) y se devuelve
// ErrAssociationFailed para que el llamador pueda reintentar la asignación.
func (b *DeliveryBuilder) CreateDelivery(ctx context.Context, callerToken string, in dto.CreateDeliveryRequest) (*dto.DeliveryResponse, error) {
	if strings.TrimSpace(callerToken) == "" {
		return nil, domain.ErrUnauthorized
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	nombre := catalog.NormalizeText(in.Nombre)
	colmadoID := strings.TrimSpace(in.ColmadoID)
	if email == "" || nombre == "" || colmadoID == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email, contraseña, nombre y colmado son obligatorios", domain.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	work := context.WithoutCancel(ctx)

	req := ports.CreateUserRequest{
		Email:    email,
		Password: in.Password,
		Nombre:   nombre,
		Role:     entity.RoleDelivery,
	}
	if in.Avatar != nil && len(in.Avatar.Data) > 0 {
		req.AvatarBase64 = base64.StdEncoding.EncodeToString(in.Avatar.Data)
	}

	// 1. Identidad + perfil
	user, err := b.identity.CreateUser(work, callerToken, req)
	if err != nil {
		return nil, fmt.Errorf("crear usuario: %w", err)
	}
	profile := entity.Profile{
		ID:        user.ID,
		Email:     user.Email,
		Nombre:    user.Nombre,
		Role:      user.Role,
		Activo:    user.Activo,
		AvatarURL: user.AvatarURL,
	}
	if profile.Email == "" {
		profile.Email = email
	}
	if profile.Nombre == "" {
		profile.Nombre = nombre
	}

	// 2. Avatar, solo si la función no lo guardó
	if profile.AvatarURL == "" && in.Avatar != nil && len(in.Avatar.Data) > 0 {
		if u, ok := b.storeAvatar(work, profile.ID, *in.Avatar); ok {
			profile.AvatarURL = u
		}
	}

	// 3. Asociación con el colmado: la identidad no se revierte
	assoc := entity.ColmadoAssociation{UserID: profile.ID, ColmadoID: colmadoID, RoleInColmado: entity.RoleDelivery}
	if err := b.assocs.Insert(work, assoc); err != nil {
		b.log.Error().Err(err).
			Str("user_id", profile.ID).
			Str("colmado_id", colmadoID).
			Msg("usuario creado pero sin asociación al colmado")
		return nil, domain.Wrap(domain.ErrAssociationFailed, err)
	}
	b.log.Info().Str("user_id", profile.ID).Str("colmado_id", colmadoID).Msg("repartidor creado")

	// 4. Vista compuesta
	return toDeliveryResponse(b.readView(ctx, entity.ComposeDeliveryUser(profile, assoc))), nil
}

// UpdateDelivery cambia nombre y/o avatar del perfil.
func (b *DeliveryBuilder) UpdateDelivery(ctx context.Context, userID, colmadoID string, in dto.UpdateDeliveryRequest) (*dto.DeliveryResponse, error) {
	var patch repository.ProfilePatch
	if in.Nombre != nil {
		n := catalog.NormalizeText(*in.Nombre)
		if n == "" {
			return nil, fmt.Errorf("%w: el nombre no puede quedar vacío", domain.ErrValidation)
		}
		patch.Nombre = &n
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	work := context.WithoutCancel(ctx)

	assoc, err := b.deliveryOf(work, userID, colmadoID)
	if err != nil {
		return nil, err
	}
	if in.Avatar != nil && len(in.Avatar.Data) > 0 {
		if u, ok := b.uploadAvatar(work, userID, *in.Avatar); ok {
			patch.AvatarURL = &u
		}
	}
	return b.patchAndRead(ctx, work, *assoc, patch)
}

// EnableDelivery reactiva al repartidor.
func (b *DeliveryBuilder) EnableDelivery(ctx context.Context, userID, colmadoID string) (*dto.DeliveryResponse, error) {
	return b.setActive(ctx, userID, colmadoID, true)
}

// DisableDelivery desactiva al repartidor sin quitarlo del colmado.
func (b *DeliveryBuilder) DisableDelivery(ctx context.Context, userID, colmadoID string) (*dto.DeliveryResponse, error) {
	return b.setActive(ctx, userID, colmadoID, false)
}

func (b *DeliveryBuilder) setActive(ctx context.Context, userID, colmadoID string, active bool) (*dto.DeliveryResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	work := context.WithoutCancel(ctx)
	assoc, err := b.deliveryOf(work, userID, colmadoID)
	if err != nil {
		return nil, err
	}
	return b.patchAndRead(ctx, work, *assoc, repository.ProfilePatch{Activo: &active})
}

// RemoveDeliveryFromColmado quita solo la asociación; identidad y perfil se conservan.
func (b *DeliveryBuilder) RemoveDeliveryFromColmado(ctx context.Context, userID, colmadoID string) error {
	if _, err := b.deliveryOf(ctx, userID, colmadoID); err != nil {
		return err
	}
	if err := b.assocs.Delete(ctx, userID, colmadoID); err != nil {
		return fmt.Errorf("quitar repartidor: %w", err)
	}
	b.log.Info().Str("user_id", userID).Str("colmado_id", colmadoID).Msg("repartidor quitado del colmado")
	return nil
}

// ListDeliveries repartidores asociados al colmado.
func (b *DeliveryBuilder) ListDeliveries(ctx context.Context, colmadoID string) (*dto.DeliveryListResponse, error) {
	users, err := b.view.ListByColmado(ctx, colmadoID)
	if err != nil {
		return nil, err
	}
	out := &dto.DeliveryListResponse{Items: make([]dto.DeliveryResponse, 0, len(users))}
	for _, u := range users {
		out.Items = append(out.Items, *toDeliveryResponse(u))
	}
	return out, nil
}

// deliveryOf asociación del usuario con el colmado. ErrNotFound si no es repartidor de ese colmado.
func (b *DeliveryBuilder) deliveryOf(ctx context.Context, userID, colmadoID string) (*entity.ColmadoAssociation, error) {
	a, err := b.assocs.Get(ctx, userID, colmadoID)
	if err != nil {
		return nil, fmt.Errorf("leer asociación: %w", err)
	}
	if a == nil || a.RoleInColmado != entity.RoleDelivery {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (b *DeliveryBuilder) patchAndRead(ctx, work context.Context, assoc entity.ColmadoAssociation, patch repository.ProfilePatch) (*dto.DeliveryResponse, error) {
	userID := assoc.UserID
	if !patch.Empty() {
		if err := b.profiles.Update(work, userID, patch); err != nil {
			return nil, fmt.Errorf("actualizar perfil: %w", err)
		}
	}

	local := &entity.DeliveryUser{ID: userID, ColmadoID: assoc.ColmadoID, RoleInColmado: assoc.RoleInColmado}
	if p, err := b.profiles.GetByID(work, userID); err == nil && p != nil {
		local = entity.ComposeDeliveryUser(*p, assoc)
	} else {
		if patch.Nombre != nil {
			local.Nombre = *patch.Nombre
		}
		if patch.Activo != nil {
			local.Activo = *patch.Activo
		}
		if patch.AvatarURL != nil {
			local.AvatarURL = *patch.AvatarURL
		}
	}
	return toDeliveryResponse(b.readView(ctx, local)), nil
}

// storeAvatar sube el avatar y actualiza el perfil. Las fallas solo se registran.
func (b *DeliveryBuilder) storeAvatar(ctx context.Context, userID string, img dto.ImageFile) (string, bool) {
	u, ok := b.uploadAvatar(ctx, userID, img)
	if !ok {
		return "", false
	}
	if err := b.profiles.Update(ctx, userID, repository.ProfilePatch{AvatarURL: &u}); err != nil {
		b.log.Warn().Err(err).Str("user_id", userID).Msg("avatar subido pero no se pudo guardar en el perfil")
		return "", false
	}
	return u, true
}

func (b *DeliveryBuilder) uploadAvatar(ctx context.Context, userID string, img dto.ImageFile) (string, bool) {
	path := userID + "/avatar.jpg"
	if err := b.blobs.PutBlob(ctx, b.cfg.AvatarBucket, path, img.Data, img.ContentTypeOrDefault()); err != nil {
		b.log.Warn().Err(domain.Wrap(domain.ErrPartialUpload, err)).Str("user_id", userID).Msg("subida de avatar fallida, se omite")
		return "", false
	}
	return b.blobs.PublicURL(b.cfg.AvatarBucket, path), true
}

// readView espera a que la vista refleje al repartidor; si no llega compone con lo conocido.
func (b *DeliveryBuilder) readView(ctx context.Context, local *entity.DeliveryUser) *entity.DeliveryUser {
	u, err := consistency.Poll[entity.DeliveryUser](ctx, b.cfg.Poller, func(ctx context.Context) (*entity.DeliveryUser, error) {
		return b.view.Get(ctx, local.ID, local.ColmadoID)
	})
	switch {
	case err == nil:
		return u
	case errors.Is(err, domain.ErrNotYetVisible):
		b.log.Debug().Str("user_id", local.ID).Msg("vista de repartidor aún no visible, se usa composición local")
	default:
		b.log.Warn().Err(err).Str("user_id", local.ID).Msg("lectura de vista de repartidor fallida, se usa composición local")
	}
	return local
}

func toDeliveryResponse(u *entity.DeliveryUser) *dto.DeliveryResponse {
	return &dto.DeliveryResponse{
		ID:            u.ID,
		Email:         u.Email,
		Nombre:        u.Nombre,
		Activo:        u.Activo,
		AvatarURL:     u.AvatarURL,
		ColmadoID:     u.ColmadoID,
		RoleInColmado: u.RoleInColmado,
	}
}
