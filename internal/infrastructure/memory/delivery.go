package memory

import (
	"context"
	"encoding/base64"
	"sort"
	"strings"

	"github.com/jhoicas/colmado-api/internal/application/ports"
	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
	"github.com/jhoicas/colmado-api/internal/domain/repository"
)

// AvatarBucket bucket que usa la función de alta en memoria para los avatares.
const AvatarBucket = "avatars"

var (
	_ ports.IdentityProvisioner               = (*IdentityService)(nil)
	_ repository.ProfileRepository            = (*ProfileRepo)(nil)
	_ repository.ColmadoAssociationRepository = (*AssociationRepo)(nil)
	_ repository.DeliveryViewRepository       = (*DeliveryViewRepo)(nil)
)

// IdentityService función create-user en memoria: crea identidad y perfil juntos.
type IdentityService struct{ s *Store }

// ProfileRepo tabla profiles en memoria.
type ProfileRepo struct{ s *Store }

// AssociationRepo tabla colmado_users en memoria.
type AssociationRepo struct{ s *Store }

// DeliveryViewRepo vista profiles ⋈ colmado_users en memoria.
type DeliveryViewRepo struct{ s *Store }

func (s *Store) Identity() *IdentityService { return &IdentityService{s: s} }

func (s *Store) Profiles() *ProfileRepo { return &ProfileRepo{s: s} }

func (s *Store) Associations() *AssociationRepo { return &AssociationRepo{s: s} }

func (s *Store) DeliveryView() *DeliveryViewRepo { return &DeliveryViewRepo{s: s} }

func (i *IdentityService) CreateUser(_ context.Context, callerToken string, req ports.CreateUserRequest) (*ports.ProvisionedUser, error) {
	s := i.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreateUser); err != nil {
		return nil, err
	}
	if strings.TrimSpace(callerToken) == "" {
		return nil, domain.ErrUnauthorized
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	for _, p := range s.profiles {
		if p.Email == email {
			return nil, domain.ErrDuplicate
		}
	}
	p := entity.Profile{
		ID:     newID(),
		Email:  email,
		Nombre: req.Nombre,
		Role:   req.Role,
		Activo: true,
	}
	if req.AvatarBase64 != "" && s.identityAvatar {
		raw, err := base64.StdEncoding.DecodeString(req.AvatarBase64)
		if err != nil {
			return nil, domain.Wrap(domain.ErrValidation, err)
		}
		path := p.ID + "/avatar.jpg"
		s.blobs[blobKey(AvatarBucket, path)] = raw
		p.AvatarURL = s.baseURL + "/storage/v1/object/public/" + AvatarBucket + "/" + path
	}
	s.profiles[p.ID] = p
	s.passwords[p.ID] = req.Password
	return &ports.ProvisionedUser{
		ID:        p.ID,
		Email:     p.Email,
		Nombre:    p.Nombre,
		Role:      p.Role,
		Activo:    p.Activo,
		AvatarURL: p.AvatarURL,
	}, nil
}

func (r *ProfileRepo) GetByID(_ context.Context, id string) (*entity.Profile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetProfile); err != nil {
		return nil, err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProfileRepo) GetByEmail(_ context.Context, email string) (*entity.Profile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetProfile); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range s.profiles {
		if p.Email == email {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (r *ProfileRepo) Update(_ context.Context, id string, patch repository.ProfilePatch) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpUpdateProfile); err != nil {
		return err
	}
	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Nombre != nil {
		p.Nombre = *patch.Nombre
	}
	if patch.Activo != nil {
		p.Activo = *patch.Activo
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = *patch.AvatarURL
	}
	s.profiles[id] = p
	for _, a := range s.assocs {
		if a.UserID == id {
			s.markWritten(deliveryKey(id, a.ColmadoID))
		}
	}
	return nil
}

func (r *AssociationRepo) Get(_ context.Context, userID, colmadoID string) (*entity.ColmadoAssociation, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetAssociation); err != nil {
		return nil, err
	}
	for _, a := range s.assocs {
		if a.UserID == userID && a.ColmadoID == colmadoID {
			out := a
			return &out, nil
		}
	}
	return nil, nil
}

// Insert respeta las restricciones del backend: par (usuario, colmado) único y un solo owner por colmado.
func (r *AssociationRepo) Insert(_ context.Context, a entity.ColmadoAssociation) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpInsertAssociation); err != nil {
		return err
	}
	if _, ok := s.profiles[a.UserID]; !ok {
		return domain.ErrForeignKey
	}
	for _, existing := range s.assocs {
		if existing.UserID == a.UserID && existing.ColmadoID == a.ColmadoID {
			return domain.ErrDuplicate
		}
		if a.RoleInColmado == entity.RoleOwner && existing.ColmadoID == a.ColmadoID && existing.RoleInColmado == entity.RoleOwner {
			return domain.ErrDuplicate
		}
	}
	s.assocs = append(s.assocs, a)
	s.markWritten(deliveryKey(a.UserID, a.ColmadoID))
	return nil
}

func (r *AssociationRepo) Delete(_ context.Context, userID, colmadoID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteAssociation); err != nil {
		return err
	}
	kept := s.assocs[:0]
	for _, a := range s.assocs {
		if a.UserID == userID && a.ColmadoID == colmadoID {
			continue
		}
		kept = append(kept, a)
	}
	s.assocs = kept
	delete(s.hidden, deliveryKey(userID, colmadoID))
	return nil
}

func (r *DeliveryViewRepo) Get(_ context.Context, userID, colmadoID string) (*entity.DeliveryUser, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetDelivery); err != nil {
		return nil, err
	}
	for _, a := range s.assocs {
		if a.UserID != userID || a.ColmadoID != colmadoID || a.RoleInColmado != entity.RoleDelivery {
			continue
		}
		p, ok := s.profiles[userID]
		if !ok || !s.visible(deliveryKey(userID, colmadoID)) {
			return nil, nil
		}
		return entity.ComposeDeliveryUser(p, a), nil
	}
	return nil, nil
}

func (r *DeliveryViewRepo) ListByColmado(_ context.Context, colmadoID string) ([]*entity.DeliveryUser, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetDelivery); err != nil {
		return nil, err
	}
	var out []*entity.DeliveryUser
	for _, a := range s.assocs {
		if a.ColmadoID != colmadoID || a.RoleInColmado != entity.RoleDelivery {
			continue
		}
		if p, ok := s.profiles[a.UserID]; ok {
			out = append(out, entity.ComposeDeliveryUser(p, a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}
