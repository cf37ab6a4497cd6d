package supabase

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
	"github.com/jhoicas/colmado-api/internal/domain/repository"
)

var (
	_ repository.ProfileRepository            = (*ProfileRepository)(nil)
	_ repository.ColmadoAssociationRepository = (*AssociationRepository)(nil)
	_ repository.DeliveryViewRepository       = (*DeliveryViewRepository)(nil)
)

const (
	tableProfiles     = "profiles"
	tableColmadoUsers = "colmado_users"

	deliveryViewSelect = "user_id,colmado_id,role_in_colmado,profiles(id,email,nombre,role,activo,avatar_url)"
)

type profileRow struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Nombre    string  `json:"nombre"`
	Role      string  `json:"role"`
	Activo    bool    `json:"activo"`
	AvatarURL *string `json:"avatar_url"`
}

func (r profileRow) toEntity() entity.Profile {
	p := entity.Profile{ID: r.ID, Email: r.Email, Nombre: r.Nombre, Role: r.Role, Activo: r.Activo}
	if r.AvatarURL != nil {
		p.AvatarURL = *r.AvatarURL
	}
	return p
}

type colmadoUserRow struct {
	UserID        string      `json:"user_id"`
	ColmadoID     string      `json:"colmado_id"`
	RoleInColmado string      `json:"role_in_colmado"`
	Profile       *profileRow `json:"profiles,omitempty"`
}

// ProfileRepository tabla profiles.
type ProfileRepository struct{ c *Client }

func NewProfileRepository(c *Client) *ProfileRepository { return &ProfileRepository{c: c} }

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	return r.getOne(ctx, Eq("id", id))
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	return r.getOne(ctx, Eq("email", strings.ToLower(strings.TrimSpace(email))))
}

func (r *ProfileRepository) getOne(ctx context.Context, f Filter) (*entity.Profile, error) {
	var rows []profileRow
	if err := r.c.Select(ctx, tableProfiles, Query{Select: "*", Filters: []Filter{f}, Limit: 1}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	p := rows[0].toEntity()
	return &p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, id string, patch repository.ProfilePatch) error {
	if patch.Empty() {
		return nil
	}
	body := map[string]any{}
	if patch.Nombre != nil {
		body["nombre"] = *patch.Nombre
	}
	if patch.Activo != nil {
		body["activo"] = *patch.Activo
	}
	if patch.AvatarURL != nil {
		body["avatar_url"] = *patch.AvatarURL
	}
	var rows []profileRow
	if err := r.c.Update(ctx, tableProfiles, []Filter{Eq("id", id)}, body, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AssociationRepository tabla colmado_users.
type AssociationRepository struct{ c *Client }

func NewAssociationRepository(c *Client) *AssociationRepository {
	return &AssociationRepository{c: c}
}

func (r *AssociationRepository) Get(ctx context.Context, userID, colmadoID string) (*entity.ColmadoAssociation, error) {
	var rows []colmadoUserRow
	q := Query{
		Select:  "user_id,colmado_id,role_in_colmado",
		Filters: []Filter{Eq("user_id", userID), Eq("colmado_id", colmadoID)},
		Limit:   1,
	}
	if err := r.c.Select(ctx, tableColmadoUsers, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &entity.ColmadoAssociation{
		UserID:        rows[0].UserID,
		ColmadoID:     rows[0].ColmadoID,
		RoleInColmado: rows[0].RoleInColmado,
	}, nil
}

func (r *AssociationRepository) Insert(ctx context.Context, a entity.ColmadoAssociation) error {
	return r.c.Insert(ctx, tableColmadoUsers, colmadoUserRow{
		UserID:        a.UserID,
		ColmadoID:     a.ColmadoID,
		RoleInColmado: a.RoleInColmado,
	}, nil)
}

func (r *AssociationRepository) Delete(ctx context.Context, userID, colmadoID string) error {
	return r.c.Delete(ctx, tableColmadoUsers, []Filter{Eq("user_id", userID), Eq("colmado_id", colmadoID)})
}

// DeliveryViewRepository colmado_users con el perfil embebido.
type DeliveryViewRepository struct{ c *Client }

func NewDeliveryViewRepository(c *Client) *DeliveryViewRepository {
	return &DeliveryViewRepository{c: c}
}

func (r *DeliveryViewRepository) Get(ctx context.Context, userID, colmadoID string) (*entity.DeliveryUser, error) {
	users, err := r.list(ctx, Eq("user_id", userID), Eq("colmado_id", colmadoID))
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return users[0], nil
}

func (r *DeliveryViewRepository) ListByColmado(ctx context.Context, colmadoID string) ([]*entity.DeliveryUser, error) {
	users, err := r.list(ctx, Eq("colmado_id", colmadoID))
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Nombre < users[j].Nombre })
	return users, nil
}

func (r *DeliveryViewRepository) list(ctx context.Context, filters ...Filter) ([]*entity.DeliveryUser, error) {
	var rows []colmadoUserRow
	err := r.c.Select(ctx, tableColmadoUsers, Query{
		Select:  deliveryViewSelect,
		Filters: append(filters, Eq("role_in_colmado", entity.RoleDelivery)),
	}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.DeliveryUser, 0, len(rows))
	for _, row := range rows {
		// sin perfil embebido la vista todavía no refleja al usuario
		if row.Profile == nil {
			continue
		}
		out = append(out, entity.ComposeDeliveryUser(row.Profile.toEntity(), entity.ColmadoAssociation{
			UserID:        row.UserID,
			ColmadoID:     row.ColmadoID,
			RoleInColmado: row.RoleInColmado,
		}))
	}
	return out, nil
}
