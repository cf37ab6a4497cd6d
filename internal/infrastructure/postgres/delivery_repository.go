package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
	"github.com/jhoicas/colmado-api/internal/domain/repository"
)

var (
	_ repository.ProfileRepository            = (*ProfileRepo)(nil)
	_ repository.ColmadoAssociationRepository = (*AssociationRepo)(nil)
	_ repository.DeliveryViewRepository       = (*DeliveryViewRepo)(nil)
)

// ProfileRepo tabla profiles. El alta la hace la función de identidades.
type ProfileRepo struct {
	q Querier
}

func NewProfileRepository(q Querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	return r.getOne(ctx, "id", id)
}

func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	return r.getOne(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *ProfileRepo) getOne(ctx context.Context, column, value string) (*entity.Profile, error) {
	var p entity.Profile
	var avatar *string
	err := r.q.QueryRow(ctx, `
		SELECT id, email, nombre, role, activo, avatar_url
		FROM profiles WHERE `+column+` = $1`, value).Scan(
		&p.ID, &p.Email, &p.Nombre, &p.Role, &p.Activo, &avatar,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get profile", err)
	}
	if avatar != nil {
		p.AvatarURL = *avatar
	}
	return &p, nil
}

// Update aplica solo los campos presentes en el patch.
func (r *ProfileRepo) Update(ctx context.Context, id string, patch repository.ProfilePatch) error {
	if patch.Empty() {
		return nil
	}
	sets := make([]string, 0, 3)
	args := []any{id}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Nombre != nil {
		add("nombre", *patch.Nombre)
	}
	if patch.Activo != nil {
		add("activo", *patch.Activo)
	}
	if patch.AvatarURL != nil {
		add("avatar_url", *patch.AvatarURL)
	}
	tag, err := r.q.Exec(ctx, `UPDATE profiles SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return classify("update profile", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AssociationRepo tabla colmado_users.
type AssociationRepo struct {
	q Querier
}

func NewAssociationRepository(q Querier) *AssociationRepo {
	return &AssociationRepo{q: q}
}

// Get (nil, nil) si el usuario no pertenece al colmado.
func (r *AssociationRepo) Get(ctx context.Context, userID, colmadoID string) (*entity.ColmadoAssociation, error) {
	a := entity.ColmadoAssociation{}
	err := r.q.QueryRow(ctx, `
		SELECT user_id, colmado_id, role_in_colmado FROM colmado_users
		WHERE user_id = $1 AND colmado_id = $2`, userID, colmadoID).Scan(&a.UserID, &a.ColmadoID, &a.RoleInColmado)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get colmado user", err)
	}
	return &a, nil
}

func (r *AssociationRepo) Insert(ctx context.Context, a entity.ColmadoAssociation) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO colmado_users (user_id, colmado_id, role_in_colmado) VALUES ($1, $2, $3)`,
		a.UserID, a.ColmadoID, a.RoleInColmado)
	return classify("insert colmado user", err)
}

func (r *AssociationRepo) Delete(ctx context.Context, userID, colmadoID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM colmado_users WHERE user_id = $1 AND colmado_id = $2`, userID, colmadoID)
	return classify("delete colmado user", err)
}

// DeliveryViewRepo join profiles ⋈ colmado_users.
type DeliveryViewRepo struct {
	q Querier
}

func NewDeliveryViewRepository(q Querier) *DeliveryViewRepo {
	return &DeliveryViewRepo{q: q}
}

const deliveryViewQuery = `
	SELECT p.id, p.email, p.nombre, p.activo, p.avatar_url, cu.colmado_id, cu.role_in_colmado
	FROM colmado_users cu
	JOIN profiles p ON p.id = cu.user_id
	WHERE cu.role_in_colmado = 'delivery'`

func (r *DeliveryViewRepo) Get(ctx context.Context, userID, colmadoID string) (*entity.DeliveryUser, error) {
	users, err := r.list(ctx, deliveryViewQuery+` AND cu.user_id = $1 AND cu.colmado_id = $2`, userID, colmadoID)
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return users[0], nil
}

func (r *DeliveryViewRepo) ListByColmado(ctx context.Context, colmadoID string) ([]*entity.DeliveryUser, error) {
	return r.list(ctx, deliveryViewQuery+` AND cu.colmado_id = $1 ORDER BY p.nombre`, colmadoID)
}

func (r *DeliveryViewRepo) list(ctx context.Context, query string, args ...any) ([]*entity.DeliveryUser, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list delivery users", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.DeliveryUser, error) {
		var u entity.DeliveryUser
		var avatar *string
		err := row.Scan(&u.ID, &u.Email, &u.Nombre, &u.Activo, &avatar, &u.ColmadoID, &u.RoleInColmado)
		if avatar != nil {
			u.AvatarURL = *avatar
		}
		return &u, err
	})
	if err != nil {
		return nil, classify("scan delivery users", err)
	}
	return users, nil
}
