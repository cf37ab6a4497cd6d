package entity

// Roles dentro de un colmado.
const (
	RoleOwner    = "owner"
	RoleDelivery = "delivery"
)

// Profile fila de perfil asociada a una identidad de Supabase Auth.
type Profile struct {
	ID        string
	Email     string
	Nombre    string
	Role      string
	Activo    bool
	AvatarURL string // vacío si no tiene
}

// ColmadoAssociation vínculo usuario-colmado. Un solo "owner" por colmado, muchos "delivery".
type ColmadoAssociation struct {
	UserID        string
	ColmadoID     string
	RoleInColmado string
}

// DeliveryUser repartidor de un colmado: perfil + asociación.
type DeliveryUser struct {
	ID            string
	Email         string
	Nombre        string
	Activo        bool
	AvatarURL     string
	ColmadoID     string
	RoleInColmado string
}

// ComposeDeliveryUser arma la vista de repartidor a partir de perfil y asociación.
func ComposeDeliveryUser(p Profile, a ColmadoAssociation) *DeliveryUser {
	return &DeliveryUser{
		ID:            p.ID,
		Email:         p.Email,
		Nombre:        p.Nombre,
		Activo:        p.Activo,
		AvatarURL:     p.AvatarURL,
		ColmadoID:     a.ColmadoID,
		RoleInColmado: a.RoleInColmado,
	}
}
