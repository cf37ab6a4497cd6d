package ports

import "context"

// CreateUserRequest cuerpo de la función de aprovisionamiento de identidades.
type CreateUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Nombre       string `json:"nombre"`
	Role         string `json:"role"`
	AvatarBase64 string `json:"avatar_base64,omitempty"`
}

// ProvisionedUser usuario devuelto por la función (identidad + perfil ya creados).
type ProvisionedUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Nombre    string `json:"nombre"`
	Role      string `json:"role"`
	Activo    bool   `json:"activo"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// IdentityProvisioner crea identidad y perfil en una sola llamada atómica del lado servidor.
// La verificación de permisos del llamador (callerToken) la hace el servicio externo.
type IdentityProvisioner interface {
	CreateUser(ctx context.Context, callerToken string, req CreateUserRequest) (*ProvisionedUser, error)
}
