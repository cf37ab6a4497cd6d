package dto

// CreateDeliveryRequest alta de un repartidor para un colmado.
type CreateDeliveryRequest struct {
	Email     string     `json:"email" validate:"required,email"`
	Password  string     `json:"password" validate:"required,min=6"`
	Nombre    string     `json:"nombre" validate:"required,max=120"`
	ColmadoID string     `json:"colmado_id" validate:"required"`
	Avatar    *ImageFile `json:"-"`
}

// UpdateDeliveryRequest cambios de perfil de un repartidor.
type UpdateDeliveryRequest struct {
	Nombre *string    `json:"nombre" validate:"omitempty,min=1,max=120"`
	Avatar *ImageFile `json:"-"`
}

// DeliveryResponse salida de un repartidor.
type DeliveryResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Nombre        string `json:"nombre"`
	Activo        bool   `json:"activo"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	ColmadoID     string `json:"colmado_id"`
	RoleInColmado string `json:"role_in_colmado"`
}

// DeliveryListResponse repartidores de un colmado.
type DeliveryListResponse struct {
	Items []DeliveryResponse `json:"items"`
}
