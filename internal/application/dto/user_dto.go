package dto

import "time"

// RegisterRequest alta de usuario.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"` // admin | member (default member)
}

// LoginRequest credenciales de acceso. OrganizationID es opcional: si se
// omite, el token se emite contra el tenant primario del usuario.
type LoginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// UserResponse usuario sin campos sensibles.
type UserResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LoginResponse token emitido más el usuario autenticado.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
