package dto

import "time"

// CreateOrganizationRequest alta de organización (flujo administrativo).
type CreateOrganizationRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// UpdateOrganizationRequest cambios mutables de una organización.
type UpdateOrganizationRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// OrganizationResponse organización en respuestas.
type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GrantMembershipRequest otorga acceso de un usuario a una organización.
type GrantMembershipRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"` // admin | member (default member)
}

// UpdateMembershipRequest cambia el rol de un membership.
type UpdateMembershipRequest struct {
	Role string `json:"role"`
}

// MembershipResponse membership en respuestas.
type MembershipResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
