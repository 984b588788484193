package entity

import "time"

// Roles globales válidos para User.
// RoleSuper opera sobre cualquier organización sin membership (bypass privilegiado).
const (
	RoleSuper  = "super"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User representa un usuario del sistema. OrganizationID es su tenant primario;
// el acceso a otras organizaciones se otorga vía Membership.
type User struct {
	ID             string
	OrganizationID string // tenant primario ("" = sin tenant primario, ej. cuentas super)
	Email          string
	PasswordHash   string // bcrypt hash, nunca plano en dominio después de persistir
	Name           string
	Role           string // super, admin, member
	Status         string // active, inactive, suspended
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
