package entity

import "time"

// Estados válidos para Membership.
const (
	MembershipStatusActive  = "active"
	MembershipStatusRevoked = "revoked"
)

// Membership otorga a un usuario acceso a una organización distinta de (o además de)
// su tenant primario. Es la fuente de verdad del acceso multi-tenant: un usuario
// puede tener cero, uno o muchos memberships.
type Membership struct {
	ID             string
	UserID         string
	OrganizationID string
	Role           string // rol efectivo dentro de esa organización: admin, member
	Status         string // active, revoked
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive informa si el membership otorga acceso.
func (m *Membership) IsActive() bool {
	return m != nil && m.Status == MembershipStatusActive
}
