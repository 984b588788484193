package repository

import (
	"context"

	"github.com/tu-usuario/gestion-pro/internal/domain/entity"
)

// MembershipRepository define el puerto de persistencia para Membership.
// Es el system-of-record que consulta el verificador de acceso en cache miss.
type MembershipRepository interface {
	Create(ctx context.Context, m *entity.Membership) error
	// GetByUserAndOrg devuelve el membership (userID, orgID) o nil si no existe.
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*entity.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Membership, error)
	ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]*entity.Membership, error)
	Update(ctx context.Context, m *entity.Membership) error
	// Revoke marca el membership como revoked; el caché de acceso debe
	// invalidarse explícitamente después (lo hace el caso de uso).
	Revoke(ctx context.Context, userID, orgID string) error
}
